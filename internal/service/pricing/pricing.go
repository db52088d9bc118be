package pricing

import (
	"math"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
)

const (
	earthRadiusKm   = 6371
	averageSpeedKmh = 40 // city traffic estimate for duration/ETA
)

// Rates is the tariff table. Amounts are in JOD.
type Rates struct {
	BaseFare         float64
	PerKm            float64
	PerMinute        float64
	MinimumFare      float64
	PeakMultiplier   float64
	PeakMorningStart int // hour, inclusive
	PeakMorningEnd   int // hour, exclusive
	PeakEveningStart int
	PeakEveningEnd   int
}

// DefaultRates returns the standard tariff.
func DefaultRates() Rates {
	return Rates{
		BaseFare:         0.50,
		PerKm:            0.28,
		PerMinute:        0.05,
		MinimumFare:      1.10,
		PeakMultiplier:   1.20,
		PeakMorningStart: 7,
		PeakMorningEnd:   9,
		PeakEveningStart: 15,
		PeakEveningEnd:   19,
	}
}

type Calculator struct {
	rates Rates
}

func New(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Fare computes the price of a trip of the given distance and duration,
// applying the peak multiplier based on the local hour of at. The result is
// rounded to 2 decimal places and never falls below the minimum fare.
func (c *Calculator) Fare(distanceKm float64, durationMinutes int, at time.Time) float64 {
	fare := c.rates.BaseFare +
		distanceKm*c.rates.PerKm +
		float64(durationMinutes)*c.rates.PerMinute

	if c.IsPeakHour(at) {
		fare *= c.rates.PeakMultiplier
	}

	fare = math.Round(fare*100) / 100
	if fare < c.rates.MinimumFare {
		fare = c.rates.MinimumFare
	}
	return fare
}

// IsPeakHour reports whether at falls inside a surge window.
func (c *Calculator) IsPeakHour(at time.Time) bool {
	h := at.Hour()
	return (h >= c.rates.PeakMorningStart && h < c.rates.PeakMorningEnd) ||
		(h >= c.rates.PeakEveningStart && h < c.rates.PeakEveningEnd)
}

// Distance computes the great-circle distance between two points in km
// using the haversine formula.
func Distance(p1, p2 models.Location) float64 {
	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	angle := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * angle
}

// EstimateDuration returns the expected trip time in whole minutes,
// assuming the average city speed.
func EstimateDuration(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil((distanceKm / averageSpeedKmh) * 60))
}
