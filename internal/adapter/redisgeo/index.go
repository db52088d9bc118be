package redisgeo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/uuid"
)

const driversKey = "drivers:online"

/*
Index tracks online driver positions in a Redis geo set. Drivers enter the
set when they go online or report a position and leave it when they go
offline, so a radius search over the set is exactly the set of dispatchable
drivers.
*/
type Index struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Index {
	return &Index{rdb: rdb}
}

// Update upserts the driver's position.
func (i *Index) Update(ctx context.Context, driverID uuid.UUID, lat, lng float64) error {
	err := i.rdb.GeoAdd(ctx, driversKey, &redis.GeoLocation{
		Name:      driverID.String(),
		Latitude:  lat,
		Longitude: lng,
	}).Err()
	if err != nil {
		return fmt.Errorf("geo index: Update: %w", err)
	}
	return nil
}

// Remove takes the driver out of the dispatchable set.
func (i *Index) Remove(ctx context.Context, driverID uuid.UUID) error {
	if err := i.rdb.ZRem(ctx, driversKey, driverID.String()).Err(); err != nil {
		return fmt.Errorf("geo index: Remove: %w", err)
	}
	return nil
}

// Nearby returns drivers within radiusKm of the point, closest first.
func (i *Index) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyDriver, error) {
	locs, err := i.rdb.GeoSearchLocation(ctx, driversKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Latitude:   lat,
			Longitude:  lng,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo index: Nearby: %w", err)
	}

	out := make([]models.NearbyDriver, 0, len(locs))
	for _, loc := range locs {
		id, err := uuid.Parse(loc.Name)
		if err != nil {
			// A malformed member should not break dispatch.
			continue
		}
		out = append(out, models.NearbyDriver{DriverID: id, DistanceKm: loc.Dist})
	}
	return out, nil
}

// Ping verifies the Redis connection at startup.
func (i *Index) Ping(ctx context.Context) error {
	return i.rdb.Ping(ctx).Err()
}
