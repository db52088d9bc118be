package ws

import "github.com/wasselni/ridehail/pkg/uuid"

// Command kinds clients may send over the socket.
const (
	CmdLocationUpdate = "location_update"
	CmdRideResponse   = "ride_response"
	CmdPing           = "ping"
)

// Command is the envelope for every client-to-server message. Unused fields
// stay at their zero value; the kind decides which ones matter.
type Command struct {
	Kind      string    `json:"kind"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
	RequestID uuid.UUID `json:"request_id,omitempty"`
	Accepted  bool      `json:"accepted,omitempty"`
}
