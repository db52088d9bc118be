package ride

import (
	"fmt"

	"github.com/wasselni/ridehail/internal/domain/types"
)

// validTransitions is the ride lifecycle. Cancellation is allowed from any
// non-terminal status, in-progress trips included.
var validTransitions = map[types.RideStatus][]types.RideStatus{
	types.StatusRequested:  {types.StatusAccepted, types.StatusCancelled},
	types.StatusAccepted:   {types.StatusArrived, types.StatusCancelled},
	types.StatusArrived:    {types.StatusInProgress, types.StatusCancelled},
	types.StatusInProgress: {types.StatusCompleted, types.StatusCancelled},
	types.StatusCompleted:  {},
	types.StatusCancelled:  {},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to types.RideStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition, annotated with both
// statuses, when from -> to is not legal.
func CheckTransition(from, to types.RideStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
	}
	return nil
}
