package ride

import (
	"errors"
	"testing"

	"github.com/wasselni/ridehail/internal/domain/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from types.RideStatus
		to   types.RideStatus
		want bool
	}{
		{"requested to accepted", types.StatusRequested, types.StatusAccepted, true},
		{"requested to cancelled", types.StatusRequested, types.StatusCancelled, true},
		{"accepted to arrived", types.StatusAccepted, types.StatusArrived, true},
		{"accepted to cancelled", types.StatusAccepted, types.StatusCancelled, true},
		{"arrived to in progress", types.StatusArrived, types.StatusInProgress, true},
		{"arrived to cancelled", types.StatusArrived, types.StatusCancelled, true},
		{"in progress to completed", types.StatusInProgress, types.StatusCompleted, true},
		{"in progress to cancelled", types.StatusInProgress, types.StatusCancelled, true},

		{"requested to arrived skips accept", types.StatusRequested, types.StatusArrived, false},
		{"requested to in progress", types.StatusRequested, types.StatusInProgress, false},
		{"accepted to completed skips trip", types.StatusAccepted, types.StatusCompleted, false},
		{"completed is terminal", types.StatusCompleted, types.StatusCancelled, false},
		{"cancelled is terminal", types.StatusCancelled, types.StatusAccepted, false},
		{"no going backwards", types.StatusArrived, types.StatusAccepted, false},
		{"no self transition", types.StatusAccepted, types.StatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCheckTransition(t *testing.T) {
	if err := CheckTransition(types.StatusRequested, types.StatusAccepted); err != nil {
		t.Fatalf("legal transition returned error: %v", err)
	}

	err := CheckTransition(types.StatusCompleted, types.StatusCancelled)
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}
