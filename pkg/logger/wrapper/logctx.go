package wrap

import "context"

type (
	// LogCtx holds contextual information attached to every log record.
	LogCtx struct {
		Action    string
		UserID    string
		RequestID string
		RideID    string
	}

	logCtxKeyStruct struct{}
)

// LogCtxKey is the context key under which a LogCtx travels.
var LogCtxKey = &logCtxKeyStruct{}

// WithLogCtx merges newLc over any LogCtx already in ctx; empty fields keep
// the previous value.
func WithLogCtx(ctx context.Context, newLc LogCtx) context.Context {
	if lc, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		if newLc.Action == "" {
			newLc.Action = lc.Action
		}
		if newLc.UserID == "" {
			newLc.UserID = lc.UserID
		}
		if newLc.RequestID == "" {
			newLc.RequestID = lc.RequestID
		}
		if newLc.RideID == "" {
			newLc.RideID = lc.RideID
		}
	}
	return context.WithValue(ctx, LogCtxKey, newLc)
}

// WithAction adds or updates the Action in the LogCtx within the context.
func WithAction(ctx context.Context, action string) context.Context {
	return WithLogCtx(ctx, LogCtx{Action: action})
}

// WithUserID adds or updates the UserID in the LogCtx within the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return WithLogCtx(ctx, LogCtx{UserID: userID})
}

// WithRequestID adds or updates the RequestID in the LogCtx within the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithLogCtx(ctx, LogCtx{RequestID: requestID})
}

// WithRideID adds or updates the RideID in the LogCtx within the context.
func WithRideID(ctx context.Context, rideID string) context.Context {
	return WithLogCtx(ctx, LogCtx{RideID: rideID})
}
