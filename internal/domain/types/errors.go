package types

import "errors"

var (
	// Lookups
	ErrUserNotFound    = errors.New("user not found")
	ErrRideNotFound    = errors.New("ride not found")
	ErrRequestNotFound = errors.New("ride request not found")
	ErrNotFound        = errors.New("requested item not found")

	// State machine
	ErrInvalidTransition = errors.New("invalid ride state transition")
	ErrActiveRideExists  = errors.New("an active ride already exists")
	ErrRideAlreadyTaken  = errors.New("ride already taken by another driver")

	// Dispatch
	ErrRequestExpired         = errors.New("ride request expired")
	ErrRequestAlreadyAnswered = errors.New("ride request already answered")
	ErrNoDriversAvailable     = errors.New("no drivers available nearby")

	// Ratings
	ErrAlreadyRated = errors.New("ride already rated by this user")

	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailAlreadyExists = errors.New("email already registered")
)
