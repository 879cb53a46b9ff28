package room

import "errors"

var (
	ErrNotFound      = errors.New("room not found")
	ErrFull          = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("already in a room")

	// ErrNoRoom marks relay or call actions from a connection without a
	// room. These are user-triggered races, logged and dropped rather than
	// answered with an error event.
	ErrNoRoom = errors.New("not in a room")

	// ErrNoCall marks a candidate arriving while no call is being
	// negotiated; the candidate is dropped.
	ErrNoCall = errors.New("no call in progress")
)
