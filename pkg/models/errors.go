package models

import "errors"

var (
	// ErrNotFound is returned by stores when the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a score write-back loses the last_updated
	// compare-and-swap to a concurrent recompute. Callers treat it as a
	// successful no-op: the other writer already produced a fresh score.
	ErrConflict = errors.New("concurrent recompute conflict")

	// ErrInvalidReaction is returned for reaction values outside
	// {like, dislike, none}.
	ErrInvalidReaction = errors.New("invalid reaction")
)
