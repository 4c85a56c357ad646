package service

import "errors"

// Failure taxonomy surfaced to the HTTP layer. Anything not matching one of
// these sentinels is a dependency failure and maps to a 500.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("ta or admin role required")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("submission was modified by another reviewer")
)
