package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput indicates the write was rejected before or by the database.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition indicates a status change not permitted from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
