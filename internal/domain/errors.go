package domain

import "errors"

var (
	// ErrNotFound is returned when a plant or file id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSnapshot rejects an import payload before any write.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrInvalidInput    = errors.New("invalid input")
)
