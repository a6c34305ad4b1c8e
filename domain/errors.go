package domain

import "errors"

var (
	// ErrInvalidOrder rejects a submission before any book mutation.
	// The caller may fix the order and resubmit.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrCapacityExceeded means the order id space is exhausted.
	// It is fatal to the book instance.
	ErrCapacityExceeded = errors.New("order id capacity exceeded")

	// ErrParse is a boundary error for malformed textual input.
	ErrParse = errors.New("malformed input")
)
