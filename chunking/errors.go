package chunking

import "errors"

var (
	// ErrDetectorRequired is returned when a boundary detector is not provided.
	ErrDetectorRequired = errors.New("boundary detector required")

	// ErrInvalidBounds is returned when the chunk size bounds are not sane.
	ErrInvalidBounds = errors.New("invalid chunk bounds")
)
