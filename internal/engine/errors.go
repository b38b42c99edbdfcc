package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrBadIndex indicates a palette index outside 0-15.
	ErrBadIndex = errors.New("palette index out of range")

	// ErrOutOfCanvas indicates a paint coordinate outside the canvas.
	ErrOutOfCanvas = errors.New("coordinate outside canvas")
)
