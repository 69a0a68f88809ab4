package layout

import "errors"

var (
	// ErrInvalidDimensions is returned when a layout is requested with no axes
	// or with an axis of size < 1.
	ErrInvalidDimensions = errors.New("layout: dimensions must be non-empty and > 0")

	// ErrCoordinates is returned when a coordinate tuple does not match the layout.
	ErrCoordinates = errors.New("layout: coordinates out of range")
)
