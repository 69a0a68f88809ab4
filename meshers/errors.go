package meshers

import "errors"

var (
	// ErrInvalidSize is returned when a mesh is requested with fewer than two points.
	ErrInvalidSize = errors.New("meshers: mesh needs at least two points")

	// ErrInvalidBounds is returned when the lower bound is not below the upper bound.
	ErrInvalidBounds = errors.New("meshers: lower bound must be below upper bound")

	// ErrPointOutOfRange is returned when a required concentration point lies
	// outside the mesh interval.
	ErrPointOutOfRange = errors.New("meshers: concentration point outside bounds")

	// ErrNotIncreasing is returned for predefined locations that are not
	// strictly increasing.
	ErrNotIncreasing = errors.New("meshers: locations must be strictly increasing")

	// ErrInvalidProcess is returned when a model cannot parameterise a mesh.
	ErrInvalidProcess = errors.New("meshers: invalid process for mesh construction")
)
