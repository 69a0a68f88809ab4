package solvers

import "errors"

var (
	// ErrInvalidConfig is returned before any rollback starts when the grid,
	// time stepping or operator set-up is unusable.
	ErrInvalidConfig = errors.New("solvers: invalid configuration")

	// ErrOutOfGrid is returned when a value is requested outside the mesh.
	ErrOutOfGrid = errors.New("solvers: point outside the mesh")
)
