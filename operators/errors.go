package operators

import "errors"

var (
	// ErrAxisOutOfRange is returned when an operator is built for an axis the
	// mesh does not have.
	ErrAxisOutOfRange = errors.New("operators: axis out of range")

	// ErrSingularSystem is raised when a band solve meets a zero pivot.
	ErrSingularSystem = errors.New("operators: singular band system")

	// ErrInvalidProcess is returned when a model operator is given an invalid process.
	ErrInvalidProcess = errors.New("operators: invalid process")
)
