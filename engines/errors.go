package engines

import "errors"

var (
	// ErrInvalidOption is returned for an instrument an engine cannot price.
	ErrInvalidOption = errors.New("engines: invalid option")

	// ErrInvalidGrid is returned for unusable grid parameters.
	ErrInvalidGrid = errors.New("engines: invalid grid parameters")

	// ErrBarrierTouched is returned when the spot already is beyond a
	// knock-out barrier.
	ErrBarrierTouched = errors.New("engines: barrier already touched")
)
