package models

import "errors"

var (
	// ErrInvalidModel signals model parameters outside their admissible range
	// (negative variance, |rho| > 1, non-positive mean reversion, ...).
	ErrInvalidModel = errors.New("models: invalid model parameters")

	// ErrInvalidProcess signals a non-positive spot or volatility.
	ErrInvalidProcess = errors.New("models: invalid process parameters")

	// ErrInvalidSurface signals an empty or ragged volatility surface.
	ErrInvalidSurface = errors.New("models: invalid volatility surface")

	// ErrNoConvergence is returned by root searches that did not converge.
	ErrNoConvergence = errors.New("models: root search did not converge")

	// ErrNoQuotes is returned when a calibration is requested without quotes.
	ErrNoQuotes = errors.New("models: no calibration quotes")
)
