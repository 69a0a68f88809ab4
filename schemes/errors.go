package schemes

import "errors"

var (
	// ErrUnknownScheme is returned by New for a descriptor it cannot build.
	ErrUnknownScheme = errors.New("schemes: unknown scheme type")

	// ErrNegativeTime is returned when a step would end before time zero.
	ErrNegativeTime = errors.New("schemes: step towards negative time")

	// ErrNoConvergence is returned when an iterative solve or an adaptive
	// integration gives up.
	ErrNoConvergence = errors.New("schemes: no convergence")
)
