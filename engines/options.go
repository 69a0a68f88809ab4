package engines

import (
	"log/slog"

	"github.com/bcdannyboy/fdquant/solvers"
)

// Option configures an engine.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	localVol *bool
}

// WithLogger sets the logger handed down to the solvers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLocalVol switches the local volatility surface of a Black-Scholes
// process on or off. Heston engines ignore it.
func WithLocalVol(enabled bool) Option {
	return func(o *options) { o.localVol = &enabled }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

func (o options) solverOptions() []solvers.Option {
	s := []solvers.Option{solvers.WithLogger(o.logger)}
	if o.localVol != nil {
		s = append(s, solvers.WithLocalVolatility(*o.localVol))
	}
	return s
}
