// Package solvers rolls a terminal payoff back to the valuation date and
// interpolates the resulting grid values.
package solvers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
	"github.com/bcdannyboy/fdquant/stepconditions"
)

// State is the progress of a BackwardSolver.
type State int

const (
	Initialized State = iota
	Damping
	MainRollback
	Done
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Damping:
		return "damping"
	case MainRollback:
		return "main-rollback"
	case Done:
		return "done"
	}
	return "unknown"
}

// BackwardSolver runs implicit Euler damping steps right after the payoff,
// then the configured scheme down to the valuation time. Step conditions
// are applied after every step and every stopping time is hit exactly.
type BackwardSolver struct {
	op        operators.Composite
	bcs       operators.BoundaryConditionSet
	condition *stepconditions.Composite
	desc      schemes.Desc
	logger    *slog.Logger

	state State
}

// Option configures the solvers of this package.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	localVol *bool
}

// WithLogger logs state transitions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLocalVolatility switches the local volatility surface of a
// Black-Scholes process on or off.
func WithLocalVolatility(enabled bool) Option {
	return func(o *options) { o.localVol = &enabled }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewBackwardSolver(op operators.Composite, bcs operators.BoundaryConditionSet, condition *stepconditions.Composite, desc schemes.Desc, opts ...Option) (*BackwardSolver, error) {
	if op == nil {
		return nil, fmt.Errorf("nil operator: %w", ErrInvalidConfig)
	}
	if _, err := schemes.New(desc, op, bcs); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}
	if condition == nil {
		condition = stepconditions.NewComposite(nil, nil)
	}
	o := buildOptions(opts)
	return &BackwardSolver{
		op:        op,
		bcs:       bcs,
		condition: condition,
		desc:      desc,
		logger:    o.logger,
	}, nil
}

func (s *BackwardSolver) State() State { return s.state }

// Rollback evolves a from time from back to time to in steps main steps
// preceded by dampingSteps implicit Euler steps.
func (s *BackwardSolver) Rollback(a []float64, from, to float64, steps, dampingSteps int) (err error) {
	if steps < 1 || dampingSteps < 0 {
		return fmt.Errorf("steps %d, damping steps %d: %w", steps, dampingSteps, ErrInvalidConfig)
	}
	if math.IsNaN(from) || math.IsNaN(to) || from < to || to < 0 {
		return fmt.Errorf("rollback from %g to %g: %w", from, to, ErrInvalidConfig)
	}

	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok || !errors.Is(e, operators.ErrSingularSystem) {
				panic(r)
			}
			err = fmt.Errorf("rollback in state %s: %w", s.state, e)
		}
	}()

	allSteps := steps + dampingSteps
	dampingTo := from - (from-to)*float64(dampingSteps)/float64(allSteps)

	if s.desc.Type == schemes.ImplicitEuler {
		dampingSteps, steps, dampingTo = 0, allSteps, from
	}

	if dampingSteps > 0 {
		s.transition(Damping, from, dampingTo, dampingSteps)
		if err := s.evolve(schemes.NewImplicitEulerScheme(s.op, s.bcs), a, from, dampingTo, dampingSteps); err != nil {
			return err
		}
	}

	scheme, err := schemes.New(s.desc, s.op, s.bcs)
	if err != nil {
		return err
	}
	s.transition(MainRollback, dampingTo, to, steps)
	if err := s.evolve(scheme, a, dampingTo, to, steps); err != nil {
		return err
	}
	s.transition(Done, to, to, 0)
	return nil
}

func (s *BackwardSolver) transition(state State, from, to float64, steps int) {
	s.state = state
	s.logger.Debug("backward solver",
		"state", state.String(),
		"scheme", s.desc.Type.String(),
		"from", from,
		"to", to,
		"steps", steps,
	)
}

// evolve takes steps equal steps from from to to, splitting any step that
// straddles a stopping time.
func (s *BackwardSolver) evolve(scheme schemes.Scheme, a []float64, from, to float64, steps int) error {
	dt := (from - to) / float64(steps)
	stopping := s.condition.StoppingTimes()

	scheme.SetStep(dt)
	if n := len(stopping); n > 0 && stopping[n-1] == from {
		s.condition.ApplyTo(a, from)
	}

	t := from
	for i := 0; i < steps; i, t = i+1, t-dt {
		now, next := t, t-dt
		if math.Abs(to-next) < math.Sqrt(epsilon) {
			next = to
		}

		hit := false
		for j := len(stopping) - 1; j >= 0; j-- {
			st := stopping[j]
			if next <= st && st < now {
				hit = true
				scheme.SetStep(now - st)
				if err := scheme.Step(a, now); err != nil {
					return err
				}
				s.condition.ApplyTo(a, st)
				now = st
			}
		}

		if hit {
			if now > next {
				scheme.SetStep(now - next)
				if err := scheme.Step(a, now); err != nil {
					return err
				}
				s.condition.ApplyTo(a, next)
			}
			scheme.SetStep(dt)
			continue
		}

		if err := scheme.Step(a, now); err != nil {
			return err
		}
		s.condition.ApplyTo(a, next)
	}
	return nil
}

const epsilon = 2.220446049250313e-16
