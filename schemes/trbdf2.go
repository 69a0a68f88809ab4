package schemes

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/operators"
)

// TrBDF2Scheme takes a trapezoidal sub-step of length α·dt with the given
// scheme, then closes the step with a second order backward difference
// formula. It is L-stable, so it damps the high frequencies Crank-Nicolson
// lets ring.
type TrBDF2Scheme struct {
	alpha       float64
	beta        float64
	dt          float64
	relTol      float64
	op          operators.Composite
	trapezoidal Scheme
	bcs         operators.BoundaryConditionSet
}

// NewTrBDF2Scheme takes a trapezoidal stage of fraction alpha followed by
// a BDF2 stage.
func NewTrBDF2Scheme(alpha float64, op operators.Composite, trapezoidal Scheme, bcs operators.BoundaryConditionSet, relTol float64) *TrBDF2Scheme {
	return &TrBDF2Scheme{
		alpha:       alpha,
		relTol:      relTol,
		op:          op,
		trapezoidal: trapezoidal,
		bcs:         bcs,
	}
}

func (s *TrBDF2Scheme) SetStep(dt float64) {
	s.dt = dt
	s.beta = (1 - s.alpha) / (2 - s.alpha) * dt
}

func (s *TrBDF2Scheme) Step(a []float64, t float64) error {
	if t-s.dt < -negativeTimeTolerance {
		return fmt.Errorf("step from %g by %g: %w", t, s.dt, ErrNegativeTime)
	}

	fStar := append([]float64(nil), a...)
	s.trapezoidal.SetStep(s.alpha * s.dt)
	if err := s.trapezoidal.Step(fStar, t); err != nil {
		return err
	}

	s.op.SetTime(math.Max(0, t-s.dt), math.Max(0, t-s.alpha*s.dt))
	s.bcs.SetTime(math.Max(0, t-s.dt))

	w := (1 - s.alpha) * (1 - s.alpha) / s.alpha
	f := make([]float64, len(a))
	for i := range f {
		f[i] = (fStar[i]/s.alpha - w*a[i]) / (2 - s.alpha)
	}

	s.bcs.ApplyBeforeSolving(s.op, f)
	x, err := solveImplicit(s.op, f, s.beta, s.relTol)
	if err != nil {
		return fmt.Errorf("tr-bdf2 step at t=%g: %w", t, err)
	}
	s.bcs.ApplyAfterSolving(x)

	copy(a, x)
	return nil
}
