package schemes

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/operators"
	"gonum.org/v1/gonum/floats"
)

// MethodOfLinesScheme treats the discretised PDE as the ODE system
// du/dt = -L u and integrates each step with adaptive Runge-Kutta.
type MethodOfLinesScheme struct {
	eps         float64
	relInitStep float64
	dt          float64
	op          operators.Composite
	bcs         operators.BoundaryConditionSet
}

// NewMethodOfLinesScheme integrates each step with adaptive Runge-Kutta.
func NewMethodOfLinesScheme(eps, relInitStep float64, op operators.Composite, bcs operators.BoundaryConditionSet) *MethodOfLinesScheme {
	return &MethodOfLinesScheme{eps: eps, relInitStep: relInitStep, op: op, bcs: bcs}
}

func (s *MethodOfLinesScheme) SetStep(dt float64) { s.dt = dt }

func (s *MethodOfLinesScheme) Step(a []float64, t float64) error {
	if t-s.dt < -negativeTimeTolerance {
		return fmt.Errorf("step from %g by %g: %w", t, s.dt, ErrNegativeTime)
	}

	rk := AdaptiveRungeKutta{Eps: s.eps, H1: s.relInitStep * s.dt}
	y, err := rk.Integrate(s.derivative, a, t, math.Max(0, t-s.dt))
	if err != nil {
		return fmt.Errorf("method of lines step at t=%g: %w", t, err)
	}
	s.bcs.ApplyAfterSolving(y)

	copy(a, y)
	return nil
}

func (s *MethodOfLinesScheme) derivative(t float64, r []float64) []float64 {
	s.op.SetTime(t, t+0.0001)
	s.bcs.SetTime(t)
	s.bcs.ApplyBeforeApplying(s.op)

	d := s.op.Apply(r)
	floats.Scale(-1, d)

	// points pinned by a boundary condition do not move
	z := floats.AddTo(make([]float64, len(r)), r, d)
	s.bcs.ApplyAfterApplying(z)
	return floats.SubTo(d, z, r)
}
