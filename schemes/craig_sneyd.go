package schemes

import (
	"github.com/bcdannyboy/fdquant/operators"
	"gonum.org/v1/gonum/floats"
)

// CraigSneydScheme adds a second corrector pass to Douglas that treats the
// mixed derivative with weight μ.
type CraigSneydScheme struct {
	theta, mu float64
	dt        float64
	op        operators.Composite
	bcs       operators.BoundaryConditionSet
}

// NewCraigSneydScheme returns a Craig-Sneyd stepper over op.
func NewCraigSneydScheme(theta, mu float64, op operators.Composite, bcs operators.BoundaryConditionSet) *CraigSneydScheme {
	return &CraigSneydScheme{theta: theta, mu: mu, op: op, bcs: bcs}
}

func (s *CraigSneydScheme) SetStep(dt float64) { s.dt = dt }

func (s *CraigSneydScheme) Step(a []float64, t float64) error {
	if err := prepare(s.op, s.bcs, t, s.dt); err != nil {
		return err
	}

	s.bcs.ApplyBeforeApplying(s.op)
	y := predict(s.op, a, s.dt)
	s.bcs.ApplyAfterApplying(y)
	y0 := append([]float64(nil), y...)

	y = sweep(s.op, y, a, s.theta*s.dt)
	s.bcs.ApplyAfterApplying(y)

	diff := floats.SubTo(make([]float64, len(y)), y, a)
	yt := s.op.ApplyMixed(diff)
	floats.AddScaledTo(yt, y0, s.mu*s.dt, yt)
	s.bcs.ApplyAfterApplying(yt)

	yt = sweep(s.op, yt, a, s.theta*s.dt)
	s.bcs.ApplyAfterSolving(yt)

	copy(a, yt)
	return nil
}

// ModifiedCraigSneydScheme corrects with the full operator as well as the
// mixed term, which keeps second order for any θ.
type ModifiedCraigSneydScheme struct {
	theta, mu float64
	dt        float64
	op        operators.Composite
	bcs       operators.BoundaryConditionSet
}

// NewModifiedCraigSneydScheme returns the modified Craig-Sneyd stepper.
func NewModifiedCraigSneydScheme(theta, mu float64, op operators.Composite, bcs operators.BoundaryConditionSet) *ModifiedCraigSneydScheme {
	return &ModifiedCraigSneydScheme{theta: theta, mu: mu, op: op, bcs: bcs}
}

func (s *ModifiedCraigSneydScheme) SetStep(dt float64) { s.dt = dt }

func (s *ModifiedCraigSneydScheme) Step(a []float64, t float64) error {
	if err := prepare(s.op, s.bcs, t, s.dt); err != nil {
		return err
	}

	s.bcs.ApplyBeforeApplying(s.op)
	y := predict(s.op, a, s.dt)
	s.bcs.ApplyAfterApplying(y)
	y0 := append([]float64(nil), y...)

	y = sweep(s.op, y, a, s.theta*s.dt)
	s.bcs.ApplyAfterApplying(y)

	diff := floats.SubTo(make([]float64, len(y)), y, a)
	yt := s.op.ApplyMixed(diff)
	floats.Scale(s.mu*s.dt, yt)
	floats.AddScaled(yt, (0.5-s.mu)*s.dt, s.op.Apply(diff))
	floats.Add(yt, y0)
	s.bcs.ApplyAfterApplying(yt)

	yt = sweep(s.op, yt, a, s.theta*s.dt)
	s.bcs.ApplyAfterSolving(yt)

	copy(a, yt)
	return nil
}
