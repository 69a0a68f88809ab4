package schemes

import (
	"github.com/bcdannyboy/fdquant/operators"
	"gonum.org/v1/gonum/floats"
)

// HundsdorferScheme is the Hundsdorfer-Verwer ADI scheme. Its second pass
// corrects with the full operator and re-linearises the directional terms
// around the first-pass result.
type HundsdorferScheme struct {
	theta, mu float64
	dt        float64
	op        operators.Composite
	bcs       operators.BoundaryConditionSet
}

// NewHundsdorferScheme returns a Hundsdorfer-Verwer stepper.
func NewHundsdorferScheme(theta, mu float64, op operators.Composite, bcs operators.BoundaryConditionSet) *HundsdorferScheme {
	return &HundsdorferScheme{theta: theta, mu: mu, op: op, bcs: bcs}
}

func (s *HundsdorferScheme) SetStep(dt float64) { s.dt = dt }

func (s *HundsdorferScheme) Step(a []float64, t float64) error {
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
	yt := s.op.Apply(diff)
	floats.AddScaledTo(yt, y0, s.mu*s.dt, yt)
	s.bcs.ApplyAfterApplying(yt)

	yt = sweep(s.op, yt, y, s.theta*s.dt)
	s.bcs.ApplyAfterSolving(yt)

	copy(a, yt)
	return nil
}
