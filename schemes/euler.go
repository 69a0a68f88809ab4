package schemes

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/operators"
)

// DefaultRelTol is the relative residual tolerance of the iterative solves
// used for multi-direction implicit steps.
const DefaultRelTol = 1e-8

// ExplicitEulerScheme steps a ← a + dt·L a. It is only stable for
// dt below roughly 2/|λ_max| of the operator.
type ExplicitEulerScheme struct {
	dt  float64
	op  operators.Composite
	bcs operators.BoundaryConditionSet
}

// NewExplicitEulerScheme returns a forward Euler stepper.
func NewExplicitEulerScheme(op operators.Composite, bcs operators.BoundaryConditionSet) *ExplicitEulerScheme {
	return &ExplicitEulerScheme{op: op, bcs: bcs}
}

func (s *ExplicitEulerScheme) SetStep(dt float64) { s.dt = dt }

func (s *ExplicitEulerScheme) Step(a []float64, t float64) error {
	return s.StepTheta(a, t, 1)
}

// StepTheta advances by the fraction theta of an explicit step while the
// operator is still fixed on the whole interval [t-dt, t].
func (s *ExplicitEulerScheme) StepTheta(a []float64, t, theta float64) error {
	if err := prepare(s.op, s.bcs, t, s.dt); err != nil {
		return err
	}

	s.bcs.ApplyBeforeApplying(s.op)
	y := predict(s.op, a, theta*s.dt)
	s.bcs.ApplyAfterApplying(y)

	copy(a, y)
	return nil
}

// ImplicitEulerScheme solves (I - dt·L)a' = a. It is first order and
// strongly damping, which makes it the scheme of choice right after a
// discontinuous payoff.
type ImplicitEulerScheme struct {
	dt     float64
	relTol float64
	op     operators.Composite
	bcs    operators.BoundaryConditionSet
}

// NewImplicitEulerScheme returns a backward Euler stepper.
func NewImplicitEulerScheme(op operators.Composite, bcs operators.BoundaryConditionSet) *ImplicitEulerScheme {
	return &ImplicitEulerScheme{relTol: DefaultRelTol, op: op, bcs: bcs}
}

func (s *ImplicitEulerScheme) SetStep(dt float64) { s.dt = dt }

func (s *ImplicitEulerScheme) Step(a []float64, t float64) error {
	return s.StepTheta(a, t, 1)
}

// StepTheta solves (I - θdt·L)a' = a.
func (s *ImplicitEulerScheme) StepTheta(a []float64, t, theta float64) error {
	if err := prepare(s.op, s.bcs, t, s.dt); err != nil {
		return err
	}

	s.bcs.ApplyBeforeSolving(s.op, a)
	x, err := solveImplicit(s.op, a, theta*s.dt, s.relTol)
	if err != nil {
		return fmt.Errorf("implicit euler step at t=%g: %w", t, err)
	}
	s.bcs.ApplyAfterSolving(x)

	copy(a, x)
	return nil
}

// CrankNicolsonScheme is the θ-method: an explicit step of weight 1-θ
// followed by an implicit step of weight θ.
type CrankNicolsonScheme struct {
	theta    float64
	explicit *ExplicitEulerScheme
	implicit *ImplicitEulerScheme
}

// NewCrankNicolsonScheme blends explicit and implicit Euler by theta.
func NewCrankNicolsonScheme(theta float64, op operators.Composite, bcs operators.BoundaryConditionSet) *CrankNicolsonScheme {
	return &CrankNicolsonScheme{
		theta:    theta,
		explicit: NewExplicitEulerScheme(op, bcs),
		implicit: NewImplicitEulerScheme(op, bcs),
	}
}

func (s *CrankNicolsonScheme) SetStep(dt float64) {
	s.explicit.SetStep(dt)
	s.implicit.SetStep(dt)
}

func (s *CrankNicolsonScheme) Step(a []float64, t float64) error {
	if s.theta != 1 {
		if err := s.explicit.StepTheta(a, t, 1-s.theta); err != nil {
			return err
		}
	}
	if s.theta != 0 {
		return s.implicit.StepTheta(a, t, s.theta)
	}
	return nil
}
