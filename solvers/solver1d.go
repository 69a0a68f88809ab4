package solvers

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
	"gonum.org/v1/gonum/interp"
)

// derivativeStep is the finite difference taken on spline derivatives to
// get second derivatives.
const derivativeStep = 1e-5

// Solver1D rolls back on a one-axis mesh and reads the result off natural
// cubic splines.
type Solver1D struct {
	x         []float64
	values    []float64
	thetaTime float64

	spline      interp.NaturalCubic
	thetaSpline interp.NaturalCubic
}

func NewSolver1D(op operators.Composite, desc SolverDesc, scheme schemes.Desc, opts ...Option) (*Solver1D, error) {
	if err := desc.validate(1); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	values, snapshot, err := rollbackValues(op, desc, scheme, o)
	if err != nil {
		return nil, err
	}

	s := &Solver1D{
		x:         desc.Mesh.Locations(0),
		values:    values,
		thetaTime: snapshot.Time(),
	}
	if err := s.spline.Fit(s.x, values); err != nil {
		return nil, fmt.Errorf("fit solution: %w", err)
	}
	if err := s.thetaSpline.Fit(s.x, snapshot.Values()); err != nil {
		return nil, fmt.Errorf("fit theta snapshot: %w", err)
	}
	return s, nil
}

// Values are the grid values at time zero.
func (s *Solver1D) Values() []float64 { return s.values }

func (s *Solver1D) InterpolateAt(x float64) float64 { return s.spline.Predict(x) }

func (s *Solver1D) DerivativeX(x float64) float64 { return s.spline.PredictDerivative(x) }

func (s *Solver1D) DerivativeXX(x float64) float64 {
	return (s.spline.PredictDerivative(x+derivativeStep) - s.spline.PredictDerivative(x-derivativeStep)) / (2 * derivativeStep)
}

// ThetaAt is the calendar time derivative of the value, per year.
func (s *Solver1D) ThetaAt(x float64) float64 {
	return (s.thetaSpline.Predict(x) - s.spline.Predict(x)) / s.thetaTime
}

// Contains reports whether x lies inside the mesh.
func (s *Solver1D) Contains(x float64) bool {
	return x >= s.x[0] && x <= s.x[len(s.x)-1]
}
