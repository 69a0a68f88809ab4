package solvers

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
	"gonum.org/v1/gonum/interp"
)

// Solver2D rolls back on a two-axis mesh. Values are interpolated with
// natural cubic splines along axis 0 on every line, then along axis 1.
type Solver2D struct {
	x, y      []float64
	values    []float64
	thetaTime float64

	lines      []interp.NaturalCubic
	thetaLines []interp.NaturalCubic
}

func NewSolver2D(op operators.Composite, desc SolverDesc, scheme schemes.Desc, opts ...Option) (*Solver2D, error) {
	if err := desc.validate(2); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	values, snapshot, err := rollbackValues(op, desc, scheme, o)
	if err != nil {
		return nil, err
	}

	s := &Solver2D{
		x:         desc.Mesh.Mesher(0).Locations(),
		y:         desc.Mesh.Mesher(1).Locations(),
		values:    values,
		thetaTime: snapshot.Time(),
	}
	if s.lines, err = fitLines(s.x, len(s.y), values); err != nil {
		return nil, err
	}
	if s.thetaLines, err = fitLines(s.x, len(s.y), snapshot.Values()); err != nil {
		return nil, err
	}
	return s, nil
}

// fitLines fits one spline per axis-0 line. Axis 0 varies fastest, so line
// j is the contiguous run starting at j·len(x).
func fitLines(x []float64, n int, values []float64) ([]interp.NaturalCubic, error) {
	lines := make([]interp.NaturalCubic, n)
	for j := range lines {
		if err := lines[j].Fit(x, values[j*len(x):(j+1)*len(x)]); err != nil {
			return nil, fmt.Errorf("fit line %d: %w", j, err)
		}
	}
	return lines, nil
}

// across evaluates f on every line and interpolates the results along axis 1.
func (s *Solver2D) across(lines []interp.NaturalCubic, y float64, f func(*interp.NaturalCubic) float64) float64 {
	column := make([]float64, len(lines))
	for j := range lines {
		column[j] = f(&lines[j])
	}
	var spline interp.NaturalCubic
	if err := spline.Fit(s.y, column); err != nil {
		panic(err)
	}
	return spline.Predict(y)
}

func (s *Solver2D) Values() []float64 { return s.values }

func (s *Solver2D) InterpolateAt(x, y float64) float64 {
	return s.across(s.lines, y, func(l *interp.NaturalCubic) float64 { return l.Predict(x) })
}

func (s *Solver2D) DerivativeX(x, y float64) float64 {
	return s.across(s.lines, y, func(l *interp.NaturalCubic) float64 { return l.PredictDerivative(x) })
}

func (s *Solver2D) DerivativeXX(x, y float64) float64 {
	return s.across(s.lines, y, func(l *interp.NaturalCubic) float64 {
		return (l.PredictDerivative(x+derivativeStep) - l.PredictDerivative(x-derivativeStep)) / (2 * derivativeStep)
	})
}

// DerivativeY differentiates the axis-1 spline through the interpolated
// line values.
func (s *Solver2D) DerivativeY(x, y float64) float64 {
	column := make([]float64, len(s.lines))
	for j := range s.lines {
		column[j] = s.lines[j].Predict(x)
	}
	var spline interp.NaturalCubic
	if err := spline.Fit(s.y, column); err != nil {
		panic(err)
	}
	return spline.PredictDerivative(y)
}

func (s *Solver2D) ThetaAt(x, y float64) float64 {
	at := func(l *interp.NaturalCubic) float64 { return l.Predict(x) }
	return (s.across(s.thetaLines, y, at) - s.across(s.lines, y, at)) / s.thetaTime
}

func (s *Solver2D) Contains(x, y float64) bool {
	return x >= s.x[0] && x <= s.x[len(s.x)-1] && y >= s.y[0] && y <= s.y[len(s.y)-1]
}
