package solvers

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
)

// BlackScholesSolver prices on a log-spot mesh and reports greeks in spot.
type BlackScholesSolver struct {
	solver *Solver1D
}

func NewBlackScholesSolver(process *models.BlackScholesProcess, strike float64, desc SolverDesc, scheme schemes.Desc, opts ...Option) (*BlackScholesSolver, error) {
	if err := desc.validate(1); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	var opOpts []operators.BlackScholesOpOption
	if o.localVol != nil {
		opOpts = append(opOpts, operators.WithLocalVol(*o.localVol))
	}
	op, err := operators.NewBlackScholesOp(desc.Mesh, process, strike, opOpts...)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}

	solver, err := NewSolver1D(op, desc, scheme, opts...)
	if err != nil {
		return nil, err
	}
	return &BlackScholesSolver{solver: solver}, nil
}

func (s *BlackScholesSolver) ValueAt(spot float64) (float64, error) {
	x, err := s.logSpot(spot)
	if err != nil {
		return 0, err
	}
	return s.solver.InterpolateAt(x), nil
}

func (s *BlackScholesSolver) DeltaAt(spot float64) (float64, error) {
	x, err := s.logSpot(spot)
	if err != nil {
		return 0, err
	}
	return s.solver.DerivativeX(x) / spot, nil
}

func (s *BlackScholesSolver) GammaAt(spot float64) (float64, error) {
	x, err := s.logSpot(spot)
	if err != nil {
		return 0, err
	}
	return (s.solver.DerivativeXX(x) - s.solver.DerivativeX(x)) / (spot * spot), nil
}

func (s *BlackScholesSolver) ThetaAt(spot float64) (float64, error) {
	x, err := s.logSpot(spot)
	if err != nil {
		return 0, err
	}
	return s.solver.ThetaAt(x), nil
}

func (s *BlackScholesSolver) logSpot(spot float64) (float64, error) {
	if !(spot > 0) {
		return 0, fmt.Errorf("spot %v: %w", spot, ErrOutOfGrid)
	}
	x := math.Log(spot)
	if !s.solver.Contains(x) {
		return 0, fmt.Errorf("spot %v: %w", spot, ErrOutOfGrid)
	}
	return x, nil
}
