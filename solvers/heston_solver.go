package solvers

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
)

// HestonSolver prices on a (log spot, variance) mesh.
type HestonSolver struct {
	solver *Solver2D
}

func NewHestonSolver(process *models.HestonProcess, desc SolverDesc, scheme schemes.Desc, opts ...Option) (*HestonSolver, error) {
	if err := desc.validate(2); err != nil {
		return nil, err
	}
	op, err := operators.NewHestonOp(desc.Mesh, process)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}

	solver, err := NewSolver2D(op, desc, scheme, opts...)
	if err != nil {
		return nil, err
	}
	return &HestonSolver{solver: solver}, nil
}

func (s *HestonSolver) ValueAt(spot, variance float64) (float64, error) {
	x, err := s.point(spot, variance)
	if err != nil {
		return 0, err
	}
	return s.solver.InterpolateAt(x, variance), nil
}

func (s *HestonSolver) DeltaAt(spot, variance float64) (float64, error) {
	x, err := s.point(spot, variance)
	if err != nil {
		return 0, err
	}
	return s.solver.DerivativeX(x, variance) / spot, nil
}

func (s *HestonSolver) GammaAt(spot, variance float64) (float64, error) {
	x, err := s.point(spot, variance)
	if err != nil {
		return 0, err
	}
	return (s.solver.DerivativeXX(x, variance) - s.solver.DerivativeX(x, variance)) / (spot * spot), nil
}

// VarianceDeltaAt is the derivative with respect to the initial variance.
func (s *HestonSolver) VarianceDeltaAt(spot, variance float64) (float64, error) {
	x, err := s.point(spot, variance)
	if err != nil {
		return 0, err
	}
	return s.solver.DerivativeY(x, variance), nil
}

func (s *HestonSolver) ThetaAt(spot, variance float64) (float64, error) {
	x, err := s.point(spot, variance)
	if err != nil {
		return 0, err
	}
	return s.solver.ThetaAt(x, variance), nil
}

func (s *HestonSolver) point(spot, variance float64) (float64, error) {
	if !(spot > 0) {
		return 0, fmt.Errorf("spot %v: %w", spot, ErrOutOfGrid)
	}
	x := math.Log(spot)
	if !s.solver.Contains(x, variance) {
		return 0, fmt.Errorf("spot %v variance %v: %w", spot, variance, ErrOutOfGrid)
	}
	return x, nil
}
