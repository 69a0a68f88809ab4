package solvers

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
	"github.com/bcdannyboy/fdquant/stepconditions"
	"github.com/bcdannyboy/fdquant/utilities"
)

// SolverDesc is everything a solver needs besides the model operator.
type SolverDesc struct {
	Mesh         *meshers.Composite
	BCs          operators.BoundaryConditionSet
	Condition    *stepconditions.Composite
	Calculator   utilities.InnerValueCalculator
	Maturity     float64
	TimeSteps    int
	DampingSteps int
}

func (d SolverDesc) validate(axes int) error {
	switch {
	case d.Mesh == nil:
		return fmt.Errorf("nil mesh: %w", ErrInvalidConfig)
	case d.Mesh.Layout().NumAxes() != axes:
		return fmt.Errorf("mesh has %d axes, solver needs %d: %w", d.Mesh.Layout().NumAxes(), axes, ErrInvalidConfig)
	case d.Calculator == nil:
		return fmt.Errorf("nil inner value calculator: %w", ErrInvalidConfig)
	case !(d.Maturity > 0) || math.IsInf(d.Maturity, 0):
		return fmt.Errorf("maturity %v: %w", d.Maturity, ErrInvalidConfig)
	case d.TimeSteps < 1:
		return fmt.Errorf("time steps %d: %w", d.TimeSteps, ErrInvalidConfig)
	case d.DampingSteps < 0:
		return fmt.Errorf("damping steps %d: %w", d.DampingSteps, ErrInvalidConfig)
	}
	return nil
}

// thetaTime is when the theta snapshot is taken: just short of one day, or
// of the first stopping time when that comes sooner.
func (d SolverDesc) thetaTime() float64 {
	first := d.Maturity
	if d.Condition != nil {
		for _, t := range d.Condition.StoppingTimes() {
			if t > 0 {
				first = t
				break
			}
		}
	}
	return 0.99 * math.Min(1.0/365.0, first)
}

// rollbackValues runs the whole backward pass shared by the 1-D and 2-D
// solvers. It returns the values at time zero and at the theta time.
func rollbackValues(op operators.Composite, desc SolverDesc, scheme schemes.Desc, o options) ([]float64, *stepconditions.Snapshot, error) {
	snapshot := stepconditions.NewSnapshot(desc.thetaTime())

	var (
		stopping   = [][]float64{{snapshot.Time()}}
		conditions []stepconditions.StepCondition
	)
	if desc.Condition != nil {
		stopping = append(stopping, desc.Condition.StoppingTimes())
		conditions = append(conditions, desc.Condition)
	}
	conditions = append(conditions, snapshot)
	condition := stepconditions.NewComposite(stopping, conditions)

	solver, err := NewBackwardSolver(op, desc.BCs, condition, scheme, WithLogger(o.logger))
	if err != nil {
		return nil, nil, err
	}

	l := desc.Mesh.Layout()
	a := make([]float64, l.Size())
	for it := l.Begin(); !it.Done(); it.Next() {
		a[it.Index()] = desc.Calculator.AvgInnerValue(it, desc.Maturity)
	}

	if err := solver.Rollback(a, desc.Maturity, 0, desc.TimeSteps, desc.DampingSteps); err != nil {
		return nil, nil, err
	}
	if snapshot.Values() == nil {
		return nil, nil, fmt.Errorf("rollback never reached t=%g: %w", snapshot.Time(), ErrInvalidConfig)
	}
	return a, snapshot, nil
}
