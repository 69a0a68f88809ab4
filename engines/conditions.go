package engines

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/stepconditions"
	"github.com/bcdannyboy/fdquant/utilities"
)

// vanillaCondition builds the exercise and dividend events on the
// log-spot axis 0.
func vanillaCondition(mesh *meshers.Composite, calc utilities.InnerValueCalculator, opt VanillaOption) (*stepconditions.Composite, error) {
	maturity := opt.Exercise.Maturity()
	divTimes, divAmounts := opt.dividendsBefore(maturity)

	spec := stepconditions.VanillaSpec{
		Axis:            0,
		American:        opt.Exercise.Style == American,
		DividendTimes:   divTimes,
		DividendAmounts: divAmounts,
	}
	if opt.Exercise.Style == Bermudan {
		// exercise at maturity is already the terminal payoff
		spec.ExerciseTimes = opt.Exercise.Dates[:len(opt.Exercise.Dates)-1]
	}

	condition, err := stepconditions.VanillaComposite(mesh, calc, spec)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidOption)
	}
	return condition, nil
}

// barrierSetup is the knock-out face of the spot axis.
type barrierSetup struct {
	logBarrier float64
	side       operators.Side
	rebate     float64
}

// newBarrierSetup checks the barrier against the spot.
func newBarrierSetup(opt BarrierOption, spot float64) (barrierSetup, error) {
	if err := opt.validate(); err != nil {
		return barrierSetup{}, err
	}
	if opt.Exercise.Style != European {
		return barrierSetup{}, fmt.Errorf("%s barrier: %w", opt.Exercise.Style, ErrInvalidOption)
	}
	if !(opt.Barrier > 0) || math.IsInf(opt.Barrier, 0) || opt.Rebate < 0 {
		return barrierSetup{}, fmt.Errorf("barrier %v rebate %v: %w", opt.Barrier, opt.Rebate, ErrInvalidOption)
	}

	switch opt.BarrierType {
	case DownOut:
		if spot <= opt.Barrier {
			return barrierSetup{}, fmt.Errorf("spot %v at or below %v: %w", spot, opt.Barrier, ErrBarrierTouched)
		}
		return barrierSetup{logBarrier: math.Log(opt.Barrier), side: operators.Lower, rebate: opt.Rebate}, nil
	case UpOut:
		if spot >= opt.Barrier {
			return barrierSetup{}, fmt.Errorf("spot %v at or above %v: %w", spot, opt.Barrier, ErrBarrierTouched)
		}
		return barrierSetup{logBarrier: math.Log(opt.Barrier), side: operators.Upper, rebate: opt.Rebate}, nil
	}
	return barrierSetup{}, fmt.Errorf("barrier type %d: %w", opt.BarrierType, ErrInvalidOption)
}

func (b barrierSetup) mesherOption() meshers.BlackScholesMesherOption {
	if b.side == operators.Lower {
		return meshers.WithLowerConstraint(b.logBarrier)
	}
	return meshers.WithUpperConstraint(b.logBarrier)
}

// boundary pins the knock-out face of spot axis 0 to the rebate.
func (b barrierSetup) boundary(mesh *meshers.Composite) operators.BoundaryConditionSet {
	return operators.BoundaryConditionSet{operators.NewDirichlet(mesh, 0, b.side, b.rebate)}
}
