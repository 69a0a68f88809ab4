// Package schemes advances a finite-difference solution backwards in time.
// Every scheme solves ∂u/∂t + L u = 0 for one step from t to t-dt, where L
// is a split model operator.
package schemes

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/operators"
	"gonum.org/v1/gonum/floats"
)

// Scheme is one time-stepping algorithm bound to an operator and its
// boundary conditions. Step overwrites a with the solution at t-dt.
type Scheme interface {
	SetStep(dt float64)
	Step(a []float64, t float64) error
}

// New builds the scheme desc describes.
func New(desc Desc, op operators.Composite, bcs operators.BoundaryConditionSet) (Scheme, error) {
	switch desc.Type {
	case Douglas:
		return NewDouglasScheme(desc.Theta, op, bcs), nil
	case CraigSneyd:
		return NewCraigSneydScheme(desc.Theta, desc.Mu, op, bcs), nil
	case ModifiedCraigSneyd:
		return NewModifiedCraigSneydScheme(desc.Theta, desc.Mu, op, bcs), nil
	case Hundsdorfer, ModifiedHundsdorfer:
		return NewHundsdorferScheme(desc.Theta, desc.Mu, op, bcs), nil
	case ExplicitEuler:
		return NewExplicitEulerScheme(op, bcs), nil
	case ImplicitEuler:
		return NewImplicitEulerScheme(op, bcs), nil
	case CrankNicolson:
		return NewCrankNicolsonScheme(desc.Theta, op, bcs), nil
	case MethodOfLines:
		return NewMethodOfLinesScheme(desc.Theta, desc.Mu, op, bcs), nil
	case TrBDF2:
		return NewTrBDF2Scheme(desc.Theta, op, NewCraigSneydScheme(0.5, 0.5, op, bcs), bcs, desc.Mu), nil
	}
	return nil, fmt.Errorf("type %d: %w", int(desc.Type), ErrUnknownScheme)
}

// negativeTimeTolerance absorbs rounding in the last step of a rollback.
const negativeTimeTolerance = 1e-8

// prepare fixes the operator and boundary conditions for the step [t-dt, t].
func prepare(op operators.Composite, bcs operators.BoundaryConditionSet, t, dt float64) error {
	if t-dt < -negativeTimeTolerance {
		return fmt.Errorf("step from %g by %g: %w", t, dt, ErrNegativeTime)
	}
	op.SetTime(math.Max(0, t-dt), t)
	bcs.SetTime(math.Max(0, t-dt))
	return nil
}

// predict returns a + dt·L a.
func predict(op operators.Composite, a []float64, dt float64) []float64 {
	y := op.Apply(a)
	return floats.AddScaledTo(y, a, dt, y)
}

// sweep runs the directional corrections
//
//	y ← (I - θdt·L_i)⁻¹ (y - θdt·L_i u)
//
// for every direction i in turn.
func sweep(op operators.Composite, y, u []float64, thetaDt float64) []float64 {
	for i := 0; i < op.Size(); i++ {
		rhs := op.ApplyDirection(i, u)
		floats.AddScaledTo(rhs, y, -thetaDt, rhs)
		y = op.SolveSplitting(i, rhs, -thetaDt)
	}
	return y
}

// solveImplicit solves (I - c·L)x = rhs. One-direction operators are solved
// directly, the rest by BiCGStab preconditioned with the directional splitting.
func solveImplicit(op operators.Composite, rhs []float64, c, relTol float64) ([]float64, error) {
	if op.Size() == 1 {
		return op.SolveSplitting(0, rhs, -c), nil
	}

	solver := BiCGStab{
		A: func(x []float64) []float64 {
			y := op.Apply(x)
			return floats.AddScaledTo(y, x, -c, y)
		},
		M:       func(r []float64) []float64 { return op.Preconditioner(r, -c) },
		MaxIter: 10 * len(rhs),
		RelTol:  relTol,
	}
	res, err := solver.Solve(rhs, rhs)
	if err != nil {
		return nil, err
	}
	return res.X, nil
}
