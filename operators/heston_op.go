package operators

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"gonum.org/v1/gonum/mat"
)

// HestonOp is the Heston generator on a (log spot, variance) mesh, split as
//
//	L_x  = (r - q - v/2)∂x + v/2 ∂xx - r/2
//	L_v  = κ(θ - v)∂v + ξ²v/2 ∂vv - r/2
//	L_xv = ρξv ∂x∂v
type HestonOp struct {
	process *models.HestonProcess

	halfV []float64
	dx    *TripleBand
	dxx   *TripleBand
	dy    *TripleBand

	dxMap       *TripleBand
	dyMap       *TripleBand
	correlation *NinePoint

	pinned pinnedRows
}

// NewHestonOp expects log spot on axis 0 and variance on axis 1.
func NewHestonOp(mesh *meshers.Composite, process *models.HestonProcess) (*HestonOp, error) {
	if mesh.Layout().NumAxes() < 2 {
		return nil, fmt.Errorf("heston operator needs two axes, mesh has %d: %w", mesh.Layout().NumAxes(), ErrAxisOutOfRange)
	}
	if err := process.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidProcess)
	}
	model := process.Model

	v := mesh.Locations(1)
	halfV := make([]float64, len(v))
	drift := make([]float64, len(v))
	diffusion := make([]float64, len(v))
	mixed := make([]float64, len(v))
	for i, vi := range v {
		halfV[i] = 0.5 * vi
		drift[i] = model.Kappa * (model.Theta - vi)
		diffusion[i] = 0.5 * model.Xi * model.Xi * vi
		mixed[i] = model.Rho * model.Xi * vi
	}

	return &HestonOp{
		process:     process,
		halfV:       halfV,
		dx:          NewFirstDerivative(0, mesh),
		dxx:         NewSecondDerivative(0, mesh).Mult(halfV),
		dy:          NewSecondDerivative(1, mesh).Mult(diffusion).Add(NewFirstDerivative(1, mesh).Mult(drift)),
		dxMap:       NewTripleBand(0, mesh),
		dyMap:       NewTripleBand(1, mesh),
		correlation: NewSecondOrderMixedDerivative(0, 1, mesh).Mult(mixed),
	}, nil
}

func (op *HestonOp) Size() int { return 2 }

func (op *HestonOp) SetTime(t1, t2 float64) {
	r := op.process.Rate
	q := op.process.Dividend

	drift := make([]float64, len(op.halfV))
	for i, hv := range op.halfV {
		drift[i] = r - q - hv
	}
	op.dxMap.Axpyb(drift, op.dx, op.dxx, []float64{-0.5 * r})
	op.dyMap.Axpyb(nil, nil, op.dy, []float64{-0.5 * r})
	op.dxMap.zeroRows(op.pinned.rows)
	op.dyMap.zeroRows(op.pinned.rows)
}

// PinRows takes the listed grid points out of every part of the operator.
func (op *HestonOp) PinRows(indices []int) {
	if !op.pinned.add(op.dxMap.Size(), indices) {
		return
	}
	op.dxMap.zeroRows(op.pinned.rows)
	op.dyMap.zeroRows(op.pinned.rows)
	op.correlation.zeroRows(op.pinned.rows)
}

func (op *HestonOp) Apply(r []float64) []float64 {
	out := op.dxMap.Apply(r)
	y := op.dyMap.Apply(r)
	c := op.correlation.Apply(r)
	for i := range out {
		out[i] += y[i] + c[i]
	}
	return out
}

func (op *HestonOp) ApplyMixed(r []float64) []float64 {
	return op.correlation.Apply(r)
}

func (op *HestonOp) ApplyDirection(direction int, r []float64) []float64 {
	switch direction {
	case 0:
		return op.dxMap.Apply(r)
	case 1:
		return op.dyMap.Apply(r)
	}
	return make([]float64, len(r))
}

func (op *HestonOp) SolveSplitting(direction int, r []float64, a float64) []float64 {
	switch direction {
	case 0:
		return op.dxMap.SolveSplitting(r, a, 1)
	case 1:
		return op.dyMap.SolveSplitting(r, a, 1)
	}
	return append([]float64(nil), r...)
}

func (op *HestonOp) Preconditioner(r []float64, dt float64) []float64 {
	return op.SolveSplitting(1, op.SolveSplitting(0, r, dt), dt)
}

func (op *HestonOp) ToMatrixDecomp() []mat.Matrix {
	return []mat.Matrix{op.dxMap.ToMatrix(), op.dyMap.ToMatrix(), op.correlation.ToMatrix()}
}
