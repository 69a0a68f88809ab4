package operators

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"gonum.org/v1/gonum/mat"
)

// BlackScholesOp is the Black-Scholes generator in log spot x = ln S:
//
//	L = (r - q - σ²/2)∂x + σ²/2 ∂xx - r
type BlackScholesOp struct {
	mesh      *meshers.Composite
	process   *models.BlackScholesProcess
	strike    float64
	direction int
	localVol  bool

	x    []float64
	dx   *TripleBand
	dxx  *TripleBand
	mapT *TripleBand

	pinned pinnedRows
}

type bsOpOptions struct {
	direction int
	localVol  *bool
}

// BlackScholesOpOption configures NewBlackScholesOp.
type BlackScholesOpOption func(*bsOpOptions)

// WithDirection selects the log-spot axis of a multi-axis mesh.
func WithDirection(direction int) BlackScholesOpOption {
	return func(o *bsOpOptions) { o.direction = direction }
}

// WithLocalVol forces local volatility on or off. By default it is used
// whenever the process carries a surface.
func WithLocalVol(enabled bool) BlackScholesOpOption {
	return func(o *bsOpOptions) { o.localVol = &enabled }
}

func NewBlackScholesOp(mesh *meshers.Composite, process *models.BlackScholesProcess, strike float64, opts ...BlackScholesOpOption) (*BlackScholesOp, error) {
	if err := process.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidProcess)
	}
	var o bsOpOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.direction < 0 || o.direction >= mesh.Layout().NumAxes() {
		return nil, fmt.Errorf("direction %d: %w", o.direction, ErrAxisOutOfRange)
	}

	localVol := process.LocalVol != nil
	if o.localVol != nil {
		localVol = *o.localVol && process.LocalVol != nil
	}

	return &BlackScholesOp{
		mesh:      mesh,
		process:   process,
		strike:    strike,
		direction: o.direction,
		localVol:  localVol,
		x:         mesh.Locations(o.direction),
		dx:        NewFirstDerivative(o.direction, mesh),
		dxx:       NewSecondDerivative(o.direction, mesh),
		mapT:      NewTripleBand(o.direction, mesh),
	}, nil
}

func (op *BlackScholesOp) Size() int { return 1 }

func (op *BlackScholesOp) SetTime(t1, t2 float64) {
	r := op.process.Rate
	q := op.process.Dividend

	if op.localVol {
		tMid := 0.5 * (t1 + t2)
		drift := make([]float64, len(op.x))
		halfVar := make([]float64, len(op.x))
		for i, x := range op.x {
			vol := op.process.LocalVolatility(tMid, math.Exp(x))
			halfVar[i] = 0.5 * vol * vol
			drift[i] = r - q - halfVar[i]
		}
		op.mapT.Axpyb(drift, op.dx, op.dxx.Mult(halfVar), []float64{-r})
		op.mapT.zeroRows(op.pinned.rows)
		return
	}

	// without local volatility the surface, if any, is read at the strike
	vol := op.process.LocalVolatility(0.5*(t1+t2), op.strike)
	v := vol * vol
	halfVar := make([]float64, len(op.x))
	for i := range halfVar {
		halfVar[i] = 0.5 * v
	}
	op.mapT.Axpyb([]float64{r - q - 0.5*v}, op.dx, op.dxx.Mult(halfVar), []float64{-r})
	op.mapT.zeroRows(op.pinned.rows)
}

// PinRows takes the listed grid points out of the operator until it is
// rebuilt with NewBlackScholesOp.
func (op *BlackScholesOp) PinRows(indices []int) {
	if op.pinned.add(op.mapT.Size(), indices) {
		op.mapT.zeroRows(op.pinned.rows)
	}
}

func (op *BlackScholesOp) Apply(r []float64) []float64 {
	return op.mapT.Apply(r)
}

func (op *BlackScholesOp) ApplyMixed(r []float64) []float64 {
	return make([]float64, len(r))
}

func (op *BlackScholesOp) ApplyDirection(direction int, r []float64) []float64 {
	if direction == op.direction {
		return op.mapT.Apply(r)
	}
	return make([]float64, len(r))
}

func (op *BlackScholesOp) SolveSplitting(direction int, r []float64, a float64) []float64 {
	if direction == op.direction {
		return op.mapT.SolveSplitting(r, a, 1)
	}
	return append([]float64(nil), r...)
}

func (op *BlackScholesOp) Preconditioner(r []float64, dt float64) []float64 {
	return op.SolveSplitting(op.direction, r, dt)
}

func (op *BlackScholesOp) ToMatrixDecomp() []mat.Matrix {
	return []mat.Matrix{op.mapT.ToMatrix()}
}
