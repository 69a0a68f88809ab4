package meshers

import (
	"fmt"
	"math"
	"sort"

	"github.com/bcdannyboy/fdquant/models"
	"gonum.org/v1/gonum/integrate/quad"
)

const (
	DefaultAveragingSteps = 10
	DefaultVarianceEps    = 1e-4
)

// HestonVarianceMesher is a variance axis following the CIR transition
// density: points sit on averaged quantiles of the variance distribution
// over the life of the option, and v0 is always a grid point.
type HestonVarianceMesher struct {
	*Mesh1D
	volaEstimate float64
}

type varianceOptions struct {
	tAvgSteps int
	eps       float64
}

// HestonVarianceMesherOption configures NewHestonVarianceMesher.
type HestonVarianceMesherOption func(*varianceOptions)

// WithAveragingSteps sets the number of time slices whose quantiles are averaged.
func WithAveragingSteps(n int) HestonVarianceMesherOption {
	return func(o *varianceOptions) { o.tAvgSteps = n }
}

// WithVarianceEps sets the probability mass left out of the upper tail.
func WithVarianceEps(eps float64) HestonVarianceMesherOption {
	return func(o *varianceOptions) { o.eps = eps }
}

type quantilePair struct {
	v, p float64
}

func NewHestonVarianceMesher(size int, model *models.HestonModel, maturity float64, opts ...HestonVarianceMesherOption) (*HestonVarianceMesher, error) {
	if size < 2 {
		return nil, fmt.Errorf("size %d: %w", size, ErrInvalidSize)
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidProcess)
	}
	if !(maturity > 0) {
		return nil, fmt.Errorf("maturity %v: %w", maturity, ErrInvalidBounds)
	}

	o := varianceOptions{tAvgSteps: DefaultAveragingSteps, eps: DefaultVarianceEps}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tAvgSteps < 1 {
		o.tAvgSteps = 1
	}

	vGrid, pGrid, err := quantileGrid(size, model, maturity, o)
	if err != nil {
		vGrid, pGrid = fallbackGrid(size, model)
	}

	skewHint := math.Max(1, model.Xi/model.Kappa)
	volaEstimate := sqrtIntegral(pGrid, vGrid) * math.Pow(skewHint, 1.5)

	v0 := model.V0
	for i := 1; i < len(vGrid); i++ {
		if vGrid[i-1] <= v0 && vGrid[i] >= v0 {
			if math.Abs(vGrid[i-1]-v0) < math.Abs(vGrid[i]-v0) {
				vGrid[i-1] = v0
			} else {
				vGrid[i] = v0
			}
		}
	}

	mesh, err := NewPredefined1D(vGrid)
	if err != nil {
		// snapping v0 onto a grid squeezed near zero can collapse two points
		vGrid, pGrid = fallbackGrid(size, model)
		volaEstimate = sqrtIntegral(pGrid, vGrid) * math.Pow(skewHint, 1.5)
		if mesh, err = NewPredefined1D(vGrid); err != nil {
			return nil, err
		}
	}

	return &HestonVarianceMesher{Mesh1D: mesh, volaEstimate: volaEstimate}, nil
}

// VolaEstimate is an effective volatility for sizing the spot axis.
func (m *HestonVarianceMesher) VolaEstimate() float64 { return m.volaEstimate }

func quantileGrid(size int, model *models.HestonModel, maturity float64, o varianceOptions) ([]float64, []float64, error) {
	xi2 := model.Xi * model.Xi
	df := 4 * model.Theta * model.Kappa / xi2

	pairs := make([]quantilePair, 0, size*o.tAvgSteps)
	for l := 1; l <= o.tAvgSteps; l++ {
		t := maturity * float64(l) / float64(o.tAvgSteps)
		ekt := math.Exp(-model.Kappa * t)
		dist := models.NonCentralChiSquare{
			K:      df,
			Lambda: 4 * model.Kappa * ekt / (xi2 * (1 - ekt)) * model.V0,
		}
		k := xi2 * (1 - ekt) / (4 * model.Kappa)

		upper, err := dist.Quantile(1 - o.eps)
		if err != nil {
			return nil, nil, err
		}
		qMin := 0.0
		qMax := math.Max(model.V0, k*upper)
		minVStep := (qMax - qMin) / float64(50*size)

		p := 0.0
		vTmp := qMin
		pairs = append(pairs, quantilePair{v: qMin, p: o.eps})
		for i := 1; i < size; i++ {
			p += (1 - o.eps - p) / float64(size-i)
			q, err := dist.Quantile(p)
			if err != nil {
				return nil, nil, err
			}
			vx := math.Max(vTmp+minVStep, k*q)
			p = dist.CDF(vx / k)
			vTmp = vx
			pairs = append(pairs, quantilePair{v: vx, p: p})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].v == pairs[j].v {
			return pairs[i].p < pairs[j].p
		}
		return pairs[i].v < pairs[j].v
	})

	vGrid := make([]float64, size)
	pGrid := make([]float64, size)
	for i := 0; i < size; i++ {
		b := i * len(pairs) / size
		e := (i + 1) * len(pairs) / size
		for j := b; j < e; j++ {
			vGrid[i] += pairs[j].v / float64(e-b)
			pGrid[i] += pairs[j].p / float64(e-b)
		}
	}
	sort.Float64s(pGrid)

	for i := 1; i < size; i++ {
		if !(vGrid[i] > vGrid[i-1]) {
			return nil, nil, fmt.Errorf("degenerate quantile grid at %d: %w", i, ErrNotIncreasing)
		}
	}
	return vGrid, pGrid, nil
}

// fallbackGrid spans ±4 stationary standard deviations around v0 and theta.
func fallbackGrid(size int, model *models.HestonModel) ([]float64, []float64) {
	vol := model.Xi * math.Sqrt(model.Theta/(2*model.Kappa))
	upper := math.Max(model.V0+4*vol, model.Theta+4*vol)
	lower := math.Max(0, math.Min(model.V0-4*vol, model.Theta-4*vol))

	vGrid := make([]float64, size)
	pGrid := make([]float64, size)
	for i := 0; i < size; i++ {
		pGrid[i] = float64(i) / float64(size-1)
		vGrid[i] = lower + float64(i)*(upper-lower)/float64(size-1)
	}
	return vGrid, pGrid
}

// sqrtIntegral integrates √v(p) for the piecewise linear v(p) through the
// grid points.
func sqrtIntegral(pGrid, vGrid []float64) float64 {
	total := 0.0
	for i := 1; i < len(pGrid); i++ {
		p0, p1 := pGrid[i-1], pGrid[i]
		if !(p1 > p0) {
			continue
		}
		v0, v1 := vGrid[i-1], vGrid[i]
		f := func(p float64) float64 {
			return math.Sqrt(math.Max(0, v0+(v1-v0)*(p-p0)/(p1-p0)))
		}
		total += quad.Fixed(f, p0, p1, 8, quad.Legendre{}, 0)
	}
	return total
}
