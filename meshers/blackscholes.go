package meshers

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/models"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultEps         = 1e-4
	DefaultScaleFactor = 1.5
)

type bsMesherOptions struct {
	eps           float64
	scaleFactor   float64
	xMin, xMax    *float64
	concentration *ConcentrationPoint
	vol           float64
	cashDividends float64
}

// BlackScholesMesherOption configures NewBlackScholesMesher.
type BlackScholesMesherOption func(*bsMesherOptions)

// WithEps sets the tail probability cut off on each side of the log-spot range.
func WithEps(eps float64) BlackScholesMesherOption {
	return func(o *bsMesherOptions) { o.eps = eps }
}

// WithScaleFactor widens or narrows the log-spot range.
func WithScaleFactor(scale float64) BlackScholesMesherOption {
	return func(o *bsMesherOptions) { o.scaleFactor = scale }
}

// WithLowerConstraint fixes the lower end of the log-spot axis, e.g. at a barrier.
func WithLowerConstraint(logSpot float64) BlackScholesMesherOption {
	return func(o *bsMesherOptions) { o.xMin = &logSpot }
}

// WithUpperConstraint fixes the upper end of the log-spot axis.
func WithUpperConstraint(logSpot float64) BlackScholesMesherOption {
	return func(o *bsMesherOptions) { o.xMax = &logSpot }
}

// WithConcentration clusters points around a spot level (not its log).
func WithConcentration(spot, density float64) BlackScholesMesherOption {
	return func(o *bsMesherOptions) {
		o.concentration = &ConcentrationPoint{Point: spot, Density: density}
	}
}

// WithVolatility overrides the volatility used to size the range.
func WithVolatility(vol float64) BlackScholesMesherOption {
	return func(o *bsMesherOptions) { o.vol = vol }
}

// WithCashDividends lowers the range by the total of discrete cash dividends
// paid before maturity.
func WithCashDividends(amounts ...float64) BlackScholesMesherOption {
	return func(o *bsMesherOptions) {
		for _, a := range amounts {
			o.cashDividends += a
		}
	}
}

// NewBlackScholesMesher builds a log-spot axis around the spot and forward:
//
//	[ln(min(S,F)) - σ√T·Φ⁻¹(1-eps)·scale, ln(max(S,F)) + σ√T·Φ⁻¹(1-eps)·scale]
//
// with σ the process volatility at (maturity, strike). Constraints replace
// the computed bounds.
func NewBlackScholesMesher(size int, process *models.BlackScholesProcess, maturity, strike float64, opts ...BlackScholesMesherOption) (*Mesh1D, error) {
	if err := process.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidProcess)
	}
	if !(maturity > 0) {
		return nil, fmt.Errorf("maturity %v: %w", maturity, ErrInvalidBounds)
	}

	o := bsMesherOptions{
		eps:         DefaultEps,
		scaleFactor: DefaultScaleFactor,
		vol:         process.LocalVolatility(maturity, strike),
	}
	for _, opt := range opts {
		opt(&o)
	}

	fwd := process.Forward(maturity)
	mi := math.Min(process.Spot, fwd)
	ma := math.Max(process.Spot, fwd)
	if o.cashDividends > 0 {
		mi = math.Max(mi-o.cashDividends, 0.01*mi)
	}

	normInvEps := distuv.UnitNormal.Quantile(1 - o.eps)
	sigmaSqrtT := o.vol * math.Sqrt(maturity)

	xMin := math.Log(mi) - sigmaSqrtT*normInvEps*o.scaleFactor
	xMax := math.Log(ma) + sigmaSqrtT*normInvEps*o.scaleFactor
	if o.xMin != nil {
		xMin = *o.xMin
	}
	if o.xMax != nil {
		xMax = *o.xMax
	}

	if c := o.concentration; c != nil && c.Point > 0 {
		logPoint := math.Log(c.Point)
		if logPoint > xMin && logPoint < xMax {
			return NewConcentrating1D(xMin, xMax, size, &ConcentrationPoint{Point: logPoint, Density: c.Density}, false)
		}
	}
	return NewUniform1D(xMin, xMax, size)
}
