package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NonCentralChiSquare is the non-central chi-square distribution with K
// degrees of freedom and non-centrality Lambda. It drives the quantiles of
// the CIR variance used to place Heston variance grids.
type NonCentralChiSquare struct {
	K      float64
	Lambda float64
}

// CDF evaluates the Poisson mixture of central chi-square CDFs.
func (d NonCentralChiSquare) CDF(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if d.Lambda == 0 {
		return distuv.ChiSquared{K: d.K}.CDF(x)
	}

	mu := 0.5 * d.Lambda
	spread := 12*math.Sqrt(mu) + 12
	lo := math.Max(0, math.Floor(mu-spread))
	hi := math.Ceil(mu + spread)

	pois := distuv.Poisson{Lambda: mu}
	sum := 0.0
	for j := lo; j <= hi; j++ {
		w := pois.Prob(j)
		if w < 1e-18 {
			continue
		}
		sum += w * distuv.ChiSquared{K: d.K + 2*j}.CDF(x)
	}
	return math.Min(1, math.Max(0, sum))
}

// Mean of the distribution.
func (d NonCentralChiSquare) Mean() float64 { return d.K + d.Lambda }

// Variance of the distribution.
func (d NonCentralChiSquare) Variance() float64 { return 2 * (d.K + 2*d.Lambda) }

// Quantile inverts the CDF with Brent's method to an absolute accuracy of 1e-10.
func (d NonCentralChiSquare) Quantile(p float64) (float64, error) {
	if p <= 0 {
		return 0, nil
	}
	if p >= 1 {
		return math.Inf(1), nil
	}

	f := func(x float64) float64 { return d.CDF(x) - p }

	lo, hi := 0.0, d.Mean()+math.Sqrt(d.Variance())
	for i := 0; f(hi) < 0; i++ {
		if i == maxIterations {
			return math.NaN(), fmt.Errorf("bracketing quantile %v: %w", p, ErrNoConvergence)
		}
		lo, hi = hi, 2*hi
	}

	return brent(f, lo, hi, 1e-10)
}

const machineEpsilon = 2.220446049250313e-16

// brent finds a root of f bracketed by [a, b].
func brent(f func(float64) float64, a, b, tol float64) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if fa*fb > 0 {
		return math.NaN(), fmt.Errorf("root not bracketed in [%v,%v]: %w", a, b, ErrNoConvergence)
	}

	c, fc := b, fb
	var d, e float64
	for i := 0; i < maxIterations; i++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machineEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}
	return b, fmt.Errorf("brent after %d iterations: %w", maxIterations, ErrNoConvergence)
}
