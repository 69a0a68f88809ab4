// Package utilities holds helpers shared by the finite-difference engines:
// payoff evaluation on a mesh and integration of grid functions.
package utilities

import (
	"math"

	"github.com/bcdannyboy/fdquant/layout"
	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"gonum.org/v1/gonum/integrate/quad"
)

// InnerValueCalculator evaluates the exercise value at a grid point.
type InnerValueCalculator interface {
	InnerValue(it *layout.Iterator, t float64) float64

	// AvgInnerValue is the payoff averaged over the grid cell around the
	// point. It smooths the terminal condition of a kinked or discontinuous
	// payoff.
	AvgInnerValue(it *layout.Iterator, t float64) float64
}

// cellQuadraturePoints is the Gauss-Legendre order per cell piece.
const cellQuadraturePoints = 16

// LogInnerValue reads the spot as exp of one mesh axis.
type LogInnerValue struct {
	payoff models.Payoff
	mesh   *meshers.Composite
	axis   int

	avg []float64
}

func NewLogInnerValue(payoff models.Payoff, mesh *meshers.Composite, axis int) *LogInnerValue {
	return &LogInnerValue{payoff: payoff, mesh: mesh, axis: axis}
}

func (c *LogInnerValue) InnerValue(it *layout.Iterator, _ float64) float64 {
	return c.payoff.Value(math.Exp(c.mesh.Location(it, c.axis)))
}

func (c *LogInnerValue) AvgInnerValue(it *layout.Iterator, _ float64) float64 {
	if c.avg == nil {
		c.avg = c.cellAverages()
	}
	return c.avg[it.Coordinate(c.axis)]
}

func (c *LogInnerValue) cellAverages() []float64 {
	m := c.mesh.Mesher(c.axis)
	x := m.Locations()
	n := len(x)

	kink := math.NaN()
	if striked, ok := c.payoff.(models.StrikedPayoff); ok && striked.Strike() > 0 {
		kink = math.Log(striked.Strike())
	}

	f := func(y float64) float64 { return c.payoff.Value(math.Exp(y)) }
	avg := make([]float64, n)
	for i, xi := range x {
		lo, hi := xi, xi
		if i > 0 {
			lo -= 0.5 * m.DMinus(i)
		}
		if i < n-1 {
			hi += 0.5 * m.DPlus(i)
		}

		var integral float64
		if kink > lo && kink < hi {
			integral = quad.Fixed(f, lo, kink, cellQuadraturePoints, quad.Legendre{}, 0) +
				quad.Fixed(f, kink, hi, cellQuadraturePoints, quad.Legendre{}, 0)
		} else {
			integral = quad.Fixed(f, lo, hi, cellQuadraturePoints, quad.Legendre{}, 0)
		}
		avg[i] = integral / (hi - lo)
	}
	return avg
}
