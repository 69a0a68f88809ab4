package stepconditions

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/meshers"
	"gonum.org/v1/gonum/interp"
)

// Dividend moves the solution across cash dividends. Just before a dividend
// date the value at spot S is the value just after it at S - D, read off a
// natural cubic spline through each line of the log-spot axis.
type Dividend struct {
	mesh    *meshers.Composite
	axis    int
	times   []float64
	amounts []float64

	spots []float64
}

func NewDividend(mesh *meshers.Composite, axis int, times, amounts []float64) (*Dividend, error) {
	if err := checkDividends(times, amounts); err != nil {
		return nil, err
	}
	if axis < 0 || axis >= mesh.Layout().NumAxes() {
		return nil, fmt.Errorf("axis %d: %w", axis, ErrInvalidDividends)
	}

	x := mesh.Mesher(axis).Locations()
	spots := make([]float64, len(x))
	for i, xi := range x {
		spots[i] = math.Exp(xi)
	}
	return &Dividend{
		mesh:    mesh,
		axis:    axis,
		times:   append([]float64(nil), times...),
		amounts: append([]float64(nil), amounts...),
		spots:   spots,
	}, nil
}

func (c *Dividend) Times() []float64 { return c.times }

func (c *Dividend) ApplyTo(a []float64, t float64) {
	for i, dt := range c.times {
		if atTime(t, dt) && c.amounts[i] > 0 {
			c.jump(a, c.amounts[i])
		}
	}
}

func (c *Dividend) jump(a []float64, dividend float64) {
	l := c.mesh.Layout()
	n := l.Dim(c.axis)
	stride := l.Spacing()[c.axis]
	line := make([]float64, n)

	for it := l.Begin(); !it.Done(); it.Next() {
		if it.Coordinate(c.axis) != 0 {
			continue
		}
		start := it.Index()
		for k := 0; k < n; k++ {
			line[k] = a[start+k*stride]
		}

		var spline interp.NaturalCubic
		if err := spline.Fit(c.spots, line); err != nil {
			// spots are strictly increasing, so Fit cannot fail
			panic(err)
		}
		for k, s := range c.spots {
			a[start+k*stride] = spline.Predict(math.Max(c.spots[0], s-dividend))
		}
	}
}
