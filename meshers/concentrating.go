package meshers

import (
	"fmt"
	"math"
)

// ConcentrationPoint asks a mesher to cluster points around Point. Density is
// relative to the mesh width: smaller values concentrate harder.
type ConcentrationPoint struct {
	Point   float64
	Density float64
}

// NewConcentrating1D places size points on [lo, hi] through the transform
//
//	x(u) = c + d·sinh(c1·(1-u) + c2·u),  u = i/(size-1)
//
// with c the concentration point, d = density·(hi-lo), c1 = asinh((lo-c)/d)
// and c2 = asinh((hi-c)/d). A nil point gives a uniform mesh. When
// requirePoint is set the nearest grid location is moved onto the point.
func NewConcentrating1D(lo, hi float64, size int, point *ConcentrationPoint, requirePoint bool) (*Mesh1D, error) {
	if err := checkBounds(lo, hi, size); err != nil {
		return nil, err
	}
	if point == nil {
		return NewUniform1D(lo, hi, size)
	}
	if !(point.Density > 0) {
		return nil, fmt.Errorf("density %v must be positive: %w", point.Density, ErrInvalidBounds)
	}
	if requirePoint && (point.Point <= lo || point.Point >= hi) {
		return nil, fmt.Errorf("point %v not in (%v, %v): %w", point.Point, lo, hi, ErrPointOutOfRange)
	}

	c := point.Point
	d := point.Density * (hi - lo)
	c1 := math.Asinh((lo - c) / d)
	c2 := math.Asinh((hi - c) / d)

	locations := make([]float64, size)
	for i := range locations {
		u := float64(i) / float64(size-1)
		locations[i] = c + d*math.Sinh(c1*(1-u)+c2*u)
	}
	locations[0] = lo
	locations[size-1] = hi

	if requirePoint {
		snap(locations, c)
	}

	return newMesh1D(locations), nil
}

// snap moves the location nearest to x onto x, leaving both end points
// in place. The order is preserved since x is closer to the moved location
// than to any of its neighbours.
func snap(locations []float64, x float64) {
	n := len(locations)
	if n < 3 {
		return
	}
	best := 1
	for i := 2; i < n-1; i++ {
		if math.Abs(locations[i]-x) < math.Abs(locations[best]-x) {
			best = i
		}
	}
	if x > locations[best-1] && x < locations[best+1] {
		locations[best] = x
	}
}
