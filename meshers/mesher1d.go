// Package meshers builds the spatial grids of the finite-difference engines:
// one-dimensional point sets and their cross product.
package meshers

import (
	"fmt"
	"math"
)

// Mesher1D is a strictly increasing set of locations along one axis.
// DMinus(i) is the distance to the left neighbour and DPlus(i) the distance
// to the right one; at the edges the missing spacing repeats the present one.
type Mesher1D interface {
	Size() int
	Locations() []float64
	DPlus(i int) float64
	DMinus(i int) float64
}

// Mesh1D is the concrete point set shared by all one-dimensional meshers.
type Mesh1D struct {
	locations []float64
	dplus     []float64
	dminus    []float64
}

func newMesh1D(locations []float64) *Mesh1D {
	n := len(locations)
	m := &Mesh1D{
		locations: locations,
		dplus:     make([]float64, n),
		dminus:    make([]float64, n),
	}
	for i := 0; i < n-1; i++ {
		h := locations[i+1] - locations[i]
		m.dplus[i] = h
		m.dminus[i+1] = h
	}
	m.dminus[0] = m.dplus[0]
	m.dplus[n-1] = m.dminus[n-1]

	return m
}

func (m *Mesh1D) Size() int { return len(m.locations) }

// Locations returns the mesh points. The slice is shared and must not be modified.
func (m *Mesh1D) Locations() []float64 { return m.locations }

func (m *Mesh1D) DPlus(i int) float64 { return m.dplus[i] }

func (m *Mesh1D) DMinus(i int) float64 { return m.dminus[i] }

// Lower is the first location.
func (m *Mesh1D) Lower() float64 { return m.locations[0] }

// Upper is the last location.
func (m *Mesh1D) Upper() float64 { return m.locations[len(m.locations)-1] }

func checkBounds(lo, hi float64, size int) error {
	if size < 2 {
		return fmt.Errorf("size %d: %w", size, ErrInvalidSize)
	}
	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return fmt.Errorf("[%v, %v]: %w", lo, hi, ErrInvalidBounds)
	}
	return nil
}

// NewUniform1D spaces size points evenly over [lo, hi].
func NewUniform1D(lo, hi float64, size int) (*Mesh1D, error) {
	if err := checkBounds(lo, hi, size); err != nil {
		return nil, err
	}

	dx := (hi - lo) / float64(size-1)
	locations := make([]float64, size)
	for i := range locations {
		locations[i] = lo + float64(i)*dx
	}
	locations[size-1] = hi

	m := &Mesh1D{
		locations: locations,
		dplus:     make([]float64, size),
		dminus:    make([]float64, size),
	}
	for i := range locations {
		m.dplus[i] = dx
		m.dminus[i] = dx
	}

	return m, nil
}

// NewPredefined1D wraps caller supplied locations.
func NewPredefined1D(locations []float64) (*Mesh1D, error) {
	if len(locations) < 2 {
		return nil, fmt.Errorf("size %d: %w", len(locations), ErrInvalidSize)
	}
	for i := 1; i < len(locations); i++ {
		if !(locations[i] > locations[i-1]) {
			return nil, fmt.Errorf("location %d (%v) after %v: %w", i, locations[i], locations[i-1], ErrNotIncreasing)
		}
	}
	return newMesh1D(append([]float64(nil), locations...)), nil
}
