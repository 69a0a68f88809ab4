// Package layout maps N-dimensional grid coordinates onto a flat storage
// index. Axis 0 varies fastest.
package layout

import "fmt"

// Layout is the immutable shape of a finite-difference grid.
type Layout struct {
	dims    []int
	spacing []int
	size    int
}

// New builds a layout for the given per-axis sizes.
func New(dims []int) (*Layout, error) {
	if len(dims) == 0 {
		return nil, ErrInvalidDimensions
	}

	l := &Layout{
		dims:    make([]int, len(dims)),
		spacing: make([]int, len(dims)),
		size:    1,
	}
	for i, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("axis %d has size %d: %w", i, d, ErrInvalidDimensions)
		}
		l.dims[i] = d
		l.spacing[i] = l.size
		l.size *= d
	}

	return l, nil
}

// Dims returns a copy of the per-axis sizes.
func (l *Layout) Dims() []int {
	return append([]int(nil), l.dims...)
}

// Dim returns the size of one axis.
func (l *Layout) Dim(axis int) int {
	l.checkAxis(axis)
	return l.dims[axis]
}

// Spacing returns the flat-index stride of every axis.
func (l *Layout) Spacing() []int {
	return append([]int(nil), l.spacing...)
}

// Size is the total number of grid points.
func (l *Layout) Size() int { return l.size }

// NumAxes is the number of grid dimensions.
func (l *Layout) NumAxes() int { return len(l.dims) }

// Index maps a coordinate tuple onto its flat index.
func (l *Layout) Index(coords []int) int {
	idx := 0
	for i, c := range coords {
		idx += c * l.spacing[i]
	}
	return idx
}

// CheckedIndex is Index with bounds validation.
func (l *Layout) CheckedIndex(coords []int) (int, error) {
	if len(coords) != len(l.dims) {
		return 0, fmt.Errorf("got %d coordinates for %d axes: %w", len(coords), len(l.dims), ErrCoordinates)
	}
	for i, c := range coords {
		if c < 0 || c >= l.dims[i] {
			return 0, fmt.Errorf("axis %d coordinate %d not in [0,%d): %w", i, c, l.dims[i], ErrCoordinates)
		}
	}
	return l.Index(coords), nil
}

// Coordinates is the inverse of Index.
func (l *Layout) Coordinates(index int) []int {
	coords := make([]int, len(l.dims))
	for i := len(l.dims) - 1; i >= 0; i-- {
		coords[i] = index / l.spacing[i]
		index -= coords[i] * l.spacing[i]
	}
	return coords
}

// Neighbour returns the flat index reached by moving offset steps along axis
// from the iterator position. Positions beyond an edge are reflected back
// into the grid, so -1 at the lower edge maps onto coordinate 1.
func (l *Layout) Neighbour(it *Iterator, axis, offset int) int {
	l.checkAxis(axis)
	c := it.coordinates[axis]
	return it.index + (l.reflect(axis, c+offset)-c)*l.spacing[axis]
}

// Neighbour2 moves along two axes at once with the same reflect policy.
func (l *Layout) Neighbour2(it *Iterator, axis1, offset1, axis2, offset2 int) int {
	l.checkAxis(axis1)
	l.checkAxis(axis2)
	c1 := it.coordinates[axis1]
	c2 := it.coordinates[axis2]

	return it.index +
		(l.reflect(axis1, c1+offset1)-c1)*l.spacing[axis1] +
		(l.reflect(axis2, c2+offset2)-c2)*l.spacing[axis2]
}

func (l *Layout) reflect(axis, c int) int {
	n := l.dims[axis]
	if c < 0 {
		c = -c
	} else if c >= n {
		c = 2*(n-1) - c
	}
	// a single reflection is enough for |offset| < dim
	if c < 0 {
		c = 0
	} else if c >= n {
		c = n - 1
	}
	return c
}

func (l *Layout) checkAxis(axis int) {
	if axis < 0 || axis >= len(l.dims) {
		panic(fmt.Sprintf("layout: axis %d out of range [0,%d)", axis, len(l.dims)))
	}
}
