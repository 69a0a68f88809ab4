package meshers

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/layout"
)

// Composite is the cross product of one-dimensional meshes. Axis i of the
// layout is spanned by meshers[i].
type Composite struct {
	layout  *layout.Layout
	meshers []Mesher1D
}

func NewComposite(meshers ...Mesher1D) (*Composite, error) {
	if len(meshers) == 0 {
		return nil, fmt.Errorf("no axes: %w", ErrInvalidSize)
	}

	dims := make([]int, len(meshers))
	for i, m := range meshers {
		if m == nil {
			return nil, fmt.Errorf("axis %d has no mesher: %w", i, ErrInvalidSize)
		}
		dims[i] = m.Size()
	}

	l, err := layout.New(dims)
	if err != nil {
		return nil, err
	}

	return &Composite{layout: l, meshers: meshers}, nil
}

func (m *Composite) Layout() *layout.Layout { return m.layout }

// Mesher returns the one-dimensional mesher of an axis.
func (m *Composite) Mesher(axis int) Mesher1D {
	m.checkAxis(axis)
	return m.meshers[axis]
}

// Location is the coordinate of the iterator position along axis.
func (m *Composite) Location(it *layout.Iterator, axis int) float64 {
	m.checkAxis(axis)
	return m.meshers[axis].Locations()[it.Coordinate(axis)]
}

func (m *Composite) DPlus(it *layout.Iterator, axis int) float64 {
	m.checkAxis(axis)
	return m.meshers[axis].DPlus(it.Coordinate(axis))
}

func (m *Composite) DMinus(it *layout.Iterator, axis int) float64 {
	m.checkAxis(axis)
	return m.meshers[axis].DMinus(it.Coordinate(axis))
}

// Locations returns the axis coordinate of every grid point, in flat-index order.
func (m *Composite) Locations(axis int) []float64 {
	m.checkAxis(axis)
	axisLocations := m.meshers[axis].Locations()

	out := make([]float64, m.layout.Size())
	for it := m.layout.Begin(); !it.Done(); it.Next() {
		out[it.Index()] = axisLocations[it.Coordinate(axis)]
	}
	return out
}

func (m *Composite) checkAxis(axis int) {
	if axis < 0 || axis >= len(m.meshers) {
		panic(fmt.Sprintf("meshers: axis %d out of range [0,%d)", axis, len(m.meshers)))
	}
}
