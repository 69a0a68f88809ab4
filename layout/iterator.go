package layout

// Iterator walks a layout in flat-index order while keeping the coordinate
// tuple in sync.
type Iterator struct {
	index       int
	coordinates []int
	dims        []int
	size        int
}

// Begin returns an iterator positioned on flat index 0.
func (l *Layout) Begin() *Iterator {
	return &Iterator{
		coordinates: make([]int, len(l.dims)),
		dims:        l.dims,
		size:        l.size,
	}
}

// IteratorAt returns an iterator positioned on the given flat index.
func (l *Layout) IteratorAt(index int) *Iterator {
	return &Iterator{
		index:       index,
		coordinates: l.Coordinates(index),
		dims:        l.dims,
		size:        l.size,
	}
}

// Next advances to the following flat index.
func (it *Iterator) Next() {
	it.index++
	for i := range it.coordinates {
		it.coordinates[i]++
		if it.coordinates[i] < it.dims[i] {
			return
		}
		it.coordinates[i] = 0
	}
}

// Done reports whether the iterator moved past the last point.
func (it *Iterator) Done() bool {
	return it.index >= it.size
}

// Index is the current flat index.
func (it *Iterator) Index() int { return it.index }

// Coordinate returns the coordinate on one axis.
func (it *Iterator) Coordinate(axis int) int { return it.coordinates[axis] }

// Coordinates returns a copy of the coordinate tuple.
func (it *Iterator) Coordinates() []int {
	return append([]int(nil), it.coordinates...)
}
