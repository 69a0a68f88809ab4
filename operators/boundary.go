package operators

import (
	"github.com/bcdannyboy/fdquant/meshers"
)

// BoundaryCondition hooks into every scheme step around operator
// applications and implicit solves.
type BoundaryCondition interface {
	SetTime(t float64)
	ApplyBeforeApplying(op Composite)
	ApplyAfterApplying(a []float64)
	ApplyBeforeSolving(op Composite, rhs []float64)
	ApplyAfterSolving(a []float64)
}

// RowPinner is implemented by operators whose rows can be taken out of
// the equation. A pinned row applies as zero, so an implicit solve returns
// the right-hand side there unchanged.
type RowPinner interface {
	PinRows(indices []int)
}

// pinnedRows remembers which rows an operator must keep zeroed across
// SetTime rebuilds.
type pinnedRows struct {
	mask []bool
	rows []int
}

// add reports whether any index was not pinned yet.
func (p *pinnedRows) add(size int, indices []int) bool {
	if p.mask == nil {
		p.mask = make([]bool, size)
	}
	added := false
	for _, i := range indices {
		if !p.mask[i] {
			p.mask[i] = true
			p.rows = append(p.rows, i)
			added = true
		}
	}
	return added
}

// Side selects the lower or upper face of an axis.
type Side int

const (
	Lower Side = iota
	Upper
)

// Dirichlet pins the solution on one face of the mesh to a fixed value,
// e.g. the rebate at a knock-out barrier.
type Dirichlet struct {
	indices []int
	value   float64
}

func NewDirichlet(mesh *meshers.Composite, direction int, side Side, value float64) *Dirichlet {
	l := mesh.Layout()
	target := 0
	if side == Upper {
		target = l.Dim(direction) - 1
	}

	var indices []int
	for it := l.Begin(); !it.Done(); it.Next() {
		if it.Coordinate(direction) == target {
			indices = append(indices, it.Index())
		}
	}
	return &Dirichlet{indices: indices, value: value}
}

// Indices are the flat indices of the pinned grid points.
func (d *Dirichlet) Indices() []int { return d.indices }

func (d *Dirichlet) SetTime(float64) {}

func (d *Dirichlet) ApplyBeforeApplying(op Composite) {
	if p, ok := op.(RowPinner); ok {
		p.PinRows(d.indices)
	}
}

func (d *Dirichlet) ApplyAfterApplying(a []float64) { d.pin(a) }

func (d *Dirichlet) ApplyBeforeSolving(op Composite, rhs []float64) {
	d.ApplyBeforeApplying(op)
	d.pin(rhs)
}

func (d *Dirichlet) ApplyAfterSolving(a []float64) { d.pin(a) }

func (d *Dirichlet) pin(a []float64) {
	for _, i := range d.indices {
		a[i] = d.value
	}
}

// BoundaryConditionSet applies its members in order.
type BoundaryConditionSet []BoundaryCondition

func (s BoundaryConditionSet) SetTime(t float64) {
	for _, bc := range s {
		bc.SetTime(t)
	}
}

func (s BoundaryConditionSet) ApplyBeforeApplying(op Composite) {
	for _, bc := range s {
		bc.ApplyBeforeApplying(op)
	}
}

func (s BoundaryConditionSet) ApplyAfterApplying(a []float64) {
	for _, bc := range s {
		bc.ApplyAfterApplying(a)
	}
}

func (s BoundaryConditionSet) ApplyBeforeSolving(op Composite, rhs []float64) {
	for _, bc := range s {
		bc.ApplyBeforeSolving(op, rhs)
	}
}

func (s BoundaryConditionSet) ApplyAfterSolving(a []float64) {
	for _, bc := range s {
		bc.ApplyAfterSolving(a)
	}
}
