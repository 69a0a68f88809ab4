// Package operators holds the discrete differential operators of the
// finite-difference engines. Operators are banded: a TripleBand couples each
// grid point with its two neighbours along one axis, a NinePoint with its
// eight neighbours in a plane.
package operators

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/meshers"
	"gonum.org/v1/gonum/mat"
)

// TripleBand is a tridiagonal operator along one axis of a composite mesh.
// Row i reads lower[i]·u[i0[i]] + diag[i]·u[i] + upper[i]·u[i2[i]].
type TripleBand struct {
	direction int
	mesh      *meshers.Composite

	i0, i2       []int
	reverseIndex []int

	lower, diag, upper []float64
}

// NewTripleBand returns a zero operator along direction.
func NewTripleBand(direction int, mesh *meshers.Composite) *TripleBand {
	l := mesh.Layout()
	if direction < 0 || direction >= l.NumAxes() {
		panic(fmt.Errorf("direction %d of %d axes: %w", direction, l.NumAxes(), ErrAxisOutOfRange))
	}
	size := l.Size()

	op := &TripleBand{
		direction:    direction,
		mesh:         mesh,
		i0:           make([]int, size),
		i2:           make([]int, size),
		reverseIndex: make([]int, size),
		lower:        make([]float64, size),
		diag:         make([]float64, size),
		upper:        make([]float64, size),
	}

	// ordering with the operator axis varying fastest, so every line is a
	// contiguous run of the Thomas sweep
	dims := l.Dims()
	dims[0], dims[direction] = dims[direction], dims[0]
	spacing := make([]int, len(dims))
	stride := 1
	for i, d := range dims {
		spacing[i] = stride
		stride *= d
	}
	spacing[0], spacing[direction] = spacing[direction], spacing[0]

	for it := l.Begin(); !it.Done(); it.Next() {
		i := it.Index()
		op.i0[i] = l.Neighbour(it, direction, -1)
		op.i2[i] = l.Neighbour(it, direction, 1)

		newIndex := 0
		for axis, s := range spacing {
			newIndex += it.Coordinate(axis) * s
		}
		op.reverseIndex[newIndex] = i
	}

	return op
}

// Direction is the axis the operator acts along.
func (op *TripleBand) Direction() int { return op.direction }

// Size is the number of grid points.
func (op *TripleBand) Size() int { return len(op.diag) }

// Coefficients returns row i of the band.
func (op *TripleBand) Coefficients(i int) (lower, diag, upper float64) {
	return op.lower[i], op.diag[i], op.upper[i]
}

// Clone returns a deep copy of the coefficients. Index tables are shared.
func (op *TripleBand) Clone() *TripleBand {
	c := *op
	c.lower = append([]float64(nil), op.lower...)
	c.diag = append([]float64(nil), op.diag...)
	c.upper = append([]float64(nil), op.upper...)
	return &c
}

// Apply evaluates the stencil on r.
func (op *TripleBand) Apply(r []float64) []float64 {
	out := make([]float64, len(r))
	for i := range out {
		out[i] = op.lower[i]*r[op.i0[i]] + op.diag[i]*r[i] + op.upper[i]*r[op.i2[i]]
	}
	return out
}

// Mult scales row i by u[i].
func (op *TripleBand) Mult(u []float64) *TripleBand {
	out := op.Clone()
	for i, s := range u {
		out.lower[i] *= s
		out.diag[i] *= s
		out.upper[i] *= s
	}
	return out
}

// MultR multiplies from the right: column j is scaled by u[j].
func (op *TripleBand) MultR(u []float64) *TripleBand {
	out := op.Clone()
	for i := range out.diag {
		out.lower[i] *= u[op.i0[i]]
		out.diag[i] *= u[i]
		out.upper[i] *= u[op.i2[i]]
	}
	return out
}

// Add returns op + other. Both operators must act along the same axis.
func (op *TripleBand) Add(other *TripleBand) *TripleBand {
	op.checkDirection(other)
	out := op.Clone()
	for i := range out.diag {
		out.lower[i] += other.lower[i]
		out.diag[i] += other.diag[i]
		out.upper[i] += other.upper[i]
	}
	return out
}

// AddDiagonal returns op + diag(u).
func (op *TripleBand) AddDiagonal(u []float64) *TripleBand {
	out := op.Clone()
	for i, s := range u {
		out.diag[i] += s
	}
	return out
}

// AddScalar returns op + c·I.
func (op *TripleBand) AddScalar(c float64) *TripleBand {
	out := op.Clone()
	for i := range out.diag {
		out.diag[i] += c
	}
	return out
}

// Axpyb overwrites op with a·x + y + b·I. a and b hold either one value for
// every row or one value per row; a nil a drops the x term (x may then be
// nil) and a nil b drops the identity term.
func (op *TripleBand) Axpyb(a []float64, x, y *TripleBand, b []float64) {
	op.checkDirection(y)
	if a != nil {
		op.checkDirection(x)
	}

	var ainc, binc int
	if len(a) > 1 {
		ainc = 1
	}
	if len(b) > 1 {
		binc = 1
	}

	for i := range op.diag {
		l, d, u := y.lower[i], y.diag[i], y.upper[i]
		if a != nil {
			s := a[i*ainc]
			l += s * x.lower[i]
			d += s * x.diag[i]
			u += s * x.upper[i]
		}
		if b != nil {
			d += b[i*binc]
		}
		op.lower[i], op.diag[i], op.upper[i] = l, d, u
	}
}

// zeroRows clears the listed rows in place.
func (op *TripleBand) zeroRows(rows []int) {
	for _, i := range rows {
		op.lower[i], op.diag[i], op.upper[i] = 0, 0, 0
	}
}

// SolveSplitting solves (a·op + b·I)x = r with one Thomas sweep per line
// along the operator axis.
func (op *TripleBand) SolveSplitting(r []float64, a, b float64) []float64 {
	n := len(r)
	x := make([]float64, n)
	tmp := make([]float64, n)

	rim1 := op.reverseIndex[0]
	bet := a*op.diag[rim1] + b
	if bet == 0 {
		panic(fmt.Errorf("pivot at %d: %w", rim1, ErrSingularSystem))
	}
	bet = 1 / bet
	x[rim1] = r[rim1] * bet

	for j := 1; j < n; j++ {
		ri := op.reverseIndex[j]
		tmp[j] = a * op.upper[rim1] * bet

		bet = b + a*(op.diag[ri]-tmp[j]*op.lower[ri])
		if bet == 0 {
			panic(fmt.Errorf("pivot at %d: %w", ri, ErrSingularSystem))
		}
		bet = 1 / bet
		x[ri] = (r[ri] - a*op.lower[ri]*x[rim1]) * bet
		rim1 = ri
	}

	for j := n - 2; j >= 0; j-- {
		x[op.reverseIndex[j]] -= tmp[j+1] * x[op.reverseIndex[j+1]]
	}

	return x
}

// ToMatrix materialises the operator as a band matrix.
func (op *TripleBand) ToMatrix() *mat.BandDense {
	n := len(op.diag)
	k := op.mesh.Layout().Spacing()[op.direction]
	if k > n-1 {
		k = n - 1
	}
	m := mat.NewBandDense(n, n, k, k, nil)
	for i := 0; i < n; i++ {
		m.SetBand(i, op.i0[i], m.At(i, op.i0[i])+op.lower[i])
		m.SetBand(i, i, m.At(i, i)+op.diag[i])
		m.SetBand(i, op.i2[i], m.At(i, op.i2[i])+op.upper[i])
	}
	return m
}

func (op *TripleBand) checkDirection(other *TripleBand) {
	if other.direction != op.direction || len(other.diag) != len(op.diag) {
		panic(fmt.Sprintf("operators: mixing axis %d and axis %d band operators", op.direction, other.direction))
	}
}
