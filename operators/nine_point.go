package operators

import (
	"fmt"

	"github.com/bcdannyboy/fdquant/meshers"
	"gonum.org/v1/gonum/mat"
)

// NinePoint couples every grid point with its neighbours in the (d0, d1)
// plane. a[k0][k1][i] weighs the point reached by offsets k0-1 along d0 and
// k1-1 along d1.
type NinePoint struct {
	d0, d1 int
	mesh   *meshers.Composite

	idx [3][3][]int
	a   [3][3][]float64
}

// NewNinePoint returns a zero operator in the (d0, d1) plane.
func NewNinePoint(d0, d1 int, mesh *meshers.Composite) *NinePoint {
	l := mesh.Layout()
	for _, d := range []int{d0, d1} {
		if d < 0 || d >= l.NumAxes() {
			panic(fmt.Errorf("direction %d of %d axes: %w", d, l.NumAxes(), ErrAxisOutOfRange))
		}
	}
	if d0 == d1 {
		panic(fmt.Sprintf("operators: mixed derivative needs two distinct axes, got %d twice", d0))
	}

	size := l.Size()
	op := &NinePoint{d0: d0, d1: d1, mesh: mesh}
	for k0 := 0; k0 < 3; k0++ {
		for k1 := 0; k1 < 3; k1++ {
			op.idx[k0][k1] = make([]int, size)
			op.a[k0][k1] = make([]float64, size)
		}
	}

	for it := l.Begin(); !it.Done(); it.Next() {
		i := it.Index()
		for k0 := 0; k0 < 3; k0++ {
			for k1 := 0; k1 < 3; k1++ {
				op.idx[k0][k1][i] = l.Neighbour2(it, d0, k0-1, d1, k1-1)
			}
		}
	}

	return op
}

// Size is the number of grid points.
func (op *NinePoint) Size() int { return len(op.a[1][1]) }

// Coefficient returns the weight of the neighbour at (off0, off1) in row i.
func (op *NinePoint) Coefficient(i, off0, off1 int) float64 {
	return op.a[off0+1][off1+1][i]
}

// Clone returns a copy that owns its coefficients.
func (op *NinePoint) Clone() *NinePoint {
	c := *op
	for k0 := 0; k0 < 3; k0++ {
		for k1 := 0; k1 < 3; k1++ {
			c.a[k0][k1] = append([]float64(nil), op.a[k0][k1]...)
		}
	}
	return &c
}

// zeroRows clears the listed rows in place.
func (op *NinePoint) zeroRows(rows []int) {
	for k0 := 0; k0 < 3; k0++ {
		for k1 := 0; k1 < 3; k1++ {
			for _, i := range rows {
				op.a[k0][k1][i] = 0
			}
		}
	}
}

// Apply returns op·r.
func (op *NinePoint) Apply(r []float64) []float64 {
	out := make([]float64, len(r))
	for k0 := 0; k0 < 3; k0++ {
		for k1 := 0; k1 < 3; k1++ {
			a, idx := op.a[k0][k1], op.idx[k0][k1]
			for i := range out {
				out[i] += a[i] * r[idx[i]]
			}
		}
	}
	return out
}

// Mult scales row i by u[i].
func (op *NinePoint) Mult(u []float64) *NinePoint {
	out := op.Clone()
	for k0 := 0; k0 < 3; k0++ {
		for k1 := 0; k1 < 3; k1++ {
			a := out.a[k0][k1]
			for i, s := range u {
				a[i] *= s
			}
		}
	}
	return out
}

// ToMatrix materialises the operator as a band matrix.
func (op *NinePoint) ToMatrix() *mat.BandDense {
	n := op.Size()
	spacing := op.mesh.Layout().Spacing()
	k := spacing[op.d0] + spacing[op.d1]
	if k > n-1 {
		k = n - 1
	}

	m := mat.NewBandDense(n, n, k, k, nil)
	for k0 := 0; k0 < 3; k0++ {
		for k1 := 0; k1 < 3; k1++ {
			for i := 0; i < n; i++ {
				j := op.idx[k0][k1][i]
				m.SetBand(i, j, m.At(i, j)+op.a[k0][k1][i])
			}
		}
	}
	return m
}
