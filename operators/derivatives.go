package operators

import (
	"github.com/bcdannyboy/fdquant/meshers"
)

// firstDerivativeWeights are the three point weights of ∂/∂x at a point with
// spacings hm (left) and hp (right). End points use one-sided differences.
func firstDerivativeWeights(hm, hp float64, c, n int) (wm, w0, wp float64) {
	switch c {
	case 0:
		return 0, -1 / hp, 1 / hp
	case n - 1:
		return -1 / hm, 1 / hm, 0
	}
	return -hp / (hm * (hm + hp)), (hp - hm) / (hm * hp), hm / (hp * (hm + hp))
}

// NewFirstDerivative is the centred non-uniform first derivative along
// direction, exact for quadratics in the interior.
func NewFirstDerivative(direction int, mesh *meshers.Composite) *TripleBand {
	op := NewTripleBand(direction, mesh)
	l := mesh.Layout()
	n := l.Dim(direction)

	for it := l.Begin(); !it.Done(); it.Next() {
		i := it.Index()
		hm := mesh.DMinus(it, direction)
		hp := mesh.DPlus(it, direction)
		op.lower[i], op.diag[i], op.upper[i] = firstDerivativeWeights(hm, hp, it.Coordinate(direction), n)
	}
	return op
}

// NewSecondDerivative is the non-uniform three point second derivative.
// Boundary rows are left at zero.
func NewSecondDerivative(direction int, mesh *meshers.Composite) *TripleBand {
	op := NewTripleBand(direction, mesh)
	l := mesh.Layout()
	n := l.Dim(direction)

	for it := l.Begin(); !it.Done(); it.Next() {
		c := it.Coordinate(direction)
		if c == 0 || c == n-1 {
			continue
		}
		i := it.Index()
		hm := mesh.DMinus(it, direction)
		hp := mesh.DPlus(it, direction)
		op.lower[i] = 2 / (hm * (hm + hp))
		op.diag[i] = -2 / (hm * hp)
		op.upper[i] = 2 / (hp * (hm + hp))
	}
	return op
}

// NewSecondOrderMixedDerivative is ∂²/∂x_d0∂x_d1 as the tensor product of
// the first derivative stencils of both axes.
func NewSecondOrderMixedDerivative(d0, d1 int, mesh *meshers.Composite) *NinePoint {
	op := NewNinePoint(d0, d1, mesh)
	l := mesh.Layout()
	n0, n1 := l.Dim(d0), l.Dim(d1)

	for it := l.Begin(); !it.Done(); it.Next() {
		i := it.Index()
		w0m, w00, w0p := firstDerivativeWeights(mesh.DMinus(it, d0), mesh.DPlus(it, d0), it.Coordinate(d0), n0)
		w1m, w10, w1p := firstDerivativeWeights(mesh.DMinus(it, d1), mesh.DPlus(it, d1), it.Coordinate(d1), n1)

		w0 := [3]float64{w0m, w00, w0p}
		w1 := [3]float64{w1m, w10, w1p}
		for k0 := 0; k0 < 3; k0++ {
			for k1 := 0; k1 < 3; k1++ {
				op.a[k0][k1][i] = w0[k0] * w1[k1]
			}
		}
	}
	return op
}
