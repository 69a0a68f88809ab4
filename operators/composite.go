package operators

import "gonum.org/v1/gonum/mat"

// Composite is a model operator L split by axis, L = Σ L_d + L_mixed, as
// consumed by the time-stepping schemes. The backward equation is
// ∂u/∂τ = L u in time to maturity τ.
type Composite interface {
	// Size is the number of directions, not grid points.
	Size() int

	// SetTime fixes time dependent coefficients for the step [t1, t2].
	SetTime(t1, t2 float64)

	Apply(r []float64) []float64
	ApplyMixed(r []float64) []float64
	ApplyDirection(direction int, r []float64) []float64

	// SolveSplitting solves (I + a·L_direction)x = r.
	SolveSplitting(direction int, r []float64, a float64) []float64

	// Preconditioner approximately solves (I + dt·L)x = r by sweeping
	// every direction in turn.
	Preconditioner(r []float64, dt float64) []float64

	ToMatrixDecomp() []mat.Matrix
}
