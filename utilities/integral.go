package utilities

import (
	"github.com/bcdannyboy/fdquant/meshers"
	"gonum.org/v1/gonum/integrate"
)

// Rule integrates samples f taken at strictly increasing points x.
type Rule func(x, f []float64) float64

var (
	// Simpson is exact for quadratics on any spacing. Lines of two points
	// fall back to the trapezoidal rule.
	Simpson Rule = simpson

	Trapezoid Rule = integrate.Trapezoidal
)

func simpson(x, f []float64) float64 {
	if len(x) < 3 {
		return integrate.Trapezoidal(x, f)
	}
	return integrate.Simpsons(x, f)
}

// MesherIntegral integrates grid functions over the whole box of a
// composite mesh, one axis at a time.
type MesherIntegral struct {
	mesh *meshers.Composite
	rule Rule
}

func NewMesherIntegral(mesh *meshers.Composite, rule Rule) *MesherIntegral {
	return &MesherIntegral{mesh: mesh, rule: rule}
}

// Integrate returns the integral of f, given in layout order.
func (m *MesherIntegral) Integrate(f []float64) float64 {
	values := append([]float64(nil), f...)
	for axis := 0; axis < m.mesh.Layout().NumAxes(); axis++ {
		x := m.mesh.Mesher(axis).Locations()
		n := len(x)

		// axis is the fastest varying of what is left, so each line is a
		// contiguous run
		reduced := make([]float64, len(values)/n)
		for i := range reduced {
			reduced[i] = m.rule(x, values[i*n:(i+1)*n])
		}
		values = reduced
	}
	return values[0]
}
