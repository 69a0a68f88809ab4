package utilities_test

import (
	"math"
	"testing"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/utilities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logMesh(t *testing.T) *meshers.Composite {
	t.Helper()
	x, err := meshers.NewConcentrating1D(math.Log(50), math.Log(200), 41, &meshers.ConcentrationPoint{Point: math.Log(100), Density: 0.1}, false)
	require.NoError(t, err)
	v, err := meshers.NewUniform1D(0, 0.5, 3)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x, v)
	require.NoError(t, err)
	return mesh
}

func TestLogInnerValue(t *testing.T) {
	mesh := logMesh(t)
	payoff := models.NewPlainVanillaPayoff(models.Call, 100)
	calc := utilities.NewLogInnerValue(payoff, mesh, 0)

	l := mesh.Layout()
	for it := l.Begin(); !it.Done(); it.Next() {
		x := mesh.Location(it, 0)
		require.InDelta(t, payoff.Value(math.Exp(x)), calc.InnerValue(it, 1), 1e-12)
	}
}

func TestLogInnerValueCellAverage(t *testing.T) {
	mesh := logMesh(t)
	const k = 100.0
	calc := utilities.NewLogInnerValue(models.NewPlainVanillaPayoff(models.Call, k), mesh, 0)
	m := mesh.Mesher(0)
	n := m.Size()

	l := mesh.Layout()
	for it := l.Begin(); !it.Done(); it.Next() {
		i := it.Coordinate(0)
		x := m.Locations()[i]
		lo, hi := x, x
		if i > 0 {
			lo -= 0.5 * m.DMinus(i)
		}
		if i < n-1 {
			hi += 0.5 * m.DPlus(i)
		}

		var want float64
		switch lk := math.Log(k); {
		case hi <= lk:
			want = 0
		case lo >= lk:
			want = (math.Exp(hi)-math.Exp(lo))/(hi-lo) - k
		default:
			want = (math.Exp(hi) - k - k*(hi-lk)) / (hi - lo)
		}
		require.InDelta(t, want, calc.AvgInnerValue(it, 0), 1e-9, "index %d", i)
	}
}

func TestLogInnerValueDigitalAverage(t *testing.T) {
	x, err := meshers.NewUniform1D(math.Log(80), math.Log(120), 5)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x)
	require.NoError(t, err)

	calc := utilities.NewLogInnerValue(models.NewCashOrNothingPayoff(models.Call, 100, 1), mesh, 0)
	l := mesh.Layout()
	it := l.IteratorAt(2)
	xi := x.Locations()[2]
	h := x.DPlus(2)
	want := (xi + 0.5*h - math.Log(100)) / h
	assert.InDelta(t, want, calc.AvgInnerValue(it, 0), 1e-12)
	assert.InDelta(t, 1, calc.AvgInnerValue(l.IteratorAt(4), 0), 1e-12)
	assert.InDelta(t, 0, calc.AvgInnerValue(l.IteratorAt(0), 0), 1e-12)
}

func TestMesherIntegralSimpsonIsExactForQuadratics(t *testing.T) {
	x, err := meshers.NewConcentrating1D(-1, 1.6, 21, &meshers.ConcentrationPoint{Point: 0.3, Density: 0.1}, false)
	require.NoError(t, err)
	y, err := meshers.NewConcentrating1D(0.2, 3.1, 11, &meshers.ConcentrationPoint{Point: 1, Density: 0.2}, false)
	require.NoError(t, err)
	z, err := meshers.NewConcentrating1D(-2, 1, 31, &meshers.ConcentrationPoint{Point: -0.5, Density: 0.3}, false)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x, y, z)
	require.NoError(t, err)

	f := func(x, y, z float64) float64 { return x*x*y + 3*z*z + x*y*z }
	l := mesh.Layout()
	values := make([]float64, l.Size())
	for it := l.Begin(); !it.Done(); it.Next() {
		values[it.Index()] = f(mesh.Location(it, 0), mesh.Location(it, 1), mesh.Location(it, 2))
	}

	p1 := func(a, b float64) float64 { return b - a }
	p2 := func(a, b float64) float64 { return (b*b - a*a) / 2 }
	p3 := func(a, b float64) float64 { return (b*b*b - a*a*a) / 3 }
	want := p3(-1, 1.6)*p2(0.2, 3.1)*p1(-2, 1) +
		3*p1(-1, 1.6)*p1(0.2, 3.1)*p3(-2, 1) +
		p2(-1, 1.6)*p2(0.2, 3.1)*p2(-2, 1)

	got := utilities.NewMesherIntegral(mesh, utilities.Simpson).Integrate(values)
	assert.InDelta(t, want, got, 1e-10*math.Abs(want))

	// the trapezoidal rule is only close
	trap := utilities.NewMesherIntegral(mesh, utilities.Trapezoid).Integrate(values)
	assert.InDelta(t, want, trap, 1e-2*math.Abs(want))
	assert.NotEqual(t, got, trap)
}

func TestMesherIntegralTwoPointLines(t *testing.T) {
	x, err := meshers.NewUniform1D(0, 2, 2)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x)
	require.NoError(t, err)
	assert.InDelta(t, 3, utilities.NewMesherIntegral(mesh, utilities.Simpson).Integrate([]float64{1, 2}), 1e-15)
}
