package schemes_test

import (
	"math"
	"testing"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func allDescs() map[string]schemes.Desc {
	return map[string]schemes.Desc{
		"douglas":              schemes.DouglasDesc(),
		"craig-sneyd":          schemes.CraigSneydDesc(),
		"modified-craig-sneyd": schemes.ModifiedCraigSneydDesc(),
		"hundsdorfer":          schemes.HundsdorferDesc(),
		"modified-hundsdorfer": schemes.ModifiedHundsdorferDesc(),
		"explicit-euler":       schemes.ExplicitEulerDesc(),
		"implicit-euler":       schemes.ImplicitEulerDesc(),
		"crank-nicolson":       schemes.CrankNicolsonDesc(),
		"method-of-lines":      schemes.MethodOfLinesDesc(1e-3, 1e-2),
		"tr-bdf2":              schemes.TrBDF2Desc(),
	}
}

func TestDescParameters(t *testing.T) {
	assert.Equal(t, schemes.Desc{Type: schemes.Douglas, Theta: 0.5}, schemes.DouglasDesc())
	assert.Equal(t, schemes.Desc{Type: schemes.CraigSneyd, Theta: 0.5, Mu: 0.5}, schemes.CraigSneydDesc())
	assert.InDelta(t, 1.0/3.0, schemes.ModifiedCraigSneydDesc().Mu, 1e-15)
	assert.InDelta(t, 0.7886751345948129, schemes.HundsdorferDesc().Theta, 1e-15)
	assert.InDelta(t, 0.2928932188134524, schemes.ModifiedHundsdorferDesc().Theta, 1e-15)
	assert.InDelta(t, 0.5857864376269049, schemes.TrBDF2Desc().Theta, 1e-15)
	assert.Equal(t, "TrBDF2", schemes.TrBDF2.String())
	assert.Equal(t, "Unknown", schemes.Type(42).String())
}

func TestDescByName(t *testing.T) {
	d, err := schemes.DescByName("hundsdorfer")
	require.NoError(t, err)
	assert.Equal(t, schemes.HundsdorferDesc(), d)

	d, err = schemes.DescByName("TrBDF2")
	require.NoError(t, err)
	assert.Equal(t, schemes.TrBDF2, d.Type)

	_, err = schemes.DescByName("leapfrog")
	assert.ErrorIs(t, err, schemes.ErrUnknownScheme)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := schemes.New(schemes.Desc{Type: schemes.Type(42)}, nil, nil)
	assert.ErrorIs(t, err, schemes.ErrUnknownScheme)
}

// bsSetup builds a uniform log-spot grid with the spot on node 40.
func bsSetup(t *testing.T) (*meshers.Composite, *operators.BlackScholesOp, []float64) {
	t.Helper()
	x0 := math.Log(100)
	x, err := meshers.NewUniform1D(x0-1, x0+1, 81)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x)
	require.NoError(t, err)

	op, err := operators.NewBlackScholesOp(mesh, models.NewBlackScholesProcess(100, 0.05, 0.02, 0.2), 100)
	require.NoError(t, err)

	payoff := models.NewPlainVanillaPayoff(models.Call, 100)
	a := make([]float64, 81)
	for i, xi := range x.Locations() {
		a[i] = payoff.Value(math.Exp(xi))
	}
	return mesh, op, a
}

func rollback(t *testing.T, s schemes.Scheme, a []float64, maturity float64, steps int) {
	t.Helper()
	dt := maturity / float64(steps)
	s.SetStep(dt)
	tau := maturity
	for i := 0; i < steps; i++ {
		require.NoError(t, s.Step(a, tau))
		tau -= dt
	}
}

func TestSchemesPriceEuropeanCall(t *testing.T) {
	want := models.BlackScholes(models.Call, 100, 100, 1, 0.05, 0.02, 0.2).Price

	for name, desc := range allDescs() {
		t.Run(name, func(t *testing.T) {
			_, op, a := bsSetup(t)
			s, err := schemes.New(desc, op, nil)
			require.NoError(t, err)

			rollback(t, s, a, 1, 400)

			tol := 0.02
			if desc.Type == schemes.ExplicitEuler || desc.Type == schemes.ImplicitEuler {
				tol = 0.05
			}
			assert.InDelta(t, want, a[40], tol)
		})
	}
}

func TestSchemesKeepDirichletValues(t *testing.T) {
	for name, desc := range allDescs() {
		t.Run(name, func(t *testing.T) {
			mesh, op, a := bsSetup(t)
			bcs := operators.BoundaryConditionSet{
				operators.NewDirichlet(mesh, 0, operators.Lower, 0),
				operators.NewDirichlet(mesh, 0, operators.Upper, a[80]),
			}
			s, err := schemes.New(desc, op, bcs)
			require.NoError(t, err)

			rollback(t, s, a, 0.25, 50)
			assert.Equal(t, 0.0, a[0])
			assert.InDelta(t, math.Exp(math.Log(100)+1)-100, a[80], 1e-12)
			assert.True(t, a[40] > 0)
		})
	}
}

func TestStepTowardsNegativeTime(t *testing.T) {
	for name, desc := range allDescs() {
		t.Run(name, func(t *testing.T) {
			_, op, a := bsSetup(t)
			s, err := schemes.New(desc, op, nil)
			require.NoError(t, err)
			s.SetStep(0.1)
			assert.ErrorIs(t, s.Step(a, 0.05), schemes.ErrNegativeTime)
		})
	}
}

func hestonSetup(t *testing.T) (*operators.HestonOp, []float64) {
	t.Helper()
	x, err := meshers.NewUniform1D(-1, 1, 21)
	require.NoError(t, err)
	v, err := meshers.NewUniform1D(0, 1, 11)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x, v)
	require.NoError(t, err)

	model := models.NewHestonModel(0.04, 1.5, 0.05, 0.4, -0.7)
	op, err := operators.NewHestonOp(mesh, models.NewHestonProcess(1, 0.03, 0.01, model))
	require.NoError(t, err)

	a := make([]float64, mesh.Layout().Size())
	l := mesh.Layout()
	for it := l.Begin(); !it.Done(); it.Next() {
		xi, vi := mesh.Location(it, 0), mesh.Location(it, 1)
		a[it.Index()] = math.Exp(-4*xi*xi) * (1 + vi)
	}
	return op, a
}

func TestSchemesAreConsistentOnHestonOperator(t *testing.T) {
	const dt = 1e-4

	for name, desc := range allDescs() {
		t.Run(name, func(t *testing.T) {
			op, a := hestonSetup(t)
			op.SetTime(0, dt)
			la := op.Apply(a)
			scale := floats.Norm(la, math.Inf(1))

			s, err := schemes.New(desc, op, nil)
			require.NoError(t, err)
			s.SetStep(dt)
			u := append([]float64(nil), a...)
			require.NoError(t, s.Step(u, 1))

			for i := range u {
				rate := (u[i] - a[i]) / dt
				require.InDelta(t, la[i], rate, 5e-2*scale, "index %d", i)
			}
		})
	}
}

func TestImplicitEulerSolvesMultiDirectionSystem(t *testing.T) {
	const dt = 0.05
	op, a := hestonSetup(t)

	s := schemes.NewImplicitEulerScheme(op, nil)
	s.SetStep(dt)
	x := append([]float64(nil), a...)
	require.NoError(t, s.Step(x, 0.5))

	op.SetTime(0.45, 0.5)
	lx := op.Apply(x)
	for i := range x {
		require.InDelta(t, a[i], x[i]-dt*lx[i], 1e-6)
	}
}

func tridiagonal(n int) (func([]float64) []float64, *mat.Dense) {
	dense := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		dense.Set(i, i, 4+0.1*float64(i%3))
		if i > 0 {
			dense.Set(i, i-1, -1)
		}
		if i < n-1 {
			dense.Set(i, i+1, -2)
		}
	}
	apply := func(x []float64) []float64 {
		var y mat.VecDense
		y.MulVec(dense, mat.NewVecDense(n, x))
		return append([]float64(nil), y.RawVector().Data...)
	}
	return apply, dense
}

func TestBiCGStab(t *testing.T) {
	const n = 30
	apply, dense := tridiagonal(n)
	b := make([]float64, n)
	for i := range b {
		b[i] = math.Sin(float64(i)) + 0.5
	}
	var want mat.VecDense
	require.NoError(t, want.SolveVec(dense, mat.NewVecDense(n, b)))

	jacobi := func(r []float64) []float64 {
		out := make([]float64, n)
		for i := range r {
			out[i] = r[i] / dense.At(i, i)
		}
		return out
	}

	for name, m := range map[string]func([]float64) []float64{"plain": nil, "jacobi": jacobi} {
		t.Run(name, func(t *testing.T) {
			res, err := schemes.BiCGStab{A: apply, M: m, MaxIter: 100, RelTol: 1e-12}.Solve(b, nil)
			require.NoError(t, err)
			assert.Less(t, res.Error, 1e-12)
			for i := 0; i < n; i++ {
				require.InDelta(t, want.AtVec(i), res.X[i], 1e-9)
			}
		})
	}

	res, err := schemes.BiCGStab{A: apply, MaxIter: 10, RelTol: 1e-12}.Solve(make([]float64, n), nil)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, n), res.X)

	_, err = schemes.BiCGStab{A: apply, MaxIter: 1, RelTol: 1e-14}.Solve(b, nil)
	assert.ErrorIs(t, err, schemes.ErrNoConvergence)
}

func TestAdaptiveRungeKutta(t *testing.T) {
	rk := schemes.AdaptiveRungeKutta{Eps: 1e-10, H1: 0.01}

	decay := func(_ float64, y []float64) []float64 { return []float64{-y[0]} }
	y, err := rk.Integrate(decay, []float64{1}, 0, 2)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-2), y[0], 1e-7)

	// backwards in time
	growth := func(_ float64, y []float64) []float64 { return []float64{y[0]} }
	y, err = rk.Integrate(growth, []float64{math.E}, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, y[0], 1e-7)

	oscillator := func(_ float64, y []float64) []float64 { return []float64{y[1], -y[0]} }
	y, err = rk.Integrate(oscillator, []float64{1, 0}, 0, math.Pi)
	require.NoError(t, err)
	assert.InDelta(t, -1, y[0], 1e-6)
	assert.InDelta(t, 0, y[1], 1e-6)

	y, err = rk.Integrate(decay, []float64{3}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, y)

	limited := schemes.AdaptiveRungeKutta{Eps: 1e-12, H1: 1e-3, MaxSteps: 3}
	_, err = limited.Integrate(decay, []float64{1}, 0, 1)
	assert.ErrorIs(t, err, schemes.ErrNoConvergence)
}
