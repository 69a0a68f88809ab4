package solvers_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/operators"
	"github.com/bcdannyboy/fdquant/schemes"
	"github.com/bcdannyboy/fdquant/solvers"
	"github.com/bcdannyboy/fdquant/stepconditions"
	"github.com/bcdannyboy/fdquant/utilities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// recorder remembers the times it was applied at.
type recorder struct{ times []float64 }

func (r *recorder) ApplyTo(_ []float64, t float64) { r.times = append(r.times, t) }

func bsOperator(t *testing.T) (*meshers.Composite, operators.Composite) {
	t.Helper()
	process := models.NewBlackScholesProcess(100, 0.05, 0.0, 0.2)
	x, err := meshers.NewBlackScholesMesher(50, process, 1, 100)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x)
	require.NoError(t, err)
	op, err := operators.NewBlackScholesOp(mesh, process, 100)
	require.NoError(t, err)
	return mesh, op
}

func TestBackwardSolverConfigErrors(t *testing.T) {
	mesh, op := bsOperator(t)
	a := make([]float64, mesh.Layout().Size())

	_, err := solvers.NewBackwardSolver(nil, nil, nil, schemes.DouglasDesc())
	assert.ErrorIs(t, err, solvers.ErrInvalidConfig)
	_, err = solvers.NewBackwardSolver(op, nil, nil, schemes.Desc{Type: schemes.Type(99)})
	assert.ErrorIs(t, err, solvers.ErrInvalidConfig)

	s, err := solvers.NewBackwardSolver(op, nil, nil, schemes.DouglasDesc())
	require.NoError(t, err)

	tests := []struct {
		name           string
		from, to       float64
		steps, damping int
	}{
		{"zero steps with damping", 1, 0, 0, 5},
		{"negative damping", 1, 0, 10, -1},
		{"reversed interval", 0, 1, 10, 0},
		{"negative end", 1, -0.5, 10, 0},
		{"nan", math.NaN(), 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Rollback(a, tt.from, tt.to, tt.steps, tt.damping)
			assert.ErrorIs(t, err, solvers.ErrInvalidConfig)
			assert.Equal(t, solvers.Initialized, s.State())
		})
	}
}

func TestBackwardSolverHitsStoppingTimes(t *testing.T) {
	mesh, op := bsOperator(t)
	rec := &recorder{}
	cond := stepconditions.NewComposite([][]float64{{0.37, 0.9}}, []stepconditions.StepCondition{rec})

	s, err := solvers.NewBackwardSolver(op, nil, cond, schemes.CraigSneydDesc())
	require.NoError(t, err)
	a := make([]float64, mesh.Layout().Size())
	require.NoError(t, s.Rollback(a, 1, 0, 10, 2))
	assert.Equal(t, solvers.Done, s.State())

	assert.Contains(t, rec.times, 0.37)
	assert.Contains(t, rec.times, 0.9)
	assert.Equal(t, 0.0, rec.times[len(rec.times)-1])
	// 2 damping steps, 10 main steps and two extra pieces from the split steps
	assert.Len(t, rec.times, 14)
	for i := 1; i < len(rec.times); i++ {
		assert.Less(t, rec.times[i], rec.times[i-1])
	}
}

func TestBackwardSolverLogsTransitions(t *testing.T) {
	mesh, op := bsOperator(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := solvers.NewBackwardSolver(op, nil, nil, schemes.TrBDF2Desc(), solvers.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, s.Rollback(make([]float64, mesh.Layout().Size()), 1, 0, 5, 1))

	out := buf.String()
	assert.Contains(t, out, "state=damping")
	assert.Contains(t, out, "state=main-rollback")
	assert.Contains(t, out, "state=done")
	assert.Contains(t, out, "scheme=TrBDF2")

	// implicit Euler runs the damping steps as part of its main rollback
	buf.Reset()
	s, err = solvers.NewBackwardSolver(op, nil, nil, schemes.ImplicitEulerDesc(), solvers.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, s.Rollback(make([]float64, mesh.Layout().Size()), 1, 0, 5, 3))
	assert.NotContains(t, buf.String(), "state=damping")
	assert.Contains(t, buf.String(), "steps=8")
}

// singularOp is a one-direction operator whose solves break down.
type singularOp struct {
	cause error
}

func (o singularOp) Size() int                                   { return 1 }
func (o singularOp) SetTime(float64, float64)                    {}
func (o singularOp) Apply(r []float64) []float64                 { return make([]float64, len(r)) }
func (o singularOp) ApplyMixed(r []float64) []float64            { return make([]float64, len(r)) }
func (o singularOp) ApplyDirection(_ int, r []float64) []float64 { return make([]float64, len(r)) }
func (o singularOp) SolveSplitting(int, []float64, float64) []float64 {
	panic(fmt.Errorf("pivot 3: %w", o.cause))
}
func (o singularOp) Preconditioner(r []float64, _ float64) []float64 { return r }
func (o singularOp) ToMatrixDecomp() []mat.Matrix                    { return nil }

func TestBackwardSolverRecoversSingularSystem(t *testing.T) {
	s, err := solvers.NewBackwardSolver(singularOp{cause: operators.ErrSingularSystem}, nil, nil, schemes.DouglasDesc())
	require.NoError(t, err)
	err = s.Rollback(make([]float64, 4), 1, 0, 3, 0)
	assert.ErrorIs(t, err, operators.ErrSingularSystem)

	other, err := solvers.NewBackwardSolver(singularOp{cause: fmt.Errorf("boom")}, nil, nil, schemes.DouglasDesc())
	require.NoError(t, err)
	assert.Panics(t, func() { _ = other.Rollback(make([]float64, 4), 1, 0, 3, 0) })
}

func bsDesc(t *testing.T, process *models.BlackScholesProcess, payoff models.Payoff, strike float64, steps int) solvers.SolverDesc {
	t.Helper()
	x, err := meshers.NewBlackScholesMesher(201, process, 1, strike, meshers.WithConcentration(strike, 0.1))
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x)
	require.NoError(t, err)
	return solvers.SolverDesc{
		Mesh:         mesh,
		Calculator:   utilities.NewLogInnerValue(payoff, mesh, 0),
		Maturity:     1,
		TimeSteps:    steps,
		DampingSteps: 2,
	}
}

func TestBlackScholesSolverEuropeanCall(t *testing.T) {
	process := models.NewBlackScholesProcess(100, 0.05, 0.02, 0.2)
	desc := bsDesc(t, process, models.NewPlainVanillaPayoff(models.Call, 100), 100, 100)

	s, err := solvers.NewBlackScholesSolver(process, 100, desc, schemes.DouglasDesc())
	require.NoError(t, err)

	want := models.BlackScholes(models.Call, 100, 100, 1, 0.05, 0.02, 0.2)
	v, err := s.ValueAt(100)
	require.NoError(t, err)
	assert.InDelta(t, want.Price, v, 1e-2)

	delta, err := s.DeltaAt(100)
	require.NoError(t, err)
	assert.InDelta(t, want.Delta, delta, 2e-3)

	gamma, err := s.GammaAt(100)
	require.NoError(t, err)
	assert.InDelta(t, want.Gamma, gamma, 1e-3)

	theta, err := s.ThetaAt(100)
	require.NoError(t, err)
	assert.InDelta(t, want.Theta, theta, 0.1)

	_, err = s.ValueAt(1e-6)
	assert.ErrorIs(t, err, solvers.ErrOutOfGrid)
	_, err = s.ValueAt(-1)
	assert.ErrorIs(t, err, solvers.ErrOutOfGrid)
}

func TestBlackScholesSolverLocalVolatility(t *testing.T) {
	smile, err := models.NewVolatilitySurface([]float64{50, 100, 200}, []float64{0.5, 1}, [][]float64{
		{0.3, 0.2, 0.3},
		{0.3, 0.2, 0.3},
	})
	require.NoError(t, err)
	process := models.NewBlackScholesProcess(100, 0.05, 0.02, 0.35)
	process.LocalVol = smile
	desc := bsDesc(t, process, models.NewPlainVanillaPayoff(models.Put, 100), 100, 100)

	// switched off, the surface is only read at the strike
	flat, err := solvers.NewBlackScholesSolver(process, 100, desc, schemes.CrankNicolsonDesc(), solvers.WithLocalVolatility(false))
	require.NoError(t, err)
	flatValue, err := flat.ValueAt(100)
	require.NoError(t, err)
	assert.InDelta(t, models.BlackScholes(models.Put, 100, 100, 1, 0.05, 0.02, 0.2).Price, flatValue, 1e-2)

	// the smile lifts the volatility away from the money
	local, err := solvers.NewBlackScholesSolver(process, 100, desc, schemes.CrankNicolsonDesc())
	require.NoError(t, err)
	localValue, err := local.ValueAt(100)
	require.NoError(t, err)
	assert.Greater(t, localValue, flatValue+0.05)
}

func TestSolverDescValidation(t *testing.T) {
	process := models.NewBlackScholesProcess(100, 0.05, 0.02, 0.2)
	good := bsDesc(t, process, models.NewPlainVanillaPayoff(models.Call, 100), 100, 10)

	tests := map[string]func(d *solvers.SolverDesc){
		"nil mesh":       func(d *solvers.SolverDesc) { d.Mesh = nil },
		"nil calculator": func(d *solvers.SolverDesc) { d.Calculator = nil },
		"zero maturity":  func(d *solvers.SolverDesc) { d.Maturity = 0 },
		"no time steps":  func(d *solvers.SolverDesc) { d.TimeSteps = 0 },
		"damping":        func(d *solvers.SolverDesc) { d.DampingSteps = -2 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			d := good
			mutate(&d)
			_, err := solvers.NewBlackScholesSolver(process, 100, d, schemes.DouglasDesc())
			assert.ErrorIs(t, err, solvers.ErrInvalidConfig)
		})
	}

	// a one-axis mesh cannot carry the Heston operator
	_, err := solvers.NewHestonSolver(models.NewHestonProcess(100, 0.05, 0, models.NewHestonModel(0.04, 1, 0.04, 0.3, -0.5)), good, schemes.DouglasDesc())
	assert.ErrorIs(t, err, solvers.ErrInvalidConfig)
}

func TestHestonSolverEuropeanCall(t *testing.T) {
	const (
		spot, strike, r, q, maturity = 100.0, 100.0, 0.03, 0.01, 1.0
	)
	model := models.NewHestonModel(0.04, 1.5, 0.04, 0.3, -0.5)
	process := models.NewHestonProcess(spot, r, q, model)

	v, err := meshers.NewHestonVarianceMesher(25, model, maturity)
	require.NoError(t, err)
	x, err := meshers.NewBlackScholesMesher(60, models.NewBlackScholesProcess(spot, r, q, v.VolaEstimate()), maturity, strike,
		meshers.WithScaleFactor(2), meshers.WithConcentration(strike, 0.1))
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x, v)
	require.NoError(t, err)

	desc := solvers.SolverDesc{
		Mesh:         mesh,
		Calculator:   utilities.NewLogInnerValue(models.NewPlainVanillaPayoff(models.Call, strike), mesh, 0),
		Maturity:     maturity,
		TimeSteps:    50,
		DampingSteps: 2,
	}
	s, err := solvers.NewHestonSolver(process, desc, schemes.HundsdorferDesc())
	require.NoError(t, err)

	want := model.CalculateOptionPrice(models.Call, spot, strike, r, q, maturity)
	got, err := s.ValueAt(spot, model.V0)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 0.02*want)

	delta, err := s.DeltaAt(spot, model.V0)
	require.NoError(t, err)
	assert.True(t, delta > 0.4 && delta < 0.8, "delta %v", delta)

	gamma, err := s.GammaAt(spot, model.V0)
	require.NoError(t, err)
	assert.Greater(t, gamma, 0.0)

	dv, err := s.VarianceDeltaAt(spot, model.V0)
	require.NoError(t, err)
	assert.Greater(t, dv, 0.0)

	theta, err := s.ThetaAt(spot, model.V0)
	require.NoError(t, err)
	assert.Less(t, theta, 0.0)

	_, err = s.ValueAt(spot, 10)
	assert.ErrorIs(t, err, solvers.ErrOutOfGrid)
}

// gammaSignChanges counts sign flips of the discrete spot gamma between
// spots lo and hi.
func gammaSignChanges(x, v []float64, lo, hi float64) int {
	changes, last := 0, 0.0
	for i := 1; i < len(x)-1; i++ {
		s0, s1, s2 := math.Exp(x[i-1]), math.Exp(x[i]), math.Exp(x[i+1])
		if s1 < lo || s1 > hi {
			continue
		}
		gamma := 2 * ((v[i+1]-v[i])/(s2-s1) - (v[i]-v[i-1])/(s1-s0)) / (s2 - s0)
		if last != 0 && gamma*last < 0 {
			changes++
		}
		if gamma != 0 {
			last = gamma
		}
	}
	return changes
}

func TestDigitalPayoffOscillations(t *testing.T) {
	process := models.NewBlackScholesProcess(100, 0.05, 0, 0.2)
	x, err := meshers.NewBlackScholesMesher(401, process, 1, 100)
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x)
	require.NoError(t, err)

	desc := solvers.SolverDesc{
		Mesh:       mesh,
		Calculator: utilities.NewLogInnerValue(models.NewCashOrNothingPayoff(models.Call, 100, 1), mesh, 0),
		Maturity:   1,
		TimeSteps:  10,
	}

	tests := []struct {
		name      string
		scheme    schemes.Desc
		oscillate bool
	}{
		{"crank-nicolson", schemes.CrankNicolsonDesc(), true},
		{"douglas", schemes.DouglasDesc(), true},
		{"implicit-euler", schemes.ImplicitEulerDesc(), false},
		{"tr-bdf2", schemes.TrBDF2Desc(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := operators.NewBlackScholesOp(mesh, process, 100)
			require.NoError(t, err)
			s, err := solvers.NewSolver1D(op, desc, tt.scheme)
			require.NoError(t, err)

			changes := gammaSignChanges(x.Locations(), s.Values(), 80, 125)
			if tt.oscillate {
				assert.GreaterOrEqual(t, changes, 4)
			} else {
				assert.LessOrEqual(t, changes, 2)
			}
		})
	}
}

func TestHestonDigitalPayoffOscillations(t *testing.T) {
	const spot, strike, r, q, maturity = 100.0, 100.0, 0.03, 0.01, 1.0
	model := models.NewHestonModel(0.04, 1.5, 0.04, 0.3, -0.5)
	process := models.NewHestonProcess(spot, r, q, model)

	v, err := meshers.NewHestonVarianceMesher(25, model, maturity)
	require.NoError(t, err)
	x, err := meshers.NewBlackScholesMesher(201, models.NewBlackScholesProcess(spot, r, q, v.VolaEstimate()), maturity, strike,
		meshers.WithScaleFactor(2), meshers.WithConcentration(strike, 0.1))
	require.NoError(t, err)
	mesh, err := meshers.NewComposite(x, v)
	require.NoError(t, err)

	row := -1
	for j, vj := range v.Locations() {
		if vj == model.V0 {
			row = j
		}
	}
	require.GreaterOrEqual(t, row, 0)
	nx := len(x.Locations())

	desc := solvers.SolverDesc{
		Mesh:       mesh,
		Calculator: utilities.NewLogInnerValue(models.NewCashOrNothingPayoff(models.Call, strike, 1), mesh, 0),
		Maturity:   maturity,
		TimeSteps:  10,
	}

	tests := []struct {
		name   string
		scheme schemes.Desc
		smooth bool
	}{
		{"hundsdorfer", schemes.HundsdorferDesc(), false},
		{"craig-sneyd", schemes.CraigSneydDesc(), false},
		{"implicit-euler", schemes.ImplicitEulerDesc(), true},
		{"tr-bdf2", schemes.TrBDF2Desc(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := solvers.NewSolver2D(mustHestonOp(t, mesh, process), desc, tt.scheme)
			require.NoError(t, err)

			values := s.Values()
			for _, val := range values {
				require.False(t, math.IsNaN(val) || math.IsInf(val, 0))
			}
			price := s.InterpolateAt(math.Log(spot), model.V0)
			assert.True(t, price > 0.3 && price < 0.7, "price %v", price)

			changes := gammaSignChanges(x.Locations(), values[row*nx:(row+1)*nx], 80, 125)
			if tt.smooth {
				assert.LessOrEqual(t, changes, 2)
			} else {
				t.Logf("%s: %d gamma sign changes", tt.name, changes)
			}
		})
	}
}

func mustHestonOp(t *testing.T, mesh *meshers.Composite, process *models.HestonProcess) *operators.HestonOp {
	t.Helper()
	op, err := operators.NewHestonOp(mesh, process)
	require.NoError(t, err)
	return op
}
