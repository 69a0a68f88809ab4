package schemes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dormand-Prince 5(4) tableau. errB holds the differences between the
// fifth and the embedded fourth order weights.
var (
	dpC = [7]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1}
	dpA = [7][]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	}
	dpB    = [7]float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0}
	dpErrB = [7]float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 + 92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	}
)

const (
	rkSafety  = 0.9
	rkTiny    = 1e-30
	rkMaxGrow = 5.0
	rkMinCut  = 0.1

	// DefaultRungeKuttaMaxSteps bounds the accepted and rejected trial
	// steps of one integration.
	DefaultRungeKuttaMaxSteps = 100000
)

// AdaptiveRungeKutta integrates y' = f(t, y) with the embedded
// Dormand-Prince pair and step size control on the scaled local error.
// Integration may run backwards in time.
type AdaptiveRungeKutta struct {
	Eps      float64 // local error tolerance, relative to |y| + |h·y'|
	H1       float64 // first trial step size; zero tries the whole interval
	HMin     float64 // smallest step size before giving up
	MaxSteps int     // zero means DefaultRungeKuttaMaxSteps
}

// Integrate returns y(t2) given y(t1) = y0.
func (rk AdaptiveRungeKutta) Integrate(f func(t float64, y []float64) []float64, y0 []float64, t1, t2 float64) ([]float64, error) {
	y := append([]float64(nil), y0...)
	if t1 == t2 {
		return y, nil
	}

	maxSteps := rk.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultRungeKuttaMaxSteps
	}
	dir := math.Copysign(1, t2-t1)
	h := dir * math.Abs(rk.H1)
	if rk.H1 == 0 {
		h = t2 - t1
	}

	n := len(y)
	var k [7][]float64
	yNew := make([]float64, n)
	yErr := make([]float64, n)
	stage := make([]float64, n)

	t := t1
	for step := 0; step < maxSteps; step++ {
		last := false
		if (t+h-t2)*dir >= 0 {
			h = t2 - t
			last = true
		}

		k[0] = f(t, y)
		for s := 1; s < 7; s++ {
			copy(stage, y)
			for j, a := range dpA[s] {
				if a != 0 {
					floats.AddScaled(stage, h*a, k[j])
				}
			}
			k[s] = f(t+dpC[s]*h, stage)
		}

		copy(yNew, y)
		for i := range yErr {
			yErr[i] = 0
		}
		for s := 0; s < 7; s++ {
			if dpB[s] != 0 {
				floats.AddScaled(yNew, h*dpB[s], k[s])
			}
			floats.AddScaled(yErr, h*dpErrB[s], k[s])
		}

		errMax := 0.0
		for i := range y {
			scale := math.Abs(y[i]) + math.Abs(h*k[0][i]) + rkTiny
			errMax = math.Max(errMax, math.Abs(yErr[i]/scale))
		}
		errMax /= rk.Eps

		if errMax <= 1 {
			t += h
			y, yNew = yNew, y
			if last {
				return y, nil
			}
			grow := rkMaxGrow
			if errMax > 0 {
				grow = math.Min(rkMaxGrow, rkSafety*math.Pow(errMax, -0.2))
			}
			h *= grow
			continue
		}

		h *= math.Max(rkMinCut, rkSafety*math.Pow(errMax, -0.25))
		if math.Abs(h) <= rk.HMin || t+h == t {
			return nil, fmt.Errorf("runge-kutta: step size underflow at t=%g: %w", t, ErrNoConvergence)
		}
	}
	return nil, fmt.Errorf("runge-kutta: more than %d steps: %w", maxSteps, ErrNoConvergence)
}
