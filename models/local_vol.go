package models

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// VolatilitySurface is a local volatility grid. Vols[i][j] is the volatility
// at Times[i] and Strikes[j]; both axes are strictly increasing.
type VolatilitySurface struct {
	Strikes []float64
	Times   []float64
	Vols    [][]float64
}

func NewVolatilitySurface(strikes, times []float64, vols [][]float64) (*VolatilitySurface, error) {
	if len(strikes) == 0 || len(times) == 0 {
		return nil, fmt.Errorf("empty axes: %w", ErrInvalidSurface)
	}
	if !increasing(strikes) || !increasing(times) {
		return nil, fmt.Errorf("axes must be strictly increasing: %w", ErrInvalidSurface)
	}
	if len(vols) != len(times) {
		return nil, fmt.Errorf("%d vol rows for %d times: %w", len(vols), len(times), ErrInvalidSurface)
	}
	for i, row := range vols {
		if len(row) != len(strikes) {
			return nil, fmt.Errorf("row %d has %d vols for %d strikes: %w", i, len(row), len(strikes), ErrInvalidSurface)
		}
		for _, v := range row {
			if v <= 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("row %d: non-positive volatility %v: %w", i, v, ErrInvalidSurface)
			}
		}
	}

	return &VolatilitySurface{Strikes: strikes, Times: times, Vols: vols}, nil
}

// FlatVolatilitySurface is a single-point surface returning vol everywhere.
func FlatVolatilitySurface(vol float64) *VolatilitySurface {
	return &VolatilitySurface{
		Strikes: []float64{1},
		Times:   []float64{0},
		Vols:    [][]float64{{vol}},
	}
}

func increasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

// InterpolateVolatility interpolates bilinearly in (t, S), holding the edge
// values flat outside the grid.
func (surface *VolatilitySurface) InterpolateVolatility(S, t float64) float64 {
	if len(surface.Strikes) == 0 || len(surface.Times) == 0 || len(surface.Vols) == 0 {
		return 0
	}

	tIndex, xt := bracket(surface.Times, t)
	sIndex, xs := bracket(surface.Strikes, S)

	tNext := clamp(tIndex+1, 0, len(surface.Times)-1)
	sNext := clamp(sIndex+1, 0, len(surface.Strikes)-1)

	v00 := surface.Vols[tIndex][sIndex]
	v01 := surface.Vols[tIndex][sNext]
	v10 := surface.Vols[tNext][sIndex]
	v11 := surface.Vols[tNext][sNext]

	return (1-xt)*(1-xs)*v00 + xt*(1-xs)*v10 + (1-xt)*xs*v01 + xt*xs*v11
}

// bracket returns the lower node index of x in axis and the fractional
// position within that cell, clamped to [0,1].
func bracket(axis []float64, x float64) (int, float64) {
	n := len(axis)
	if n == 1 || x <= axis[0] {
		return 0, 0
	}
	if x >= axis[n-1] {
		return n - 1, 0
	}
	i := sort.SearchFloat64s(axis, x)
	if axis[i] == x {
		return i, 0
	}
	i--
	return i, (x - axis[i]) / (axis[i+1] - axis[i])
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SimulateLocalVolPath returns a log-Euler path of steps+1 spots.
func SimulateLocalVolPath(S0, r, q float64, surface *VolatilitySurface, T float64, steps int, rng *rand.Rand) []float64 {
	dt := T / float64(steps)
	sqrtDt := math.Sqrt(dt)

	S := make([]float64, steps+1)
	S[0] = S0

	for i := 0; i < steps; i++ {
		t := float64(i) * dt
		vol := surface.InterpolateVolatility(S[i], t)
		S[i+1] = S[i] * math.Exp((r-q-0.5*vol*vol)*dt+vol*sqrtDt*rng.NormFloat64())
	}

	return S
}
