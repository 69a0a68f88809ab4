package models

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/optimize"
)

type HestonModel struct {
	V0    float64 // Initial variance
	Kappa float64 // Mean reversion speed of variance
	Theta float64 // Long-term variance
	Xi    float64 // Volatility of variance
	Rho   float64 // Correlation between asset returns and variance
}

func NewHestonModel(v0, kappa, theta, xi, rho float64) *HestonModel {
	return &HestonModel{
		V0:    v0,
		Kappa: kappa,
		Theta: theta,
		Xi:    xi,
		Rho:   rho,
	}
}

// Validate rejects parameter sets the variance SDE is not defined for.
func (h *HestonModel) Validate() error {
	switch {
	case h == nil:
		return fmt.Errorf("nil model: %w", ErrInvalidModel)
	case h.V0 < 0:
		return fmt.Errorf("v0 %v < 0: %w", h.V0, ErrInvalidModel)
	case h.Theta <= 0:
		return fmt.Errorf("theta %v <= 0: %w", h.Theta, ErrInvalidModel)
	case h.Kappa <= 0:
		return fmt.Errorf("kappa %v <= 0: %w", h.Kappa, ErrInvalidModel)
	case h.Xi <= 0:
		return fmt.Errorf("xi %v <= 0: %w", h.Xi, ErrInvalidModel)
	case h.Rho < -1 || h.Rho > 1:
		return fmt.Errorf("rho %v outside [-1,1]: %w", h.Rho, ErrInvalidModel)
	}
	return nil
}

// FellerSatisfied reports whether 2κθ >= ξ², i.e. zero variance is unattainable.
func (h *HestonModel) FellerSatisfied() bool {
	return 2*h.Kappa*h.Theta >= h.Xi*h.Xi
}

// characteristicFunction is E[exp(iu·ln(S_t/F_t))] in the rotation-count
// free form, valid for complex u.
func (h *HestonModel) characteristicFunction(u complex128, t float64) complex128 {
	iu := complex(0, 1) * u
	xi2 := h.Xi * h.Xi
	beta := complex(h.Kappa, 0) - complex(h.Rho*h.Xi, 0)*iu
	d := cmplx.Sqrt(beta*beta + complex(xi2, 0)*(iu+u*u))
	g := (beta - d) / (beta + d)
	edt := cmplx.Exp(-d * complex(t, 0))

	c := complex(h.Kappa*h.Theta/xi2, 0) *
		((beta-d)*complex(t, 0) - 2*cmplx.Log((1-g*edt)/(1-g)))
	dd := (beta - d) / complex(xi2, 0) * (1 - edt) / (1 - g*edt)

	return cmplx.Exp(c + dd*complex(h.V0, 0))
}

// CalculateOptionPrice calculates the European option price under the Heston
// model with the Lewis single-integral representation.
func (h *HestonModel) CalculateOptionPrice(optionType OptionType, s0, k, r, q, t float64) float64 {
	if t <= 0 {
		return NewPlainVanillaPayoff(optionType, k).Value(s0)
	}

	fwd := s0 * math.Exp((r-q)*t)
	logMoneyness := math.Log(k / fwd)

	integrand := func(u float64) float64 {
		phi := h.characteristicFunction(complex(u, -0.5), t)
		return real(cmplx.Exp(complex(0, -u*logMoneyness))*phi) / (u*u + 0.25)
	}

	// the integrand decays like the characteristic function, whose width
	// scales with the inverse terminal standard deviation
	scale := math.Sqrt(math.Max(h.V0, h.Theta) * t)
	upper := math.Min(2000, math.Max(100, 60/scale))
	const panels = 64
	width := upper / panels
	integral := 0.0
	for i := 0; i < panels; i++ {
		a := float64(i) * width
		integral += quad.Fixed(integrand, a, a+width, 16, quad.Legendre{}, 0)
	}

	call := s0*math.Exp(-q*t) - math.Sqrt(fwd*k)*math.Exp(-r*t)*integral/math.Pi
	if optionType == Put {
		return call - s0*math.Exp(-q*t) + k*math.Exp(-r*t)
	}
	return call
}

// SimulatePrice evolves the spot to t with a full-truncation Euler scheme
// on the log price and returns the terminal spot.
func (h *HestonModel) SimulatePrice(s0, r, q, t float64, steps int, rng *rand.Rand) float64 {
	dt := t / float64(steps)
	sqrtDt := math.Sqrt(dt)
	rhoBar := math.Sqrt(1 - h.Rho*h.Rho)

	x := math.Log(s0)
	v := h.V0

	for i := 0; i < steps; i++ {
		z1 := rng.NormFloat64()
		z2 := h.Rho*z1 + rhoBar*rng.NormFloat64()

		vp := math.Max(0, v) // Ensure variance stays non-negative
		x += (r-q-0.5*vp)*dt + math.Sqrt(vp)*sqrtDt*z1
		v += h.Kappa*(h.Theta-vp)*dt + h.Xi*math.Sqrt(vp)*sqrtDt*z2
	}

	return math.Exp(x)
}

// MonteCarloPrice is an independent cross-check of the PDE engines. Paths are
// split across GOMAXPROCS workers, each with its own generator seeded from
// seed, so results are reproducible.
func (h *HestonModel) MonteCarloPrice(payoff Payoff, s0, r, q, t float64, steps, paths int, seed uint64) float64 {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > paths {
		numWorkers = paths
	}
	sums := make([]float64, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * paths / numWorkers
		end := (w + 1) * paths / numWorkers

		wg.Add(1)
		go func(w, n int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + uint64(w)))
			for j := 0; j < n; j++ {
				sums[w] += payoff.Value(h.SimulatePrice(s0, r, q, t, steps, rng))
			}
		}(w, end-start)
	}
	wg.Wait()

	total := 0.0
	for _, s := range sums {
		total += s
	}
	return math.Exp(-r*t) * total / float64(paths)
}

// CalibrationQuote is one market price the model is fitted to.
type CalibrationQuote struct {
	Type     OptionType
	Strike   float64
	Maturity float64
	Price    float64
}

// Calibrate fits the model to quotes by Nelder-Mead on the mean squared
// price error. The receiver is updated with the best parameters found.
func (h *HestonModel) Calibrate(quotes []CalibrationQuote, s0, r, q float64, maxEvaluations int) error {
	if len(quotes) == 0 {
		return ErrNoQuotes
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			candidate := NewHestonModel(x[0], x[1], x[2], x[3], x[4])
			if candidate.Validate() != nil {
				return 1e10
			}
			return candidate.objectiveFunction(quotes, s0, r, q)
		},
	}

	settings := &optimize.Settings{FuncEvaluations: maxEvaluations}
	result, err := optimize.Minimize(problem, []float64{h.V0, h.Kappa, h.Theta, h.Xi, h.Rho}, settings, &optimize.NelderMead{})
	if result == nil {
		return fmt.Errorf("heston calibration: %w", err)
	}

	best := NewHestonModel(result.X[0], result.X[1], result.X[2], result.X[3], result.X[4])
	if best.Validate() != nil || best.objectiveFunction(quotes, s0, r, q) > h.objectiveFunction(quotes, s0, r, q) {
		return nil
	}
	*h = *best

	return nil
}

// CalibrationError is the mean squared pricing error against quotes.
func (h *HestonModel) CalibrationError(quotes []CalibrationQuote, s0, r, q float64) float64 {
	return h.objectiveFunction(quotes, s0, r, q)
}

func (h *HestonModel) objectiveFunction(quotes []CalibrationQuote, s0, r, q float64) float64 {
	mse := 0.0
	for _, quote := range quotes {
		modelPrice := h.CalculateOptionPrice(quote.Type, s0, quote.Strike, r, q, quote.Maturity)
		mse += math.Pow(modelPrice-quote.Price, 2)
	}
	return mse / float64(len(quotes))
}
