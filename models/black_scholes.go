package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	maxIterations = 100
	epsilon       = 1e-10
)

// BSMResult carries a closed-form price and its sensitivities.
type BSMResult struct {
	Price             float64
	ImpliedVolatility float64
	Delta             float64
	Gamma             float64
	Theta             float64
	Vega              float64
	Rho               float64
}

// BlackScholes prices a European vanilla option in closed form.
// Theta is per year of calendar time.
func BlackScholes(optionType OptionType, S, K, T, r, q, sigma float64) BSMResult {
	if T <= 0 {
		return BSMResult{Price: NewPlainVanillaPayoff(optionType, K).Value(S)}
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r-q+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	dfR := math.Exp(-r * T)
	dfQ := math.Exp(-q * T)

	var delta, price, theta, rho float64
	if optionType == Call {
		delta = dfQ * normCDF(d1)
		price = S*dfQ*normCDF(d1) - K*dfR*normCDF(d2)
		theta = -(S*dfQ*normPDF(d1)*sigma)/(2*sqrtT) - r*K*dfR*normCDF(d2) + q*S*dfQ*normCDF(d1)
		rho = K * T * dfR * normCDF(d2)
	} else {
		delta = dfQ * (normCDF(d1) - 1)
		price = K*dfR*normCDF(-d2) - S*dfQ*normCDF(-d1)
		theta = -(S*dfQ*normPDF(d1)*sigma)/(2*sqrtT) + r*K*dfR*normCDF(-d2) - q*S*dfQ*normCDF(-d1)
		rho = -K * T * dfR * normCDF(-d2)
	}

	return BSMResult{
		Price:             price,
		ImpliedVolatility: sigma,
		Delta:             delta,
		Gamma:             dfQ * normPDF(d1) / (S * sigma * sqrtT),
		Theta:             theta,
		Vega:              S * dfQ * normPDF(d1) * sqrtT,
		Rho:               rho,
	}
}

// CashOrNothing prices a European digital paying cash when in the money.
func CashOrNothing(optionType OptionType, S, K, cash, T, r, q, sigma float64) float64 {
	sqrtT := math.Sqrt(T)
	d2 := (math.Log(S/K) + (r-q-0.5*sigma*sigma)*T) / (sigma * sqrtT)
	if optionType == Put {
		d2 = -d2
	}
	return cash * math.Exp(-r*T) * normCDF(d2)
}

// ImpliedVolatility inverts BlackScholes with Newton steps, falling back to
// bisection when vega vanishes or the iterate leaves the bracket.
func ImpliedVolatility(targetPrice float64, optionType OptionType, S, K, T, r, q float64) (float64, error) {
	lo, hi := 1e-6, 5.0
	sigma := 0.3 // Initial guess
	for i := 0; i < maxIterations; i++ {
		res := BlackScholes(optionType, S, K, T, r, q, sigma)

		diff := res.Price - targetPrice
		if math.Abs(diff) < epsilon {
			return sigma, nil
		}
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		next := sigma - diff/res.Vega
		if res.Vega < 1e-12 || next <= lo || next >= hi || math.IsNaN(next) {
			next = 0.5 * (lo + hi)
		}
		sigma = next
	}
	return math.NaN(), fmt.Errorf("implied volatility for price %v: %w", targetPrice, ErrNoConvergence)
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
