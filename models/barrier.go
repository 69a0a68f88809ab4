package models

import "math"

// DownAndOutCall is the Black-Scholes closed form of a continuously monitored
// down-and-out call without rebate. Once spot sits at or below the barrier
// the option is worthless.
func DownAndOutCall(S, K, H, T, r, q, sigma float64) float64 {
	if S <= H {
		return 0
	}

	sqrtT := math.Sqrt(T)
	sigmaSqrtT := sigma * sqrtT
	lambda := (r - q + 0.5*sigma*sigma) / (sigma * sigma)
	dfR := math.Exp(-r * T)
	dfQ := math.Exp(-q * T)
	hs := H / S

	if H <= K {
		y := math.Log(H*H/(S*K))/sigmaSqrtT + lambda*sigmaSqrtT
		downIn := S*dfQ*math.Pow(hs, 2*lambda)*normCDF(y) -
			K*dfR*math.Pow(hs, 2*lambda-2)*normCDF(y-sigmaSqrtT)
		return BlackScholes(Call, S, K, T, r, q, sigma).Price - downIn
	}

	x1 := math.Log(S/H)/sigmaSqrtT + lambda*sigmaSqrtT
	y1 := math.Log(H/S)/sigmaSqrtT + lambda*sigmaSqrtT
	return S*dfQ*normCDF(x1) - K*dfR*normCDF(x1-sigmaSqrtT) -
		S*dfQ*math.Pow(hs, 2*lambda)*normCDF(y1) +
		K*dfR*math.Pow(hs, 2*lambda-2)*normCDF(y1-sigmaSqrtT)
}
