package models

import (
	"fmt"
	"math"
)

// BlackScholesProcess is a one-factor lognormal diffusion with flat rates.
// Rates and volatility are continuously compounded annual figures.
type BlackScholesProcess struct {
	Spot     float64            // Current underlying price
	Rate     float64            // Risk-free rate
	Dividend float64            // Continuous dividend yield
	Vol      float64            // Black volatility
	LocalVol *VolatilitySurface // Optional local volatility surface, overrides Vol in the PDE
}

func NewBlackScholesProcess(spot, rate, dividend, vol float64) *BlackScholesProcess {
	return &BlackScholesProcess{
		Spot:     spot,
		Rate:     rate,
		Dividend: dividend,
		Vol:      vol,
	}
}

// Validate checks the process can drive a pricing call.
func (p *BlackScholesProcess) Validate() error {
	if p == nil {
		return fmt.Errorf("nil process: %w", ErrInvalidProcess)
	}
	if !(p.Spot > 0) || math.IsInf(p.Spot, 0) {
		return fmt.Errorf("spot %v: %w", p.Spot, ErrInvalidProcess)
	}
	if !(p.Vol > 0) || math.IsInf(p.Vol, 0) {
		return fmt.Errorf("volatility %v: %w", p.Vol, ErrInvalidProcess)
	}
	if math.IsNaN(p.Rate) || math.IsNaN(p.Dividend) {
		return fmt.Errorf("rates must be finite: %w", ErrInvalidProcess)
	}
	return nil
}

// Forward is the forward price for delivery at t.
func (p *BlackScholesProcess) Forward(t float64) float64 {
	return p.Spot * math.Exp((p.Rate-p.Dividend)*t)
}

// LocalVolatility returns the volatility used by the PDE at (t, spot).
func (p *BlackScholesProcess) LocalVolatility(t, spot float64) float64 {
	if p.LocalVol == nil {
		return p.Vol
	}
	return p.LocalVol.InterpolateVolatility(spot, t)
}

// HestonProcess couples a Heston variance model to a spot and flat rates.
type HestonProcess struct {
	Spot     float64
	Rate     float64
	Dividend float64
	Model    *HestonModel
}

func NewHestonProcess(spot, rate, dividend float64, model *HestonModel) *HestonProcess {
	return &HestonProcess{
		Spot:     spot,
		Rate:     rate,
		Dividend: dividend,
		Model:    model,
	}
}

func (p *HestonProcess) Validate() error {
	if p == nil || p.Model == nil {
		return fmt.Errorf("nil process: %w", ErrInvalidProcess)
	}
	if !(p.Spot > 0) || math.IsInf(p.Spot, 0) {
		return fmt.Errorf("spot %v: %w", p.Spot, ErrInvalidProcess)
	}
	return p.Model.Validate()
}
