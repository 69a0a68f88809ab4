package models_test

import (
	"math"
	"testing"

	"github.com/bcdannyboy/fdquant/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHestonValidate(t *testing.T) {
	tests := []struct {
		name  string
		model *models.HestonModel
		ok    bool
	}{
		{"valid", models.NewHestonModel(0.04, 1.5, 0.04, 0.3, -0.7), true},
		{"zero v0", models.NewHestonModel(0, 1.5, 0.04, 0.3, -0.7), true},
		{"negative v0", models.NewHestonModel(-0.01, 1.5, 0.04, 0.3, -0.7), false},
		{"zero theta", models.NewHestonModel(0.04, 1.5, 0, 0.3, -0.7), false},
		{"zero kappa", models.NewHestonModel(0.04, 0, 0.04, 0.3, -0.7), false},
		{"zero xi", models.NewHestonModel(0.04, 1.5, 0.04, 0, -0.7), false},
		{"rho above one", models.NewHestonModel(0.04, 1.5, 0.04, 0.3, 1.01), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, models.ErrInvalidModel)
			}
		})
	}
}

func TestHestonFeller(t *testing.T) {
	assert.True(t, models.NewHestonModel(0.04, 2, 0.04, 0.3, 0).FellerSatisfied())
	assert.False(t, models.NewHestonModel(0.04, 0.5, 0.04, 1.0, 0).FellerSatisfied())
}

func TestHestonReducesToBlackScholes(t *testing.T) {
	// almost deterministic variance pinned at its mean
	model := models.NewHestonModel(0.04, 1.0, 0.04, 1e-3, 0)

	for _, k := range []float64{80, 100, 125} {
		for _, optionType := range []models.OptionType{models.Call, models.Put} {
			want := models.BlackScholes(optionType, 100, k, 1, 0.05, 0.02, 0.2).Price
			got := model.CalculateOptionPrice(optionType, 100, k, 0.05, 0.02, 1)
			assert.InDelta(t, want, got, 1e-4, "%s K=%v", optionType, k)
		}
	}
}

func TestHestonPutCallParity(t *testing.T) {
	model := models.NewHestonModel(0.04, 1.5, 0.04, 0.3, -0.9)
	const s0, k, r, q, T = 100.0, 110.0, 0.03, 0.01, 1.0

	call := model.CalculateOptionPrice(models.Call, s0, k, r, q, T)
	put := model.CalculateOptionPrice(models.Put, s0, k, r, q, T)
	assert.InDelta(t, s0*math.Exp(-q*T)-k*math.Exp(-r*T), call-put, 1e-10)
	assert.Greater(t, put, k*math.Exp(-r*T)-s0*math.Exp(-q*T))
}

func TestHestonNegativeCorrelationSkew(t *testing.T) {
	model := models.NewHestonModel(0.04, 1.5, 0.04, 0.5, -0.8)
	const s0, r, T = 100.0, 0.0, 1.0

	lowPrice := model.CalculateOptionPrice(models.Put, s0, 80, r, 0, T)
	highPrice := model.CalculateOptionPrice(models.Call, s0, 120, r, 0, T)
	low, err := models.ImpliedVolatility(lowPrice, models.Put, s0, 80, T, r, 0)
	require.NoError(t, err)
	high, err := models.ImpliedVolatility(highPrice, models.Call, s0, 120, T, r, 0)
	require.NoError(t, err)

	assert.Greater(t, low, high)
}

func TestHestonMonteCarloMatchesSemiAnalytic(t *testing.T) {
	if testing.Short() {
		t.Skip("monte carlo")
	}
	model := models.NewHestonModel(0.04, 2.0, 0.04, 0.3, -0.5)
	const s0, k, r, q, T = 100.0, 100.0, 0.03, 0.0, 1.0

	want := model.CalculateOptionPrice(models.Call, s0, k, r, q, T)
	got := model.MonteCarloPrice(models.NewPlainVanillaPayoff(models.Call, k), s0, r, q, T, 100, 40000, 42)

	// about five standard errors
	assert.InDelta(t, want, got, 0.35)

	again := model.MonteCarloPrice(models.NewPlainVanillaPayoff(models.Call, k), s0, r, q, T, 100, 40000, 42)
	assert.Equal(t, got, again)
}

func TestHestonCalibrateImprovesFit(t *testing.T) {
	truth := models.NewHestonModel(0.05, 1.8, 0.06, 0.45, -0.6)
	const s0, r, q = 100.0, 0.02, 0.0

	var quotes []models.CalibrationQuote
	for _, T := range []float64{0.5, 1.0} {
		for _, k := range []float64{90, 100, 110} {
			quotes = append(quotes, models.CalibrationQuote{
				Type:     models.Call,
				Strike:   k,
				Maturity: T,
				Price:    truth.CalculateOptionPrice(models.Call, s0, k, r, q, T),
			})
		}
	}

	model := models.NewHestonModel(0.03, 1.0, 0.04, 0.3, -0.3)
	before := model.CalibrationError(quotes, s0, r, q)

	require.NoError(t, model.Calibrate(quotes, s0, r, q, 300))
	after := model.CalibrationError(quotes, s0, r, q)

	assert.Less(t, after, before)
	assert.NoError(t, model.Validate())
}

func TestHestonCalibrateWithoutQuotes(t *testing.T) {
	model := models.NewHestonModel(0.04, 1.5, 0.04, 0.3, -0.7)
	assert.ErrorIs(t, model.Calibrate(nil, 100, 0.05, 0, 100), models.ErrNoQuotes)
}
