// Package positions prices strips of options concurrently and reports them
// rounded for display.
package positions

import (
	"math"

	"github.com/bcdannyboy/fdquant/engines"
	"github.com/shopspring/decimal"
)

// Job is one option with the engine that prices it. Engines are safe to
// share between jobs.
type Job struct {
	Name   string
	Option engines.VanillaOption
	Engine engines.VanillaEngine
}

// Result is the outcome of one job. A failed job keeps its error and
// leaves Results zero.
type Result struct {
	Name    string
	Results engines.Results
	Err     error
}

// Quote is a Result rounded for reporting.
type Quote struct {
	Name  string          `json:"name"`
	NPV   decimal.Decimal `json:"npv"`
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Theta decimal.Decimal `json:"theta"`
	Error string          `json:"error,omitempty"`
}

// Quote rounds the values half away from zero to places decimals.
func (r Result) Quote(places int32) Quote {
	q := Quote{
		Name:  r.Name,
		NPV:   round(r.Results.NPV, places),
		Delta: round(r.Results.Delta, places),
		Gamma: round(r.Results.Gamma, places),
		Theta: round(r.Results.Theta, places),
	}
	if r.Err != nil {
		q.Error = r.Err.Error()
	}
	return q
}

func round(f float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(sanitizeFloat(f)).Round(places)
}

func sanitizeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Spread is a long position in one result against a short position in
// another, e.g. a vertical spread.
func Spread(long, short Result) engines.Results {
	return engines.Results{
		NPV:   sanitizeFloat(long.Results.NPV - short.Results.NPV),
		Delta: sanitizeFloat(long.Results.Delta - short.Results.Delta),
		Gamma: sanitizeFloat(long.Results.Gamma - short.Results.Gamma),
		Theta: sanitizeFloat(long.Results.Theta - short.Results.Theta),
	}
}
