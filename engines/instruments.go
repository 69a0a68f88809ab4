// Package engines prices options with the finite-difference solvers. An
// engine takes a process and grid parameters, an instrument describes the
// contract; times are year fractions from the valuation date.
package engines

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/fdquant/models"
	"github.com/bcdannyboy/fdquant/schemes"
)

// ExerciseStyle says when an option can be exercised.
type ExerciseStyle int

const (
	European ExerciseStyle = iota
	American
	Bermudan
)

func (s ExerciseStyle) String() string {
	switch s {
	case European:
		return "european"
	case American:
		return "american"
	case Bermudan:
		return "bermudan"
	}
	return "unknown"
}

// Exercise holds the exercise times. The last one is the maturity; a
// Bermudan option can exercise on every one of them.
type Exercise struct {
	Style ExerciseStyle
	Dates []float64
}

func EuropeanExercise(maturity float64) Exercise {
	return Exercise{Style: European, Dates: []float64{maturity}}
}

func AmericanExercise(maturity float64) Exercise {
	return Exercise{Style: American, Dates: []float64{maturity}}
}

func BermudanExercise(dates ...float64) Exercise {
	return Exercise{Style: Bermudan, Dates: dates}
}

func (e Exercise) Maturity() float64 {
	if len(e.Dates) == 0 {
		return 0
	}
	return e.Dates[len(e.Dates)-1]
}

// Dividend is a discrete cash dividend.
type Dividend struct {
	Time   float64
	Amount float64
}

type VanillaOption struct {
	Payoff    models.StrikedPayoff
	Exercise  Exercise
	Dividends []Dividend
}

func (o VanillaOption) validate() error {
	if o.Payoff == nil {
		return fmt.Errorf("nil payoff: %w", ErrInvalidOption)
	}
	if k := o.Payoff.Strike(); !(k > 0) || math.IsInf(k, 0) {
		return fmt.Errorf("strike %v: %w", k, ErrInvalidOption)
	}
	if len(o.Exercise.Dates) == 0 {
		return fmt.Errorf("no exercise dates: %w", ErrInvalidOption)
	}
	prev := 0.0
	for _, d := range o.Exercise.Dates {
		if !(d > prev) || math.IsInf(d, 0) {
			return fmt.Errorf("exercise dates %v must be positive and increasing: %w", o.Exercise.Dates, ErrInvalidOption)
		}
		prev = d
	}
	if o.Exercise.Style != Bermudan && len(o.Exercise.Dates) != 1 {
		return fmt.Errorf("%s exercise takes only the maturity: %w", o.Exercise.Style, ErrInvalidOption)
	}
	for _, d := range o.Dividends {
		if d.Amount < 0 || d.Time < 0 {
			return fmt.Errorf("dividend %+v: %w", d, ErrInvalidOption)
		}
	}
	return nil
}

// dividendsBefore splits the dividends paid before maturity into times
// and amounts.
func (o VanillaOption) dividendsBefore(maturity float64) (times, amounts []float64) {
	for _, d := range o.Dividends {
		if d.Time < maturity && d.Amount > 0 {
			times = append(times, d.Time)
			amounts = append(amounts, d.Amount)
		}
	}
	return times, amounts
}

// BarrierType selects which side of the barrier knocks the option out.
type BarrierType int

const (
	DownOut BarrierType = iota
	UpOut
)

// BarrierOption is a European knock-out option. The rebate is paid when
// the barrier is hit.
type BarrierOption struct {
	VanillaOption
	BarrierType BarrierType
	Barrier     float64
	Rebate      float64
}

// GridParams sets the resolution of an engine.
type GridParams struct {
	TGrid        int // time steps
	XGrid        int // log-spot points
	VGrid        int // variance points, Heston only
	DampingSteps int
	Scheme       schemes.Desc
}

func DefaultGridParams() GridParams {
	return GridParams{TGrid: 100, XGrid: 100, VGrid: 50, Scheme: schemes.DouglasDesc()}
}

func DefaultHestonGridParams() GridParams {
	return GridParams{TGrid: 100, XGrid: 100, VGrid: 50, Scheme: schemes.HundsdorferDesc()}
}

func (g GridParams) validate(needVariance bool) error {
	switch {
	case g.TGrid < 1:
		return fmt.Errorf("time grid %d: %w", g.TGrid, ErrInvalidGrid)
	case g.XGrid < 3:
		return fmt.Errorf("spot grid %d: %w", g.XGrid, ErrInvalidGrid)
	case needVariance && g.VGrid < 3:
		return fmt.Errorf("variance grid %d: %w", g.VGrid, ErrInvalidGrid)
	case g.DampingSteps < 0:
		return fmt.Errorf("damping steps %d: %w", g.DampingSteps, ErrInvalidGrid)
	}
	return nil
}

// Results are the value and spot greeks at the valuation date.
type Results struct {
	NPV   float64
	Delta float64
	Gamma float64
	Theta float64
}

// VanillaEngine prices vanilla options.
type VanillaEngine interface {
	Calculate(opt VanillaOption) (Results, error)
}
