// Package stepconditions holds the constraints a backward solver applies to
// the solution after each time step: early exercise floors and jumps across
// cash dividends.
package stepconditions

import (
	"fmt"
	"math"
	"sort"

	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/utilities"
)

// StepCondition modifies the solution a in place at time t.
type StepCondition interface {
	ApplyTo(a []float64, t float64)
}

// timeTolerance decides whether a step landed on an event time.
const timeTolerance = 1e-10

func atTime(t, event float64) bool {
	return math.Abs(t-event) <= timeTolerance*math.Max(1, math.Abs(event))
}

// Composite applies its conditions in order and carries the times the
// solver has to stop at exactly.
type Composite struct {
	stoppingTimes []float64
	conditions    []StepCondition
}

// NewComposite merges the stopping times into a sorted set.
func NewComposite(stoppingTimes [][]float64, conditions []StepCondition) *Composite {
	var all []float64
	for _, times := range stoppingTimes {
		all = append(all, times...)
	}
	sort.Float64s(all)

	var unique []float64
	for _, t := range all {
		if len(unique) == 0 || !atTime(t, unique[len(unique)-1]) {
			unique = append(unique, t)
		}
	}
	return &Composite{stoppingTimes: unique, conditions: conditions}
}

func (c *Composite) StoppingTimes() []float64 { return c.stoppingTimes }

func (c *Composite) Conditions() []StepCondition { return c.conditions }

func (c *Composite) ApplyTo(a []float64, t float64) {
	for _, cond := range c.conditions {
		cond.ApplyTo(a, t)
	}
}

// VanillaSpec describes the events of a single-asset option.
type VanillaSpec struct {
	Axis int // log-spot axis

	American      bool
	ExerciseTimes []float64 // Bermudan exercise times, unused when American

	DividendTimes   []float64
	DividendAmounts []float64
}

// VanillaComposite builds the dividend jumps and the exercise floor of a
// vanilla option. The dividend condition runs first.
func VanillaComposite(mesh *meshers.Composite, calculator utilities.InnerValueCalculator, spec VanillaSpec) (*Composite, error) {
	var (
		stopping   [][]float64
		conditions []StepCondition
	)

	if len(spec.DividendTimes) > 0 || len(spec.DividendAmounts) > 0 {
		div, err := NewDividend(mesh, spec.Axis, spec.DividendTimes, spec.DividendAmounts)
		if err != nil {
			return nil, err
		}
		stopping = append(stopping, div.Times())
		conditions = append(conditions, div)
	}

	switch {
	case spec.American:
		conditions = append(conditions, NewAmerican(mesh, calculator))
	case len(spec.ExerciseTimes) > 0:
		stopping = append(stopping, spec.ExerciseTimes)
		conditions = append(conditions, NewBermudan(mesh, calculator, spec.ExerciseTimes))
	}

	return NewComposite(stopping, conditions), nil
}

func checkDividends(times, amounts []float64) error {
	if len(times) != len(amounts) {
		return fmt.Errorf("%d times, %d amounts: %w", len(times), len(amounts), ErrInvalidDividends)
	}
	for i, d := range amounts {
		if d < 0 || times[i] < 0 {
			return fmt.Errorf("dividend %v at %v: %w", d, times[i], ErrInvalidDividends)
		}
	}
	return nil
}
