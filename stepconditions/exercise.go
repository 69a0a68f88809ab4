package stepconditions

import (
	"github.com/bcdannyboy/fdquant/meshers"
	"github.com/bcdannyboy/fdquant/utilities"
)

// American floors the solution at the exercise value after every step.
type American struct {
	mesh       *meshers.Composite
	calculator utilities.InnerValueCalculator
}

func NewAmerican(mesh *meshers.Composite, calculator utilities.InnerValueCalculator) *American {
	return &American{mesh: mesh, calculator: calculator}
}

func (c *American) ApplyTo(a []float64, t float64) {
	l := c.mesh.Layout()
	for it := l.Begin(); !it.Done(); it.Next() {
		if v := c.calculator.InnerValue(it, t); v > a[it.Index()] {
			a[it.Index()] = v
		}
	}
}

// Bermudan floors the solution only on the exercise dates.
type Bermudan struct {
	american      *American
	exerciseTimes []float64
}

func NewBermudan(mesh *meshers.Composite, calculator utilities.InnerValueCalculator, exerciseTimes []float64) *Bermudan {
	return &Bermudan{
		american:      NewAmerican(mesh, calculator),
		exerciseTimes: append([]float64(nil), exerciseTimes...),
	}
}

func (c *Bermudan) ExerciseTimes() []float64 { return c.exerciseTimes }

func (c *Bermudan) ApplyTo(a []float64, t float64) {
	for _, e := range c.exerciseTimes {
		if atTime(t, e) {
			c.american.ApplyTo(a, t)
			return
		}
	}
}
