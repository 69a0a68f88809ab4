package stepconditions

// Snapshot records the solution as it passes a fixed time. Solvers use it
// to read theta off two neighbouring time levels.
type Snapshot struct {
	t      float64
	values []float64
}

func NewSnapshot(t float64) *Snapshot { return &Snapshot{t: t} }

func (c *Snapshot) Time() float64 { return c.t }

// Values is nil until the rollback has passed Time.
func (c *Snapshot) Values() []float64 { return c.values }

func (c *Snapshot) ApplyTo(a []float64, t float64) {
	if atTime(t, c.t) {
		c.values = append(c.values[:0], a...)
	}
}
