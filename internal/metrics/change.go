package metrics

import (
	"math"

	"github.com/san-kum/heatmarch/internal/march"
)

// MaxChange is the largest nodal change between two consecutive steps.
type MaxChange struct {
	name string
	prev []float64
	max  float64
}

func NewMaxChange() *MaxChange {
	return &MaxChange{name: "max_step_change"}
}

func (c *MaxChange) Name() string { return c.name }

func (c *MaxChange) Observe(sol march.Solution, t float64) {
	vals := sol.Values()
	if len(c.prev) == len(vals) {
		for i, v := range vals {
			c.max = math.Max(c.max, math.Abs(v-c.prev[i]))
		}
	}
	c.prev = append(c.prev[:0], vals...)
}

func (c *MaxChange) Value() float64 { return c.max }

func (c *MaxChange) Reset() {
	c.prev = c.prev[:0]
	c.max = 0
}
