package metrics

import (
	"github.com/san-kum/heatmarch/internal/march"
)

// Bounded is the fraction of steps whose field stays inside [lo, hi].
type Bounded struct {
	name       string
	lo, hi     float64
	violations int
	samples    int
}

func NewBounded(lo, hi float64) *Bounded {
	return &Bounded{name: "bounded", lo: lo, hi: hi}
}

func (b *Bounded) Name() string { return b.name }

func (b *Bounded) Observe(sol march.Solution, t float64) {
	b.samples++
	for _, v := range sol.Values() {
		if v < b.lo || v > b.hi {
			b.violations++
			break
		}
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}
