package metrics

import (
	"math"

	"github.com/san-kum/heatmarch/internal/march"
)

// MeanTemperature is the time average of the spatial mean temperature.
type MeanTemperature struct {
	name    string
	sum     float64
	samples int
}

func NewMeanTemperature() *MeanTemperature {
	return &MeanTemperature{name: "mean_temperature"}
}

func (m *MeanTemperature) Name() string { return m.name }

func (m *MeanTemperature) Observe(sol march.Solution, t float64) {
	vals := sol.Values()
	if len(vals) == 0 {
		return
	}
	s := 0.0
	for _, v := range vals {
		s += v
	}
	m.sum += s / float64(len(vals))
	m.samples++
}

func (m *MeanTemperature) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanTemperature) Reset() {
	m.sum = 0
	m.samples = 0
}

// Extreme tracks the highest (or lowest) nodal temperature of a run.
type Extreme struct {
	name  string
	lower bool
	value float64
	seen  bool
}

func NewPeakTemperature() *Extreme { return &Extreme{name: "peak_temperature"} }

func NewMinTemperature() *Extreme { return &Extreme{name: "min_temperature", lower: true} }

func (e *Extreme) Name() string { return e.name }

func (e *Extreme) Observe(sol march.Solution, t float64) {
	for _, v := range sol.Values() {
		switch {
		case !e.seen:
			e.value, e.seen = v, true
		case e.lower:
			e.value = math.Min(e.value, v)
		default:
			e.value = math.Max(e.value, v)
		}
	}
}

func (e *Extreme) Value() float64 { return e.value }

func (e *Extreme) Reset() {
	e.value = 0
	e.seen = false
}
