package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/heatmarch/internal/march"
)

// Collector exports driver progress as Prometheus metrics. It implements
// march.Observer.
type Collector struct {
	steps            prometheus.Counter
	assemblies       *prometheus.CounterVec
	solveSeconds     prometheus.Histogram
	checkpoints      prometheus.Counter
	checkpointErrors prometheus.Counter
	simTime          prometheus.Gauge
}

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heatmarch_steps_total",
			Help: "Total number of completed time steps",
		}),
		assemblies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heatmarch_assemblies_total",
			Help: "Assemblies by mode",
		}, []string{"mode"}),
		solveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heatmarch_solve_seconds",
			Help:    "Duration of linear solves",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		checkpoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heatmarch_checkpoints_total",
			Help: "Checkpoints written",
		}),
		checkpointErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heatmarch_checkpoint_errors_total",
			Help: "Checkpoint writes that failed",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heatmarch_sim_time_seconds",
			Help: "Simulation clock after the last completed step",
		}),
	}

	for _, col := range []prometheus.Collector{c.steps, c.assemblies, c.solveSeconds, c.checkpoints, c.checkpointErrors, c.simTime} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OnStep(ev march.StepEvent) {
	c.assemblies.WithLabelValues(ev.Mode.String()).Inc()
	if ev.Solution == nil {
		return
	}
	c.steps.Inc()
	c.solveSeconds.Observe(ev.SolveDuration.Seconds())
	if ev.Checkpoint != nil {
		c.checkpoints.Inc()
	}
	if ev.CheckpointErr != nil {
		c.checkpointErrors.Inc()
	}
	c.simTime.Set(ev.Clock)
}
