// Package automation runs batches of simulations: scripted scenarios read
// from YAML and parameter sweeps over one config value.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/config"
	"github.com/san-kum/heatmarch/internal/experiment"
	"github.com/san-kum/heatmarch/internal/logging"
	"github.com/san-kum/heatmarch/internal/march"
)

var ErrUnknownParam = errors.New("unknown parameter")

// Params lists the config values a scenario or sweep may set.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var setters = map[string]func(c *config.Config, v float64){
	"final_time":       func(c *config.Config, v float64) { c.FinalTime = v },
	"tau":              func(c *config.Config, v float64) { c.Tau = v },
	"output_frequency": func(c *config.Config, v float64) { c.OutputFrequency = int(math.Round(v)) },
	"refinements":      func(c *config.Config, v float64) { c.Refinements = int(math.Round(v)) },
	"theta":            func(c *config.Config, v float64) { c.Theta = v },
	"amplitude":        func(c *config.Config, v float64) { c.Exterior.Amplitude = v },
	"period":           func(c *config.Config, v float64) { c.Exterior.Period = v },
	"t_init":           func(c *config.Config, v float64) { c.Material.TInit = v },
	"alpha":            func(c *config.Config, v float64) { c.Material.Alpha = v },
	"lambda":           func(c *config.Config, v float64) { c.Material.Lambda = v },
}

// SetParam sets one named config value.
func SetParam(c *config.Config, name string, v float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w: %s (available: %v)", ErrUnknownParam, name, Params())
	}
	set(c, v)
	return nil
}

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Runs        []ScenarioStep `yaml:"runs"`
}

// ScenarioStep is one run of a scenario. Params are applied on top of the
// preset and the config file, in that order.
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s has no runs", path)
	}
	return &scenario, nil
}

// Build resolves the config of one step.
func (s ScenarioStep) Build() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Config != "" {
		var err error
		if cfg, err = config.LoadOver(s.Config, cfg); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := SetParam(cfg, name, s.Params[name]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Outcome summarizes one finished, aborted or canceled run.
type Outcome struct {
	Name        string
	ID          string
	Status      string
	Steps       int
	Checkpoints int
	Metrics     map[string]float64
	Err         error
}

type Runner struct {
	catalog *checkpoint.Catalog
	logger  *slog.Logger
	metrics []string
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics replaces the summary metrics of every run.
func WithMetrics(names ...string) Option {
	return func(r *Runner) { r.metrics = names }
}

func NewRunner(catalog *checkpoint.Catalog, opts ...Option) *Runner {
	r := &Runner{catalog: catalog, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run executes one config. Setup errors are returned, run errors are kept
// in the outcome.
func (r *Runner) run(ctx context.Context, name string, cfg *config.Config) (Outcome, error) {
	opts := []experiment.Option{experiment.WithName(name), experiment.WithLogger(r.logger)}
	if r.metrics != nil {
		opts = append(opts, experiment.WithMetrics(r.metrics...))
	}

	exp := experiment.New(cfg, r.catalog, opts...)
	if err := exp.Setup(); err != nil {
		return Outcome{Name: name}, fmt.Errorf("%s setup: %w", name, err)
	}
	defer exp.Close()

	result, m, err := exp.Run(ctx)
	out := Outcome{Name: name, ID: exp.ID(), Err: err}
	if result != nil {
		out.Steps = result.Steps
		out.Checkpoints = len(result.Records)
		out.Metrics = result.Metrics
	}
	if m != nil {
		out.Status = m.Status
	}
	return out, nil
}

// RunScenario executes the steps of a scenario one after another. It stops
// at the first setup error or when ctx is canceled.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Runs))

	for i, step := range scenario.Runs {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", scenarioName(scenario), i+1)
		}
		r.logger.Info("scenario step", "step", i+1, "of", len(scenario.Runs), "name", name)

		cfg, err := step.Build()
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		out, err := r.run(ctx, name, cfg)
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		outcomes = append(outcomes, out)

		if errors.Is(out.Err, march.ErrCanceled) {
			return outcomes, out.Err
		}
	}
	return outcomes, nil
}

func scenarioName(s *Scenario) string {
	if s.Name != "" {
		return s.Name
	}
	return "scenario"
}

// Sweep varies one parameter linearly between Min and Max.
type Sweep struct {
	Base    *config.Config
	Name    string
	Param   string
	Min     float64
	Max     float64
	Points  int
	Workers int
}

// Values returns the parameter value of every sweep point.
func (s *Sweep) Values() []float64 {
	if s.Points <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Points-1)
	out := make([]float64, s.Points)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

type SweepResult struct {
	Value float64
	Outcome
}

// RunSweep runs every sweep point with at most Workers runs at a time.
// Each run owns its backend and store. Results keep the point order.
func (r *Runner) RunSweep(ctx context.Context, sweep *Sweep) ([]SweepResult, error) {
	if _, ok := setters[sweep.Param]; !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownParam, sweep.Param, Params())
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	name := sweep.Name
	if name == "" {
		name = "sweep"
	}
	workers := sweep.Workers
	if workers <= 0 {
		workers = 1
	}

	values := sweep.Values()
	results := make([]SweepResult, len(values))
	errs := make([]error, len(values))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, v := range values {
		wg.Add(1)
		go func(idx int, v float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cfg := base.Clone()
			_ = SetParam(cfg, sweep.Param, v)
			out, err := r.run(ctx, fmt.Sprintf("%s-%s-%d", name, sweep.Param, idx+1), cfg)
			results[idx] = SweepResult{Value: v, Outcome: out}
			errs[idx] = err
			r.logger.Info("sweep point done", "param", sweep.Param, "value", v, "status", out.Status)
		}(i, v)
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// Best returns the finished sweep point with the lowest value of metric.
func Best(results []SweepResult, metric string) (SweepResult, bool) {
	best, found := SweepResult{}, false
	for _, res := range results {
		if res.Status != checkpoint.StatusFinished {
			continue
		}
		v, ok := res.Metrics[metric]
		if !ok {
			continue
		}
		if !found || v < best.Metrics[metric] {
			best, found = res, true
		}
	}
	return best, found
}
