package march

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/heatmarch/internal/logging"
)

type Driver struct {
	backend      Backend
	checkpointer Checkpointer
	cfg          Config
	logger       *slog.Logger
	metrics      []Metric
	observers    []Observer
}

type Option func(*Driver)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o) }
}

func WithMetric(m Metric) Option {
	return func(d *Driver) { d.metrics = append(d.metrics, m) }
}

// New creates a driver. A nil checkpointer disables checkpointing.
func New(backend Backend, checkpointer Checkpointer, cfg Config, opts ...Option) *Driver {
	d := &Driver{
		backend:      backend,
		checkpointer: checkpointer,
		cfg:          cfg,
		logger:       logging.NewNop(),
		metrics:      make([]Metric, 0),
		observers:    make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}


// Start validates the config and fetches the initial condition.
func (d *Driver) Start() (State, error) {
	if err := d.cfg.Validate(); err != nil {
		return State{Phase: NotStarted}, err
	}
	if d.backend == nil {
		return State{Phase: NotStarted}, fmt.Errorf("%w: no backend", ErrInvalidConfig)
	}

	sol, err := d.backend.Initial()
	if err != nil {
		return State{Phase: NotStarted}, &SolverFailure{Step: 0, Time: 0, Stage: StageMap, Err: err}
	}

	return State{
		Phase:    Stepping,
		Steps:    StepCount(d.cfg.FinalTime, d.cfg.Tau),
		Clock:    0,
		Solution: sol,
	}, nil
}

// Step performs one iteration: assemble, solve, map, checkpoint if the step is
// on the cadence, advance the clock. The clock only advances when the step
// succeeds.
func (d *Driver) Step(ctx context.Context, st State) (State, StepEvent, error) {
	switch st.Phase {
	case NotStarted:
		return st, StepEvent{}, ErrNotStarted
	case Finished, Aborted:
		return st, StepEvent{}, ErrFinished
	}

	k := st.Step + 1
	t := st.Clock
	mode := RHSOnly
	if k == 1 {
		mode = Full
	}
	ev := StepEvent{Step: k, Time: t, Mode: mode}

	d.logger.Info("time step", "step", k, "steps", st.Steps, "time", t, "mode", mode.String())

	sys, err := d.backend.Assemble(ctx, AssemblyRequest{Step: k, Time: t, Mode: mode, Previous: st.Solution})
	if err != nil {
		return d.abort(st), ev, &SolverFailure{Step: k, Time: t, Stage: StageAssemble, Err: err}
	}

	start := time.Now()
	vec, err := d.backend.Solve(ctx, sys)
	ev.SolveDuration = time.Since(start)
	if err != nil {
		return d.abort(st), ev, &SolverFailure{Step: k, Time: t, Stage: StageSolve, Err: err}
	}

	sol, err := d.backend.Solution(vec, k, t+d.cfg.Tau)
	if err != nil {
		return d.abort(st), ev, &SolverFailure{Step: k, Time: t, Stage: StageMap, Err: err}
	}
	ev.Solution = sol

	next := st
	next.Step = k
	next.Solution = sol

	if d.checkpointer != nil && ShouldCheckpoint(k, d.cfg.OutputFrequency) {
		rec, err := d.checkpointer.Checkpoint(ctx, k, t+d.cfg.Tau, sol)
		if err != nil {
			cerr := checkpointError(k, err)
			ev.CheckpointErr = cerr
			if d.cfg.OnCheckpointError == Abort {
				next.Phase = Aborted
				ev.Clock = next.Clock
				d.notify(ev)
				return next, ev, cerr
			}
			d.logger.Warn("checkpoint failed, continuing", "step", k, "error", cerr)
		} else {
			ev.Checkpoint = &rec
			d.logger.Info("checkpoint saved", "step", k, "linear", rec.Linear, "complete", rec.Complete)
		}
	}

	next.Clock = t + d.cfg.Tau
	if next.Step >= next.Steps {
		next.Phase = Finished
	}
	ev.Clock = next.Clock

	d.notify(ev)
	return next, ev, nil
}

// Run executes every step of the run. On failure the partial result is
// returned together with the error.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	for _, m := range d.metrics {
		m.Reset()
	}

	st, err := d.Start()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Records: make([]Record, 0, st.Steps/d.cfg.OutputFrequency),
		Modes:   make([]AssemblyMode, 0, st.Steps),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	d.logger.Info("starting run", "steps", st.Steps, "tau", d.cfg.Tau, "final_time", d.cfg.FinalTime, "output_frequency", d.cfg.OutputFrequency)

	for !st.Done() {
		select {
		case <-ctx.Done():
			d.finish(result, st)
			return result, fmt.Errorf("%w before step %d: %w", ErrCanceled, st.Step+1, ctx.Err())
		default:
		}

		var ev StepEvent
		st, ev, err = d.Step(ctx, st)
		if ev.Step > 0 {
			result.Modes = append(result.Modes, ev.Mode)
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			d.finish(result, st)
			d.logger.Error("run aborted", "step", ev.Step, "error", err)
			return result, err
		}
		if ev.Checkpoint != nil {
			result.Records = append(result.Records, *ev.Checkpoint)
		}
		if ev.CheckpointErr != nil {
			result.Errors = append(result.Errors, ev.CheckpointErr)
		}
	}

	d.finish(result, st)
	d.logger.Info("run finished", "steps", result.Steps, "time", result.FinalTime, "checkpoints", len(result.Records))
	return result, nil
}

func (d *Driver) abort(st State) State {
	st.Phase = Aborted
	return st
}

func (d *Driver) notify(ev StepEvent) {
	if ev.Solution != nil {
		for _, m := range d.metrics {
			m.Observe(ev.Solution, ev.Time+d.cfg.Tau)
		}
	}
	for _, o := range d.observers {
		o.OnStep(ev)
	}
}

func (d *Driver) finish(result *Result, st State) {
	result.Steps = st.Step
	result.FinalTime = st.Clock
	result.Solution = st.Solution
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func checkpointError(step int, err error) error {
	var cerr *CheckpointWriteError
	if errors.As(err, &cerr) {
		return cerr
	}
	return &CheckpointWriteError{Step: step, Err: err}
}
