package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/config"
	"github.com/san-kum/heatmarch/internal/heat"
	"github.com/san-kum/heatmarch/internal/logging"
	"github.com/san-kum/heatmarch/internal/march"
)

// Experiment wires a config into a ready-to-run driver and records the run
// in a catalog.
type Experiment struct {
	cfg       *config.Config
	name      string
	catalog   *checkpoint.Catalog
	registry  *Registry
	logger    *slog.Logger
	observers []march.Observer
	metrics   []string

	id      string
	runDir  *checkpoint.FileStore
	mesh    *heat.Mesh
	backend *heat.Backend
	store   checkpoint.Store
	driver  *march.Driver
	created time.Time
}

type Option func(*Experiment)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Experiment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithName sets the run id prefix, usually the preset name.
func WithName(name string) Option {
	return func(e *Experiment) { e.name = name }
}

func WithObserver(o march.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

// WithMetrics replaces the default summary metrics.
func WithMetrics(names ...string) Option {
	return func(e *Experiment) { e.metrics = names }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func New(cfg *config.Config, catalog *checkpoint.Catalog, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		name:     "run",
		catalog:  catalog,
		registry: NewRegistry(),
		logger:   logging.NewNop(),
		metrics:  []string{"mean_temperature", "peak_temperature", "min_temperature", "bounded"},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup builds the mesh, the backend, the checkpoint store and the driver,
// and creates the run directory.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	dcfg, err := e.cfg.DriverConfig()
	if err != nil {
		return err
	}

	mesh, err := e.cfg.BuildMesh()
	if err != nil {
		return err
	}
	backend, err := heat.NewBackend(mesh, e.cfg.BCTypes(), heat.Options{
		Material: e.cfg.Material,
		Exterior: e.cfg.ExteriorModel(),
		Tau:      e.cfg.Tau,
		Theta:    e.cfg.Theta,
		Logger:   e.logger,
	})
	if err != nil {
		return err
	}

	opts := []march.Option{march.WithLogger(e.logger)}
	for _, o := range e.observers {
		opts = append(opts, march.WithObserver(o))
	}
	for _, name := range e.metrics {
		m, err := e.registry.GetMetric(name, e.cfg)
		if err != nil {
			return err
		}
		opts = append(opts, march.WithMetric(m))
	}

	id, dir, err := e.catalog.NewRun(e.name)
	if err != nil {
		return err
	}
	store, err := e.registry.OpenStore(e.cfg, id, dir)
	if err != nil {
		return err
	}

	writer := checkpoint.NewWriter(store,
		checkpoint.WithEncoding(e.cfg.Checkpoint.Encoding),
		checkpoint.WithCompression(e.cfg.Checkpoint.Compress),
		checkpoint.WithLogger(e.logger),
	)

	e.id, e.runDir, e.mesh, e.backend, e.store = id, dir, mesh, backend, store
	e.driver = march.New(backend, writer, dcfg, opts...)
	e.created = time.Now().UTC()

	e.logger.Info("run prepared", "id", id, "store", e.cfg.Checkpoint.Store,
		"nodes", mesh.Nodes(), "ndof", backend.NDOF(), "steps", march.StepCount(dcfg.FinalTime, dcfg.Tau))
	return nil
}

// Run executes the driver and writes the manifest. The manifest is written
// even when the run stops early.
func (e *Experiment) Run(ctx context.Context) (*march.Result, *checkpoint.Manifest, error) {
	if e.driver == nil {
		return nil, nil, fmt.Errorf("experiment not setup")
	}

	result, runErr := e.driver.Run(ctx)
	if result == nil {
		return nil, nil, runErr
	}

	m := e.manifest(result, runErr)
	if err := e.saveManifest(context.WithoutCancel(ctx), m); err != nil {
		return result, m, errors.Join(runErr, err)
	}
	return result, m, runErr
}

func (e *Experiment) manifest(result *march.Result, runErr error) *checkpoint.Manifest {
	status := checkpoint.StatusFinished
	switch {
	case errors.Is(runErr, march.ErrCanceled):
		status = checkpoint.StatusCanceled
	case runErr != nil:
		status = checkpoint.StatusAborted
	}

	m := &checkpoint.Manifest{
		ID:              e.id,
		CreatedAt:       e.created,
		Preset:          e.name,
		Status:          status,
		Store:           e.cfg.Checkpoint.Store,
		FinalTime:       e.cfg.FinalTime,
		Tau:             e.cfg.Tau,
		OutputFrequency: e.cfg.OutputFrequency,
		Steps:           march.StepCount(e.cfg.FinalTime, e.cfg.Tau),
		StepsDone:       result.Steps,
		Nodes:           e.mesh.Nodes(),
		NDOF:            e.backend.NDOF(),
		Encoding:        e.cfg.Checkpoint.Encoding,
		Compressed:      e.cfg.Checkpoint.Compress,
		Checkpoints:     result.Records,
		Metrics:         result.Metrics,
	}
	for _, err := range result.Errors {
		m.Errors = append(m.Errors, err.Error())
	}
	if raw, err := json.Marshal(e.cfg); err == nil {
		m.Config = raw
	}
	return m
}

func (e *Experiment) saveManifest(ctx context.Context, m *checkpoint.Manifest) error {
	if err := checkpoint.SaveManifest(ctx, e.store, m); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	// non-file stores keep a copy in the run directory so the catalog lists them
	if e.store != checkpoint.Store(e.runDir) {
		if err := checkpoint.SaveManifest(ctx, e.runDir, m); err != nil {
			return fmt.Errorf("save manifest: %w", err)
		}
	}
	return nil
}

// Close releases the checkpoint store.
func (e *Experiment) Close() error {
	if c, ok := e.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (e *Experiment) ID() string { return e.id }

func (e *Experiment) Store() checkpoint.Store { return e.store }

func (e *Experiment) Backend() *heat.Backend { return e.backend }
