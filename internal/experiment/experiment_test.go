package experiment

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/config"
	"github.com/san-kum/heatmarch/internal/heat"
	"github.com/san-kum/heatmarch/internal/march"
)

func setup(t *testing.T, cfg *config.Config, opts ...Option) (*Experiment, *checkpoint.Catalog) {
	t.Helper()
	catalog := checkpoint.NewCatalog(t.TempDir())
	e := New(cfg, catalog, opts...)
	require.NoError(t, e.Setup())
	t.Cleanup(func() { _ = e.Close() })
	return e, catalog
}

func TestTutorialRun(t *testing.T) {
	ctx := context.Background()
	e, catalog := setup(t, config.GetPreset("tutorial"), WithName("tutorial"))

	result, m, err := e.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 60, result.Steps)
	assert.InDelta(t, 18000, result.FinalTime, 1e-6)
	assert.Equal(t, checkpoint.StatusFinished, m.Status)
	require.Len(t, m.Checkpoints, 3)
	for i, step := range []int{20, 40, 60} {
		assert.Equal(t, step, m.Checkpoints[i].Step)
		assert.InDelta(t, float64(step)*300, m.Checkpoints[i].Time, 1e-6)
	}

	names, err := e.Store().List(ctx)
	require.NoError(t, err)
	want := append(checkpoint.Names(checkpoint.Schedule(60, 20)), checkpoint.ManifestName)
	assert.ElementsMatch(t, want, names)

	data, err := e.Store().Get(ctx, checkpoint.SolutionName(60))
	require.NoError(t, err)
	f, err := heat.ReadSolution(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 60, f.Step)
	assert.Equal(t, 8, f.Mesh.NX, "one uniform refinement")
	assert.Equal(t, 1.0, m.Metrics["bounded"])

	runs, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, strings.HasPrefix(runs[0].ID, "tutorial_"))
}

func TestRedisStoreRun(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.GetPreset("quick")
	cfg.Checkpoint.Store = config.StoreRedis
	cfg.Checkpoint.Redis.Addr = mr.Addr()
	cfg.Checkpoint.Compress = true

	e, catalog := setup(t, cfg, WithName("quick"))
	_, m, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.Checkpoints, 5)
	assert.Equal(t, config.StoreRedis, m.Store)

	assert.True(t, mr.Exists(checkpoint.DefaultRedisPrefix+e.ID()+":tsln_10.dat"))
	assert.True(t, mr.Exists(checkpoint.DefaultRedisPrefix+e.ID()+":"+checkpoint.ManifestName))

	_, local, err := catalog.Open(context.Background(), e.ID())
	require.NoError(t, err)
	assert.Equal(t, m.Checkpoints, local.Checkpoints)
}

type cancelAfter struct {
	step   int
	cancel context.CancelFunc
}

func (c cancelAfter) OnStep(ev march.StepEvent) {
	if ev.Step == c.step {
		c.cancel()
	}
}

func TestCanceledRunKeepsManifest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, catalog := setup(t, config.GetPreset("quick"), WithObserver(cancelAfter{step: 3, cancel: cancel}))
	result, m, err := e.Run(ctx)
	require.ErrorIs(t, err, march.ErrCanceled)

	assert.Equal(t, 3, result.Steps)
	assert.Equal(t, checkpoint.StatusCanceled, m.Status)
	assert.Len(t, m.Checkpoints, 1)

	_, saved, err := catalog.Open(context.Background(), e.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, saved.StepsDone)
}

func TestSetupErrors(t *testing.T) {
	catalog := checkpoint.NewCatalog(t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Mesh = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, New(cfg, catalog).Setup())

	cfg = config.DefaultConfig()
	cfg.Tau = 0
	assert.ErrorIs(t, New(cfg, catalog).Setup(), march.ErrInvalidConfig)

	cfg = config.DefaultConfig()
	cfg.Boundaries.Natural = nil
	assert.ErrorIs(t, New(cfg, catalog).Setup(), heat.ErrUnknownMarker)

	assert.Error(t, New(config.DefaultConfig(), catalog, WithMetrics("entropy")).Setup())

	_, _, err := New(config.DefaultConfig(), catalog).Run(context.Background())
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"file", "redis"}, r.ListStores())
	assert.Contains(t, r.ListMetrics(), "bounded")

	cfg := config.DefaultConfig()
	cfg.Checkpoint.Store = "s3"
	_, err := r.OpenStore(cfg, "x", checkpoint.NewFileStore(t.TempDir()))
	assert.Error(t, err)
}
