package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/config"
)

const scenarioYAML = `
name: cooling
description: two short runs
runs:
  - name: backward
    preset: quick
  - preset: quick
    params:
      theta: 0.5
      final_time: 1500
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSetParam(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, SetParam(cfg, "theta", 0.5))
	require.NoError(t, SetParam(cfg, "output_frequency", 9.6))
	require.NoError(t, SetParam(cfg, "amplitude", 4))
	assert.Equal(t, 0.5, cfg.Theta)
	assert.Equal(t, 10, cfg.OutputFrequency)
	assert.Equal(t, 4.0, cfg.Exterior.Amplitude)

	assert.ErrorIs(t, SetParam(cfg, "viscosity", 1), ErrUnknownParam)
	assert.Contains(t, Params(), "tau")
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeFile(t, "scenario.yaml", scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "cooling", sc.Name)
	require.Len(t, sc.Runs, 2)

	cfg, err := sc.Runs[1].Build()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Theta)
	assert.Equal(t, 1500.0, cfg.FinalTime)
	assert.Equal(t, 2, cfg.OutputFrequency)

	_, err = LoadScenario(writeFile(t, "empty.yaml", "name: empty\n"))
	assert.Error(t, err)

	_, err = ScenarioStep{Preset: "nope"}.Build()
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeFile(t, "scenario.yaml", scenarioYAML))
	require.NoError(t, err)

	catalog := checkpoint.NewCatalog(t.TempDir())
	outcomes, err := NewRunner(catalog).RunScenario(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "backward", outcomes[0].Name)
	assert.Equal(t, 10, outcomes[0].Steps)
	assert.Equal(t, 5, outcomes[0].Checkpoints)
	assert.Equal(t, "cooling-2", outcomes[1].Name)
	assert.Equal(t, 5, outcomes[1].Steps)
	assert.Equal(t, 2, outcomes[1].Checkpoints)
	for _, o := range outcomes {
		assert.Equal(t, checkpoint.StatusFinished, o.Status)
		assert.NoError(t, o.Err)
	}

	runs, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunScenarioSetupError(t *testing.T) {
	sc := &Scenario{Runs: []ScenarioStep{
		{Preset: "quick", Params: map[string]float64{"final_time": 600}},
		{Preset: "quick", Params: map[string]float64{"tau": -1}},
	}}
	outcomes, err := NewRunner(checkpoint.NewCatalog(t.TempDir())).RunScenario(context.Background(), sc)
	require.Error(t, err)
	assert.Len(t, outcomes, 1)
}

func TestSweepValues(t *testing.T) {
	s := &Sweep{Min: 0.5, Max: 1, Points: 3}
	assert.InDeltaSlice(t, []float64{0.5, 0.75, 1}, s.Values(), 1e-12)

	s.Points = 1
	assert.Equal(t, []float64{0.5}, s.Values())
}

func TestRunSweep(t *testing.T) {
	base := config.GetPreset("quick")
	base.FinalTime = 1500

	catalog := checkpoint.NewCatalog(t.TempDir())
	results, err := NewRunner(catalog).RunSweep(context.Background(), &Sweep{
		Base:    base,
		Param:   "amplitude",
		Min:     0,
		Max:     10,
		Points:  3,
		Workers: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.InDelta(t, float64(i)*5, res.Value, 1e-12)
		assert.Equal(t, checkpoint.StatusFinished, res.Status)
		assert.Equal(t, 5, res.Steps)
	}

	// without exterior forcing the field stays at the initial temperature
	assert.InDelta(t, 10, results[0].Metrics["peak_temperature"], 1e-9)

	best, ok := Best(results, "peak_temperature")
	require.True(t, ok)
	assert.Equal(t, 0.0, best.Value)

	_, ok = Best(results, "no_such_metric")
	assert.False(t, ok)

	runs, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestRunSweepUnknownParam(t *testing.T) {
	_, err := NewRunner(checkpoint.NewCatalog(t.TempDir())).RunSweep(context.Background(), &Sweep{Param: "color"})
	assert.ErrorIs(t, err, ErrUnknownParam)
}
