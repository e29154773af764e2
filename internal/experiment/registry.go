package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/config"
	"github.com/san-kum/heatmarch/internal/march"
	"github.com/san-kum/heatmarch/internal/metrics"
)

// StoreFactory opens the checkpoint store of run id. dir is the run
// directory inside the catalog.
type StoreFactory func(cfg *config.Config, id string, dir *checkpoint.FileStore) (checkpoint.Store, error)

type Registry struct {
	stores  map[string]StoreFactory
	metrics map[string]func(cfg *config.Config) march.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		stores:  make(map[string]StoreFactory),
		metrics: make(map[string]func(cfg *config.Config) march.Metric),
	}

	r.stores[config.StoreFile] = func(cfg *config.Config, id string, dir *checkpoint.FileStore) (checkpoint.Store, error) {
		return dir, nil
	}
	r.stores[config.StoreRedis] = func(cfg *config.Config, id string, dir *checkpoint.FileStore) (checkpoint.Store, error) {
		rc := cfg.Checkpoint.Redis
		prefix := rc.Prefix
		if prefix == "" {
			prefix = checkpoint.DefaultRedisPrefix
		}
		return checkpoint.NewRedisStore(rc.Addr, rc.Password, rc.DB,
			checkpoint.WithPrefix(prefix+id+":"),
			checkpoint.WithTTL(rc.TTL),
		), nil
	}

	r.metrics["mean_temperature"] = func(*config.Config) march.Metric { return metrics.NewMeanTemperature() }
	r.metrics["peak_temperature"] = func(*config.Config) march.Metric { return metrics.NewPeakTemperature() }
	r.metrics["min_temperature"] = func(*config.Config) march.Metric { return metrics.NewMinTemperature() }
	r.metrics["max_step_change"] = func(*config.Config) march.Metric { return metrics.NewMaxChange() }
	r.metrics["bounded"] = func(cfg *config.Config) march.Metric {
		t0, amp := cfg.Material.TInit, math.Abs(cfg.Exterior.Amplitude)
		return metrics.NewBounded(t0-amp-1e-9, t0+amp+1e-9)
	}

	return r
}

func (r *Registry) OpenStore(cfg *config.Config, id string, dir *checkpoint.FileStore) (checkpoint.Store, error) {
	name := cfg.Checkpoint.Store
	if name == "" {
		name = config.StoreFile
	}
	fn, ok := r.stores[name]
	if !ok {
		return nil, fmt.Errorf("unknown checkpoint store: %s", name)
	}
	return fn(cfg, id, dir)
}

func (r *Registry) GetMetric(name string, cfg *config.Config) (march.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListStores() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
