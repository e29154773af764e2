package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/heatmarch/internal/heat"
	"github.com/san-kum/heatmarch/internal/logging"
	"github.com/san-kum/heatmarch/internal/march"
)

const (
	DefaultFinalTime       = 18000.0
	DefaultTau             = 300.0
	DefaultOutputFrequency = 20
	DefaultRefinements     = 1
	DefaultTheta           = 1.0
	DefaultAmplitude       = 10.0

	StoreFile  = "file"
	StoreRedis = "redis"
)

type Config struct {
	FinalTime       float64          `yaml:"final_time" json:"final_time"`
	Tau             float64          `yaml:"tau" json:"tau"`
	OutputFrequency int              `yaml:"output_frequency" json:"output_frequency"`
	Mesh            string           `yaml:"mesh" json:"mesh,omitempty"`
	Refinements     int              `yaml:"refinements" json:"refinements"`
	Theta           float64          `yaml:"theta" json:"theta"`
	Material        heat.Material    `yaml:"material" json:"material"`
	Exterior        ExteriorConfig   `yaml:"exterior" json:"exterior"`
	Boundaries      BoundaryConfig   `yaml:"boundaries" json:"boundaries"`
	Checkpoint      CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`
	LogLevel        string           `yaml:"log_level" json:"log_level"`
}

// ExteriorConfig is the sine wave of the air temperature around
// material.t_init. A zero period means one period per run.
type ExteriorConfig struct {
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Period    float64 `yaml:"period" json:"period"`
}

type BoundaryConfig struct {
	Essential []int `yaml:"essential" json:"essential"`
	Natural   []int `yaml:"natural" json:"natural"`
}

type CheckpointConfig struct {
	Encoding string      `yaml:"encoding" json:"encoding"`
	Compress bool        `yaml:"compress" json:"compress"`
	OnError  string      `yaml:"on_error" json:"on_error"`
	Store    string      `yaml:"store" json:"store"`
	Redis    RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

func DefaultConfig() *Config {
	return &Config{
		FinalTime:       DefaultFinalTime,
		Tau:             DefaultTau,
		OutputFrequency: DefaultOutputFrequency,
		Refinements:     DefaultRefinements,
		Theta:           DefaultTheta,
		Material:        heat.DefaultMaterial(),
		Exterior: ExteriorConfig{
			Amplitude: DefaultAmplitude,
		},
		Boundaries: BoundaryConfig{
			Essential: []int{heat.MarkerGround},
			Natural:   []int{heat.MarkerAir},
		},
		Checkpoint: CheckpointConfig{
			Encoding: heat.EncodingGob,
			OnError:  march.Abort.String(),
			Store:    StoreFile,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		LogLevel: "info",
	}
}

// Load overlays the YAML file at path onto the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver overlays the YAML file at path onto base, typically a preset.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	cp.Boundaries.Essential = append([]int(nil), c.Boundaries.Essential...)
	cp.Boundaries.Natural = append([]int(nil), c.Boundaries.Natural...)
	return &cp
}

func (c *Config) Validate() error {
	dc, err := c.DriverConfig()
	if err != nil {
		return err
	}
	if err := dc.Validate(); err != nil {
		return err
	}
	if err := c.Material.Validate(); err != nil {
		return err
	}
	if c.Theta != 0 && (c.Theta < 0.5 || c.Theta > 1) {
		return fmt.Errorf("%w: theta must be in [0.5, 1], got %v", march.ErrInvalidConfig, c.Theta)
	}
	if c.Refinements < 0 {
		return fmt.Errorf("%w: refinements must not be negative", march.ErrInvalidConfig)
	}
	if c.Exterior.Period < 0 {
		return fmt.Errorf("%w: exterior period must not be negative", march.ErrInvalidConfig)
	}
	if err := heat.CheckEncoding(c.Checkpoint.Encoding); err != nil {
		return fmt.Errorf("%w: %v", march.ErrInvalidConfig, err)
	}
	switch c.Checkpoint.Store {
	case "", StoreFile, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown checkpoint store %q", march.ErrInvalidConfig, c.Checkpoint.Store)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", march.ErrInvalidConfig, err)
	}
	return nil
}

// DriverConfig extracts the settings of the time-marching driver.
func (c *Config) DriverConfig() (march.Config, error) {
	policy, err := march.ParsePolicy(c.Checkpoint.OnError)
	if err != nil {
		return march.Config{}, err
	}
	return march.Config{
		FinalTime:         c.FinalTime,
		Tau:               c.Tau,
		OutputFrequency:   c.OutputFrequency,
		OnCheckpointError: policy,
	}, nil
}

func (c *Config) BCTypes() *heat.BCTypes {
	bc := heat.NewBCTypes()
	bc.AddNatural(c.Boundaries.Natural...)
	bc.AddEssential(c.Boundaries.Essential...)
	return bc
}

func (c *Config) ExteriorModel() heat.Exterior {
	period := c.Exterior.Period
	if period == 0 {
		period = c.FinalTime
	}
	return heat.Exterior{Base: c.Material.TInit, Amplitude: c.Exterior.Amplitude, Period: period}
}

// BuildMesh loads the mesh file, or the default mesh when none is set, and
// applies the uniform refinements.
func (c *Config) BuildMesh() (*heat.Mesh, error) {
	m := heat.DefaultMesh()
	if c.Mesh != "" {
		var err error
		if m, err = heat.LoadMesh(c.Mesh); err != nil {
			return nil, err
		}
	}
	for i := 0; i < c.Refinements; i++ {
		m.RefineAll()
	}
	return m, nil
}
