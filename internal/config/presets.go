package config

import "sort"

var Presets = map[string]*Config{
	"tutorial": DefaultConfig(),
	"quick": modify(func(c *Config) {
		c.FinalTime = 3000
		c.OutputFrequency = 2
		c.Refinements = 0
	}),
	"fine": modify(func(c *Config) {
		c.Tau = 150
		c.OutputFrequency = 40
		c.Refinements = 2
	}),
	"crank-nicolson": modify(func(c *Config) {
		c.Theta = 0.5
	}),
}

func modify(fn func(c *Config)) *Config {
	c := DefaultConfig()
	fn(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
