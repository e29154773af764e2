package heat

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidMaterial = errors.New("heat: invalid material")

// Material holds the physical coefficients of the wall.
type Material struct {
	TInit   float64 `yaml:"t_init" json:"t_init"`   // ground and initial temperature
	Alpha   float64 `yaml:"alpha" json:"alpha"`     // Newton heat flux coefficient
	Lambda  float64 `yaml:"lambda" json:"lambda"`   // thermal conductivity
	HeatCap float64 `yaml:"heatcap" json:"heatcap"` // heat capacity
	Rho     float64 `yaml:"rho" json:"rho"`         // density
}

func DefaultMaterial() Material {
	return Material{
		TInit:   10,
		Alpha:   10,
		Lambda:  1e5,
		HeatCap: 1e6,
		Rho:     3000,
	}
}

func (m Material) Validate() error {
	if !(m.Lambda > 0) {
		return fmt.Errorf("%w: lambda must be positive, got %v", ErrInvalidMaterial, m.Lambda)
	}
	if !(m.HeatCap > 0) || !(m.Rho > 0) {
		return fmt.Errorf("%w: heat capacity and density must be positive", ErrInvalidMaterial)
	}
	if m.Alpha < 0 || math.IsNaN(m.Alpha) {
		return fmt.Errorf("%w: alpha must not be negative, got %v", ErrInvalidMaterial, m.Alpha)
	}
	return nil
}

// Exterior is the air temperature over one period:
// Base + Amplitude*sin(2*pi*t/Period).
type Exterior struct {
	Base      float64
	Amplitude float64
	Period    float64
}

func (e Exterior) At(t float64) float64 {
	if e.Period == 0 {
		return e.Base
	}
	return e.Base + e.Amplitude*math.Sin(2*math.Pi*t/e.Period)
}
