package main

import (
	"fmt"

	"github.com/pthm-cable/apex/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	get func(*config.Config, *config.VehicleConfig) float64
	set func(*config.Config, *config.VehicleConfig, float64)
}

// ParamVector holds the set of all optimizable parameters for one vehicle.
type ParamVector struct {
	Vehicle string
	Specs   []ParamSpec
}

// NewParamVector creates the standard setup and technique parameters for
// the named vehicle.
func NewParamVector(vehicle string) *ParamVector {
	return &ParamVector{
		Vehicle: vehicle,
		Specs: []ParamSpec{
			// Setup
			{Name: "brake_bias", Path: "archetypes.brake_bias", Min: 0.40, Max: 0.80,
				get: func(_ *config.Config, v *config.VehicleConfig) float64 { return v.BrakeBias },
				set: func(_ *config.Config, v *config.VehicleConfig, x float64) { v.BrakeBias = x }},
			{Name: "anti_roll_front", Path: "archetypes.anti_roll_front", Min: 0.0, Max: 0.15,
				get: func(_ *config.Config, v *config.VehicleConfig) float64 { return v.AntiRollFront },
				set: func(_ *config.Config, v *config.VehicleConfig, x float64) { v.AntiRollFront = x }},
			{Name: "anti_roll_rear", Path: "archetypes.anti_roll_rear", Min: 0.0, Max: 0.15,
				get: func(_ *config.Config, v *config.VehicleConfig) float64 { return v.AntiRollRear },
				set: func(_ *config.Config, v *config.VehicleConfig, x float64) { v.AntiRollRear = x }},
			// Technique
			{Name: "brake_distance", Path: "script.brake_distance", Min: 30, Max: 150,
				get: func(c *config.Config, _ *config.VehicleConfig) float64 { return c.Script.BrakeDistance },
				set: func(c *config.Config, _ *config.VehicleConfig, x float64) { c.Script.BrakeDistance = x }},
			{Name: "corner_speed", Path: "script.corner_speed", Min: 0.6, Max: 1.05,
				get: func(c *config.Config, _ *config.VehicleConfig) float64 { return c.Script.CornerSpeed },
				set: func(c *config.Config, _ *config.VehicleConfig, x float64) { c.Script.CornerSpeed = x }},
			{Name: "exit_throttle", Path: "script.exit_throttle", Min: 0.2, Max: 3.0,
				get: func(c *config.Config, _ *config.VehicleConfig) float64 { return c.Script.ExitThrottle },
				set: func(c *config.Config, _ *config.VehicleConfig, x float64) { c.Script.ExitThrottle = x }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	veh, err := cfg.Archetype(pv.Vehicle)
	if err != nil {
		return err
	}
	if len(values) != len(pv.Specs) {
		return fmt.Errorf("got %d values for %d parameters", len(values), len(pv.Specs))
	}
	for i, x := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, veh, x)
	}
	return nil
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) ([]float64, error) {
	veh, err := cfg.Archetype(pv.Vehicle)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		values[i] = spec.get(cfg, veh)
	}
	return values, nil
}
