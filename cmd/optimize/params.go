// Package main provides CMA-ES optimization for finding simulation
// parameters that produce long-lived, diverse ecosystems.
package main

import (
	"github.com/pthm-cable/fauna/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Energy economy
			{Name: "base_cost", Path: "energy.base_cost", Min: 0.05, Max: 1.0, Default: 0.3},
			{Name: "move_cost", Path: "energy.move_cost", Min: 0.01, Max: 0.3, Default: 0.08},
			{Name: "kill_energy_gain", Path: "energy.kill_energy_gain", Min: 0.3, Max: 0.9, Default: 0.6},
			// Lifecycle
			{Name: "repro_cooldown", Path: "sim.repro_cooldown", Min: 10, Max: 120, Default: 40},
			{Name: "maturity_age", Path: "sim.maturity_age", Min: 10, Max: 120, Default: 30},
			{Name: "mate_range", Path: "sim.mate_range", Min: 5, Max: 40, Default: 15},
			{Name: "carrion_fraction", Path: "sim.carrion_fraction", Min: 0.1, Max: 0.8, Default: 0.4},
			{Name: "attack_cooldown", Path: "sim.attack_cooldown", Min: 1, Max: 15, Default: 4},
			// Genetics
			{Name: "point_rate", Path: "mutation.point_rate", Min: 0.005, Max: 0.1, Default: 0.02},
			{Name: "point_sigma", Path: "mutation.point_sigma", Min: 0.02, Max: 0.3, Default: 0.1},
			// Predation pressure
			{Name: "hunt_min_score", Path: "hunt.min_score", Min: 0.1, Max: 0.9, Default: 0.4},
			{Name: "flee_force", Path: "behavior.flee_force", Min: 5, Max: 60, Default: 25},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
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
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	v := pv.Clamp(values)

	cfg.Energy.BaseCost = v[0]
	cfg.Energy.MoveCost = v[1]
	cfg.Energy.KillEnergyGain = v[2]

	cfg.Sim.ReproCooldown = v[3]
	cfg.Sim.MaturityAge = v[4]
	cfg.Sim.MateRange = v[5]
	cfg.Sim.CarrionFraction = v[6]
	cfg.Sim.AttackCooldown = v[7]

	cfg.Mutation.PointRate = v[8]
	cfg.Mutation.PointSigma = v[9]

	cfg.Hunt.MinScore = v[10]
	cfg.Behavior.FleeForce = v[11]
}
