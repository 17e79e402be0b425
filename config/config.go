// Package config provides parameter loading, validation, and derived
// lookup tables for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Tolerance for migration matrix row sums.
const rowSumTolerance = 1e-9

// Config holds all simulation parameters.
type Config struct {
	Mortality   MortalityConfig   `yaml:"mortality"`
	Growth      GrowthConfig      `yaml:"growth"`
	Migration   MigrationConfig   `yaml:"migration"`
	Recruitment RecruitmentConfig `yaml:"recruitment"`

	// MaxAge is the oldest age (in years) the tables must cover.
	// All age-indexed tables are elongated to this length at load.
	MaxAge int `yaml:"max_age"`
	// BreedingPlaces is the number of leading locations where
	// reproduction and sampling occur.
	BreedingPlaces int `yaml:"breeding_places"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// MortalityConfig holds per-quarter-age hazard rates.
// Index = 4*age + quarter; both arrays must have the same length.
type MortalityConfig struct {
	Natural []float64 `yaml:"natural"`
	Fishing []float64 `yaml:"fishing"`
}

// GrowthConfig holds the von Bertalanffy growth parameters.
type GrowthConfig struct {
	MaxWeight float64 `yaml:"max_weight"` // asymptotic weight L_max
	Rate      float64 `yaml:"rate"`       // growth coefficient K

	// WeightForAge overrides the computed curve when non-empty.
	WeightForAge []float64 `yaml:"weight_for_age"`
}

// MigrationConfig holds age-indexed transition matrices.
// Matrices[age][from][to] is the probability of moving from one
// location to another during the migration phase.
type MigrationConfig struct {
	Matrices [][][]float64 `yaml:"matrices"`
}

// RecruitmentConfig holds fecundity distribution parameters.
type RecruitmentConfig struct {
	Coef float64 `yaml:"coef"` // offspring per unit body weight

	// OverdispersionK is the negative-binomial shape parameter.
	// 0 selects the limiting Poisson distribution.
	OverdispersionK float64 `yaml:"overdispersion_k"`

	// CarryingCapacity enables soft density dependence when > 0:
	// litter means are scaled by K/(N+K) for local population N.
	CarryingCapacity float64 `yaml:"carrying_capacity"`
}

// DerivedConfig holds tables computed from the loaded parameters.
// All tables are elongated to cover MaxAge by repeating their final
// entry, so age indexing during simulation needs no bounds branch.
type DerivedConfig struct {
	SurvivalRate []float64     // exp(-(natural+fishing)), len 4*MaxAge
	WeightForAge []float64     // len MaxAge
	Migration    [][][]float64 // len MaxAge
	NumLocations int
}

// Load loads parameters from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The returned Config
// is validated and its derived tables are fully elongated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects malformed parameter bundles before any derivation.
// Nothing is clamped: a bad bundle is a hard load-time error.
func (c *Config) validate() error {
	if c.MaxAge <= 0 {
		return fmt.Errorf("max_age must be positive, got %d", c.MaxAge)
	}
	if len(c.Mortality.Natural) == 0 {
		return fmt.Errorf("mortality.natural is empty")
	}
	if len(c.Mortality.Natural) != len(c.Mortality.Fishing) {
		return fmt.Errorf("mortality tables disagree in length: natural=%d fishing=%d",
			len(c.Mortality.Natural), len(c.Mortality.Fishing))
	}
	for i, m := range c.Mortality.Natural {
		if m < 0 {
			return fmt.Errorf("mortality.natural[%d] is negative: %v", i, m)
		}
	}
	for i, f := range c.Mortality.Fishing {
		if f < 0 {
			return fmt.Errorf("mortality.fishing[%d] is negative: %v", i, f)
		}
	}

	if c.Growth.MaxWeight <= 0 && len(c.Growth.WeightForAge) == 0 {
		return fmt.Errorf("growth.max_weight must be positive when weight_for_age is not given")
	}
	for i, w := range c.Growth.WeightForAge {
		if w < 0 {
			return fmt.Errorf("growth.weight_for_age[%d] is negative: %v", i, w)
		}
	}

	if len(c.Migration.Matrices) == 0 {
		return fmt.Errorf("migration.matrices is empty")
	}
	numLoc := len(c.Migration.Matrices[0])
	if numLoc == 0 {
		return fmt.Errorf("migration.matrices[0] has no rows")
	}
	for a, matrix := range c.Migration.Matrices {
		if len(matrix) != numLoc {
			return fmt.Errorf("migration matrix for age %d has %d rows, want %d",
				a, len(matrix), numLoc)
		}
		for from, row := range matrix {
			if len(row) != numLoc {
				return fmt.Errorf("migration row [age %d, from %d] has %d entries, want %d",
					a, from, len(row), numLoc)
			}
			for to, p := range row {
				if p < 0 {
					return fmt.Errorf("migration probability [age %d, %d->%d] is negative: %v",
						a, from, to, p)
				}
			}
			if sum := floats.Sum(row); math.Abs(sum-1) > rowSumTolerance {
				return fmt.Errorf("migration row [age %d, from %d] sums to %v, want 1",
					a, from, sum)
			}
		}
	}

	if c.BreedingPlaces <= 0 || c.BreedingPlaces > numLoc {
		return fmt.Errorf("breeding_places must be in [1, %d], got %d", numLoc, c.BreedingPlaces)
	}
	if c.Recruitment.Coef < 0 {
		return fmt.Errorf("recruitment.coef is negative: %v", c.Recruitment.Coef)
	}
	if c.Recruitment.OverdispersionK < 0 {
		return fmt.Errorf("recruitment.overdispersion_k is negative: %v", c.Recruitment.OverdispersionK)
	}
	if c.Recruitment.CarryingCapacity < 0 {
		return fmt.Errorf("recruitment.carrying_capacity is negative: %v", c.Recruitment.CarryingCapacity)
	}
	return nil
}

// computeDerived builds the survival, weight, and migration lookup
// tables and elongates each one to cover MaxAge.
func (c *Config) computeDerived() {
	quarters := 4 * c.MaxAge
	survival := make([]float64, 0, quarters)
	for i, m := range c.Mortality.Natural {
		survival = append(survival, math.Exp(-m-c.Mortality.Fishing[i]))
	}
	c.Derived.SurvivalRate = elongate(survival, quarters)

	weight := c.Growth.WeightForAge
	if len(weight) == 0 {
		weight = make([]float64, c.MaxAge)
		for age := range weight {
			// L_max * (1 - e^{-K*age}), written with Expm1 so the
			// curve stays exact near age 0.
			weight[age] = c.Growth.MaxWeight * -math.Expm1(-c.Growth.Rate*float64(age))
		}
	}
	c.Derived.WeightForAge = elongate(weight, c.MaxAge)

	matrices := make([][][]float64, 0, c.MaxAge)
	matrices = append(matrices, c.Migration.Matrices...)
	for len(matrices) < c.MaxAge {
		matrices = append(matrices, matrices[len(matrices)-1])
	}
	c.Derived.Migration = matrices[:c.MaxAge]
	c.Derived.NumLocations = len(c.Migration.Matrices[0])
}

// elongate extends a table to n entries by repeating the final value.
// A longer table is truncated to n.
func elongate(table []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(table) {
			out[i] = table[i]
		} else {
			out[i] = table[len(table)-1]
		}
	}
	return out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
