package sim

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/shoal/config"
)

// Params is the shared, read-only rule table consulted by every
// individual: elongated survival/weight lookups plus migration
// distributions bound to the owning population's random source.
// It replaces per-call distribution construction with a one-time cache.
type Params struct {
	SurvivalRate []float64 // per quarter-age
	WeightForAge []float64 // per age

	RecruitmentCoef  float64
	OverdispersionK  float64
	CarryingCapacity float64

	BreedingPlaces int
	NumLocations   int
	MaxAge         int

	migration [][]distuv.Categorical // [age][from]
}

// NewParams binds the derived config tables to a random source.
// The source must be the same one used for all other draws so that a
// fixed seed reproduces the full run.
func NewParams(cfg *config.Config, src rand.Source) *Params {
	p := &Params{
		SurvivalRate:     cfg.Derived.SurvivalRate,
		WeightForAge:     cfg.Derived.WeightForAge,
		RecruitmentCoef:  cfg.Recruitment.Coef,
		OverdispersionK:  cfg.Recruitment.OverdispersionK,
		CarryingCapacity: cfg.Recruitment.CarryingCapacity,
		BreedingPlaces:   cfg.BreedingPlaces,
		NumLocations:     cfg.Derived.NumLocations,
		MaxAge:           cfg.MaxAge,
	}
	p.migration = make([][]distuv.Categorical, len(cfg.Derived.Migration))
	for age, matrix := range cfg.Derived.Migration {
		dists := make([]distuv.Categorical, len(matrix))
		for from, row := range matrix {
			dists[from] = distuv.NewCategorical(row, src)
		}
		p.migration[age] = dists
	}
	return p
}

// migrationDist returns the categorical distribution for an age and
// origin. Ages beyond the table reuse the last row.
func (p *Params) migrationDist(age, from int) *distuv.Categorical {
	if age >= len(p.migration) {
		age = len(p.migration) - 1
	}
	return &p.migration[age][from]
}
