// Package sim implements the individual-based population simulation:
// per-organism stochastic rules, the yearly stepping engine, stratified
// sampling, and ancestry reconstruction over sampled lineages.
package sim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Individual is one organism. Identity and parentage are fixed at
// construction; only Location changes afterwards, via Migrate. Parent
// pointers form a DAG with fan-in: an ancestor stays reachable as long
// as any descendant or sample record still references it.
type Individual struct {
	ID        uint32
	Father    *Individual // nil for founders
	Mother    *Individual // nil for founders
	BirthYear int
	Location  int
}

// IsFounder reports whether this individual belongs to the parentless
// founder generation.
func (x *Individual) IsFounder() bool {
	return x.Father == nil
}

// Age returns the individual's age in whole years at the given year.
func (x *Individual) Age(year int) int {
	return year - x.BirthYear
}

// QuarterAge returns the age in quarter-year units.
func (x *Individual) QuarterAge(year, quarter int) int {
	return 4*x.Age(year) + quarter
}

// HasSurvived draws one uniform value against the survival rate for the
// individual's quarter-age. The survival table is elongated at load
// time to cover every reachable age.
func (x *Individual) HasSurvived(p *Params, year, quarter int, rng *rand.Rand) bool {
	return rng.Float64() < p.SurvivalRate[x.QuarterAge(year, quarter)]
}

// Weight returns the body weight at the given year. Pure lookup.
func (x *Individual) Weight(p *Params, year int) float64 {
	return p.WeightForAge[x.Age(year)]
}

// InBreedingPlace reports whether the individual currently occupies a
// breeding ground (the first BreedingPlaces locations).
func (x *Individual) InBreedingPlace(p *Params) bool {
	return x.Location < p.BreedingPlaces
}

// Recruitment draws the number of offspring produced by this female
// this year. The mean is RecruitmentCoef * Weight, scaled by the
// caller-supplied density factor. A finite overdispersion parameter k
// selects a negative binomial, drawn as the Gamma-Poisson mixture
// lambda ~ Gamma(k, k/mean), n ~ Poisson(lambda); k = 0 (or an
// infinite k, or a zero mean) degenerates to plain Poisson, the k->inf
// limit of the same distribution.
func (x *Individual) Recruitment(p *Params, year int, density float64, rng *rand.Rand) int {
	mean := p.RecruitmentCoef * x.Weight(p, year) * density
	if mean <= 0 {
		return 0
	}
	k := p.OverdispersionK
	if k > 0 && !math.IsInf(k, 1) {
		lambda := distuv.Gamma{Alpha: k, Beta: k / mean, Src: rng}.Rand()
		return int(distuv.Poisson{Lambda: lambda, Src: rng}.Rand())
	}
	return int(distuv.Poisson{Lambda: mean, Src: rng}.Rand())
}

// Migrate moves the individual by drawing a destination from the
// categorical distribution for its age and current location.
func (x *Individual) Migrate(p *Params, year int) {
	x.Location = int(p.migrationDist(x.Age(year), x.Location).Rand())
}

// TraceBack walks parent references, inserting every newly seen
// ancestor into visited (keyed by id). Recursion stops at nodes already
// visited, so shared ancestors are expanded exactly once.
func (x *Individual) TraceBack(visited map[uint32]*Individual) {
	if _, seen := visited[x.ID]; seen {
		return
	}
	visited[x.ID] = x
	if x.Father != nil {
		x.Father.TraceBack(visited)
	}
	if x.Mother != nil {
		x.Mother.TraceBack(visited)
	}
}
