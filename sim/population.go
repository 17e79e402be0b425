package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/telemetry"
)

// Population owns the live cohort and advances it through the yearly
// cycle: reproduce, four quarterly survival passes, sampling inside the
// recording window, then migration. A single random source is threaded
// through every stochastic call; a fixed seed reproduces the whole run.
type Population struct {
	params *Params

	males   []*Individual
	females []*Individual

	// yearSamples maps capture year to the sampled individuals, in
	// capture order. Append-only once a year is recorded.
	yearSamples map[int][]*Individual

	demography []telemetry.DemographyRow
	sizes      []int // total live count at the end of each year

	year   int
	rng    *rand.Rand
	nextID uint32
}

// New builds a population of initialSize first-generation offspring,
// all children of a single parentless founder pair at location 0.
// The founders carry birth year -1 (strictly before their offspring)
// and live only through parent references.
func New(cfg *config.Config, initialSize int, seed uint64) *Population {
	rng := rand.New(rand.NewPCG(seed, seed))
	pop := &Population{
		params:      NewParams(cfg, rng),
		yearSamples: make(map[int][]*Individual),
		rng:         rng,
	}
	adam := pop.newIndividual(nil, nil, -1, 0)
	eve := pop.newIndividual(nil, nil, -1, 0)
	for i := 0; i < initialSize; i++ {
		child := pop.newIndividual(adam, eve, 0, 0)
		if pop.rng.Float64() < 0.5 {
			pop.males = append(pop.males, child)
		} else {
			pop.females = append(pop.females, child)
		}
	}
	return pop
}

// newIndividual assigns the next id from the population-owned sequence.
func (pop *Population) newIndividual(father, mother *Individual, year, location int) *Individual {
	pop.nextID++
	return &Individual{
		ID:        pop.nextID,
		Father:    father,
		Mother:    mother,
		BirthYear: year,
		Location:  location,
	}
}

// Params exposes the population's rule table.
func (pop *Population) Params() *Params { return pop.params }

// Year returns the current simulation year.
func (pop *Population) Year() int { return pop.year }

// Size returns the number of live individuals.
func (pop *Population) Size() int { return len(pop.males) + len(pop.females) }

// Extinct reports whether both sex collections are empty. Extinction is
// a valid terminal state; the stepping loop does not stop on it.
func (pop *Population) Extinct() bool { return pop.Size() == 0 }

// Sizes returns the per-year total live counts recorded during Run.
func (pop *Population) Sizes() []int { return pop.sizes }

// Run advances the simulation for duration years. Within each year the
// phase order is fixed: reproduce first (so density dependence sees the
// pre-mortality cohort), then four independent quarterly survival
// passes, then sampling when the year falls in the last recordingWindow
// years, then migration (so a sampled individual's recorded location is
// its breeding ground, not its post-migration one).
func (pop *Population) Run(duration int, sampleRate float64, recordingWindow int) error {
	// An individual born in year 0 reaches age==duration, so the
	// elongated tables must extend strictly beyond the run length.
	if duration >= pop.params.MaxAge {
		return fmt.Errorf("duration %d reaches ages beyond max_age %d covered by the parameter tables",
			duration, pop.params.MaxAge)
	}
	for i := 0; i < duration; i++ {
		pop.year++
		pop.reproduce()
		for quarter := 0; quarter < 4; quarter++ {
			pop.survive(quarter)
			pop.appendDemography(quarter)
		}
		if pop.year > duration-recordingWindow {
			pop.sample(sampleRate)
		}
		pop.migrate()
		pop.sizes = append(pop.sizes, pop.Size())
		slog.Debug("year complete",
			"year", pop.year,
			"males", len(pop.males),
			"females", len(pop.females),
			"samples", len(pop.yearSamples[pop.year]),
		)
	}
	return nil
}

// reproduce scans every female in a breeding place with at least one
// male present at her location. One father is drawn uniformly from the
// local pool per litter; multiple paternity within a litter is a known
// simplification. Newborns are buffered and merged only after the scan,
// so they cannot mate or be counted in the same year they are born.
func (pop *Population) reproduce() {
	p := pop.params
	localMales := make([][]*Individual, p.NumLocations)
	for _, male := range pop.males {
		localMales[male.Location] = append(localMales[male.Location], male)
	}
	localCount := make([]int, p.NumLocations)
	for _, x := range pop.males {
		localCount[x.Location]++
	}
	for _, x := range pop.females {
		localCount[x.Location]++
	}

	var boys, girls []*Individual
	for _, mother := range pop.females {
		if !mother.InBreedingPlace(p) {
			continue
		}
		pool := localMales[mother.Location]
		if len(pool) == 0 {
			continue
		}
		density := 1.0
		if k := p.CarryingCapacity; k > 0 {
			// Soft carrying capacity: litter means shrink as the
			// local pre-mortality population grows.
			density = k / (float64(localCount[mother.Location]) + k)
		}
		litter := mother.Recruitment(p, pop.year, density, pop.rng)
		if litter == 0 {
			continue
		}
		father := pool[pop.rng.IntN(len(pool))]
		for i := 0; i < litter; i++ {
			child := pop.newIndividual(father, mother, pop.year, mother.Location)
			if pop.rng.Float64() < 0.5 {
				boys = append(boys, child)
			} else {
				girls = append(girls, child)
			}
		}
	}
	pop.males = append(pop.males, boys...)
	pop.females = append(pop.females, girls...)
}

// survive filters each sex collection by one quarterly survival draw.
func (pop *Population) survive(quarter int) {
	pop.males = pop.filterSurvivors(pop.males, quarter)
	pop.females = pop.filterSurvivors(pop.females, quarter)
}

func (pop *Population) filterSurvivors(v []*Individual, quarter int) []*Individual {
	out := v[:0]
	for _, x := range v {
		if x.HasSurvived(pop.params, pop.year, quarter, pop.rng) {
			out = append(out, x)
		}
	}
	// Release the tail so dead individuals without descendants can be
	// collected.
	for i := len(out); i < len(v); i++ {
		v[i] = nil
	}
	return out
}

// migrate relocates every live individual with an independent draw.
func (pop *Population) migrate() {
	for _, x := range pop.males {
		x.Migrate(pop.params, pop.year)
	}
	for _, x := range pop.females {
		x.Migrate(pop.params, pop.year)
	}
}

// sample captures individuals from each breeding place and moves them
// from the live cohort into yearSamples. Residents are partitioned into
// adults (born in an earlier year) and juveniles (born this year);
// juveniles are taken at twice the adult rate. Individuals outside the
// breeding places are exempt and pass through untouched.
func (pop *Population) sample(rate float64) {
	p := pop.params
	taken := make(map[*Individual]struct{})
	var captured []*Individual

	for loc := 0; loc < p.BreedingPlaces; loc++ {
		var adults, juveniles []*Individual
		for _, v := range [2][]*Individual{pop.males, pop.females} {
			for _, x := range v {
				if x.Location != loc {
					continue
				}
				if x.BirthYear == pop.year {
					juveniles = append(juveniles, x)
				} else {
					adults = append(adults, x)
				}
			}
		}
		captured = append(captured, pop.drawSample(adults, rate, taken)...)
		captured = append(captured, pop.drawSample(juveniles, 2*rate, taken)...)
	}
	if len(captured) == 0 {
		return
	}

	pop.males = removeTaken(pop.males, taken)
	pop.females = removeTaken(pop.females, taken)
	pop.yearSamples[pop.year] = append(pop.yearSamples[pop.year], captured...)
}

// drawSample picks round(rate*len(group)) members without replacement.
func (pop *Population) drawSample(group []*Individual, rate float64, taken map[*Individual]struct{}) []*Individual {
	n := int(math.Round(rate * float64(len(group))))
	if n > len(group) {
		n = len(group)
	}
	if n <= 0 {
		return nil
	}
	idxs := make([]int, n)
	sampleuv.WithoutReplacement(idxs, len(group), pop.rng)
	sort.Ints(idxs)
	out := make([]*Individual, 0, n)
	for _, i := range idxs {
		taken[group[i]] = struct{}{}
		out = append(out, group[i])
	}
	return out
}

func removeTaken(v []*Individual, taken map[*Individual]struct{}) []*Individual {
	out := v[:0]
	for _, x := range v {
		if _, ok := taken[x]; !ok {
			out = append(out, x)
		}
	}
	for i := len(out); i < len(v); i++ {
		v[i] = nil
	}
	return out
}

// appendDemography snapshots per-location age counts for the current
// quarter.
func (pop *Population) appendDemography(quarter int) {
	counts := pop.CountByLocation()
	for loc, byAge := range counts {
		ages := make([]int, 0, len(byAge))
		for age := range byAge {
			ages = append(ages, age)
		}
		sort.Ints(ages)
		for _, age := range ages {
			pop.demography = append(pop.demography, telemetry.DemographyRow{
				Year:     pop.year,
				Quarter:  quarter,
				Location: loc,
				Age:      age,
				Count:    byAge[age],
			})
		}
	}
}

// CountByLocation tabulates live individuals by location and age.
func (pop *Population) CountByLocation() []map[int]int {
	counts := make([]map[int]int, pop.params.NumLocations)
	for i := range counts {
		counts[i] = make(map[int]int)
	}
	for _, v := range [2][]*Individual{pop.males, pop.females} {
		for _, x := range v {
			counts[x.Location][x.Age(pop.year)]++
		}
	}
	return counts
}

// Demography returns the accumulated per-quarter snapshots.
func (pop *Population) Demography() []telemetry.DemographyRow {
	return pop.demography
}
