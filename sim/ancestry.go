package sim

import (
	"sort"

	"github.com/pthm-cable/shoal/telemetry"
)

// SampleFamily reconstructs the deduplicated ancestry forest connecting
// every sampled individual to the founder generation. Parent links fan
// in, so the walk is memoized: each distinct ancestor appears exactly
// once, annotated with its capture year when it is itself a sample.
// Records are ordered by id so exports are byte-stable across runs.
func (pop *Population) SampleFamily() []telemetry.FamilyRecord {
	visited := make(map[uint32]*Individual)
	capture := make(map[uint32]int)

	for _, year := range pop.sampleYears() {
		for _, x := range pop.yearSamples[year] {
			capture[x.ID] = year
			x.TraceBack(visited)
		}
	}

	ids := make([]uint32, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records := make([]telemetry.FamilyRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, familyRecord(visited[id], capture[id]))
	}
	return records
}

// SampleCounts returns the number of captures per recorded year.
func (pop *Population) SampleCounts() map[int]int {
	counts := make(map[int]int, len(pop.yearSamples))
	for year, v := range pop.yearSamples {
		counts[year] = len(v)
	}
	return counts
}

// Samples returns the individuals captured in the given year.
func (pop *Population) Samples(year int) []*Individual {
	return pop.yearSamples[year]
}

func (pop *Population) sampleYears() []int {
	years := make([]int, 0, len(pop.yearSamples))
	for year := range pop.yearSamples {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Records lists every live individual, males before females, in cohort
// order.
func (pop *Population) Records() []telemetry.IndividualRecord {
	records := make([]telemetry.IndividualRecord, 0, pop.Size())
	for _, v := range [2][]*Individual{pop.males, pop.females} {
		for _, x := range v {
			records = append(records, individualRecord(x))
		}
	}
	return records
}

func individualRecord(x *Individual) telemetry.IndividualRecord {
	return telemetry.IndividualRecord{
		ID:        x.ID,
		FatherID:  parentID(x.Father),
		MotherID:  parentID(x.Mother),
		BirthYear: x.BirthYear,
		Location:  x.Location,
	}
}

// familyRecord renders one ancestor. captureYear is 0 for ancestors
// that were never sampled; capture years start at 1.
func familyRecord(x *Individual, captureYear int) telemetry.FamilyRecord {
	return telemetry.FamilyRecord{
		IndividualRecord: individualRecord(x),
		CaptureYear:      captureYear,
	}
}

// parentID maps a nil founder link to id 0, which is never assigned.
func parentID(parent *Individual) uint32 {
	if parent == nil {
		return 0
	}
	return parent.ID
}
