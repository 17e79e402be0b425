package telemetry

import (
	"math"
	"sort"
)

// SizeStats summarizes the per-year population size series of one run.
type SizeStats struct {
	Mean  float64
	P10   float64
	P50   float64
	P90   float64
	Min   int
	Max   int
	Final int
}

// SummarizeSizes computes summary statistics over a size series.
// Returns the zero value for an empty series.
func SummarizeSizes(sizes []int) SizeStats {
	if len(sizes) == 0 {
		return SizeStats{}
	}
	values := make([]float64, len(sizes))
	min, max := sizes[0], sizes[0]
	sum := 0
	for i, n := range sizes {
		values[i] = float64(n)
		sum += n
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	sort.Float64s(values)
	return SizeStats{
		Mean:  float64(sum) / float64(len(sizes)),
		P10:   Percentile(values, 0.1),
		P50:   Percentile(values, 0.5),
		P90:   Percentile(values, 0.9),
		Min:   min,
		Max:   max,
		Final: sizes[len(sizes)-1],
	}
}

// Percentile computes the p-th percentile (0.0-1.0) of sorted values
// using linear interpolation.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := p * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper {
		return sorted[lower]
	}

	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
