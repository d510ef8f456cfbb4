package distance

import (
	"math"

	"spot-analyser/internal/stats"
)

// Aggregate summarises the nearest-neighbour distances that are within the
// threshold.
type Aggregate struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	SD     float64 `json:"sd"`
	// Share of reference features with a neighbour within the threshold
	Frac float64 `json:"frac"`
}

// Summarize keeps the distances not greater than threshold and returns
// their mean, median, sample sd and the kept fraction. When nothing is kept
// it returns {threshold, threshold, +Inf, 0}.
func Summarize(nnd []float64, threshold float64) Aggregate {
	kept := make([]float64, 0, len(nnd))
	for _, d := range nnd {
		if d <= threshold {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return Aggregate{Mean: threshold, Median: threshold, SD: math.Inf(1), Frac: 0}
	}
	return Aggregate{
		Mean:   stats.Mean(kept),
		Median: stats.Median(kept),
		SD:     stats.SD(kept),
		Frac:   float64(len(kept)) / float64(len(nnd)),
	}
}

// values returns the aggregate in key order: mean, median, sd, frac.
func (a Aggregate) values() [4]float64 {
	return [4]float64{a.Mean, a.Median, a.SD, a.Frac}
}

var aggregateSuffixes = [4]string{SuffixMean, SuffixMedian, SuffixSD, SuffixFrac}
