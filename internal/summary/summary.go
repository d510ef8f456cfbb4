// Package summary combines the per-region results of a run: the normalized
// nearest-neighbour histograms of every channel pair and the spread of each
// numeric region property.
package summary

import (
	"sort"

	"spot-analyser/internal/distance"
	"spot-analyser/internal/features"
	"spot-analyser/internal/stats"
)

// HistogramSummary is the per-bin mean and sample sd of the unit-sum NND
// histograms of one channel pair over the regions that had any counts.
type HistogramSummary struct {
	Ref     int       `json:"ref"`
	Cand    int       `json:"cand"`
	Key     string    `json:"key"`
	Regions int       `json:"regions"`
	Edges   []float64 `json:"edges"`
	Mean    []float64 `json:"mean"`
	SD      []float64 `json:"sd"`
	// Same statistics over the randomized mean histograms; nil when no
	// region was randomized.
	RandMean []float64 `json:"rand_mean,omitempty"`
	RandSD   []float64 `json:"rand_sd,omitempty"`
}

// PropertySummary describes one numeric region property across regions.
// Non-finite values are left out.
type PropertySummary struct {
	Key  string  `json:"key"`
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
}

// Histograms summarizes every ordered channel pair. Regions without a
// histogram for a pair, or whose histogram has a different bin count than
// the first one seen, are skipped for that pair.
func Histograms(regions []*features.Region, channels int) []HistogramSummary {
	var out []HistogramSummary
	for c1 := 0; c1 < channels; c1++ {
		for c2 := 0; c2 < channels; c2++ {
			if c1 == c2 {
				continue
			}
			out = append(out, pairHistogram(regions, c1, c2))
		}
	}
	return out
}

func pairHistogram(regions []*features.Region, c1, c2 int) HistogramSummary {
	pair := distance.PairKey(distance.PrefixCentroid, c1, c2)
	s := HistogramSummary{Ref: c1, Cand: c2, Key: pair}

	var rows, randRows [][]float64
	for _, r := range regions {
		counts, ok := floatsObject(r, pair+distance.SuffixHist)
		if !ok {
			continue
		}
		if s.Edges == nil {
			s.Edges, _ = floatsObject(r, pair+distance.SuffixHistBins)
		}
		if len(rows) > 0 && len(counts) != len(rows[0]) {
			continue
		}
		norm := normalize(counts)
		if norm == nil {
			continue
		}
		rows = append(rows, norm)

		if rand, ok := floatsObject(r, pair+distance.SuffixHist+distance.SuffixMean+distance.SuffixRand); ok && len(rand) == len(counts) {
			if rn := normalize(rand); rn != nil {
				randRows = append(randRows, rn)
			}
		}
	}
	s.Regions = len(rows)
	s.Mean, s.SD = stats.ColumnMeanSD(rows)
	s.RandMean, s.RandSD = stats.ColumnMeanSD(randRows)
	return s
}

// Properties summarizes every numeric property present in any region,
// sorted by key.
func Properties(regions []*features.Region) []PropertySummary {
	values := make(map[string][]float64)
	for _, r := range regions {
		for k, v := range r.NumericSnapshot() {
			values[k] = append(values[k], v)
		}
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]PropertySummary, len(keys))
	for i, k := range keys {
		vals := stats.Finite(values[k])
		out[i] = PropertySummary{Key: k, N: len(vals), Mean: stats.Mean(vals), SD: stats.SD(vals)}
	}
	return out
}

func floatsObject(r *features.Region, key string) ([]float64, bool) {
	v, ok := r.Object(key)
	if !ok {
		return nil, false
	}
	vals, ok := v.([]float64)
	return vals, ok
}

func normalize(counts []float64) []float64 {
	total := stats.Sum(counts)
	if total == 0 {
		return nil
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
