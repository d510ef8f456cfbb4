// Package distance computes nearest-neighbour distances between the spot
// sets of every ordered channel pair of a region, summarises them, splits
// the reference spots into close and far groups (proximal feature
// analysis), and tests the summaries against spatially randomized
// placements of the reference set.
package distance

import (
	"fmt"

	"spot-analyser/internal/features"
	"spot-analyser/internal/stats"
	"spot-analyser/pkg/geometry"
)

// PairResult is the outcome for the ordered channel pair (Ref, Cand).
type PairResult struct {
	Ref       int                `json:"ref"`
	Cand      int                `json:"cand"`
	Aggregate Aggregate          `json:"aggregate"`
	Histogram Histogram          `json:"histogram"`
	PFA       map[string]PFAStat `json:"pfa,omitempty"`
	Random    *RandomSummary     `json:"random,omitempty"`
}

// RandomSummary describes the aggregates over the randomization trials.
// PValue holds, per statistic, the two-sided one-sample t-test of the
// observed value against the trial values.
type RandomSummary struct {
	Iterations int       `json:"iterations"`
	Mean       Aggregate `json:"mean"`
	SD         Aggregate `json:"sd"`
	PValue     Aggregate `json:"p_value"`
	HistMean   []float64 `json:"hist_mean"`
	HistSD     []float64 `json:"hist_sd"`
}

// Key returns the centroid NND key of the pair, e.g. NN_D_C_c_1-2.
func (p PairResult) Key() string {
	return PairKey(PrefixCentroid, p.Ref, p.Cand)
}

// Properties returns the numeric region properties of the pair.
func (p PairResult) Properties() map[string]float64 {
	pair := p.Key()
	m := make(map[string]float64)
	obs := p.Aggregate.values()
	for k, suffix := range aggregateSuffixes {
		m[pair+suffix] = obs[k]
	}
	for prop, st := range p.PFA {
		m[pair+prop+SuffixMean+SuffixPFAClose] = st.CloseMean
		m[pair+prop+SuffixSD+SuffixPFAClose] = st.CloseSD
		m[pair+prop+SuffixMean+SuffixPFAFar] = st.FarMean
		m[pair+prop+SuffixSD+SuffixPFAFar] = st.FarSD
	}
	if p.Random != nil {
		mean, sd, pv := p.Random.Mean.values(), p.Random.SD.values(), p.Random.PValue.values()
		for k, suffix := range aggregateSuffixes {
			s := pair + suffix + SuffixRand
			m[s] = mean[k]
			m[s+SuffixSD] = sd[k]
			m[s+SuffixPValue] = pv[k]
		}
	}
	return m
}

// ObjectProperties returns the histograms of the pair.
func (p PairResult) ObjectProperties() map[string]any {
	pair := p.Key()
	m := map[string]any{
		pair + SuffixHist:     append([]float64(nil), p.Histogram.Counts...),
		pair + SuffixHistBins: append([]float64(nil), p.Histogram.Edges...),
	}
	if p.Random != nil {
		m[pair+SuffixHist+SuffixMean+SuffixRand] = append([]float64(nil), p.Random.HistMean...)
		m[pair+SuffixHist+SuffixSD+SuffixRand] = append([]float64(nil), p.Random.HistSD...)
	}
	return m
}

// Result holds every ordered pair of one region.
type Result struct {
	Pairs []PairResult `json:"pairs"`
}

// Properties merges the numeric properties of all pairs.
func (r *Result) Properties() map[string]float64 {
	m := make(map[string]float64)
	for _, p := range r.Pairs {
		for k, v := range p.Properties() {
			m[k] = v
		}
	}
	return m
}

// ObjectProperties merges the object properties of all pairs.
func (r *Result) ObjectProperties() map[string]any {
	m := make(map[string]any)
	for _, p := range r.Pairs {
		for k, v := range p.ObjectProperties() {
			m[k] = v
		}
	}
	return m
}

// Pair returns the result for (ref, cand).
func (r *Result) Pair(ref, cand int) (PairResult, bool) {
	for _, p := range r.Pairs {
		if p.Ref == ref && p.Cand == cand {
			return p, true
		}
	}
	return PairResult{}, false
}

// Analyze runs the engine over every ordered pair of channel sets. sets[c]
// is the detected set of channel c, in the coordinates of polygon. The
// nearest neighbour of every reference feature is also written onto the
// feature. Trial t of pair (c1, c2) randomizes the c1 set with the seed
// derived from (seed, t, c1, c2); the input sets are never moved.
func Analyze(sets [][]*features.Feature, polygon []geometry.PointInt, pixelSize float64, params Params, seed int64) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if pixelSize <= 0 {
		return nil, fmt.Errorf("pixel size must be positive, got %g", pixelSize)
	}

	var pts []geometry.PointInt
	if params.Randomizations > 0 {
		pts = geometry.ContainedPoints(polygon)
		if len(pts) == 0 {
			return nil, fmt.Errorf("region polygon contains no pixels to randomize over")
		}
	}

	res := &Result{}
	for c1 := range sets {
		for c2 := range sets {
			if c1 == c2 {
				continue
			}
			pr, err := analyzePair(sets, c1, c2, pts, pixelSize, params, seed)
			if err != nil {
				return nil, fmt.Errorf("channels %d-%d: %w", c1+1, c2+1, err)
			}
			res.Pairs = append(res.Pairs, pr)
		}
	}
	return res, nil
}

func analyzePair(sets [][]*features.Feature, c1, c2 int, pts []geometry.PointInt, pixelSize float64, params Params, seed int64) (PairResult, error) {
	ref, cand := sets[c1], sets[c2]

	nbs := NearestNeighbours(ref, cand, pixelSize, params.EdgeDistance)
	annotate(ref, nbs, c1, c2, params.EdgeDistance)
	nnd := make([]float64, len(nbs))
	for i, nb := range nbs {
		nnd[i] = nb.CentroidDist
	}

	pr := PairResult{
		Ref:       c1,
		Cand:      c2,
		Aggregate: Summarize(nnd, params.ThresholdDistance),
		Histogram: NewHistogram(nnd, params.HistogramMax, params.BinWidth),
	}

	if params.PFA && len(params.PFAProperties) > 0 {
		pfa, err := ProximalFeatureAnalysis(ref, nnd, params.ThresholdDistance, params.PFAProperties)
		if err != nil {
			return PairResult{}, err
		}
		pr.PFA = pfa
	}

	if params.Randomizations > 0 {
		pr.Random = randomize(ref, cand, c1, c2, pts, pixelSize, params, seed, pr.Aggregate)
	}
	return pr, nil
}

func randomize(ref, cand []*features.Feature, c1, c2 int, pts []geometry.PointInt, pixelSize float64, params Params, seed int64, observed Aggregate) *RandomSummary {
	n := params.Randomizations
	trials := make([][4]float64, n)
	hists := make([][]float64, n)
	for t := 0; t < n; t++ {
		moved := features.RandomizeOver(ref, pts, features.DeriveSeed(seed, t, c1, c2))
		nnd := CentroidDistances(moved, cand, pixelSize)
		trials[t] = Summarize(nnd, params.ThresholdDistance).values()
		hists[t] = NewHistogram(nnd, params.HistogramMax, params.BinWidth).Counts
	}

	obs := observed.values()
	var mean, sd, pv [4]float64
	col := make([]float64, n)
	for k := range obs {
		for t := range trials {
			col[t] = trials[t][k]
		}
		mean[k] = stats.Mean(col)
		sd[k] = stats.SD(col)
		pv[k] = stats.TTest(obs[k], col)
	}

	histMean, histSD := stats.ColumnMeanSD(hists)
	return &RandomSummary{
		Iterations: n,
		Mean:       fromValues(mean),
		SD:         fromValues(sd),
		PValue:     fromValues(pv),
		HistMean:   histMean,
		HistSD:     histSD,
	}
}

func fromValues(v [4]float64) Aggregate {
	return Aggregate{Mean: v[0], Median: v[1], SD: v[2], Frac: v[3]}
}

// Run analyses the SPOTS sets of every channel of region and merges the
// result into its property store.
func Run(region *features.Region, params Params, seed int64) (*Result, error) {
	sets := make([][]*features.Feature, region.Channels)
	for c := range sets {
		feats, err := region.Features(c, features.SetSpots)
		if err != nil {
			return nil, err
		}
		sets[c] = feats
	}
	res, err := Analyze(sets, region.LocalPolygon(), region.PixelSize, params, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to analyse distances in region %s: %w", region.ID, err)
	}
	region.Merge(res)
	return res, nil
}
