// Package coloc measures pixel colocalization between the spot density
// images of a reference channel and every other channel, and tests the
// coefficients against randomized placements of the other channel's spots.
package coloc

import (
	"fmt"
	"math"

	"spot-analyser/internal/features"
	"spot-analyser/internal/filter"
	"spot-analyser/internal/image"
	"spot-analyser/internal/stats"
	"spot-analyser/pkg/geometry"
)

// Key parts: PCC_FEATURE_ORG_c_1-2 and so on.
const (
	StatPCC  = "PCC"
	StatMOC1 = "MOC1"
	StatMOC2 = "MOC2"

	SuffixOriginal = "_FEATURE_ORG"
	SuffixRandMean = "_FEATURE_RAND_MEAN"
	SuffixRandStd  = "_FEATURE_RAND_STD"
	SuffixTTest    = "_FEATURE_TTEST"
)

// seedStream separates the colocalization random streams from the
// distance engine's.
const seedStream = 2

// Params configures the colocalization test.
type Params struct {
	ReferenceChannel int
	Randomizations   int
	// Gaussian pre-blur for the Pearson coefficient, 0 for none
	BlurSigma float64
}

// DefaultParams returns the defaults.
func DefaultParams() Params {
	return Params{ReferenceChannel: 0, Randomizations: 10}
}

// Coefficients holds one value per statistic.
type Coefficients struct {
	PCC  float64 `json:"pcc"`
	MOC1 float64 `json:"moc1"`
	MOC2 float64 `json:"moc2"`
}

func (c Coefficients) values() [3]float64 {
	return [3]float64{c.PCC, c.MOC1, c.MOC2}
}

func fromValues(v [3]float64) Coefficients {
	return Coefficients{PCC: v[0], MOC1: v[1], MOC2: v[2]}
}

var statNames = [3]string{StatPCC, StatMOC1, StatMOC2}

// PairResult compares the reference channel Ref with channel Cand.
type PairResult struct {
	Ref        int          `json:"ref"`
	Cand       int          `json:"cand"`
	Original   Coefficients `json:"original"`
	Iterations int          `json:"iterations"`
	RandMean   Coefficients `json:"rand_mean"`
	RandStd    Coefficients `json:"rand_std"`
	TTest      Coefficients `json:"ttest"`
}

// Properties returns the twelve values of the pair, or only the observed
// three when no randomization ran.
func (p PairResult) Properties() map[string]float64 {
	pair := fmt.Sprintf("_c_%d-%d", p.Ref+1, p.Cand+1)
	m := make(map[string]float64, 12)
	org, mean, std, tt := p.Original.values(), p.RandMean.values(), p.RandStd.values(), p.TTest.values()
	for k, name := range statNames {
		m[name+SuffixOriginal+pair] = org[k]
		if p.Iterations > 0 {
			m[name+SuffixRandMean+pair] = mean[k]
			m[name+SuffixRandStd+pair] = std[k]
			m[name+SuffixTTest+pair] = tt[k]
		}
	}
	return m
}

// Result holds every pair of one region.
type Result struct {
	Pairs []PairResult `json:"pairs"`
}

// Properties merges the pairs.
func (r *Result) Properties() map[string]float64 {
	m := make(map[string]float64)
	for _, p := range r.Pairs {
		for k, v := range p.Properties() {
			m[k] = v
		}
	}
	return m
}

// Analyze compares the density image of the reference channel with that of
// every other channel over the interior pixels of polygon. Fields are
// width x height in the polygon's coordinates. Trial t of channel c
// randomizes c's spots with a seed derived from (seed, t, ref, c).
func Analyze(sets [][]*features.Feature, polygon []geometry.PointInt, width, height int, pixelSize float64, params Params, seed int64) (*Result, error) {
	ref := params.ReferenceChannel
	if ref < 0 || ref >= len(sets) {
		return nil, fmt.Errorf("%w: reference channel %d not in [0, %d)", features.ErrChannelOutOfRange, ref, len(sets))
	}
	if params.Randomizations < 0 {
		return nil, fmt.Errorf("randomizations must not be negative, got %d", params.Randomizations)
	}
	pts := geometry.ContainedPoints(polygon)
	if len(pts) == 0 {
		return nil, fmt.Errorf("region polygon contains no pixels")
	}

	refRaw, err := Density(sets[ref], width, height, pixelSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build reference density: %w", err)
	}
	refPCC, err := blurred(refRaw, params.BlurSigma)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for c := range sets {
		if c == ref {
			continue
		}
		measure := func(cand []*features.Feature) (Coefficients, error) {
			raw, err := Density(cand, width, height, pixelSize)
			if err != nil {
				return Coefficients{}, fmt.Errorf("failed to build density of channel %d: %w", c+1, err)
			}
			forPCC, err := blurred(raw, params.BlurSigma)
			if err != nil {
				return Coefficients{}, err
			}
			m1, m2 := MandersIn(refRaw, raw, pts)
			return Coefficients{PCC: PearsonIn(refPCC, forPCC, pts), MOC1: m1, MOC2: m2}, nil
		}

		pr := PairResult{Ref: ref, Cand: c, Iterations: params.Randomizations}
		if pr.Original, err = measure(sets[c]); err != nil {
			return nil, err
		}

		trials := make([][3]float64, params.Randomizations)
		for t := range trials {
			moved := features.RandomizeOver(sets[c], pts, features.DeriveSeed(seed, t, ref, c, seedStream))
			co, err := measure(moved)
			if err != nil {
				return nil, err
			}
			trials[t] = co.values()
		}
		pr.RandMean, pr.RandStd, pr.TTest = summarize(pr.Original, trials)
		res.Pairs = append(res.Pairs, pr)
	}
	return res, nil
}

func summarize(observed Coefficients, trials [][3]float64) (mean, std, ttest Coefficients) {
	if len(trials) == 0 {
		nan := math.NaN()
		none := Coefficients{PCC: nan, MOC1: nan, MOC2: nan}
		return none, none, none
	}
	obs := observed.values()
	var m, s, p [3]float64
	col := make([]float64, len(trials))
	for k := range obs {
		for t := range trials {
			col[t] = trials[t][k]
		}
		m[k] = stats.Mean(col)
		s[k] = stats.SD(col)
		p[k] = stats.TTest(obs[k], col)
	}
	return fromValues(m), fromValues(s), fromValues(p)
}

func blurred(f *image.Field, sigma float64) (*image.Field, error) {
	if sigma <= 0 {
		return f, nil
	}
	out, err := filter.GaussianBlur(f, sigma)
	if err != nil {
		return nil, fmt.Errorf("failed to blur density image: %w", err)
	}
	return out, nil
}

// Run analyses the SPOTS sets of region and merges the result into its
// property store.
func Run(region *features.Region, params Params, seed int64) (*Result, error) {
	sets := make([][]*features.Feature, region.Channels)
	for c := range sets {
		feats, err := region.Features(c, features.SetSpots)
		if err != nil {
			return nil, err
		}
		sets[c] = feats
	}
	b := region.Bounds()
	res, err := Analyze(sets, region.LocalPolygon(), b.Width, b.Height, region.PixelSize, params, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to analyse colocalization in region %s: %w", region.ID, err)
	}
	region.Merge(res)
	return res, nil
}
