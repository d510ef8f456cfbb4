package features

import (
	"fmt"
	"math"

	"spot-analyser/pkg/geometry"

	"github.com/valyala/fastrand"
)

// Comparison selects which side of a threshold is kept.
type Comparison int

const (
	// KeepGreaterThan keeps features whose value is strictly above the threshold.
	KeepGreaterThan Comparison = iota
	// KeepLessThan keeps features whose value is strictly below the threshold.
	KeepLessThan
)

// Filter returns the features whose numeric key is strictly on the chosen
// side of threshold. Features equal to the threshold are always dropped.
func Filter(feats []*Feature, key string, threshold float64, cmp Comparison) ([]*Feature, error) {
	out := make([]*Feature, 0, len(feats))
	for _, f := range feats {
		v, err := f.Value(key)
		if err != nil {
			return nil, err
		}
		d := v - threshold
		switch cmp {
		case KeepGreaterThan:
			if d > 0 {
				out = append(out, f)
			}
		case KeepLessThan:
			if d < 0 {
				out = append(out, f)
			}
		default:
			return nil, fmt.Errorf("unknown comparison %d", cmp)
		}
	}
	return out, nil
}

// Values collects one numeric key from every feature, in order.
func Values(feats []*Feature, key string) ([]float64, error) {
	out := make([]float64, len(feats))
	for i, f := range feats {
		v, err := f.Value(key)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ClipToPolygon keeps the features whose centroid, rounded to the nearest
// pixel, lies inside the polygon.
func ClipToPolygon(feats []*Feature, polygon []geometry.PointInt) []*Feature {
	fp := geometry.ToFloat(polygon)
	out := make([]*Feature, 0, len(feats))
	for _, f := range feats {
		p := f.Centroid.Round()
		if geometry.PointInPolygon(geometry.Point2D{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5}, fp) {
			out = append(out, f)
		}
	}
	return out
}

// Duplicate deep-copies a feature set.
func Duplicate(feats []*Feature) []*Feature {
	out := make([]*Feature, len(feats))
	for i, f := range feats {
		out[i] = f.Duplicate()
	}
	return out
}

// Randomize duplicates the set and moves every copy to a pixel drawn
// uniformly, with replacement, from the interior of polygon. The outline is
// translated by the rounded offset and the centroid is placed on the drawn
// pixel. The input set is never modified.
func Randomize(feats []*Feature, polygon []geometry.PointInt, seed int64) ([]*Feature, error) {
	pts := geometry.ContainedPoints(polygon)
	if len(pts) == 0 {
		return nil, fmt.Errorf("polygon contains no pixels")
	}
	return RandomizeOver(feats, pts, seed), nil
}

// RandomizeOver is Randomize with the candidate pixels already enumerated,
// for callers that randomize the same region many times.
func RandomizeOver(feats []*Feature, pts []geometry.PointInt, seed int64) []*Feature {
	rng := NewRNG(seed)
	out := Duplicate(feats)
	n := uint32(len(pts))
	for _, f := range out {
		p := pts[rng.Uint32n(n)]
		dx := int(roundHalfUp(float64(p.X) - f.Centroid.X))
		dy := int(roundHalfUp(float64(p.Y) - f.Centroid.Y))
		f.Translate(dx, dy)
		f.Centroid = p.ToFloat()
	}
	return out
}

// NewRNG returns a generator seeded deterministically from seed. fastrand
// treats a zero state as "reseed from the runtime", so zero is remapped.
func NewRNG(seed int64) *fastrand.RNG {
	s := uint32(seed) ^ uint32(uint64(seed)>>32) ^ 0x9e3779b9
	if s == 0 {
		s = 1
	}
	rng := &fastrand.RNG{}
	rng.Seed(s)
	return rng
}

// DeriveSeed mixes a base seed with task indices so that parallel tasks get
// independent streams.
func DeriveSeed(base int64, parts ...int) int64 {
	h := uint64(base) ^ 0xcbf29ce484222325
	for _, p := range parts {
		h ^= uint64(p) + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
		h *= 0x100000001b3
	}
	return int64(h)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
