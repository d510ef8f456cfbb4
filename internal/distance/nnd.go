package distance

import (
	"math"

	"spot-analyser/internal/features"
	"spot-analyser/pkg/geometry"
)

// Neighbour is the nearest candidate of one reference feature. IDs are -1
// and distances +Inf when there is no candidate.
type Neighbour struct {
	CentroidDist float64
	CentroidID   int
	EdgeDist     float64
	EdgeID       int
	// Percentage of the reference pixels shared with the nearest edge
	// neighbour
	EdgeOverlap float64
}

// NearestNeighbours scans every candidate for every reference feature.
// Centroid distances are Euclidean in physical units. With edge set, the
// closest pair of pixels between the two footprints is also found by brute
// force, together with the share of overlapping pixel positions.
func NearestNeighbours(ref, cand []*features.Feature, pixelSize float64, edge bool) []Neighbour {
	var refPts, candPts [][]geometry.PointInt
	if edge {
		refPts = footprints(ref)
		candPts = footprints(cand)
	}

	out := make([]Neighbour, len(ref))
	for i, r := range ref {
		nb := Neighbour{
			CentroidDist: math.Inf(1),
			CentroidID:   -1,
			EdgeDist:     math.Inf(1),
			EdgeID:       -1,
		}
		rc := r.Centroid.Scale(pixelSize)
		for j, c := range cand {
			d := rc.Distance(c.Centroid.Scale(pixelSize))
			if d < nb.CentroidDist {
				nb.CentroidDist = d
				nb.CentroidID = c.ID
			}
			if edge {
				de, overlap := closestEdge(refPts[i], candPts[j], pixelSize)
				if de < nb.EdgeDist {
					nb.EdgeDist = de
					nb.EdgeID = c.ID
					nb.EdgeOverlap = overlap
				}
			}
		}
		out[i] = nb
	}
	return out
}

// CentroidDistances returns only the centroid NNDs, skipping the edge scan.
func CentroidDistances(ref, cand []*features.Feature, pixelSize float64) []float64 {
	nbs := NearestNeighbours(ref, cand, pixelSize, false)
	out := make([]float64, len(nbs))
	for i, nb := range nbs {
		out[i] = nb.CentroidDist
	}
	return out
}

func footprints(feats []*features.Feature) [][]geometry.PointInt {
	out := make([][]geometry.PointInt, len(feats))
	for i, f := range feats {
		out[i] = f.ContainedPoints()
	}
	return out
}

// closestEdge returns the smallest pixel-to-pixel distance between two
// footprints in physical units and the percentage of a's pixels that share a
// position with a pixel of b.
func closestEdge(a, b []geometry.PointInt, pixelSize float64) (float64, float64) {
	best := math.Inf(1)
	overlap := 0
	for _, p := range a {
		for _, q := range b {
			dx, dy := p.X-q.X, p.Y-q.Y
			d2 := float64(dx*dx + dy*dy)
			if d2 < best {
				best = d2
			}
			if dx == 0 && dy == 0 {
				overlap++
			}
		}
	}
	pct := math.NaN()
	if len(a) > 0 {
		pct = 100 * float64(overlap) / float64(len(a))
	}
	return math.Sqrt(best) * pixelSize, pct
}

// annotate stores the neighbour of every reference feature on the feature
// itself under the pair keys.
func annotate(ref []*features.Feature, nbs []Neighbour, c1, c2 int, edge bool) {
	cKey := PairKey(PrefixCentroid, c1, c2)
	cID := PairKey(PrefixCentroidID, c1, c2)
	eKey := PairKey(PrefixEdge, c1, c2)
	eID := PairKey(PrefixEdgeID, c1, c2)
	eOvl := PairKey(PrefixEdgeOverlap, c1, c2)
	for i, f := range ref {
		nb := nbs[i]
		f.SetValue(cKey, nb.CentroidDist)
		f.SetValue(cID, float64(nb.CentroidID))
		if edge {
			f.SetValue(eKey, nb.EdgeDist)
			f.SetValue(eID, float64(nb.EdgeID))
			f.SetValue(eOvl, nb.EdgeOverlap)
		}
	}
}
