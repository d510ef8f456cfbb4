package spot

import (
	"math"

	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
	"spot-analyser/internal/segment"
	"spot-analyser/internal/stats"
	"spot-analyser/pkg/geometry"
)

// buildFeatures traces every label and measures it on the measure field.
// IDs are assigned in label order starting at 0. Labels without pixels are
// skipped.
func buildFeatures(labels *segment.Labels, measure *image.Field, pixelSize float64, connectivity int) []*features.Feature {
	starts, ok := labels.FirstPixels()
	out := make([]*features.Feature, 0, labels.Count)
	id := 0
	for label := 1; label <= labels.Count; label++ {
		if !ok[label] {
			continue
		}
		outline := geometry.ExpandUnitSteps(labels.OutlineOf(label, starts[label], connectivity))
		out = append(out, buildFeature(id, outline, measure, pixelSize))
		id++
	}
	return out
}

// buildFeature measures one spot. outline must be at pixel-corner
// resolution. Intensities are taken from measure with the local background
// removed and negative values clamped to zero.
func buildFeature(id int, outline []geometry.PointInt, measure *image.Field, pixelSize float64) *features.Feature {
	pts := geometry.ContainedPoints(outline)
	raw := measure.Sample(pts)
	bg := estimateBackground(outline, measure)

	intensity := make([]float64, len(raw))
	var sum, sx, sy float64
	for i, v := range raw {
		v = math.Max(v-bg, 0)
		intensity[i] = v
		sum += v
		sx += float64(pts[i].X) * v
		sy += float64(pts[i].Y) * v
	}

	var com geometry.Point2D
	if sum > 0 {
		com = geometry.Point2D{X: sx / sum, Y: sy / sum}
	} else {
		// No signal left after background removal: unweighted centre.
		fp := make([]geometry.Point2D, len(pts))
		for i, p := range pts {
			fp[i] = p.ToFloat()
		}
		com = geometry.Centroid(fp)
	}

	rawArea := geometry.Area(geometry.ToFloat(outline))
	smoothPerim := geometry.Perimeter(geometry.HalfwayPoints(outline))

	amplitude, mean := 0.0, 0.0
	if len(intensity) > 0 {
		_, amplitude = stats.MinMax(intensity)
		mean = stats.Mean(intensity)
	}

	f := features.NewFeature(id, outline, com)
	f.SetValue(features.KeyAmplitude, amplitude)
	f.SetValue(features.KeyMeanValue, mean)
	f.SetValue(features.KeyBackground, bg)
	f.SetValue(features.KeySumIntensity, sum)
	f.SetValue(features.KeyComX, com.X*pixelSize)
	f.SetValue(features.KeyComY, com.Y*pixelSize)
	f.SetValue(features.KeyComXPix, com.X)
	f.SetValue(features.KeyComYPix, com.Y)
	f.SetValue(features.KeyArea, rawArea*pixelSize*pixelSize)
	f.SetValue(features.KeyPerimeter, smoothPerim*pixelSize)
	f.SetValue(features.KeyCircularity, geometry.Circularity(rawArea, smoothPerim))
	f.SetValue(features.KeyID, float64(id))
	f.SetObject(features.KeyIntensityPix, intensity)
	return f
}

// estimateBackground grows the filled outline by one pixel in every
// direction (8-neighbourhood), traces the grown region and returns the
// median of measure sampled at each of its pixel-corner vertices. Vertices
// past the field edge read the nearest edge pixel.
func estimateBackground(outline []geometry.PointInt, measure *image.Field) float64 {
	b := geometry.Bounds(outline)
	w, h := b.Width+2, b.Height+2
	filled := make([]bool, w*h)
	for _, p := range geometry.ContainedPoints(outline) {
		filled[(p.Y-b.Y+1)*w+(p.X-b.X+1)] = true
	}

	grown := dilate3x3(filled, w, h)
	inside := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && grown[y*w+x]
	}

	start, found := firstPixel(grown, w, h)
	if !found {
		return 0
	}
	ring := segment.TraceOutline(inside, start, 8)
	ring = geometry.ExpandUnitSteps(geometry.Translate(ring, b.X-1, b.Y-1))

	vals := make([]float64, len(ring))
	for i, p := range ring {
		vals[i] = measure.AtClamped(p.X, p.Y)
	}
	return stats.Median(vals)
}

// dilate3x3 sets every pixel that has a set pixel in its 3x3 neighbourhood.
func dilate3x3(mask []bool, w, h int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < w && ny < h {
						out[ny*w+nx] = true
					}
				}
			}
		}
	}
	return out
}

// firstPixel returns the leftmost, then topmost, set pixel.
func firstPixel(mask []bool, w, h int) (geometry.PointInt, bool) {
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if mask[y*w+x] {
				return geometry.PointInt{X: x, Y: y}, true
			}
		}
	}
	return geometry.PointInt{}, false
}
