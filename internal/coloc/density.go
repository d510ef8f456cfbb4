package coloc

import (
	"fmt"

	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
)

// Density rasterizes features into a blank width x height field. Every
// interior pixel of every feature takes the larger of its current value and
// the feature's background-subtracted intensity there, so overlapping
// footprints keep their strongest signal. Pixels outside the field are
// ignored.
func Density(feats []*features.Feature, width, height int, pixelSize float64) (*image.Field, error) {
	out := image.NewField(width, height, pixelSize)
	for _, f := range feats {
		vals, err := f.IntensityPixels()
		if err != nil {
			return nil, err
		}
		pts := f.ContainedPoints()
		if len(pts) != len(vals) {
			return nil, fmt.Errorf("feature %d: %d pixels but %d intensities", f.ID, len(pts), len(vals))
		}
		for i, p := range pts {
			if !out.In(p.X, p.Y) {
				continue
			}
			out.Set(p.X, p.Y, max(out.At(p.X, p.Y), vals[i]))
		}
	}
	return out, nil
}
