// Package measure computes per-channel intensity statistics over the
// interior of a region polygon together with the polygon's shape.
package measure

import (
	"fmt"

	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
	"spot-analyser/internal/stats"
	"spot-analyser/pkg/geometry"
)

// Region property keys. Channel statistics are stored as
// CH_<channel+1><suffix>, e.g. CH_1_CELL_MEAN.
const (
	ChannelPrefix = "CH_"

	SuffixMean   = "_CELL_MEAN"
	SuffixStd    = "_CELL_STD"
	SuffixMedian = "_CELL_MED"
	SuffixMin    = "_CELL_MIN"
	SuffixMax    = "_CELL_MAX"

	KeyArea        = "CELL_AREA"
	KeyPerimeter   = "CELL_PRIM"
	KeyCircularity = "CELL_CIRC"
)

// ChannelStats summarises the pixels of one channel inside the polygon.
type ChannelStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Pixels int     `json:"pixels"`
}

// Result holds the statistics of every channel and the region shape in
// physical units.
type Result struct {
	Channels    []ChannelStats `json:"channels"`
	Area        float64        `json:"area"`
	Perimeter   float64        `json:"perimeter"`
	Circularity float64        `json:"circularity"`
}

// ChannelKey returns the stored key for a channel statistic.
func ChannelKey(channel int, suffix string) string {
	return fmt.Sprintf("%s%d%s", ChannelPrefix, channel+1, suffix)
}

// Properties returns the numeric region properties.
func (r *Result) Properties() map[string]float64 {
	m := make(map[string]float64, len(r.Channels)*5+3)
	for c, s := range r.Channels {
		m[ChannelKey(c, SuffixMean)] = s.Mean
		m[ChannelKey(c, SuffixStd)] = s.Std
		m[ChannelKey(c, SuffixMedian)] = s.Median
		m[ChannelKey(c, SuffixMin)] = s.Min
		m[ChannelKey(c, SuffixMax)] = s.Max
	}
	m[KeyArea] = r.Area
	m[KeyPerimeter] = r.Perimeter
	m[KeyCircularity] = r.Circularity
	return m
}

// Channel computes the statistics of field over the interior pixels of
// polygon. Pixels outside the field are ignored; with none left every
// statistic is NaN.
func Channel(field *image.Field, polygon []geometry.PointInt) ChannelStats {
	pts := geometry.ContainedPoints(polygon)
	vals := make([]float64, 0, len(pts))
	for _, p := range pts {
		if field.In(p.X, p.Y) {
			vals = append(vals, field.At(p.X, p.Y))
		}
	}
	lo, hi := stats.MinMax(vals)
	return ChannelStats{
		Mean:   stats.Mean(vals),
		Std:    stats.SD(vals),
		Median: stats.Median(vals),
		Min:    lo,
		Max:    hi,
		Pixels: len(vals),
	}
}

// Shape returns the area, perimeter and circularity of polygon. Area and
// perimeter are scaled by the pixel size; circularity is computed in pixels.
func Shape(polygon []geometry.PointInt, pixelSize float64) (area, perimeter, circularity float64) {
	fp := geometry.ToFloat(polygon)
	a := geometry.Area(fp)
	p := geometry.Perimeter(fp)
	return a * pixelSize * pixelSize, p * pixelSize, geometry.Circularity(a, p)
}

// Measure computes the result for a region. fields holds one full image
// field per channel, in image coordinates.
func Measure(region *features.Region, fields []*image.Field) (*Result, error) {
	if len(fields) != region.Channels {
		return nil, fmt.Errorf("region %s: got %d channel fields, expected %d", region.ID, len(fields), region.Channels)
	}
	res := &Result{Channels: make([]ChannelStats, len(fields))}
	for c, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("region %s: channel %d has no field", region.ID, c)
		}
		res.Channels[c] = Channel(f, region.Polygon)
	}
	res.Area, res.Perimeter, res.Circularity = Shape(region.Polygon, region.PixelSize)
	return res, nil
}

// Run measures region and merges the result into its property store.
func Run(region *features.Region, fields []*image.Field) (*Result, error) {
	res, err := Measure(region, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to measure region: %w", err)
	}
	region.Merge(res)
	return res, nil
}
