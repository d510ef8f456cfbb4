// Package features provides detected spot features, the region-of-interest
// that owns them together with its property store, and the feature-set
// operations used by the statistics engines.
package features

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"spot-analyser/pkg/colorutil"
	"spot-analyser/pkg/geometry"
)

var (
	// ErrMissingProperty is returned when a feature lacks a required key.
	ErrMissingProperty = errors.New("missing property")
	// ErrChannelOutOfRange is returned for channel indices outside [0, channels).
	ErrChannelOutOfRange = errors.New("channel index out of range")
)

// Feature is one detected spot within one channel. Geometry is in the
// cropped (local) coordinates of the owning region.
type Feature struct {
	// Unique within one detection run
	ID int `json:"id"`
	// Closed polygon, one vertex per pixel edge
	Outline []geometry.PointInt `json:"outline"`
	// Sub-pixel, pixel units
	Centroid geometry.Point2D   `json:"centroid"`
	Numeric  map[string]float64 `json:"numeric"`
	Objects  map[string]any     `json:"-"`
	Color    color.RGBA         `json:"-"` // Presentation only
}

// NewFeature creates a feature with empty property maps.
func NewFeature(id int, outline []geometry.PointInt, centroid geometry.Point2D) *Feature {
	return &Feature{
		ID:       id,
		Outline:  outline,
		Centroid: centroid,
		Numeric:  make(map[string]float64),
		Objects:  make(map[string]any),
		Color:    UnassignedColor,
	}
}

// Value returns a numeric property or ErrMissingProperty.
func (f *Feature) Value(key string) (float64, error) {
	v, ok := f.Numeric[key]
	if !ok {
		return 0, fmt.Errorf("feature %d: %w: %s", f.ID, ErrMissingProperty, key)
	}
	return v, nil
}

// SetValue writes a numeric property, replacing any earlier value.
func (f *Feature) SetValue(key string, v float64) {
	f.Numeric[key] = v
}

// Object returns an object property.
func (f *Feature) Object(key string) (any, bool) {
	v, ok := f.Objects[key]
	return v, ok
}

// SetObject writes an object property.
func (f *Feature) SetObject(key string, v any) {
	f.Objects[key] = v
}

// IntensityPixels returns the background-subtracted intensities aligned
// with ContainedPoints.
func (f *Feature) IntensityPixels() ([]float64, error) {
	v, ok := f.Objects[KeyIntensityPix]
	if !ok {
		return nil, fmt.Errorf("feature %d: %w: %s", f.ID, ErrMissingProperty, KeyIntensityPix)
	}
	vals, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("feature %d: %s has type %T", f.ID, KeyIntensityPix, v)
	}
	return vals, nil
}

// ContainedPoints returns the interior pixels of the outline, row by row.
func (f *Feature) ContainedPoints() []geometry.PointInt {
	return geometry.ContainedPoints(f.Outline)
}

// Translate moves the outline by an integer offset. The centroid is left
// to the caller.
func (f *Feature) Translate(dx, dy int) {
	for i := range f.Outline {
		f.Outline[i].X += dx
		f.Outline[i].Y += dy
	}
}

// Duplicate returns a deep copy. Float slices in the object map are copied;
// other object values are shared.
func (f *Feature) Duplicate() *Feature {
	d := &Feature{
		ID:       f.ID,
		Outline:  append([]geometry.PointInt(nil), f.Outline...),
		Centroid: f.Centroid,
		Numeric:  make(map[string]float64, len(f.Numeric)),
		Objects:  make(map[string]any, len(f.Objects)),
		Color:    f.Color,
	}
	for k, v := range f.Numeric {
		d.Numeric[k] = v
	}
	for k, v := range f.Objects {
		if vals, ok := v.([]float64); ok {
			d.Objects[k] = append([]float64(nil), vals...)
			continue
		}
		d.Objects[k] = v
	}
	return d
}

// NumericKeys returns the sorted numeric property keys.
func (f *Feature) NumericKeys() []string {
	keys := make([]string, 0, len(f.Numeric))
	for k := range f.Numeric {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnassignedColor is used for features not yet tied to a channel.
var UnassignedColor = colorutil.White

// ChannelColor returns the display colour for a channel.
func ChannelColor(channel int) color.RGBA {
	return colorutil.Channel(channel)
}
