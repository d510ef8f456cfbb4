package features

import (
	"fmt"
	"sort"
	"sync"

	"spot-analyser/pkg/geometry"
)

// Result is a typed stage result that can be written into a region's
// property store.
type Result interface {
	// Properties returns the numeric values keyed by their stored names.
	Properties() map[string]float64
}

// ObjectResult is a Result that also carries aggregate values such as
// histograms.
type ObjectResult interface {
	Result
	ObjectProperties() map[string]any
}

type setKey struct {
	channel int
	name    string
}

// Region is a region of interest analysed as one unit (a parent feature).
// It owns the per-channel feature sets and a property store that every
// processing stage writes into. All methods are safe for concurrent use.
type Region struct {
	ID        string              `json:"id"`
	Frame     int                 `json:"frame"`
	Channels  int                 `json:"channels"`
	PixelSize float64             `json:"pixel_size"`
	Polygon   []geometry.PointInt `json:"polygon"` // Image coordinates

	bounds geometry.RectInt
	local  []geometry.PointInt

	mu       sync.RWMutex
	features map[setKey][]*Feature
	numeric  map[string]float64
	objects  map[string]any
}

// NewRegion validates the polygon and derives its bounds and local copy.
func NewRegion(id string, frame, channels int, pixelSize float64, polygon []geometry.PointInt) (*Region, error) {
	if channels < 1 {
		return nil, fmt.Errorf("region %s: need at least one channel, got %d", id, channels)
	}
	if len(polygon) < 3 {
		return nil, fmt.Errorf("region %s: polygon needs at least 3 vertices, got %d", id, len(polygon))
	}
	if pixelSize <= 0 {
		return nil, fmt.Errorf("region %s: pixel size must be positive, got %g", id, pixelSize)
	}
	b := geometry.Bounds(polygon)
	if b.Empty() {
		return nil, fmt.Errorf("region %s: polygon has zero area bounds", id)
	}
	return &Region{
		ID:        id,
		Frame:     frame,
		Channels:  channels,
		PixelSize: pixelSize,
		Polygon:   append([]geometry.PointInt(nil), polygon...),
		bounds:    b,
		local:     geometry.Translate(polygon, -b.X, -b.Y),
		features:  make(map[setKey][]*Feature),
		numeric:   make(map[string]float64),
		objects:   make(map[string]any),
	}, nil
}

// Bounds returns the bounding rectangle of the polygon in image coordinates.
func (r *Region) Bounds() geometry.RectInt {
	return r.bounds
}

// LocalPolygon returns a copy of the polygon translated into the cropped
// coordinates, i.e. shifted by minus the bounds origin.
func (r *Region) LocalPolygon() []geometry.PointInt {
	return append([]geometry.PointInt(nil), r.local...)
}

func (r *Region) checkChannel(channel int) error {
	if channel < 0 || channel >= r.Channels {
		return fmt.Errorf("region %s: %w: %d not in [0, %d)", r.ID, ErrChannelOutOfRange, channel, r.Channels)
	}
	return nil
}

// SetFeatures stores the feature set for a channel, replacing any earlier one.
func (r *Region) SetFeatures(channel int, name string, feats []*Feature) error {
	if err := r.checkChannel(channel); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features[setKey{channel, name}] = feats
	return nil
}

// Features returns the feature set for a channel. A set never stored is
// returned as empty.
func (r *Region) Features(channel int, name string) ([]*Feature, error) {
	if err := r.checkChannel(channel); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.features[setKey{channel, name}], nil
}

// SetNumeric writes a numeric property.
func (r *Region) SetNumeric(key string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numeric[key] = v
}

// Numeric returns a numeric property.
func (r *Region) Numeric(key string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.numeric[key]
	return v, ok
}

// SetObject writes an object property.
func (r *Region) SetObject(key string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[key] = v
}

// Object returns an object property.
func (r *Region) Object(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.objects[key]
	return v, ok
}

// Merge writes every value of a stage result under one lock.
func (r *Region) Merge(res Result) {
	props := res.Properties()
	var objs map[string]any
	if or, ok := res.(ObjectResult); ok {
		objs = or.ObjectProperties()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range props {
		r.numeric[k] = v
	}
	for k, v := range objs {
		r.objects[k] = v
	}
}

// NumericSnapshot returns a copy of the numeric properties.
func (r *Region) NumericSnapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]float64, len(r.numeric))
	for k, v := range r.numeric {
		out[k] = v
	}
	return out
}

// NumericKeys returns the sorted numeric property keys.
func (r *Region) NumericKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.numeric))
	for k := range r.numeric {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ObjectKeys returns the sorted object property keys.
func (r *Region) ObjectKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.objects))
	for k := range r.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
