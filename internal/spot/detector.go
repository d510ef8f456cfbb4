// Package spot detects small round intensity features inside a region of
// interest and measures their geometry and background-corrected intensity.
//
// Detection is a pure function of a field, a polygon and Params. Fields are
// expected to be already cropped to the region; the returned features live
// in the field's coordinates.
package spot

import (
	"fmt"

	"spot-analyser/internal/features"
	"spot-analyser/internal/filter"
	"spot-analyser/internal/image"
	"spot-analyser/internal/segment"
	"spot-analyser/pkg/geometry"
)

// Detect runs the detector selected by params.
func Detect(raw *image.Field, polygon []geometry.PointInt, params Params) ([]*features.Feature, error) {
	switch params.Detector {
	case DetectorLoG:
		return DetectLoG(raw, polygon, params)
	case DetectorThreshold:
		return DetectThreshold(raw, polygon, params)
	default:
		return nil, fmt.Errorf("unknown detector %d", params.Detector)
	}
}

// DetectLoG finds spots on the LoG-enhanced field and measures them on a
// Gaussian-smoothed copy of the raw field. Features whose rounded centroid
// falls outside polygon are dropped, then the post-filters are applied.
func DetectLoG(raw *image.Field, polygon []geometry.PointInt, params Params) ([]*features.Feature, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if raw.Empty() {
		return nil, nil
	}

	enhanced, err := filter.LoG(raw, params.Sigma(), params.Threshold, params.AbsoluteThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to enhance field: %w", err)
	}
	measure := raw
	if params.MeasureSigma > 0 {
		measure, err = filter.GaussianBlur(raw, params.MeasureSigma)
		if err != nil {
			return nil, fmt.Errorf("failed to smooth measurement field: %w", err)
		}
	}

	mask := filter.Mask(enhanced, 0)
	labels, err := segmentField(enhanced, mask, params.MaximaRadius(), params)
	if err != nil {
		return nil, err
	}

	feats := buildFeatures(labels, measure, raw.PixelSize, params.Connectivity)
	return PostFilter(features.ClipToPolygon(feats, polygon), params)
}

// DetectThreshold finds spots as the pixels strictly above the threshold
// (absolute, or relative to the standard deviation of the raw field) and
// measures them on the raw field.
func DetectThreshold(raw *image.Field, polygon []geometry.PointInt, params Params) ([]*features.Feature, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if raw.Empty() {
		return nil, nil
	}

	cutoff := params.Threshold
	if !params.AbsoluteThreshold {
		cutoff = params.Threshold * filter.StdDev(raw)
	}
	mask := filter.Mask(raw, cutoff)
	landscape := filter.Masked(raw, mask)

	labels, err := segmentField(landscape, mask, thresholdMaximaRadius, params)
	if err != nil {
		return nil, err
	}

	feats := buildFeatures(labels, raw, raw.PixelSize, params.Connectivity)
	return PostFilter(features.ClipToPolygon(feats, polygon), params)
}

// segmentField labels the foreground of mask, either directly or by a
// watershed of the inverted landscape seeded from its local maxima.
func segmentField(landscape, mask *image.Field, radius int, params Params) (*segment.Labels, error) {
	switch params.Segmentation {
	case segment.MethodConnected:
		labels, err := segment.Label(mask, params.Connectivity)
		if err != nil {
			return nil, fmt.Errorf("failed to label components: %w", err)
		}
		return labels, nil

	case segment.MethodWatershed:
		maxFiltered, err := filter.MaxFilter(landscape, radius)
		if err != nil {
			return nil, fmt.Errorf("failed to max-filter field: %w", err)
		}
		markers, err := segment.Maxima(landscape, maxFiltered, params.Connectivity)
		if err != nil {
			return nil, fmt.Errorf("failed to find maxima: %w", err)
		}
		labels, err := segment.Watershed(filter.Invert(landscape), markers, mask, params.Connectivity)
		if err != nil {
			return nil, fmt.Errorf("failed to run watershed: %w", err)
		}
		return labels, nil
	}
	return nil, fmt.Errorf("unknown segmentation method %d", params.Segmentation)
}

// PostFilter drops features at or below the configured minimum area,
// circularity and mean intensity. A minimum of zero disables that filter.
func PostFilter(feats []*features.Feature, params Params) ([]*features.Feature, error) {
	var err error
	prune := []struct {
		key string
		min float64
	}{
		{features.KeyArea, params.MinArea},
		{features.KeyCircularity, params.MinCircularity},
		{features.KeyMeanValue, params.MinMeanIntensity},
	}
	for _, p := range prune {
		if p.min <= 0 {
			continue
		}
		feats, err = features.Filter(feats, p.key, p.min, features.KeepGreaterThan)
		if err != nil {
			return nil, fmt.Errorf("failed to filter on %s: %w", p.key, err)
		}
	}
	return feats, nil
}
