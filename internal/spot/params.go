package spot

import (
	"fmt"
	"math"
	"strings"

	"spot-analyser/internal/segment"
)

// Detector selects the enhancement applied before segmentation.
type Detector int

const (
	// DetectorLoG enhances spots with a Laplacian of Gaussian filter.
	DetectorLoG Detector = iota
	// DetectorThreshold thresholds the raw field directly.
	DetectorThreshold
)

func (d Detector) String() string {
	switch d {
	case DetectorLoG:
		return "log"
	case DetectorThreshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// ParseDetector maps a configuration name to a Detector.
func ParseDetector(s string) (Detector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "log", "":
		return DetectorLoG, nil
	case "threshold", "threshold-only", "none":
		return DetectorThreshold, nil
	}
	return 0, fmt.Errorf("unknown detector %q", s)
}

// thresholdMaximaRadius is the max-filter radius used to seed the watershed
// of the threshold-only detector.
const thresholdMaximaRadius = 3

// Params holds spot detection parameters.
type Params struct {
	Detector          Detector
	SpotDiameter      float64 // pixels
	Threshold         float64
	AbsoluteThreshold bool
	Segmentation      segment.Method
	Connectivity      int

	// Post-detection pruning, each applied only when > 0
	MinArea          float64
	MinCircularity   float64
	MinMeanIntensity float64

	// Gaussian sigma of the copy of the raw field that intensities are
	// measured on. Not used by the threshold detector.
	MeasureSigma float64
}

// DefaultParams returns the detection defaults.
func DefaultParams() Params {
	return Params{
		Detector:     DetectorLoG,
		SpotDiameter: 5,
		Threshold:    4,
		Segmentation: segment.MethodWatershed,
		Connectivity: 8,
		MeasureSigma: 1.5,
	}
}

// Sigma returns the LoG Gaussian width, half the spot diameter.
func (p Params) Sigma() float64 {
	return p.SpotDiameter / 2
}

// MaximaRadius returns the max-filter radius used to find watershed seeds.
func (p Params) MaximaRadius() int {
	return max(int(math.Ceil(p.SpotDiameter/2)), 1)
}

// WithDiameter returns a copy of params with a different spot diameter.
func (p Params) WithDiameter(d float64) Params {
	p.SpotDiameter = d
	return p
}

// WithThreshold returns a copy of params with a different cutoff.
func (p Params) WithThreshold(t float64, absolute bool) Params {
	p.Threshold = t
	p.AbsoluteThreshold = absolute
	return p
}

// WithSegmentation returns a copy of params with a different segmentation
// strategy and adjacency.
func (p Params) WithSegmentation(m segment.Method, connectivity int) Params {
	p.Segmentation = m
	p.Connectivity = connectivity
	return p
}

// WithPostFilters returns a copy of params with the pruning thresholds set.
func (p Params) WithPostFilters(minArea, minCircularity, minMean float64) Params {
	p.MinArea = minArea
	p.MinCircularity = minCircularity
	p.MinMeanIntensity = minMean
	return p
}

// Validate checks that params can drive a detection.
func (p Params) Validate() error {
	if p.Detector != DetectorLoG && p.Detector != DetectorThreshold {
		return fmt.Errorf("invalid detector %d", p.Detector)
	}
	if p.Detector == DetectorLoG && p.SpotDiameter <= 0 {
		return fmt.Errorf("spot diameter must be positive, got %g", p.SpotDiameter)
	}
	if !segment.ValidConnectivity(p.Connectivity) {
		return fmt.Errorf("connectivity must be 4 or 8, got %d", p.Connectivity)
	}
	if p.Segmentation != segment.MethodConnected && p.Segmentation != segment.MethodWatershed {
		return fmt.Errorf("invalid segmentation method %d", p.Segmentation)
	}
	if p.MeasureSigma < 0 {
		return fmt.Errorf("measure sigma must not be negative, got %g", p.MeasureSigma)
	}
	return nil
}
