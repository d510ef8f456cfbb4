package distance

import (
	"fmt"
	"math"

	"spot-analyser/internal/features"
)

// Params configures the nearest-neighbour engine.
type Params struct {
	// NND cutoff in physical units for the aggregates and PFA
	ThresholdDistance float64
	HistogramMax      float64
	BinWidth          float64
	Randomizations    int
	EdgeDistance      bool
	PFA               bool
	PFAProperties     []string
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		ThresholdDistance: 0.1,
		HistogramMax:      2.0,
		BinWidth:          0.1,
		Randomizations:    3,
		EdgeDistance:      true,
		PFA:               true,
		PFAProperties: []string{
			features.KeyMeanValue,
			features.KeyArea,
			features.KeySumIntensity,
		},
	}
}

// Validate checks the histogram shape and counts.
func (p Params) Validate() error {
	if p.ThresholdDistance < 0 || math.IsNaN(p.ThresholdDistance) {
		return fmt.Errorf("threshold distance must not be negative, got %g", p.ThresholdDistance)
	}
	if p.HistogramMax <= 0 {
		return fmt.Errorf("histogram max must be positive, got %g", p.HistogramMax)
	}
	if p.BinWidth <= 0 || p.BinWidth > p.HistogramMax {
		return fmt.Errorf("bin width must be in (0, %g], got %g", p.HistogramMax, p.BinWidth)
	}
	if p.Randomizations < 0 {
		return fmt.Errorf("randomizations must not be negative, got %d", p.Randomizations)
	}
	return nil
}
