// Package config holds the analysis configuration: detection, distance,
// colocalization, measurement and chromatic correction settings, the base
// seed and the worker count.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"spot-analyser/internal/chromatic"
	"spot-analyser/internal/coloc"
	"spot-analyser/internal/distance"
	"spot-analyser/internal/segment"
	"spot-analyser/internal/spot"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the root analysis configuration. The JSON schema is flat for
// detection and nested per stage.
type Config struct {
	Detector          string  `json:"detector"`
	SpotDiameter      float64 `json:"spot_diameter"`
	Threshold         float64 `json:"threshold"`
	AbsoluteThreshold bool    `json:"absolute_threshold"`
	Segmentation      string  `json:"segmentation"`
	Connectivity      int     `json:"connectivity"`
	MinArea           float64 `json:"min_area"`
	MinCircularity    float64 `json:"min_circularity"`
	MinMeanIntensity  float64 `json:"min_mean_intensity"`
	MeasureSigma      float64 `json:"measure_sigma"`

	Distance  DistanceConfig  `json:"distance"`
	Coloc     ColocConfig     `json:"coloc"`
	Measure   MeasureConfig   `json:"measure"`
	Chromatic ChromaticConfig `json:"chromatic"`

	Seed    int64 `json:"seed"`
	Workers int   `json:"workers"` // 0 uses GOMAXPROCS
}

// DistanceConfig configures the nearest-neighbour stage.
type DistanceConfig struct {
	Enabled           bool     `json:"enabled"`
	EdgeDistance      bool     `json:"edge_distance"`
	PFA               bool     `json:"pfa"`
	ThresholdDistance float64  `json:"threshold_distance"`
	HistogramMax      float64  `json:"histogram_max"`
	BinWidth          float64  `json:"bin_width"`
	Randomizations    int      `json:"randomizations"`
	PFAProperties     []string `json:"pfa_properties"`
}

// ColocConfig configures the colocalization stage.
type ColocConfig struct {
	Enabled          bool    `json:"enabled"`
	ReferenceChannel int     `json:"reference_channel"`
	Randomizations   int     `json:"randomizations"`
	BlurSigma        float64 `json:"blur_sigma"`
}

// MeasureConfig toggles the region intensity measurement.
type MeasureConfig struct {
	Enabled bool `json:"enabled"`
}

// ChromaticConfig holds the shift of every channel after the first.
type ChromaticConfig struct {
	Enabled bool               `json:"enabled"`
	Offsets []chromatic.Offset `json:"offsets"`
}

// Defaults returns the configuration used for every field a file leaves out.
func Defaults() *Config {
	sp := spot.DefaultParams()
	dp := distance.DefaultParams()
	cp := coloc.DefaultParams()
	return &Config{
		Detector:          sp.Detector.String(),
		SpotDiameter:      sp.SpotDiameter,
		Threshold:         sp.Threshold,
		AbsoluteThreshold: sp.AbsoluteThreshold,
		Segmentation:      sp.Segmentation.String(),
		Connectivity:      sp.Connectivity,
		MeasureSigma:      sp.MeasureSigma,
		Distance: DistanceConfig{
			Enabled:           true,
			EdgeDistance:      dp.EdgeDistance,
			PFA:               dp.PFA,
			ThresholdDistance: dp.ThresholdDistance,
			HistogramMax:      dp.HistogramMax,
			BinWidth:          dp.BinWidth,
			Randomizations:    dp.Randomizations,
			PFAProperties:     dp.PFAProperties,
		},
		Coloc: ColocConfig{
			Enabled:          true,
			ReferenceChannel: cp.ReferenceChannel,
			Randomizations:   cp.Randomizations,
			BlurSigma:        cp.BlurSigma,
		},
		Measure: MeasureConfig{Enabled: true},
		Seed:    1,
	}
}

// Load reads a configuration file. The path must have a .json extension and
// the file must be under 1MB. Fields omitted from the file keep their
// defaults, unknown fields are rejected, and the result is validated.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every parameter and reports the first invalid one.
func (c *Config) Validate() error {
	sp, err := c.SpotParams()
	if err != nil {
		return err
	}
	if err := sp.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if c.Threshold < 0 || math.IsNaN(c.Threshold) {
		return fmt.Errorf("threshold must not be negative, got %g", c.Threshold)
	}
	if c.MinArea < 0 || c.MinCircularity < 0 || c.MinMeanIntensity < 0 {
		return fmt.Errorf("post-filter thresholds must not be negative")
	}
	if c.MinCircularity > 1 {
		return fmt.Errorf("min_circularity must be at most 1, got %g", c.MinCircularity)
	}

	if c.Distance.Enabled {
		if err := c.DistanceParams().Validate(); err != nil {
			return fmt.Errorf("distance: %w", err)
		}
	}

	if c.Coloc.Enabled {
		if c.Coloc.ReferenceChannel < 0 {
			return fmt.Errorf("coloc: reference_channel must not be negative, got %d", c.Coloc.ReferenceChannel)
		}
		if c.Coloc.Randomizations < 0 {
			return fmt.Errorf("coloc: randomizations must not be negative, got %d", c.Coloc.Randomizations)
		}
		if c.Coloc.BlurSigma < 0 {
			return fmt.Errorf("coloc: blur_sigma must not be negative, got %g", c.Coloc.BlurSigma)
		}
	}

	for i, o := range c.Chromatic.Offsets {
		if math.IsNaN(o.DX) || math.IsNaN(o.DY) || math.IsInf(o.DX, 0) || math.IsInf(o.DY, 0) {
			return fmt.Errorf("chromatic: offset %d is not finite", i)
		}
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// ValidateChannels checks the channel-dependent settings against the number
// of channels of a project.
func (c *Config) ValidateChannels(channels int) error {
	if c.Coloc.Enabled && c.Coloc.ReferenceChannel >= channels {
		return fmt.Errorf("coloc: reference_channel %d not in [0, %d)", c.Coloc.ReferenceChannel, channels)
	}
	if c.Chromatic.Enabled && len(c.Chromatic.Offsets) != channels-1 {
		return fmt.Errorf("chromatic: got %d offsets for %d channels, expected %d", len(c.Chromatic.Offsets), channels, channels-1)
	}
	return nil
}

// SpotParams converts the detection settings.
func (c *Config) SpotParams() (spot.Params, error) {
	det, err := spot.ParseDetector(c.Detector)
	if err != nil {
		return spot.Params{}, err
	}
	seg, err := segment.ParseMethod(c.Segmentation)
	if err != nil {
		return spot.Params{}, err
	}
	p := spot.DefaultParams()
	p.Detector = det
	p.MeasureSigma = c.MeasureSigma
	p = p.WithDiameter(c.SpotDiameter).
		WithThreshold(c.Threshold, c.AbsoluteThreshold).
		WithSegmentation(seg, c.Connectivity).
		WithPostFilters(c.MinArea, c.MinCircularity, c.MinMeanIntensity)
	return p, nil
}

// DistanceParams converts the distance settings.
func (c *Config) DistanceParams() distance.Params {
	props := c.Distance.PFAProperties
	if props == nil {
		props = distance.DefaultParams().PFAProperties
	}
	return distance.Params{
		ThresholdDistance: c.Distance.ThresholdDistance,
		HistogramMax:      c.Distance.HistogramMax,
		BinWidth:          c.Distance.BinWidth,
		Randomizations:    c.Distance.Randomizations,
		EdgeDistance:      c.Distance.EdgeDistance,
		PFA:               c.Distance.PFA,
		PFAProperties:     append([]string(nil), props...),
	}
}

// ColocParams converts the colocalization settings.
func (c *Config) ColocParams() coloc.Params {
	return coloc.Params{
		ReferenceChannel: c.Coloc.ReferenceChannel,
		Randomizations:   c.Coloc.Randomizations,
		BlurSigma:        c.Coloc.BlurSigma,
	}
}
