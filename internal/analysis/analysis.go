// Package analysis runs the full pipeline over the regions of an image:
// optional chromatic correction, spot detection in every channel, region
// measurement, the distance engine and the colocalization engine. Regions
// are independent and run on a bounded worker pool.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spot-analyser/internal/chromatic"
	"spot-analyser/internal/coloc"
	"spot-analyser/internal/config"
	"spot-analyser/internal/distance"
	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
	"spot-analyser/internal/logger"
	"spot-analyser/internal/measure"
	"spot-analyser/internal/spot"
	"spot-analyser/internal/summary"
)

// regionSeedStride separates the seeds of consecutive regions.
const regionSeedStride = 1_000_003

// RegionResult holds the typed stage results of one region. Stages that
// are disabled leave their field nil.
type RegionResult struct {
	Region   *features.Region `json:"region"`
	Spots    []int            `json:"spots"` // Feature count per channel
	Measure  *measure.Result  `json:"measure,omitempty"`
	Distance *distance.Result `json:"distance,omitempty"`
	Coloc    *coloc.Result    `json:"coloc,omitempty"`
	Seed     int64            `json:"seed"`
	Elapsed  time.Duration    `json:"elapsed"`
}

// Result is the outcome of a run. Regions keep the input order.
type Result struct {
	RunID      string                     `json:"run_id"`
	Regions    []RegionResult             `json:"regions"`
	Histograms []summary.HistogramSummary `json:"histograms"`
	Properties []summary.PropertySummary  `json:"properties"`
}

// Options tune a run beyond the analysis configuration.
type Options struct {
	// Run identifier; empty generates a UUID
	RunID  string
	Logger logger.Logger
	// Called from the worker goroutine after each region completes. An
	// error aborts the run.
	OnRegion func(RegionResult) error
}

// RegionSeed returns the base seed of the region at index i.
func RegionSeed(base int64, i int) int64 {
	return base + int64(i)*regionSeedStride
}

// Run analyses every region against the channel fields, which are in image
// coordinates. The context is checked before each region starts; a region
// in progress always runs to completion. The first error stops the run.
func Run(ctx context.Context, regions []*features.Region, fields []*image.Field, cfg *config.Config, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no channel fields")
	}
	if err := cfg.ValidateChannels(len(fields)); err != nil {
		return nil, err
	}

	if cfg.Chromatic.Enabled {
		corrected, err := chromatic.Correct(fields, cfg.Chromatic.Offsets, fields[0].PixelSize)
		if err != nil {
			return nil, fmt.Errorf("failed to apply chromatic correction: %w", err)
		}
		fields = corrected
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	log.Info("analysis", "run started", map[string]interface{}{
		"run":      runID,
		"regions":  len(regions),
		"channels": len(fields),
		"workers":  workers,
	})
	start := time.Now()

	results := make([]RegionResult, len(regions))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := ProcessRegion(region, fields, cfg, RegionSeed(cfg.Seed, i))
			if err != nil {
				log.Error("analysis", err, map[string]interface{}{"region": region.ID})
				return err
			}
			results[i] = res
			log.Debug("analysis", "region done", map[string]interface{}{
				"region":   region.ID,
				"spots":    res.Spots,
				"elapsed":  res.Elapsed.String(),
				"progress": fmt.Sprintf("%d/%d", done.Add(1), len(regions)),
			})
			if opts.OnRegion != nil {
				return opts.OnRegion(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{
		RunID:      runID,
		Regions:    results,
		Histograms: summary.Histograms(regions, len(fields)),
		Properties: summary.Properties(regions),
	}
	log.Info("analysis", "run finished", map[string]interface{}{
		"run":     runID,
		"elapsed": time.Since(start).String(),
	})
	return out, nil
}

// ProcessRegion runs the stages for one region in order: detection in every
// channel, measurement, distance, colocalization. All randomization inside
// the region derives from seed.
func ProcessRegion(region *features.Region, fields []*image.Field, cfg *config.Config, seed int64) (RegionResult, error) {
	start := time.Now()
	res := RegionResult{Region: region, Seed: seed, Spots: make([]int, len(fields))}
	if len(fields) != region.Channels {
		return res, fmt.Errorf("region %s: has %d channels, got %d fields", region.ID, region.Channels, len(fields))
	}

	sp, err := cfg.SpotParams()
	if err != nil {
		return res, err
	}
	for c, f := range fields {
		feats, err := spot.DetectChannel(region, c, f, sp)
		if err != nil {
			return res, err
		}
		res.Spots[c] = len(feats)
	}

	if cfg.Measure.Enabled {
		if res.Measure, err = measure.Run(region, fields); err != nil {
			return res, err
		}
	}
	if cfg.Distance.Enabled && region.Channels > 1 {
		if res.Distance, err = distance.Run(region, cfg.DistanceParams(), seed); err != nil {
			return res, err
		}
	}
	if cfg.Coloc.Enabled && region.Channels > 1 {
		if res.Coloc, err = coloc.Run(region, cfg.ColocParams(), seed); err != nil {
			return res, err
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}
