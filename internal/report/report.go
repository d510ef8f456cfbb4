package report

import (
	"fmt"
	"os"
	"path/filepath"

	"spot-analyser/internal/analysis"
	"spot-analyser/internal/features"
	"spot-analyser/internal/logger"
)

// File names written by Write.
const (
	RegionsFile    = "regions.csv"
	FeaturesFile   = "features.csv"
	PropertiesFile = "properties_summary.csv"
	HistogramsFile = "nnd_histograms.csv"
	HistogramsPage = "nnd_histograms.html"
)

// Write creates dir and writes every table and chart of a run into it.
// Pairs without histogram data get no PNG.
func Write(dir string, res *analysis.Result, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	regions := make([]*features.Region, len(res.Regions))
	for i, rr := range res.Regions {
		regions[i] = rr.Region
	}

	tables := []struct {
		name  string
		write func(f *os.File) error
	}{
		{RegionsFile, func(f *os.File) error { return WriteRegions(f, regions) }},
		{FeaturesFile, func(f *os.File) error { return WriteFeatures(f, regions) }},
		{PropertiesFile, func(f *os.File) error { return WriteProperties(f, res.Properties) }},
		{HistogramsFile, func(f *os.File) error { return WriteHistograms(f, res.Histograms) }},
		{HistogramsPage, func(f *os.File) error {
			return HistogramPage(f, "NND histograms "+res.RunID, res.Histograms)
		}},
	}
	for _, t := range tables {
		if err := writeFile(filepath.Join(dir, t.name), t.write); err != nil {
			return err
		}
	}

	plots := 0
	for _, h := range res.Histograms {
		if h.Regions == 0 {
			continue
		}
		if err := PlotHistogram(h, filepath.Join(dir, "hist_"+h.Key+".png")); err != nil {
			return err
		}
		plots++
	}

	log.Info("report", "report written", map[string]interface{}{
		"dir":     dir,
		"regions": len(regions),
		"plots":   plots,
	})
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
