// Package report writes the results of a run as CSV tables and as NND
// histogram charts (PNG and one interactive HTML page).
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"spot-analyser/internal/features"
	"spot-analyser/internal/summary"
)

// formatValue writes floats in their shortest exact form. Non-finite values
// are written as NaN, Inf and -Inf.
func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteRegions writes one row per region: its id, its frame and every
// numeric property. Columns are the sorted union of the keys; a region
// without a key leaves the cell empty.
func WriteRegions(w io.Writer, regions []*features.Region) error {
	snaps := make([]map[string]float64, len(regions))
	set := make(map[string]struct{})
	for i, r := range regions {
		snaps[i] = r.NumericSnapshot()
		for k := range snaps[i] {
			set[k] = struct{}{}
		}
	}
	keys := sortedKeys(set)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"region_id", "frame"}, keys...)); err != nil {
		return err
	}
	for i, r := range regions {
		row := make([]string, 0, len(keys)+2)
		row = append(row, r.ID, strconv.Itoa(r.Frame))
		for _, k := range keys {
			v, ok := snaps[i][k]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatValue(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFeatures writes one row per detected spot of every region and
// channel. Channels are numbered from 1.
func WriteFeatures(w io.Writer, regions []*features.Region) error {
	type row struct {
		region  string
		channel int
		f       *features.Feature
	}
	var rows []row
	set := make(map[string]struct{})
	for _, r := range regions {
		for c := 0; c < r.Channels; c++ {
			feats, err := r.Features(c, features.SetSpots)
			if err != nil {
				return err
			}
			for _, f := range feats {
				rows = append(rows, row{r.ID, c, f})
				for k := range f.Numeric {
					set[k] = struct{}{}
				}
			}
		}
	}
	keys := sortedKeys(set)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"region_id", "channel", "feature_id"}, keys...)); err != nil {
		return err
	}
	for _, rw := range rows {
		out := make([]string, 0, len(keys)+3)
		out = append(out, rw.region, strconv.Itoa(rw.channel+1), strconv.Itoa(rw.f.ID))
		for _, k := range keys {
			v, ok := rw.f.Numeric[k]
			if !ok {
				out = append(out, "")
				continue
			}
			out = append(out, formatValue(v))
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteProperties writes the cross-region summary of every numeric
// property.
func WriteProperties(w io.Writer, props []summary.PropertySummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", "n", "mean", "sd"}); err != nil {
		return err
	}
	for _, p := range props {
		if err := cw.Write([]string{p.Key, strconv.Itoa(p.N), formatValue(p.Mean), formatValue(p.SD)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHistograms writes one row per bin of every pair summary. The
// randomized columns are empty when the pair was not randomized.
func WriteHistograms(w io.Writer, hists []summary.HistogramSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pair", "regions", "bin_upper", "mean", "sd", "rand_mean", "rand_sd"}); err != nil {
		return err
	}
	for _, h := range hists {
		for i := range h.Mean {
			edge := ""
			if i < len(h.Edges) {
				edge = formatValue(h.Edges[i])
			}
			randMean, randSD := "", ""
			if i < len(h.RandMean) {
				randMean, randSD = formatValue(h.RandMean[i]), formatValue(h.RandSD[i])
			}
			row := []string{h.Key, strconv.Itoa(h.Regions), edge, formatValue(h.Mean[i]), formatValue(h.SD[i]), randMean, randSD}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write %s: %w", h.Key, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
