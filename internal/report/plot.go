package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"spot-analyser/internal/summary"
	"spot-analyser/pkg/colorutil"
)

// pairColors returns the observed and randomized line colors of a pair,
// both derived from the candidate channel's display color.
func pairColors(cand int) (observed, randomized color.RGBA) {
	observed = colorutil.Mix(colorutil.Channel(cand), colorutil.Gray, 0.25)
	return observed, colorutil.Mix(observed, colorutil.White, 0.5)
}

func histogramXYs(edges, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if i >= len(edges) {
			break
		}
		pts = append(pts, plotter.XY{X: edges[i], Y: v})
	}
	return pts
}

// PlotHistogram saves the normalized NND histogram of one pair, with the
// randomized mean when present, as an image. The format follows the file
// extension (png, svg, pdf).
func PlotHistogram(h summary.HistogramSummary, path string) error {
	if h.Regions == 0 {
		return fmt.Errorf("pair %s has no histogram data", h.Key)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%d regions)", h.Key, h.Regions)
	p.X.Label.Text = "Distance (bin upper edge)"
	p.Y.Label.Text = "Fraction"

	obs, err := plotter.NewLine(histogramXYs(h.Edges, h.Mean))
	if err != nil {
		return err
	}
	observedColor, randomColor := pairColors(h.Cand)
	obs.Color = observedColor
	obs.Width = vg.Points(1.5)
	p.Add(obs)
	p.Legend.Add("observed", obs)

	if len(h.RandMean) > 0 {
		rnd, err := plotter.NewLine(histogramXYs(h.Edges, h.RandMean))
		if err != nil {
			return err
		}
		rnd.Color = randomColor
		rnd.Width = vg.Points(1)
		rnd.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(rnd)
		p.Legend.Add("randomized", rnd)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
