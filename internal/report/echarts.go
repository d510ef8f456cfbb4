package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"spot-analyser/internal/summary"
	"spot-analyser/pkg/colorutil"
)

func barData(values []float64) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

// HistogramPage renders one bar chart per channel pair with data into a
// single HTML page.
func HistogramPage(w io.Writer, title string, hists []summary.HistogramSummary) error {
	page := components.NewPage()
	page.PageTitle = title

	for _, h := range hists {
		if h.Regions == 0 {
			continue
		}
		x := make([]string, len(h.Mean))
		for i := range x {
			if i < len(h.Edges) {
				x[i] = formatValue(h.Edges[i])
			}
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
			charts.WithTitleOpts(opts.Title{Title: h.Key, Subtitle: fmt.Sprintf("regions=%d", h.Regions)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Distance", NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Name: "Fraction"}),
		)
		observed, randomized := pairColors(h.Cand)
		bar.SetXAxis(x).AddSeries("observed", barData(h.Mean),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorutil.Hex(observed)}))
		if len(h.RandMean) > 0 {
			bar.AddSeries("randomized", barData(h.RandMean),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: colorutil.Hex(randomized)}))
		}
		page.AddCharts(bar)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render histogram page: %w", err)
	}
	return nil
}
