package report

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analyser/internal/analysis"
	"spot-analyser/internal/features"
	"spot-analyser/internal/summary"
	"spot-analyser/pkg/geometry"
)

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleRegions(t *testing.T) []*features.Region {
	t.Helper()
	sq := geometry.Rectangle(geometry.RectInt{Width: 5, Height: 5})
	a, err := features.NewRegion("a", 0, 2, 0.1, sq)
	require.NoError(t, err)
	a.SetNumeric("X", 1.5)
	a.SetNumeric("Y", math.NaN())
	f := features.NewFeature(3, sq, geometry.Point2D{X: 2, Y: 2})
	f.SetValue(features.KeyArea, 0.25)
	require.NoError(t, a.SetFeatures(1, features.SetSpots, []*features.Feature{f}))

	b, err := features.NewRegion("b", 2, 2, 0.1, sq)
	require.NoError(t, err)
	b.SetNumeric("X", math.Inf(1))
	return []*features.Region{a, b}
}

func sampleHistograms() []summary.HistogramSummary {
	return []summary.HistogramSummary{
		{Key: "NN_D_C_c_1-2", Regions: 2, Edges: []float64{1, 2}, Mean: []float64{0.75, 0.25}, SD: []float64{0.1, 0.1},
			RandMean: []float64{0.5, 0.5}, RandSD: []float64{0, 0}},
		{Key: "NN_D_C_c_2-1"},
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NaN", formatValue(math.NaN()))
	assert.Equal(t, "Inf", formatValue(math.Inf(1)))
	assert.Equal(t, "-Inf", formatValue(math.Inf(-1)))
	assert.Equal(t, "0.1", formatValue(0.1))
	assert.Equal(t, "3", formatValue(3))
}

func TestWriteRegions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRegions(&buf, sampleRegions(t)))

	rows := readCSV(t, buf.String())
	assert.Equal(t, [][]string{
		{"region_id", "frame", "X", "Y"},
		{"a", "0", "1.5", "NaN"},
		{"b", "2", "Inf", ""},
	}, rows)
}

func TestWriteFeatures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFeatures(&buf, sampleRegions(t)))

	rows := readCSV(t, buf.String())
	assert.Equal(t, [][]string{
		{"region_id", "channel", "feature_id", features.KeyArea},
		{"a", "2", "3", "0.25"},
	}, rows)
}

func TestWriteHistograms(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistograms(&buf, sampleHistograms()))

	rows := readCSV(t, buf.String())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"NN_D_C_c_1-2", "2", "1", "0.75", "0.1", "0.5", "0"}, rows[1])
}

func TestWriteProperties(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProperties(&buf, []summary.PropertySummary{{Key: "A", N: 0, Mean: math.NaN(), SD: math.NaN()}}))
	assert.Equal(t, [][]string{{"key", "n", "mean", "sd"}, {"A", "0", "NaN", "NaN"}}, readCSV(t, buf.String()))
}

func TestHistogramPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HistogramPage(&buf, "test", sampleHistograms()))
	html := buf.String()
	assert.Contains(t, html, "NN_D_C_c_1-2")
	assert.NotContains(t, html, "NN_D_C_c_2-1")
}

func TestPlotHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.png")
	require.NoError(t, PlotHistogram(sampleHistograms()[0], path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Error(t, PlotHistogram(sampleHistograms()[1], path))
}

func TestWrite(t *testing.T) {
	regions := sampleRegions(t)
	res := &analysis.Result{
		RunID:      "run-1",
		Regions:    []analysis.RegionResult{{Region: regions[0]}, {Region: regions[1]}},
		Histograms: sampleHistograms(),
		Properties: summary.Properties(regions),
	}
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Write(dir, res, nil))

	for _, name := range []string{RegionsFile, FeaturesFile, PropertiesFile, HistogramsFile, HistogramsPage, "hist_NN_D_C_c_1-2.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(dir, "hist_NN_D_C_c_2-1.png"))
	assert.True(t, os.IsNotExist(err))
}
