package summary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analyser/internal/features"
	"spot-analyser/pkg/geometry"
)

func region(t *testing.T, id string) *features.Region {
	t.Helper()
	r, err := features.NewRegion(id, 0, 2, 0.1, geometry.Rectangle(geometry.RectInt{Width: 4, Height: 4}))
	require.NoError(t, err)
	return r
}

func TestHistograms_NormalizedMeanAndSD(t *testing.T) {
	r1 := region(t, "a")
	r1.SetObject("NN_D_C_c_1-2_HIST", []float64{2, 2, 0, 0})
	r1.SetObject("NN_D_C_c_1-2_HISTBINS", []float64{0.5, 1, 1.5, 2})
	r1.SetObject("NN_D_C_c_1-2_HIST_MEAN_RAND", []float64{1, 0, 0, 1})
	r2 := region(t, "b")
	r2.SetObject("NN_D_C_c_1-2_HIST", []float64{0, 4, 0, 0})
	r3 := region(t, "empty")
	r3.SetObject("NN_D_C_c_1-2_HIST", []float64{0, 0, 0, 0})

	got := Histograms([]*features.Region{r1, r2, r3}, 2)
	require.Len(t, got, 2)

	s := got[0]
	assert.Equal(t, "NN_D_C_c_1-2", s.Key)
	assert.Equal(t, 2, s.Regions)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2}, s.Edges)
	assert.InDeltaSlice(t, []float64{0.25, 0.75, 0, 0}, s.Mean, 1e-12)
	assert.InDeltaSlice(t, []float64{math.Sqrt(0.125), math.Sqrt(0.125), 0, 0}, s.SD, 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0, 0, 0.5}, s.RandMean, 1e-12)
	assert.Equal(t, []float64{0, 0, 0, 0}, s.RandSD)

	empty := got[1]
	assert.Equal(t, "NN_D_C_c_2-1", empty.Key)
	assert.Equal(t, 0, empty.Regions)
	assert.Nil(t, empty.Mean)
}

func TestHistograms_SkipsMismatchedBins(t *testing.T) {
	r1 := region(t, "a")
	r1.SetObject("NN_D_C_c_1-2_HIST", []float64{1, 1})
	r2 := region(t, "b")
	r2.SetObject("NN_D_C_c_1-2_HIST", []float64{1, 1, 1})

	got := Histograms([]*features.Region{r1, r2}, 2)
	assert.Equal(t, 1, got[0].Regions)
	assert.Equal(t, []float64{0.5, 0.5}, got[0].Mean)
}

func TestProperties_DropsNonFinite(t *testing.T) {
	r1 := region(t, "a")
	r1.SetNumeric("A", 1)
	r1.SetNumeric("B", math.NaN())
	r2 := region(t, "b")
	r2.SetNumeric("A", 3)

	got := Properties([]*features.Region{r1, r2})
	require.Len(t, got, 2)

	assert.Equal(t, "A", got[0].Key)
	assert.Equal(t, 2, got[0].N)
	assert.Equal(t, 2.0, got[0].Mean)
	assert.InDelta(t, math.Sqrt2, got[0].SD, 1e-12)

	assert.Equal(t, "B", got[1].Key)
	assert.Equal(t, 0, got[1].N)
	assert.True(t, math.IsNaN(got[1].Mean))
}
