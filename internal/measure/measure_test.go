package measure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
	"spot-analyser/pkg/geometry"
)

// gradient returns a field whose value at (x, y) is x + 10y + offset.
func gradient(w, h int, offset float64) *image.Field {
	f := image.NewField(w, h, 0.5)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, float64(x+10*y)+offset)
		}
	}
	return f
}

func TestChannel_RectangleStats(t *testing.T) {
	poly := geometry.Rectangle(geometry.RectInt{X: 1, Y: 1, Width: 3, Height: 2})
	s := Channel(gradient(5, 4, 0), poly)

	assert.Equal(t, 6, s.Pixels)
	assert.InDelta(t, 17.0, s.Mean, 1e-12)
	assert.InDelta(t, 17.0, s.Median, 1e-12)
	assert.Equal(t, 11.0, s.Min)
	assert.Equal(t, 23.0, s.Max)
	assert.InDelta(t, math.Sqrt(154.0/5), s.Std, 1e-12)
}

func TestChannel_IgnoresPixelsOutsideField(t *testing.T) {
	poly := geometry.Rectangle(geometry.RectInt{X: -1, Y: -1, Width: 2, Height: 2})
	s := Channel(gradient(3, 3, 7), poly)
	assert.Equal(t, 1, s.Pixels)
	assert.Equal(t, 7.0, s.Mean)
	assert.Equal(t, 0.0, s.Std)
}

func TestChannel_NoPixels(t *testing.T) {
	poly := geometry.Rectangle(geometry.RectInt{X: 10, Y: 10, Width: 2, Height: 2})
	s := Channel(gradient(3, 3, 0), poly)
	assert.Equal(t, 0, s.Pixels)
	assert.True(t, math.IsNaN(s.Mean))
	assert.True(t, math.IsNaN(s.Min))
	assert.True(t, math.IsNaN(s.Median))
}

func TestShape_ScalesByPixelSize(t *testing.T) {
	poly := geometry.Rectangle(geometry.RectInt{X: 1, Y: 1, Width: 3, Height: 2})
	area, perim, circ := Shape(poly, 0.5)
	assert.InDelta(t, 1.5, area, 1e-12)
	assert.InDelta(t, 5.0, perim, 1e-12)
	assert.InDelta(t, 4*math.Pi*6/100, circ, 1e-12)
}

func TestRun_MergesKeys(t *testing.T) {
	poly := geometry.Rectangle(geometry.RectInt{X: 1, Y: 1, Width: 3, Height: 2})
	region, err := features.NewRegion("cell", 0, 2, 0.5, poly)
	require.NoError(t, err)

	res, err := Run(region, []*image.Field{gradient(5, 4, 0), gradient(5, 4, 100)})
	require.NoError(t, err)
	require.Len(t, res.Channels, 2)

	assert.Equal(t, []string{
		"CELL_AREA", "CELL_CIRC", "CELL_PRIM",
		"CH_1_CELL_MAX", "CH_1_CELL_MEAN", "CH_1_CELL_MED", "CH_1_CELL_MIN", "CH_1_CELL_STD",
		"CH_2_CELL_MAX", "CH_2_CELL_MEAN", "CH_2_CELL_MED", "CH_2_CELL_MIN", "CH_2_CELL_STD",
	}, region.NumericKeys())

	v, ok := region.Numeric(ChannelKey(1, SuffixMean))
	require.True(t, ok)
	assert.InDelta(t, 117.0, v, 1e-12)
}

func TestMeasure_FieldCountMismatch(t *testing.T) {
	poly := geometry.Rectangle(geometry.RectInt{Width: 2, Height: 2})
	region, err := features.NewRegion("cell", 0, 2, 1, poly)
	require.NoError(t, err)

	_, err = Measure(region, []*image.Field{gradient(2, 2, 0)})
	assert.Error(t, err)
	_, err = Measure(region, []*image.Field{gradient(2, 2, 0), nil})
	assert.Error(t, err)
}
