package spot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
	"spot-analyser/internal/segment"
	"spot-analyser/pkg/geometry"
)

// constantField returns a w x h field filled with v.
func constantField(w, h int, v, pixelSize float64) *image.Field {
	f := image.NewField(w, h, pixelSize)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func fillRect(f *image.Field, r geometry.RectInt, v float64) {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			f.Set(x, y, v)
		}
	}
}

func squareOutline(r geometry.RectInt) []geometry.PointInt {
	return geometry.ExpandUnitSteps(geometry.Rectangle(r))
}

func value(t *testing.T, f *features.Feature, key string) float64 {
	t.Helper()
	v, err := f.Value(key)
	require.NoError(t, err)
	return v
}

func TestBuildFeature_BlockOnFlatBackground(t *testing.T) {
	measure := constantField(7, 7, 10, 0.5)
	block := geometry.RectInt{X: 2, Y: 2, Width: 3, Height: 3}
	fillRect(measure, block, 50)
	measure.Set(3, 3, 100)

	f := buildFeature(4, squareOutline(block), measure, 0.5)

	assert.Equal(t, 4, f.ID)
	assert.Equal(t, 10.0, value(t, f, features.KeyBackground))
	assert.Equal(t, 90.0, value(t, f, features.KeyAmplitude))
	assert.InDelta(t, 410.0, value(t, f, features.KeySumIntensity), 1e-9)
	assert.InDelta(t, 410.0/9, value(t, f, features.KeyMeanValue), 1e-9)
	assert.InDelta(t, 3.0, f.Centroid.X, 1e-9)
	assert.InDelta(t, 3.0, f.Centroid.Y, 1e-9)
	assert.InDelta(t, 1.5, value(t, f, features.KeyComX), 1e-9)
	assert.InDelta(t, 3.0, value(t, f, features.KeyComYPix), 1e-9)
	assert.InDelta(t, 9*0.25, value(t, f, features.KeyArea), 1e-9)

	// Midpoint smoothing cuts each of the four corners.
	perim := 8 + 4*math.Sqrt(0.5)
	assert.InDelta(t, perim*0.5, value(t, f, features.KeyPerimeter), 1e-9)
	assert.InDelta(t, 4*math.Pi*9/(perim*perim), value(t, f, features.KeyCircularity), 1e-9)
	assert.Equal(t, 4.0, value(t, f, features.KeyID))

	pix, err := f.IntensityPixels()
	require.NoError(t, err)
	assert.Len(t, pix, 9)
	assert.Equal(t, 90.0, pix[4])
}

func TestBuildFeature_UnitSquare(t *testing.T) {
	measure := constantField(5, 5, 0, 2)
	measure.Set(2, 2, 7)

	f := buildFeature(0, squareOutline(geometry.RectInt{X: 2, Y: 2, Width: 1, Height: 1}), measure, 2)

	assert.InDelta(t, 4.0, value(t, f, features.KeyArea), 1e-12)
	assert.InDelta(t, 1.0, value(t, f, features.KeyCircularity), 1e-12)
	assert.Equal(t, 7.0, value(t, f, features.KeyAmplitude))
	assert.Equal(t, geometry.Point2D{X: 2, Y: 2}, f.Centroid)
}

func TestBuildFeature_NoSignalFallsBackToUnweightedCentre(t *testing.T) {
	measure := constantField(7, 7, 10, 1)
	block := geometry.RectInt{X: 1, Y: 2, Width: 3, Height: 2}

	f := buildFeature(0, squareOutline(block), measure, 1)

	assert.Equal(t, 0.0, value(t, f, features.KeySumIntensity))
	assert.Equal(t, 0.0, value(t, f, features.KeyAmplitude))
	assert.InDelta(t, 2.0, f.Centroid.X, 1e-12)
	assert.InDelta(t, 2.5, f.Centroid.Y, 1e-12)
}

func TestBuildFeature_BackgroundAtFieldEdge(t *testing.T) {
	// The grown ring runs past the field; edge pixels are reused.
	measure := constantField(3, 3, 5, 1)
	measure.Set(0, 0, 20)

	f := buildFeature(0, squareOutline(geometry.RectInt{X: 0, Y: 0, Width: 1, Height: 1}), measure, 1)

	assert.False(t, math.IsNaN(value(t, f, features.KeyBackground)))
	assert.Equal(t, 5.0, value(t, f, features.KeyBackground))
	assert.Equal(t, 15.0, value(t, f, features.KeyAmplitude))
}

func TestPostFilter(t *testing.T) {
	mk := func(id int, area, circ, mean float64) *features.Feature {
		f := features.NewFeature(id, nil, geometry.Point2D{})
		f.SetValue(features.KeyArea, area)
		f.SetValue(features.KeyCircularity, circ)
		f.SetValue(features.KeyMeanValue, mean)
		return f
	}
	set := []*features.Feature{
		mk(0, 1, 0.9, 10),
		mk(1, 5, 0.9, 10),
		mk(2, 5, 0.3, 10),
		mk(3, 5, 0.9, 2),
	}

	got, err := PostFilter(set, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, got, 4, "zero minima disable every filter")

	got, err = PostFilter(set, DefaultParams().WithPostFilters(1, 0.5, 2))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 2.5, p.Sigma())
	assert.Equal(t, 3, p.MaximaRadius())
	assert.Equal(t, 1, p.WithDiameter(0.5).MaximaRadius())
	assert.Equal(t, 2, p.WithDiameter(4).MaximaRadius())

	assert.Error(t, p.WithSegmentation(segment.MethodConnected, 6).Validate())
	assert.Error(t, p.WithDiameter(0).Validate())

	thr := p
	thr.Detector = DetectorThreshold
	assert.NoError(t, thr.WithDiameter(0).Validate())

	d, err := ParseDetector("Threshold")
	require.NoError(t, err)
	assert.Equal(t, DetectorThreshold, d)
	_, err = ParseDetector("hough")
	assert.Error(t, err)
}

func TestDetectChannel_ThresholdConnected(t *testing.T) {
	field := image.NewField(20, 20, 1)
	fillRect(field, geometry.RectInt{X: 12, Y: 12, Width: 2, Height: 2}, 100)
	fillRect(field, geometry.RectInt{X: 2, Y: 2, Width: 2, Height: 2}, 100) // outside the region

	region, err := features.NewRegion("r", 0, 2, 0.5, geometry.Rectangle(geometry.RectInt{X: 10, Y: 10, Width: 6, Height: 6}))
	require.NoError(t, err)

	params := DefaultParams().WithThreshold(50, true).WithSegmentation(segment.MethodConnected, 8)
	params.Detector = DetectorThreshold

	feats, err := DetectChannel(region, 1, field, params)
	require.NoError(t, err)
	require.Len(t, feats, 1)

	f := feats[0]
	assert.InDelta(t, 2.5, f.Centroid.X, 1e-12)
	assert.InDelta(t, 2.5, f.Centroid.Y, 1e-12)
	assert.InDelta(t, 1.0, value(t, f, features.KeyArea), 1e-12)
	assert.Equal(t, 0.0, value(t, f, features.KeyBackground))
	assert.Equal(t, features.ChannelColor(1), f.Color)

	stored, err := region.Features(1, features.SetSpots)
	require.NoError(t, err)
	assert.Equal(t, feats, stored)

	_, err = DetectChannel(region, 2, field, params)
	assert.ErrorIs(t, err, features.ErrChannelOutOfRange)
}

func TestDetectThreshold_ClipsToPolygon(t *testing.T) {
	field := image.NewField(10, 10, 1)
	field.Set(7, 2, 9)

	// Triangle covering the lower-left half.
	tri := []geometry.PointInt{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	params := DefaultParams().WithThreshold(1, true).WithSegmentation(segment.MethodConnected, 4)
	params.Detector = DetectorThreshold

	feats, err := DetectThreshold(field, tri, params)
	require.NoError(t, err)
	assert.Empty(t, feats)

	field.Set(2, 7, 9)
	feats, err = DetectThreshold(field, tri, params)
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, geometry.Point2D{X: 2, Y: 7}, feats[0].Centroid)
}

// blobField draws isotropic Gaussian spots of the given amplitude.
func blobField(w, h int, sigma, amp float64, centres ...geometry.Point2D) *image.Field {
	f := image.NewField(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 0.0
			for _, c := range centres {
				dx, dy := float64(x)-c.X, float64(y)-c.Y
				v += amp * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			}
			f.Set(x, y, v)
		}
	}
	return f
}

func TestDetectLoG_TwoBlobs(t *testing.T) {
	centres := []geometry.Point2D{{X: 6, Y: 6}, {X: 17, Y: 15}}
	field := blobField(24, 22, 1.5, 100, centres...)
	roi := geometry.Rectangle(geometry.RectInt{Width: 24, Height: 22})

	for _, method := range []segment.Method{segment.MethodConnected, segment.MethodWatershed} {
		t.Run(method.String(), func(t *testing.T) {
			params := DefaultParams().WithDiameter(3).WithThreshold(1, true).WithSegmentation(method, 8)
			feats, err := DetectLoG(field, roi, params)
			require.NoError(t, err)
			require.Len(t, feats, 2)

			for i, f := range feats {
				assert.Equal(t, i, f.ID)
				assert.InDelta(t, centres[i].X, f.Centroid.X, 0.25)
				assert.InDelta(t, centres[i].Y, f.Centroid.Y, 0.25)
				assert.Greater(t, value(t, f, features.KeyAmplitude), 0.0)
				assert.Greater(t, value(t, f, features.KeyCircularity), 0.5)
			}
		})
	}
}

func TestDetect_EmptyField(t *testing.T) {
	feats, err := Detect(image.NewField(0, 0, 1), nil, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, feats)
}
