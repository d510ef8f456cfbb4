package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanVarianceSD(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, Mean(xs))
	assert.InDelta(t, 2.5, Variance(xs), 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), SD(xs), 1e-12)

	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(SD(nil)))
	assert.Equal(t, 0.0, SD([]float64{7}))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"odd", []float64{5, 1, 3}, 3},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{9}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]float64(nil), tt.in...)
			assert.Equal(t, tt.want, Median(in))
			assert.Equal(t, tt.in, in, "input must not be reordered")
		})
	}
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -1, 8})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 8.0, hi)

	lo, hi = MinMax(nil)
	assert.True(t, math.IsNaN(lo))
	assert.True(t, math.IsNaN(hi))
}

func TestTTest(t *testing.T) {
	sample := []float64{1, 2, 3, 4, 5}

	// t = 4.2426 with 4 degrees of freedom.
	assert.InDelta(t, 0.013236, TTest(0, sample), 1e-4)
	assert.InDelta(t, 1.0, TTest(3, sample), 1e-9)
	// Symmetric around the sample mean.
	assert.InDelta(t, TTest(6, sample), TTest(0, sample), 1e-9)

	assert.True(t, math.IsNaN(TTest(0, []float64{1})))
	assert.Equal(t, 0.0, TTest(0, []float64{2, 2, 2}))
	assert.True(t, math.IsNaN(TTest(2, []float64{2, 2, 2})))
}

func TestColumnMeanSD(t *testing.T) {
	means, sds := ColumnMeanSD([][]float64{
		{1, 10},
		{3, 10},
	})
	assert.Equal(t, []float64{2, 10}, means)
	assert.InDelta(t, math.Sqrt2, sds[0], 1e-12)
	assert.Equal(t, 0.0, sds[1])

	means, sds = ColumnMeanSD(nil)
	assert.Nil(t, means)
	assert.Nil(t, sds)
}

func TestFinite(t *testing.T) {
	got := Finite([]float64{1, math.NaN(), math.Inf(1), 2, math.Inf(-1)})
	assert.Equal(t, []float64{1, 2}, got)
}
