// Package stats holds the descriptive statistics and the one-sample t-test
// shared by the distance, colocalization and measurement stages.
//
// Empty samples give NaN rather than an error. A single value has zero
// variance.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean returns the arithmetic mean, or NaN for an empty sample.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Variance returns the bias-corrected sample variance.
func Variance(xs []float64) float64 {
	switch len(xs) {
	case 0:
		return math.NaN()
	case 1:
		return 0
	}
	return stat.Variance(xs, nil)
}

// SD returns the sample standard deviation.
func SD(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// Median returns the middle value, averaging the two central values of an
// even-length sample. The input is not reordered.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Sum returns the sum of the sample.
func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}

// MinMax returns the smallest and largest values, or NaN for both when the
// sample is empty.
func MinMax(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(xs), floats.Max(xs)
}

// TTest returns the two-sided p-value of a one-sample Student t-test of
// the hypothesis that sample has mean mu. Fewer than two values give NaN.
func TTest(mu float64, sample []float64) float64 {
	n := len(sample)
	if n < 2 {
		return math.NaN()
	}
	m, sd := stat.MeanStdDev(sample, nil)
	t := (m - mu) / (sd / math.Sqrt(float64(n)))
	switch {
	case math.IsNaN(t):
		return math.NaN()
	case math.IsInf(t, 0):
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	return 2 * dist.CDF(-math.Abs(t))
}

// ColumnMeanSD treats rows as repeated observations of the same vector and
// returns the per-column mean and sample standard deviation. Rows shorter
// than the first are an error of the caller and panic.
func ColumnMeanSD(rows [][]float64) (means, sds []float64) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := len(rows[0])
	means = make([]float64, cols)
	sds = make([]float64, cols)
	col := make([]float64, len(rows))
	for c := 0; c < cols; c++ {
		for r := range rows {
			col[r] = rows[r][c]
		}
		means[c] = Mean(col)
		sds[c] = SD(col)
	}
	return means, sds
}

// Finite drops NaN and infinite values.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
