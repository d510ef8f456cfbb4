package coloc

import (
	"spot-analyser/internal/image"
	"spot-analyser/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// Pearson returns the product-moment correlation of the paired samples. A
// constant sample gives NaN.
func Pearson(x, y []float64) float64 {
	return stat.Correlation(x, y, nil)
}

// Manders returns the Manders overlap coefficients of two background-free
// samples: m1 is the share of r's signal where g is positive, m2 the share
// of g's signal where r is positive. A sample with no signal gives NaN.
func Manders(r, g []float64) (m1, m2 float64) {
	var rColoc, rSum, gColoc, gSum float64
	for i := range r {
		rSum += r[i]
		gSum += g[i]
		if g[i] > 0 {
			rColoc += r[i]
		}
		if r[i] > 0 {
			gColoc += g[i]
		}
	}
	return rColoc / rSum, gColoc / gSum
}

// PearsonIn correlates two fields over the given pixels.
func PearsonIn(a, b *image.Field, pts []geometry.PointInt) float64 {
	return Pearson(a.Sample(pts), b.Sample(pts))
}

// MandersIn computes the Manders coefficients over the given pixels.
func MandersIn(a, b *image.Field, pts []geometry.PointInt) (m1, m2 float64) {
	return Manders(a.Sample(pts), b.Sample(pts))
}
