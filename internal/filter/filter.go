// Package filter provides the spot-enhancement filters: Gaussian blur, the
// 8-neighbour Laplacian, Laplacian-of-Gaussian enhancement, the morphological
// max filter and thresholding. Convolutions run through OpenCV.
package filter

import (
	"fmt"
	stdimage "image"
	"math"

	"spot-analyser/internal/image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// GaussianBlur smooths the field with the given sigma. The kernel spans
// three sigma on each side and borders replicate the edge pixel. A sigma
// of zero or less returns an unmodified copy.
func GaussianBlur(f *image.Field, sigma float64) (*image.Field, error) {
	if f.Empty() {
		return image.NewField(f.Width, f.Height, f.PixelSize), nil
	}
	if sigma <= 0 {
		return f.Clone(), nil
	}

	src, err := f.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	k := 2*int(math.Ceil(3*sigma)) + 1
	gocv.GaussianBlur(src, &dst, stdimage.Point{X: k, Y: k}, sigma, sigma, gocv.BorderReplicate)

	out, err := image.FromMat(dst, f.PixelSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read blurred field: %w", err)
	}
	return out, nil
}

// Laplacian convolves with the unnormalised 3x3 kernel
//
//	1  1  1
//	1 -8  1
//	1  1  1
func Laplacian(f *image.Field) (*image.Field, error) {
	if f.Empty() {
		return image.NewField(f.Width, f.Height, f.PixelSize), nil
	}

	src, err := f.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer kernel.Close()
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			kernel.SetDoubleAt(y, x, 1)
		}
	}
	kernel.SetDoubleAt(1, 1, -8)

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Filter2D(src, &dst, gocv.MatTypeCV64F, kernel, stdimage.Point{X: -1, Y: -1}, 0, gocv.BorderReplicate)

	return image.FromMat(dst, f.PixelSize)
}

// MaxFilter replaces every pixel with the maximum over a disc of the given
// radius.
func MaxFilter(f *image.Field, radius int) (*image.Field, error) {
	if f.Empty() {
		return image.NewField(f.Width, f.Height, f.PixelSize), nil
	}
	if radius < 1 {
		return f.Clone(), nil
	}

	src, err := f.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	k := 2*radius + 1
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, stdimage.Point{X: k, Y: k})
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, kernel)

	return image.FromMat(dst, f.PixelSize)
}

// LoG enhances spot-like structure: blur, Laplacian, then sign inversion so
// that bright blobs become positive peaks. Pixels at or below the cutoff are
// zeroed, the rest keep their filtered value. With absolute false the cutoff
// is threshold times the standard deviation of the filtered field.
func LoG(f *image.Field, sigma, threshold float64, absolute bool) (*image.Field, error) {
	if f.Empty() {
		return image.NewField(f.Width, f.Height, f.PixelSize), nil
	}

	blurred, err := GaussianBlur(f, sigma)
	if err != nil {
		return nil, fmt.Errorf("failed to blur field: %w", err)
	}
	lap, err := Laplacian(blurred)
	if err != nil {
		return nil, fmt.Errorf("failed to apply laplacian: %w", err)
	}
	Negate(lap)

	cutoff := threshold
	if !absolute {
		cutoff = threshold * StdDev(lap)
	}
	ZeroAtOrBelow(lap, cutoff)
	return lap, nil
}

// Negate multiplies every pixel by -1 in place.
func Negate(f *image.Field) {
	for i, v := range f.Pix {
		f.Pix[i] = -v
	}
}

// ZeroAtOrBelow sets every pixel <= cutoff to zero in place.
func ZeroAtOrBelow(f *image.Field, cutoff float64) {
	for i, v := range f.Pix {
		if v <= cutoff {
			f.Pix[i] = 0
		}
	}
}

// Mask returns a binary field: 1 where the pixel is strictly above cutoff.
func Mask(f *image.Field, cutoff float64) *image.Field {
	out := image.NewField(f.Width, f.Height, f.PixelSize)
	for i, v := range f.Pix {
		if v > cutoff {
			out.Pix[i] = 1
		}
	}
	return out
}

// Masked returns a copy of f with pixels zeroed wherever mask is zero.
func Masked(f, mask *image.Field) *image.Field {
	out := f.Clone()
	for i := range out.Pix {
		if mask.Pix[i] == 0 {
			out.Pix[i] = 0
		}
	}
	return out
}

// Invert maps v to max-v so that peaks become basins.
func Invert(f *image.Field) *image.Field {
	out := f.Clone()
	if len(out.Pix) == 0 {
		return out
	}
	maxV := math.Inf(-1)
	for _, v := range out.Pix {
		if v > maxV {
			maxV = v
		}
	}
	for i, v := range out.Pix {
		out.Pix[i] = maxV - v
	}
	return out
}

// StdDev returns the sample standard deviation of all pixels, or 0 for
// fields with fewer than two pixels.
func StdDev(f *image.Field) float64 {
	if len(f.Pix) < 2 {
		return 0
	}
	return stat.StdDev(f.Pix, nil)
}
