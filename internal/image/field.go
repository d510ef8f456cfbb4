// Package image provides single-channel pixel fields, image loading, and
// conversion to and from OpenCV matrices.
package image

import (
	"fmt"

	"spot-analyser/pkg/geometry"
)

// Field is one channel of one time point as a row-major float64 array.
// PixelSize is the physical length of one pixel (e.g. micrometres).
type Field struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	PixelSize float64   `json:"pixel_size"`
	Pix       []float64 `json:"-"`
}

// NewField allocates a zeroed field.
func NewField(width, height int, pixelSize float64) *Field {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if pixelSize <= 0 {
		pixelSize = 1
	}
	return &Field{
		Width:     width,
		Height:    height,
		PixelSize: pixelSize,
		Pix:       make([]float64, width*height),
	}
}

// FromRows builds a field from rows of values; rows must have equal length.
func FromRows(rows [][]float64, pixelSize float64) (*Field, error) {
	if len(rows) == 0 {
		return NewField(0, 0, pixelSize), nil
	}
	w := len(rows[0])
	f := NewField(w, len(rows), pixelSize)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d values, expected %d", y, len(row), w)
		}
		copy(f.Pix[y*w:(y+1)*w], row)
	}
	return f, nil
}

// Empty reports whether the field has zero area.
func (f *Field) Empty() bool {
	return f == nil || f.Width == 0 || f.Height == 0
}

// In reports whether (x, y) is inside the field.
func (f *Field) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// At returns the value at (x, y), or 0 outside the field.
func (f *Field) At(x, y int) float64 {
	if !f.In(x, y) {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// AtClamped returns the value at (x, y) with coordinates clamped to the edge.
func (f *Field) AtClamped(x, y int) float64 {
	if f.Empty() {
		return 0
	}
	x = clamp(x, 0, f.Width-1)
	y = clamp(y, 0, f.Height-1)
	return f.Pix[y*f.Width+x]
}

// Set writes v at (x, y); writes outside the field are ignored.
func (f *Field) Set(x, y int, v float64) {
	if !f.In(x, y) {
		return
	}
	f.Pix[y*f.Width+x] = v
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	out := &Field{Width: f.Width, Height: f.Height, PixelSize: f.PixelSize}
	out.Pix = append([]float64(nil), f.Pix...)
	return out
}

// Bounds returns the field rectangle in its own coordinates.
func (f *Field) Bounds() geometry.RectInt {
	return geometry.RectInt{Width: f.Width, Height: f.Height}
}

// Crop copies the part of the field inside r. Pixels of r outside the
// field are zero.
func (f *Field) Crop(r geometry.RectInt) *Field {
	out := NewField(r.Width, r.Height, f.PixelSize)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			out.Pix[y*out.Width+x] = f.At(r.X+x, r.Y+y)
		}
	}
	return out
}

// Shift returns a copy translated by (dx, dy) pixels. Pixels shifted in from
// outside the field are zero.
func (f *Field) Shift(dx, dy int) *Field {
	out := NewField(f.Width, f.Height, f.PixelSize)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			out.Pix[y*f.Width+x] = f.At(x-dx, y-dy)
		}
	}
	return out
}

// Sample returns the values at the given points, in order.
func (f *Field) Sample(points []geometry.PointInt) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = f.At(p.X, p.Y)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
