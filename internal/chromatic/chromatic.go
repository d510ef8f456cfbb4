// Package chromatic corrects the lateral chromatic shift between channels
// by translating every channel after the first by a whole number of pixels.
package chromatic

import (
	"fmt"
	"math"

	"spot-analyser/internal/image"
)

// Offset is the displacement of one channel relative to channel 0 in
// physical units.
type Offset struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// PixelShift converts an offset into an integer pixel shift, rounding half
// up.
func PixelShift(o Offset, pixelSize float64) (dx, dy int) {
	return int(math.Floor(o.DX/pixelSize + 0.5)), int(math.Floor(o.DY/pixelSize + 0.5))
}

// Correct returns the channel fields with channel c >= 1 shifted by
// offsets[c-1]. Channel 0 and the input fields are left untouched; pixels
// shifted in from outside the field are zero.
func Correct(fields []*image.Field, offsets []Offset, pixelSize float64) ([]*image.Field, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if pixelSize <= 0 {
		return nil, fmt.Errorf("pixel size must be positive, got %g", pixelSize)
	}
	if len(offsets) != len(fields)-1 {
		return nil, fmt.Errorf("got %d chromatic offsets for %d channels, expected %d", len(offsets), len(fields), len(fields)-1)
	}

	out := make([]*image.Field, len(fields))
	out[0] = fields[0]
	for c := 1; c < len(fields); c++ {
		dx, dy := PixelShift(offsets[c-1], pixelSize)
		if dx == 0 && dy == 0 {
			out[c] = fields[c]
			continue
		}
		out[c] = fields[c].Shift(dx, dy)
	}
	return out, nil
}
