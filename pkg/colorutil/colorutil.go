// Package colorutil provides the channel display palette shared by feature
// overlays and report charts.
package colorutil

import (
	"fmt"
	"image/color"
)

// Common overlay colors, in channel order.
var (
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Gray    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Palette is the per-channel color cycle.
var Palette = []color.RGBA{Red, Green, Blue, Magenta, Cyan, Yellow}

// Channel returns the display color of a zero-based channel index.
// Negative indices get White.
func Channel(channel int) color.RGBA {
	if channel < 0 {
		return White
	}
	return Palette[channel%len(Palette)]
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Mix blends a toward b; t=0 gives a, t=1 gives b. Alpha is taken from a.
func Mix(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: a.A}
}
