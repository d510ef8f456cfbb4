// Package segment turns an enhanced field into labelled regions: connected
// component labelling, local-maximum seeds, marker-controlled watershed, and
// boundary tracing of the resulting labels.
package segment

import (
	"fmt"

	"spot-analyser/internal/image"
	"spot-analyser/pkg/geometry"
)

// Method selects the segmentation strategy.
type Method int

const (
	// MethodConnected labels connected foreground components.
	MethodConnected Method = iota
	// MethodWatershed floods from local maxima within the foreground.
	MethodWatershed
)

func (m Method) String() string {
	switch m {
	case MethodConnected:
		return "connected"
	case MethodWatershed:
		return "watershed"
	default:
		return "unknown"
	}
}

// ParseMethod parses "connected" or "watershed".
func ParseMethod(s string) (Method, error) {
	switch s {
	case "connected":
		return MethodConnected, nil
	case "watershed":
		return MethodWatershed, nil
	default:
		return 0, fmt.Errorf("unknown segmentation method %q", s)
	}
}

// Labels is a label image. Zero is background; regions are numbered 1..Count.
type Labels struct {
	Width  int
	Height int
	L      []int
	Count  int
}

// NewLabels allocates an all-background label image.
func NewLabels(width, height int) *Labels {
	return &Labels{Width: width, Height: height, L: make([]int, width*height)}
}

// At returns the label at (x, y), or 0 outside the image.
func (l *Labels) At(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return l.L[y*l.Width+x]
}

// Sizes returns the pixel count of every label, indexed by label.
func (l *Labels) Sizes() []int {
	sizes := make([]int, l.Count+1)
	for _, v := range l.L {
		sizes[v]++
	}
	return sizes
}

// FirstPixels returns, for each label 1..Count, the first pixel met when
// scanning columns left to right and each column top to bottom. That pixel
// is the leftmost, then topmost, of its region. Index 0 is unused; labels
// with no pixels keep ok=false.
func (l *Labels) FirstPixels() (starts []geometry.PointInt, ok []bool) {
	starts = make([]geometry.PointInt, l.Count+1)
	ok = make([]bool, l.Count+1)
	for x := 0; x < l.Width; x++ {
		for y := 0; y < l.Height; y++ {
			v := l.L[y*l.Width+x]
			if v > 0 && !ok[v] {
				starts[v] = geometry.PointInt{X: x, Y: y}
				ok[v] = true
			}
		}
	}
	return starts, ok
}

// Field converts the labels to a field of label values.
func (l *Labels) Field() *image.Field {
	f := image.NewField(l.Width, l.Height, 1)
	for i, v := range l.L {
		f.Pix[i] = float64(v)
	}
	return f
}

// neighbours returns the pixel offsets for 4- or 8-connectivity.
func neighbours(connectivity int) [][2]int {
	if connectivity == 4 {
		return [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	}
	return [][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
}

// ValidConnectivity reports whether c is 4 or 8.
func ValidConnectivity(c int) bool {
	return c == 4 || c == 8
}
