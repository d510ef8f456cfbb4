package distance

import (
	"math"
)

// Histogram counts values in fixed-width bins covering [0, max). Values at
// or past max, and non-finite values, land in the last bin.
type Histogram struct {
	Counts []float64 `json:"counts"`
	// Upper edge of each bin
	Edges []float64 `json:"edges"`
}

// BinCount returns ceil(hmax/width), ignoring floating point noise in the
// division.
func BinCount(hmax, width float64) int {
	n := int(math.Ceil(hmax/width - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// BinEdges returns the upper edge of every bin: width, 2*width, ...
func BinEdges(hmax, width float64) []float64 {
	n := BinCount(hmax, width)
	edges := make([]float64, n)
	for i := range edges {
		edges[i] = width*float64(i) + width
	}
	return edges
}

// NewHistogram bins values. The counts always sum to len(values).
func NewHistogram(values []float64, hmax, width float64) Histogram {
	n := BinCount(hmax, width)
	h := Histogram{
		Counts: make([]float64, n),
		Edges:  BinEdges(hmax, width),
	}
	for _, v := range values {
		h.Counts[binIndex(v, hmax, n)]++
	}
	return h
}

func binIndex(v, hmax float64, n int) int {
	if math.IsNaN(v) || v >= hmax {
		return n - 1
	}
	if v <= 0 {
		return 0
	}
	return min(int(math.Floor(float64(n)*v/hmax)), n-1)
}

// Total returns the sum of the counts.
func (h Histogram) Total() float64 {
	var s float64
	for _, c := range h.Counts {
		s += c
	}
	return s
}

// Normalized returns the counts scaled to unit sum, or nil when empty.
func (h Histogram) Normalized() []float64 {
	total := h.Total()
	if total == 0 {
		return nil
	}
	out := make([]float64, len(h.Counts))
	for i, c := range h.Counts {
		out[i] = c / total
	}
	return out
}
