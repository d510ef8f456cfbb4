package segment

import (
	"container/heap"
	"fmt"

	"spot-analyser/internal/image"
)

// Maxima marks the pixels of f that are positive and unchanged by the max
// filter, then labels them so that flat plateaus become a single seed.
func Maxima(f, maxFiltered *image.Field, connectivity int) (*Labels, error) {
	if f.Width != maxFiltered.Width || f.Height != maxFiltered.Height {
		return nil, fmt.Errorf("size mismatch: field %dx%d, max filter %dx%d",
			f.Width, f.Height, maxFiltered.Width, maxFiltered.Height)
	}
	seeds := image.NewField(f.Width, f.Height, f.PixelSize)
	for i, v := range f.Pix {
		if v > 0 && v == maxFiltered.Pix[i] {
			seeds.Pix[i] = 1
		}
	}
	return Label(seeds, connectivity)
}

// Watershed floods the landscape from the marker labels, restricted to
// pixels where mask > 0. Lower landscape values flood first; equal values
// are processed in the order they were queued. Every reachable mask pixel
// takes the label of the region that reaches it first. Mask pixels not
// connected to any marker stay 0.
func Watershed(landscape *image.Field, markers *Labels, mask *image.Field, connectivity int) (*Labels, error) {
	if !ValidConnectivity(connectivity) {
		return nil, fmt.Errorf("invalid connectivity %d", connectivity)
	}
	w, h := landscape.Width, landscape.Height
	if markers.Width != w || markers.Height != h || mask.Width != w || mask.Height != h {
		return nil, fmt.Errorf("size mismatch between landscape, markers and mask")
	}

	out := NewLabels(w, h)
	out.Count = markers.Count
	queued := make([]bool, w*h)
	nb := neighbours(connectivity)

	pq := &floodQueue{}
	var seq int64

	push := func(x, y, label int) {
		for _, d := range nb {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if queued[j] || out.L[j] != 0 || mask.Pix[j] <= 0 {
				continue
			}
			queued[j] = true
			heap.Push(pq, floodItem{index: j, label: label, value: landscape.Pix[j], seq: seq})
			seq++
		}
	}

	for i, lbl := range markers.L {
		if lbl > 0 && mask.Pix[i] > 0 {
			out.L[i] = lbl
			queued[i] = true
		}
	}
	for i, lbl := range out.L {
		if lbl > 0 {
			push(i%w, i/w, lbl)
		}
	}

	for pq.Len() > 0 {
		it := heap.Pop(pq).(floodItem)
		out.L[it.index] = it.label
		push(it.index%w, it.index/w, it.label)
	}

	return out, nil
}

type floodItem struct {
	index int
	label int
	value float64
	seq   int64
}

type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }

func (q floodQueue) Less(i, j int) bool {
	if q[i].value != q[j].value {
		return q[i].value < q[j].value
	}
	return q[i].seq < q[j].seq
}

func (q floodQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *floodQueue) Push(x any) { *q = append(*q, x.(floodItem)) }

func (q *floodQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
