package segment

import (
	"fmt"

	"spot-analyser/internal/image"
)

// Label labels the connected foreground components of f, where foreground
// is any pixel > 0. Labels are assigned in row-major scan order.
func Label(f *image.Field, connectivity int) (*Labels, error) {
	if !ValidConnectivity(connectivity) {
		return nil, fmt.Errorf("invalid connectivity %d", connectivity)
	}
	out := NewLabels(f.Width, f.Height)
	if f.Empty() {
		return out, nil
	}

	nb := neighbours(connectivity)
	stack := make([]int, 0, 64)
	next := 0

	for i, v := range f.Pix {
		if v <= 0 || out.L[i] != 0 {
			continue
		}
		next++
		out.L[i] = next
		stack = append(stack[:0], i)

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%f.Width, p/f.Width
			for _, d := range nb {
				nx, ny := px+d[0], py+d[1]
				if !f.In(nx, ny) {
					continue
				}
				j := ny*f.Width + nx
				if f.Pix[j] > 0 && out.L[j] == 0 {
					out.L[j] = next
					stack = append(stack, j)
				}
			}
		}
	}
	out.Count = next
	return out, nil
}
