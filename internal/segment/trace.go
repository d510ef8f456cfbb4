package segment

import (
	"spot-analyser/pkg/geometry"
)

// Walking directions on the pixel-corner grid, clockwise on screen (y down).
const (
	dirUp = iota
	dirRight
	dirDown
	dirLeft
)

var stepX = [4]int{0, 1, 0, -1}
var stepY = [4]int{-1, 0, 1, 0}

// TraceOutline follows the outer boundary of the region containing start and
// returns its polygon on pixel corners, one vertex per change of direction.
// start must be the leftmost, then topmost, pixel of the region (see
// Labels.FirstPixels). The region lies to the right of the walking
// direction. With connectivity 8, pixels touching only at a corner belong
// to the same outline.
func TraceOutline(inside func(x, y int) bool, start geometry.PointInt, connectivity int) []geometry.PointInt {
	x, y := start.X, start.Y
	dir := dirRight
	pts := []geometry.PointInt{{X: x, Y: y}}

	for {
		x += stepX[dir]
		y += stepY[dir]

		aheadLeft := inside(leftPixel(x, y, dir))
		aheadRight := inside(rightPixel(x, y, dir))

		var next int
		if connectivity == 4 {
			switch {
			case !aheadRight:
				next = (dir + 1) & 3
			case aheadLeft:
				next = (dir + 3) & 3
			default:
				next = dir
			}
		} else {
			switch {
			case aheadLeft:
				next = (dir + 3) & 3
			case aheadRight:
				next = dir
			default:
				next = (dir + 1) & 3
			}
		}

		if x == start.X && y == start.Y && next == dirRight {
			break
		}
		if next != dir {
			pts = append(pts, geometry.PointInt{X: x, Y: y})
		}
		dir = next
	}
	return pts
}

// OutlineOf traces the region carrying label from its first pixel.
func (l *Labels) OutlineOf(label int, start geometry.PointInt, connectivity int) []geometry.PointInt {
	inside := func(x, y int) bool { return l.At(x, y) == label }
	return TraceOutline(inside, start, connectivity)
}

// leftPixel is the pixel on the left of the edge leaving corner (x, y) in
// direction dir.
func leftPixel(x, y, dir int) (int, int) {
	switch dir {
	case dirUp:
		return x - 1, y - 1
	case dirRight:
		return x, y - 1
	case dirDown:
		return x, y
	default:
		return x - 1, y
	}
}

// rightPixel is the pixel on the right of the edge leaving corner (x, y) in
// direction dir.
func rightPixel(x, y, dir int) (int, int) {
	switch dir {
	case dirUp:
		return x, y - 1
	case dirRight:
		return x, y
	case dirDown:
		return x - 1, y
	default:
		return x - 1, y - 1
	}
}
