package geometry

import "math"

// Area returns the absolute polygon area using the shoelace formula.
func Area(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the length of the closed polygon boundary.
func Perimeter(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 2 {
		return 0
	}
	var perim float64
	for i := 0; i < n; i++ {
		perim += polygon[i].Distance(polygon[(i+1)%n])
	}
	return perim
}

// ToFloat converts an integer polygon to floating point.
func ToFloat(polygon []PointInt) []Point2D {
	out := make([]Point2D, len(polygon))
	for i, p := range polygon {
		out[i] = p.ToFloat()
	}
	return out
}

// Translate returns a copy of the polygon shifted by (dx, dy).
func Translate(polygon []PointInt, dx, dy int) []PointInt {
	out := make([]PointInt, len(polygon))
	for i, p := range polygon {
		out[i] = PointInt{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// HalfwayPoints replaces every vertex with the midpoint between it and its
// successor. On pixel-corner outlines this cuts the staircase corners, which
// gives a perimeter closer to the true boundary of small blobs.
func HalfwayPoints(polygon []PointInt) []Point2D {
	n := len(polygon)
	out := make([]Point2D, n)
	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]
		out[i] = Point2D{X: float64(a.X+b.X) / 2, Y: float64(a.Y+b.Y) / 2}
	}
	return out
}

// ExpandUnitSteps inserts vertices so that consecutive points are at most one
// pixel step apart. Segment i contributes |dx|+|dy| points starting at p[i];
// axis-aligned segments therefore get one vertex per pixel edge.
func ExpandUnitSteps(polygon []PointInt) []PointInt {
	n := len(polygon)
	if n < 2 {
		return append([]PointInt(nil), polygon...)
	}
	out := make([]PointInt, 0, n*2)
	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]
		dx := b.X - a.X
		dy := b.Y - a.Y
		d := absInt(dx) + absInt(dy)
		if d == 0 {
			continue
		}
		for k := 0; k < d; k++ {
			t := float64(k) / float64(d)
			out = append(out, PointInt{
				X: a.X + int(math.Round(t*float64(dx))),
				Y: a.Y + int(math.Round(t*float64(dy))),
			})
		}
	}
	return out
}

// ContainedPoints returns the pixels whose centres lie inside the polygon,
// scanned row by row.
func ContainedPoints(polygon []PointInt) []PointInt {
	if len(polygon) < 3 {
		return nil
	}
	fp := ToFloat(polygon)
	b := Bounds(polygon)
	var pts []PointInt
	for y := b.Y; y < b.Y+b.Height; y++ {
		for x := b.X; x < b.X+b.Width; x++ {
			if PointInPolygon(Point2D{X: float64(x) + 0.5, Y: float64(y) + 0.5}, fp) {
				pts = append(pts, PointInt{X: x, Y: y})
			}
		}
	}
	return pts
}

// Circularity returns 4*pi*area/perimeter^2 clamped to 1.
func Circularity(area, perimeter float64) float64 {
	if perimeter == 0 {
		return 0
	}
	c := 4 * math.Pi * area / (perimeter * perimeter)
	return math.Min(c, 1)
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// Rectangle returns the four-corner polygon of a rectangle.
func Rectangle(r RectInt) []PointInt {
	return []PointInt{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
