package polygon

import (
	"math"

	"NailSegmentation/pkg/model"
)

const (
	DefaultMinArea = 50.0
	// Tolerance is the simplification epsilon as a fraction of the border perimeter.
	Tolerance = 0.01
)

// Extract converts an instance mask into a flattened polygon [x1, y1, x2, y2, ...].
// Only the component with the largest enclosed area is kept. An empty result
// means the mask yields no usable outline.
func Extract(mask model.Mask, minArea float64) []float64 {
	contours := Contours(mask)
	if len(contours) == 0 {
		return nil
	}

	best, bestArea := -1, -1.0
	for i, c := range contours {
		if a := Area(c); a > bestArea {
			best, bestArea = i, a
		}
	}
	if bestArea < minArea {
		return nil
	}

	contour := contours[best]
	approx := Simplify(contour, Tolerance*Perimeter(contour))
	if len(approx) < 3 {
		return nil
	}

	flat := make([]float64, 0, 2*len(approx))
	for _, p := range approx {
		flat = append(flat, float64(p.X), float64(p.Y))
	}

	return flat
}

// Area is the absolute shoelace area of a closed polygon.
func Area(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}

	sum := 0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}

	return math.Abs(float64(sum)) / 2
}

// Perimeter is the length of a closed polygon including the closing edge.
func Perimeter(pts []Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}

	total := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		total += math.Hypot(float64(pts[j].X-pts[i].X), float64(pts[j].Y-pts[i].Y))
	}

	return total
}

// Simplify runs Douglas-Peucker on a closed polygon. The curve is split at the
// first point and the point farthest from it; the first point is always kept
// and the input order is preserved.
func Simplify(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n < 3 {
		return append([]Point(nil), pts...)
	}

	far, farDist := 0, -1.0
	for i := 1; i < n; i++ {
		if d := sqDist(pts[0], pts[i]); d > farDist {
			far, farDist = i, d
		}
	}

	keep := make([]bool, n)
	keep[0], keep[far] = true, true
	reduce(pts, 0, far, epsilon, keep)
	reduce(pts, far, n, epsilon, keep)

	out := make([]Point, 0, n)
	for i, p := range pts {
		if keep[i] {
			out = append(out, p)
		}
	}

	return out
}

// reduce marks the points to keep on the open chain first..last. Index n
// stands for point 0 so the closing half of the curve can be walked.
func reduce(pts []Point, first, last int, epsilon float64, keep []bool) {
	n := len(pts)
	at := func(i int) Point { return pts[i%n] }

	type span struct{ first, last int }
	stack := []span{{first, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.last-s.first < 2 {
			continue
		}

		a, b := at(s.first), at(s.last)
		idx, maxDist := -1, -1.0
		for i := s.first + 1; i < s.last; i++ {
			if d := lineDist(at(i), a, b); d > maxDist {
				idx, maxDist = i, d
			}
		}

		if maxDist > epsilon {
			keep[idx%n] = true
			stack = append(stack, span{idx, s.last}, span{s.first, idx})
		}
	}
}

// lineDist is the distance from p to the line through a and b.
func lineDist(p, a, b Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	if dx == 0 && dy == 0 {
		return math.Sqrt(sqDist(p, a))
	}

	cross := dx*float64(p.Y-a.Y) - dy*float64(p.X-a.X)
	return math.Abs(cross) / math.Hypot(dx, dy)
}

func sqDist(a, b Point) float64 {
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	return dx*dx + dy*dy
}
