package polygon

import "NailSegmentation/pkg/model"

type Point struct {
	X int
	Y int
}

// Neighbour offsets, counterclockwise on screen starting east (y grows downwards).
var (
	dirX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dirY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
)

// Contours returns the outer border of every 8-connected foreground component,
// compressed to the corners of horizontal, vertical and diagonal runs.
// Components are ordered by their top-left pixel in raster order; holes are ignored.
func Contours(mask model.Mask) [][]Point {
	w, h := mask.Width, mask.Height
	if w <= 0 || h <= 0 || len(mask.Pix) < w*h {
		return nil
	}

	visited := make([]bool, w*h)
	var contours [][]Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if visited[i] || mask.Pix[i] == 0 {
				continue
			}
			fill(mask, visited, x, y)
			contours = append(contours, compress(traceBorder(mask, x, y)))
		}
	}

	return contours
}

func fill(mask model.Mask, visited []bool, x0, y0 int) {
	w := mask.Width
	stack := []Point{{x0, y0}}
	visited[y0*w+x0] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for d := 0; d < 8; d++ {
			nx, ny := p.X+dirX[d], p.Y+dirY[d]
			if !mask.At(nx, ny) || visited[ny*w+nx] {
				continue
			}
			visited[ny*w+nx] = true
			stack = append(stack, Point{nx, ny})
		}
	}
}

// traceBorder follows the outer border of the component whose top-left pixel
// is (x0, y0). The west neighbour of that pixel is always background.
func traceBorder(mask model.Mask, x0, y0 int) []Point {
	start := Point{x0, y0}

	// Clockwise from west for the last border pixel before returning to start.
	first := -1
	for k := 1; k < 8; k++ {
		d := (4 - k + 8) % 8
		if mask.At(x0+dirX[d], y0+dirY[d]) {
			first = d
			break
		}
	}
	if first < 0 {
		return []Point{start}
	}

	last := Point{x0 + dirX[first], y0 + dirY[first]}
	cur := start
	back := first
	limit := 4*mask.Width*mask.Height + 8

	border := make([]Point, 0, 64)
	for n := 0; n < limit; n++ {
		next, dir := cur, back
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if mask.At(cur.X+dirX[d], cur.Y+dirY[d]) {
				next = Point{cur.X + dirX[d], cur.Y + dirY[d]}
				dir = d
				break
			}
		}

		border = append(border, cur)
		if next == start && cur == last {
			break
		}

		cur = next
		back = (dir + 4) % 8
	}

	return border
}

// compress drops points lying inside a straight run of a closed border.
func compress(pts []Point) []Point {
	n := len(pts)
	if n < 3 {
		return pts
	}

	out := make([]Point, 0, n/2+1)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		if cur.X-prev.X != next.X-cur.X || cur.Y-prev.Y != next.Y-cur.Y {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		return pts[:1]
	}

	return out
}
