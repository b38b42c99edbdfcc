package grid

import "image"

// Region is an axis-aligned rectangle of grid cells.
type Region struct {
	X, Y, W, H int
}

// Empty reports whether the region covers no cells.
func (r Region) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Area returns the number of cells the region covers.
func (r Region) Area() int {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Contains reports whether (x, y) lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Clamp intersects the region with a w x h grid.
func (r Region) Clamp(w, h int) Region {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	if x1 <= x0 || y1 <= y0 {
		return Region{}
	}
	return Region{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Bound returns the smallest region containing every point. An empty point
// list yields an empty region.
func Bound(points []image.Point) Region {
	if len(points) == 0 {
		return Region{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range points[1:] {
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}
	return Region{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}
