// Package raster turns shape descriptions into the grid cells they cover.
//
// Every function returns cell coordinates in drawing order. Results are not
// clipped to any canvas; history.Paint drops cells outside the document.
package raster

import (
	"image"
	"math"
)

// QuadSteps is the number of segments a quadratic curve is sampled with.
const QuadSteps = 200

// Line returns the cells of the line from (x0,y0) to (x1,y1), both
// endpoints included, using Bresenham's algorithm.
func Line(x0, y0, x1, y1 int) []image.Point {
	dx, sx := abs(x1-x0), sign(x0, x1)
	dy, sy := -abs(y1-y0), sign(y0, y1)
	err := dx + dy

	pts := make([]image.Point, 0, max(dx, -dy)+1)
	for {
		pts = append(pts, image.Pt(x0, y0))
		if x0 == x1 && y0 == y1 {
			return pts
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Polyline joins consecutive points with lines. Shared vertices appear once.
func Polyline(pts ...image.Point) []image.Point {
	switch len(pts) {
	case 0:
		return nil
	case 1:
		return []image.Point{pts[0]}
	}
	out := []image.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		seg := Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y)
		out = append(out, seg[1:]...)
	}
	return out
}

// Rect returns the outline of the rectangle with corners (x0,y0) and
// (x1,y1), inclusive, in either order. Each cell appears once.
func Rect(x0, y0, x1, y1 int) []image.Point {
	r := image.Rect(x0, y0, x1, y1) // canonicalizes min/max
	minX, minY, maxX, maxY := r.Min.X, r.Min.Y, r.Max.X, r.Max.Y

	pts := make([]image.Point, 0, 2*(maxX-minX+1)+2*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		pts = append(pts, image.Pt(x, minY))
	}
	if maxY == minY {
		return pts
	}
	for y := minY + 1; y <= maxY; y++ {
		pts = append(pts, image.Pt(maxX, y))
	}
	if maxX == minX {
		return pts
	}
	for x := maxX - 1; x >= minX; x-- {
		pts = append(pts, image.Pt(x, maxY))
	}
	for y := maxY - 1; y > minY; y-- {
		pts = append(pts, image.Pt(minX, y))
	}
	return pts
}

// FillRect returns every cell of the rectangle with corners (x0,y0) and
// (x1,y1), inclusive, row by row.
func FillRect(x0, y0, x1, y1 int) []image.Point {
	r := image.Rect(x0, y0, x1, y1)
	pts := make([]image.Point, 0, (r.Dx()+1)*(r.Dy()+1))
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			pts = append(pts, image.Pt(x, y))
		}
	}
	return pts
}

// Circle returns the outline of the circle of radius r around (cx,cy)
// using the midpoint algorithm. Each cell appears once. A negative radius
// yields nothing; radius 0 is the center cell.
func Circle(cx, cy, r int) []image.Point {
	if r < 0 {
		return nil
	}
	seen := make(map[image.Point]struct{})
	var pts []image.Point
	add := func(x, y int) {
		p := image.Pt(x, y)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		pts = append(pts, p)
	}

	x, y, err := r, 0, 0
	for x >= y {
		add(cx+x, cy+y)
		add(cx+y, cy+x)
		add(cx-y, cy+x)
		add(cx-x, cy+y)
		add(cx-x, cy-y)
		add(cx-y, cy-x)
		add(cx+y, cy-x)
		add(cx+x, cy-y)

		y++
		if err <= 0 {
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
	return pts
}

// Quad samples the quadratic Bezier curve from (x0,y0) through control
// point (cx,cy) to (x1,y1) at QuadSteps+1 positions. Consecutive samples
// landing on the same cell are reported once.
func Quad(x0, y0, cx, cy, x1, y1 int) []image.Point {
	pts := make([]image.Point, 0, QuadSteps/4)
	for i := 0; i <= QuadSteps; i++ {
		t := float64(i) / QuadSteps
		u := 1 - t
		xt := u*u*float64(x0) + 2*u*t*float64(cx) + t*t*float64(x1)
		yt := u*u*float64(y0) + 2*u*t*float64(cy) + t*t*float64(y1)
		p := image.Pt(round(xt), round(yt))
		if n := len(pts); n > 0 && pts[n-1] == p {
			continue
		}
		pts = append(pts, p)
	}
	return pts
}

// round rounds half up, so -0.5 becomes 0 rather than -1.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(from, to int) int {
	if from < to {
		return 1
	}
	return -1
}
