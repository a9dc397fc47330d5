package world

import (
	"fmt"
	"math"
)

// Point is a grid coordinate.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns the point offset by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Less orders points row-major (Y first, then X).
func (p Point) Less(o Point) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.X < o.X
}

// Compare orders points row-major and returns -1, 0 or 1.
func (p Point) Compare(o Point) int {
	switch {
	case p.Less(o):
		return -1
	case o.Less(p):
		return 1
	default:
		return 0
	}
}

// Distance returns the Euclidean distance between two grid points.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(float64(o.X-p.X), float64(o.Y-p.Y))
}

// String returns the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Vec2 is a world-space position.
type Vec2 struct {
	X, Y float64
}

// Rect is a half-open rectangle of grid cells.
type Rect struct {
	X, Y          int // Top-left corner position
	Width, Height int // Dimensions in cells
}

// Center returns the center coordinates of the rectangle.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains returns true if the given point is inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty returns true if the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Points enumerates every cell of the rectangle in row-major order.
func (r Rect) Points() []Point {
	if r.Empty() {
		return nil
	}
	points := make([]Point, 0, r.Width*r.Height)
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points
}
