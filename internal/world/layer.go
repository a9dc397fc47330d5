package world

import (
	"slices"

	"github.com/zyedidia/generic/mapset"
)

// Layer is a tile provider for one terrain layer.
// It enumerates the occupied cells inside a rectangular bound.
type Layer interface {
	// Bounds returns the rectangle that covers every occupied cell.
	Bounds() Rect
	// OccupiedCells returns the occupied cells inside bounds.
	OccupiedCells(bounds Rect) []Point
}

// Grid is an in-memory Layer backed by a set of occupied cells.
type Grid struct {
	cells  mapset.Set[Point]
	bounds Rect
}

// NewGrid creates an empty layer.
func NewGrid() *Grid {
	return &Grid{cells: mapset.New[Point]()}
}

// GridFromRect creates a layer with every cell of r occupied.
func GridFromRect(r Rect) *Grid {
	g := NewGrid()
	for _, p := range r.Points() {
		g.Set(p)
	}
	return g
}

// Set marks p as occupied and grows the bounds to cover it.
func (g *Grid) Set(p Point) {
	if g.cells.Size() == 0 {
		g.bounds = Rect{X: p.X, Y: p.Y, Width: 1, Height: 1}
	} else {
		g.grow(p)
	}
	g.cells.Put(p)
}

// Clear removes p. Bounds are not shrunk.
func (g *Grid) Clear(p Point) {
	g.cells.Remove(p)
}

// Has returns true if p is occupied.
func (g *Grid) Has(p Point) bool {
	return g.cells.Has(p)
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int {
	return g.cells.Size()
}

// Bounds returns the smallest rectangle that has covered every occupied cell.
func (g *Grid) Bounds() Rect {
	return g.bounds
}

// OccupiedCells returns the occupied cells inside bounds in row-major order.
func (g *Grid) OccupiedCells(bounds Rect) []Point {
	var cells []Point
	g.cells.Each(func(p Point) {
		if bounds.Contains(p.X, p.Y) {
			cells = append(cells, p)
		}
	})
	slices.SortFunc(cells, Point.Compare)
	return cells
}

func (g *Grid) grow(p Point) {
	minX, minY := min(g.bounds.X, p.X), min(g.bounds.Y, p.Y)
	maxX := max(g.bounds.X+g.bounds.Width, p.X+1)
	maxY := max(g.bounds.Y+g.bounds.Height, p.Y+1)
	g.bounds = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
