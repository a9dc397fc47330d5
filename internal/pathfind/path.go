package pathfind

import (
	"math"

	"github.com/samdwyer/towerpath/internal/world"
)

// Path is an ordered list of grid positions from start to finish inclusive.
// No smoothing is applied.
type Path []world.Point

// Found returns true if the path reaches somewhere.
func (p Path) Found() bool {
	return len(p) > 0
}

// Finish returns the last position of the path.
func (p Path) Finish() (world.Point, bool) {
	if len(p) == 0 {
		return world.Point{}, false
	}
	return p[len(p)-1], true
}

// Length returns the Euclidean length of the path in cells.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i-1].Distance(p[i])
	}
	return total
}

// Cost recomputes the traversal cost of the path over g with the same cost
// model as FindPath. It returns +Inf if a position is missing or two
// consecutive positions are not linked.
func (p Path) Cost(g *Graph) float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		a, okA := g.Node(p[i-1])
		b, okB := g.Node(p[i])
		if !okA || !okB || !a.IsNeighbor(b) {
			return math.Inf(1)
		}
		total += stepCost(a, b)
	}
	return total
}

// World maps the path to cell centres in world space.
func (p Path) World(cellSize float64, origin world.Vec2) []world.Vec2 {
	points := make([]world.Vec2, len(p))
	for i, c := range p {
		points[i] = world.Vec2{
			X: origin.X + (float64(c.X)+0.5)*cellSize,
			Y: origin.Y + (float64(c.Y)+0.5)*cellSize,
		}
	}
	return points
}

// Next returns the waypoint after pos, or false if pos is the finish or not
// on the path.
func (p Path) Next(pos world.Point) (world.Point, bool) {
	for i := 0; i < len(p)-1; i++ {
		if p[i] == pos {
			return p[i+1], true
		}
	}
	return world.Point{}, false
}
