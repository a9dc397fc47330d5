package pathfind

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/towerpath/internal/telemetry"
	"github.com/samdwyer/towerpath/internal/world"
)

// searchNode is the per-search state of one discovered graph node.
type searchNode struct {
	pos           world.Point
	node          *Node
	startDistance float64 // accumulated cost from the start
	endDistance   float64 // straight-line distance to the finish
	priority      float64
	prev          *searchNode
	seq           int // discovery order, last tie-break
}

// better reports whether a should be expanded before b: lower priority,
// then lower endDistance, then lower startDistance, then earlier discovery.
func better(a, b *searchNode) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if a.endDistance != b.endDistance {
		return a.endDistance < b.endDistance
	}
	if a.startDistance != b.startDistance {
		return a.startDistance < b.startDistance
	}
	return a.seq < b.seq
}

// stepCost is the cost of moving from a to its neighbour b: Euclidean
// distance scaled by a's exit cost plus b's entry cost.
func stepCost(a, b *Node) float64 {
	return a.Pos.Distance(b.Pos) * (a.Tile.FromDistance + b.Tile.ToDistance)
}

// FindPath searches g for a path from start to finish through tiles the
// filter allows. The result runs from start to finish inclusive.
//
// A nil or empty graph returns ErrInvalidGraph. A start or finish outside the
// graph returns an *EndpointError. An unreachable finish is not an error: the
// path is empty and the caller should hold position.
//
// The search keeps no state between calls and never modifies g.
func FindPath(ctx context.Context, g *Graph, start, finish world.Point, filter world.LayerFilter) (Path, error) {
	tracer := telemetry.Tracer("pathfind")
	_, span := tracer.Start(ctx, "path.find")
	defer span.End()

	if err := validate(g, start, finish); err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	s := &search{
		finish: finish,
		filter: filter,
		seen:   make(map[world.Point]*searchNode),
	}
	path := s.run(g.nodes[start])

	span.SetAttributes(
		attribute.String("graph.id", g.id.String()),
		attribute.Int("path.expansions", s.expansions),
		attribute.Int("path.discovered", len(s.seen)),
		attribute.Int("path.length", len(path)),
		attribute.Bool("path.found", len(path) > 0),
	)

	return path, nil
}

func validate(g *Graph, start, finish world.Point) error {
	if g == nil {
		return fmt.Errorf("%w: nil graph", ErrInvalidGraph)
	}
	if len(g.nodes) == 0 {
		return fmt.Errorf("%w: empty map", ErrInvalidGraph)
	}
	if !g.Contains(start) {
		return &EndpointError{Role: RoleStart, Point: start}
	}
	if !g.Contains(finish) {
		return &EndpointError{Role: RoleFinish, Point: finish}
	}
	return nil
}

type search struct {
	finish     world.Point
	filter     world.LayerFilter
	seen       map[world.Point]*searchNode
	frontier   []*searchNode
	expansions int
}

func (s *search) run(start *Node) Path {
	s.discover(start, nil, 0)

	for len(s.frontier) > 0 {
		current := s.pop()
		s.expansions++

		if current.pos == s.finish {
			return s.reconstruct(current)
		}

		for _, n := range current.node.neighbors {
			if !s.filter.IsTraversable(n.Tile) {
				continue
			}

			cost := current.startDistance + stepCost(current.node, n)
			existing, ok := s.seen[n.Pos]
			if !ok {
				s.discover(n, current, cost)
				continue
			}
			// Relaxed in place, even if already expanded. Expanded nodes are
			// not revisited.
			if cost < existing.startDistance {
				existing.prev = current
				existing.startDistance = cost
				existing.priority = cost + existing.endDistance
			}
		}
	}

	return nil
}

func (s *search) discover(n *Node, prev *searchNode, startDistance float64) {
	sn := &searchNode{
		pos:           n.Pos,
		node:          n,
		startDistance: startDistance,
		endDistance:   n.Pos.Distance(s.finish),
		prev:          prev,
		seq:           len(s.seen),
	}
	sn.priority = sn.startDistance + sn.endDistance
	s.seen[n.Pos] = sn
	s.frontier = append(s.frontier, sn)
}

// pop removes and returns the best frontier node. The frontier is scanned
// on every pop because relaxation changes priorities in place.
func (s *search) pop() *searchNode {
	best := 0
	for i := 1; i < len(s.frontier); i++ {
		if better(s.frontier[i], s.frontier[best]) {
			best = i
		}
	}
	sn := s.frontier[best]
	s.frontier = slices.Delete(s.frontier, best, best+1)
	return sn
}

// reconstruct walks predecessors back to the start. The walk is capped at
// the number of discovered nodes; a longer chain would be a loop.
func (s *search) reconstruct(end *searchNode) Path {
	path := make(Path, 0, 16)
	for sn := end; sn != nil; sn = sn.prev {
		if len(path) > len(s.seen) {
			return nil
		}
		path = append(path, sn.pos)
	}
	slices.Reverse(path)
	return path
}
