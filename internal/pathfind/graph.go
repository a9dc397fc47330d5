// Package pathfind builds tile graphs from terrain layers and searches them
// for paths.
package pathfind

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/towerpath/internal/telemetry"
	"github.com/samdwyer/towerpath/internal/world"
)

// neighborOffsets lists the eight Chebyshev neighbours in row-major order
// (Y grows downward). Connecting nodes in row-major order with these offsets
// leaves every neighbour list in row-major order too.
var neighborOffsets = [8]world.Point{
	{X: -1, Y: -1},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: -1, Y: 1},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
}

// Node is a graph vertex: one occupied grid cell and its links.
type Node struct {
	Pos  world.Point
	Tile *world.TileProperties

	neighbors []*Node
	linked    mapset.Set[world.Point]
}

func newNode(pos world.Point, tile *world.TileProperties) *Node {
	return &Node{
		Pos:    pos,
		Tile:   tile,
		linked: mapset.New[world.Point](),
	}
}

// Neighbors returns the linked nodes in row-major order.
func (n *Node) Neighbors() []*Node {
	return slices.Clone(n.neighbors)
}

// IsNeighbor returns true if n links to other.
func (n *Node) IsNeighbor(other *Node) bool {
	return other != nil && n.linked.Has(other.Pos)
}

// connect links n and other both ways. Linking an existing pair or a node
// to itself is a no-op.
func (n *Node) connect(other *Node) {
	if other == nil || other == n {
		return
	}
	if !n.linked.Has(other.Pos) {
		n.linked.Put(other.Pos)
		n.neighbors = append(n.neighbors, other)
	}
	if !other.linked.Has(n.Pos) {
		other.linked.Put(n.Pos)
		other.neighbors = append(other.neighbors, n)
	}
}

// Graph maps grid positions to nodes. It is never modified after BuildGraph
// returns, so any number of searches may share it.
type Graph struct {
	id          uuid.UUID
	nodes       map[world.Point]*Node
	order       []world.Point
	edges       int
	fingerprint uint64
}

// BuildGraph creates one node per occupied cell across layers and links each
// node to its grid neighbours. props[i] describes every cell of layers[i].
// When several layers occupy a cell, the first layer in the list wins.
func BuildGraph(ctx context.Context, layers []world.Layer, props []world.TileProperties) (*Graph, error) {
	tracer := telemetry.Tracer("pathfind")
	_, span := tracer.Start(ctx, "graph.build")
	defer span.End()

	if len(layers) != len(props) {
		err := fmt.Errorf("%w: %d layers, %d tile properties", ErrLayerMismatch, len(layers), len(props))
		telemetry.Fail(span, err)
		return nil, err
	}

	g := &Graph{
		id:    uuid.New(),
		nodes: make(map[world.Point]*Node),
	}

	for i, layer := range layers {
		if layer == nil {
			err := fmt.Errorf("%w: layer %d is nil", ErrInvalidLayer, i)
			telemetry.Fail(span, err)
			return nil, err
		}
		if err := props[i].Validate(); err != nil {
			err = fmt.Errorf("%w: layer %d: %w", ErrInvalidLayer, i, err)
			telemetry.Fail(span, err)
			return nil, err
		}

		// Shared by every node of this layer
		tile := props[i]
		for _, p := range layer.OccupiedCells(layer.Bounds()) {
			if _, taken := g.nodes[p]; taken {
				continue
			}
			g.nodes[p] = newNode(p, &tile)
			g.order = append(g.order, p)
		}
	}

	slices.SortFunc(g.order, world.Point.Compare)

	for _, p := range g.order {
		node := g.nodes[p]
		for _, d := range neighborOffsets {
			if other, ok := g.nodes[p.Add(d)]; ok {
				node.connect(other)
			}
		}
	}

	for _, node := range g.nodes {
		g.edges += len(node.neighbors)
	}
	g.edges /= 2
	g.fingerprint = g.hash()

	span.SetAttributes(
		attribute.String("graph.id", g.id.String()),
		attribute.Int("graph.layers", len(layers)),
		attribute.Int("graph.nodes", len(g.order)),
		attribute.Int("graph.edges", g.edges),
	)

	return g, nil
}

// ID identifies this build. Every BuildGraph call yields a new ID.
func (g *Graph) ID() uuid.UUID {
	return g.id
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// Edges returns the number of undirected links.
func (g *Graph) Edges() int {
	return g.edges
}

// Node returns the node at p.
func (g *Graph) Node(p world.Point) (*Node, bool) {
	n, ok := g.nodes[p]
	return n, ok
}

// Contains returns true if p is a node of the graph.
func (g *Graph) Contains(p world.Point) bool {
	_, ok := g.nodes[p]
	return ok
}

// Points returns every node position in row-major order.
func (g *Graph) Points() []world.Point {
	return slices.Clone(g.order)
}

// Fingerprint is a digest of positions, tile names and links. Graphs built
// from identical inputs have identical fingerprints.
func (g *Graph) Fingerprint() uint64 {
	return g.fingerprint
}

// Nearest returns the traversable node closest to p, for snapping an
// off-graph coordinate before searching. Ties go to the first node in
// row-major order.
func (g *Graph) Nearest(p world.Point, filter world.LayerFilter) (world.Point, bool) {
	best, found := world.Point{}, false
	bestDist := math.Inf(1)
	for _, q := range g.order {
		if !filter.IsTraversable(g.nodes[q].Tile) {
			continue
		}
		if d := p.Distance(q); d < bestDist {
			best, bestDist, found = q, d, true
		}
	}
	return best, found
}

func (g *Graph) hash() uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 64)
	for _, p := range g.order {
		node := g.nodes[p]
		buf = appendPoint(buf[:0], p)
		buf = append(buf, node.Tile.Name...)
		buf = append(buf, 0)
		for _, n := range node.neighbors {
			buf = appendPoint(buf, n.Pos)
		}
		h.Write(buf)
	}
	return h.Sum64()
}

func appendPoint(b []byte, p world.Point) []byte {
	b = binary.LittleEndian.AppendUint64(b, uint64(int64(p.X)))
	return binary.LittleEndian.AppendUint64(b, uint64(int64(p.Y)))
}
