package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/towerpath/internal/gamedata"
	"github.com/samdwyer/towerpath/internal/pathfind"
	"github.com/samdwyer/towerpath/internal/telemetry"
	"github.com/samdwyer/towerpath/internal/world"
)

// LayerOrder is the layer precedence used to build board graphs.
// The first layer containing a cell decides its tile.
var LayerOrder = []world.Tile{world.TileFloor, world.TileWater, world.TileWall}

// Board holds the current level and the graph built from it.
// Rebuild swaps in a new graph instead of editing the old one, so searches
// already running keep a consistent view.
type Board struct {
	terrains *gamedata.TerrainRegistry
	level    atomic.Pointer[world.Level]
	graph    atomic.Pointer[pathfind.Graph]
}

// NewBoard creates an empty board. Call Rebuild before searching.
func NewBoard(terrains *gamedata.TerrainRegistry) *Board {
	return &Board{terrains: terrains}
}

// Rebuild builds a fresh graph from level and makes both current.
// On error the previous level and graph stay in place.
func (b *Board) Rebuild(ctx context.Context, level *world.Level) (*pathfind.Graph, error) {
	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "board.rebuild")
	defer span.End()

	props, err := b.terrains.Properties(LayerOrder...)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}

	g, err := pathfind.BuildGraph(ctx, level.Layers(LayerOrder...), props)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, fmt.Errorf("rebuild board: %w", err)
	}

	previous := b.graph.Swap(g)
	b.level.Store(level)

	attrs := []attribute.KeyValue{
		attribute.String("graph.id", g.ID().String()),
		attribute.Int64("graph.fingerprint", int64(g.Fingerprint())),
	}
	if previous != nil {
		attrs = append(attrs,
			attribute.String("graph.previous_id", previous.ID().String()),
			attribute.Bool("graph.changed", previous.Fingerprint() != g.Fingerprint()),
		)
	}
	span.SetAttributes(attrs...)

	return g, nil
}

// Graph returns the current graph, or nil before the first Rebuild.
func (b *Board) Graph() *pathfind.Graph {
	return b.graph.Load()
}

// Level returns the level the current graph was built from.
func (b *Board) Level() *world.Level {
	return b.level.Load()
}

// Terrains returns the terrain registry used for rebuilding.
func (b *Board) Terrains() *gamedata.TerrainRegistry {
	return b.terrains
}

// FindPath searches the current graph. An endpoint outside the graph is
// snapped to the nearest traversable node and the search retried once.
func (b *Board) FindPath(ctx context.Context, start, finish world.Point, filter world.LayerFilter) (pathfind.Path, error) {
	g := b.Graph()

	path, err := pathfind.FindPath(ctx, g, start, finish, filter)
	var endpointErr *pathfind.EndpointError
	if !errors.As(err, &endpointErr) {
		return path, err
	}

	start, ok := snap(g, start, filter)
	if !ok {
		return nil, err
	}
	finish, ok = snap(g, finish, filter)
	if !ok {
		return nil, err
	}
	return pathfind.FindPath(ctx, g, start, finish, filter)
}

func snap(g *pathfind.Graph, p world.Point, filter world.LayerFilter) (world.Point, bool) {
	if g.Contains(p) {
		return p, true
	}
	return g.Nearest(p, filter)
}
