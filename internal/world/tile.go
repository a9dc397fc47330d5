// Package world provides the tile model, tile layers and level generation
// consumed by the pathfinder.
package world

import (
	"fmt"
	"math"
)

// Tile represents the terrain kind of a single level cell.
type Tile rune

const (
	// TileVoid marks a cell with no tile in any layer.
	TileVoid Tile = ' '
	// TileWall represents a wall tile, passable only when walls are included.
	TileWall Tile = '#'
	// TileFloor represents a plain floor tile.
	TileFloor Tile = '.'
	// TileWater represents a water tile, passable only when water is included.
	TileWater Tile = '~'
)

// Rune returns the tile's display character.
func (t Tile) Rune() rune {
	return rune(t)
}

// String returns the terrain name used to look up tile properties.
func (t Tile) String() string {
	switch t {
	case TileWall:
		return "wall"
	case TileFloor:
		return "floor"
	case TileWater:
		return "water"
	default:
		return "void"
	}
}

// TileProperties are the static attributes shared by every cell of one tile type.
// Values are treated as immutable once a graph has been built from them.
type TileProperties struct {
	Name       string
	Water      bool
	Wall       bool
	Impassable bool
	// ToDistance is the cost incurred when leaving this tile toward a neighbour.
	ToDistance float64
	// FromDistance is the cost incurred when entering this tile from a neighbour.
	FromDistance float64
}

// Validate reports negative or NaN traversal costs.
func (t TileProperties) Validate() error {
	if t.ToDistance < 0 || math.IsNaN(t.ToDistance) {
		return fmt.Errorf("tile %q: invalid to-distance %v", t.Name, t.ToDistance)
	}
	if t.FromDistance < 0 || math.IsNaN(t.FromDistance) {
		return fmt.Errorf("tile %q: invalid from-distance %v", t.Name, t.FromDistance)
	}
	return nil
}

// LayerFilter controls whether water and wall tiles count as passable for one search.
type LayerFilter struct {
	IncludeWater bool
	IncludeWalls bool
}

// IsTraversable returns true if an agent using this filter may enter the tile.
// Impassable tiles are never traversable.
func (f LayerFilter) IsTraversable(t *TileProperties) bool {
	if t == nil || t.Impassable {
		return false
	}
	return (!t.Water || f.IncludeWater) && (!t.Wall || f.IncludeWalls)
}
