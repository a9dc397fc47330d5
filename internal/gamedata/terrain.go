package gamedata

import (
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/towerpath/internal/world"
)

// TerrainDef defines a terrain type loaded from JSON.
type TerrainDef struct {
	ID           string  `json:"id"`           // Unique identifier matching world.Tile names (e.g., "water")
	Name         string  `json:"name"`         // Display name (e.g., "Water")
	Glyph        string  `json:"glyph"`        // Single character for rendering (e.g., "~")
	Color        string  `json:"color"`        // Hex color code (e.g., "#2F6FD6")
	Water        bool    `json:"water"`        // Passable only when a search includes water
	Wall         bool    `json:"wall"`         // Passable only when a search includes walls
	Impassable   bool    `json:"impassable"`   // Never passable
	ToDistance   float64 `json:"toDistance"`   // Cost when leaving this tile
	FromDistance float64 `json:"fromDistance"` // Cost when entering this tile
}

// Properties converts the definition into pathfinder tile properties.
func (d *TerrainDef) Properties() world.TileProperties {
	return world.TileProperties{
		Name:         d.ID,
		Water:        d.Water,
		Wall:         d.Wall,
		Impassable:   d.Impassable,
		ToDistance:   d.ToDistance,
		FromDistance: d.FromDistance,
	}
}

// GlyphRune returns the glyph as a rune for rendering.
func (d *TerrainDef) GlyphRune() rune {
	if len(d.Glyph) == 0 {
		return '?'
	}
	return rune(d.Glyph[0])
}

// TCellColor returns the color as a tcell.Color.
func (d *TerrainDef) TCellColor() tcell.Color {
	color, err := ParseHexColor(d.Color)
	if err != nil {
		return tcell.ColorWhite // fallback
	}
	return color
}

// TerrainFile represents the structure of terrain.json.
type TerrainFile struct {
	Terrains []TerrainDef `json:"terrains"`
}

// LoadTerrains loads terrain definitions from the embedded terrain.json file.
func LoadTerrains() ([]TerrainDef, error) {
	file, err := Load[TerrainFile]("terrain.json")
	if err != nil {
		return nil, err
	}
	return file.Terrains, nil
}

// LoadTerrainsFile loads terrain definitions from a JSON file on disk.
func LoadTerrainsFile(path string) ([]TerrainDef, error) {
	file, err := LoadFile[TerrainFile](path)
	if err != nil {
		return nil, err
	}
	return file.Terrains, nil
}
