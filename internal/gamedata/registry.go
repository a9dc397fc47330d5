package gamedata

import (
	"errors"
	"fmt"

	"github.com/samdwyer/towerpath/internal/world"
)

// ErrUnknownTerrain is returned when a tile kind has no terrain definition.
var ErrUnknownTerrain = errors.New("unknown terrain")

// TerrainRegistry holds loaded terrain definitions keyed by ID.
type TerrainRegistry struct {
	terrains map[string]*TerrainDef
	all      []TerrainDef
}

// NewTerrainRegistry creates a registry from loaded terrain definitions.
// Later definitions with a duplicate ID replace earlier ones.
func NewTerrainRegistry(terrains []TerrainDef) *TerrainRegistry {
	registry := &TerrainRegistry{
		terrains: make(map[string]*TerrainDef),
		all:      terrains,
	}
	for i := range terrains {
		registry.terrains[terrains[i].ID] = &terrains[i]
	}
	return registry
}

// LoadTerrainRegistry loads the embedded terrain.json, or the file at path
// when path is not empty, and validates every definition.
func LoadTerrainRegistry(path string) (*TerrainRegistry, error) {
	var (
		terrains []TerrainDef
		err      error
	)
	if path == "" {
		terrains, err = LoadTerrains()
	} else {
		terrains, err = LoadTerrainsFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(terrains) == 0 {
		return nil, errors.New("no terrains loaded")
	}
	for i := range terrains {
		if terrains[i].ID == "" {
			return nil, fmt.Errorf("terrain %d has no id", i)
		}
		if err := terrains[i].Properties().Validate(); err != nil {
			return nil, err
		}
	}
	return NewTerrainRegistry(terrains), nil
}

// MustLoadTerrainRegistry loads the embedded registry, panicking on error.
func MustLoadTerrainRegistry() *TerrainRegistry {
	registry, err := LoadTerrainRegistry("")
	if err != nil {
		panic(err)
	}
	return registry
}

// GetByID returns the terrain definition with the given ID, or nil if not found.
func (r *TerrainRegistry) GetByID(id string) *TerrainDef {
	return r.terrains[id]
}

// ForTile returns the terrain definition for a tile kind, or nil if not found.
func (r *TerrainRegistry) ForTile(t world.Tile) *TerrainDef {
	return r.terrains[t.String()]
}

// Properties returns tile properties for each kind, in the same order, ready
// to pair with the layers of those kinds.
func (r *TerrainRegistry) Properties(kinds ...world.Tile) ([]world.TileProperties, error) {
	props := make([]world.TileProperties, len(kinds))
	for i, kind := range kinds {
		def := r.ForTile(kind)
		if def == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTerrain, kind.String())
		}
		props[i] = def.Properties()
	}
	return props, nil
}

// All returns all terrain definitions.
func (r *TerrainRegistry) All() []TerrainDef {
	return r.all
}

// Count returns the number of terrain definitions.
func (r *TerrainRegistry) Count() int {
	return len(r.all)
}
