package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/samdwyer/towerpath/internal/gamedata"
	"github.com/samdwyer/towerpath/internal/pathfind"
	"github.com/samdwyer/towerpath/internal/world"
)

// corridorLevel is solid wall except a floor corridor on row 2 from x=1 to
// x=5 and a lone floor cell at (10,5).
func corridorLevel() *world.Level {
	level := world.NewLevel(24, 12, rand.New(rand.NewSource(1)))
	for x := 1; x <= 5; x++ {
		level.SetTile(x, 2, world.TileFloor)
	}
	level.SetTile(10, 5, world.TileFloor)
	return level
}

func generatedLevel(seed int64) *world.Level {
	level := world.NewLevel(world.DefaultWidth, world.DefaultHeight, rand.New(rand.NewSource(seed)))
	level.Generate(context.Background())
	return level
}

func newTestBoard(t *testing.T, level *world.Level) *Board {
	t.Helper()
	board := NewBoard(gamedata.MustLoadTerrainRegistry())
	if _, err := board.Rebuild(context.Background(), level); err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	return board
}

func TestBoardRebuildSwapsGraph(t *testing.T) {
	ctx := context.Background()
	first := generatedLevel(1)
	board := newTestBoard(t, first)

	old := board.Graph()
	oldFingerprint, oldLen, oldEdges := old.Fingerprint(), old.Len(), old.Edges()

	second := generatedLevel(2)
	g, err := board.Rebuild(ctx, second)
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}

	if board.Graph() != g || board.Level() != second {
		t.Error("Rebuild should make the new graph and level current")
	}
	if g.ID() == old.ID() {
		t.Error("Rebuilt graph should get a new ID")
	}
	if old.Fingerprint() != oldFingerprint || old.Len() != oldLen || old.Edges() != oldEdges {
		t.Error("Old graph changed after rebuild")
	}

	// A search holding the old graph still works against it.
	start, _ := first.RandomFloorInRoom(0)
	if _, err := pathfind.FindPath(ctx, old, start, start, world.LayerFilter{}); err != nil {
		t.Errorf("Search on old graph failed: %v", err)
	}
}

func TestBoardRebuildSameLevel(t *testing.T) {
	level := generatedLevel(7)
	board := newTestBoard(t, level)
	first := board.Graph()

	second, err := board.Rebuild(context.Background(), level)
	if err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if first.Fingerprint() != second.Fingerprint() {
		t.Error("Same level should give the same fingerprint")
	}
	if first.ID() == second.ID() {
		t.Error("Every rebuild should get a new ID")
	}
}

func TestBoardRebuildKeepsGraphOnError(t *testing.T) {
	board := newTestBoard(t, corridorLevel())
	current := board.Graph()

	board.terrains = gamedata.NewTerrainRegistry([]gamedata.TerrainDef{{ID: "floor"}})
	if _, err := board.Rebuild(context.Background(), generatedLevel(3)); !errors.Is(err, gamedata.ErrUnknownTerrain) {
		t.Fatalf("Rebuild() error = %v, want ErrUnknownTerrain", err)
	}
	if board.Graph() != current {
		t.Error("Failed rebuild should keep the previous graph")
	}
}

func TestBoardFindPathBeforeRebuild(t *testing.T) {
	board := NewBoard(gamedata.MustLoadTerrainRegistry())
	_, err := board.FindPath(context.Background(), world.Pt(0, 0), world.Pt(1, 1), world.LayerFilter{})
	if !errors.Is(err, pathfind.ErrInvalidGraph) {
		t.Errorf("FindPath() error = %v, want ErrInvalidGraph", err)
	}
}

func TestBoardFindPathSnapsEndpoints(t *testing.T) {
	board := newTestBoard(t, corridorLevel())
	ctx := context.Background()

	path, err := board.FindPath(ctx, world.Pt(-3, 2), world.Pt(5, 2), world.LayerFilter{})
	if err != nil {
		t.Fatalf("FindPath() error: %v", err)
	}
	want := pathfind.Path{world.Pt(1, 2), world.Pt(2, 2), world.Pt(3, 2), world.Pt(4, 2), world.Pt(5, 2)}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}

	// Finish off the graph snaps too.
	path, err = board.FindPath(ctx, world.Pt(5, 2), world.Pt(-2, 2), world.LayerFilter{})
	if err != nil {
		t.Fatalf("FindPath() error: %v", err)
	}
	if finish, _ := path.Finish(); finish != world.Pt(1, 2) {
		t.Errorf("snapped finish = %v, want (1,2)", finish)
	}
}

func TestBoardFindPathSnapFails(t *testing.T) {
	level := world.NewLevel(24, 12, rand.New(rand.NewSource(1)))
	board := newTestBoard(t, level)

	_, err := board.FindPath(context.Background(), world.Pt(-1, -1), world.Pt(3, 3), world.LayerFilter{})
	var endpointErr *pathfind.EndpointError
	if !errors.As(err, &endpointErr) || !endpointErr.IsStart() {
		t.Errorf("FindPath() error = %v, want start EndpointError", err)
	}
}
