package pathfind

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/towerpath/internal/world"
)

func pts(coords ...[2]int) Path {
	path := make(Path, len(coords))
	for i, c := range coords {
		path[i] = world.Pt(c[0], c[1])
	}
	return path
}

func TestFindPathScenarios(t *testing.T) {
	tests := []struct {
		name   string
		holes  []world.Point
		start  world.Point
		finish world.Point
		want   Path
	}{
		{
			name:   "straight row",
			start:  world.Pt(0, 0),
			finish: world.Pt(4, 0),
			want:   pts([2]int{0, 0}, [2]int{1, 0}, [2]int{2, 0}, [2]int{3, 0}, [2]int{4, 0}),
		},
		{
			name:   "diagonal",
			start:  world.Pt(0, 0),
			finish: world.Pt(4, 4),
			want:   pts([2]int{0, 0}, [2]int{1, 1}, [2]int{2, 2}, [2]int{3, 3}, [2]int{4, 4}),
		},
		{
			name:   "column removed",
			holes:  column(2, 5),
			start:  world.Pt(0, 0),
			finish: world.Pt(4, 0),
			want:   nil,
		},
		{
			name:   "start is finish",
			start:  world.Pt(3, 2),
			finish: world.Pt(3, 2),
			want:   pts([2]int{3, 2}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := openGrid(t, 5, 5, tt.holes...)
			path, err := FindPath(context.Background(), g, tt.start, tt.finish, world.LayerFilter{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, path)
		})
	}
}

func TestFindPathInvalidGraph(t *testing.T) {
	_, err := FindPath(context.Background(), nil, world.Pt(0, 0), world.Pt(1, 0), world.LayerFilter{})
	assert.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, err.Error(), "nil graph")

	empty, err := BuildGraph(context.Background(), []world.Layer{world.NewGrid()}, []world.TileProperties{floorTile})
	require.NoError(t, err)
	_, err = FindPath(context.Background(), empty, world.Pt(0, 0), world.Pt(1, 0), world.LayerFilter{})
	assert.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, err.Error(), "empty map")
}

func TestFindPathInvalidEndpoints(t *testing.T) {
	g := openGrid(t, 5, 5, world.Pt(2, 2))
	inside, outside, hole := world.Pt(0, 0), world.Pt(7, 7), world.Pt(2, 2)

	tests := []struct {
		name   string
		start  world.Point
		finish world.Point
		role   string
		point  world.Point
	}{
		{"start outside", outside, inside, RoleStart, outside},
		{"finish outside", inside, outside, RoleFinish, outside},
		{"finish in hole", inside, hole, RoleFinish, hole},
		{"both outside reports start", hole, outside, RoleStart, hole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindPath(context.Background(), g, tt.start, tt.finish, world.LayerFilter{})
			assert.Nil(t, path)
			require.ErrorIs(t, err, ErrInvalidEndpoint)

			var endpointErr *EndpointError
			require.True(t, errors.As(err, &endpointErr))
			assert.Equal(t, tt.role, endpointErr.Role)
			assert.Equal(t, tt.point, endpointErr.Point)
			assert.Equal(t, tt.role == RoleStart, endpointErr.IsStart())
		})
	}
}

func TestFindPathDisconnectedComponents(t *testing.T) {
	g := openGrid(t, 5, 5, column(2, 5)...)

	for _, start := range g.Points() {
		if start.X > 2 {
			continue
		}
		for _, finish := range g.Points() {
			if finish.X < 2 {
				continue
			}
			path, err := FindPath(context.Background(), g, start, finish, world.LayerFilter{})
			require.NoError(t, err)
			assert.Empty(t, path, "%v -> %v should have no path", start, finish)
		}
	}
}

func TestFindPathMinimalStepsOnOpenGrid(t *testing.T) {
	g := openGrid(t, 5, 5)

	for _, start := range []world.Point{world.Pt(0, 0), world.Pt(2, 2), world.Pt(4, 1)} {
		for _, finish := range g.Points() {
			path, err := FindPath(context.Background(), g, start, finish, world.LayerFilter{})
			require.NoError(t, err)
			require.NotEmpty(t, path)

			steps := max(abs(finish.X-start.X), abs(finish.Y-start.Y))
			assert.Len(t, path, steps+1, "%v -> %v", start, finish)
			assert.Equal(t, start, path[0])
			assert.Equal(t, finish, path[len(path)-1])
			assert.False(t, math.IsInf(path.Cost(g), 1), "%v -> %v has unlinked steps", start, finish)
		}
	}
}

func TestFindPathLayerFilter(t *testing.T) {
	lake := world.NewGrid()
	for _, p := range column(2, 3) {
		lake.Set(p)
	}
	floor := world.GridFromRect(world.Rect{Width: 5, Height: 3})

	g, err := BuildGraph(context.Background(),
		[]world.Layer{lake, floor},
		[]world.TileProperties{waterTile, floorTile})
	require.NoError(t, err)

	start, finish := world.Pt(0, 1), world.Pt(4, 1)

	path, err := FindPath(context.Background(), g, start, finish, world.LayerFilter{})
	require.NoError(t, err)
	assert.Empty(t, path, "water blocks without IncludeWater")

	path, err = FindPath(context.Background(), g, start, finish, world.LayerFilter{IncludeWater: true})
	require.NoError(t, err)
	assert.Equal(t, pts([2]int{0, 1}, [2]int{1, 1}, [2]int{2, 1}, [2]int{3, 1}, [2]int{4, 1}), path)
}

func TestFindPathWallsAndImpassable(t *testing.T) {
	walls := world.NewGrid()
	walls.Set(world.Pt(1, 0))
	lava := world.NewGrid()
	lava.Set(world.Pt(1, 1))
	floor := world.GridFromRect(world.Rect{Width: 3, Height: 2})

	g, err := BuildGraph(context.Background(),
		[]world.Layer{walls, lava, floor},
		[]world.TileProperties{wallTile, lavaTile, floorTile})
	require.NoError(t, err)

	path, err := FindPath(context.Background(), g, world.Pt(0, 0), world.Pt(2, 0), world.LayerFilter{IncludeWater: true})
	require.NoError(t, err)
	assert.Empty(t, path)

	all := world.LayerFilter{IncludeWater: true, IncludeWalls: true}
	path, err = FindPath(context.Background(), g, world.Pt(0, 0), world.Pt(2, 0), all)
	require.NoError(t, err)
	assert.Equal(t, pts([2]int{0, 0}, [2]int{1, 0}, [2]int{2, 0}), path)
	assert.NotContains(t, path, world.Pt(1, 1), "impassable tiles are never entered")
}

func TestFindPathMultiplicativeCostDetour(t *testing.T) {
	mud := world.NewGrid()
	for x := 1; x <= 3; x++ {
		mud.Set(world.Pt(x, 1))
	}
	floor := world.GridFromRect(world.Rect{Width: 5, Height: 3})

	g, err := BuildGraph(context.Background(),
		[]world.Layer{mud, floor},
		[]world.TileProperties{mudTile, floorTile})
	require.NoError(t, err)

	path, err := FindPath(context.Background(), g, world.Pt(0, 1), world.Pt(4, 1), world.LayerFilter{})
	require.NoError(t, err)

	assert.Equal(t, pts([2]int{0, 1}, [2]int{1, 0}, [2]int{2, 0}, [2]int{3, 0}, [2]int{4, 1}), path)
	assert.InDelta(t, 2+2*math.Sqrt2, path.Cost(g), 1e-9)

	straight := pts([2]int{0, 1}, [2]int{1, 1}, [2]int{2, 1}, [2]int{3, 1}, [2]int{4, 1})
	assert.InDelta(t, 5.5+10+10+5.5, straight.Cost(g), 1e-9)
}

func TestSearchRelaxesDiscoveredNodes(t *testing.T) {
	// Cheap to enter, expensive to leave. Expanded first because it lies on
	// the straight line, so its neighbours are first discovered at a high cost.
	sticky := world.TileProperties{Name: "sticky", ToDistance: 0.5, FromDistance: 10}
	trap := world.NewGrid()
	trap.Set(world.Pt(1, 1))
	floor := world.GridFromRect(world.Rect{Width: 5, Height: 3})

	g, err := BuildGraph(context.Background(),
		[]world.Layer{trap, floor},
		[]world.TileProperties{sticky, floorTile})
	require.NoError(t, err)

	start, finish := world.Pt(0, 1), world.Pt(4, 1)
	s := &search{finish: finish, seen: make(map[world.Point]*searchNode)}
	path := s.run(g.nodes[start])

	relaxed := s.seen[world.Pt(2, 0)]
	require.NotNil(t, relaxed)
	require.NotNil(t, relaxed.prev)
	assert.Equal(t, world.Pt(1, 0), relaxed.prev.pos)
	assert.InDelta(t, 1+math.Sqrt2, relaxed.startDistance, 1e-9)
	assert.InDelta(t, relaxed.startDistance+relaxed.endDistance, relaxed.priority, 1e-9)

	require.NotEmpty(t, path)
	assert.NotContains(t, path, world.Pt(1, 1))
	assert.Less(t, path.Cost(g), 5.0)
}

func TestBetterTieBreak(t *testing.T) {
	base := searchNode{priority: 5, endDistance: 2, startDistance: 3, seq: 4}

	lowerPriority := base
	lowerPriority.priority = 4
	lowerPriority.endDistance = 3
	assert.True(t, better(&lowerPriority, &base))

	closerToFinish := base
	closerToFinish.endDistance = 1
	closerToFinish.startDistance = 4
	assert.True(t, better(&closerToFinish, &base), "equal priority prefers lower endDistance")

	cheaper := base
	cheaper.startDistance = 2
	assert.True(t, better(&cheaper, &base), "then lower startDistance")

	earlier := base
	earlier.seq = 1
	assert.True(t, better(&earlier, &base), "then earlier discovery")
	assert.False(t, better(&base, &base))
}

func TestFindPathDeterministic(t *testing.T) {
	g, level := generatedGraph(t, 2024)
	start, finish := level.Rooms[0], level.Rooms[len(level.Rooms)-1]
	sx, sy := start.Center()
	fx, fy := finish.Center()
	filter := world.LayerFilter{IncludeWater: true}

	first, err := FindPath(context.Background(), g, world.Pt(sx, sy), world.Pt(fx, fy), filter)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 0; i < 5; i++ {
		again, err := FindPath(context.Background(), g, world.Pt(sx, sy), world.Pt(fx, fy), filter)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	rebuilt, _ := generatedGraph(t, 2024)
	assert.Equal(t, g.Fingerprint(), rebuilt.Fingerprint())
	fromRebuilt, err := FindPath(context.Background(), rebuilt, world.Pt(sx, sy), world.Pt(fx, fy), filter)
	require.NoError(t, err)
	assert.Equal(t, first, fromRebuilt)
}

func TestFindPathConcurrentSearches(t *testing.T) {
	g, level := generatedGraph(t, 77)
	filter := world.LayerFilter{IncludeWater: true}

	type job struct {
		start, finish world.Point
		want          Path
	}
	var jobs []job
	for i := range level.Rooms {
		for j := range level.Rooms {
			sx, sy := level.Rooms[i].Center()
			fx, fy := level.Rooms[j].Center()
			want, err := FindPath(context.Background(), g, world.Pt(sx, sy), world.Pt(fx, fy), filter)
			require.NoError(t, err)
			jobs = append(jobs, job{start: world.Pt(sx, sy), finish: world.Pt(fx, fy), want: want})
		}
	}

	fingerprint := g.Fingerprint()
	var wg sync.WaitGroup
	results := make([]Path, len(jobs))
	for i, jb := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = FindPath(context.Background(), g, jb.start, jb.finish, filter)
		}()
	}
	wg.Wait()

	for i, jb := range jobs {
		assert.Equal(t, jb.want, results[i], "%v -> %v", jb.start, jb.finish)
	}
	assert.Equal(t, fingerprint, g.hash(), "searches must not modify the graph")
}

// generatedGraph builds a graph from a seeded level using floor, water and
// wall layers in that order.
func generatedGraph(t *testing.T, seed int64) (*Graph, *world.Level) {
	t.Helper()
	level := world.NewLevel(world.DefaultWidth, world.DefaultHeight, rand.New(rand.NewSource(seed)))
	level.Generate(context.Background())
	require.NotEmpty(t, level.Rooms)

	g, err := BuildGraph(context.Background(),
		level.Layers(world.TileFloor, world.TileWater, world.TileWall),
		[]world.TileProperties{floorTile, waterTile, wallTile})
	require.NoError(t, err)
	return g, level
}
