package world

import (
	"context"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/towerpath/internal/telemetry"
)

const (
	// Default level dimensions
	DefaultWidth  = 80
	DefaultHeight = 24

	// BSP parameters
	minRoomSize = 6  // Minimum room dimension
	maxRoomSize = 15 // Maximum room dimension
	minLeafSize = 10 // Minimum BSP leaf size before stopping split

	// Chance in 1/n that a room gets a water pool
	poolChance = 3
)

// Level is a generated board split into floor, water and wall tiles.
// It is the tile provider the pathfinder graph is built from.
type Level struct {
	Width  int
	Height int
	Tiles  [][]Tile
	Rooms  []Rect
	Pools  []Rect
	rng    *rand.Rand
}

// NewLevel creates a new level filled with walls.
// A nil rng is replaced by one seeded from the clock.
func NewLevel(width, height int, rng *rand.Rand) *Level {
	tiles := make([][]Tile, height)
	for y := range tiles {
		tiles[y] = make([]Tile, width)
		for x := range tiles[y] {
			tiles[y][x] = TileWall
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Level{
		Width:  width,
		Height: height,
		Tiles:  tiles,
		Rooms:  make([]Rect, 0),
		rng:    rng,
	}
}

// Generate creates the level layout using BSP rooms, corridors and water pools.
func (l *Level) Generate(ctx context.Context) {
	tracer := telemetry.Tracer("world")
	_, span := tracer.Start(ctx, "level.generate")
	defer span.End()

	startTime := time.Now()

	root := &bspNode{
		x:      1,
		y:      1,
		width:  l.Width - 2,
		height: l.Height - 2,
	}

	l.splitNode(root)
	l.createRooms(root)
	l.connectRooms(root)
	l.floodPools()

	span.SetAttributes(
		attribute.Int("level.width", l.Width),
		attribute.Int("level.height", l.Height),
		attribute.Int("level.room_count", len(l.Rooms)),
		attribute.Int("level.pool_count", len(l.Pools)),
		attribute.Int64("level.generation_ms", time.Since(startTime).Milliseconds()),
	)
}

// Bounds returns the rectangle covering the whole level.
func (l *Level) Bounds() Rect {
	return Rect{Width: l.Width, Height: l.Height}
}

// GetTile returns the tile at the given position.
func (l *Level) GetTile(x, y int) Tile {
	if x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		return TileVoid
	}
	return l.Tiles[y][x]
}

// SetTile overwrites a single cell. Out of range positions are ignored.
func (l *Level) SetTile(x, y int, t Tile) {
	if x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		return
	}
	l.Tiles[y][x] = t
}

// Layer extracts the cells of one tile kind as a tile provider.
func (l *Level) Layer(kind Tile) *Grid {
	g := NewGrid()
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if l.Tiles[y][x] == kind {
				g.Set(Point{X: x, Y: y})
			}
		}
	}
	return g
}

// Layers returns one tile provider per requested kind, in the same order.
func (l *Level) Layers(kinds ...Tile) []Layer {
	layers := make([]Layer, len(kinds))
	for i, kind := range kinds {
		layers[i] = l.Layer(kind)
	}
	return layers
}

// RoomIndexAt returns the index of the room containing the position, or -1 if not in a room.
func (l *Level) RoomIndexAt(x, y int) int {
	for i, room := range l.Rooms {
		if room.Contains(x, y) {
			return i
		}
	}
	return -1
}

// RandomFloorInRoom returns a random floor point within the specified room.
func (l *Level) RandomFloorInRoom(roomIndex int) (Point, bool) {
	if roomIndex < 0 || roomIndex >= len(l.Rooms) {
		return Point{}, false
	}
	room := l.Rooms[roomIndex]

	// Try random points until we find a floor tile (max 100 attempts)
	for i := 0; i < 100; i++ {
		x := room.X + l.rng.Intn(room.Width)
		y := room.Y + l.rng.Intn(room.Height)
		if l.GetTile(x, y) == TileFloor {
			return Point{X: x, Y: y}, true
		}
	}

	for _, p := range room.Points() {
		if l.GetTile(p.X, p.Y) == TileFloor {
			return p, true
		}
	}
	return Point{}, false
}

// bspNode represents a node in the BSP tree.
type bspNode struct {
	x, y          int
	width, height int
	left, right   *bspNode
	room          *Rect
}

// isLeaf returns true if this node has no children.
func (n *bspNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// splitNode recursively splits a BSP node.
func (l *Level) splitNode(node *bspNode) {
	if node.width < minLeafSize*2 && node.height < minLeafSize*2 {
		return
	}

	var splitHorizontally bool
	if node.width > node.height && node.width >= minLeafSize*2 {
		splitHorizontally = false
	} else if node.height >= minLeafSize*2 {
		splitHorizontally = true
	} else if node.width >= minLeafSize*2 {
		splitHorizontally = false
	} else {
		return
	}

	size := node.width
	if splitHorizontally {
		size = node.height
	}
	lo, hi := minLeafSize, size-minLeafSize
	if hi <= lo {
		return
	}
	splitPos := lo + l.rng.Intn(hi-lo+1)

	if splitHorizontally {
		node.left = &bspNode{x: node.x, y: node.y, width: node.width, height: splitPos}
		node.right = &bspNode{x: node.x, y: node.y + splitPos, width: node.width, height: node.height - splitPos}
	} else {
		node.left = &bspNode{x: node.x, y: node.y, width: splitPos, height: node.height}
		node.right = &bspNode{x: node.x + splitPos, y: node.y, width: node.width - splitPos, height: node.height}
	}

	l.splitNode(node.left)
	l.splitNode(node.right)
}

// createRooms creates rooms in leaf nodes of the BSP tree.
func (l *Level) createRooms(node *bspNode) {
	if node == nil {
		return
	}
	if !node.isLeaf() {
		l.createRooms(node.left)
		l.createRooms(node.right)
		return
	}

	roomWidth := minRoomSize + l.rng.Intn(max(1, min(maxRoomSize-minRoomSize+1, node.width-minRoomSize+1)))
	roomHeight := minRoomSize + l.rng.Intn(max(1, min(maxRoomSize-minRoomSize+1, node.height-minRoomSize+1)))

	// Ensure room fits within leaf
	roomWidth = min(roomWidth, node.width-2)
	roomHeight = min(roomHeight, node.height-2)
	if roomWidth < minRoomSize || roomHeight < minRoomSize {
		return
	}

	room := Rect{
		X:      node.x + 1 + l.rng.Intn(max(1, node.width-roomWidth-1)),
		Y:      node.y + 1 + l.rng.Intn(max(1, node.height-roomHeight-1)),
		Width:  roomWidth,
		Height: roomHeight,
	}
	node.room = &room
	l.Rooms = append(l.Rooms, room)
	l.fill(room, TileFloor)
}

// fill sets every interior tile of r to t.
func (l *Level) fill(r Rect, t Tile) {
	for _, p := range r.Points() {
		if p.X > 0 && p.X < l.Width-1 && p.Y > 0 && p.Y < l.Height-1 {
			l.Tiles[p.Y][p.X] = t
		}
	}
}

// connectRooms connects rooms with corridors.
func (l *Level) connectRooms(node *bspNode) {
	if node == nil || node.isLeaf() {
		return
	}

	l.connectRooms(node.left)
	l.connectRooms(node.right)

	leftRoom := l.getRoom(node.left)
	rightRoom := l.getRoom(node.right)
	if leftRoom != nil && rightRoom != nil {
		l.carveCorridor(*leftRoom, *rightRoom)
	}
}

// getRoom returns a room from a subtree (any room will do).
func (l *Level) getRoom(node *bspNode) *Rect {
	if node == nil {
		return nil
	}
	if node.room != nil {
		return node.room
	}
	if room := l.getRoom(node.left); room != nil {
		return room
	}
	return l.getRoom(node.right)
}

// carveCorridor creates a corridor between two rooms.
func (l *Level) carveCorridor(room1, room2 Rect) {
	x1, y1 := room1.Center()
	x2, y2 := room2.Center()

	if l.rng.Intn(2) == 0 {
		l.carveHorizontalTunnel(x1, x2, y1)
		l.carveVerticalTunnel(y1, y2, x2)
	} else {
		l.carveVerticalTunnel(y1, y2, x1)
		l.carveHorizontalTunnel(x1, x2, y2)
	}
}

func (l *Level) carveHorizontalTunnel(x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	l.fill(Rect{X: x1, Y: y, Width: x2 - x1 + 1, Height: 1}, TileFloor)
}

func (l *Level) carveVerticalTunnel(y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	l.fill(Rect{X: x, Y: y1, Width: 1, Height: y2 - y1 + 1}, TileFloor)
}

// floodPools drops a water pool into the top-left quadrant of some rooms,
// clear of the centre row and column the room's own corridors use.
func (l *Level) floodPools() {
	for _, room := range l.Rooms {
		if l.rng.Intn(poolChance) != 0 {
			continue
		}
		cx, cy := room.Center()
		pool := Rect{X: room.X + 1, Y: room.Y + 1, Width: cx - room.X - 1, Height: cy - room.Y - 1}
		if pool.Empty() {
			continue
		}
		l.fill(pool, TileWater)
		l.Pools = append(l.Pools, pool)
	}
}
