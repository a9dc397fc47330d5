package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/towerpath/internal/entity"
	"github.com/samdwyer/towerpath/internal/gamedata"
	"github.com/samdwyer/towerpath/internal/pathfind"
	"github.com/samdwyer/towerpath/internal/telemetry"
	"github.com/samdwyer/towerpath/internal/ui"
	"github.com/samdwyer/towerpath/internal/world"
)

// Game holds the entire game state.
type Game struct {
	cfg       Config
	screen    *ui.Screen
	renderer  *ui.Renderer
	board     *Board
	scheduler *Scheduler
	rng       *rand.Rand
	state     State
	target    world.Point
	room      int // Room whose centre is the current target
	lastErr   error
	running   bool
}

// New creates a new game on the terminal.
func New(cfg Config) (*Game, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}
	g, err := NewWithScreen(cfg, screen)
	if err != nil {
		screen.Close()
		return nil, err
	}
	return g, nil
}

// NewWithScreen creates a game drawing to an already created screen.
func NewWithScreen(cfg Config, screen *ui.Screen) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	terrains, err := gamedata.LoadTerrainRegistry(cfg.TerrainFile)
	if err != nil {
		return nil, fmt.Errorf("load terrains: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	board := NewBoard(terrains)
	return &Game{
		cfg:       cfg,
		screen:    screen,
		renderer:  ui.NewRenderer(screen, terrains),
		board:     board,
		scheduler: NewScheduler(board, cfg.RepathInterval),
		rng:       rand.New(rand.NewSource(seed)),
		state:     StateRunning,
		running:   true,
	}, nil
}

// Run executes the main game loop until the player quits or ctx is done.
func (g *Game) Run(ctx context.Context) error {
	if err := g.Regenerate(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := g.screen.Events(ctx)

	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()

	for g.running {
		g.render()

		select {
		case <-ctx.Done():
			g.running = false
		case ev, ok := <-events:
			if !ok {
				g.running = false
				break
			}
			g.handleEvent(ctx, ev)
		case <-ticker.C:
			g.Tick(ctx)
		}
	}

	return nil
}

// Regenerate builds a new level, rebuilds the board and places fresh agents.
func (g *Game) Regenerate(ctx context.Context) error {
	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "game.regenerate")
	defer span.End()

	level := world.NewLevel(g.cfg.Width, g.cfg.Height, rand.New(rand.NewSource(g.rng.Int63())))
	level.Generate(ctx)
	if len(level.Rooms) == 0 {
		err := fmt.Errorf("level %dx%d generated no rooms", g.cfg.Width, g.cfg.Height)
		telemetry.Fail(span, err)
		return err
	}

	if _, err := g.board.Rebuild(ctx, level); err != nil {
		telemetry.Fail(span, err)
		return err
	}

	g.scheduler.Reset()
	for i := range g.cfg.Agents {
		pos, ok := level.RandomFloorInRoom(i % len(level.Rooms))
		if !ok {
			cx, cy := level.Rooms[i%len(level.Rooms)].Center()
			pos = world.Pt(cx, cy)
		}
		g.scheduler.Add(entity.NewAgent(fmt.Sprintf("agent-%d", i+1), pos, g.agentFilter(i)))
	}

	g.room = len(level.Rooms) - 1
	g.moveTarget()
	g.lastErr = nil

	span.SetAttributes(
		attribute.Int("level.rooms", len(level.Rooms)),
		attribute.Int("game.agents", len(g.scheduler.Agents())),
		attribute.String("game.target", g.target.String()),
	)
	return nil
}

// agentFilter gives every third agent a special movement rule so the
// different layer filters show up side by side.
func (g *Game) agentFilter(i int) world.LayerFilter {
	switch i % 3 {
	case 1:
		return world.LayerFilter{IncludeWater: true}
	case 2:
		return world.LayerFilter{IncludeWater: g.cfg.IncludeWater, IncludeWalls: true}
	default:
		return world.LayerFilter{IncludeWater: g.cfg.IncludeWater}
	}
}

// moveTarget advances the target to the next room centre.
func (g *Game) moveTarget() {
	level := g.board.Level()
	g.room = (g.room + 1) % len(level.Rooms)
	cx, cy := level.Rooms[g.room].Center()
	g.target = world.Pt(cx, cy)
	g.scheduler.Retarget(g.target)
}

// Tick runs one simulation step unless paused. Once every agent has
// reached the target it moves on to the next room.
func (g *Game) Tick(ctx context.Context) {
	if g.state == StatePaused {
		return
	}
	g.lastErr = g.scheduler.Tick(ctx, g.cfg.TickInterval)
	if g.scheduler.Arrived() {
		g.moveTarget()
	}
}

// ToggleWater flips whether the agents may cross water and re-plans.
func (g *Game) ToggleWater() {
	g.cfg.IncludeWater = !g.cfg.IncludeWater
	for i, a := range g.scheduler.Agents() {
		a.Filter = g.agentFilter(i)
		a.Repath()
	}
}

// TogglePause switches between running and paused.
func (g *Game) TogglePause() {
	if g.state == StatePaused {
		g.state = StateRunning
	} else {
		g.state = StatePaused
	}
}

// handleEvent processes a single input event.
func (g *Game) handleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		g.screen.Sync()
	}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		g.running = false

	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			g.running = false
		case ' ':
			g.TogglePause()
		case 'r', 'R':
			g.lastErr = g.Regenerate(ctx)
		case 'w', 'W':
			g.ToggleWater()
		case 't', 'T':
			g.moveTarget()
		}
	}
}

func (g *Game) render() {
	g.renderer.Render(ui.Frame{
		Level:  g.board.Level(),
		Agents: g.scheduler.Agents(),
		Target: g.target,
		Status: g.status(),
	})
}

// status describes the game and the first agent's next waypoint in world units.
func (g *Game) status() string {
	msg := fmt.Sprintf("[%s] tick %d  target %v  water %v",
		g.state, g.scheduler.Ticks(), g.target, g.cfg.IncludeWater)

	if agents := g.scheduler.Agents(); len(agents) > 0 {
		lead := agents[0]
		if next, ok := lead.Path.Next(lead.Pos); ok {
			w := pathfind.Path{next}.World(g.cfg.CellSize, world.Vec2{})[0]
			msg += fmt.Sprintf("  %s -> (%.1f,%.1f)", lead.Name, w.X, w.Y)
		} else {
			msg += fmt.Sprintf("  %s holding", lead.Name)
		}
	}
	if g.lastErr != nil {
		msg += "  error: " + g.lastErr.Error()
	}
	return msg + "  [space]pause [r]egen [w]ater [t]arget [q]uit"
}

// Close cleans up game resources.
func (g *Game) Close() {
	if g.screen != nil {
		g.screen.Close()
	}
}
