package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/towerpath/internal/entity"
	"github.com/samdwyer/towerpath/internal/gamedata"
	"github.com/samdwyer/towerpath/internal/world"
)

const (
	targetSymbol = 'X'
	pathShade    = 0.35
)

var (
	agentStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	targetStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	pathColor   = tcell.NewRGBColor(0xF0, 0xD0, 0x40)
)

// Frame is everything drawn in one pass.
type Frame struct {
	Level  *world.Level
	Agents []*entity.Agent
	Target world.Point
	Status string
}

// Renderer handles drawing the board to the screen.
type Renderer struct {
	screen *Screen
	tiles  map[world.Tile]tcell.Style
	glyphs map[world.Tile]rune
}

// NewRenderer creates a renderer that draws tiles with the glyphs and colors
// of the given terrain definitions.
func NewRenderer(screen *Screen, terrains *gamedata.TerrainRegistry) *Renderer {
	r := &Renderer{
		screen: screen,
		tiles:  make(map[world.Tile]tcell.Style),
		glyphs: make(map[world.Tile]rune),
	}
	for _, tile := range []world.Tile{world.TileFloor, world.TileWater, world.TileWall} {
		def := terrains.ForTile(tile)
		if def == nil {
			continue
		}
		r.tiles[tile] = tcell.StyleDefault.Foreground(def.TCellColor())
		r.glyphs[tile] = def.GlyphRune()
	}
	return r
}

// Render draws the level, every agent's planned path, the agents and the
// target, then a status line under the level.
func (r *Renderer) Render(f Frame) {
	r.screen.Clear()

	if f.Level != nil {
		for y := 0; y < f.Level.Height; y++ {
			for x := 0; x < f.Level.Width; x++ {
				tile := f.Level.GetTile(x, y)
				glyph, style := r.tileLook(tile)
				r.screen.SetContent(x, y, glyph, style)
			}
		}
	}

	// Paths first so agents and the target draw over them
	for _, a := range f.Agents {
		for _, p := range a.Path {
			r.highlight(p)
		}
	}

	r.screen.SetContent(f.Target.X, f.Target.Y, targetSymbol, targetStyle)
	for _, a := range f.Agents {
		r.screen.SetContent(a.Pos.X, a.Pos.Y, a.Symbol, agentStyle)
	}

	if f.Level != nil && f.Status != "" {
		r.RenderMessage(f.Status, f.Level.Height)
	}

	r.screen.Show()
}

func (r *Renderer) tileLook(tile world.Tile) (rune, tcell.Style) {
	glyph, ok := r.glyphs[tile]
	if !ok {
		return tile.Rune(), tcell.StyleDefault
	}
	return glyph, r.tiles[tile]
}

// highlight tints the background of an already drawn cell.
func (r *Renderer) highlight(p world.Point) {
	glyph, style := r.screen.Content(p.X, p.Y)
	r.screen.SetContent(p.X, p.Y, glyph, style.Background(gamedata.Shade(pathColor, pathShade)))
}

// RenderMessage displays a message at row y.
func (r *Renderer) RenderMessage(msg string, y int) {
	for i, ch := range []rune(msg) {
		r.screen.SetContent(i, y, ch, statusStyle)
	}
}
