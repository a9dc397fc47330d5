// Package entity provides the agents that walk the board.
package entity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/samdwyer/towerpath/internal/pathfind"
	"github.com/samdwyer/towerpath/internal/world"
)

// Agent is a unit that follows paths toward a target.
type Agent struct {
	ID     uuid.UUID
	Name   string
	Pos    world.Point       // Current grid position
	Target world.Point       // Where the agent is heading
	Filter world.LayerFilter // Terrain the agent can cross
	Path   pathfind.Path     // Last planned path, empty when holding
	Symbol rune              // Display symbol

	cooldown time.Duration // Time left before the next re-plan
}

// Planner finds paths for agents. game.Board is the usual implementation.
type Planner interface {
	FindPath(ctx context.Context, start, finish world.Point, filter world.LayerFilter) (pathfind.Path, error)
}

// NewAgent creates an agent at pos.
func NewAgent(name string, pos world.Point, filter world.LayerFilter) *Agent {
	symbol := 'a'
	if filter.IncludeWater {
		symbol = 's' // swimmer
	}
	if filter.IncludeWalls {
		symbol = 'g' // ghost
	}
	return &Agent{
		ID:     uuid.New(),
		Name:   name,
		Pos:    pos,
		Target: pos,
		Filter: filter,
		Symbol: symbol,
	}
}

// Step moves the agent to the waypoint after its position. It returns false
// when the agent has no path, is at its finish, or is off its path.
func (a *Agent) Step() bool {
	next, ok := a.Path.Next(a.Pos)
	if !ok {
		return false
	}
	a.Pos = next
	return true
}

// Arrived returns true if the agent stands on its target.
func (a *Agent) Arrived() bool {
	return a.Pos == a.Target
}

// Holding returns true if the agent has no path to follow.
func (a *Agent) Holding() bool {
	return !a.Path.Found()
}

// Repath makes the next Tick plan a fresh path.
func (a *Agent) Repath() {
	a.cooldown = 0
}

// Tick advances the agent by dt. When the re-plan cooldown has elapsed it
// plans a new path from scratch, then it steps once along its path.
// A failed or empty search leaves the agent holding; the error is returned
// so the caller can report it.
func (a *Agent) Tick(ctx context.Context, dt, every time.Duration, planner Planner) (moved bool, err error) {
	a.cooldown -= dt
	if a.cooldown <= 0 {
		a.cooldown = every
		a.Path, err = planner.FindPath(ctx, a.Pos, a.Target, a.Filter)
		if err != nil {
			a.Path = nil
			return false, err
		}
	}
	return a.Step(), nil
}
