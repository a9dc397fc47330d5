// Package game runs agents over a pathfinding board and drives the terminal demo.
package game

// State represents the current game state.
type State int

const (
	// StateRunning advances agents on every tick.
	StateRunning State = iota
	// StatePaused keeps drawing but stops the scheduler.
	StatePaused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
