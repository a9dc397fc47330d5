package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/towerpath/internal/entity"
	"github.com/samdwyer/towerpath/internal/telemetry"
	"github.com/samdwyer/towerpath/internal/world"
)

// Scheduler advances every agent by a fixed tick. Agents re-plan on their own
// cooldown, so a tick never waits on a frame rate.
type Scheduler struct {
	planner entity.Planner
	every   time.Duration
	agents  []*entity.Agent
	ticks   int
}

// NewScheduler creates a scheduler that re-plans each agent every interval.
func NewScheduler(planner entity.Planner, every time.Duration) *Scheduler {
	return &Scheduler{planner: planner, every: every}
}

// Add registers an agent. It plans on the next tick.
func (s *Scheduler) Add(a *entity.Agent) {
	a.Repath()
	s.agents = append(s.agents, a)
}

// Reset drops all agents.
func (s *Scheduler) Reset() {
	s.agents = nil
	s.ticks = 0
}

// Agents returns the registered agents.
func (s *Scheduler) Agents() []*entity.Agent {
	return s.agents
}

// Ticks returns how many ticks have run since the last Reset.
func (s *Scheduler) Ticks() int {
	return s.ticks
}

// Retarget points every agent at target and forces a re-plan.
func (s *Scheduler) Retarget(target world.Point) {
	for _, a := range s.agents {
		a.Target = target
		a.Repath()
	}
}

// Arrived returns true if there are agents and all stand on their targets.
func (s *Scheduler) Arrived() bool {
	for _, a := range s.agents {
		if !a.Arrived() {
			return false
		}
	}
	return len(s.agents) > 0
}

// Tick advances every agent by dt. Agents whose search fails hold position;
// their errors are joined and returned after all agents have moved.
func (s *Scheduler) Tick(ctx context.Context, dt time.Duration) error {
	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "scheduler.tick")
	defer span.End()

	s.ticks++

	var errs []error
	moved, holding := 0, 0
	for _, a := range s.agents {
		ok, err := a.Tick(ctx, dt, s.every, s.planner)
		if err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", a.Name, err))
		}
		if ok {
			moved++
		}
		if a.Holding() {
			holding++
		}
	}

	span.SetAttributes(
		attribute.Int("scheduler.tick", s.ticks),
		attribute.Int("scheduler.agents", len(s.agents)),
		attribute.Int("scheduler.moved", moved),
		attribute.Int("scheduler.holding", holding),
	)

	err := errors.Join(errs...)
	if err != nil {
		telemetry.Fail(span, err)
	}
	return err
}
