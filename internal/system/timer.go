package system

import (
	"time"

	coresys "github.com/teknik1/hardcorelogoff/internal/core/system"
	"github.com/teknik1/hardcorelogoff/internal/sched"
)

// TimerSystem fires due scheduler callbacks once per tick. Every delayed
// continuation in the engine (readiness retries, busy re-queues, deferred
// checks, pin releases, guard restoration) runs here, on the game loop.
// Phase 2 (Update).
type TimerSystem struct {
	timers *sched.Timers
}

func NewTimerSystem(timers *sched.Timers) *TimerSystem {
	return &TimerSystem{timers: timers}
}

func (s *TimerSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *TimerSystem) Update(_ time.Duration) {
	s.timers.Fire()
}
