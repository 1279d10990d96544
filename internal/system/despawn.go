package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/teknik1/hardcorelogoff/internal/core/system"
	"github.com/teknik1/hardcorelogoff/internal/env"
	"github.com/teknik1/hardcorelogoff/internal/world"
)

// keepAliveRadius is how close a player must be to reset a mob's idle
// clock.
const keepAliveRadius = 64.0

// DespawnSystem ticks every mob's idle-despawn rule and removes mobs whose
// threshold has been crossed. This is the removal behavior the despawn
// guard temporarily suppresses after a restore. Phase 3 (PostUpdate).
type DespawnSystem struct {
	world *world.State
	log   *zap.Logger
	acc   time.Duration
}

func NewDespawnSystem(ws *world.State, log *zap.Logger) *DespawnSystem {
	return &DespawnSystem{world: ws, log: log}
}

func (s *DespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DespawnSystem) Update(dt time.Duration) {
	// Sweep once a second, not every tick.
	s.acc += dt
	if s.acc < time.Second {
		return
	}
	elapsed := s.acc
	s.acc = 0

	var expired []env.EntityID
	s.world.AllMobs(func(m *world.Mob) {
		if !m.Alive || m.Despawn == nil {
			return
		}
		if s.playerNearby(m) {
			m.Despawn.ResetIdle()
			return
		}
		if m.Despawn.AddIdle(elapsed) {
			expired = append(expired, m.ID)
		}
	})
	for _, id := range expired {
		s.world.RemoveMob(id)
	}
	if len(expired) > 0 {
		s.log.Debug("idle mobs despawned", zap.Int("count", len(expired)))
	}
}

func (s *DespawnSystem) playerNearby(m *world.Mob) bool {
	found := false
	s.world.AllPlayers(func(p *world.PlayerInfo) {
		if p.Pos.HorizDistSq(m.Pos) <= keepAliveRadius*keepAliveRadius {
			found = true
		}
	})
	return found
}
