package system

import (
	"time"

	"github.com/teknik1/hardcorelogoff/internal/core/event"
	coresys "github.com/teknik1/hardcorelogoff/internal/core/system"
	"github.com/teknik1/hardcorelogoff/internal/restore"
	"github.com/teknik1/hardcorelogoff/internal/snapshot"
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

// PresenceSystem connects presence events to the engine: a disconnect
// captures the player's zone, a join requests a restore for it.
// Phase 1 (PreUpdate) — it dispatches the event bus.
type PresenceSystem struct {
	bus *event.Bus
}

func NewPresenceSystem(bus *event.Bus, zones zone.Index, store *snapshot.Store, restorer *restore.Scheduler) *PresenceSystem {
	event.Subscribe(bus, func(ev event.PlayerDisconnected) {
		store.Capture(zones.At(ev.Pos), ev.Pos)
	})
	event.Subscribe(bus, func(ev event.PlayerJoined) {
		restorer.Request(zones.At(ev.Pos), ev.Pos)
	})
	return &PresenceSystem{bus: bus}
}

func (s *PresenceSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *PresenceSystem) Update(_ time.Duration) {
	s.bus.Dispatch()
}
