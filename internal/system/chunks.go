package system

import (
	"time"

	coresys "github.com/teknik1/hardcorelogoff/internal/core/system"
	"github.com/teknik1/hardcorelogoff/internal/world"
)

// ChunkSystem refreshes chunk residency around players. Chunks with no
// player in view range and no pin are unloaded, which is exactly the
// condition the restore scheduler's readiness poll and pinning fight
// against. Phase 3 (PostUpdate).
type ChunkSystem struct {
	world      *world.State
	viewRadius int
	ticks      int
}

func NewChunkSystem(ws *world.State, viewRadius int) *ChunkSystem {
	return &ChunkSystem{world: ws, viewRadius: viewRadius}
}

func (s *ChunkSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ChunkSystem) Update(_ time.Duration) {
	// Every 5 ticks is plenty; residency changes slowly.
	s.ticks++
	if s.ticks < 5 {
		return
	}
	s.ticks = 0
	s.world.RefreshChunks(s.viewRadius)
}
