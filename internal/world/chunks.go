package world

import (
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

// chunkState tracks one chunk's residency and pin count.
type chunkState struct {
	resident bool
	pins     int
}

// ChunkMap is the residency bookkeeping behind the TileService capability.
// Chunks near players are kept resident by Refresh; pinned chunks are
// forced resident until their pin count drops to zero.
// Accessed only from the game loop goroutine — no locks.
type ChunkMap struct {
	chunks map[zone.ChunkPos]*chunkState
}

func NewChunkMap() *ChunkMap {
	return &ChunkMap{chunks: make(map[zone.ChunkPos]*chunkState)}
}

func (m *ChunkMap) get(c zone.ChunkPos) *chunkState {
	st := m.chunks[c]
	if st == nil {
		st = &chunkState{}
		m.chunks[c] = st
	}
	return st
}

// Resident reports whether every listed chunk is currently resident.
func (m *ChunkMap) Resident(tiles []zone.ChunkPos) bool {
	for _, c := range tiles {
		st := m.chunks[c]
		if st == nil || !st.resident {
			return false
		}
	}
	return true
}

// Pin forces the chunks resident and bumps their pin counts.
func (m *ChunkMap) Pin(tiles []zone.ChunkPos) {
	for _, c := range tiles {
		st := m.get(c)
		st.pins++
		st.resident = true
	}
}

// Unpin drops one pin from each chunk. Chunks stay resident until the next
// refresh decides otherwise.
func (m *ChunkMap) Unpin(tiles []zone.ChunkPos) {
	for _, c := range tiles {
		st := m.chunks[c]
		if st == nil {
			continue
		}
		if st.pins > 0 {
			st.pins--
		}
	}
}

// Refresh marks the wanted chunks resident and unloads everything else
// that is not pinned. wanted is the union of per-player view areas.
func (m *ChunkMap) Refresh(wanted map[zone.ChunkPos]struct{}) {
	for c := range wanted {
		m.get(c).resident = true
	}
	for c, st := range m.chunks {
		if _, keep := wanted[c]; keep || st.pins > 0 {
			continue
		}
		delete(m.chunks, c)
	}
}

// ResidentCount returns the number of resident chunks.
func (m *ChunkMap) ResidentCount() int {
	n := 0
	for _, st := range m.chunks {
		if st.resident {
			n++
		}
	}
	return n
}
