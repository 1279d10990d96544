package world

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teknik1/hardcorelogoff/internal/data"
	"github.com/teknik1/hardcorelogoff/internal/env"
	"github.com/teknik1/hardcorelogoff/internal/geo"
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

// PlayerInfo holds in-memory data for a player currently in-world.
// Accessed only from the game loop goroutine — no locks needed.
type PlayerInfo struct {
	SessionID uint64
	Name      string
	Pos       geo.Vec3
}

// State is the in-memory world: players, mobs, a spatial grid, chunk
// residency, and the heightmap. It implements the full env.World capability
// surface the snapshot/restore engine consumes.
// Accessed only from the game loop goroutine — no locks needed.
type State struct {
	players map[uint64]*PlayerInfo
	mobs    map[env.EntityID]*Mob
	grid    *Grid
	chunks  *ChunkMap
	terrain *data.Terrain
	catalog *data.MobTable

	defaultDespawn time.Duration

	log *zap.Logger
}

func NewState(catalog *data.MobTable, terrain *data.Terrain, defaultDespawn time.Duration, log *zap.Logger) *State {
	return &State{
		players:        make(map[uint64]*PlayerInfo),
		mobs:           make(map[env.EntityID]*Mob),
		grid:           NewGrid(),
		chunks:         NewChunkMap(),
		terrain:        terrain,
		catalog:        catalog,
		defaultDespawn: defaultDespawn,
		log:            log,
	}
}

// ── Players ────────────────────────────────────────────────────────

func (s *State) AddPlayer(sessionID uint64, name string, pos geo.Vec3) *PlayerInfo {
	p := &PlayerInfo{SessionID: sessionID, Name: name, Pos: pos}
	s.players[sessionID] = p
	return p
}

func (s *State) RemovePlayer(sessionID uint64) (*PlayerInfo, bool) {
	p, ok := s.players[sessionID]
	if ok {
		delete(s.players, sessionID)
	}
	return p, ok
}

func (s *State) Player(sessionID uint64) (*PlayerInfo, bool) {
	p, ok := s.players[sessionID]
	return p, ok
}

func (s *State) MovePlayer(sessionID uint64, pos geo.Vec3) {
	if p, ok := s.players[sessionID]; ok {
		p.Pos = pos
	}
}

// AllPlayers iterates every in-world player.
func (s *State) AllPlayers(fn func(p *PlayerInfo)) {
	for _, p := range s.players {
		fn(p)
	}
}

func (s *State) PlayerCount() int {
	return len(s.players)
}

// ── Mobs ───────────────────────────────────────────────────────────

func (s *State) AddMob(m *Mob) {
	s.mobs[m.ID] = m
	s.grid.Add(m.ID, m.Pos)
}

func (s *State) RemoveMob(id env.EntityID) {
	m, ok := s.mobs[id]
	if !ok {
		return
	}
	delete(s.mobs, id)
	s.grid.Remove(id, m.Pos)
}

func (s *State) Mob(id env.EntityID) (*Mob, bool) {
	m, ok := s.mobs[id]
	return m, ok
}

// AllMobs iterates every mob, dead or alive.
func (s *State) AllMobs(fn func(m *Mob)) {
	for _, m := range s.mobs {
		fn(m)
	}
}

func (s *State) MobCount() int {
	return len(s.mobs)
}

// ── env.EntityQuery ────────────────────────────────────────────────

// QueryAlive returns alive mobs within the horizontal/vertical radii of
// center, plus in-range players tagged Player. Results are ordered by
// entity ID so repeated queries are deterministic.
func (s *State) QueryAlive(center geo.Vec3, radiusHoriz, radiusVert float64) []env.Entity {
	var out []env.Entity
	for _, id := range s.grid.Nearby(center, radiusHoriz) {
		m := s.mobs[id]
		if m == nil || !m.Alive {
			continue
		}
		if !inCylinder(center, m.Pos, radiusHoriz, radiusVert) {
			continue
		}
		out = append(out, env.Entity{
			ID:       m.ID,
			Category: m.Category,
			Pos:      m.Pos,
			Alive:    true,
		})
	}
	for _, p := range s.players {
		if !inCylinder(center, p.Pos, radiusHoriz, radiusVert) {
			continue
		}
		out = append(out, env.Entity{
			ID:     env.EntityID(p.SessionID),
			Pos:    p.Pos,
			Alive:  true,
			Player: true,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func inCylinder(center, p geo.Vec3, radiusHoriz, radiusVert float64) bool {
	if p.HorizDistSq(center) > radiusHoriz*radiusHoriz {
		return false
	}
	return math.Abs(p.Y-center.Y) <= radiusVert
}

// ── env.Spawner ────────────────────────────────────────────────────

// SpawnEntity resolves a category against the mob catalog and places a new
// instance. Unknown categories fail; the caller counts and moves on.
func (s *State) SpawnEntity(category string, pos geo.Vec3) (env.EntityID, error) {
	tpl, ok := s.catalog.Resolve(category)
	if !ok {
		return 0, fmt.Errorf("unresolvable mob category %q", category)
	}
	m := &Mob{
		ID:       NextMobID(),
		Category: tpl.Category,
		Template: tpl,
		Pos:      pos,
		HP:       tpl.MaxHP,
		Alive:    true,
	}
	if !tpl.Persistent {
		threshold := s.defaultDespawn
		if tpl.DespawnSeconds > 0 {
			threshold = time.Duration(tpl.DespawnSeconds) * time.Second
		}
		m.Despawn = NewDespawnTimer(threshold)
	}
	s.AddMob(m)
	s.log.Debug("mob spawned",
		zap.Int64("id", int64(m.ID)), zap.String("category", m.Category))
	return m.ID, nil
}

func (s *State) IsEntityAlive(id env.EntityID) bool {
	m, ok := s.mobs[id]
	return ok && m.Alive
}

// ── env.TileService ────────────────────────────────────────────────

func (s *State) AreTilesResident(tiles []zone.ChunkPos) bool {
	return s.chunks.Resident(tiles)
}

func (s *State) PinTiles(tiles []zone.ChunkPos) {
	s.chunks.Pin(tiles)
}

func (s *State) UnpinTiles(tiles []zone.ChunkPos) {
	s.chunks.Unpin(tiles)
}

// RefreshChunks recomputes residency: chunks within viewRadius chunks of
// any player stay loaded, unpinned chunks outside every view area unload.
func (s *State) RefreshChunks(viewRadius int) {
	wanted := make(map[zone.ChunkPos]struct{})
	for _, p := range s.players {
		c := zone.ChunkAt(p.Pos)
		for dx := -viewRadius; dx <= viewRadius; dx++ {
			for dz := -viewRadius; dz <= viewRadius; dz++ {
				wanted[zone.ChunkPos{X: c.X + dx, Z: c.Z + dz}] = struct{}{}
			}
		}
	}
	s.chunks.Refresh(wanted)
}

// ResidentChunks returns the number of loaded chunks.
func (s *State) ResidentChunks() int {
	return s.chunks.ResidentCount()
}

// ── env.Geometry ───────────────────────────────────────────────────

// FindSafeGround spiral-searches block columns around approx for the
// nearest standable spot, the same way a respawn point hunts for an
// unoccupied tile. Columns whose surface lies too far from the target
// height are rejected so mobs do not restore at the bottom of a ravine.
func (s *State) FindSafeGround(approx geo.Vec3) (geo.Vec3, bool) {
	bx := int(math.Floor(approx.X))
	bz := int(math.Floor(approx.Z))

	const maxDrop = 8.0
	for r := 0; r <= 3; r++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if r > 0 && abs(dx) != r && abs(dz) != r {
					continue // ring interior already visited
				}
				h := s.terrain.HeightAt(bx+dx, bz+dz)
				feetY := float64(h) + 1
				if math.Abs(feetY-approx.Y) > maxDrop {
					continue
				}
				return geo.Vec3{
					X: float64(bx+dx) + 0.5,
					Y: feetY,
					Z: float64(bz+dz) + 0.5,
				}, true
			}
		}
	}
	return geo.Vec3{}, false
}

// SolidBelow reports whether the block at p's feet level is solid, i.e. the
// entity would be placed inside the ground.
func (s *State) SolidBelow(p geo.Vec3) bool {
	h := s.terrain.HeightAt(int(math.Floor(p.X)), int(math.Floor(p.Z)))
	return int(math.Floor(p.Y)) <= h
}

// ── env.RuleSource ─────────────────────────────────────────────────

// DespawnRule returns the mob's removal rule. Persistent mobs and unknown
// IDs report false; the despawn guard treats that as a silent no-op.
func (s *State) DespawnRule(id env.EntityID) (env.DespawnRule, bool) {
	m, ok := s.mobs[id]
	if !ok || m.Despawn == nil {
		return nil, false
	}
	return m.Despawn, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
