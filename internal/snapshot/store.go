// Package snapshot keeps per-zone captures of nearby mobs with a random
// TTL. The store is in-memory only; a process restart loses every snapshot.
package snapshot

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teknik1/hardcorelogoff/internal/env"
	"github.com/teknik1/hardcorelogoff/internal/geo"
	"github.com/teknik1/hardcorelogoff/internal/reconcile"
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

// Descriptor records one captured mob. Immutable once stored.
type Descriptor struct {
	Category string
	Pos      geo.Vec3
}

// Snapshot is the captured population of one zone, ordered nearest to the
// capture center first, plus its absolute expiry.
type Snapshot struct {
	Descriptors []Descriptor
	Expiry      time.Time
}

// Config controls capture behavior.
type Config struct {
	Radius         float64 // horizontal capture radius in blocks
	VerticalRadius float64
	MaxMobs        int // cap on captured mobs, farthest dropped first (0 = unlimited)
	TTLMinMinutes  int // clamped to >= 1
	TTLMaxMinutes  int // clamped to >= min
}

// Store maps zone keys to snapshots. At most one snapshot per key; a new
// capture overwrites the old one. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	snaps map[zone.Key]*Snapshot

	cfg   Config
	lists reconcile.Lists
	query env.EntityQuery
	log   *zap.Logger

	now      func() time.Time
	randIntn func(n int) int
}

func NewStore(cfg Config, lists reconcile.Lists, query env.EntityQuery, log *zap.Logger) *Store {
	return &Store{
		snaps:    make(map[zone.Key]*Snapshot),
		cfg:      cfg,
		lists:    lists,
		query:    query,
		log:      log,
		now:      time.Now,
		randIntn: rand.Intn,
	}
}

// Capture queries alive, non-player mobs around center, filters them through
// the exclude and capture prefix lists, and stores the survivors under key
// with a fresh TTL. An empty result stores nothing; a prior snapshot for the
// key is left untouched in that case. Returns the number captured.
func (s *Store) Capture(key zone.Key, center geo.Vec3) int {
	entities := s.query.QueryAlive(center, s.cfg.Radius, s.cfg.VerticalRadius)

	descs := make([]Descriptor, 0, len(entities))
	for _, e := range entities {
		if !e.Alive || e.Player {
			continue
		}
		if s.lists.Excluded(e.Category) {
			continue
		}
		if _, ok := reconcile.FirstMatch(e.Category, s.lists.Capture); !ok {
			continue
		}
		descs = append(descs, Descriptor{Category: e.Category, Pos: e.Pos})
	}
	if len(descs) == 0 {
		return 0
	}

	// Nearest first; stable so ties keep the query order.
	sort.SliceStable(descs, func(a, b int) bool {
		return descs[a].Pos.DistSq(center) < descs[b].Pos.DistSq(center)
	})
	if s.cfg.MaxMobs > 0 && len(descs) > s.cfg.MaxMobs {
		descs = descs[:s.cfg.MaxMobs]
	}

	ttl := time.Duration(s.rollTTLMinutes()) * time.Minute
	snap := &Snapshot{Descriptors: descs, Expiry: s.now().Add(ttl)}

	s.mu.Lock()
	s.snaps[key] = snap
	s.mu.Unlock()

	s.log.Info("zone snapshot captured",
		zap.Int("zone_x", key.X), zap.Int("zone_z", key.Z),
		zap.Int("mobs", len(descs)), zap.Duration("ttl", ttl))
	return len(descs)
}

// Lookup returns the snapshot for key if one exists and has not expired.
// An expired snapshot is removed as a side effect and reported absent.
// The snapshot stays in the store; consuming it is the caller's job.
func (s *Store) Lookup(key zone.Key) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snaps[key]
	if !ok {
		return Snapshot{}, false
	}
	if s.now().After(snap.Expiry) {
		delete(s.snaps, key)
		s.log.Debug("zone snapshot expired",
			zap.Int("zone_x", key.X), zap.Int("zone_z", key.Z))
		return Snapshot{}, false
	}
	return *snap, true
}

// Remove deletes the snapshot for key. Idempotent.
func (s *Store) Remove(key zone.Key) {
	s.mu.Lock()
	delete(s.snaps, key)
	s.mu.Unlock()
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

// rollTTLMinutes draws a uniform TTL from [min, max] minutes.
func (s *Store) rollTTLMinutes() int {
	min := s.cfg.TTLMinMinutes
	if min < 1 {
		min = 1
	}
	max := s.cfg.TTLMaxMinutes
	if max < min {
		max = min
	}
	return min + s.randIntn(max-min+1)
}
