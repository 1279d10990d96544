// Package restore drives readiness-gated, retried top-up spawning against
// a zone snapshot. One restore per zone runs at a time; waiting is always
// expressed as a rescheduled continuation, never a blocked goroutine.
package restore

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teknik1/hardcorelogoff/internal/env"
	"github.com/teknik1/hardcorelogoff/internal/geo"
	"github.com/teknik1/hardcorelogoff/internal/guard"
	"github.com/teknik1/hardcorelogoff/internal/reconcile"
	"github.com/teknik1/hardcorelogoff/internal/snapshot"
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

// antiStuckNudge lifts a landing spot that intersects solid ground.
const antiStuckNudge = 0.5

// readinessPad is the extra chunk ring polled around a zone before spawning.
const readinessPad = 1

// Config controls the restore state machine.
type Config struct {
	Radius         float64 // radius for the "have" population query
	VerticalRadius float64
	RetryInterval  time.Duration // fixed wait between readiness polls
	MaxAttempts    int           // readiness polls before escalation
	ForceRestore   bool          // spawn anyway after attempts run out
	RequeueMin     time.Duration // busy re-queue jitter window
	RequeueMax     time.Duration
	PinPadding     int           // extra chunk ring pinned around the zone
	KeepPinned     time.Duration // pin lifetime after a completed restore
	VerifyDelay    time.Duration // deferred liveness check (observability only)
	DespawnGrace   time.Duration // per-spawn despawn suppression window
}

// stage of the per-zone state machine: queued → poll → execute → done.
type stage int

const (
	stageQueued stage = iota
	stagePoll
	stageExecute
	stageDone
)

// attempt carries one restore through the state machine. Created per
// request; the scheduler's timer callbacks re-enter run with it.
type attempt struct {
	key    zone.Key
	ref    geo.Vec3
	stage  stage
	tries  int
	pinned []zone.ChunkPos
}

// Scheduler serializes restores per zone key. The busy map is the only
// cross-zone shared state and sits under a single mutex; contention is rare
// since keys are physical zones.
type Scheduler struct {
	mu   sync.Mutex
	busy map[zone.Key]bool

	cfg    Config
	zones  zone.Index
	store  *snapshot.Store
	lists  reconcile.Lists
	world  env.World
	timers env.Scheduler
	guard  *guard.Guard
	log    *zap.Logger

	randIntn func(n int) int
}

func NewScheduler(cfg Config, zones zone.Index, store *snapshot.Store, lists reconcile.Lists, world env.World, timers env.Scheduler, g *guard.Guard, log *zap.Logger) *Scheduler {
	return &Scheduler{
		busy:     make(map[zone.Key]bool),
		cfg:      cfg,
		zones:    zones,
		store:    store,
		lists:    lists,
		world:    world,
		timers:   timers,
		guard:    g,
		log:      log,
		randIntn: rand.Intn,
	}
}

// Request starts a restore for key with ref as the reconciliation center.
// Absent or already-satisfied snapshots make this a cheap no-op.
func (s *Scheduler) Request(key zone.Key, ref geo.Vec3) {
	s.run(&attempt{key: key, ref: ref, stage: stageQueued})
}

// run advances the state machine. Re-entered by timer callbacks; every
// terminal path out of poll or execute clears the busy flag exactly once.
func (s *Scheduler) run(a *attempt) {
	switch a.stage {
	case stageQueued:
		s.enter(a)
	case stagePoll:
		s.poll(a)
	case stageExecute:
		s.execute(a)
	}
}

// enter re-checks the entry condition, then takes the busy flag or
// re-queues itself after a jittered delay.
func (s *Scheduler) enter(a *attempt) {
	snap, ok := s.store.Lookup(a.key)
	if !ok {
		return
	}
	need, _ := reconcile.Compute(categories(snap.Descriptors), s.queryAlive(a.ref), s.lists)
	if need.Total() == 0 {
		// Zone already fully populated. Consume the snapshot so repeated
		// joins stay no-ops.
		s.store.Remove(a.key)
		s.log.Debug("zone already populated, snapshot consumed",
			zap.Int("zone_x", a.key.X), zap.Int("zone_z", a.key.Z))
		return
	}

	if !s.acquire(a.key) {
		delay := s.requeueDelay()
		s.log.Debug("zone busy, restore re-queued",
			zap.Int("zone_x", a.key.X), zap.Int("zone_z", a.key.Z),
			zap.Duration("delay", delay))
		s.timers.After(delay, func() { s.run(a) })
		return
	}

	a.pinned = s.zones.Chunks(a.key, s.cfg.PinPadding)
	s.world.PinTiles(a.pinned)
	a.stage = stagePoll
	s.poll(a)
}

// poll checks chunk residency for the zone plus one neighboring chunk ring.
// Not ready: retry on a fixed interval until attempts run out, then force
// or abandon per config.
func (s *Scheduler) poll(a *attempt) {
	if s.world.AreTilesResident(s.zones.Chunks(a.key, readinessPad)) {
		a.stage = stageExecute
		s.execute(a)
		return
	}

	a.tries++
	if a.tries < s.cfg.MaxAttempts {
		s.timers.After(s.cfg.RetryInterval, func() { s.run(a) })
		return
	}

	if s.cfg.ForceRestore {
		s.log.Warn("chunks never resident, forcing restore",
			zap.Int("zone_x", a.key.X), zap.Int("zone_z", a.key.Z),
			zap.Int("attempts", a.tries))
		a.stage = stageExecute
		s.execute(a)
		return
	}

	// Abandon: snapshot stays in place for a later join.
	s.log.Info("restore abandoned, chunks never resident",
		zap.Int("zone_x", a.key.X), zap.Int("zone_z", a.key.Z),
		zap.Int("attempts", a.tries))
	s.world.UnpinTiles(a.pinned)
	a.stage = stageDone
	s.release(a.key)
}

// execute runs the top-up spawn. The snapshot is consumed regardless of
// per-spawn failures: a restore happens at most once per snapshot.
func (s *Scheduler) execute(a *attempt) {
	defer func() {
		a.stage = stageDone
		s.release(a.key)
	}()

	snap, ok := s.store.Lookup(a.key)
	if !ok {
		// Consumed or expired while we were polling. Nothing to do.
		s.world.UnpinTiles(a.pinned)
		return
	}

	alive := s.queryAlive(a.ref)
	need, active := reconcile.Compute(categories(snap.Descriptors), alive, s.lists)
	if need.Total() == 0 {
		s.store.Remove(a.key)
		s.world.UnpinTiles(a.pinned)
		return
	}

	// Group the snapshot's descriptors by matched prefix, nearest to the
	// reference first within each pool.
	pools := make(map[string][]snapshot.Descriptor)
	for _, d := range snap.Descriptors {
		if p, ok := reconcile.FirstMatch(d.Category, active); ok {
			pools[p] = append(pools[p], d)
		}
	}

	var spawned []env.EntityID
	failed := 0
	for _, prefix := range active {
		n := need[prefix]
		if n == 0 {
			continue
		}
		pool := pools[prefix]
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Pos.DistSq(a.ref) < pool[j].Pos.DistSq(a.ref)
		})
		if n > len(pool) {
			n = len(pool)
		}
		for i := 0; i < n; i++ {
			id, err := s.spawnOne(pool[i])
			if err != nil {
				failed++
				s.log.Warn("mob restore failed",
					zap.String("category", pool[i].Category), zap.Error(err))
				continue
			}
			spawned = append(spawned, id)
			s.guard.Suppress(id, s.cfg.DespawnGrace)
		}
	}

	s.store.Remove(a.key)
	s.log.Info("zone restore finished",
		zap.Int("zone_x", a.key.X), zap.Int("zone_z", a.key.Z),
		zap.Int("spawned", len(spawned)), zap.Int("failed", failed))

	if s.cfg.VerifyDelay > 0 && len(spawned) > 0 {
		ids := spawned
		s.timers.After(s.cfg.VerifyDelay, func() { s.verify(a.key, ids) })
	}
	pinned := a.pinned
	s.timers.After(s.cfg.KeepPinned, func() { s.world.UnpinTiles(pinned) })
}

// spawnOne places one captured mob: safe ground if the oracle finds any,
// raw captured coordinates otherwise, lifted clear of solid ground.
func (s *Scheduler) spawnOne(d snapshot.Descriptor) (env.EntityID, error) {
	pos := d.Pos
	if ground, ok := s.world.FindSafeGround(pos); ok {
		pos = ground
	}
	if s.world.SolidBelow(pos) {
		pos.Y += antiStuckNudge
	}
	return s.world.SpawnEntity(d.Category, pos)
}

// verify re-counts the restored mobs after a settle delay. Observability
// only; no corrective action.
func (s *Scheduler) verify(key zone.Key, ids []env.EntityID) {
	aliveCount := 0
	for _, id := range ids {
		if s.world.IsEntityAlive(id) {
			aliveCount++
		}
	}
	s.log.Info("restore verification",
		zap.Int("zone_x", key.X), zap.Int("zone_z", key.Z),
		zap.Int("spawned", len(ids)), zap.Int("still_alive", aliveCount))
}

func (s *Scheduler) queryAlive(ref geo.Vec3) []env.Entity {
	return s.world.QueryAlive(ref, s.cfg.Radius, s.cfg.VerticalRadius)
}

func (s *Scheduler) acquire(key zone.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[key] {
		return false
	}
	s.busy[key] = true
	return true
}

func (s *Scheduler) release(key zone.Key) {
	s.mu.Lock()
	delete(s.busy, key)
	s.mu.Unlock()
}

// Busy reports whether a restore is in flight for key.
func (s *Scheduler) Busy(key zone.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[key]
}

func (s *Scheduler) requeueDelay() time.Duration {
	min, max := s.cfg.RequeueMin, s.cfg.RequeueMax
	if max <= min {
		return min
	}
	return min + time.Duration(s.randIntn(int(max-min)))
}

func categories(descs []snapshot.Descriptor) []string {
	cats := make([]string, len(descs))
	for i, d := range descs {
		cats[i] = d.Category
	}
	return cats
}
