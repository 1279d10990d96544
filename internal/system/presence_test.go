package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teknik1/hardcorelogoff/internal/core/event"
	"github.com/teknik1/hardcorelogoff/internal/data"
	"github.com/teknik1/hardcorelogoff/internal/geo"
	"github.com/teknik1/hardcorelogoff/internal/guard"
	"github.com/teknik1/hardcorelogoff/internal/reconcile"
	"github.com/teknik1/hardcorelogoff/internal/restore"
	"github.com/teknik1/hardcorelogoff/internal/sched"
	"github.com/teknik1/hardcorelogoff/internal/snapshot"
	"github.com/teknik1/hardcorelogoff/internal/world"
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

// rig wires a real world, store, and restore scheduler the way the daemon
// does, driven by the event bus and a manual clock.
type rig struct {
	now      time.Time
	bus      *event.Bus
	ws       *world.State
	store    *snapshot.Store
	timers   *sched.Timers
	presence *PresenceSystem
}

func newRig(t *testing.T) *rig {
	t.Helper()
	catalog := data.NewMobTable(
		data.MobTemplate{Category: "wastes:drifter", Name: "Drifter", MaxHP: 40},
		data.MobTemplate{Category: "wastes:locust", Name: "Locust", MaxHP: 12},
	)
	r := &rig{
		now: time.Unix(1_000_000, 0),
		bus: event.NewBus(),
		ws:  world.NewState(catalog, data.FlatTerrain(63), 5*time.Minute, zap.NewNop()),
	}
	r.timers = sched.NewWithClock(func() time.Time { return r.now })

	lists := reconcile.Lists{Capture: []string{"wastes:"}}
	zones := zone.NewIndex(128)
	r.store = snapshot.NewStore(snapshot.Config{
		Radius:         48,
		VerticalRadius: 24,
		TTLMinMinutes:  120,
		TTLMaxMinutes:  360,
	}, lists, r.ws, zap.NewNop())
	g := guard.New(r.ws, r.timers, zap.NewNop())
	restorer := restore.NewScheduler(restore.Config{
		Radius:         48,
		VerticalRadius: 24,
		RetryInterval:  2 * time.Second,
		MaxAttempts:    10,
		RequeueMin:     200 * time.Millisecond,
		RequeueMax:     600 * time.Millisecond,
		PinPadding:     2,
		KeepPinned:     30 * time.Second,
		DespawnGrace:   2 * time.Minute,
	}, zones, r.store, lists, r.ws, r.timers, g, zap.NewNop())
	r.presence = NewPresenceSystem(r.bus, zones, r.store, restorer)
	return r
}

func (r *rig) tick() {
	r.presence.Update(200 * time.Millisecond)
	r.timers.Fire()
}

func TestDisconnectCapturesThenJoinRestores(t *testing.T) {
	r := newRig(t)
	pos := geo.Vec3{X: 10, Y: 64, Z: 10}

	_, err := r.ws.SpawnEntity("wastes:drifter", geo.Vec3{X: 12, Y: 64, Z: 10})
	require.NoError(t, err)
	_, err = r.ws.SpawnEntity("wastes:locust", geo.Vec3{X: 14, Y: 64, Z: 10})
	require.NoError(t, err)

	// Player logs off: the zone's population is captured.
	event.Emit(r.bus, event.PlayerDisconnected{SessionID: 1, Name: "kara", Pos: pos})
	r.tick()
	require.Equal(t, 1, r.store.Len())

	// The mobs despawn while nobody is around.
	r.ws.AllMobs(func(m *world.Mob) { r.ws.RemoveMob(m.ID) })
	require.Zero(t, r.ws.MobCount())

	// Player rejoins at the same spot. Pinning makes the chunks resident,
	// so the restore completes on the first poll.
	r.ws.AddPlayer(1, "kara", pos)
	event.Emit(r.bus, event.PlayerJoined{SessionID: 1, Name: "kara", Pos: pos})
	r.tick()

	assert.Equal(t, 2, r.ws.MobCount())
	assert.Zero(t, r.store.Len())

	categories := map[string]int{}
	r.ws.AllMobs(func(m *world.Mob) { categories[m.Category]++ })
	assert.Equal(t, map[string]int{"wastes:drifter": 1, "wastes:locust": 1}, categories)
}

func TestJoinWithPopulationPresentIsNoop(t *testing.T) {
	r := newRig(t)
	pos := geo.Vec3{X: 10, Y: 64, Z: 10}

	id, err := r.ws.SpawnEntity("wastes:drifter", geo.Vec3{X: 12, Y: 64, Z: 10})
	require.NoError(t, err)

	event.Emit(r.bus, event.PlayerDisconnected{SessionID: 1, Name: "kara", Pos: pos})
	r.tick()
	require.Equal(t, 1, r.store.Len())

	// The drifter never despawned. Rejoining consumes the snapshot without
	// spawning a duplicate.
	r.ws.AddPlayer(1, "kara", pos)
	event.Emit(r.bus, event.PlayerJoined{SessionID: 1, Name: "kara", Pos: pos})
	r.tick()

	assert.Equal(t, 1, r.ws.MobCount())
	assert.Zero(t, r.store.Len())
	assert.True(t, r.ws.IsEntityAlive(id))
}

func TestRestoredMobOutlivesDespawnSweepDuringGrace(t *testing.T) {
	r := newRig(t)
	pos := geo.Vec3{X: 10, Y: 64, Z: 10}

	_, err := r.ws.SpawnEntity("wastes:drifter", geo.Vec3{X: 12, Y: 64, Z: 10})
	require.NoError(t, err)
	event.Emit(r.bus, event.PlayerDisconnected{SessionID: 1, Name: "kara", Pos: pos})
	r.tick()
	r.ws.AllMobs(func(m *world.Mob) { r.ws.RemoveMob(m.ID) })

	event.Emit(r.bus, event.PlayerJoined{SessionID: 1, Name: "kara", Pos: pos})
	r.tick()
	require.Equal(t, 1, r.ws.MobCount())

	// No players in world, so the idle clock runs. With the default 5m
	// threshold the mob would expire after a few sweeps; the grace window
	// has pushed the threshold far beyond that.
	despawn := NewDespawnSystem(r.ws, zap.NewNop())
	for i := 0; i < 10; i++ {
		despawn.Update(time.Minute)
	}
	assert.Equal(t, 1, r.ws.MobCount(), "grace window suppresses idle despawn")

	// Grace expires, threshold restored, the next sweeps remove the mob.
	r.now = r.now.Add(2 * time.Minute)
	r.timers.Fire()
	for i := 0; i < 10; i++ {
		despawn.Update(time.Minute)
	}
	assert.Zero(t, r.ws.MobCount())
}

func TestDespawnSweepResetsIdleNearPlayers(t *testing.T) {
	ws := world.NewState(
		data.NewMobTable(data.MobTemplate{Category: "wastes:drifter", MaxHP: 40}),
		data.FlatTerrain(63), time.Minute, zap.NewNop())
	id, err := ws.SpawnEntity("wastes:drifter", geo.Vec3{X: 5, Y: 64, Z: 5})
	require.NoError(t, err)
	ws.AddPlayer(1, "kara", geo.Vec3{X: 10, Y: 64, Z: 10})

	despawn := NewDespawnSystem(ws, zap.NewNop())
	for i := 0; i < 5; i++ {
		despawn.Update(time.Minute)
	}
	assert.True(t, ws.IsEntityAlive(id), "nearby player keeps the mob alive")

	ws.MovePlayer(1, geo.Vec3{X: 500, Y: 64, Z: 500})
	despawn.Update(time.Minute)
	despawn.Update(time.Minute)
	assert.False(t, ws.IsEntityAlive(id))
}
