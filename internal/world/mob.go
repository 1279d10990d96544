package world

import (
	"sync/atomic"
	"time"

	"github.com/teknik1/hardcorelogoff/internal/data"
	"github.com/teknik1/hardcorelogoff/internal/env"
	"github.com/teknik1/hardcorelogoff/internal/geo"
)

// mobIDCounter generates unique mob entity IDs.
// Starts high to stay clearly apart from session-derived player IDs.
var mobIDCounter atomic.Int64

func init() {
	mobIDCounter.Store(200_000_000)
}

// NextMobID returns a unique entity ID for a mob instance.
func NextMobID() env.EntityID {
	return env.EntityID(mobIDCounter.Add(1))
}

// Mob holds runtime data for a mob currently in-world.
// Accessed only from the game loop goroutine — no locks.
type Mob struct {
	ID       env.EntityID
	Category string
	Template *data.MobTemplate
	Pos      geo.Vec3
	HP       int32
	Alive    bool

	// Idle-despawn rule, nil for persistent mobs. The despawn guard
	// overrides Threshold during a restore grace window.
	Despawn *DespawnTimer
}

// DespawnTimer is a mob's environment-driven removal rule: the mob is
// removed once it has idled (no player in keep-alive range) longer than the
// threshold. Implements env.DespawnRule.
type DespawnTimer struct {
	threshold time.Duration
	idle      time.Duration
}

func NewDespawnTimer(threshold time.Duration) *DespawnTimer {
	return &DespawnTimer{threshold: threshold}
}

func (d *DespawnTimer) Threshold() time.Duration {
	return d.threshold
}

func (d *DespawnTimer) SetThreshold(t time.Duration) {
	d.threshold = t
}

// Idle returns how long the mob has gone without a player nearby.
func (d *DespawnTimer) Idle() time.Duration {
	return d.idle
}

// AddIdle advances the idle clock and reports whether the threshold has
// been crossed.
func (d *DespawnTimer) AddIdle(dt time.Duration) bool {
	d.idle += dt
	return d.idle > d.threshold
}

// ResetIdle clears the idle clock (a player came within range).
func (d *DespawnTimer) ResetIdle() {
	d.idle = 0
}
