// Package env defines the capability surface the snapshot/restore engine
// consumes from its host environment. The engine never reaches into world
// internals; everything it needs is expressed here as small interfaces the
// host implements natively.
package env

import (
	"time"

	"github.com/teknik1/hardcorelogoff/internal/geo"
	"github.com/teknik1/hardcorelogoff/internal/zone"
)

// EntityID uniquely identifies a live entity instance.
type EntityID int64

// Entity is the engine's view of one entity: a namespaced category code
// ("domain:category"), a position, and liveness/player tags.
type Entity struct {
	ID       EntityID
	Category string
	Pos      geo.Vec3
	Alive    bool
	Player   bool
}

// EntityQuery reports entities near a point. The horizontal radius is a
// cylinder on the XZ plane; the vertical radius bounds |dy|.
type EntityQuery interface {
	QueryAlive(center geo.Vec3, radiusHoriz, radiusVert float64) []Entity
}

// Spawner creates entity instances and reports their liveness.
type Spawner interface {
	// SpawnEntity resolves a category code to a spawnable type and places a
	// new instance. Unresolvable categories and creation failures return an
	// error; neither is fatal to the caller.
	SpawnEntity(category string, pos geo.Vec3) (EntityID, error)
	IsEntityAlive(id EntityID) bool
}

// TileService exposes chunk residency and pinning. Pinned chunks stay
// resident until the matching unpin.
type TileService interface {
	AreTilesResident(tiles []zone.ChunkPos) bool
	PinTiles(tiles []zone.ChunkPos)
	UnpinTiles(tiles []zone.ChunkPos)
}

// Geometry is the external oracle for physically valid spawn coordinates.
type Geometry interface {
	// FindSafeGround returns a standable position near approx, or false if
	// none is known. Callers fall back to the raw coordinates.
	FindSafeGround(approx geo.Vec3) (geo.Vec3, bool)
	// SolidBelow reports whether an entity placed at p would intersect
	// solid ground (landing-spot anti-stuck check).
	SolidBelow(p geo.Vec3) bool
}

// DespawnRule is one entity's environment-driven removal rule. The guard
// records the threshold, overrides it, and restores it later.
type DespawnRule interface {
	Threshold() time.Duration
	SetThreshold(d time.Duration)
}

// RuleSource locates an entity's despawn rule. Best-effort: some entity
// types carry none.
type RuleSource interface {
	DespawnRule(id EntityID) (DespawnRule, bool)
}

// Scheduler is the sole concurrency primitive: fire-and-forget delayed
// callbacks, no cancellation handle. Continuations re-check state on firing
// and treat "nothing to do" as success.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// World is the full capability set a host environment provides.
type World interface {
	EntityQuery
	Spawner
	TileService
	Geometry
	RuleSource
}
