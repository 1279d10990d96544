package zone

import (
	"math"

	"github.com/teknik1/hardcorelogoff/internal/geo"
)

// MinTileSize is the smallest zone edge length in blocks. Configured values
// below this are clamped up so a zone never spans less than two chunks.
const MinTileSize = 32

// chunkSize is the environment's chunk edge length in blocks.
const chunkSize = 16

// Key identifies one zone. Two positions share a key iff floor division by
// the tile size matches on both horizontal axes.
type Key struct {
	X int
	Z int
}

// ChunkPos addresses a single environment chunk.
type ChunkPos struct {
	X int
	Z int
}

// Index maps world positions to zone keys via floor-division tiling.
type Index struct {
	size int
}

func NewIndex(tileSize int) Index {
	if tileSize < MinTileSize {
		tileSize = MinTileSize
	}
	return Index{size: tileSize}
}

// Size returns the effective tile edge length in blocks.
func (i Index) Size() int {
	return i.size
}

// At returns the zone key for a world position. Floor division, not
// truncation: x=-1 and x=-size land in the same zone, x=-size-1 does not.
func (i Index) At(p geo.Vec3) Key {
	return Key{
		X: floorDiv(int(math.Floor(p.X)), i.size),
		Z: floorDiv(int(math.Floor(p.Z)), i.size),
	}
}

// Chunks returns the chunk span covering zone k, expanded on every side by
// pad chunks. Used for residency checks and pinning.
func (i Index) Chunks(k Key, pad int) []ChunkPos {
	minX := floorDiv(k.X*i.size, chunkSize) - pad
	minZ := floorDiv(k.Z*i.size, chunkSize) - pad
	maxX := floorDiv((k.X+1)*i.size-1, chunkSize) + pad
	maxZ := floorDiv((k.Z+1)*i.size-1, chunkSize) + pad

	out := make([]ChunkPos, 0, (maxX-minX+1)*(maxZ-minZ+1))
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			out = append(out, ChunkPos{X: cx, Z: cz})
		}
	}
	return out
}

// ChunkAt returns the chunk containing a world position.
func ChunkAt(p geo.Vec3) ChunkPos {
	return ChunkPos{
		X: floorDiv(int(math.Floor(p.X)), chunkSize),
		Z: floorDiv(int(math.Floor(p.Z)), chunkSize),
	}
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
