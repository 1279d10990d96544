package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teknik1/hardcorelogoff/internal/geo"
)

func TestIndexClampsTileSize(t *testing.T) {
	assert.Equal(t, MinTileSize, NewIndex(8).Size())
	assert.Equal(t, MinTileSize, NewIndex(0).Size())
	assert.Equal(t, 128, NewIndex(128).Size())
}

func TestAtIsStable(t *testing.T) {
	idx := NewIndex(128)
	p := geo.Vec3{X: 300.7, Y: 64, Z: -12.2}
	first := idx.At(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, idx.At(p))
	}
}

func TestAtSameTileSharesKey(t *testing.T) {
	idx := NewIndex(128)
	base := idx.At(geo.Vec3{X: 0, Z: 0})
	assert.Equal(t, base, idx.At(geo.Vec3{X: 127.9, Z: 127.9}))
	assert.NotEqual(t, base, idx.At(geo.Vec3{X: 128, Z: 0}))
	assert.NotEqual(t, base, idx.At(geo.Vec3{X: 0, Z: 128}))
}

func TestAtNegativeCoordinates(t *testing.T) {
	idx := NewIndex(128)

	// Floor division: x=-1 and x=-128 share a tile, x=-129 does not.
	k1 := idx.At(geo.Vec3{X: -1, Z: -1})
	k2 := idx.At(geo.Vec3{X: -128, Z: -128})
	k3 := idx.At(geo.Vec3{X: -129, Z: -129})
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k2, k3)
	assert.Equal(t, Key{X: -1, Z: -1}, k1)
	assert.Equal(t, Key{X: -2, Z: -2}, k3)
}

func TestAtZeroBoundary(t *testing.T) {
	idx := NewIndex(32)
	assert.Equal(t, Key{X: 0, Z: 0}, idx.At(geo.Vec3{X: 0.1, Z: 0.1}))
	assert.Equal(t, Key{X: -1, Z: -1}, idx.At(geo.Vec3{X: -0.1, Z: -0.1}))
}

func TestChunksSpan(t *testing.T) {
	idx := NewIndex(128)

	// A 128-block zone covers an 8x8 chunk square.
	chunks := idx.Chunks(Key{X: 0, Z: 0}, 0)
	require.Len(t, chunks, 64)
	assert.Contains(t, chunks, ChunkPos{X: 0, Z: 0})
	assert.Contains(t, chunks, ChunkPos{X: 7, Z: 7})
	assert.NotContains(t, chunks, ChunkPos{X: 8, Z: 0})

	// Padding adds a ring per side.
	padded := idx.Chunks(Key{X: 0, Z: 0}, 1)
	require.Len(t, padded, 100)
	assert.Contains(t, padded, ChunkPos{X: -1, Z: -1})
	assert.Contains(t, padded, ChunkPos{X: 8, Z: 8})
}

func TestChunksNegativeZone(t *testing.T) {
	idx := NewIndex(128)
	chunks := idx.Chunks(Key{X: -1, Z: -1}, 0)
	require.Len(t, chunks, 64)
	assert.Contains(t, chunks, ChunkPos{X: -8, Z: -8})
	assert.Contains(t, chunks, ChunkPos{X: -1, Z: -1})
	assert.NotContains(t, chunks, ChunkPos{X: 0, Z: 0})
}

func TestChunkAt(t *testing.T) {
	assert.Equal(t, ChunkPos{X: 0, Z: 0}, ChunkAt(geo.Vec3{X: 15.9, Z: 0}))
	assert.Equal(t, ChunkPos{X: 1, Z: 0}, ChunkAt(geo.Vec3{X: 16, Z: 0}))
	assert.Equal(t, ChunkPos{X: -1, Z: -1}, ChunkAt(geo.Vec3{X: -0.5, Z: -16}))
}
