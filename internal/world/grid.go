package world

import (
	"math"

	"github.com/teknik1/hardcorelogoff/internal/env"
	"github.com/teknik1/hardcorelogoff/internal/geo"
)

// Grid is a cell-based spatial index over mobs, so radius queries touch
// only the cells a query cylinder can overlap instead of every mob in the
// world. Accessed only from the game loop goroutine — no locks.

const gridCellSize = 16

type gridKey struct {
	cx int
	cz int
}

func toGridCoord(v float64) int {
	return int(math.Floor(v / gridCellSize))
}

type Grid struct {
	cells map[gridKey]map[env.EntityID]struct{}
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[gridKey]map[env.EntityID]struct{})}
}

func (g *Grid) key(p geo.Vec3) gridKey {
	return gridKey{cx: toGridCoord(p.X), cz: toGridCoord(p.Z)}
}

// Add places a mob into the grid.
func (g *Grid) Add(id env.EntityID, p geo.Vec3) {
	k := g.key(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[env.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes a mob out of the grid.
func (g *Grid) Remove(id env.EntityID, p geo.Vec3) {
	k := g.key(p)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates a mob's cell when its position changes.
func (g *Grid) Move(id env.EntityID, oldPos, newPos geo.Vec3) {
	oldK := g.key(oldPos)
	newK := g.key(newPos)
	if oldK == newK {
		return
	}
	g.Remove(id, oldPos)
	g.Add(id, newPos)
}

// Nearby returns the IDs in every cell a horizontal radius around center
// can overlap. Caller does fine-grained distance filtering.
func (g *Grid) Nearby(center geo.Vec3, radius float64) []env.EntityID {
	minX := toGridCoord(center.X - radius)
	maxX := toGridCoord(center.X + radius)
	minZ := toGridCoord(center.Z - radius)
	maxZ := toGridCoord(center.Z + radius)

	var result []env.EntityID
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			for id := range g.cells[gridKey{cx: cx, cz: cz}] {
				result = append(result, id)
			}
		}
	}
	return result
}
