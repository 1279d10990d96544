package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TerrainColumn overrides the ground height of one block column.
type TerrainColumn struct {
	X      int `yaml:"x"`
	Z      int `yaml:"z"`
	Height int `yaml:"height"`
}

type terrainFile struct {
	GroundLevel int             `yaml:"ground_level"`
	Columns     []TerrainColumn `yaml:"columns"`
}

type columnKey struct {
	x int
	z int
}

// Terrain is a heightmap: per-column ground height with a flat default.
// Height is the Y of the topmost solid block; feet stand at height+1.
type Terrain struct {
	groundLevel int
	columns     map[columnKey]int
}

// LoadTerrain loads the heightmap from a YAML file.
func LoadTerrain(path string) (*Terrain, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read terrain: %w", err)
	}
	var f terrainFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse terrain: %w", err)
	}
	t := &Terrain{groundLevel: f.GroundLevel, columns: make(map[columnKey]int, len(f.Columns))}
	for _, c := range f.Columns {
		t.columns[columnKey{x: c.X, z: c.Z}] = c.Height
	}
	return t, nil
}

// FlatTerrain returns a uniform heightmap. Used as a fallback and in tests.
func FlatTerrain(groundLevel int) *Terrain {
	return &Terrain{groundLevel: groundLevel, columns: make(map[columnKey]int)}
}

// HeightAt returns the ground height of a block column.
func (t *Terrain) HeightAt(x, z int) int {
	if h, ok := t.columns[columnKey{x: x, z: z}]; ok {
		return h
	}
	return t.groundLevel
}

// SetHeight overrides one column. Used by tests to shape terrain.
func (t *Terrain) SetHeight(x, z, height int) {
	t.columns[columnKey{x: x, z: z}] = height
}

// Columns returns the number of overridden columns.
func (t *Terrain) Columns() int {
	return len(t.columns)
}
