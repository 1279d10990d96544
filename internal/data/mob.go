package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MobTemplate holds static data for a mob type loaded from YAML. Category
// is the namespaced code ("domain:category") snapshots record.
type MobTemplate struct {
	Category       string `yaml:"category"`
	Name           string `yaml:"name"`
	MaxHP          int32  `yaml:"hp"`
	Level          int16  `yaml:"level"`
	Hostile        bool   `yaml:"hostile"`
	Persistent     bool   `yaml:"persistent"`      // never idle-despawns (no rule to suppress)
	DespawnSeconds int    `yaml:"despawn_seconds"` // idle-despawn threshold (0 = world default)
}

type mobListFile struct {
	Mobs []MobTemplate `yaml:"mobs"`
}

// MobTable holds all mob templates indexed by lowercased category code.
type MobTable struct {
	templates map[string]*MobTemplate
}

// LoadMobTable loads mob templates from a YAML file.
func LoadMobTable(path string) (*MobTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mob_list: %w", err)
	}
	var f mobListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse mob_list: %w", err)
	}
	t := &MobTable{templates: make(map[string]*MobTemplate, len(f.Mobs))}
	for i := range f.Mobs {
		m := &f.Mobs[i]
		t.templates[strings.ToLower(m.Category)] = m
	}
	return t, nil
}

// NewMobTable builds a table directly from templates. Used by tests.
func NewMobTable(mobs ...MobTemplate) *MobTable {
	t := &MobTable{templates: make(map[string]*MobTemplate, len(mobs))}
	for i := range mobs {
		m := mobs[i]
		t.templates[strings.ToLower(m.Category)] = &m
	}
	return t
}

// Resolve returns the template for a category code, case-insensitive.
// Returns false when the category is unknown (content changed since the
// snapshot was captured).
func (t *MobTable) Resolve(category string) (*MobTemplate, bool) {
	m, ok := t.templates[strings.ToLower(category)]
	return m, ok
}

// Count returns the number of loaded templates.
func (t *MobTable) Count() int {
	return len(t.templates)
}
