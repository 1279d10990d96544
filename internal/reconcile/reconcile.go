// Package reconcile computes the top-up shortfall between a captured
// snapshot and the entities currently alive near a position.
package reconcile

import (
	"strings"

	"github.com/teknik1/hardcorelogoff/internal/env"
)

// Lists holds the four category prefix lists. Matching is first-prefix-wins,
// case-insensitive, order-sensitive.
type Lists struct {
	Capture []string // eligible for capture; also the default restore set
	Restore []string // restored when a trigger entity is present
	Trigger []string // live presence switches the active set to Restore
	Exclude []string // never captured, never counted
}

// FirstMatch returns the first prefix in prefixes that category starts with.
func FirstMatch(category string, prefixes []string) (string, bool) {
	c := strings.ToLower(category)
	for _, p := range prefixes {
		if strings.HasPrefix(c, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// Excluded reports whether a category matches any exclude prefix.
func (l Lists) Excluded(category string) bool {
	_, ok := FirstMatch(category, l.Exclude)
	return ok
}

// ActiveSet picks the prefix list governing a restore: the Restore list when
// any alive, non-excluded, non-player entity matches a Trigger prefix, the
// Capture list otherwise.
func (l Lists) ActiveSet(alive []env.Entity) []string {
	for _, e := range alive {
		if !e.Alive || e.Player || l.Excluded(e.Category) {
			continue
		}
		if _, ok := FirstMatch(e.Category, l.Trigger); ok {
			return l.Restore
		}
	}
	return l.Capture
}

// Need maps a prefix to its positive top-up count. Zero-need prefixes are
// never present.
type Need map[string]int

// Total returns the sum of all needs.
func (n Need) Total() int {
	sum := 0
	for _, v := range n {
		sum += v
	}
	return sum
}

// Compute derives the shortfall per prefix. captured holds the category
// codes recorded in the snapshot; alive is the current population near the
// reference position. The second return value is the active prefix list the
// counts were grouped by.
func Compute(captured []string, alive []env.Entity, l Lists) (Need, []string) {
	active := l.ActiveSet(alive)

	want := make(map[string]int)
	for _, cat := range captured {
		if p, ok := FirstMatch(cat, active); ok {
			want[p]++
		}
	}

	have := make(map[string]int)
	for _, e := range alive {
		if !e.Alive || e.Player || l.Excluded(e.Category) {
			continue
		}
		if p, ok := FirstMatch(e.Category, active); ok {
			have[p]++
		}
	}

	need := make(Need)
	for p, w := range want {
		if d := w - have[p]; d > 0 {
			need[p] = d
		}
	}
	return need, active
}
