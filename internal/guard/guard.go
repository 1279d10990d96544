// Package guard suppresses environment-driven mob removal for a grace
// window after a restore, so freshly restored mobs are not despawned before
// a player gets near them.
package guard

import (
	"time"

	"go.uber.org/zap"

	"github.com/teknik1/hardcorelogoff/internal/env"
)

// suppressedThreshold is the effectively-infinite override applied while a
// grace window is active.
const suppressedThreshold = 100 * 365 * 24 * time.Hour

// Guard applies best-effort despawn suppression. Entities whose removal
// rule cannot be located are silently left alone.
type Guard struct {
	rules  env.RuleSource
	timers env.Scheduler
	log    *zap.Logger
}

func New(rules env.RuleSource, timers env.Scheduler, log *zap.Logger) *Guard {
	return &Guard{rules: rules, timers: timers, log: log}
}

// Suppress overrides the entity's despawn threshold for the grace window
// and schedules restoration of the original value. No-op when grace <= 0 or
// when the entity carries no despawn rule.
func (g *Guard) Suppress(id env.EntityID, grace time.Duration) {
	if grace <= 0 {
		return
	}
	rule, ok := g.rules.DespawnRule(id)
	if !ok {
		return
	}
	orig := rule.Threshold()
	rule.SetThreshold(suppressedThreshold)
	g.log.Debug("despawn suppressed",
		zap.Int64("entity", int64(id)), zap.Duration("grace", grace))

	g.timers.After(grace, func() {
		rule.SetThreshold(orig)
	})
}
