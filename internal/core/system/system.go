package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session queues
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: fire due timer callbacks
	PhasePostUpdate              // 3: despawn sweep, chunk residency
)

// System is the interface every game system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
