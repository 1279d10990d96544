package event

import "github.com/teknik1/hardcorelogoff/internal/geo"

// PlayerJoined fires when a session enters the world (fresh or returning).
type PlayerJoined struct {
	SessionID uint64
	Name      string
	Pos       geo.Vec3
}

// PlayerDisconnected fires when a session leaves the world for any reason,
// carrying the player's last known position.
type PlayerDisconnected struct {
	SessionID uint64
	Name      string
	Pos       geo.Vec3
}
