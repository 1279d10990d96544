package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/teknik1/hardcorelogoff/internal/core/event"
	coresys "github.com/teknik1/hardcorelogoff/internal/core/system"
	"github.com/teknik1/hardcorelogoff/internal/geo"
	gonet "github.com/teknik1/hardcorelogoff/internal/net"
	"github.com/teknik1/hardcorelogoff/internal/world"
)

// InputSystem drains new/dead session channels and per-session message
// queues, mutates world presence, and emits join/disconnect events for the
// engine. Phase 0 (Input).
type InputSystem struct {
	server     *gonet.Server
	sessions   map[uint64]*gonet.Session
	world      *world.State
	bus        *event.Bus
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(server *gonet.Server, ws *world.State, bus *event.Bus, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		server:     server,
		sessions:   make(map[uint64]*gonet.Session),
		world:      ws,
		bus:        bus,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// New connections.
accept:
	for {
		select {
		case sess := <-s.server.NewConns():
			s.sessions[sess.ID] = sess
		default:
			break accept
		}
	}

	// Per-session messages, bounded per tick.
	for _, sess := range s.sessions {
	msgs:
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case msg := <-sess.InQueue:
				s.handle(sess, msg)
			default:
				break msgs
			}
		}
	}

	// Dead sessions become disconnect events.
	for {
		select {
		case id := <-s.server.Dead():
			s.drop(id)
		default:
			return
		}
	}
}

func (s *InputSystem) handle(sess *gonet.Session, msg gonet.Msg) {
	switch msg.Op {
	case "join":
		pos := geo.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}
		sess.CharName = msg.Name
		s.world.AddPlayer(sess.ID, msg.Name, pos)
		s.log.Info("player joined",
			zap.Uint64("session", sess.ID), zap.String("name", msg.Name))
		event.Emit(s.bus, event.PlayerJoined{SessionID: sess.ID, Name: msg.Name, Pos: pos})
	case "move":
		s.world.MovePlayer(sess.ID, geo.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z})
	case "quit":
		sess.Close()
	default:
		s.log.Debug("unknown op", zap.String("op", msg.Op))
	}
}

func (s *InputSystem) drop(id uint64) {
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	p, inWorld := s.world.RemovePlayer(id)
	if !inWorld {
		return // connected but never joined
	}
	s.log.Info("player disconnected",
		zap.Uint64("session", id), zap.String("name", sess.CharName))
	event.Emit(s.bus, event.PlayerDisconnected{SessionID: id, Name: p.Name, Pos: p.Pos})
}
