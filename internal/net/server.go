// Package net carries the presence transport: sessions announce a player
// joining, moving, and quitting. The snapshot/restore engine itself never
// touches this layer; it only sees the join/disconnect events the game loop
// derives from it.
package net

import (
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts TCP connections and creates Sessions.
// New/dead sessions are communicated to the game loop via channels.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64 // session IDs of dead sessions
	inSize   int
	log      *zap.Logger
	closeCh  chan struct{}
}

func NewServer(bindAddr string, inSize int, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		inSize:   inSize,
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

// AcceptLoop runs in its own goroutine. It accepts connections, creates
// sessions, and pushes them onto the newConns channel for the game loop.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.inSize, s.deadCh, s.log)
		sess.Start()

		s.log.Info("session connected",
			zap.Uint64("session", id), zap.String("ip", sess.IP))
		s.newConns <- sess
	}
}

// NewConns returns the channel of freshly accepted sessions.
func (s *Server) NewConns() <-chan *Session {
	return s.newConns
}

// Dead returns the channel of session IDs whose connection has ended.
func (s *Server) Dead() <-chan uint64 {
	return s.deadCh
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}
