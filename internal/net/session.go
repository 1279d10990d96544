package net

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Msg is one client line. The protocol is newline-delimited JSON:
//
//	{"op":"join","name":"a","x":10,"y":65,"z":-40}
//	{"op":"move","x":12,"y":65,"z":-38}
//	{"op":"quit"}
//
// Closing the connection without a quit is a disconnect all the same; the
// dead-session notification carries the distinction to the game loop.
type Msg struct {
	Op   string  `json:"op"`
	Name string  `json:"name,omitempty"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	Z    float64 `json:"z,omitempty"`
}

// maxLineBytes bounds one protocol line.
const maxLineBytes = 4096

// Session represents a single client connection. Network I/O runs in a
// dedicated goroutine; game state is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn net.Conn

	InQueue chan Msg // game loop reads parsed messages from here

	IP       string
	CharName string // set by the game loop after join

	deadCh    chan<- uint64
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize int, deadCh chan<- uint64, log *zap.Logger) *Session {
	return &Session{
		ID:      id,
		conn:    conn,
		InQueue: make(chan Msg, inSize),
		IP:      conn.RemoteAddr().String(),
		deadCh:  deadCh,
		closeCh: make(chan struct{}),
		log:     log.With(zap.Uint64("session", id)),
	}
}

// Start launches the reader goroutine.
func (s *Session) Start() {
	go s.readLoop()
}

// Close shuts the session down and notifies the game loop exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
		s.deadCh <- s.ID
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop reads JSON lines and pushes parsed messages onto InQueue for the
// game loop to consume. Malformed lines drop the connection.
func (s *Session) readLoop() {
	defer s.Close()

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 256), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Msg
		if err := json.Unmarshal(line, &msg); err != nil {
			s.log.Warn("malformed message, dropping connection", zap.Error(err))
			return
		}

		// Block until the game loop has room. The goroutine is
		// per-session, so this only stalls this client.
		select {
		case s.InQueue <- msg:
		case <-s.closeCh:
			return
		}
	}
	if err := scanner.Err(); err != nil && !s.closed.Load() {
		s.log.Debug("read error", zap.Error(err))
	}
}
