// Package transport carries commands and events between the engine process
// and observer processes over a unix domain socket.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"meetingtimer/internal/core/fanout"
	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

// ErrAddressInUse means another engine already answers on the socket.
var ErrAddressInUse = errors.New("socket already served by a running engine")

// Engine executes command messages.
type Engine interface {
	Execute(action wire.Action, start wire.StartPayload) (model.TimerState, error)
}

// ServerConfig configures the engine-side socket server.
type ServerConfig struct {
	SocketPath string

	// EventBuffer is the per-connection event queue. Events beyond it are dropped.
	EventBuffer int

	Logger *slog.Logger
}

// Server accepts observer connections, dispatches their commands to the
// engine and streams hub events back to them.
type Server struct {
	config   ServerConfig
	engine   Engine
	hub      *fanout.Hub
	logger   *slog.Logger
	listener net.Listener

	connsMu sync.Mutex
	conns   map[*serverConn]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

type serverConn struct {
	id     string
	conn   net.Conn
	writer *FrameWriter
	sub    *fanout.Subscription
	once   sync.Once
}

// NewServer creates a server. Start must be called to listen.
func NewServer(config ServerConfig, engine Engine, hub *fanout.Hub) *Server {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		config: config,
		engine: engine,
		hub:    hub,
		logger: config.Logger.With("component", "transport.server"),
		conns:  make(map[*serverConn]struct{}),
	}
}

// Start listens on the socket path. A stale socket file left by a crashed
// engine is removed; a live one yields ErrAddressInUse.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}
	if err := os.MkdirAll(filepath.Dir(s.config.SocketPath), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := clearStaleSocket(ctx, s.config.SocketPath); err != nil {
		return err
	}

	listener, err := net.Listen("unix", s.config.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.SocketPath, err)
	}
	if err := os.Chmod(s.config.SocketPath, 0o600); err != nil {
		s.logger.Warn("restrict socket permissions", "error", err)
	}
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("listening", "socket", s.config.SocketPath)
	return nil
}

// Stop closes the listener and every connection and waits for their goroutines.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	err := s.listener.Close()

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	_ = os.Remove(s.config.SocketPath)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close listener: %w", err)
	}
	return nil
}

// ConnectionCount returns the number of live observer connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.logger.Warn("accept failed", "error", err)
				time.Sleep(50 * time.Millisecond)
			}
			continue
		}

		id := uuid.NewString()
		sc := &serverConn{
			id:     id,
			conn:   conn,
			writer: NewFrameWriter(conn),
			sub: s.hub.SubscribeFiltered("conn:"+id, s.config.EventBuffer, func(event wire.Event) bool {
				return event.Origin != id
			}),
		}

		s.connsMu.Lock()
		if !s.running.Load() {
			s.connsMu.Unlock()
			sc.close()
			return
		}
		s.conns[sc] = struct{}{}
		s.connsMu.Unlock()

		s.wg.Add(2)
		go s.writeLoop(sc)
		go s.readLoop(sc)
		s.logger.Debug("observer connected", "conn", id)
	}
}

func (s *Server) writeLoop(sc *serverConn) {
	defer s.wg.Done()

	for event := range sc.sub.C {
		envelope, err := wire.NewEnvelope(wire.KindEvent, 0, event.Action, event)
		if err != nil {
			s.logger.Error("encode event", "event", event.String(), "error", err)
			continue
		}
		if err := sc.writer.WriteEnvelope(envelope); err != nil {
			s.logger.Debug("event write failed", "conn", sc.id, "error", err)
			sc.close()
			return
		}
	}
}

func (s *Server) readLoop(sc *serverConn) {
	defer s.wg.Done()
	defer s.drop(sc)

	reader := NewFrameReader(sc.conn)
	for {
		envelope, err := reader.ReadEnvelope()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("read failed", "conn", sc.id, "error", err)
			}
			return
		}
		if envelope.Kind != wire.KindCommand {
			s.logger.Debug("ignoring non-command envelope", "conn", sc.id, "kind", envelope.Kind)
			continue
		}
		s.handleCommand(sc, envelope)
	}
}

func (s *Server) handleCommand(sc *serverConn, envelope wire.Envelope) {
	if envelope.Action == wire.ActionShowTimerOverlay {
		var event wire.Event
		if err := envelope.Decode(&event); err != nil {
			s.logger.Debug("bad overlay request", "conn", sc.id, "error", err)
			return
		}
		event.Action = wire.ActionShowTimerOverlay
		event.Origin = sc.id
		s.hub.Publish(event)
		return
	}

	var start wire.StartPayload
	if envelope.Action == wire.ActionStartTimer {
		if err := envelope.Decode(&start); err != nil {
			s.reply(sc, envelope, model.TimerState{}, err)
			return
		}
	}

	state, err := s.engine.Execute(envelope.Action, start)
	if err != nil {
		s.logger.Info("command rejected", "action", envelope.Action, "error", err)
	}
	s.reply(sc, envelope, state, err)
}

func (s *Server) reply(sc *serverConn, request wire.Envelope, state model.TimerState, cause error) {
	if request.ID == 0 {
		return
	}
	response, err := wire.NewEnvelope(wire.KindResponse, request.ID, request.Action, wire.StateReply{State: state})
	if err != nil {
		s.logger.Error("encode response", "action", request.Action, "error", err)
		return
	}
	if cause != nil {
		response.Error = cause.Error()
	}
	if err := sc.writer.WriteEnvelope(response); err != nil {
		s.logger.Debug("response write failed", "conn", sc.id, "error", err)
	}
}

func (s *Server) drop(sc *serverConn) {
	sc.close()
	s.connsMu.Lock()
	delete(s.conns, sc)
	s.connsMu.Unlock()
	s.logger.Debug("observer disconnected", "conn", sc.id)
}

func (sc *serverConn) close() {
	sc.once.Do(func() {
		sc.sub.Close()
		_ = sc.conn.Close()
	})
}

func clearStaleSocket(ctx context.Context, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	dialer := net.Dialer{Timeout: 200 * time.Millisecond}
	if conn, err := dialer.DialContext(ctx, "unix", path); err == nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrAddressInUse, path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}
