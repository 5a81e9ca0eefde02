package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

// DefaultRequestTimeout bounds a request whose context carries no deadline.
const DefaultRequestTimeout = 2 * time.Second

var (
	// ErrTimeout is returned when the engine does not answer a request in time.
	ErrTimeout = errors.New("request timed out")
	// ErrConnClosed is returned for operations on a closed connection.
	ErrConnClosed = errors.New("connection closed")
)

// ClientConfig configures an observer-side connection.
type ClientConfig struct {
	ConnectTimeout time.Duration
	EventBuffer    int
	Logger         *slog.Logger
}

// Client is an observer's connection to the engine.
type Client struct {
	conn   net.Conn
	writer *FrameWriter
	events chan wire.Event
	logger *slog.Logger

	nextID    atomic.Uint64
	pendingMu sync.Mutex
	pending   map[uint64]chan wire.Envelope

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the engine socket at path.
func Dial(ctx context.Context, path string, config ClientConfig) (*Client, error) {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 2 * time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	dialer := net.Dialer{Timeout: config.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}

	client := &Client{
		conn:    conn,
		writer:  NewFrameWriter(conn),
		events:  make(chan wire.Event, config.EventBuffer),
		logger:  config.Logger.With("component", "transport.client"),
		pending: make(map[uint64]chan wire.Envelope),
		done:    make(chan struct{}),
	}
	go client.readLoop()
	return client, nil
}

// Events delivers pushed events. It is closed when the connection ends.
func (c *Client) Events() <-chan wire.Event {
	return c.events
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send issues a command without waiting for an answer.
func (c *Client) Send(action wire.Action, body any) error {
	envelope, err := wire.NewEnvelope(wire.KindCommand, 0, action, body)
	if err != nil {
		return err
	}
	return c.write(envelope)
}

// Request issues a command and waits for its response.
func (c *Client) Request(ctx context.Context, action wire.Action, body any) (wire.Envelope, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	envelope, err := wire.NewEnvelope(wire.KindCommand, id, action, body)
	if err != nil {
		return wire.Envelope{}, err
	}

	reply := make(chan wire.Envelope, 1)
	c.pendingMu.Lock()
	c.pending[id] = reply
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.write(envelope); err != nil {
		return wire.Envelope{}, err
	}

	select {
	case response := <-reply:
		if response.Error != "" {
			return response, fmt.Errorf("%s: %s", action, response.Error)
		}
		return response, nil
	case <-c.done:
		return wire.Envelope{}, ErrConnClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return wire.Envelope{}, fmt.Errorf("%s: %w", action, ErrTimeout)
		}
		return wire.Envelope{}, ctx.Err()
	}
}

// RequestState issues a command whose response carries the timer state.
func (c *Client) RequestState(ctx context.Context, action wire.Action, body any) (model.TimerState, error) {
	response, err := c.Request(ctx, action, body)
	if err != nil {
		return model.TimerState{}, err
	}
	var reply wire.StateReply
	if err := response.Decode(&reply); err != nil {
		return model.TimerState{}, err
	}
	return reply.State, nil
}

// Close ends the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (c *Client) write(envelope wire.Envelope) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	if err := c.writer.WriteEnvelope(envelope); err != nil {
		return fmt.Errorf("send %s: %w", envelope.Action, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.events)

	reader := NewFrameReader(c.conn)
	for {
		envelope, err := reader.ReadEnvelope()
		if err != nil {
			c.logger.Debug("connection ended", "error", err)
			_ = c.Close()
			return
		}

		switch envelope.Kind {
		case wire.KindResponse:
			c.pendingMu.Lock()
			reply, ok := c.pending[envelope.ID]
			c.pendingMu.Unlock()
			if ok {
				reply <- envelope
			}
		case wire.KindEvent:
			var event wire.Event
			if err := envelope.Decode(&event); err != nil {
				c.logger.Debug("bad event", "action", envelope.Action, "error", err)
				continue
			}
			select {
			case c.events <- event:
			default:
				c.logger.Debug("event dropped", "event", event.String())
			}
		}
	}
}
