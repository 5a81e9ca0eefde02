package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/observer"
	"meetingtimer/internal/storage"
	"meetingtimer/internal/transport"
	"meetingtimer/internal/wire"
)

// Cues are the optional audio collaborators of an observer.
type Cues struct {
	Sounder    observer.Sounder
	Speaker    observer.Speaker
	SpeechText string
}

// Attachment is an active observer plus the resources it holds.
type Attachment struct {
	*observer.Observer
	release func()
	once    sync.Once
}

// Close stops the observer and releases its channel.
func (attachment *Attachment) Close() {
	attachment.once.Do(func() {
		attachment.Observer.Close()
		if attachment.release != nil {
			attachment.release()
		}
	})
}

// UpdateCues swaps the observer's audio collaborators.
func (attachment *Attachment) UpdateCues(cues Cues) {
	attachment.SetCues(cues.Sounder, cues.Speaker, cues.SpeechText)
}

// AttachLocal activates an observer in the engine's process. It receives
// push events through the hub and store changes through a watch.
func (runtime *Runtime) AttachLocal(ctx context.Context, name string, surface observer.Surface, cues Cues) (*Attachment, error) {
	origin := name + "-" + uuid.NewString()
	sub := runtime.Hub.SubscribeFiltered(origin, 64, func(event wire.Event) bool {
		return event.Origin != origin
	})

	obs := observer.New(observer.Options{
		Name:       name,
		Surface:    surface,
		Commander:  observer.NewLocalCommander(runtime.Keeper, runtime.Hub, origin),
		Store:      runtime.Timers,
		Watcher:    runtime.Store,
		Events:     sub.C,
		Sounder:    cues.Sounder,
		Speaker:    cues.Speaker,
		SpeechText: cues.SpeechText,
		Logger:     runtime.logger,
	})
	attachment := &Attachment{Observer: obs, release: sub.Close}
	if err := obs.Activate(ctx); err != nil {
		attachment.Close()
		return nil, fmt.Errorf("activate %s: %w", name, err)
	}
	return attachment, nil
}

// RemoteOptions configures an observer in a separate process.
type RemoteOptions struct {
	Settings model.Settings
	Name     string
	Surface  observer.Surface
	Cues     Cues
	Timing   model.SyncTiming
	Logger   *slog.Logger
}

// AttachRemote activates an observer that reaches the engine over the socket
// and reads the shared database for the polling fallback. When no engine is
// listening the observer still runs from the database alone.
func AttachRemote(ctx context.Context, options RemoteOptions) (*Attachment, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := storage.OpenSQLite(options.Settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	store := storage.New(backend, logger)
	timers := storage.NewTimerStore(store)

	var (
		commander observer.Commander
		events    <-chan wire.Event
		client    *transport.Client
	)
	client, err = transport.Dial(ctx, options.Settings.SocketPath, transport.ClientConfig{Logger: logger})
	if err != nil {
		logger.Warn("engine not reachable, following the database only", "socket", options.Settings.SocketPath, "error", err)
	} else {
		commander = client
		events = client.Events()
	}

	obs := observer.New(observer.Options{
		Name:       options.Name,
		Surface:    options.Surface,
		Commander:  commander,
		Store:      timers,
		Events:     events,
		Sounder:    options.Cues.Sounder,
		Speaker:    options.Cues.Speaker,
		SpeechText: options.Cues.SpeechText,
		Timing:     options.Timing,
		Logger:     logger,
	})
	attachment := &Attachment{
		Observer: obs,
		release: func() {
			if client != nil {
				_ = client.Close()
			}
			_ = store.Close()
		},
	}
	if err := obs.Activate(ctx); err != nil {
		attachment.Close()
		return nil, fmt.Errorf("activate %s: %w", options.Name, err)
	}
	return attachment, nil
}

// Session reopens an observer each time its surface is shown and closes it
// when hidden. Commands issued while closed are dropped.
type Session struct {
	open func() (*Attachment, error)

	mu      sync.Mutex
	current *Attachment
	logger  *slog.Logger
}

// NewSession creates a closed session.
func NewSession(open func() (*Attachment, error), logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{open: open, logger: logger}
}

// Open activates a fresh observer unless one is active.
func (session *Session) Open() {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.current != nil {
		return
	}
	attachment, err := session.open()
	if err != nil {
		session.logger.Warn("observer not opened", "error", err)
		return
	}
	session.current = attachment
}

// Close releases the active observer.
func (session *Session) Close() {
	session.mu.Lock()
	current := session.current
	session.current = nil
	session.mu.Unlock()
	if current != nil {
		current.Close()
	}
}

// Active reports whether an observer is attached.
func (session *Session) Active() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.current != nil
}

func (session *Session) with(fn func(*observer.Observer)) {
	session.mu.Lock()
	current := session.current
	session.mu.Unlock()
	if current != nil {
		fn(current.Observer)
	}
}

func (session *Session) Select(seconds, selectedMinutes int) {
	session.with(func(obs *observer.Observer) { obs.Select(seconds, selectedMinutes) })
}

func (session *Session) SetCustom(input string) {
	session.with(func(obs *observer.Observer) { obs.SetCustom(input) })
}

func (session *Session) ClearInput() {
	session.with(func(obs *observer.Observer) { obs.ClearInput() })
}

func (session *Session) Start() { session.with(func(obs *observer.Observer) { obs.Start() }) }
func (session *Session) Pause() { session.with(func(obs *observer.Observer) { obs.Pause() }) }
func (session *Session) Reset() { session.with(func(obs *observer.Observer) { obs.Reset() }) }
