// Package observer is the shared logic behind every surface that renders the
// countdown: activation, sync requests, push handling, the store polling
// fallback and the once-per-cycle voice announcement.
//
// Each Observer runs a single loop goroutine. Pushes, poll results, store
// changes and user commands are all applied on that loop, so reconciliation
// never runs concurrently with itself.
package observer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"meetingtimer/internal/core/durationinput"
	"meetingtimer/internal/core/model"
	"meetingtimer/internal/storage"
	"meetingtimer/internal/wire"
)

// ErrClosed is returned when activating a closed observer.
var ErrClosed = errors.New("observer closed")

// Surface renders a view. Implementations must not block.
type Surface interface {
	Render(view View)
	ShowWarningLevel(level model.Level)
}

// Sounder plays short cues. Optional.
type Sounder interface {
	PlayWarning()
	PlayDone()
}

// Speaker announces text aloud. Optional.
type Speaker interface {
	Speak(text string) error
}

// Commander delivers commands to the engine.
type Commander interface {
	Send(action wire.Action, body any) error
	RequestState(ctx context.Context, action wire.Action, body any) (model.TimerState, error)
}

// StateSource is the read side of the durable store.
type StateSource interface {
	LoadSnapshot(ctx context.Context) (storage.Snapshot, error)
	ClaimSpeech(ctx context.Context) (bool, error)
}

// ChangeWatcher delivers same-process store changes.
type ChangeWatcher interface {
	Watch(fn func(storage.Change)) func()
}

// Options wires an Observer.
type Options struct {
	Name      string
	Surface   Surface
	Commander Commander
	// Store is required.
	Store StateSource

	// Watcher is nil for observers in a different process than the engine.
	Watcher ChangeWatcher
	// Events is the push channel. It may be nil or closed at any time.
	Events <-chan wire.Event

	Sounder    Sounder
	Speaker    Speaker
	SpeechText string

	Timing model.SyncTiming
	Now    func() time.Time
	Logger *slog.Logger
}

// Observer keeps one surface converged on the engine state.
type Observer struct {
	opts   Options
	logger *slog.Logger

	ops    chan func()
	events <-chan wire.Event

	mu       sync.Mutex
	active   bool
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
	unwatch  func()
	timers   []*time.Timer
	view     View
	lastPush time.Time
	level    model.Level
	polling  bool
	edits    uint64

	// selected marks a local selection the engine has not started yet.
	// Reset echoes and idle state replies leave it alone. Loop only.
	selected bool
}

// New creates an inactive observer.
func New(opts Options) *Observer {
	if opts.Timing == (model.SyncTiming{}) {
		opts.Timing = model.DefaultSyncTiming()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = "observer"
	}
	return &Observer{
		opts:   opts,
		logger: opts.Logger.With("component", "observer", "surface", opts.Name),
		ops:    make(chan func(), 32),
		events: opts.Events,
	}
}

// View returns the current view.
func (obs *Observer) View() View {
	obs.mu.Lock()
	defer obs.mu.Unlock()
	return obs.view
}

// Activate loads the persisted snapshot, renders it, requests a state sync
// twice and starts the poll loop, store watch and push consumer.
func (obs *Observer) Activate(ctx context.Context) error {
	obs.mu.Lock()
	if obs.closed {
		obs.mu.Unlock()
		return ErrClosed
	}
	if obs.active {
		obs.mu.Unlock()
		return nil
	}
	obs.active = true
	obs.polling = true
	obs.lastPush = obs.opts.Now()
	loopCtx, cancel := context.WithCancel(context.Background())
	obs.cancel = cancel
	obs.done = make(chan struct{})
	obs.mu.Unlock()

	snapshot, err := obs.opts.Store.LoadSnapshot(ctx)
	if err != nil {
		obs.logger.Warn("load snapshot failed, polling disabled", "error", err)
		obs.mu.Lock()
		obs.polling = false
		obs.mu.Unlock()
	} else if snapshot.HasState {
		obs.apply(func(view View) View {
			view = ApplyState(view, snapshot.State)
			view.Status = StatusFor(snapshot.State)
			view.Visible = snapshot.State.IsRunning
			return view
		})
	} else {
		obs.apply(func(view View) View {
			view.Level = model.LevelFor(view.TimeLeft)
			view.Status = StatusReady
			return view
		})
	}

	if obs.opts.Watcher != nil && err == nil {
		unwatch := obs.opts.Watcher.Watch(obs.onChange)
		obs.mu.Lock()
		obs.unwatch = unwatch
		obs.mu.Unlock()
	}

	go obs.loop(loopCtx)

	obs.requestSync(loopCtx)
	resync := time.AfterFunc(obs.opts.Timing.ResyncDelay, func() { obs.requestSync(loopCtx) })
	obs.mu.Lock()
	obs.timers = append(obs.timers, resync)
	obs.mu.Unlock()
	return nil
}

// Close releases the watch, poll loop and push consumer. Safe to call twice.
func (obs *Observer) Close() {
	obs.mu.Lock()
	if obs.closed {
		obs.mu.Unlock()
		return
	}
	obs.closed = true
	cancel, done, unwatch := obs.cancel, obs.done, obs.unwatch
	timers := obs.timers
	obs.timers, obs.unwatch = nil, nil
	obs.mu.Unlock()

	for _, timer := range timers {
		timer.Stop()
	}
	if unwatch != nil {
		unwatch()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

// SetCues replaces the audio collaborators from the next event on.
func (obs *Observer) SetCues(sounder Sounder, speaker Speaker, speechText string) {
	obs.post(func() {
		obs.opts.Sounder = sounder
		obs.opts.Speaker = speaker
		obs.opts.SpeechText = speechText
	})
}

// Select arms a local view with a chosen duration and asks the overlay to
// appear. Ignored while running.
func (obs *Observer) Select(seconds, selectedMinutes int) {
	obs.postEdit(func() {
		if obs.view.IsRunning || seconds <= 0 || seconds > model.MaxSeconds {
			return
		}
		obs.doSelect(seconds, selectedMinutes, SelectedStatus(seconds))
	})
}

// SetCustom parses typed input. Invalid input only changes the inline
// feedback; valid input resets the engine and selects the duration.
func (obs *Observer) SetCustom(input string) {
	obs.postEdit(func() {
		seconds, err := durationinput.Parse(input)
		if err != nil {
			obs.apply(func(view View) View {
				view.Input = InputError
				view.InputMessage = durationinput.Message(err)
				return view
			})
			obs.clearInputAfter(3 * time.Second)
			return
		}

		obs.doReset()
		obs.doSelect(seconds, 0, CustomStatus(seconds))
		obs.apply(func(view View) View {
			view.Input = InputSuccess
			view.InputMessage = ""
			return view
		})
		obs.clearInputAfter(2 * time.Second)
	})
}

// ClearInput drops inline feedback, e.g. when the user edits the field.
func (obs *Observer) ClearInput() {
	obs.post(func() {
		obs.apply(func(view View) View {
			view.Input = InputNone
			view.InputMessage = ""
			return view
		})
	})
}

// Start asks the engine to count down the current view.
func (obs *Observer) Start() {
	obs.postEdit(func() {
		view := obs.View()
		if view.IsRunning {
			return
		}
		if view.TimeLeft <= 0 {
			obs.apply(func(view View) View {
				view.Status = StatusSelectDuration
				return view
			})
			return
		}
		obs.selected = false
		obs.send(wire.ActionStartTimer, wire.StartPayload{
			TimeLeft:        view.TimeLeft,
			TotalTime:       view.TotalTime,
			SelectedMinutes: view.SelectedMinutes,
		})
		obs.apply(func(view View) View {
			view.IsRunning = true
			view.Visible = true
			view.Status = StatusRunning
			return view
		})
	})
}

// Pause asks the engine to pause.
func (obs *Observer) Pause() {
	obs.postEdit(func() {
		if !obs.View().IsRunning {
			return
		}
		obs.send(wire.ActionPauseTimer, nil)
		obs.apply(func(view View) View {
			view.IsRunning = false
			view.Status = StatusPaused
			return view
		})
	})
}

// Reset asks the engine to reset and shows the reset target. A selection that
// was never started stays the reset target.
func (obs *Observer) Reset() {
	obs.postEdit(obs.doReset)
}

func (obs *Observer) doSelect(seconds, selectedMinutes int, status string) {
	obs.selected = true
	obs.apply(func(view View) View {
		view.TotalTime = seconds
		view.SelectedMinutes = selectedMinutes
		view.IsRunning = false
		view.Visible = true
		view.Status = status
		return Reconcile(view, seconds)
	})
	obs.send(wire.ActionShowTimerOverlay, wire.Event{Action: wire.ActionShowTimerOverlay, TimeLeft: seconds})
}

func (obs *Observer) doReset() {
	obs.send(wire.ActionResetTimer, nil)
	obs.apply(resetView)
}

func resetView(view View) View {
	view.IsRunning = false
	if view.TotalTime > 0 {
		view.Status = StatusReset
		return Reconcile(view, view.TotalTime)
	}
	view.SelectedMinutes = 0
	view.Visible = false
	view.Status = StatusReady
	return Reconcile(view, 0)
}

func (obs *Observer) clearInputAfter(delay time.Duration) {
	obs.after(delay, func() {
		obs.apply(func(view View) View {
			view.Input = InputNone
			view.InputMessage = ""
			return view
		})
	})
}

func (obs *Observer) send(action wire.Action, body any) {
	if obs.opts.Commander == nil {
		return
	}
	if err := obs.opts.Commander.Send(action, body); err != nil {
		obs.logger.Debug("command not delivered", "action", action, "error", err)
	}
}
