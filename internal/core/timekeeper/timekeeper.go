// Package timekeeper is the single authoritative owner of the countdown.
package timekeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

var (
	// ErrRunning is returned when a configuration change is attempted mid-countdown.
	ErrRunning = errors.New("timer is running")
	// ErrInvalidDuration is returned for durations outside 0..model.MaxSeconds.
	ErrInvalidDuration = errors.New("invalid duration")
)

// Config contains runtime options for TimeKeeper.
type Config struct {
	TickInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// StateLoader reads a previously persisted snapshot.
type StateLoader interface {
	LoadState(ctx context.Context) (model.TimerState, bool, error)
}

// TimeKeeper is the countdown state machine. Every mutation happens under mu
// and is persisted before the lock is released.
type TimeKeeper struct {
	mu         sync.Mutex
	options    Config
	logger     *slog.Logger
	state      model.TimerState
	store      Persister
	publisher  Publisher
	notifier   Notifier
	stopCh     chan struct{}
	generation uint64
	finished   bool
}

// New creates an idle TimeKeeper. A nil store or publisher discards writes.
func New(store Persister, publisher Publisher, options Config) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if store == nil {
		store = discardPersister{}
	}
	if publisher == nil {
		publisher = discardPublisher{}
	}

	return &TimeKeeper{
		options:   options,
		logger:    options.Logger.With("component", "timekeeper"),
		store:     store,
		publisher: publisher,
	}
}

// SetNotifier injects the desktop notification collaborator.
func (keeper *TimeKeeper) SetNotifier(notifier Notifier) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.notifier = notifier
}

// Restore loads a prior snapshot. A countdown persisted as running resumes
// paused, since no tick loop survives the previous process.
func (keeper *TimeKeeper) Restore(ctx context.Context, loader StateLoader) error {
	state, ok, err := loader.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("restore timer state: %w", err)
	}
	if !ok {
		return nil
	}
	if !state.Valid() || state.TotalTime > model.MaxSeconds {
		keeper.logger.Warn("discarding invalid persisted state", "state", state)
		return nil
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.state.IsRunning {
		return ErrRunning
	}
	wasRunning := state.IsRunning
	state.IsRunning = false
	keeper.state = state
	keeper.finished = state.TimeLeft == 0 && state.TotalTime > 0
	if wasRunning {
		keeper.store.SaveState(keeper.state)
	}
	keeper.logger.Info("restored timer state", "time_left", state.TimeLeft, "total_time", state.TotalTime, "was_running", wasRunning)
	return nil
}

// Configure arms the timer with a new total. It fails while running.
func (keeper *TimeKeeper) Configure(totalTime, selectedMinutes int) error {
	if err := validateDuration(totalTime); err != nil {
		return err
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.configureLocked(totalTime, selectedMinutes)
}

// Start begins counting down. It does nothing when already running or when
// there is nothing left to count.
func (keeper *TimeKeeper) Start() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.startLocked()
}

// StartWith handles the startTimer command: configure and start in one step.
// A timeLeft in 1..totalTime is kept, so a paused countdown resumes where it
// stopped; anything else restarts from totalTime.
func (keeper *TimeKeeper) StartWith(timeLeft, totalTime, selectedMinutes int) error {
	if err := validateDuration(totalTime); err != nil {
		return err
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.state.IsRunning {
		return nil
	}
	if err := keeper.configureLocked(totalTime, selectedMinutes); err != nil {
		return err
	}
	if timeLeft > 0 && timeLeft <= totalTime {
		keeper.state.TimeLeft = timeLeft
	}
	keeper.startLocked()
	return nil
}

// Pause freezes the countdown. The tick loop is stopped before Pause returns.
func (keeper *TimeKeeper) Pause() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if !keeper.state.IsRunning {
		return
	}

	keeper.stopLoopLocked()
	keeper.state.IsRunning = false
	keeper.store.SaveState(keeper.state)
	keeper.emitLocked(newEvent(wire.ActionTimerPaused, keeper.state.TimeLeft, keeper.options.Now()))
	keeper.logger.Debug("paused", "time_left", keeper.state.TimeLeft)
}

// Reset stops the countdown and returns to Armed, or Idle when no total is set.
func (keeper *TimeKeeper) Reset() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.stopLoopLocked()
	keeper.state.IsRunning = false
	if keeper.state.TotalTime > 0 {
		keeper.state.TimeLeft = keeper.state.TotalTime
	} else {
		keeper.state.TimeLeft = 0
		keeper.state.SelectedMinutes = 0
	}
	keeper.finished = false
	keeper.store.ResetSpeechGate()
	keeper.store.SaveState(keeper.state)
	keeper.emitLocked(newEvent(wire.ActionTimerReset, keeper.state.TimeLeft, keeper.options.Now()))
	keeper.logger.Debug("reset", "time_left", keeper.state.TimeLeft)
}

// Stop terminates the tick loop without touching persisted state. Used on
// process shutdown.
func (keeper *TimeKeeper) Stop() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.stopLoopLocked()
}

// State returns the current snapshot.
func (keeper *TimeKeeper) State() model.TimerState {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.state
}

// Phase returns the state machine position, telling Finished from Idle.
func (keeper *TimeKeeper) Phase() model.Phase {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.finished && !keeper.state.IsRunning && keeper.state.TimeLeft == 0 {
		return model.PhaseFinished
	}
	return model.PhaseOf(keeper.state)
}

func (keeper *TimeKeeper) configureLocked(totalTime, selectedMinutes int) error {
	if keeper.state.IsRunning {
		return ErrRunning
	}
	if selectedMinutes < 0 || selectedMinutes*60 > model.MaxSeconds {
		selectedMinutes = 0
	}
	keeper.state.TotalTime = totalTime
	keeper.state.TimeLeft = totalTime
	keeper.state.SelectedMinutes = selectedMinutes
	keeper.finished = false
	keeper.store.SaveState(keeper.state)
	keeper.logger.Debug("configured", "total_time", totalTime, "selected_minutes", selectedMinutes)
	return nil
}

func (keeper *TimeKeeper) startLocked() {
	if keeper.state.IsRunning || keeper.state.TimeLeft <= 0 {
		return
	}

	keeper.state.IsRunning = true
	keeper.finished = false
	keeper.generation++
	keeper.stopCh = make(chan struct{})
	keeper.store.ResetSpeechGate()
	keeper.store.SaveState(keeper.state)
	keeper.logger.Debug("started", "time_left", keeper.state.TimeLeft, "total_time", keeper.state.TotalTime)

	go keeper.run(keeper.stopCh, keeper.generation)
}

func (keeper *TimeKeeper) stopLoopLocked() {
	if keeper.stopCh == nil {
		return
	}
	close(keeper.stopCh)
	keeper.stopCh = nil
	keeper.generation++
}

func (keeper *TimeKeeper) run(stopCh <-chan struct{}, generation uint64) {
	ticker := time.NewTicker(keeper.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !keeper.tick(generation) {
				return
			}
		}
	}
}

// tick advances the countdown by exactly one second. It returns false once
// the loop identified by generation should exit.
func (keeper *TimeKeeper) tick(generation uint64) bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if generation != keeper.generation || !keeper.state.IsRunning {
		return false
	}

	now := keeper.options.Now()
	keeper.state.TimeLeft--
	if keeper.state.TimeLeft < 0 {
		keeper.state.TimeLeft = 0
	}

	keeper.store.SaveState(keeper.state)
	keeper.store.SaveLastTick(model.LastTick{Timestamp: now.UnixMilli(), TimeLeft: keeper.state.TimeLeft})
	keeper.emitLocked(newEvent(wire.ActionTimerTick, keeper.state.TimeLeft, now))

	if keeper.state.TimeLeft == model.WarningAt {
		keeper.emitLocked(newEvent(wire.ActionTimerWarning, keeper.state.TimeLeft, now))
	}
	if keeper.state.TimeLeft <= 0 {
		keeper.finishLocked(now)
		return false
	}
	return true
}

func (keeper *TimeKeeper) finishLocked(now time.Time) {
	keeper.stopLoopLocked()
	keeper.state.TimeLeft = 0
	keeper.state.IsRunning = false
	keeper.finished = true
	keeper.store.SaveState(keeper.state)

	if keeper.notifier != nil {
		if err := keeper.notifier.NotifyFinished(keeper.state.TotalTime); err != nil {
			keeper.logger.Warn("desktop notification failed", "error", err)
		}
	}

	keeper.emitLocked(newEvent(wire.ActionTimerFinished, 0, now))
	keeper.logger.Info("countdown finished", "total_time", keeper.state.TotalTime)
}

func (keeper *TimeKeeper) emitLocked(event wire.Event) {
	keeper.publisher.Publish(event)
}

func validateDuration(totalTime int) error {
	if totalTime < 0 || totalTime > model.MaxSeconds {
		return fmt.Errorf("%w: %d seconds", ErrInvalidDuration, totalTime)
	}
	return nil
}
