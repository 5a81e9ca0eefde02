package observer

import (
	"context"
	"time"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/storage"
	"meetingtimer/internal/wire"
)

func (obs *Observer) loop(ctx context.Context) {
	defer close(obs.done)

	ticker := time.NewTicker(obs.opts.Timing.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-obs.ops:
			fn()
		case event, ok := <-obs.events:
			if !ok {
				obs.logger.Debug("push channel closed, relying on store")
				obs.events = nil
				continue
			}
			obs.handleEvent(ctx, event)
		case <-ticker.C:
			obs.poll(ctx)
		}
	}
}

// post queues fn on the loop. Work posted to a closed observer is dropped.
func (obs *Observer) post(fn func()) {
	obs.mu.Lock()
	closed := obs.closed
	obs.mu.Unlock()
	if closed {
		return
	}
	select {
	case obs.ops <- fn:
	default:
		obs.logger.Warn("observer queue full, dropping update")
	}
}

// postEdit queues a user command. State replies requested before it are
// stale by the time they arrive and are dropped.
func (obs *Observer) postEdit(fn func()) {
	obs.post(func() {
		obs.mu.Lock()
		obs.edits++
		obs.mu.Unlock()
		fn()
	})
}

func (obs *Observer) after(delay time.Duration, fn func()) {
	timer := time.AfterFunc(delay, func() { obs.post(fn) })
	obs.mu.Lock()
	obs.timers = append(obs.timers, timer)
	obs.mu.Unlock()
}

// apply mutates the view and renders it. Only the loop (or Activate before
// the loop starts) calls apply.
func (obs *Observer) apply(fn func(View) View) {
	obs.mu.Lock()
	obs.view = fn(obs.view)
	view := obs.view
	levelChanged := view.Level != obs.level
	obs.level = view.Level
	obs.mu.Unlock()

	if obs.opts.Surface == nil {
		return
	}
	obs.opts.Surface.Render(view)
	if levelChanged {
		obs.opts.Surface.ShowWarningLevel(view.Level)
	}
}

func (obs *Observer) markPush() {
	obs.mu.Lock()
	obs.lastPush = obs.opts.Now()
	obs.mu.Unlock()
}

func (obs *Observer) handleEvent(ctx context.Context, event wire.Event) {
	obs.markPush()

	switch event.Action {
	case wire.ActionTimerTick:
		obs.selected = false
		obs.apply(func(view View) View {
			view = Reconcile(view, event.TimeLeft)
			view.IsRunning = event.TimeLeft > 0
			view.Visible = true
			view.Status = StatusRunning
			return view
		})
	case wire.ActionTimerWarning:
		if obs.opts.Sounder != nil {
			obs.opts.Sounder.PlayWarning()
		}
	case wire.ActionTimerPaused:
		obs.selected = false
		obs.apply(func(view View) View {
			view.IsRunning = false
			view.Visible = false
			view.Status = StatusPaused
			return view
		})
	case wire.ActionTimerReset:
		if obs.selected {
			// The view already shows its own reset target.
			return
		}
		obs.apply(resetView)
		obs.requestState(ctx, wire.ActionGetState, func(view View, state model.TimerState) View {
			view = ApplyState(view, state)
			view.Visible = view.Visible && state.TotalTime > 0
			return view
		})
	case wire.ActionTimerFinished:
		obs.selected = false
		obs.apply(func(view View) View {
			view = Reconcile(view, 0)
			view.IsRunning = false
			view.Visible = true
			view.Status = StatusFinished
			return view
		})
		if obs.opts.Sounder != nil {
			obs.opts.Sounder.PlayDone()
		}
		obs.announce(ctx)
	case wire.ActionShowTimerOverlay:
		if event.TimeLeft > 0 && !obs.View().IsRunning {
			obs.selected = true
		}
		obs.apply(func(view View) View {
			if !view.IsRunning && event.TimeLeft > 0 {
				view.TotalTime = event.TimeLeft
				view = Reconcile(view, event.TimeLeft)
			}
			view.Visible = true
			return view
		})
	default:
		obs.logger.Debug("ignoring event", "event", event.String())
	}
}

// announce speaks the finish text when this observer wins the speech gate.
func (obs *Observer) announce(ctx context.Context) {
	speaker, text := obs.opts.Speaker, obs.opts.SpeechText
	if speaker == nil || obs.opts.Store == nil {
		return
	}
	go func() {
		claimed, err := obs.opts.Store.ClaimSpeech(ctx)
		if err != nil {
			obs.logger.Warn("speech gate unavailable", "error", err)
			return
		}
		if !claimed {
			return
		}
		if err := speaker.Speak(text); err != nil {
			obs.logger.Warn("speech failed", "error", err)
		}
	}()
}

func (obs *Observer) requestSync(ctx context.Context) {
	obs.requestState(ctx, wire.ActionRequestStateSync, func(view View, state model.TimerState) View {
		view = ApplyState(view, state)
		view.Status = StatusFor(state)
		if state.IsRunning {
			view.Visible = true
		}
		return view
	})
}

// requestState asks the engine for its state off the loop and merges the
// answer on the loop.
func (obs *Observer) requestState(ctx context.Context, action wire.Action, merge func(View, model.TimerState) View) {
	if obs.opts.Commander == nil {
		return
	}
	obs.mu.Lock()
	edits := obs.edits
	obs.mu.Unlock()

	go func() {
		state, err := obs.opts.Commander.RequestState(ctx, action, nil)
		if err != nil {
			obs.logger.Debug("state request failed", "action", action, "error", err)
			return
		}
		obs.post(func() {
			obs.mu.Lock()
			stale := obs.edits != edits
			obs.mu.Unlock()
			if stale {
				obs.logger.Debug("dropping state reply older than a local command", "action", action)
				return
			}
			obs.markPush()
			if !obs.adoptState(state) {
				return
			}
			obs.apply(func(view View) View { return merge(view, state) })
		})
	}()
}

func (obs *Observer) onChange(change storage.Change) {
	switch change.Key {
	case storage.KeyLastUpdateValue:
		timeLeft, err := storage.DecodeInt(change.NewValue)
		if err != nil {
			obs.logger.Debug("bad tick value", "error", err)
			return
		}
		obs.post(func() {
			obs.markPush()
			obs.apply(func(view View) View {
				return Reconcile(view, int(timeLeft))
			})
		})
	case storage.KeyTimerState:
		state, err := storage.DecodeState(change.NewValue)
		if err != nil {
			obs.logger.Debug("bad state value", "error", err)
			return
		}
		obs.post(func() {
			if !obs.adoptState(state) {
				return
			}
			obs.apply(func(view View) View {
				return ApplyState(view, state)
			})
		})
	}
}

// adoptState reports whether an engine snapshot may replace the view. While a
// local selection is pending only a running engine wins.
func (obs *Observer) adoptState(state model.TimerState) bool {
	if !obs.selected {
		return true
	}
	if !state.IsRunning {
		return false
	}
	obs.selected = false
	return true
}

// poll is the fallback for lost pushes. When the store says the countdown is
// running and nothing fresh has arrived for StaleAfter, the stored LastTick
// is applied as if it were a tick.
func (obs *Observer) poll(ctx context.Context) {
	obs.mu.Lock()
	polling := obs.polling
	lastPush := obs.lastPush
	obs.mu.Unlock()
	if !polling {
		return
	}

	snapshot, err := obs.opts.Store.LoadSnapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		obs.stopPolling(err)
		return
	}
	if !snapshot.HasState {
		return
	}

	now := obs.opts.Now()
	silent := now.Sub(lastPush) > obs.opts.Timing.StaleAfter
	state := snapshot.State

	switch {
	case state.IsRunning && snapshot.HasTick:
		if snapshot.LastTick.Age(now) <= obs.opts.Timing.StaleAfter && !silent {
			return
		}
		obs.selected = false
		obs.apply(func(view View) View {
			view = Reconcile(view, snapshot.LastTick.TimeLeft)
			view.IsRunning = snapshot.LastTick.TimeLeft > 0
			view.TotalTime = max(view.TotalTime, state.TotalTime)
			view.Visible = true
			view.Status = StatusRunning
			return view
		})
	case !state.IsRunning && silent && obs.View().IsRunning:
		obs.apply(func(view View) View {
			view = ApplyState(view, state)
			view.Status = StatusFor(state)
			return view
		})
	}
}

func (obs *Observer) stopPolling(cause error) {
	obs.mu.Lock()
	obs.polling = false
	unwatch := obs.unwatch
	obs.unwatch = nil
	obs.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	obs.logger.Warn("store unavailable, keeping last display", "error", cause)
}
