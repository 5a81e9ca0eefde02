package model

import "time"

// MaxSeconds is the longest countdown accepted anywhere in the system (24 hours).
const MaxSeconds = 86400

// WarningAt is the exact remaining value that triggers the one-shot warning event.
const WarningAt = 10

// TimerState is the shared countdown snapshot. Only the TimeKeeper mutates the
// authoritative instance; every other holder has a read-through copy.
type TimerState struct {
	TimeLeft        int  `cbor:"timeLeft" json:"timeLeft"`
	TotalTime       int  `cbor:"totalTime" json:"totalTime"`
	IsRunning       bool `cbor:"isRunning" json:"isRunning"`
	SelectedMinutes int  `cbor:"selectedMinutes" json:"selectedMinutes"`
}

// Valid reports whether the snapshot satisfies the data model invariants.
func (state TimerState) Valid() bool {
	if state.TimeLeft < 0 || state.TotalTime < 0 {
		return false
	}
	if state.TimeLeft > state.TotalTime {
		return false
	}
	return !state.IsRunning || state.TimeLeft > 0
}

// LastTick is the per-tick liveness record used by the polling fallback.
type LastTick struct {
	Timestamp int64 `cbor:"timestamp" json:"timestamp"`
	TimeLeft  int   `cbor:"timeLeft" json:"timeLeft"`
}

// At returns the tick time.
func (tick LastTick) At() time.Time {
	return time.UnixMilli(tick.Timestamp)
}

// Age returns how long ago the tick was written, relative to now.
func (tick LastTick) Age(now time.Time) time.Duration {
	if tick.Timestamp == 0 {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(tick.At())
}

// Phase is the countdown state machine position.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseArmed    Phase = "armed"
	PhaseRunning  Phase = "running"
	PhasePaused   Phase = "paused"
	PhaseFinished Phase = "finished"
)

// PhaseOf derives the phase visible from a snapshot alone. A countdown paused
// before its first tick is indistinguishable from an armed one.
func PhaseOf(state TimerState) Phase {
	switch {
	case state.IsRunning:
		return PhaseRunning
	case state.TimeLeft == 0 && state.TotalTime == 0:
		return PhaseIdle
	case state.TimeLeft == 0:
		return PhaseFinished
	case state.TimeLeft == state.TotalTime:
		return PhaseArmed
	default:
		return PhasePaused
	}
}
