package observer

import (
	"meetingtimer/internal/core/model"
)

// Status captions shown by control surfaces.
const (
	StatusReady          = "Ready"
	StatusRunning        = "Running"
	StatusPaused         = "Paused"
	StatusReset          = "Reset"
	StatusFinished       = "Time is up"
	StatusSynced         = "Synced"
	StatusSelectDuration = "Select a duration first"
)

// InputFeedback is the inline validation state of the custom duration field.
type InputFeedback string

const (
	InputNone    InputFeedback = ""
	InputError   InputFeedback = "error"
	InputSuccess InputFeedback = "success"
)

// View is what a surface renders. It is a read-through copy of the engine
// state plus surface-local presentation fields.
type View struct {
	TimeLeft        int
	TotalTime       int
	IsRunning       bool
	SelectedMinutes int

	Level   model.Level
	Visible bool
	Status  string

	Input        InputFeedback
	InputMessage string
}

// Clock returns the mm:ss caption.
func (view View) Clock() string {
	return model.FormatClock(view.TimeLeft)
}

// Progress returns the caption under the clock, empty when nothing is selected.
func (view View) Progress() string {
	if view.TotalTime == 0 && view.TimeLeft == 0 {
		return ""
	}
	return model.ProgressText(view.TimeLeft)
}

// Phase derives the state machine position from the view.
func (view View) Phase() model.Phase {
	return model.PhaseOf(view.State())
}

// State returns the TimerState fields of the view.
func (view View) State() model.TimerState {
	return model.TimerState{
		TimeLeft:        view.TimeLeft,
		TotalTime:       view.TotalTime,
		IsRunning:       view.IsRunning,
		SelectedMinutes: view.SelectedMinutes,
	}
}

// Reconcile applies a remaining-time observation to view. It is pure and
// idempotent: applying the same timeLeft twice yields the same view, whether
// the value came from a push or from the store.
func Reconcile(view View, timeLeft int) View {
	if timeLeft < 0 {
		timeLeft = 0
	}
	view.TimeLeft = timeLeft
	if view.TotalTime < timeLeft {
		view.TotalTime = timeLeft
	}
	view.Level = model.LevelFor(timeLeft)
	return view
}

// ApplyState replaces the engine fields of view with state.
func ApplyState(view View, state model.TimerState) View {
	view.TotalTime = state.TotalTime
	view.IsRunning = state.IsRunning
	view.SelectedMinutes = state.SelectedMinutes
	return Reconcile(view, state.TimeLeft)
}

// StatusFor is the caption for a freshly synced state.
func StatusFor(state model.TimerState) string {
	switch model.PhaseOf(state) {
	case model.PhaseRunning:
		return StatusRunning
	case model.PhasePaused:
		return StatusPaused
	case model.PhaseFinished:
		return StatusFinished
	case model.PhaseArmed:
		return StatusSynced
	default:
		return StatusReady
	}
}

// SelectedStatus is the caption after choosing a duration.
func SelectedStatus(seconds int) string {
	return "Selected " + model.FormatDuration(seconds)
}

// CustomStatus is the caption after entering a custom duration.
func CustomStatus(seconds int) string {
	return "Set " + model.FormatDuration(seconds)
}
