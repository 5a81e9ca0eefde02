package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"meetingtimer/internal/core/model"
)

func TestReconcile_Idempotent(t *testing.T) {
	base := View{TotalTime: 60, IsRunning: true, Visible: true, Status: StatusRunning}

	for _, timeLeft := range []int{60, 31, 30, 11, 10, 1, 0, -3} {
		once := Reconcile(base, timeLeft)
		twice := Reconcile(once, timeLeft)
		assert.Equal(t, once, twice, "timeLeft=%d", timeLeft)
	}
}

func TestReconcile_LevelsFromTimeLeftOnly(t *testing.T) {
	view := View{TotalTime: 120}

	assert.Equal(t, model.LevelNormal, Reconcile(view, 31).Level)
	assert.Equal(t, model.LevelWarning, Reconcile(view, 30).Level)
	assert.Equal(t, model.LevelCritical, Reconcile(view, 10).Level)
	assert.Equal(t, model.LevelFinished, Reconcile(view, 0).Level)
	assert.Equal(t, 0, Reconcile(view, -1).TimeLeft)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	view := View{TimeLeft: 50, TotalTime: 60}
	_ = Reconcile(view, 10)
	assert.Equal(t, 50, view.TimeLeft)
}

func TestReconcile_KeepsTotalAboveTimeLeft(t *testing.T) {
	view := Reconcile(View{}, 45)
	assert.Equal(t, 45, view.TotalTime)
}

func TestApplyState(t *testing.T) {
	state := model.TimerState{TimeLeft: 25, TotalTime: 180, IsRunning: true, SelectedMinutes: 3}
	view := ApplyState(View{Visible: true, Status: "x"}, state)

	assert.Equal(t, state, view.State())
	assert.Equal(t, model.LevelWarning, view.Level)
	assert.True(t, view.Visible)
	assert.Equal(t, "00:25", view.Clock())
	assert.Equal(t, "Watch the time", view.Progress())
	assert.Equal(t, model.PhaseRunning, view.Phase())
	assert.Empty(t, View{}.Progress())
	assert.Equal(t, "Time is up", View{TotalTime: 60}.Progress())
}

func TestStatusCaptions(t *testing.T) {
	assert.Equal(t, StatusReady, StatusFor(model.TimerState{}))
	assert.Equal(t, StatusSynced, StatusFor(model.TimerState{TimeLeft: 60, TotalTime: 60}))
	assert.Equal(t, StatusRunning, StatusFor(model.TimerState{TimeLeft: 5, TotalTime: 60, IsRunning: true}))
	assert.Equal(t, StatusPaused, StatusFor(model.TimerState{TimeLeft: 5, TotalTime: 60}))
	assert.Equal(t, StatusFinished, StatusFor(model.TimerState{TotalTime: 60}))

	assert.Equal(t, "Selected 3 min", SelectedStatus(180))
	assert.Equal(t, "Selected 45s", SelectedStatus(45))
	assert.Equal(t, "Set 2 min 5s", CustomStatus(125))
}
