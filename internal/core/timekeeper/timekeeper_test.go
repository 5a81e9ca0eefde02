package timekeeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

type recordingStore struct {
	mu          sync.Mutex
	states      []model.TimerState
	ticks       []model.LastTick
	speechReset int
}

func (store *recordingStore) SaveState(state model.TimerState) {
	store.mu.Lock()
	store.states = append(store.states, state)
	store.mu.Unlock()
}

func (store *recordingStore) SaveLastTick(tick model.LastTick) {
	store.mu.Lock()
	store.ticks = append(store.ticks, tick)
	store.mu.Unlock()
}

func (store *recordingStore) ResetSpeechGate() {
	store.mu.Lock()
	store.speechReset++
	store.mu.Unlock()
}

func (store *recordingStore) lastState() model.TimerState {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.states[len(store.states)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []wire.Event
}

func (publisher *recordingPublisher) Publish(event wire.Event) {
	publisher.mu.Lock()
	publisher.events = append(publisher.events, event)
	publisher.mu.Unlock()
}

func (publisher *recordingPublisher) count(action wire.Action) int {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	count := 0
	for _, event := range publisher.events {
		if event.Action == action {
			count++
		}
	}
	return count
}

type mockNotifier struct {
	mock.Mock
}

func (notifier *mockNotifier) NotifyFinished(totalTime int) error {
	args := notifier.Called(totalTime)
	return args.Error(0)
}

type stubLoader struct {
	state model.TimerState
	ok    bool
	err   error
}

func (loader stubLoader) LoadState(context.Context) (model.TimerState, bool, error) {
	return loader.state, loader.ok, loader.err
}

func newTestKeeper() (*TimeKeeper, *recordingStore, *recordingPublisher) {
	store := &recordingStore{}
	publisher := &recordingPublisher{}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	keeper := New(store, publisher, Config{
		TickInterval: time.Hour,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	return keeper, store, publisher
}

// advance drives n ticks of the current run generation.
func advance(keeper *TimeKeeper, n int) {
	for i := 0; i < n; i++ {
		keeper.mu.Lock()
		generation := keeper.generation
		keeper.mu.Unlock()
		keeper.tick(generation)
	}
}

func TestTimeKeeper_ThreeMinuteScenario(t *testing.T) {
	keeper, store, publisher := newTestKeeper()
	notifier := &mockNotifier{}
	notifier.On("NotifyFinished", 180).Return(nil).Once()
	keeper.SetNotifier(notifier)

	require.NoError(t, keeper.Configure(180, 3))
	keeper.Start()
	assert.Equal(t, model.PhaseRunning, keeper.Phase())

	advance(keeper, 170)
	state := keeper.State()
	assert.Equal(t, 10, state.TimeLeft)
	assert.True(t, state.IsRunning)
	assert.Equal(t, 1, publisher.count(wire.ActionTimerWarning))

	advance(keeper, 10)
	state = keeper.State()
	assert.Equal(t, 0, state.TimeLeft)
	assert.False(t, state.IsRunning)
	assert.Equal(t, 180, state.TotalTime)
	assert.Equal(t, 3, state.SelectedMinutes)
	assert.Equal(t, model.PhaseFinished, keeper.Phase())

	advance(keeper, 5)
	assert.Equal(t, 1, publisher.count(wire.ActionTimerWarning))
	assert.Equal(t, 1, publisher.count(wire.ActionTimerFinished))
	assert.Equal(t, 180, publisher.count(wire.ActionTimerTick))
	assert.Len(t, store.ticks, 180)
	assert.Equal(t, state, store.lastState())
	notifier.AssertExpectations(t)
}

func TestTimeKeeper_TickPersistsLastTick(t *testing.T) {
	keeper, store, _ := newTestKeeper()
	require.NoError(t, keeper.Configure(60, 1))
	keeper.Start()

	advance(keeper, 3)

	require.Len(t, store.ticks, 3)
	assert.Equal(t, 57, store.ticks[2].TimeLeft)
	assert.Greater(t, store.ticks[2].Timestamp, store.ticks[1].Timestamp)
	assert.Equal(t, 57, store.lastState().TimeLeft)
}

func TestTimeKeeper_WarningOnlyWhenCrossingTen(t *testing.T) {
	keeper, _, publisher := newTestKeeper()
	require.NoError(t, keeper.Configure(9, 0))
	keeper.Start()

	advance(keeper, 9)

	assert.Equal(t, 0, publisher.count(wire.ActionTimerWarning))
	assert.Equal(t, 1, publisher.count(wire.ActionTimerFinished))
}

func TestTimeKeeper_StartWithoutDurationIsNoop(t *testing.T) {
	keeper, store, _ := newTestKeeper()

	keeper.Start()

	assert.False(t, keeper.State().IsRunning)
	assert.Empty(t, store.states)
	assert.Equal(t, model.PhaseIdle, keeper.Phase())
}

func TestTimeKeeper_StartClearsSpeechGate(t *testing.T) {
	keeper, store, _ := newTestKeeper()
	require.NoError(t, keeper.Configure(30, 0))

	keeper.Start()
	keeper.Start()

	assert.Equal(t, 1, store.speechReset)
}

func TestTimeKeeper_PauseStopsTicks(t *testing.T) {
	keeper, _, publisher := newTestKeeper()
	require.NoError(t, keeper.Configure(60, 1))
	keeper.Start()
	advance(keeper, 5)

	keeper.mu.Lock()
	staleGeneration := keeper.generation
	keeper.mu.Unlock()

	keeper.Pause()
	keeper.Pause()
	assert.False(t, keeper.tick(staleGeneration))

	state := keeper.State()
	assert.Equal(t, 55, state.TimeLeft)
	assert.False(t, state.IsRunning)
	assert.Equal(t, model.PhasePaused, keeper.Phase())
	assert.Equal(t, 1, publisher.count(wire.ActionTimerPaused))

	keeper.Start()
	advance(keeper, 1)
	assert.Equal(t, 54, keeper.State().TimeLeft)
}

func TestTimeKeeper_PauseWhenIdleIsNoop(t *testing.T) {
	keeper, _, publisher := newTestKeeper()

	keeper.Pause()

	assert.Equal(t, 0, publisher.count(wire.ActionTimerPaused))
}

func TestTimeKeeper_ResetRestoresTotal(t *testing.T) {
	keeper, store, publisher := newTestKeeper()
	require.NoError(t, keeper.Configure(120, 2))
	keeper.Start()
	advance(keeper, 30)

	keeper.Reset()

	state := keeper.State()
	assert.Equal(t, model.TimerState{TimeLeft: 120, TotalTime: 120, SelectedMinutes: 2}, state)
	assert.Equal(t, model.PhaseArmed, keeper.Phase())
	assert.Equal(t, 1, publisher.count(wire.ActionTimerReset))
	assert.Equal(t, 2, store.speechReset)

	ticks := publisher.count(wire.ActionTimerTick)
	advance(keeper, 3)
	assert.Equal(t, ticks, publisher.count(wire.ActionTimerTick))
}

func TestTimeKeeper_ResetWithoutTotalGoesIdle(t *testing.T) {
	keeper, _, _ := newTestKeeper()
	require.NoError(t, keeper.Configure(0, 0))

	keeper.Reset()

	assert.Equal(t, model.TimerState{}, keeper.State())
	assert.Equal(t, model.PhaseIdle, keeper.Phase())
}

func TestTimeKeeper_ConfigureErrors(t *testing.T) {
	keeper, _, _ := newTestKeeper()

	assert.ErrorIs(t, keeper.Configure(-1, 0), ErrInvalidDuration)
	assert.ErrorIs(t, keeper.Configure(model.MaxSeconds+1, 0), ErrInvalidDuration)
	require.NoError(t, keeper.Configure(model.MaxSeconds, 1440))

	keeper.Start()
	assert.ErrorIs(t, keeper.Configure(30, 0), ErrRunning)
	assert.Equal(t, model.MaxSeconds, keeper.State().TotalTime)
}

func TestTimeKeeper_StartWith(t *testing.T) {
	keeper, _, _ := newTestKeeper()

	require.NoError(t, keeper.StartWith(0, 300, 5))
	assert.Equal(t, model.TimerState{TimeLeft: 300, TotalTime: 300, IsRunning: true, SelectedMinutes: 5}, keeper.State())

	// Ignored while running.
	require.NoError(t, keeper.StartWith(10, 10, 0))
	assert.Equal(t, 300, keeper.State().TotalTime)

	advance(keeper, 20)
	keeper.Pause()
	require.NoError(t, keeper.StartWith(280, 300, 5))
	state := keeper.State()
	assert.Equal(t, 280, state.TimeLeft)
	assert.True(t, state.IsRunning)

	keeper.Pause()
	require.NoError(t, keeper.StartWith(999, 300, 5))
	assert.Equal(t, 300, keeper.State().TimeLeft)

	keeper.Pause()
	assert.ErrorIs(t, keeper.StartWith(0, -5, 0), ErrInvalidDuration)
}

func TestTimeKeeper_NotifierFailureIsLogged(t *testing.T) {
	keeper, _, publisher := newTestKeeper()
	notifier := &mockNotifier{}
	notifier.On("NotifyFinished", 2).Return(errors.New("no notification daemon")).Once()
	keeper.SetNotifier(notifier)

	require.NoError(t, keeper.StartWith(2, 2, 0))
	advance(keeper, 2)

	assert.Equal(t, 1, publisher.count(wire.ActionTimerFinished))
	notifier.AssertExpectations(t)
}

func TestTimeKeeper_Restore(t *testing.T) {
	keeper, store, _ := newTestKeeper()

	err := keeper.Restore(context.Background(), stubLoader{
		state: model.TimerState{TimeLeft: 42, TotalTime: 60, IsRunning: true, SelectedMinutes: 1},
		ok:    true,
	})
	require.NoError(t, err)

	state := keeper.State()
	assert.Equal(t, 42, state.TimeLeft)
	assert.False(t, state.IsRunning)
	assert.Equal(t, model.PhasePaused, keeper.Phase())
	assert.False(t, store.lastState().IsRunning)
}

func TestTimeKeeper_RestoreFinishedAndInvalid(t *testing.T) {
	keeper, _, _ := newTestKeeper()
	require.NoError(t, keeper.Restore(context.Background(), stubLoader{
		state: model.TimerState{TimeLeft: 0, TotalTime: 60},
		ok:    true,
	}))
	assert.Equal(t, model.PhaseFinished, keeper.Phase())

	keeper, _, _ = newTestKeeper()
	require.NoError(t, keeper.Restore(context.Background(), stubLoader{
		state: model.TimerState{TimeLeft: 90, TotalTime: 60},
		ok:    true,
	}))
	assert.Equal(t, model.TimerState{}, keeper.State())

	err := keeper.Restore(context.Background(), stubLoader{err: errors.New("locked")})
	assert.Error(t, err)
}

func TestTimeKeeper_RealTickerAdvances(t *testing.T) {
	publisher := &recordingPublisher{}
	keeper := New(nil, publisher, Config{TickInterval: 5 * time.Millisecond})
	defer keeper.Stop()

	require.NoError(t, keeper.StartWith(0, 3, 0))

	assert.Eventually(t, func() bool {
		return publisher.count(wire.ActionTimerFinished) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, publisher.count(wire.ActionTimerTick))
}

func TestTimeKeeper_Execute(t *testing.T) {
	keeper, _, _ := newTestKeeper()

	state, err := keeper.Execute(wire.ActionStartTimer, wire.StartPayload{TotalTime: 90})
	require.NoError(t, err)
	assert.True(t, state.IsRunning)

	state, err = keeper.Execute(wire.ActionPauseTimer, wire.StartPayload{})
	require.NoError(t, err)
	assert.False(t, state.IsRunning)

	state, err = keeper.Execute(wire.ActionGetState, wire.StartPayload{})
	require.NoError(t, err)
	assert.Equal(t, 90, state.TimeLeft)

	_, err = keeper.Execute(wire.ActionTimerTick, wire.StartPayload{})
	assert.Error(t, err)
}
