package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingtimer/internal/core/model"
)

func newMemoryStore(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	store := New(backend, nil)
	t.Cleanup(func() { _ = store.Close() })
	return store, backend
}

func TestStore_PutThenGet(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	store.Put("answer", 42)
	require.NoError(t, store.Flush(ctx))

	values, err := store.Get(ctx, "answer", "missing")
	require.NoError(t, err)
	require.Contains(t, values, "answer")
	assert.NotContains(t, values, "missing")

	value, err := DecodeInt(values["answer"])
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
}

func TestStore_WatchSeesOwnWritesInOrder(t *testing.T) {
	store, _ := newMemoryStore(t)

	var mu sync.Mutex
	var keys []string
	cancel := store.Watch(func(change Change) {
		mu.Lock()
		keys = append(keys, change.Key)
		mu.Unlock()
	})
	defer cancel()

	store.Put("a", 1)
	store.Put("b", 2)
	store.Put("a", 3)
	require.NoError(t, store.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "a"}, keys)
}

func TestStore_WatchReportsOldValue(t *testing.T) {
	store, _ := newMemoryStore(t)

	changes := make(chan Change, 4)
	store.Watch(func(change Change) { changes <- change })

	store.Put("k", 1)
	store.Put("k", 2)
	require.NoError(t, store.Flush(context.Background()))

	first := <-changes
	assert.Nil(t, first.OldValue)
	second := <-changes
	assert.Equal(t, first.NewValue, second.OldValue)
}

func TestStore_CancelledWatcherStopsReceiving(t *testing.T) {
	store, _ := newMemoryStore(t)

	count := 0
	cancel := store.Watch(func(Change) { count++ })
	store.Put("k", 1)
	require.NoError(t, store.Flush(context.Background()))
	cancel()
	store.Put("k", 2)
	require.NoError(t, store.Flush(context.Background()))

	assert.Equal(t, 1, count)
}

func TestStore_PanickingWatcherDoesNotStopWriter(t *testing.T) {
	store, _ := newMemoryStore(t)

	store.Watch(func(Change) { panic("boom") })
	store.Put("k", 1)
	store.Put("k", 2)
	require.NoError(t, store.Flush(context.Background()))

	values, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	value, err := DecodeInt(values["k"])
	require.NoError(t, err)
	assert.Equal(t, int64(2), value)
}

func TestStore_PutFailureIsSwallowed(t *testing.T) {
	store, backend := newMemoryStore(t)
	backend.SetFailure(errors.New("disk full"))

	notified := false
	store.Watch(func(Change) { notified = true })
	store.Put("k", 1)
	require.NoError(t, store.Flush(context.Background()))
	assert.False(t, notified)

	_, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestStore_ClaimFlagOnlyOnce(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	store.Put(KeySpeechPlayed, false)

	claimed, err := store.ClaimFlag(ctx, KeySpeechPlayed)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.ClaimFlag(ctx, KeySpeechPlayed)
	require.NoError(t, err)
	assert.False(t, claimed)

	store.Put(KeySpeechPlayed, false)
	claimed, err = store.ClaimFlag(ctx, KeySpeechPlayed)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestStore_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()
	store.Put(KeySpeechPlayed, false)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.ClaimFlag(ctx, KeySpeechPlayed)
			if err == nil && claimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestStore_CloseDrainsQueue(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend, nil)

	for i := 0; i < 100; i++ {
		store.Put("counter", i)
	}
	require.NoError(t, store.Close())

	values, err := backend.Get(context.Background(), []string{"counter"})
	require.NoError(t, err)
	value, err := DecodeInt(values["counter"])
	require.NoError(t, err)
	assert.Equal(t, int64(99), value)
}

func TestStore_OperationsAfterClose(t *testing.T) {
	store := New(NewMemoryBackend(), nil)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	store.Put("k", 1)
	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Flush(context.Background()), ErrClosed)
	_, err = store.ClaimFlag(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTimerStore_SnapshotRoundTrip(t *testing.T) {
	store, _ := newMemoryStore(t)
	ts := NewTimerStore(store)
	ctx := context.Background()

	snapshot, err := ts.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snapshot.HasState)
	assert.False(t, snapshot.HasTick)

	state := model.TimerState{TimeLeft: 170, TotalTime: 180, IsRunning: true, SelectedMinutes: 3}
	tick := model.LastTick{Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(), TimeLeft: 170}
	ts.SaveState(state)
	ts.SaveLastTick(tick)
	require.NoError(t, store.Flush(ctx))

	snapshot, err = ts.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snapshot.HasState)
	assert.True(t, snapshot.HasTick)
	assert.Equal(t, state, snapshot.State)
	assert.Equal(t, tick, snapshot.LastTick)

	loaded, ok, err := ts.LoadState(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, state, loaded)
}

func TestTimerStore_SpeechGate(t *testing.T) {
	store, _ := newMemoryStore(t)
	ts := NewTimerStore(store)
	ctx := context.Background()

	ts.ResetSpeechGate()
	first, err := ts.ClaimSpeech(ctx)
	require.NoError(t, err)
	second, err := ts.ClaimSpeech(ctx)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestTimerStore_CorruptState(t *testing.T) {
	store, backend := newMemoryStore(t)
	_, err := backend.Put(context.Background(), KeyTimerState, []byte{0xff, 0x00})
	require.NoError(t, err)

	_, err = NewTimerStore(store).LoadSnapshot(context.Background())
	assert.Error(t, err)
}
