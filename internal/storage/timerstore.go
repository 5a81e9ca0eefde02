package storage

import (
	"context"
	"fmt"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/wire"
)

// Persisted keys.
const (
	KeyTimerState      = "timerState"
	KeyLastUpdateTime  = "lastUpdateTime"
	KeyLastUpdateValue = "lastUpdateTimeValue"
	KeySpeechPlayed    = "speechPlayed"
)

// Snapshot is everything an observer reads on activation or poll. The fields
// may come from different tick generations.
type Snapshot struct {
	State    model.TimerState
	HasState bool
	LastTick model.LastTick
	HasTick  bool
}

// TimerStore is the typed view of the store used by the engine and observers.
type TimerStore struct {
	store *Store
}

// NewTimerStore wraps store.
func NewTimerStore(store *Store) *TimerStore {
	return &TimerStore{store: store}
}

// Store returns the underlying store.
func (ts *TimerStore) Store() *Store {
	return ts.store
}

// SaveState queues the full timer snapshot.
func (ts *TimerStore) SaveState(state model.TimerState) {
	ts.store.Put(KeyTimerState, state)
}

// SaveLastTick queues the liveness record as two independent keys.
func (ts *TimerStore) SaveLastTick(tick model.LastTick) {
	ts.store.Put(KeyLastUpdateTime, tick.Timestamp)
	ts.store.Put(KeyLastUpdateValue, tick.TimeLeft)
}

// ResetSpeechGate clears the voice announcement flag for a new cycle.
func (ts *TimerStore) ResetSpeechGate() {
	ts.store.Put(KeySpeechPlayed, false)
}

// ClaimSpeech flips the speech flag and reports whether the caller may speak.
func (ts *TimerStore) ClaimSpeech(ctx context.Context) (bool, error) {
	return ts.store.ClaimFlag(ctx, KeySpeechPlayed)
}

// LoadState returns the persisted snapshot, if any.
func (ts *TimerStore) LoadState(ctx context.Context) (model.TimerState, bool, error) {
	values, err := ts.store.Get(ctx, KeyTimerState)
	if err != nil {
		return model.TimerState{}, false, err
	}
	raw, ok := values[KeyTimerState]
	if !ok {
		return model.TimerState{}, false, nil
	}
	state, err := DecodeState(raw)
	if err != nil {
		return model.TimerState{}, false, err
	}
	return state, true, nil
}

// LoadLastTick returns the persisted liveness record, if both halves exist.
func (ts *TimerStore) LoadLastTick(ctx context.Context) (model.LastTick, bool, error) {
	snapshot, err := ts.LoadSnapshot(ctx)
	if err != nil {
		return model.LastTick{}, false, err
	}
	return snapshot.LastTick, snapshot.HasTick, nil
}

// LoadSnapshot reads state and LastTick in one call.
func (ts *TimerStore) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	values, err := ts.store.Get(ctx, KeyTimerState, KeyLastUpdateTime, KeyLastUpdateValue)
	if err != nil {
		return Snapshot{}, err
	}

	var snapshot Snapshot
	if raw, ok := values[KeyTimerState]; ok {
		state, err := DecodeState(raw)
		if err != nil {
			return Snapshot{}, err
		}
		snapshot.State = state
		snapshot.HasState = true
	}

	rawTime, hasTime := values[KeyLastUpdateTime]
	rawValue, hasValue := values[KeyLastUpdateValue]
	if hasTime && hasValue {
		timestamp, err := DecodeInt(rawTime)
		if err != nil {
			return Snapshot{}, err
		}
		timeLeft, err := DecodeInt(rawValue)
		if err != nil {
			return Snapshot{}, err
		}
		snapshot.LastTick = model.LastTick{Timestamp: timestamp, TimeLeft: int(timeLeft)}
		snapshot.HasTick = true
	}
	return snapshot, nil
}

// DecodeState decodes a stored timerState value.
func DecodeState(raw []byte) (model.TimerState, error) {
	var state model.TimerState
	if err := wire.Unmarshal(raw, &state); err != nil {
		return model.TimerState{}, fmt.Errorf("decode %s: %w", KeyTimerState, err)
	}
	return state, nil
}

// DecodeInt decodes a stored integer value.
func DecodeInt(raw []byte) (int64, error) {
	var value int64
	if err := wire.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("decode integer: %w", err)
	}
	return value, nil
}
