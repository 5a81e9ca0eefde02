// Package storage implements the durable key-value store shared by the timer
// engine and its observers, plus the YAML settings file.
//
// Puts are fire-and-forget: they are queued to a single writer goroutine and
// become durable eventually. Every applied put is reported to all registered
// watchers as a Change, including puts made by the same process. There are no
// transactions and no ordering guarantee across keys for readers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"meetingtimer/internal/wire"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Backend is the persistence layer under a Store.
type Backend interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	// Put writes value and returns the previous value, nil when absent.
	Put(ctx context.Context, key string, value []byte) ([]byte, error)
	// Claim writes value unless the stored value already equals it. It
	// reports whether the write happened and the previous value.
	Claim(ctx context.Context, key string, value []byte) (bool, []byte, error)
	Close() error
}

// Change describes one applied put.
type Change struct {
	Key      string
	OldValue []byte
	NewValue []byte
}

// Store is the asynchronous key-value store.
type Store struct {
	backend Backend
	logger  *slog.Logger
	queue   *writeQueue
	done    chan struct{}

	mu       sync.Mutex
	watchers map[int]func(Change)
	nextID   int

	closeOnce sync.Once
}

// New starts a store over backend.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		backend:  backend,
		logger:   logger.With("component", "store"),
		queue:    newWriteQueue(),
		done:     make(chan struct{}),
		watchers: make(map[int]func(Change)),
	}
	go store.run()
	return store
}

// Put queues an encoded write of value under key. Failures are logged, never
// returned: callers must not depend on persistence for correctness.
func (store *Store) Put(key string, value any) {
	data, err := wire.Marshal(value)
	if err != nil {
		store.logger.Error("encode value", "key", key, "error", err)
		return
	}
	if !store.queue.enqueue(request{kind: requestPut, key: key, value: data}) {
		store.logger.Debug("put after close ignored", "key", key)
	}
}

// Get reads the raw encoded values of keys. Absent keys are omitted.
func (store *Store) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	select {
	case <-store.done:
		return nil, ErrClosed
	default:
	}
	values, err := store.backend.Get(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get %v: %w", keys, err)
	}
	return values, nil
}

// ClaimFlag sets the boolean flag key to true and reports whether this call
// changed it. It is ordered after every put queued before it.
func (store *Store) ClaimFlag(ctx context.Context, key string) (bool, error) {
	data, err := wire.Marshal(true)
	if err != nil {
		return false, fmt.Errorf("encode flag: %w", err)
	}
	result := make(chan claimResult, 1)
	if !store.queue.enqueue(request{kind: requestClaim, key: key, value: data, claim: result}) {
		return false, ErrClosed
	}
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-result:
		return res.claimed, res.err
	}
}

// Flush waits until every put queued before the call has been applied.
func (store *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !store.queue.enqueue(request{kind: requestBarrier, done: done}) {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Watch registers fn for every applied change. The returned function
// unregisters it. Watchers run on the writer goroutine and must not block.
func (store *Store) Watch(fn func(Change)) func() {
	store.mu.Lock()
	id := store.nextID
	store.nextID++
	store.watchers[id] = fn
	store.mu.Unlock()

	return func() {
		store.mu.Lock()
		delete(store.watchers, id)
		store.mu.Unlock()
	}
}

// Close drains pending writes and closes the backend.
func (store *Store) Close() error {
	var err error
	store.closeOnce.Do(func() {
		store.queue.close()
		<-store.done
		err = store.backend.Close()
	})
	return err
}

func (store *Store) run() {
	defer close(store.done)

	for {
		req, ok := store.queue.dequeue()
		if !ok {
			return
		}
		switch req.kind {
		case requestPut:
			store.applyPut(req)
		case requestClaim:
			store.applyClaim(req)
		case requestBarrier:
			close(req.done)
		}
	}
}

func (store *Store) applyPut(req request) {
	old, err := store.backend.Put(context.Background(), req.key, req.value)
	if err != nil {
		store.logger.Warn("put failed", "key", req.key, "error", err)
		return
	}
	store.notify(Change{Key: req.key, OldValue: old, NewValue: req.value})
}

func (store *Store) applyClaim(req request) {
	claimed, old, err := store.backend.Claim(context.Background(), req.key, req.value)
	req.claim <- claimResult{claimed: claimed, err: err}
	if err != nil {
		store.logger.Warn("claim failed", "key", req.key, "error", err)
		return
	}
	if claimed {
		store.notify(Change{Key: req.key, OldValue: old, NewValue: req.value})
	}
}

func (store *Store) notify(change Change) {
	store.mu.Lock()
	watchers := make([]func(Change), 0, len(store.watchers))
	for _, fn := range store.watchers {
		watchers = append(watchers, fn)
	}
	store.mu.Unlock()

	for _, fn := range watchers {
		store.callWatcher(fn, change)
	}
}

func (store *Store) callWatcher(fn func(Change), change Change) {
	defer func() {
		if recovered := recover(); recovered != nil {
			store.logger.Error("watcher panicked", "key", change.Key, "panic", recovered)
		}
	}()
	fn(change)
}
