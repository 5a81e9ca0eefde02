// Package app assembles the engine side (store, clock, fanout, socket server)
// and attaches observers to it, in process or over the socket.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meetingtimer/internal/core/fanout"
	"meetingtimer/internal/core/model"
	"meetingtimer/internal/core/timekeeper"
	"meetingtimer/internal/storage"
	"meetingtimer/internal/transport"
)

// Name is the application name used for config dirs and the instance lock.
const Name = "meetingtimer"

// RuntimeOptions configures the engine side.
type RuntimeOptions struct {
	Settings model.Settings
	Notifier timekeeper.Notifier
	Logger   *slog.Logger

	// TickInterval overrides the 1s tick, for tests.
	TickInterval time.Duration
	// DisableSocket keeps the engine in process only.
	DisableSocket bool
}

// Runtime owns the authoritative engine and everything it persists to.
type Runtime struct {
	Settings model.Settings
	Store    *storage.Store
	Timers   *storage.TimerStore
	Hub      *fanout.Hub
	Keeper   *timekeeper.TimeKeeper
	Server   *transport.Server

	logger *slog.Logger
}

// NewRuntime opens the database, restores the last state and starts serving
// the socket.
func NewRuntime(ctx context.Context, options RuntimeOptions) (*Runtime, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := options.Settings

	backend, err := storage.OpenSQLite(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	store := storage.New(backend, logger)
	timers := storage.NewTimerStore(store)
	hub := fanout.New(logger)

	keeper := timekeeper.New(timers, hub, timekeeper.Config{
		TickInterval: options.TickInterval,
		Logger:       logger,
	})
	if options.Notifier != nil {
		keeper.SetNotifier(options.Notifier)
	}
	if err := keeper.Restore(ctx, timers); err != nil {
		logger.Warn("previous timer state not restored", "error", err)
	}

	runtime := &Runtime{
		Settings: settings,
		Store:    store,
		Timers:   timers,
		Hub:      hub,
		Keeper:   keeper,
		logger:   logger.With("component", "runtime"),
	}

	if !options.DisableSocket {
		server := transport.NewServer(transport.ServerConfig{
			SocketPath: settings.SocketPath,
			Logger:     logger,
		}, keeper, hub)
		if err := server.Start(ctx); err != nil {
			keeper.Stop()
			_ = store.Close()
			return nil, fmt.Errorf("serve %s: %w", settings.SocketPath, err)
		}
		runtime.Server = server
	}

	runtime.logger.Info("engine ready", "db", settings.DatabasePath, "socket", settings.SocketPath)
	return runtime, nil
}

// Close stops the clock and the server, then flushes the store.
func (runtime *Runtime) Close() error {
	var errs []error
	if runtime.Server != nil {
		if err := runtime.Server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}
	runtime.Keeper.Stop()
	if err := runtime.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
