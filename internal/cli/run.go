package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"meetingtimer/internal/app"
	"meetingtimer/internal/platform"
	"meetingtimer/internal/transport"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the tray app with panel and overlay",
		Long: `Run the engine together with the control panel, the floating overlay and
the tray menu. Launching a second time brings the running panel to the front.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesktop(cmd, rootOpts)
		},
	}
}

// NewDaemonCommand creates the daemon command.
func NewDaemonCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the engine headless",
		Long: `Run the engine without any window. Terminal surfaces and control
commands connect to it over the socket.

Example:
  meetingtimer daemon --socket /tmp/timer.sock --db /tmp/timer.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, rootOpts)
		},
	}
}

func runDesktop(cmd *cobra.Command, opts *RootOptions) error {
	settings, path, err := loadSettings(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts, settings)
	slog.SetDefault(logger)

	err = app.RunDesktop(commandContext(cmd), app.DesktopOptions{
		Settings:     settings,
		SettingsPath: path,
		Logger:       logger,
	})
	switch {
	case errors.Is(err, platform.ErrAlreadyRunning):
		logger.Info("already running, activated the existing window")
		return nil
	case errors.Is(err, transport.ErrAddressInUse):
		return WrapExitError(ExitCommandError, "another engine is serving the socket", err)
	case err != nil:
		return WrapExitError(ExitCommandError, "desktop app failed", err)
	}
	return nil
}

func runDaemon(cmd *cobra.Command, opts *RootOptions) error {
	settings, _, err := loadSettings(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts, settings)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(commandContext(cmd), logger)
	defer cancel()

	runtime, err := app.NewRuntime(ctx, app.RuntimeOptions{
		Settings: settings,
		Notifier: platform.NewNotifier(app.Name, logger),
		Logger:   logger,
	})
	if err != nil {
		if errors.Is(err, transport.ErrAddressInUse) {
			return WrapExitError(ExitCommandError, "another engine is serving the socket", err)
		}
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}
	defer func() {
		if closeErr := runtime.Close(); closeErr != nil {
			logger.Error("error closing engine", "error", closeErr)
		}
	}()

	<-ctx.Done()
	logger.Info("engine stopped")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// signalContext is cancelled on SIGINT/SIGTERM or when parent is done.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
