package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"meetingtimer/internal/app"
	"meetingtimer/internal/core/model"
	"meetingtimer/internal/ui/terminal"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	NoClear bool
	Quiet   bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the countdown in the terminal",
		Long: `Draw the countdown as a framed clock that redraws on every change.
Without a running engine the view follows the state database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoClear, "no-clear", false, "append frames instead of clearing the screen")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "disable sound and speech cues")
	return cmd
}

// NewConsoleCommand creates the console command.
func NewConsoleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Control the countdown interactively",
		Long: `Open a prompt that accepts start, set, pause, reset and status and
prints state changes as they happen.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "disable sound and speech cues")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	settings, _, err := loadSettings(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.RootOptions, settings)

	ctx, cancel := signalContext(commandContext(cmd), logger)
	defer cancel()

	watch := terminal.NewWatch(cmd.OutOrStdout(), terminal.WatchOptions{ClearScreen: !opts.NoClear})
	attachment, err := app.AttachRemote(ctx, app.RemoteOptions{
		Settings: settings,
		Name:     "watch",
		Surface:  watch,
		Cues:     remoteCues(settings, opts.Quiet, logger),
		Timing:   model.DefaultSyncTiming(),
		Logger:   logger,
	})
	if err != nil {
		return WrapExitError(ExitUnavailable, "failed to follow the timer", err)
	}
	defer attachment.Close()

	<-ctx.Done()
	return nil
}

func runConsole(cmd *cobra.Command, opts *WatchOptions) error {
	settings, _, err := loadSettings(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.RootOptions, settings)

	ctx, cancel := signalContext(commandContext(cmd), logger)
	defer cancel()

	console, err := terminal.NewConsole(nil, terminal.ConsoleOptions{})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open console", err)
	}
	attachment, err := app.AttachRemote(ctx, app.RemoteOptions{
		Settings: settings,
		Name:     "console",
		Surface:  console,
		Cues:     remoteCues(settings, opts.Quiet, logger),
		Timing:   model.DefaultSyncTiming(),
		Logger:   logger,
	})
	if err != nil {
		return WrapExitError(ExitUnavailable, "failed to follow the timer", err)
	}
	defer attachment.Close()
	console.Bind(attachment.Observer)

	return console.Run(ctx)
}

func remoteCues(settings model.Settings, quiet bool, logger *slog.Logger) app.Cues {
	if quiet {
		return app.Cues{}
	}
	return app.CuesFor(settings, logger)
}
