// Package cli is the meetingtimer command line: the desktop app, a headless
// engine, remote control commands and terminal surfaces.
package cli

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"meetingtimer/internal/app"
	"meetingtimer/internal/core/model"
	"meetingtimer/internal/platform"
	"meetingtimer/internal/storage"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath   string
	Verbose      bool
	SocketPath   string
	DatabasePath string
}

// NewRootCommand creates the root command. Without a subcommand it runs the
// desktop app.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "meetingtimer",
		Short: "Meeting countdown timer",
		Long: `A meeting countdown timer with a control panel, a floating overlay and
terminal surfaces that all follow one authoritative clock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesktop(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to settings.yaml (default: user config dir)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.SocketPath, "socket", "", "engine socket path (env "+storage.EnvSocket+")")
	cmd.PersistentFlags().StringVar(&opts.DatabasePath, "db", "", "state database path (env "+storage.EnvDatabase+")")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewDaemonCommand(opts))
	cmd.AddCommand(NewStartCommand(opts))
	cmd.AddCommand(NewPauseCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewConsoleCommand(opts))

	return cmd
}

// loadSettings reads the settings file and applies flag overrides.
func loadSettings(opts *RootOptions) (model.Settings, string, error) {
	path := opts.ConfigPath
	if path == "" {
		configDir, err := platform.ConfigDir()
		if err != nil {
			return model.Settings{}, "", WrapExitError(ExitCommandError, "failed to locate config dir", err)
		}
		path = filepath.Join(configDir, app.Name, "settings.yaml")
	}

	settings, err := storage.LoadSettings(app.Name, path)
	if err != nil {
		return settings, path, WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	if opts.SocketPath != "" {
		settings.SocketPath = opts.SocketPath
	}
	if opts.DatabasePath != "" {
		settings.DatabasePath = opts.DatabasePath
	}
	return settings, path, nil
}

// newLogger builds the slog text logger on w. --verbose wins over the
// settings log level.
func newLogger(w io.Writer, opts *RootOptions, settings model.Settings) *slog.Logger {
	level := parseLevel(settings.LogLevel)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
