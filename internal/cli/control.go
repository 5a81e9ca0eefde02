package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"meetingtimer/internal/core/durationinput"
	"meetingtimer/internal/core/model"
	"meetingtimer/internal/transport"
	"meetingtimer/internal/wire"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Format string
}

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start [duration]",
		Short: "Start or resume the countdown",
		Long: `Start a countdown of the given duration, or resume the current one.

Durations are digits with an optional unit: 45s, 5m, or 90 (seconds).

Example:
  meetingtimer start 5m
  meetingtimer start`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, rootOpts, func(ctx context.Context, client *transport.Client) error {
				payload, err := startPayload(ctx, client, args)
				if err != nil {
					return err
				}
				state, err := client.RequestState(ctx, wire.ActionStartTimer, payload)
				if err != nil {
					return WrapExitError(ExitFailure, "start rejected", err)
				}
				return writeState(cmd.OutOrStdout(), "text", state)
			})
		},
	}
}

// NewPauseCommand creates the pause command.
func NewPauseCommand(rootOpts *RootOptions) *cobra.Command {
	return simpleCommand(rootOpts, "pause", "Pause the countdown", wire.ActionPauseTimer)
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return simpleCommand(rootOpts, "reset", "Reset to the selected duration", wire.ActionResetTimer)
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the engine state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, rootOpts, func(ctx context.Context, client *transport.Client) error {
				state, err := client.RequestState(ctx, wire.ActionGetState, nil)
				if err != nil {
					return WrapExitError(ExitFailure, "status failed", err)
				}
				return writeState(cmd.OutOrStdout(), opts.Format, state)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	return cmd
}

func simpleCommand(rootOpts *RootOptions, use, short string, action wire.Action) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, rootOpts, func(ctx context.Context, client *transport.Client) error {
				state, err := client.RequestState(ctx, action, nil)
				if err != nil {
					return WrapExitError(ExitFailure, use+" rejected", err)
				}
				return writeState(cmd.OutOrStdout(), "text", state)
			})
		},
	}
}

func startPayload(ctx context.Context, client *transport.Client, args []string) (wire.StartPayload, error) {
	if len(args) == 1 {
		seconds, err := durationinput.Parse(args[0])
		if err != nil {
			return wire.StartPayload{}, WrapExitError(ExitCommandError, durationinput.Message(err), nil)
		}
		return wire.StartPayload{
			TimeLeft:        seconds,
			TotalTime:       seconds,
			SelectedMinutes: model.SelectedMinutesFor(seconds),
		}, nil
	}

	state, err := client.RequestState(ctx, wire.ActionGetState, nil)
	if err != nil {
		return wire.StartPayload{}, WrapExitError(ExitFailure, "status failed", err)
	}
	if state.TimeLeft == 0 {
		return wire.StartPayload{}, WrapExitError(ExitFailure, "select a duration first", nil)
	}
	return wire.StartPayload{
		TimeLeft:        state.TimeLeft,
		TotalTime:       state.TotalTime,
		SelectedMinutes: state.SelectedMinutes,
	}, nil
}

// withClient connects to the engine named by the settings and runs fn.
func withClient(cmd *cobra.Command, opts *RootOptions, fn func(context.Context, *transport.Client) error) error {
	settings, _, err := loadSettings(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts, settings)

	ctx, cancel := context.WithTimeout(commandContext(cmd), 5*time.Second)
	defer cancel()

	client, err := transport.Dial(ctx, settings.SocketPath, transport.ClientConfig{Logger: logger})
	if err != nil {
		return WrapExitError(ExitUnavailable, "engine not running", err)
	}
	defer client.Close()
	return fn(ctx, client)
}

type statusOutput struct {
	model.TimerState
	Phase model.Phase `json:"phase"`
	Clock string      `json:"clock"`
}

func writeState(w io.Writer, format string, state model.TimerState) error {
	phase := model.PhaseOf(state)
	if format == "json" {
		encoder := json.NewEncoder(w)
		return encoder.Encode(statusOutput{
			TimerState: state,
			Phase:      phase,
			Clock:      model.FormatClock(state.TimeLeft),
		})
	}
	_, err := fmt.Fprintf(w, "%s %s / %s\n", phase, model.FormatClock(state.TimeLeft), model.FormatClock(state.TotalTime))
	return err
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
