// Package platform runs the desktop side effects of the timer: notifications,
// sound cues and speech. Each is a short-lived external command started
// without waiting, so callers holding locks are never blocked.
package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// ErrUnsupported is returned when no command for a feature exists on this host.
var ErrUnsupported = errors.New("not supported on this platform")

// Command is a program invocation.
type Command struct {
	Name string
	Args []string
}

// Starter launches a command without waiting for it.
type Starter func(command Command) error

// StartDetached starts command and reaps it in the background.
func StartDetached(command Command) error {
	cmd := exec.Command(command.Name, command.Args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", command.Name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// lookup is exec.LookPath, replaceable in tests.
var lookup = exec.LookPath

// firstAvailable returns the first candidate whose program is installed.
func firstAvailable(candidates []Command) (Command, bool) {
	for _, candidate := range candidates {
		if path, err := lookup(candidate.Name); err == nil {
			candidate.Name = path
			return candidate, true
		}
	}
	return Command{}, false
}

// ConfigDir returns the OS-standard configuration directory.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
