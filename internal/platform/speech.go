package platform

import (
	"fmt"
	"log/slog"
	"strings"
)

// CommandSpeaker speaks text with the host's speech synthesizer.
type CommandSpeaker struct {
	start  Starter
	logger *slog.Logger
}

// NewSpeaker creates a command-based speaker.
func NewSpeaker(logger *slog.Logger) *CommandSpeaker {
	return &CommandSpeaker{
		start:  StartDetached,
		logger: loggerOrDefault(logger).With("component", "speaker"),
	}
}

// Speak announces text.
func (speaker *CommandSpeaker) Speak(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	command, ok := firstAvailable(speechCommands(text))
	if !ok {
		return fmt.Errorf("speak: %w", ErrUnsupported)
	}
	speaker.logger.Debug("speaking", "command", command.Name)
	return speaker.start(command)
}
