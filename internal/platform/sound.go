package platform

import "log/slog"

// Cue names a sound event.
type Cue string

const (
	CueWarning Cue = "warning"
	CueDone    Cue = "done"
)

// CommandSounder plays cues with the host's audio player.
type CommandSounder struct {
	file   string
	start  Starter
	logger *slog.Logger
}

// NewSounder creates a sounder. file overrides the built-in system sounds
// for every cue when set.
func NewSounder(file string, logger *slog.Logger) *CommandSounder {
	return &CommandSounder{
		file:   file,
		start:  StartDetached,
		logger: loggerOrDefault(logger).With("component", "sounder"),
	}
}

// PlayWarning plays the ten-seconds-left cue.
func (sounder *CommandSounder) PlayWarning() {
	sounder.play(CueWarning)
}

// PlayDone plays the finish cue.
func (sounder *CommandSounder) PlayDone() {
	sounder.play(CueDone)
}

func (sounder *CommandSounder) play(cue Cue) {
	command, ok := firstAvailable(soundCommands(cue, sounder.file))
	if !ok {
		sounder.logger.Debug("no sound player found", "cue", cue)
		return
	}
	if err := sounder.start(command); err != nil {
		sounder.logger.Warn("sound failed", "cue", cue, "error", err)
	}
}
