package platform

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"

	"meetingtimer/internal/core/model"
)

// FinishedTitle is the notification title shown when a countdown ends.
const FinishedTitle = "Time is up"

// FinishedBody describes the slot that just ended.
func FinishedBody(totalTime int) string {
	if totalTime <= 0 {
		return "The countdown has finished."
	}
	return fmt.Sprintf("Your %s slot has ended.", model.FormatDuration(totalTime))
}

// CommandNotifier sends desktop notifications through the host's notification
// tool (notify-send, osascript or PowerShell).
type CommandNotifier struct {
	appName string
	start   Starter
	logger  *slog.Logger
}

// NewNotifier creates a command-based notifier.
func NewNotifier(appName string, logger *slog.Logger) *CommandNotifier {
	return &CommandNotifier{
		appName: appName,
		start:   StartDetached,
		logger:  loggerOrDefault(logger).With("component", "notifier"),
	}
}

// NotifyFinished shows the finish notification.
func (notifier *CommandNotifier) NotifyFinished(totalTime int) error {
	command, ok := firstAvailable(notifyCommands(notifier.appName, FinishedTitle, FinishedBody(totalTime)))
	if !ok {
		return fmt.Errorf("notify: %w", ErrUnsupported)
	}
	notifier.logger.Debug("sending notification", "command", command.Name)
	return notifier.start(command)
}

// AppNotifier sends notifications through the fyne app, used when the GUI runs.
type AppNotifier struct {
	app fyne.App
}

// NewAppNotifier wraps app.
func NewAppNotifier(app fyne.App) *AppNotifier {
	return &AppNotifier{app: app}
}

// NotifyFinished shows the finish notification.
func (notifier *AppNotifier) NotifyFinished(totalTime int) error {
	notifier.app.SendNotification(fyne.NewNotification(FinishedTitle, FinishedBody(totalTime)))
	return nil
}
