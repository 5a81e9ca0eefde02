package app

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/observer"
	"meetingtimer/internal/platform"
	"meetingtimer/internal/storage"
	"meetingtimer/internal/ui/overlay"
	"meetingtimer/internal/ui/panel"
	"meetingtimer/internal/ui/tray"
	"meetingtimer/resources"
)

// DesktopOptions configures the tray application.
type DesktopOptions struct {
	Settings     model.Settings
	SettingsPath string
	Logger       *slog.Logger
}

// RunDesktop runs the engine together with the panel, overlay and tray
// surfaces until the user quits.
func RunDesktop(ctx context.Context, options DesktopOptions) error {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := options.Settings

	guard, err := platform.AcquireSingleInstance(Name)
	if err != nil {
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := fyneapp.NewWithID("com.meetingtimer.app")
	fyneApp.SetIcon(resources.MustIcon(resources.IconIdle))

	runtime, err := NewRuntime(ctx, RuntimeOptions{
		Settings: settings,
		Notifier: platform.NewAppNotifier(fyneApp),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	overlayWindow := overlay.New(fyneApp, overlay.Config{Opacity: settings.OverlayOpacity})
	var panelWindow *panel.Window
	observers, err := runtime.attachDesktop(ctx, overlayWindow, func() observer.Surface { return panelWindow }, CuesFor(settings, logger))
	if err != nil {
		return err
	}
	defer observers.Close()
	panelSession := observers.Panel

	panelWindow = panel.New(fyneApp, settings, panel.Callbacks{
		OnShow: panelSession.Open,
		OnHide: panelSession.Close,
		OnSave: func(updated model.Settings) {
			observers.Overlay.UpdateCues(CuesFor(updated, logger))
			if err := storage.SaveSettings(Name, options.SettingsPath, updated); err != nil {
				logger.Error("save settings", "error", err)
			}
			overlayWindow.UpdateConfig(overlay.Config{Opacity: updated.OverlayOpacity})
		},
	})
	panelWindow.Bind(panelSession)

	traySession, err := attachTray(ctx, runtime, fyneApp, panelWindow, logger)
	if err != nil {
		return err
	}
	defer traySession.Close()

	guard.OnActivate(func() {
		fyne.Do(panelWindow.Show)
	})

	panelWindow.Show()
	fyneApp.Run()
	return nil
}

// desktopObservers are the overlay observer, attached for the app lifetime,
// and the panel observer, attached while the panel is shown.
type desktopObservers struct {
	Overlay *Attachment
	Panel   *Session
}

// attachDesktop wires the overlay and panel observers. The overlay carries
// the audio cues so they play while the panel is hidden.
func (runtime *Runtime) attachDesktop(ctx context.Context, overlaySurface observer.Surface, panelSurface func() observer.Surface, cues Cues) (*desktopObservers, error) {
	overlayObserver, err := runtime.AttachLocal(ctx, "overlay", overlaySurface, cues)
	if err != nil {
		return nil, err
	}
	panelSession := NewSession(func() (*Attachment, error) {
		return runtime.AttachLocal(ctx, "panel", panelSurface(), Cues{})
	}, runtime.logger)
	return &desktopObservers{Overlay: overlayObserver, Panel: panelSession}, nil
}

// Close detaches both observers.
func (observers *desktopObservers) Close() {
	observers.Panel.Close()
	observers.Overlay.Close()
}

// CuesFor builds the audio collaborators enabled in settings.
func CuesFor(settings model.Settings, logger *slog.Logger) Cues {
	cues := Cues{SpeechText: settings.SpeechText}
	if settings.SoundEnabled {
		cues.Sounder = platform.NewSounder(settings.SoundFile, logger)
	}
	if settings.SpeechEnabled {
		cues.Speaker = platform.NewSpeaker(logger)
	}
	return cues
}

func attachTray(ctx context.Context, runtime *Runtime, fyneApp fyne.App, panelWindow *panel.Window, logger *slog.Logger) (*Session, error) {
	var desktopApp desktop.App
	if app, ok := fyneApp.(desktop.App); ok {
		desktopApp = app
		desktopApp.SetSystemTrayIcon(resources.MustIcon(resources.IconIdle))
	} else {
		logger.Info("system tray unsupported on this platform")
	}

	var surface observer.Surface
	session := NewSession(func() (*Attachment, error) {
		return runtime.AttachLocal(ctx, "tray", surface, Cues{})
	}, logger)

	manager := tray.New(desktopApp, tray.Callbacks{
		OnOpenPanel: panelWindow.Show,
		OnStartPause: func(running bool) {
			if running {
				session.Pause()
			} else {
				session.Start()
			}
		},
		OnReset: session.Reset,
		OnQuit:  fyneApp.Quit,
	})
	surface = manager
	if desktopApp != nil {
		surface = &trayIcon{Manager: manager, app: desktopApp}
	}

	session.Open()
	if !session.Active() {
		return nil, fmt.Errorf("tray observer did not start")
	}
	return session, nil
}

// trayIcon switches the tray icon between idle and running.
type trayIcon struct {
	*tray.Manager
	app     desktop.App
	known   bool
	running bool
}

func (icon *trayIcon) Render(view observer.View) {
	icon.Manager.Render(view)
	if icon.known && icon.running == view.IsRunning {
		return
	}
	icon.known = true
	icon.running = view.IsRunning
	name := resources.IconIdle
	if view.IsRunning {
		name = resources.IconRunning
	}
	resource := resources.MustIcon(name)
	fyne.Do(func() {
		icon.app.SetSystemTrayIcon(resource)
	})
}
