// Package tray keeps the system tray menu in step with the timer.
package tray

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/observer"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnOpenPanel  func()
	OnStartPause func(running bool)
	OnReset      func()
	OnQuit       func()
}

// Manager handles system tray state. It implements observer.Surface.
type Manager struct {
	app        desktop.App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	toggleItem *fyne.MenuItem
	resetItem  *fyne.MenuItem

	mu      sync.Mutex
	view    observer.View
	level   model.Level
	running bool
}

// New creates a tray manager. app may be nil when the driver has no tray.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		level:     model.LevelNormal,
	}

	manager.statusItem = fyne.NewMenuItem("Status: "+observer.StatusReady, nil)
	manager.statusItem.Disabled = true

	manager.toggleItem = fyne.NewMenuItem("Start", func() {
		manager.mu.Lock()
		running := manager.running
		manager.mu.Unlock()
		if manager.callbacks.OnStartPause != nil {
			manager.callbacks.OnStartPause(running)
		}
	})
	manager.toggleItem.Disabled = true

	manager.resetItem = fyne.NewMenuItem("Reset", func() {
		if manager.callbacks.OnReset != nil {
			manager.callbacks.OnReset()
		}
	})
	manager.resetItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// Render updates the status line and the start/pause item.
func (manager *Manager) Render(view observer.View) {
	manager.mu.Lock()
	manager.view = view
	manager.running = view.IsRunning
	manager.mu.Unlock()

	manager.statusItem.Label = StatusLine(view)
	if view.IsRunning {
		manager.toggleItem.Label = "Pause"
	} else {
		manager.toggleItem.Label = "Start"
	}
	manager.toggleItem.Disabled = !view.IsRunning && view.TimeLeft == 0
	manager.resetItem.Disabled = view.TotalTime == 0 && view.TimeLeft == 0
	manager.refreshMenu()
}

// ShowWarningLevel records the current level.
func (manager *Manager) ShowWarningLevel(level model.Level) {
	manager.mu.Lock()
	manager.level = level
	manager.mu.Unlock()
}

// Level returns the last reported level.
func (manager *Manager) Level() model.Level {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.level
}

// Menu builds the tray menu for the current state.
func (manager *Manager) Menu() *fyne.Menu {
	open := fyne.NewMenuItem("Open panel", func() {
		if manager.callbacks.OnOpenPanel != nil {
			manager.callbacks.OnOpenPanel()
		}
	})
	quit := fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	})
	quit.IsQuit = true
	return fyne.NewMenu("Meeting Timer",
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		open,
		manager.toggleItem,
		manager.resetItem,
		fyne.NewMenuItemSeparator(),
		quit,
	)
}

// StatusLine renders the tray status, e.g. "Status: 04:59 Running".
func StatusLine(view observer.View) string {
	status := view.Status
	if status == "" {
		status = observer.StatusReady
	}
	if view.TotalTime == 0 && view.TimeLeft == 0 {
		return fmt.Sprintf("Status: %s", status)
	}
	return fmt.Sprintf("Status: %s %s", view.Clock(), status)
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	menu := manager.Menu()
	fyne.Do(func() {
		manager.app.SetSystemTrayMenu(menu)
	})
}
