// Package panel is the control window: duration presets, custom input and
// the start/pause/reset buttons.
package panel

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/observer"
)

// Controller receives the commands issued from the panel.
type Controller interface {
	Select(seconds, selectedMinutes int)
	SetCustom(input string)
	ClearInput()
	Start()
	Pause()
	Reset()
}

// Callbacks defines panel lifecycle handlers.
type Callbacks struct {
	OnShow func()
	OnHide func()
	OnSave func(model.Settings)
}

// Window handles the control panel UI. It implements observer.Surface.
type Window struct {
	window     fyne.Window
	controller Controller
	callbacks  Callbacks

	clockLabel    *canvas.Text
	statusLabel   *widget.Label
	progressLabel *widget.Label
	progressBar   *widget.ProgressBar
	customEntry   *widget.Entry
	setButton     *widget.Button
	feedbackLabel *widget.Label
	startButton   *widget.Button
	pauseButton   *widget.Button
	resetButton   *widget.Button
	presetButtons []*widget.Button
	settings      *settingsForm
}

var (
	normalClock   = color.NRGBA{R: 33, G: 33, B: 33, A: 255}
	warningClock  = color.NRGBA{R: 230, G: 126, B: 34, A: 255}
	criticalClock = color.NRGBA{R: 192, G: 57, B: 43, A: 255}
	finishedClock = color.NRGBA{R: 39, G: 174, B: 96, A: 255}
)

// New creates a hidden control panel. Bind must be called before the panel
// forwards any command.
func New(app fyne.App, settings model.Settings, callbacks Callbacks) *Window {
	window := app.NewWindow("Meeting Timer")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	panel := &Window{
		window:    window,
		callbacks: callbacks,
	}

	panel.clockLabel = canvas.NewText(model.FormatClock(0), normalClock)
	panel.clockLabel.TextSize = 42
	panel.clockLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	panel.clockLabel.Alignment = fyne.TextAlignCenter

	panel.statusLabel = widget.NewLabelWithStyle(observer.StatusReady, fyne.TextAlignCenter, fyne.TextStyle{})
	panel.progressLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	panel.progressBar = widget.NewProgressBar()
	panel.progressBar.TextFormatter = func() string { return "" }

	minuteRow := container.NewHBox(layout.NewSpacer())
	for _, minutes := range settings.MinutePresets {
		minuteRow.Add(panel.presetButton(fmt.Sprintf("%d min", minutes), minutes*60, minutes))
	}
	minuteRow.Add(layout.NewSpacer())

	secondRow := container.NewHBox(layout.NewSpacer())
	for _, seconds := range settings.SecondPresets {
		secondRow.Add(panel.presetButton(fmt.Sprintf("%d sec", seconds), seconds, model.SelectedMinutesFor(seconds)))
	}
	secondRow.Add(layout.NewSpacer())

	panel.customEntry = widget.NewEntry()
	panel.customEntry.SetPlaceHolder("e.g. 45s or 5m")
	panel.customEntry.OnChanged = func(string) {
		if panel.controller != nil {
			panel.controller.ClearInput()
		}
	}
	panel.customEntry.OnSubmitted = panel.submitCustom
	panel.setButton = widget.NewButton("Set", func() {
		panel.submitCustom(panel.customEntry.Text)
	})
	panel.feedbackLabel = widget.NewLabel("")
	panel.feedbackLabel.Hide()

	panel.startButton = widget.NewButton("Start", panel.forward(func(controller Controller) { controller.Start() }))
	panel.startButton.Importance = widget.HighImportance
	panel.pauseButton = widget.NewButton("Pause", panel.forward(func(controller Controller) { controller.Pause() }))
	panel.resetButton = widget.NewButton("Reset", panel.forward(func(controller Controller) { controller.Reset() }))

	panel.settings = newSettingsForm(settings, func(updated model.Settings) {
		if panel.callbacks.OnSave != nil {
			panel.callbacks.OnSave(updated)
		}
	})

	timer := container.NewVBox(
		panel.clockLabel,
		panel.progressBar,
		panel.progressLabel,
		panel.statusLabel,
		widget.NewLabelWithStyle("Presets", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		minuteRow,
		secondRow,
		widget.NewLabelWithStyle("Custom", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, nil, panel.setButton, panel.customEntry),
		panel.feedbackLabel,
		container.NewGridWithColumns(3, panel.startButton, panel.pauseButton, panel.resetButton),
	)

	tabs := container.NewAppTabs(
		container.NewTabItem("Timer", timer),
		container.NewTabItem("Settings", panel.settings.content),
	)
	window.SetContent(tabs)
	window.Resize(fyne.NewSize(380, 460))
	window.SetCloseIntercept(panel.Hide)

	panel.applyButtons(observer.View{})
	return panel
}

// Bind connects the panel to the observer that executes its commands.
func (panel *Window) Bind(controller Controller) {
	panel.controller = controller
}

// Show displays the panel window.
func (panel *Window) Show() {
	panel.window.Show()
	panel.window.RequestFocus()
	if panel.callbacks.OnShow != nil {
		panel.callbacks.OnShow()
	}
}

// Hide closes the panel without quitting the app.
func (panel *Window) Hide() {
	panel.window.Hide()
	if panel.callbacks.OnHide != nil {
		panel.callbacks.OnHide()
	}
}

// UpdateSettings replaces values shown in the settings tab.
func (panel *Window) UpdateSettings(settings model.Settings) {
	panel.settings.update(settings)
}

// Render shows the view. It is safe to call from any goroutine.
func (panel *Window) Render(view observer.View) {
	fyne.Do(func() {
		panel.renderUnsafe(view)
	})
}

// ShowWarningLevel recolours the clock.
func (panel *Window) ShowWarningLevel(level model.Level) {
	fyne.Do(func() {
		panel.clockLabel.Color = clockColor(level)
		panel.clockLabel.Refresh()
	})
}

func (panel *Window) renderUnsafe(view observer.View) {
	panel.clockLabel.Text = view.Clock()
	panel.clockLabel.Refresh()
	panel.progressLabel.SetText(view.Progress())

	status := view.Status
	if status == "" {
		status = observer.StatusReady
	}
	panel.statusLabel.SetText(status)

	fraction := 0.0
	if view.TotalTime > 0 {
		fraction = float64(view.TimeLeft) / float64(view.TotalTime)
	}
	panel.progressBar.SetValue(fraction)

	switch view.Input {
	case observer.InputError:
		panel.feedbackLabel.Importance = widget.DangerImportance
		panel.feedbackLabel.SetText(view.InputMessage)
		panel.feedbackLabel.Show()
	case observer.InputSuccess:
		panel.feedbackLabel.Importance = widget.SuccessImportance
		panel.feedbackLabel.SetText(view.InputMessage)
		panel.feedbackLabel.Show()
	default:
		panel.feedbackLabel.SetText("")
		panel.feedbackLabel.Hide()
	}

	panel.applyButtons(view)
}

func (panel *Window) applyButtons(view observer.View) {
	setEnabled(panel.startButton, !view.IsRunning && view.TimeLeft > 0)
	setEnabled(panel.pauseButton, view.IsRunning)
	setEnabled(panel.resetButton, view.TotalTime > 0 || view.TimeLeft > 0)
	for _, button := range panel.presetButtons {
		setEnabled(button, !view.IsRunning)
	}
	setEnabled(panel.setButton, !view.IsRunning)
}

func (panel *Window) presetButton(label string, seconds, selectedMinutes int) *widget.Button {
	button := widget.NewButton(label, panel.forward(func(controller Controller) {
		controller.Select(seconds, selectedMinutes)
	}))
	panel.presetButtons = append(panel.presetButtons, button)
	return button
}

func (panel *Window) submitCustom(input string) {
	if panel.controller != nil {
		panel.controller.SetCustom(input)
	}
}

func (panel *Window) forward(command func(Controller)) func() {
	return func() {
		if panel.controller != nil {
			command(panel.controller)
		}
	}
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
	} else {
		button.Disable()
	}
}

func clockColor(level model.Level) color.Color {
	switch level {
	case model.LevelWarning:
		return warningClock
	case model.LevelCritical:
		return criticalClock
	case model.LevelFinished:
		return finishedClock
	default:
		return normalClock
	}
}
