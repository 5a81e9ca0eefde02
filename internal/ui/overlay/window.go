// Package overlay is the floating countdown window that stays on top of the
// presenter's screen.
package overlay

import (
	"context"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/observer"
	"meetingtimer/internal/ui/animation"
)

// Config defines overlay visuals.
type Config struct {
	Opacity float64
}

// FinishNoticeDuration is how long the "Time is up" notice stays visible.
const FinishNoticeDuration = 3 * time.Second

// Window manages the overlay UI. It implements observer.Surface.
type Window struct {
	app           fyne.App
	window        fyne.Window
	config        Config
	titleLabel    *canvas.Text
	timerLabel    *canvas.Text
	progressLabel *canvas.Text
	noticeLabel   *canvas.Text
	hideButton    *widget.Button
	background    *canvas.Rectangle
	glow          *canvas.Rectangle
	pulse         *animation.Engine
	onHide        func()

	mu          sync.Mutex
	visible     bool
	noticeTimer *time.Timer
	level       model.Level
}

const (
	overlayWidthFraction  = float32(0.14)
	overlayHeightFraction = float32(0.16)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

var (
	textColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	normalColor   = color.NRGBA{R: 33, G: 33, B: 33}
	warningColor  = color.NRGBA{R: 243, G: 156, B: 18}
	criticalColor = color.NRGBA{R: 231, G: 76, B: 60}
	finishedColor = color.NRGBA{R: 76, G: 175, B: 80}
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a hidden overlay window.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("Meeting Timer")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	overlay := &Window{
		app:    app,
		window: window,
		config: config,
	}

	overlay.background = canvas.NewRectangle(levelColor(model.LevelNormal, config.Opacity))
	overlay.background.CornerRadius = 10

	overlay.glow = canvas.NewRectangle(color.Transparent)
	overlay.glow.StrokeWidth = 3
	overlay.glow.CornerRadius = 10
	overlay.glow.Hide()

	overlay.titleLabel = newText("Meeting Timer", 13, false)
	overlay.timerLabel = newText("00:00", 30, true)
	overlay.progressLabel = newText("", 13, false)
	overlay.noticeLabel = newText("Time is up!", 16, true)
	overlay.noticeLabel.Hide()

	overlay.hideButton = widget.NewButton("Hide", func() {
		overlay.Hide()
		if overlay.onHide != nil {
			overlay.onHide()
		}
	})

	content := container.New(&overlayLayout{},
		overlay.titleLabel, overlay.timerLabel, overlay.progressLabel, overlay.noticeLabel, overlay.hideButton)
	window.SetContent(container.NewStack(overlay.background, overlay.glow, content))

	overlay.pulse = animation.New(animation.DefaultConfig(), overlay.setGlow)
	overlay.applyWindowMode()
	return overlay
}

// SetOnHide sets the handler for the hide button.
func (overlay *Window) SetOnHide(handler func()) {
	overlay.onHide = handler
}

// Render shows the view. It is safe to call from any goroutine.
func (overlay *Window) Render(view observer.View) {
	fyne.Do(func() {
		overlay.renderUnsafe(view)
	})
}

// ShowWarningLevel switches colours and glow for level.
func (overlay *Window) ShowWarningLevel(level model.Level) {
	fyne.Do(func() {
		overlay.setLevelUnsafe(level)
	})
}

// Visible reports whether the overlay is on screen.
func (overlay *Window) Visible() bool {
	overlay.mu.Lock()
	defer overlay.mu.Unlock()
	return overlay.visible
}

// Hide removes the overlay and stops its animation.
func (overlay *Window) Hide() {
	overlay.pulse.Stop()
	overlay.mu.Lock()
	overlay.visible = false
	if overlay.noticeTimer != nil {
		overlay.noticeTimer.Stop()
		overlay.noticeTimer = nil
	}
	overlay.mu.Unlock()
	overlay.noticeLabel.Hide()
	overlay.window.Hide()
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.mu.Lock()
	level := overlay.level
	overlay.mu.Unlock()
	overlay.background.FillColor = levelColor(level, config.Opacity)
	overlay.applyWindowMode()
	canvas.Refresh(overlay.background)
}

func (overlay *Window) renderUnsafe(view observer.View) {
	overlay.timerLabel.Text = view.Clock()
	overlay.timerLabel.Refresh()
	overlay.progressLabel.Text = view.Progress()
	overlay.progressLabel.Refresh()

	if view.TimeLeft == 0 && view.Status == observer.StatusFinished {
		overlay.showNoticeUnsafe()
	}

	if !view.Visible {
		if overlay.Visible() {
			overlay.Hide()
		}
		return
	}
	if !overlay.Visible() {
		overlay.mu.Lock()
		overlay.visible = true
		overlay.mu.Unlock()
		overlay.applyWindowMode()
		overlay.window.Show()
	}
}

func (overlay *Window) showNoticeUnsafe() {
	overlay.mu.Lock()
	defer overlay.mu.Unlock()
	if overlay.noticeTimer != nil {
		return
	}
	overlay.noticeLabel.Show()
	overlay.noticeTimer = time.AfterFunc(FinishNoticeDuration, func() {
		fyne.Do(func() {
			overlay.mu.Lock()
			overlay.noticeTimer = nil
			overlay.mu.Unlock()
			overlay.noticeLabel.Hide()
		})
	})
}

func (overlay *Window) setLevelUnsafe(level model.Level) {
	overlay.mu.Lock()
	overlay.level = level
	overlay.mu.Unlock()

	overlay.background.FillColor = levelColor(level, overlay.config.Opacity)
	canvas.Refresh(overlay.background)
	overlay.pulse.StartLevel(context.Background(), level)
}

func (overlay *Window) setGlow(glow color.NRGBA, visible bool) {
	fyne.Do(func() {
		if !visible {
			overlay.glow.Hide()
			return
		}
		overlay.glow.StrokeColor = glow
		overlay.glow.Show()
		canvas.Refresh(overlay.glow)
	})
}

func (overlay *Window) applyWindowMode() {
	overlay.resizeToScreenFraction()
	overlay.applyNativeOpacity(opacityAlpha(overlay.config.Opacity))
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * overlayWidthFraction
	height := screenSize.Height * overlayHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}
	overlay.window.Resize(fyne.NewSize(width, height))
}

func newText(text string, size float32, bold bool) *canvas.Text {
	label := canvas.NewText(text, textColor)
	label.Alignment = fyne.TextAlignCenter
	label.TextStyle = fyne.TextStyle{Bold: bold}
	label.TextSize = size
	return label
}

func levelColor(level model.Level, opacity float64) color.NRGBA {
	var base color.NRGBA
	switch level {
	case model.LevelWarning:
		base = warningColor
	case model.LevelCritical:
		base = criticalColor
	case model.LevelFinished:
		base = finishedColor
	default:
		base = normalColor
	}
	base.A = opacityAlpha(opacity)
	return base
}

func opacityAlpha(opacity float64) uint8 {
	if opacity <= 0 || opacity > 1 {
		opacity = 0.85
	}
	return uint8(opacity * 255)
}

type overlayLayout struct{}

func (layout *overlayLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 5 {
		return
	}
	title, timer, progress, notice, hide := objects[0], objects[1], objects[2], objects[3], objects[4]

	pad := size.Height * 0.06
	availableWidth := size.Width - pad*2
	if availableWidth < 0 {
		availableWidth = 0
	}

	y := pad
	for _, object := range []fyne.CanvasObject{title, timer, progress} {
		objectSize := object.MinSize()
		object.Move(fyne.NewPos(pad, y))
		object.Resize(fyne.NewSize(availableWidth, objectSize.Height))
		y += objectSize.Height + 4
	}

	noticeSize := notice.MinSize()
	notice.Move(fyne.NewPos(pad, y))
	notice.Resize(fyne.NewSize(availableWidth, noticeSize.Height))

	hideSize := hide.MinSize()
	hideY := size.Height - pad - hideSize.Height
	if hideY < y+noticeSize.Height {
		hideY = y + noticeSize.Height
	}
	hide.Move(fyne.NewPos(size.Width-pad-hideSize.Width, hideY))
	hide.Resize(hideSize)
}

func (layout *overlayLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 5 {
		return fyne.NewSize(0, 0)
	}
	var width, height float32
	for _, object := range objects {
		objectSize := object.MinSize()
		if objectSize.Width > width {
			width = objectSize.Width
		}
		height += objectSize.Height + 4
	}
	return fyne.NewSize(width+20, height+20)
}
