// Package terminal holds the text-mode surfaces: a read-only watch view and
// an interactive console.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"meetingtimer/internal/core/model"
	"meetingtimer/internal/observer"
)

const (
	barWidth    = 24
	clearScreen = "\x1b[H\x1b[2J"
)

type watchTheme struct {
	frame   lipgloss.Style
	title   lipgloss.Style
	clock   lipgloss.Style
	caption lipgloss.Style
	status  lipgloss.Style
	levels  map[model.Level]lipgloss.Color
}

func newWatchTheme(renderer *lipgloss.Renderer) watchTheme {
	return watchTheme{
		frame: renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2),
		title:   renderer.NewStyle().Bold(true),
		clock:   renderer.NewStyle().Bold(true),
		caption: renderer.NewStyle().Italic(true),
		status:  renderer.NewStyle().Faint(true),
		levels: map[model.Level]lipgloss.Color{
			model.LevelNormal:   lipgloss.Color("252"),
			model.LevelWarning:  lipgloss.Color("214"),
			model.LevelCritical: lipgloss.Color("196"),
			model.LevelFinished: lipgloss.Color("42"),
		},
	}
}

// Watch prints a frame for every rendered view. It implements observer.Surface.
type Watch struct {
	mu    sync.Mutex
	out   io.Writer
	theme watchTheme
	clear bool
	last  string
}

// WatchOptions configures a Watch.
type WatchOptions struct {
	// ClearScreen redraws in place; disable when out is not a terminal.
	ClearScreen bool
}

// NewWatch creates a watch surface writing to out.
func NewWatch(out io.Writer, options WatchOptions) *Watch {
	return &Watch{
		out:   out,
		theme: newWatchTheme(lipgloss.NewRenderer(out)),
		clear: options.ClearScreen,
	}
}

// Render draws view unless it is identical to the last frame.
func (watch *Watch) Render(view observer.View) {
	frame := watch.Frame(view)

	watch.mu.Lock()
	defer watch.mu.Unlock()
	if frame == watch.last {
		return
	}
	watch.last = frame
	if watch.clear {
		fmt.Fprint(watch.out, clearScreen)
	}
	fmt.Fprintln(watch.out, frame)
}

// ShowWarningLevel is a no-op; colours are derived from the view.
func (watch *Watch) ShowWarningLevel(model.Level) {}

// Frame renders view as a bordered block.
func (watch *Watch) Frame(view observer.View) string {
	theme := watch.theme
	level := model.LevelFor(view.TimeLeft)
	if view.TotalTime == 0 && view.TimeLeft == 0 {
		level = model.LevelNormal
	}
	accent := theme.levels[level]

	status := view.Status
	if status == "" {
		status = observer.StatusReady
	}
	lines := []string{
		theme.title.Render("Meeting Timer"),
		theme.clock.Foreground(accent).Render(view.Clock()),
		ProgressBar(view.TimeLeft, view.TotalTime, barWidth),
		theme.caption.Render(view.Progress()),
		theme.status.Render(status),
	}
	if view.Input == observer.InputError && view.InputMessage != "" {
		lines = append(lines, view.InputMessage)
	}
	return theme.frame.BorderForeground(accent).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// ProgressBar draws the remaining fraction as a fixed-width bar.
func ProgressBar(timeLeft, totalTime, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if totalTime > 0 && timeLeft > 0 {
		filled = (timeLeft*width + totalTime - 1) / totalTime
		if filled > width {
			filled = width
		}
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
