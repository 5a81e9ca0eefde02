package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"meetingtimer/internal/core/durationinput"
	"meetingtimer/internal/core/model"
	"meetingtimer/internal/observer"
)

// Controller is what the console drives; *observer.Observer satisfies it.
type Controller interface {
	SetCustom(input string)
	Start()
	Pause()
	Reset()
	View() observer.View
}

// ConsoleOptions configures the readline instance. Nil streams fall back
// to the process terminal.
type ConsoleOptions struct {
	Prompt string
	Stdin  io.ReadCloser
	Stdout io.Writer
}

// Console is an interactive control surface. It implements observer.Surface
// and prints status changes above the prompt.
type Console struct {
	rl         *readline.Instance
	out        io.Writer
	controller Controller

	mu         sync.Mutex
	lastStatus string
	lastInput  string
}

// NewConsole creates a console bound to controller.
func NewConsole(controller Controller, options ConsoleOptions) (*Console, error) {
	prompt := options.Prompt
	if prompt == "" {
		prompt = "timer> "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           options.Stdin,
		Stdout:          options.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	console := newConsole(controller, rl.Stdout())
	console.rl = rl
	return console, nil
}

func newConsole(controller Controller, out io.Writer) *Console {
	return &Console{
		out:        out,
		controller: controller,
	}
}

// Bind sets the controller. Commands dispatched before Bind are dropped.
func (console *Console) Bind(controller Controller) {
	console.mu.Lock()
	console.controller = controller
	console.mu.Unlock()
}

// Run reads commands until quit, EOF or ctx is done.
func (console *Console) Run(ctx context.Context) error {
	if console.rl == nil {
		return errors.New("console has no terminal")
	}
	defer console.rl.Close()

	go func() {
		<-ctx.Done()
		console.rl.Close()
	}()

	console.printHelp()
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := console.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}
		if console.Dispatch(line) {
			return nil
		}
	}
}

// Dispatch runs one command line and reports whether the console should exit.
func (console *Console) Dispatch(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	console.mu.Lock()
	controller := console.controller
	console.mu.Unlock()
	if controller == nil {
		controller = noController{}
	}

	switch command {
	case "help", "?":
		console.printHelp()
	case "start", "s":
		if len(args) > 0 {
			if !console.setDuration(controller, strings.Join(args, "")) {
				return false
			}
		}
		controller.Start()
	case "set":
		if len(args) == 0 {
			fmt.Fprintln(console.out, "Usage: set <duration>")
			return false
		}
		console.setDuration(controller, strings.Join(args, ""))
	case "pause", "p":
		controller.Pause()
	case "reset", "r":
		controller.Reset()
	case "status", "st":
		fmt.Fprintln(console.out, Summary(controller.View()))
	case "quit", "exit", "q":
		fmt.Fprintln(console.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(console.out, "Unknown command: %s (type 'help' for commands)\n", command)
	}
	return false
}

// Render prints the view when its status or input feedback changed.
func (console *Console) Render(view observer.View) {
	console.mu.Lock()
	defer console.mu.Unlock()

	if view.Input == observer.InputError && view.InputMessage != console.lastInput {
		fmt.Fprintf(console.out, "! %s\n", view.InputMessage)
	}
	console.lastInput = view.InputMessage

	if view.Status != "" && view.Status != console.lastStatus {
		fmt.Fprintln(console.out, Summary(view))
	}
	console.lastStatus = view.Status
}

// ShowWarningLevel announces the warning and critical bands.
func (console *Console) ShowWarningLevel(level model.Level) {
	switch level {
	case model.LevelWarning:
		fmt.Fprintln(console.out, "-- 30 seconds left")
	case model.LevelCritical:
		fmt.Fprintln(console.out, "-- 10 seconds left")
	}
}

// Summary is a one-line rendering such as "04:59 Running (On track)".
func Summary(view observer.View) string {
	status := view.Status
	if status == "" {
		status = observer.StatusReady
	}
	summary := fmt.Sprintf("%s %s", view.Clock(), status)
	if progress := view.Progress(); progress != "" && progress != status {
		summary += fmt.Sprintf(" (%s)", progress)
	}
	return summary
}

func (console *Console) setDuration(controller Controller, input string) bool {
	if _, err := durationinput.Parse(input); err != nil {
		fmt.Fprintf(console.out, "! %s\n", durationinput.Message(err))
		return false
	}
	controller.SetCustom(input)
	return true
}

type noController struct{}

func (noController) SetCustom(string)    {}
func (noController) Start()              {}
func (noController) Pause()              {}
func (noController) Reset()              {}
func (noController) View() observer.View { return observer.View{} }

func (console *Console) printHelp() {
	fmt.Fprint(console.out, `
Meeting timer commands:
  start [duration]   - Start, optionally with a new duration (45s, 5m, 90)
  set <duration>     - Select a duration without starting
  pause              - Pause the countdown
  reset              - Reset to the selected duration
  status             - Show the current state
  help               - Show this help
  quit               - Leave the console

`)
}
