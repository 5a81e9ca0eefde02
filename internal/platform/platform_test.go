package platform

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStarter struct {
	mu       sync.Mutex
	commands []Command
	err      error
}

func (starter *recordingStarter) start(command Command) error {
	starter.mu.Lock()
	defer starter.mu.Unlock()
	starter.commands = append(starter.commands, command)
	return starter.err
}

func withLookup(t *testing.T, available ...string) {
	t.Helper()
	previous := lookup
	lookup = func(name string) (string, error) {
		for _, candidate := range available {
			if candidate == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookup = previous })
}

func allPrograms(commands []Command) []string {
	names := make([]string, 0, len(commands))
	for _, command := range commands {
		names = append(names, command.Name)
	}
	return names
}

func TestFinishedBody(t *testing.T) {
	assert.Equal(t, "Your 3 min slot has ended.", FinishedBody(180))
	assert.Equal(t, "Your 45s slot has ended.", FinishedBody(45))
	assert.Equal(t, "The countdown has finished.", FinishedBody(0))
}

func TestNotifier_UsesFirstAvailableTool(t *testing.T) {
	candidates := notifyCommands("meetingtimer", FinishedTitle, FinishedBody(60))
	require.NotEmpty(t, candidates)
	last := candidates[len(candidates)-1].Name
	withLookup(t, last)

	starter := &recordingStarter{}
	notifier := NewNotifier("meetingtimer", nil)
	notifier.start = starter.start

	require.NoError(t, notifier.NotifyFinished(60))
	require.Len(t, starter.commands, 1)
	assert.Equal(t, "/usr/bin/"+last, starter.commands[0].Name)
}

func TestNotifier_Unsupported(t *testing.T) {
	withLookup(t)
	notifier := NewNotifier("meetingtimer", nil)

	err := notifier.NotifyFinished(60)

	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNotifier_StartFailure(t *testing.T) {
	candidates := notifyCommands("meetingtimer", FinishedTitle, "")
	require.NotEmpty(t, candidates)
	withLookup(t, allPrograms(candidates)...)
	starter := &recordingStarter{err: errors.New("boom")}
	notifier := NewNotifier("meetingtimer", nil)
	notifier.start = starter.start

	assert.EqualError(t, notifier.NotifyFinished(60), "boom")
}

func TestSounder_PlaysCues(t *testing.T) {
	withLookup(t, allPrograms(soundCommands(CueDone, ""))...)
	starter := &recordingStarter{}
	sounder := NewSounder("", nil)
	sounder.start = starter.start

	sounder.PlayWarning()
	sounder.PlayDone()

	require.Len(t, starter.commands, 2)
	assert.NotEqual(t, starter.commands[0].Args, starter.commands[1].Args)
}

func TestSounder_CustomFile(t *testing.T) {
	withLookup(t, allPrograms(soundCommands(CueDone, "/tmp/chime.wav"))...)
	starter := &recordingStarter{}
	sounder := NewSounder("/tmp/chime.wav", nil)
	sounder.start = starter.start

	sounder.PlayDone()

	require.Len(t, starter.commands, 1)
	assert.Contains(t, fmt.Sprint(starter.commands[0].Args), "chime.wav")
}

func TestSounder_NoPlayerIsSilent(t *testing.T) {
	withLookup(t)
	starter := &recordingStarter{}
	sounder := NewSounder("", nil)
	sounder.start = starter.start

	sounder.PlayWarning()

	assert.Empty(t, starter.commands)
}

func TestSpeaker(t *testing.T) {
	candidates := speechCommands("next speaker please")
	require.NotEmpty(t, candidates)
	withLookup(t, allPrograms(candidates)...)
	starter := &recordingStarter{}
	speaker := NewSpeaker(nil)
	speaker.start = starter.start

	require.NoError(t, speaker.Speak("  next speaker please "))
	require.NoError(t, speaker.Speak("   "))

	require.Len(t, starter.commands, 1)
	assert.Contains(t, fmt.Sprint(starter.commands[0].Args), "next speaker please")
}

func TestSpeaker_Unsupported(t *testing.T) {
	withLookup(t)
	assert.ErrorIs(t, NewSpeaker(nil).Speak("hello"), ErrUnsupported)
}

func TestSingleInstance(t *testing.T) {
	name := "meetingtimer-test-" + uuid.NewString()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = guard.Release() })

	activated := make(chan struct{}, 1)
	guard.OnActivate(func() { activated <- struct{}{} })

	_, err = AcquireSingleInstance(name)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("running instance was not activated")
	}

	require.NoError(t, guard.Release())
	again, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	assert.Equal(t, guard.Address(), again.Address())
	require.NoError(t, again.Release())
}

func TestPortFromNameIsStable(t *testing.T) {
	port := portFromName("meetingtimer")
	assert.Equal(t, port, portFromName("meetingtimer"))
	assert.GreaterOrEqual(t, port, 20000)
	assert.LessOrEqual(t, port, 39999)
}
