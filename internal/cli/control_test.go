package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingtimer/internal/app"
	"meetingtimer/internal/core/model"
)

type testPaths struct {
	config string
	socket string
	db     string
}

func newTestPaths(t *testing.T) testPaths {
	t.Helper()
	socketDir, err := os.MkdirTemp("", "mt")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(socketDir) })

	dir := t.TempDir()
	return testPaths{
		config: filepath.Join(dir, "settings.yaml"),
		socket: filepath.Join(socketDir, "engine.sock"),
		db:     filepath.Join(dir, "timer.db"),
	}
}

func (paths testPaths) args(args ...string) []string {
	return append(args, "--config", paths.config, "--socket", paths.socket, "--db", paths.db)
}

// startEngine serves the socket with a tick slow enough that state only
// changes through commands.
func startEngine(t *testing.T, paths testPaths) *app.Runtime {
	t.Helper()
	settings := model.DefaultSettings()
	settings.SocketPath = paths.socket
	settings.DatabasePath = paths.db

	runtime, err := app.NewRuntime(context.Background(), app.RuntimeOptions{
		Settings:     settings,
		TickInterval: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })
	return runtime
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestControlCommands_Lifecycle(t *testing.T) {
	paths := newTestPaths(t)
	runtime := startEngine(t, paths)

	out, err := execute(t, paths.args("start", "5m")...)
	require.NoError(t, err)
	assert.Equal(t, "running 05:00 / 05:00\n", out)
	assert.True(t, runtime.Keeper.State().IsRunning)

	out, err = execute(t, paths.args("pause")...)
	require.NoError(t, err)
	// Paused before the first tick reads as armed.
	assert.Equal(t, "armed 05:00 / 05:00\n", out)
	assert.False(t, runtime.Keeper.State().IsRunning)

	out, err = execute(t, paths.args("start")...)
	require.NoError(t, err)
	assert.Equal(t, "running 05:00 / 05:00\n", out)

	out, err = execute(t, paths.args("reset")...)
	require.NoError(t, err)
	assert.Equal(t, "armed 05:00 / 05:00\n", out)
	assert.Equal(t, 5, runtime.Keeper.State().SelectedMinutes)
}

func TestStatusCommand_JSON(t *testing.T) {
	paths := newTestPaths(t)
	startEngine(t, paths)

	_, err := execute(t, paths.args("start", "45s")...)
	require.NoError(t, err)

	out, err := execute(t, paths.args("status", "--format", "json")...)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "running", decoded["phase"])
	assert.Equal(t, "00:45", decoded["clock"])
	assert.Equal(t, float64(45), decoded["timeLeft"])
	assert.Equal(t, float64(45), decoded["totalTime"])
	assert.Equal(t, true, decoded["isRunning"])
	assert.Equal(t, float64(0), decoded["selectedMinutes"])
}

func TestStatusCommand_Idle(t *testing.T) {
	paths := newTestPaths(t)
	startEngine(t, paths)

	out, err := execute(t, paths.args("status")...)
	require.NoError(t, err)
	assert.Equal(t, "idle 00:00 / 00:00\n", out)
}

func TestStatusCommand_InvalidFormat(t *testing.T) {
	paths := newTestPaths(t)

	_, err := execute(t, paths.args("status", "--format", "xml")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestStartCommand_Errors(t *testing.T) {
	paths := newTestPaths(t)
	startEngine(t, paths)

	_, err := execute(t, paths.args("start")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "select a duration first")

	_, err = execute(t, paths.args("start", "abc")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, paths.args("start", "5m", "extra")...)
	require.Error(t, err)
}

func TestControlCommands_NoEngine(t *testing.T) {
	paths := newTestPaths(t)

	for _, args := range [][]string{{"start", "1m"}, {"pause"}, {"reset"}, {"status"}} {
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, paths.args(args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitUnavailable, GetExitCode(err))
		})
	}
}

func TestDaemonCommand_SocketInUse(t *testing.T) {
	paths := newTestPaths(t)
	startEngine(t, paths)

	_, err := execute(t, paths.args("daemon")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
