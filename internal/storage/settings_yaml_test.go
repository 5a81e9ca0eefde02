package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingtimer/internal/core/model"
)

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvSocket, "")
	t.Setenv(EnvDatabase, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings, err := LoadSettings("meetingtimer", path)
	require.NoError(t, err)

	defaults := model.DefaultSettings()
	assert.Equal(t, defaults.MinutePresets, settings.MinutePresets)
	assert.Equal(t, defaults.SecondPresets, settings.SecondPresets)
	assert.Equal(t, "/run/user/1000/meetingtimer.sock", settings.SocketPath)
	assert.Equal(t, "timer.db", filepath.Base(settings.DatabasePath))
}

func TestLoadSettings_ParsesAndValidates(t *testing.T) {
	t.Setenv(EnvSocket, "")
	t.Setenv(EnvDatabase, "")
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
socket_path: /tmp/custom.sock
database_path: /tmp/custom.db
minute_presets: [5, 0, -1, 10]
second_presets: [45]
overlay_opacity: 0.2
sound_enabled: false
speech_text: "  Next please  "
log_level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadSettings("meetingtimer", path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.sock", settings.SocketPath)
	assert.Equal(t, "/tmp/custom.db", settings.DatabasePath)
	assert.Equal(t, []int{5, 10}, settings.MinutePresets)
	assert.Equal(t, []int{45}, settings.SecondPresets)
	assert.Equal(t, 0.85, settings.OverlayOpacity)
	assert.False(t, settings.SoundEnabled)
	assert.True(t, settings.SpeechEnabled)
	assert.Equal(t, "Next please", settings.SpeechText)
	assert.Equal(t, "debug", settings.LogLevel)
}

func TestLoadSettings_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvSocket, "/tmp/env.sock")
	t.Setenv(EnvDatabase, "/tmp/env.db")
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("socket_path: /tmp/file.sock\n"), 0o644))

	settings, err := LoadSettings("meetingtimer", path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.sock", settings.SocketPath)
	assert.Equal(t, "/tmp/env.db", settings.DatabasePath)
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minute_presets: [1, 2"), 0o644))

	_, err := LoadSettings("meetingtimer", path)
	assert.Error(t, err)
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	t.Setenv(EnvSocket, "")
	t.Setenv(EnvDatabase, "")
	path := filepath.Join(t.TempDir(), "conf", "settings.yaml")

	settings := model.DefaultSettings()
	settings.SocketPath = "/tmp/a.sock"
	settings.DatabasePath = "/tmp/a.db"
	settings.MinutePresets = []int{2, 4}
	settings.OverlayOpacity = 0.9
	settings.SpeechEnabled = false
	require.NoError(t, SaveSettings("meetingtimer", path, settings))

	loaded, err := LoadSettings("meetingtimer", path)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}
