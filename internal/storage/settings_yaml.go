package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"meetingtimer/internal/core/model"
)

const (
	settingsFileName = "settings.yaml"
	databaseFileName = "timer.db"
	socketFileName   = "meetingtimer.sock"
)

// Environment overrides applied after the settings file.
const (
	EnvSocket   = "MEETINGTIMER_SOCKET"
	EnvDatabase = "MEETINGTIMER_DB"
)

type yamlSettings struct {
	SocketPath     string  `yaml:"socket_path"`
	DatabasePath   string  `yaml:"database_path"`
	MinutePresets  []int   `yaml:"minute_presets"`
	SecondPresets  []int   `yaml:"second_presets"`
	OverlayOpacity float64 `yaml:"overlay_opacity"`
	SoundEnabled   *bool   `yaml:"sound_enabled"`
	SpeechEnabled  *bool   `yaml:"speech_enabled"`
	SpeechText     string  `yaml:"speech_text"`
	SoundFile      string  `yaml:"sound_file"`
	LogLevel       string  `yaml:"log_level"`
}

// LoadSettings reads user preferences from YAML at path, or from the default
// location when path is empty. A missing file yields defaults. Socket and
// database paths are always resolved to absolute locations.
func LoadSettings(appName, path string) (model.Settings, error) {
	settings := model.DefaultSettings()

	configPath := path
	if configPath == "" {
		resolved, err := resolveConfigPath(appName)
		if err != nil {
			return settings, err
		}
		configPath = resolved
	}

	rawData, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return settings, fmt.Errorf("read settings file: %w", err)
	default:
		var fileData yamlSettings
		if err := yaml.Unmarshal(rawData, &fileData); err != nil {
			return settings, fmt.Errorf("parse settings yaml: %w", err)
		}
		applyYamlSettings(&settings, fileData)
	}

	applyEnvironment(&settings)
	if err := resolveRuntimePaths(appName, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// SaveSettings writes user preferences to YAML at path, or to the default
// location when path is empty.
func SaveSettings(appName, path string, settings model.Settings) error {
	configPath := path
	if configPath == "" {
		resolved, err := resolveConfigPath(appName)
		if err != nil {
			return err
		}
		configPath = resolved
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	soundEnabled := settings.SoundEnabled
	speechEnabled := settings.SpeechEnabled
	fileData := yamlSettings{
		SocketPath:     settings.SocketPath,
		DatabasePath:   settings.DatabasePath,
		MinutePresets:  settings.MinutePresets,
		SecondPresets:  settings.SecondPresets,
		OverlayOpacity: settings.OverlayOpacity,
		SoundEnabled:   &soundEnabled,
		SpeechEnabled:  &speechEnabled,
		SpeechText:     settings.SpeechText,
		SoundFile:      settings.SoundFile,
		LogLevel:       settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}
	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func resolveRuntimePaths(appName string, settings *model.Settings) error {
	if settings.DatabasePath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolve user config dir: %w", err)
		}
		settings.DatabasePath = filepath.Join(configDir, appName, databaseFileName)
	}
	if settings.SocketPath == "" {
		runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
		if runtimeDir == "" {
			runtimeDir = os.TempDir()
		}
		settings.SocketPath = filepath.Join(runtimeDir, socketFileName)
	}
	return nil
}

func applyEnvironment(settings *model.Settings) {
	if value := strings.TrimSpace(os.Getenv(EnvSocket)); value != "" {
		settings.SocketPath = value
	}
	if value := strings.TrimSpace(os.Getenv(EnvDatabase)); value != "" {
		settings.DatabasePath = value
	}
}

func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	settings.SocketPath = strings.TrimSpace(fileData.SocketPath)
	settings.DatabasePath = strings.TrimSpace(fileData.DatabasePath)

	if presets := validPresets(fileData.MinutePresets, model.MaxSeconds/60); len(presets) > 0 {
		settings.MinutePresets = presets
	}
	if presets := validPresets(fileData.SecondPresets, model.MaxSeconds); len(presets) > 0 {
		settings.SecondPresets = presets
	}

	if fileData.OverlayOpacity >= 0.7 && fileData.OverlayOpacity <= 0.95 {
		settings.OverlayOpacity = fileData.OverlayOpacity
	}
	if fileData.SoundEnabled != nil {
		settings.SoundEnabled = *fileData.SoundEnabled
	}
	if fileData.SpeechEnabled != nil {
		settings.SpeechEnabled = *fileData.SpeechEnabled
	}
	if text := strings.TrimSpace(fileData.SpeechText); text != "" {
		settings.SpeechText = text
	}
	settings.SoundFile = strings.TrimSpace(fileData.SoundFile)

	switch level := strings.ToLower(strings.TrimSpace(fileData.LogLevel)); level {
	case "debug", "info", "warn", "error":
		settings.LogLevel = level
	}
}

func validPresets(values []int, max int) []int {
	var presets []int
	for _, value := range values {
		if value > 0 && value <= max {
			presets = append(presets, value)
		}
	}
	return presets
}
