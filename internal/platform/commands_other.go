//go:build !linux && !darwin && !windows

package platform

import "path/filepath"

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func notifyCommands(string, string, string) []Command { return nil }

func soundCommands(Cue, string) []Command { return nil }

func speechCommands(text string) []Command {
	return []Command{{Name: "espeak", Args: []string{text}}}
}
