//go:build linux

package platform

import "path/filepath"

const freedesktopSounds = "/usr/share/sounds/freedesktop/stereo"

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func notifyCommands(appName, title, body string) []Command {
	return []Command{
		{Name: "notify-send", Args: []string{"--app-name", appName, "--urgency", "critical", title, body}},
		{Name: "zenity", Args: []string{"--notification", "--text", title + "\n" + body}},
	}
}

func soundCommands(cue Cue, file string) []Command {
	if file == "" {
		file = filepath.Join(freedesktopSounds, "bell.oga")
		if cue == CueDone {
			file = filepath.Join(freedesktopSounds, "complete.oga")
		}
	}
	return []Command{
		{Name: "paplay", Args: []string{file}},
		{Name: "pw-play", Args: []string{file}},
		{Name: "canberra-gtk-play", Args: []string{"--file", file}},
	}
}

func speechCommands(text string) []Command {
	return []Command{
		{Name: "spd-say", Args: []string{text}},
		{Name: "espeak-ng", Args: []string{text}},
		{Name: "espeak", Args: []string{text}},
	}
}
