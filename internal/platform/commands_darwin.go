//go:build darwin

package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "Library", "Application Support")
}

func notifyCommands(appName, title, body string) []Command {
	script := fmt.Sprintf(`display notification %s with title %s subtitle %s sound name "Glass"`,
		appleScriptString(body), appleScriptString(title), appleScriptString(appName))
	return []Command{{Name: "osascript", Args: []string{"-e", script}}}
}

func soundCommands(cue Cue, file string) []Command {
	if file == "" {
		file = "/System/Library/Sounds/Ping.aiff"
		if cue == CueDone {
			file = "/System/Library/Sounds/Glass.aiff"
		}
	}
	return []Command{{Name: "afplay", Args: []string{file}}}
}

func speechCommands(text string) []Command {
	return []Command{{Name: "say", Args: []string{text}}}
}

func appleScriptString(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + replacer.Replace(value) + `"`
}
