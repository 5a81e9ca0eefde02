//go:build windows

package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func notifyCommands(appName, title, body string) []Command {
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms;`+
		`$n = New-Object System.Windows.Forms.NotifyIcon;`+
		`$n.Icon = [System.Drawing.SystemIcons]::Information;`+
		`$n.BalloonTipTitle = %s; $n.BalloonTipText = %s; $n.Text = %s;`+
		`$n.Visible = $true; $n.ShowBalloonTip(5000); Start-Sleep -Seconds 6; $n.Dispose()`,
		powershellString(title), powershellString(body), powershellString(appName))
	return []Command{powershell(script)}
}

func soundCommands(cue Cue, file string) []Command {
	if file != "" {
		return []Command{powershell(fmt.Sprintf(`(New-Object Media.SoundPlayer %s).PlaySync()`, powershellString(file)))}
	}
	sound := "Exclamation"
	if cue == CueDone {
		sound = "Asterisk"
	}
	return []Command{powershell(fmt.Sprintf(`[System.Media.SystemSounds]::%s.Play(); Start-Sleep -Milliseconds 800`, sound))}
}

func speechCommands(text string) []Command {
	return []Command{powershell(fmt.Sprintf(`Add-Type -AssemblyName System.Speech;`+
		`(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak(%s)`, powershellString(text)))}
}

func powershell(script string) Command {
	return Command{Name: "powershell", Args: []string{"-NoProfile", "-NonInteractive", "-Command", script}}
}

func powershellString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
