package model

import "fmt"

// FormatClock renders seconds as mm:ss. Minutes are not wrapped at 60.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatDuration renders a human readable length such as "45s", "5 min" or "2 min 5s".
func FormatDuration(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds%60 == 0:
		return fmt.Sprintf("%d min", seconds/60)
	default:
		return fmt.Sprintf("%d min %ds", seconds/60, seconds%60)
	}
}

// SelectedMinutesFor returns the display hint for a duration given in seconds:
// whole minutes for minute-aligned durations, otherwise 0.
func SelectedMinutesFor(seconds int) int {
	if seconds >= 60 && seconds%60 == 0 {
		return seconds / 60
	}
	return 0
}
