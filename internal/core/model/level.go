package model

// Level is the visual and audio urgency band of a countdown.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
	LevelFinished Level = "finished"
)

// Band thresholds in seconds.
const (
	WarningBand  = 30
	CriticalBand = 10
)

// LevelFor derives the band purely from the remaining seconds.
func LevelFor(timeLeft int) Level {
	switch {
	case timeLeft <= 0:
		return LevelFinished
	case timeLeft <= CriticalBand:
		return LevelCritical
	case timeLeft <= WarningBand:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// ProgressText is the short caption shown under the clock.
func ProgressText(timeLeft int) string {
	switch LevelFor(timeLeft) {
	case LevelNormal:
		return "On track"
	case LevelWarning:
		return "Watch the time"
	case LevelCritical:
		return "Ending soon"
	default:
		return "Time is up"
	}
}
