package model

import "time"

// Settings defines editable user preferences.
type Settings struct {
	SocketPath   string
	DatabasePath string

	MinutePresets []int
	SecondPresets []int

	OverlayOpacity float64
	SoundEnabled   bool
	SpeechEnabled  bool
	SpeechText     string
	SoundFile      string

	LogLevel string
}

// DefaultSettings returns default settings for meetingtimer. Paths are left
// empty and resolved against the user config dir by the storage layer.
func DefaultSettings() Settings {
	return Settings{
		MinutePresets:  []int{1, 2, 3},
		SecondPresets:  []int{30, 60, 90},
		OverlayOpacity: 0.85,
		SoundEnabled:   true,
		SpeechEnabled:  true,
		SpeechText:     "Time is up, next speaker please",
		LogLevel:       "info",
	}
}

// SyncTiming holds the observer-side convergence timings.
type SyncTiming struct {
	ResyncDelay  time.Duration
	PollInterval time.Duration
	StaleAfter   time.Duration
}

// DefaultSyncTiming mirrors the protocol constants: a second sync request
// after 100ms, a 1s poll and a 2s staleness threshold on LastTick.
func DefaultSyncTiming() SyncTiming {
	return SyncTiming{
		ResyncDelay:  100 * time.Millisecond,
		PollInterval: time.Second,
		StaleAfter:   2 * time.Second,
	}
}
