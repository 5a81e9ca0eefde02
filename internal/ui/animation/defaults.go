package animation

import (
	"image/color"
	"time"

	"meetingtimer/internal/core/model"
)

// DefaultConfig returns the overlay glow used for the warning and critical bands.
func DefaultConfig() Config {
	return Config{
		Pulses: map[model.Level]PulseSpec{
			model.LevelWarning: {
				Period: 1500 * time.Millisecond,
				Bright: color.NRGBA{R: 255, G: 152, B: 0, A: 255},
				Dim:    color.NRGBA{R: 255, G: 152, B: 0, A: 110},
			},
			model.LevelCritical: {
				Period: time.Second,
				Bright: color.NRGBA{R: 244, G: 67, B: 54, A: 255},
				Dim:    color.NRGBA{R: 244, G: 67, B: 54, A: 110},
			},
		},
	}
}
