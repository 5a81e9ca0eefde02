package animation

import (
	"image/color"
	"time"
)

// PulseSpec defines one glow animation: the overlay border swings between
// Bright and Dim every half Period.
type PulseSpec struct {
	Period time.Duration
	Bright color.NRGBA
	Dim    color.NRGBA
}

// Valid reports whether the spec can be animated.
func (spec PulseSpec) Valid() bool {
	return spec.Period > 0
}
