package animation

import (
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"meetingtimer/internal/core/model"
)

type glowRecorder struct {
	mu      sync.Mutex
	colours []color.NRGBA
	hidden  int
}

func (recorder *glowRecorder) update(glow color.NRGBA, visible bool) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if !visible {
		recorder.hidden++
		return
	}
	recorder.colours = append(recorder.colours, glow)
}

func (recorder *glowRecorder) snapshot() ([]color.NRGBA, int) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]color.NRGBA(nil), recorder.colours...), recorder.hidden
}

func fastConfig() Config {
	return Config{Pulses: map[model.Level]PulseSpec{
		model.LevelCritical: {
			Period: 10 * time.Millisecond,
			Bright: color.NRGBA{R: 255, A: 255},
			Dim:    color.NRGBA{R: 255, A: 100},
		},
	}}
}

func TestEngine_PulsesBetweenColours(t *testing.T) {
	recorder := &glowRecorder{}
	engine := New(fastConfig(), recorder.update)
	defer engine.Stop()

	engine.StartLevel(context.Background(), model.LevelCritical)

	assert.Eventually(t, func() bool {
		colours, _ := recorder.snapshot()
		return len(colours) >= 4
	}, time.Second, 5*time.Millisecond)
	colours, _ := recorder.snapshot()
	assert.Equal(t, uint8(255), colours[0].A)
	assert.Equal(t, uint8(100), colours[1].A)
	assert.Equal(t, model.LevelCritical, engine.Level())
}

func TestEngine_LevelWithoutPulseStops(t *testing.T) {
	recorder := &glowRecorder{}
	engine := New(fastConfig(), recorder.update)

	engine.StartLevel(context.Background(), model.LevelCritical)
	engine.StartLevel(context.Background(), model.LevelFinished)

	_, hidden := recorder.snapshot()
	assert.Equal(t, 1, hidden)
	assert.Equal(t, model.Level(""), engine.Level())

	engine.Stop()
	_, hidden = recorder.snapshot()
	assert.Equal(t, 1, hidden)
}

func TestDefaultConfig_Periods(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 1500*time.Millisecond, config.Pulses[model.LevelWarning].Period)
	assert.Equal(t, time.Second, config.Pulses[model.LevelCritical].Period)
	_, ok := config.Pulses[model.LevelNormal]
	assert.False(t, ok)
}
