// Package animation drives the overlay glow for urgent countdown levels.
package animation

import (
	"context"
	"image/color"
	"sync"
	"time"

	"meetingtimer/internal/core/model"
)

// Config contains the pulse for each level. Levels without an entry do not glow.
type Config struct {
	Pulses map[model.Level]PulseSpec
}

// Engine runs at most one pulse at a time.
type Engine struct {
	mu         sync.Mutex
	config     Config
	updateGlow func(color.NRGBA, bool)
	cancel     context.CancelFunc
	level      model.Level
	generation uint64
}

// New creates a new animation engine. updateGlow receives the border colour
// and whether the glow is visible; it is called with the engine lock held and
// must not call back into the engine.
func New(config Config, updateGlow func(glow color.NRGBA, visible bool)) *Engine {
	return &Engine{
		config:     config,
		updateGlow: updateGlow,
	}
}

// StartLevel switches the glow to level. Starting the level that is already
// running keeps the current pulse phase.
func (engine *Engine) StartLevel(ctx context.Context, level model.Level) {
	spec, ok := engine.config.Pulses[level]
	if !ok || !spec.Valid() {
		engine.Stop()
		return
	}

	engine.mu.Lock()
	if engine.cancel != nil && engine.level == level {
		engine.mu.Unlock()
		return
	}
	engine.level = level
	engine.mu.Unlock()

	engine.start(ctx, func(runCtx context.Context, generation uint64) {
		half := spec.Period / 2
		for {
			if !engine.emit(generation, spec.Bright) || !sleepWithContext(runCtx, half) {
				return
			}
			if !engine.emit(generation, spec.Dim) || !sleepWithContext(runCtx, half) {
				return
			}
		}
	})
}

// Level returns the level currently pulsing, empty when idle.
func (engine *Engine) Level() model.Level {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel == nil {
		return ""
	}
	return engine.level
}

// Stop terminates any active animation and hides the glow.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel == nil {
		return
	}
	engine.cancel()
	engine.cancel = nil
	engine.generation++
	engine.level = ""
	engine.updateGlow(color.NRGBA{}, false)
}

// emit forwards a frame unless a newer animation superseded generation.
func (engine *Engine) emit(generation uint64, glow color.NRGBA) bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if generation != engine.generation {
		return false
	}
	engine.updateGlow(glow, true)
	return true
}

func (engine *Engine) start(parent context.Context, run func(context.Context, uint64)) {
	engine.mu.Lock()
	if engine.cancel != nil {
		engine.cancel()
	}
	engine.generation++
	generation := engine.generation
	runCtx, cancel := context.WithCancel(parent)
	engine.cancel = cancel
	engine.mu.Unlock()

	go run(runCtx, generation)
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
