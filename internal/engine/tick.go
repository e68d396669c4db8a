// Package engine provides the tick-based simulation loop: a paced clock that
// advances the actor world one discrete step at a time, and the per-tick
// decision procedure each actor runs.
package engine

import (
	"log/slog"
	"time"
)

// Engine drives the simulation forward in real time. It owns pacing and
// autosave cadence; the tick counter itself lives on the Simulation so that
// stepping works identically from the shell, the API, and this loop.
type Engine struct {
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 1 second)
	Running  bool

	// OnTick advances the simulation one step and returns the new tick
	// number. Populated during setup.
	OnTick func() uint64

	// OnAutosave fires every AutosaveEvery ticks, after the step.
	OnAutosave    func(tick uint64)
	AutosaveEvery uint64
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:         1.0,
		Interval:      time.Second,
		AutosaveEvery: 60,
	}
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "speed", e.Speed, "interval", e.Interval)

	for e.Running {
		if e.Speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		var tick uint64
		if e.OnTick != nil {
			tick = e.OnTick()
		}
		if e.AutosaveEvery > 0 && tick > 0 && tick%e.AutosaveEvery == 0 && e.OnAutosave != nil {
			e.OnAutosave(tick)
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped")
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.Running = false
}
