package upload

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// Config tunes the simulator drivers. Tests shrink the intervals and pin the
// step bounds; the defaults model a UI-speed simulation.
type Config struct {
	// UploadTick is the interval between uploading-phase progress ticks.
	UploadTick time.Duration
	// ProcessingDelay is the hand-off latency between the uploading and
	// processing phases.
	ProcessingDelay time.Duration
	// ProcessingTick is the interval between processing-phase progress ticks.
	ProcessingTick time.Duration
	// MinStep and MaxStep bound the random progress increment per tick.
	MinStep int
	MaxStep int
}

// DefaultConfig returns the simulation parameters used by the dashboard.
func DefaultConfig() Config {
	return Config{
		UploadTick:      150 * time.Millisecond,
		ProcessingDelay: 500 * time.Millisecond,
		ProcessingTick:  250 * time.Millisecond,
		MinStep:         5,
		MaxStep:         20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UploadTick <= 0 {
		c.UploadTick = d.UploadTick
	}
	if c.ProcessingDelay <= 0 {
		c.ProcessingDelay = d.ProcessingDelay
	}
	if c.ProcessingTick <= 0 {
		c.ProcessingTick = d.ProcessingTick
	}
	if c.MinStep <= 0 {
		c.MinStep = d.MinStep
	}
	if c.MaxStep < c.MinStep {
		c.MaxStep = c.MinStep
	}
	return c
}

// runDriver walks one record through uploading, the hand-off delay and
// processing. Each record has exactly one driver; closing stop halts it at
// the next suspension point, and a tick that finds its record gone or moved
// on stops without mutating anything.
func (r *Registry) runDriver(id string, stop chan struct{}) {
	slog.Debug("Upload driver started", "id", id)

	if !r.tickPhase(id, PhaseUploading, r.cfg.UploadTick, stop) {
		return
	}

	// Hand-off latency before processing begins.
	select {
	case <-stop:
		return
	case <-time.After(r.cfg.ProcessingDelay):
	}

	r.tickPhase(id, PhaseProcessing, r.cfg.ProcessingTick, stop)
	slog.Debug("Upload driver finished", "id", id)
}

// tickPhase advances the record on a fixed interval until the phase
// completes. It reports false if the driver was halted instead.
func (r *Registry) tickPhase(id string, phase Phase, interval time.Duration, stop chan struct{}) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return false
		case <-ticker.C:
			done, halted := r.advance(id, phase)
			if halted {
				return false
			}
			if done {
				return true
			}
		}
	}
}

// advance applies one bounded random increment to the record, transitioning
// it when progress reaches 100. Progress resets to 0 exactly once, at the
// uploading to processing transition; ready is reached at 100.
func (r *Registry) advance(id string, phase Phase) (done, halted bool) {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok || rec.Phase != phase {
		// Removed, failed, or already past this phase.
		r.mu.Unlock()
		return false, true
	}

	step := r.cfg.MinStep
	if r.cfg.MaxStep > r.cfg.MinStep {
		step += rand.IntN(r.cfg.MaxStep - r.cfg.MinStep + 1)
	}
	rec.Progress += step

	if rec.Progress >= 100 {
		switch phase {
		case PhaseUploading:
			rec.Phase = PhaseProcessing
			rec.Progress = 0
		case PhaseProcessing:
			rec.Phase = PhaseReady
			rec.Progress = 100
		}
		done = true
	}
	r.mu.Unlock()

	r.publish(id)
	return done, false
}
