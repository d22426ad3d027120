package orbit

import (
	"log/slog"
	"time"
)

// Runner drives ticks in real time. The engine only defines what a tick
// does; the runner decides how often wall-clock time invokes it.
type Runner struct {
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // base tick interval (default 1 second)
	Running  bool

	// OnTick is invoked once per tick. Populated during setup.
	OnTick func()
}

// NewRunner creates a runner at real-time speed.
func NewRunner() *Runner {
	return &Runner{
		Speed:    1.0,
		Interval: time.Second,
	}
}

// Run starts the tick loop. Blocks until Stop() is called.
func (r *Runner) Run() {
	r.Running = true
	slog.Info("orbit clock started", "interval", r.Interval, "speed", r.Speed)

	for r.Running {
		if r.Speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		if r.OnTick != nil {
			r.OnTick()
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / r.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("orbit clock stopped")
}

// Stop halts the tick loop.
func (r *Runner) Stop() {
	r.Running = false
}
