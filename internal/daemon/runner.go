package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/winthread/internal/window"
)

// Simulation is what the runner advances every tick.
type Simulation interface {
	// Step advances one tick and reports whether anything changed.
	Step() bool
	// Done is closed once the simulation wants to exit.
	Done() <-chan struct{}
}

// Presenter hands frames to the windows and services the coordinator
// mailbox. *osd.Coordinator implements it.
type Presenter interface {
	UpdateWindow(h window.Handle) error
	PumpEvents(force bool)
	PumpEventsPeriodic()
	Registry() *window.Registry
}

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Runner drives the simulation loop on the calling goroutine.
type Runner struct {
	interval time.Duration
	sim      Simulation
	pres     Presenter
	logger   *slog.Logger

	ticks  uint64
	panics uint64
}

// NewRunner creates a runner. Interval defaults to 60Hz.
func NewRunner(cfg RunnerConfig, sim Simulation, pres Presenter) *Runner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second / 60
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		interval: interval,
		sim:      sim,
		pres:     pres,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled or the simulation exits. It must run on
// the goroutine that started the coordinator.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("runner started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped", "reason", ctx.Err(), "ticks", r.ticks)
			return
		case <-r.sim.Done():
			// Drain what is already queued.
			r.pres.PumpEvents(true)
			r.logger.Info("runner stopped", "reason", "simulation exit", "ticks", r.ticks)
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick performs a single simulation pass.
func (r *Runner) tick() {
	// Recover from panics to keep the loop alive
	defer func() {
		if err := recover(); err != nil {
			r.panics++
			r.logger.Error("simulation panic recovered", "error", err, "tick", r.ticks)
		}
	}()

	r.ticks++
	advanced := r.sim.Step()

	for _, w := range r.pres.Registry().Windows() {
		if err := r.pres.UpdateWindow(w.Handle()); err != nil {
			r.logger.Warn("window update failed", "window", w.Handle(), "error", err)
		}
	}

	// A paused scene has nothing new to show, so poll at the slower rate.
	if advanced {
		r.pres.PumpEvents(false)
	} else {
		r.pres.PumpEventsPeriodic()
	}
}

// TickNow runs one pass immediately.
func (r *Runner) TickNow() {
	r.tick()
}

// Panics is the number of passes that panicked.
func (r *Runner) Panics() uint64 {
	return r.panics
}
