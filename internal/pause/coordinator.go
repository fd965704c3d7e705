// Package pause implements the reentrant temporary pause used while the UI
// needs the simulation held still (menus, window moves, resizes).
package pause

import (
	"log/slog"
	"sync/atomic"

	"github.com/1broseidon/winthread/internal/syncevent"
)

// Machine is the part of the simulation the pause counter drives.
type Machine interface {
	Pause()
	Resume()
	IsPaused() bool
}

// Config wires a Coordinator.
type Config struct {
	Machine Machine
	// Post delivers a pause request to the simulation goroutine. Nil means
	// both roles share one goroutine and remote requests run in place.
	Post   func(pause bool) error
	Logger *slog.Logger
}

// Coordinator owns the pause depth. Depth is only mutated on the simulation
// goroutine; other goroutines observe the paused signal.
type Coordinator struct {
	machine Machine
	post    func(bool) error
	logger  *slog.Logger

	depth            atomic.Int32
	wasAlreadyPaused atomic.Bool
	signal           *syncevent.Event
}

// New creates a Coordinator at depth zero with the signal lowered.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		machine: cfg.Machine,
		post:    cfg.Post,
		logger:  logger,
		signal:  syncevent.New(),
	}
}

// RequestMain nests (pause=true) or unnests (pause=false) a temporary pause.
// Simulation goroutine only.
func (c *Coordinator) RequestMain(pause bool) {
	if pause {
		if c.depth.Add(1) == 1 {
			already := c.machine.IsPaused()
			c.wasAlreadyPaused.Store(already)
			if !already {
				c.machine.Pause()
			}
			c.logger.Debug("temporary pause engaged", "was_already_paused", already)
		}
		c.signal.Set()
		return
	}

	if c.depth.Load() == 0 {
		c.logger.Warn("unbalanced pause release ignored")
		return
	}
	if c.depth.Add(-1) == 0 {
		if !c.wasAlreadyPaused.Load() {
			c.machine.Resume()
		}
		c.logger.Debug("temporary pause released", "was_already_paused", c.wasAlreadyPaused.Load())
		c.signal.Reset()
	}
}

// RequestRemote asks the simulation goroutine for a temporary pause from the
// pump goroutine. A pause request returns only once the machine is paused.
func (c *Coordinator) RequestRemote(pause bool) {
	if c.post == nil {
		c.RequestMain(pause)
		return
	}
	if err := c.post(pause); err != nil {
		c.logger.Warn("temporary pause request not delivered", "pause", pause, "error", err)
		return
	}
	if pause {
		c.signal.Wait()
	}
}

// Depth returns the current nesting depth.
func (c *Coordinator) Depth() int {
	return int(c.depth.Load())
}

// Signalled reports whether a temporary pause is in effect.
func (c *Coordinator) Signalled() bool {
	return c.signal.IsSet()
}

// UIPaused reports whether the machine is paused by something other than the
// temporary pause, i.e. a pause the user asked for.
func (c *Coordinator) UIPaused() bool {
	return c.machine.IsPaused() && c.wasAlreadyPaused.Load()
}
