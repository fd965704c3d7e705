// Package osd coordinates window presentation between the simulation
// goroutine and a dedicated pump goroutine that owns the platform event
// stream and every surface.
package osd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/1broseidon/winthread/internal/mailbox"
	"github.com/1broseidon/winthread/internal/pause"
	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/syncevent"
	"github.com/1broseidon/winthread/internal/threadlog"
	"github.com/1broseidon/winthread/internal/window"
)

// PeriodicInterval is the minimum spacing of PumpEventsPeriodic passes.
const PeriodicInterval = 125 * time.Millisecond

const (
	threadSim  = "sim"
	threadPump = "pump"
)

// State is the coordinator lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// HotkeyDispatcher runs the action bound to a named hotkey on the pump
// goroutine.
type HotkeyDispatcher interface {
	Dispatch(name string) bool
}

// Config wires a Coordinator to its collaborators.
type Config struct {
	// Multithreading selects dual-thread mode.
	Multithreading bool
	// Throttle makes every frame update wait for the render lock.
	Throttle bool

	Windows  platform.WindowSystem
	Monitors platform.MonitorProvider
	Input    platform.Input
	Machine  platform.Machine
	Backend  render.Backend
	Hotkeys  HotkeyDispatcher

	// NewTarget allocates the render target for the window at index.
	NewTarget func(index int) render.Target

	Logger      *slog.Logger
	Diagnostics bool
	ThreadLog   *threadlog.Log

	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Stats are frame counters since Start.
type Stats struct {
	FramesQueued  uint64
	FramesSkipped uint64
	FramesDrawn   uint64
}

// Coordinator owns thread roles, the window registry and the pause counter.
// Create exactly one per process.
type Coordinator struct {
	cfg    Config
	logger *slog.Logger
	tlog   *threadlog.Log
	now    func() time.Time

	state    atomic.Int32
	dual     bool
	throttle atomic.Bool
	quitting atomic.Bool

	simBox    *mailbox.Mailbox
	pumpBox   *mailbox.Mailbox
	pumpReady *syncevent.Event
	pumpDone  chan struct{}
	simNice   int
	niceKnown bool

	registry *window.Registry
	pause    *pause.Coordinator

	// simulation goroutine only
	nextIndex      int
	lastEventCheck time.Time
	cursorHidden   bool

	// pump goroutine only
	menuActive bool

	framesQueued  atomic.Uint64
	framesSkipped atomic.Uint64
	framesDrawn   atomic.Uint64
}

// New validates cfg and builds an Uninitialized coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Windows == nil {
		return nil, fmt.Errorf("window system is required")
	}
	if cfg.Machine == nil {
		return nil, fmt.Errorf("machine is required")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("render backend is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := &Coordinator{
		cfg:       cfg,
		logger:    logger,
		tlog:      cfg.ThreadLog,
		now:       now,
		dual:      cfg.Multithreading,
		simBox:    mailbox.New(threadSim),
		pumpReady: syncevent.New(),
		pumpDone:  make(chan struct{}),
		registry:  window.NewRegistry(),
	}
	c.throttle.Store(cfg.Throttle)

	// One mailbox serves both roles in single-thread mode.
	c.pumpBox = c.simBox
	var post func(bool) error
	if c.dual {
		c.pumpBox = mailbox.New(threadPump)
		post = func(p bool) error {
			return c.simBox.Post(UITempPause{Pause: p})
		}
	}
	c.pause = pause.New(pause.Config{
		Machine: cfg.Machine,
		Post:    post,
		Logger:  logger,
	})
	return c, nil
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Multithreaded reports whether a separate pump goroutine is used.
func (c *Coordinator) Multithreaded() bool {
	return c.dual
}

// Registry exposes the window registry for read-only inspection.
func (c *Coordinator) Registry() *window.Registry {
	return c.registry
}

// SetThrottle changes the frame update policy at runtime.
func (c *Coordinator) SetThrottle(on bool) {
	c.throttle.Store(on)
}

// Throttled reports the frame update policy.
func (c *Coordinator) Throttled() bool {
	return c.throttle.Load()
}

// Stats returns the frame counters.
func (c *Coordinator) Stats() Stats {
	return Stats{
		FramesQueued:  c.framesQueued.Load(),
		FramesSkipped: c.framesSkipped.Load(),
		FramesDrawn:   c.framesDrawn.Load(),
	}
}

// Start records the calling goroutine as the simulation thread and, in
// dual-thread mode, spawns the pump and waits until it is alive.
func (c *Coordinator) Start() error {
	if c.State() != StateUninitialized {
		return fmt.Errorf("%w: start while %s", ErrInvalidState, c.State())
	}

	if nice, err := threadNice(); err != nil {
		c.logger.Debug("thread priority unavailable", "error", err)
	} else {
		c.simNice, c.niceKnown = nice, true
	}

	if c.dual {
		started := make(chan error, 1)
		go c.runPump(started)
		if err := <-started; err != nil {
			c.state.Store(int32(StateTerminated))
			return &FatalStartupError{Err: err}
		}
		c.pumpReady.Wait()
	} else {
		if err := c.cfg.Windows.Start(c.postOSEvent); err != nil {
			c.state.Store(int32(StateTerminated))
			return &FatalStartupError{Err: err}
		}
		c.pumpReady.Set()
	}

	c.state.Store(int32(StateRunning))
	c.tlog.Add(threadSim, "coordinator running")
	c.logger.Info("window coordinator started", "multithreading", c.dual, "backend", c.cfg.Backend.Name())
	return nil
}

func (c *Coordinator) runPump(started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.pumpDone)

	if c.niceKnown {
		if err := setThreadNice(c.simNice); err != nil {
			c.logger.Debug("failed to match simulation thread priority", "nice", c.simNice, "error", err)
		}
	}

	if err := c.cfg.Windows.Start(c.postOSEvent); err != nil {
		started <- err
		return
	}
	c.tlog.Add(threadPump, "pump alive")
	c.pumpReady.Set()
	started <- nil

	for {
		msg, err := c.pumpBox.Receive(context.Background())
		if err != nil {
			break
		}
		if c.dispatch(msg) {
			break
		}
	}

	c.pumpBox.Close()
	c.rejectPending()
	c.cfg.Windows.Stop()
	c.tlog.Add(threadPump, "pump exited")
}

// rejectPending fails every request still queued when the pump loop exits.
// The mailbox is closed first, so nothing can be queued behind the drain.
func (c *Coordinator) rejectPending() {
	for {
		msg, ok := c.pumpBox.TryReceive()
		if !ok {
			return
		}
		switch m := msg.(type) {
		case FinishCreateWindow:
			m.Window.CompleteInit(window.InitFailed, ErrPumpStopped)
		case SelfTerminate:
			m.reply.done(ErrPumpStopped)
		case SetFullscreen:
			m.reply.done(ErrPumpStopped)
		case SetMinSize:
			m.reply.done(ErrPumpStopped)
		case SetMaxSize:
			m.reply.done(ErrPumpStopped)
		}
	}
}

// Shutdown destroys every window, exits the render backend, stops the pump
// and restores the cursor.
func (c *Coordinator) Shutdown() error {
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		return fmt.Errorf("%w: shutdown while %s", ErrInvalidState, c.State())
	}
	c.tlog.Add(threadSim, "shutdown begin")

	var errs []error
	for _, w := range c.registry.Windows() {
		if err := c.DestroyWindow(w.Handle()); err != nil {
			errs = append(errs, err)
		}
	}
	c.cfg.Backend.Exit()

	if c.dual {
		// ErrClosed means the pump already left its loop.
		if err := c.pumpBox.Post(SelfTerminate{}); err != nil && !errors.Is(err, mailbox.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to stop pump: %w", err))
		}
		<-c.pumpDone
	} else {
		c.cfg.Windows.Stop()
	}
	c.simBox.Close()
	c.pumpBox.Close()

	if err := c.cfg.Windows.SetCursorVisible(true); err != nil {
		c.logger.Warn("failed to restore cursor", "error", err)
	}
	c.cursorHidden = false

	c.state.Store(int32(StateTerminated))
	c.tlog.Add(threadSim, "terminated")
	c.tlog.Dump(c.logger)
	c.logger.Info("window coordinator stopped")
	return errors.Join(errs...)
}

// postOSEvent is handed to the platform event source. It may run on any
// goroutine.
func (c *Coordinator) postOSEvent(ev platform.Event) {
	if ev.Time.IsZero() {
		ev.Time = c.now()
	}
	if err := c.pumpBox.Post(OSEvent{Event: ev}); err != nil && c.cfg.Diagnostics {
		c.logger.Debug("dropped os event after shutdown", "kind", ev.Kind)
	}
}

func (c *Coordinator) running() bool {
	s := c.State()
	return s == StateRunning || s == StateShuttingDown
}
