package osd

import (
	"errors"
	"fmt"

	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/window"
)

// UpdateWindow hands the latest frame to the pump unless the pump is still
// busy with the previous one. A skipped frame is not retried; the next call
// is the retry. Simulation goroutine only.
func (c *Coordinator) UpdateWindow(h window.Handle) error {
	w, ok := c.registry.Get(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, h)
	}

	t := w.Target()
	if t != nil && w.TargetChanged(t.View(), t.Orientation(), t.LayerConfig()) && !w.Fullscreen() {
		minimized, maximized := w.MinMax()
		if minimized {
			r := newReply()
			if err := c.sendAndWait(SetMinSize{Window: w, reply: r}, r); err != nil {
				return err
			}
		}
		if maximized {
			r := newReply()
			if err := c.sendAndWait(SetMaxSize{Window: w, reply: r}, r); err != nil {
				return err
			}
		}
	}

	renderer := w.Renderer()
	if w.Surface() == 0 || t == nil || renderer == nil {
		return nil
	}

	c.tlog.Add(threadSim, "update: try lock")
	lock := w.Lock()
	if !lock.AcquireFor(c.throttle.Load(), w.LastUpdate(), c.now()) {
		c.framesSkipped.Add(1)
		c.tlog.Add(threadSim, "update: skipped")
		return nil
	}
	// The lock only tells us whether the pump is still drawing.
	lock.Release()

	list := renderer.Primitives()
	w.MarkUpdated(c.now())
	c.framesQueued.Add(1)
	c.tlog.Add(threadSim, "update: redraw posted")
	return c.toPump(Redraw{Window: w, Primitives: list})
}

// SetFullscreen switches one window and waits for the pump to finish.
// Simulation goroutine only.
func (c *Coordinator) SetFullscreen(h window.Handle, on bool) error {
	w, ok := c.registry.Get(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, h)
	}
	r := newReply()
	return c.sendAndWait(SetFullscreen{Window: w, Fullscreen: on, reply: r}, r)
}

// ToggleFullScreen flips every window relative to the primary window's state
// and focuses the primary afterwards. Simulation goroutine only.
func (c *Coordinator) ToggleFullScreen() (bool, error) {
	primary, ok := c.registry.Primary()
	if !ok {
		return false, fmt.Errorf("%w: no windows", ErrUnknownWindow)
	}
	want := !primary.Fullscreen()

	var errs []error
	for _, w := range c.registry.Windows() {
		if err := c.SetFullscreen(w.Handle(), want); err != nil {
			errs = append(errs, err)
		}
	}
	if id := primary.Surface(); id != 0 {
		if err := c.cfg.Windows.Focus(id); err != nil {
			c.logger.Debug("focus primary window failed", "error", err)
		}
	}
	return want, errors.Join(errs...)
}

// TakeSnapshot asks every window's renderer to save its current frame and
// returns the written paths. Simulation goroutine only.
func (c *Coordinator) TakeSnapshot() ([]string, error) {
	var (
		paths []string
		errs  []error
	)
	c.eachRenderer(func(w *window.Window, r render.Renderer) {
		path, err := r.Save()
		if err != nil {
			errs = append(errs, fmt.Errorf("window %s: %w", w.Handle(), err))
			return
		}
		paths = append(paths, path)
	})
	return paths, errors.Join(errs...)
}

// ToggleRecording starts or stops recording on every window and reports the
// primary window's recording state. Simulation goroutine only.
func (c *Coordinator) ToggleRecording() (bool, error) {
	var (
		recording bool
		first     = true
		errs      []error
	)
	c.eachRenderer(func(w *window.Window, r render.Renderer) {
		on, err := r.Record()
		if err != nil {
			errs = append(errs, fmt.Errorf("window %s: %w", w.Handle(), err))
			return
		}
		if first {
			recording, first = on, false
		}
	})
	return recording, errors.Join(errs...)
}

// ToggleFX toggles the post-processing effect on every window and reports
// the primary window's state. Simulation goroutine only.
func (c *Coordinator) ToggleFX() bool {
	var (
		on    bool
		first = true
	)
	c.eachRenderer(func(_ *window.Window, r render.Renderer) {
		v := r.ToggleFX()
		if first {
			on, first = v, false
		}
	})
	return on
}

// eachRenderer calls fn for every window with a live renderer, holding the
// window's render lock so the pump is not drawing meanwhile.
func (c *Coordinator) eachRenderer(fn func(*window.Window, render.Renderer)) {
	for _, w := range c.registry.Windows() {
		lock := w.Lock()
		lock.Acquire()
		if r := w.Renderer(); r != nil {
			fn(w, r)
		}
		lock.Release()
	}
}

// HasFocus reports whether one of our surfaces has input focus.
func (c *Coordinator) HasFocus() bool {
	focused := c.cfg.Windows.FocusedSurface()
	if focused == 0 {
		return false
	}
	_, ok := c.registry.BySurface(focused)
	return ok
}

// updateCursorState hides the cursor while we have focus and are either
// fullscreen or running with an input device that wants it hidden.
func (c *Coordinator) updateCursorState() {
	hide := false
	if c.HasFocus() {
		primary, ok := c.registry.Primary()
		fullscreen := ok && primary.Fullscreen()
		wants := c.cfg.Input != nil && c.cfg.Input.ShouldHideMouse()
		hide = fullscreen || (!c.cfg.Machine.IsPaused() && wants)
	}
	if hide == c.cursorHidden {
		return
	}
	if err := c.cfg.Windows.SetCursorVisible(!hide); err != nil {
		c.logger.Debug("cursor visibility change failed", "hide", hide, "error", err)
		return
	}
	c.cursorHidden = hide
}

// RequestPause nests (true) or unnests (false) a temporary pause.
// Simulation goroutine only.
func (c *Coordinator) RequestPause(pause bool) {
	c.tlog.Add(threadSim, fmt.Sprintf("ui pause %t", pause))
	c.pause.RequestMain(pause)
}

// RequestPauseRemote is RequestPause for the pump goroutine. Pausing blocks
// until the simulation has actually paused.
func (c *Coordinator) RequestPauseRemote(pause bool) {
	c.tlog.Add(threadPump, fmt.Sprintf("ui pause %t", pause))
	c.pause.RequestRemote(pause)
}

// UIPaused reports whether a temporary pause is in effect on top of a pause
// the user already owned.
func (c *Coordinator) UIPaused() bool {
	return c.pause.UIPaused()
}

// PauseDepth is the current temporary pause nesting.
func (c *Coordinator) PauseDepth() int {
	return c.pause.Depth()
}

// ExecOnSimulation runs fn(arg) on the simulation goroutine. Called from the
// pump it never blocks.
func (c *Coordinator) ExecOnSimulation(fn func(arg any), arg any) {
	if err := c.toSim(ExecFunc{Fn: fn, Arg: arg}); err != nil {
		c.logger.Warn("dropped simulation function", "error", err)
	}
}

// Submit queues fn to run on the simulation goroutine during its next pump
// pass. Safe from any goroutine.
func (c *Coordinator) Submit(fn func()) error {
	return c.simBox.Post(ExecFunc{Fn: func(any) { fn() }})
}

// RequestExit asks the simulation to exit. Safe from any goroutine, and it
// wakes a PumpEvents call blocked on a temporary pause.
func (c *Coordinator) RequestExit() error {
	return c.simBox.Post(Quit{})
}

// ToggleMenuLoop enters or leaves a menu loop on the primary window, which
// holds a temporary pause while active. Pump role.
func (c *Coordinator) ToggleMenuLoop() {
	primary, ok := c.registry.Primary()
	if !ok || primary.Surface() == 0 {
		return
	}
	kind := platform.EventEnterMenuLoop
	if c.menuActive {
		kind = platform.EventExitMenuLoop
	}
	c.menuActive = !c.menuActive
	c.windowProc(primary, platform.Event{Kind: kind, Surface: primary.Surface(), Time: c.now()})
}
