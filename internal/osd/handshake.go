package osd

import (
	"fmt"

	"github.com/1broseidon/winthread/internal/mailbox"
	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/window"
)

// CreateWindow registers a Pending window and has the pump build its surface.
// It returns once the window is Ready, or ErrWindowCreationFailed.
// Simulation goroutine only.
func (c *Coordinator) CreateWindow(opts window.Options) (window.Handle, error) {
	if c.State() != StateRunning {
		return window.Handle{}, fmt.Errorf("%w: create window while %s", ErrInvalidState, c.State())
	}
	opts = c.withDefaults(opts)

	index := c.nextIndex
	c.nextIndex++
	var target render.Target
	if c.cfg.NewTarget != nil {
		target = c.cfg.NewTarget(index)
	}
	w := window.New(index, opts, target)
	h := c.registry.Add(w)
	c.tlog.Add(threadSim, "create window: begin")

	if c.dual {
		c.pumpReady.Wait()
		if err := c.toPump(FinishCreateWindow{Window: w}); err != nil {
			w.CompleteInit(window.InitFailed, err)
		}
		c.await(w.InitDone())
	} else {
		c.finishCreate(w)
	}
	c.tlog.Add(threadSim, "create window: end")

	if w.InitState() != window.InitReady {
		cause := w.InitErr()
		if err := c.DestroyWindow(h); err != nil {
			c.logger.Warn("failed to tear down window after failed create", "window", h, "error", err)
		}
		return window.Handle{}, fmt.Errorf("%w: %w", ErrWindowCreationFailed, cause)
	}

	c.logger.Info("window created",
		"window", h,
		"index", index,
		"monitor", opts.Monitor.Name,
		"fullscreen", w.Fullscreen(),
		"fullscreen_safe", w.FullscreenSafe(),
	)
	return h, nil
}

// DestroyWindow unregisters the window, has the pump destroy its surface and
// releases the render target. Simulation goroutine only.
func (c *Coordinator) DestroyWindow(h window.Handle) error {
	if !c.running() {
		return fmt.Errorf("%w: destroy window while %s", ErrInvalidState, c.State())
	}
	w, ok := c.registry.Remove(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, h)
	}
	c.tlog.Add(threadSim, "destroy window")

	var err error
	if w.Surface() != 0 {
		r := newReply()
		err = c.sendAndWait(SelfTerminate{Window: w, reply: r}, r)
		if err != nil {
			err = fmt.Errorf("destroy window %s: %w", h, err)
		}
	}
	w.ReleaseTarget()
	c.logger.Debug("window destroyed", "window", h)
	return err
}

func (c *Coordinator) withDefaults(opts window.Options) window.Options {
	if opts.Monitor.Bounds.Empty() {
		if c.cfg.Monitors != nil {
			opts.Monitor = c.cfg.Monitors.Primary()
		}
		if opts.Monitor.Bounds.Empty() {
			opts.Monitor.Bounds = platform.Rect{Width: window.DefaultWidth, Height: window.DefaultHeight}
		}
	}
	if opts.Monitor.Usable.Empty() {
		opts.Monitor.Usable = opts.Monitor.Bounds
	}
	return opts
}

// finishCreate builds the surface and renderer. Pump role.
func (c *Coordinator) finishCreate(w *window.Window) {
	c.tlog.Add(threadPump, "finish create")
	err := c.buildSurface(w)
	state := window.InitReady
	if err != nil {
		state = window.InitFailed
		c.logger.Error("window creation failed", "index", w.Index(), "error", err)
	}
	w.CompleteInit(state, err)
}

func (c *Coordinator) buildSurface(w *window.Window) error {
	ws := c.cfg.Windows
	opts := w.Options()
	mon := opts.Monitor.Bounds

	width, height := window.DefaultWidth, window.DefaultHeight
	if opts.MaxWidth > 0 {
		width = opts.MaxWidth
	}
	if opts.MaxHeight > 0 {
		height = opts.MaxHeight
	}

	id, err := ws.CreateSurface(platform.SurfaceOptions{
		Title:      opts.Title,
		Bounds:     platform.Rect{X: mon.X + 20, Y: mon.Y + 20, Width: width, Height: height},
		Fullscreen: w.Fullscreen(),
	})
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	w.SetSurface(id)
	w.SetClientSize(width, height)

	if opts.Maximize {
		c.maximize(w)
	} else {
		c.minimize(w)
	}
	c.adjustAfterMajorChange(w)

	if !w.Fullscreen() || w.FullscreenSafe() {
		r := c.cfg.Backend.NewRenderer(w)
		if err := r.Create(); err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		w.SetRenderer(r)
		if err := ws.Show(id); err != nil {
			return fmt.Errorf("show surface: %w", err)
		}
	}

	if err := ws.Fill(id, render.Background); err != nil {
		c.logger.Debug("initial fill failed", "surface", id, "error", err)
	}
	return nil
}

// toPump delivers msg to the pump role. In single-thread mode the caller is
// the pump, so the message is dispatched in place.
func (c *Coordinator) toPump(msg mailbox.Message) error {
	if !c.dual {
		c.dispatch(msg)
		return nil
	}
	if err := c.pumpBox.Post(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrPumpStopped, err)
	}
	return nil
}

// toSim delivers msg to the simulation role.
func (c *Coordinator) toSim(msg mailbox.Message) error {
	if !c.dual {
		c.dispatch(msg)
		return nil
	}
	return c.simBox.Post(msg)
}

// sendAndWait delivers msg to the pump and waits for r, servicing the
// simulation mailbox meanwhile.
func (c *Coordinator) sendAndWait(msg mailbox.Message, r reply) error {
	if err := c.toPump(msg); err != nil {
		return err
	}
	if !c.dual {
		return <-r
	}
	for {
		select {
		case err := <-r:
			return err
		case <-c.simBox.Notify():
			c.drainSim()
		}
	}
}

// await blocks until done is closed while servicing the simulation mailbox.
func (c *Coordinator) await(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-c.simBox.Notify():
			c.drainSim()
		}
	}
}

func (c *Coordinator) drainSim() {
	for {
		msg, ok := c.simBox.TryReceive()
		if !ok {
			return
		}
		c.dispatch(msg)
	}
}
