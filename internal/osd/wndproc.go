package osd

import (
	"fmt"

	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/window"
)

// windowProc handles an OS event addressed to one of our surfaces. Pump role.
func (c *Coordinator) windowProc(w *window.Window, ev platform.Event) {
	ui, _ := c.cfg.Input.(platform.UIInput)
	id := w.Surface()

	switch ev.Kind {
	case platform.EventExpose:
		c.drawFrame(w, true)

	case platform.EventConfigure:
		w.SetClientSize(ev.Bounds.Width, ev.Bounds.Height)
		c.updateMinMaxState(w, ev.Bounds)

	case platform.EventSysKeyDown, platform.EventSysKeyUp:

	case platform.EventMouseMove:
		if ui != nil {
			ui.MouseMove(id, ev.X, ev.Y)
		}
	case platform.EventMouseLeave:
		if ui != nil {
			ui.MouseLeave(id)
		}
	case platform.EventChar:
		if ui != nil {
			ui.Char(id, ev.Rune)
		}

	case platform.EventButtonDown:
		if ev.Button != 0 {
			c.unhandled(Unhandled{Event: ev})
			return
		}
		double := w.Click(ev.Time, ev.X, ev.Y)
		if ui != nil {
			ui.MouseDown(id, ev.X, ev.Y)
			if double {
				ui.DoubleClick(id, ev.X, ev.Y)
			}
		}
	case platform.EventButtonUp:
		if ev.Button != 0 {
			c.unhandled(Unhandled{Event: ev})
			return
		}
		if ui != nil {
			ui.MouseUp(id, ev.X, ev.Y)
		}

	case platform.EventEnterSizeMove:
		w.SetResizeState(window.ResizeResizing)
		c.RequestPauseRemote(true)
	case platform.EventEnterMenuLoop:
		c.RequestPauseRemote(true)

	case platform.EventExitSizeMove:
		w.SetResizeState(window.ResizePendingRedraw)
		c.trackMonitor(w)
		c.RequestPauseRemote(false)
		c.drawFrame(w, true)
	case platform.EventExitMenuLoop:
		c.RequestPauseRemote(false)
		c.drawFrame(w, true)

	case platform.EventClose:
		c.requestClose()

	case platform.EventDestroyed:
		if r := w.Renderer(); r != nil {
			r.Destroy()
			w.SetRenderer(nil)
		}
		w.SetSurface(0)

	default:
		c.unhandled(Unhandled{Event: ev})
	}
}

// drawFrame presents the window's current primitives, or the background when
// there are none yet. Pump role.
func (c *Coordinator) drawFrame(w *window.Window, full bool) {
	lock := w.Lock()
	lock.Acquire()
	defer lock.Release()

	id := w.Surface()
	if id == 0 || c.cfg.Windows.Iconic(id) {
		return
	}

	r := w.Renderer()
	if w.CurrentPrimitives() == nil || r == nil {
		if err := c.cfg.Windows.Fill(id, render.Background); err != nil {
			c.logger.Debug("background fill failed", "surface", id, "error", err)
		}
	} else if err := r.Draw(id, full); err != nil {
		c.logger.Debug("draw failed", "surface", id, "error", err)
	}
	c.framesDrawn.Add(1)

	if full && w.ResizeState() == window.ResizePendingRedraw {
		w.SetResizeState(window.ResizeIdle)
	}
}

// destroySurface tears down one window's surface and runs the destroy
// notification through the window procedure. Pump role.
func (c *Coordinator) destroySurface(w *window.Window) error {
	id := w.Surface()
	if id == 0 {
		return nil
	}
	if err := c.cfg.Windows.DestroySurface(id); err != nil {
		return fmt.Errorf("destroy surface %d: %w", id, err)
	}
	c.windowProc(w, platform.Event{Kind: platform.EventDestroyed, Surface: id, Time: c.now()})
	return nil
}

// setFullscreen switches style and geometry and recreates the renderer.
// Pump role.
func (c *Coordinator) setFullscreen(w *window.Window, on bool) error {
	if w.Fullscreen() == on {
		return nil
	}
	ws := c.cfg.Windows
	id := w.Surface()
	if id == 0 {
		return fmt.Errorf("%w: window %s has no surface", ErrUnknownWindow, w.Handle())
	}
	w.SetFullscreenFlag(on)

	if r := w.Renderer(); r != nil {
		r.Destroy()
		w.SetRenderer(nil)
	}
	c.warn(ws.Hide(id), "hide failed", id)

	if !on {
		c.warn(ws.SetFullscreenState(id, false), "leave fullscreen failed", id)
		if b := w.NonFullscreenBounds(); !b.Empty() {
			c.moveResize(w, b)
		} else {
			c.moveResize(w, platform.Rect{Width: window.MinDim, Height: window.MinDim})
			c.maximize(w)
		}
	} else {
		if b, err := ws.Bounds(id); err == nil {
			w.SetNonFullscreenBounds(b)
		}
		c.warn(ws.SetFullscreenState(id, true), "enter fullscreen failed", id)
	}
	c.adjustAfterMajorChange(w)

	var err error
	if !on || w.FullscreenSafe() {
		c.warn(ws.Show(id), "show failed", id)
		r := c.cfg.Backend.NewRenderer(w)
		if cerr := r.Create(); cerr != nil {
			c.logger.Error("renderer recreation failed, drawing background only",
				"window", w.Handle(), "fullscreen", on, "error", cerr)
			err = fmt.Errorf("%w: %w", ErrRendererCreationFailed, cerr)
		} else {
			w.SetRenderer(r)
		}
	}
	c.adjustAfterMajorChange(w)

	c.logger.Debug("fullscreen changed", "window", w.Handle(), "fullscreen", on)
	return err
}

// minimize resizes to the minimum bounds. Pump role.
func (c *Coordinator) minimize(w *window.Window) {
	c.moveResize(w, c.minBounds(w))
}

// maximize resizes to the maximum bounds. Pump role.
func (c *Coordinator) maximize(w *window.Window) {
	c.moveResize(w, c.maxBounds(w))
}

func (c *Coordinator) adjustAfterMajorChange(w *window.Window) {
	if !w.Fullscreen() {
		return
	}
	mon := w.Monitor().Bounds
	if cur, err := c.cfg.Windows.Bounds(w.Surface()); err == nil && cur == mon {
		return
	}
	c.moveResize(w, mon)
}

// trackMonitor moves w to the display that now holds it after the user
// dragged it, so later maximize uses that work area.
func (c *Coordinator) trackMonitor(w *window.Window) {
	if c.cfg.Monitors == nil || w.Fullscreen() {
		return
	}
	cur, err := c.cfg.Windows.Bounds(w.Surface())
	if err != nil {
		return
	}
	mon := c.cfg.Monitors.MonitorFor(cur)
	if mon.Bounds.Empty() || mon.ID == w.Monitor().ID {
		return
	}
	if mon.Usable.Empty() {
		mon.Usable = mon.Bounds
	}
	w.SetMonitor(mon)
	c.logger.Debug("window changed monitor", "window", w.Handle(), "monitor", mon.Name)
}

func (c *Coordinator) moveResize(w *window.Window, b platform.Rect) {
	id := w.Surface()
	if err := c.cfg.Windows.MoveResize(id, b); err != nil {
		c.logger.Debug("move/resize failed", "surface", id, "error", err)
		return
	}
	w.SetClientSize(b.Width, b.Height)
	c.updateMinMaxState(w, b)
}

func (c *Coordinator) updateMinMaxState(w *window.Window, cur platform.Rect) {
	if w.Fullscreen() {
		w.SetMinMax(false, true)
		return
	}
	minB, maxB := c.minBounds(w), c.maxBounds(w)
	w.SetMinMax(
		cur.Width == minB.Width && cur.Height == minB.Height,
		cur.Width == maxB.Width && cur.Height == maxB.Height,
	)
}

// minBounds keeps the current origin and shrinks to the target minimum,
// never below MinDim.
func (c *Coordinator) minBounds(w *window.Window) platform.Rect {
	cur, err := c.cfg.Windows.Bounds(w.Surface())
	if err != nil {
		cur = w.Monitor().Usable
	}
	width, height := window.MinDim, window.MinDim
	if t := w.Target(); t != nil {
		tw, th := t.MinSize()
		width, height = max(width, tw), max(height, th)
	}
	return platform.Rect{X: cur.X, Y: cur.Y, Width: width, Height: height}
}

// maxBounds is the monitor work area clamped by the configured maximum size
// and centered.
func (c *Coordinator) maxBounds(w *window.Window) platform.Rect {
	area := w.Monitor().Usable
	if area.Empty() {
		area = w.Monitor().Bounds
	}
	opts := w.Options()
	width, height := area.Width, area.Height
	if opts.MaxWidth > 0 && opts.MaxWidth < width {
		width = opts.MaxWidth
	}
	if opts.MaxHeight > 0 && opts.MaxHeight < height {
		height = opts.MaxHeight
	}
	width, height = max(width, window.MinDim), max(height, window.MinDim)
	return platform.Rect{
		X:      area.X + (area.Width-width)/2,
		Y:      area.Y + (area.Height-height)/2,
		Width:  width,
		Height: height,
	}
}

func (c *Coordinator) warn(err error, msg string, id platform.SurfaceID) {
	if err != nil {
		c.logger.Warn(msg, "surface", id, "error", err)
	}
}
