package osd

import (
	"context"

	"github.com/1broseidon/winthread/internal/mailbox"
	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/window"
)

// PumpEvents services the simulation mailbox, which in single-thread mode
// also carries every OS event. While a UI pause is in effect it blocks for
// the next message instead of spinning and keeps going until the pause ends.
// force drains once and returns even if a pause is in effect.
// Simulation goroutine only.
func (c *Coordinator) PumpEvents(force bool) {
	c.lastEventCheck = c.now()

	for {
		if !force && c.pause.Depth() > 0 && !c.quitting.Load() {
			msg, err := c.simBox.Receive(context.Background())
			if err != nil {
				break
			}
			c.dispatch(msg)
		}
		c.drainSim()
		if force || c.pause.Depth() == 0 || c.quitting.Load() {
			break
		}
	}

	c.updateCursorState()
}

// PumpEventsPeriodic runs PumpEvents at most once per PeriodicInterval.
func (c *Coordinator) PumpEventsPeriodic() {
	if c.now().Sub(c.lastEventCheck) < PeriodicInterval {
		return
	}
	c.PumpEvents(false)
}

// dispatch handles one message on the receiving role and reports whether the
// pump loop should stop.
func (c *Coordinator) dispatch(msg mailbox.Message) bool {
	switch m := msg.(type) {
	case OSEvent:
		c.filterEvent(m.Event)
	case FinishCreateWindow:
		c.finishCreate(m.Window)
	case SelfTerminate:
		if m.Window == nil {
			c.tlog.Add(threadPump, "self terminate")
			return true
		}
		m.reply.done(c.destroySurface(m.Window))
	case Redraw:
		m.Window.SetPrimitives(m.Primitives)
		c.drawFrame(m.Window, false)
	case SetFullscreen:
		m.reply.done(c.setFullscreen(m.Window, m.Fullscreen))
	case SetMinSize:
		c.minimize(m.Window)
		m.reply.done(nil)
	case SetMaxSize:
		c.maximize(m.Window)
		m.reply.done(nil)
	case UITempPause:
		c.pause.RequestMain(m.Pause)
	case ExecFunc:
		if m.Fn != nil {
			m.Fn(m.Arg)
		}
	case Quit:
		c.quitting.Store(true)
		c.cfg.Machine.RequestExit()
	case Unhandled:
		c.unhandled(m)
	default:
		c.unhandled(Unhandled{Msg: msg})
	}
	return false
}

// filterEvent decides whether an OS event reaches a window procedure.
func (c *Coordinator) filterEvent(ev platform.Event) {
	var w *window.Window
	if ev.Surface != 0 {
		var ok bool
		if w, ok = c.registry.BySurface(ev.Surface); !ok {
			c.unhandled(Unhandled{Event: ev})
			return
		}
	}

	switch ev.Kind {
	case platform.EventSysKeyDown, platform.EventSysKeyUp:
		return
	case platform.EventButtonDown, platform.EventButtonUp:
		if c.cfg.Input != nil && c.cfg.Input.HandleMouseButton(ev.Button, ev.Kind == platform.EventButtonDown, ev.X, ev.Y) {
			return
		}
	}

	if w == nil {
		c.threadProc(ev)
		return
	}
	c.windowProc(w, ev)
}

// threadProc handles events addressed to no particular surface.
func (c *Coordinator) threadProc(ev platform.Event) {
	switch ev.Kind {
	case platform.EventHotkey:
		if c.cfg.Hotkeys != nil && c.cfg.Hotkeys.Dispatch(ev.Hotkey) {
			return
		}
	case platform.EventClose:
		c.requestClose()
		return
	}
	c.unhandled(Unhandled{Event: ev})
}

func (c *Coordinator) unhandled(m Unhandled) {
	if c.cfg.Diagnostics {
		if m.Msg != nil {
			c.logger.Debug("unhandled message", "kind", m.Msg.Kind())
		} else {
			c.logger.Debug("unhandled event", "kind", m.Event.Kind, "surface", m.Event.Surface)
		}
	}
	if m.Msg == nil {
		c.cfg.Windows.DefaultHandle(m.Event)
	}
}

// requestClose relays a close request to the simulation.
func (c *Coordinator) requestClose() {
	if err := c.toSim(Quit{}); err != nil {
		c.logger.Warn("failed to relay close request", "error", err)
	}
}
