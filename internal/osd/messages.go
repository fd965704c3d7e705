package osd

import (
	"github.com/1broseidon/winthread/internal/mailbox"
	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/window"
)

// reply carries the result of a synchronous request back to its sender.
// A nil reply means the sender did not wait.
type reply chan error

func newReply() reply { return make(reply, 1) }

func (r reply) done(err error) {
	if r != nil {
		r <- err
	}
}

// OSEvent wraps a decoded platform event.
type OSEvent struct {
	Event platform.Event
}

// FinishCreateWindow asks the pump to build the window's surface.
type FinishCreateWindow struct {
	Window *window.Window
}

// SelfTerminate destroys one window's surface, or stops the pump when
// Window is nil.
type SelfTerminate struct {
	Window *window.Window
	reply  reply
}

// Redraw hands a primitive snapshot to the pump for drawing.
type Redraw struct {
	Window     *window.Window
	Primitives *render.PrimitiveList
}

// SetFullscreen switches a window between windowed and fullscreen.
type SetFullscreen struct {
	Window     *window.Window
	Fullscreen bool
	reply      reply
}

// SetMinSize resizes a window to its minimum bounds.
type SetMinSize struct {
	Window *window.Window
	reply  reply
}

// SetMaxSize resizes a window to its maximum bounds.
type SetMaxSize struct {
	Window *window.Window
	reply  reply
}

// UITempPause nests or unnests a temporary pause on the simulation.
type UITempPause struct {
	Pause bool
}

// ExecFunc runs Fn(Arg) on the receiving goroutine.
type ExecFunc struct {
	Fn  func(arg any)
	Arg any
}

// Quit relays a close request to the simulation.
type Quit struct{}

// Unhandled is forwarded to the platform's default handling.
type Unhandled struct {
	Event platform.Event
	Msg   mailbox.Message
}

func (OSEvent) Kind() mailbox.Kind            { return mailbox.KindOSEvent }
func (FinishCreateWindow) Kind() mailbox.Kind { return mailbox.KindFinishCreateWindow }
func (SelfTerminate) Kind() mailbox.Kind      { return mailbox.KindSelfTerminate }
func (Redraw) Kind() mailbox.Kind             { return mailbox.KindRedraw }
func (SetFullscreen) Kind() mailbox.Kind      { return mailbox.KindSetFullscreen }
func (SetMinSize) Kind() mailbox.Kind         { return mailbox.KindSetMinSize }
func (SetMaxSize) Kind() mailbox.Kind         { return mailbox.KindSetMaxSize }
func (UITempPause) Kind() mailbox.Kind        { return mailbox.KindUITempPause }
func (ExecFunc) Kind() mailbox.Kind           { return mailbox.KindExecFunc }
func (Quit) Kind() mailbox.Kind               { return mailbox.KindQuit }
func (Unhandled) Kind() mailbox.Kind          { return mailbox.KindUnhandled }
