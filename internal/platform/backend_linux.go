//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/1broseidon/winthread/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// stopTimeout bounds how long Stop waits for the event loop to notice.
const stopTimeout = 2 * time.Second

var (
	_ WindowSystem    = (*X11)(nil)
	_ MonitorProvider = (*X11)(nil)
	_ Painter         = (*X11)(nil)
)

// ErrUnknownSurface is returned for surfaces this window system did not create.
var ErrUnknownSurface = errors.New("unknown surface")

// X11 is the window system and monitor provider on an X server. Event
// callbacks run on the xevent loop goroutine and only decode and post.
type X11 struct {
	conn   *x11.Connection
	logger *slog.Logger

	mu       sync.Mutex
	post     func(Event)
	loopDone chan struct{}
	surfaces map[SurfaceID]struct{}
	hidden   bool

	displays []Display
	primary  int
}

// NewX11 wraps an existing X11 connection.
func NewX11(conn *x11.Connection, logger *slog.Logger) *X11 {
	if logger == nil {
		logger = slog.Default()
	}
	return &X11{
		conn:     conn,
		logger:   logger,
		surfaces: make(map[SurfaceID]struct{}),
	}
}

// NewX11FromDisplay opens a fresh X11 connection.
func NewX11FromDisplay(logger *slog.Logger) (*X11, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewX11(conn, logger), nil
}

// Connection exposes the X connection for key grabs.
func (b *X11) Connection() *x11.Connection {
	return b.conn
}

// Disconnect closes the underlying X11 connection.
func (b *X11) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Start runs the X event loop on its own goroutine.
func (b *X11) Start(post func(Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loopDone != nil {
		return errors.New("x11 event loop already running")
	}
	if post == nil {
		return errors.New("x11 event loop needs a sink")
	}
	b.post = post
	done := make(chan struct{})
	b.loopDone = done

	go func() {
		defer close(done)
		b.conn.EventLoop()
	}()
	return nil
}

// Stop ends the event loop and waits briefly for it to return.
func (b *X11) Stop() {
	b.mu.Lock()
	done := b.loopDone
	b.post = nil
	b.mu.Unlock()
	if done == nil {
		return
	}

	if err := b.conn.StopEventLoop(); err != nil {
		b.logger.Warn("failed to wake x11 event loop", "error", err)
	}
	select {
	case <-done:
	case <-time.After(stopTimeout):
		b.logger.Warn("x11 event loop did not stop in time")
	}
}

// Emit posts an event as if it came from the X server. Hotkey callbacks use
// it to reach the pump.
func (b *X11) Emit(ev Event) {
	b.mu.Lock()
	post := b.post
	b.mu.Unlock()
	if post == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	post(ev)
}

// DefaultHandle is a no-op: X11 has no default window procedure.
func (b *X11) DefaultHandle(Event) {}

func (b *X11) CreateSurface(opts SurfaceOptions) (SurfaceID, error) {
	g := x11.Geometry{X: opts.Bounds.X, Y: opts.Bounds.Y, Width: opts.Bounds.Width, Height: opts.Bounds.Height}
	win, err := b.conn.CreateWindow(opts.Title, g, 0)
	if err != nil {
		return 0, err
	}
	id := SurfaceID(win)
	b.attach(win, id)

	if opts.Fullscreen {
		if err := b.conn.SetFullscreen(win, true); err != nil {
			b.logger.Debug("initial fullscreen state failed", "surface", id, "error", err)
		}
	}

	b.mu.Lock()
	b.surfaces[id] = struct{}{}
	hidden := b.hidden
	b.mu.Unlock()
	if hidden {
		_ = b.conn.SetCursorVisible([]xproto.Window{win}, false)
	}
	return id, nil
}

func (b *X11) DestroySurface(id SurfaceID) error {
	win, err := b.window(id)
	if err != nil {
		return err
	}
	xevent.Detach(b.conn.XUtil, win)

	b.mu.Lock()
	delete(b.surfaces, id)
	b.mu.Unlock()
	return b.conn.DestroyWindow(win)
}

func (b *X11) Show(id SurfaceID) error {
	win, err := b.window(id)
	if err != nil {
		return err
	}
	return b.conn.MapWindow(win)
}

func (b *X11) Hide(id SurfaceID) error {
	win, err := b.window(id)
	if err != nil {
		return err
	}
	return b.conn.UnmapWindow(win)
}

func (b *X11) MoveResize(id SurfaceID, r Rect) error {
	win, err := b.window(id)
	if err != nil {
		return err
	}
	return b.conn.MoveResizeWindow(win, x11.Geometry{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height})
}

func (b *X11) Bounds(id SurfaceID) (Rect, error) {
	win, err := b.window(id)
	if err != nil {
		return Rect{}, err
	}
	g, err := b.conn.WindowGeometry(win)
	if err != nil {
		return Rect{}, err
	}
	return rectFrom(g), nil
}

func (b *X11) Iconic(id SurfaceID) bool {
	win, err := b.window(id)
	if err != nil {
		return false
	}
	return b.conn.IsIconic(win)
}

func (b *X11) SetFullscreenState(id SurfaceID, fullscreen bool) error {
	win, err := b.window(id)
	if err != nil {
		return err
	}
	return b.conn.SetFullscreen(win, fullscreen)
}

func (b *X11) Fill(id SurfaceID, rgb uint32) error {
	return b.Paint(id, rgb, nil)
}

// Paint draws solid rectangles with the core protocol.
func (b *X11) Paint(id SurfaceID, background uint32, rects []FillRect) error {
	win, err := b.window(id)
	if err != nil {
		return err
	}
	out := make([]x11.Rect, len(rects))
	for i, r := range rects {
		out[i] = x11.Rect{
			Geometry: x11.Geometry{X: r.Bounds.X, Y: r.Bounds.Y, Width: r.Bounds.Width, Height: r.Bounds.Height},
			Color:    r.Color,
		}
	}
	return b.conn.Paint(win, background, out)
}

func (b *X11) Focus(id SurfaceID) error {
	win, err := b.window(id)
	if err != nil {
		return err
	}
	return b.conn.FocusWindow(win)
}

// FocusedSurface returns the focused surface if it is one of ours.
func (b *X11) FocusedSurface() SurfaceID {
	id := SurfaceID(b.conn.InputFocus())
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.surfaces[id]; ok {
		return id
	}
	return 0
}

// SetCursorVisible hides or shows the pointer over every surface.
func (b *X11) SetCursorVisible(visible bool) error {
	b.mu.Lock()
	b.hidden = !visible
	wins := make([]xproto.Window, 0, len(b.surfaces))
	for id := range b.surfaces {
		wins = append(wins, xproto.Window(id))
	}
	b.mu.Unlock()
	return b.conn.SetCursorVisible(wins, visible)
}

// Refresh re-reads the monitor layout.
func (b *X11) Refresh() error {
	mons, err := b.conn.GetMonitors()
	if err != nil {
		return err
	}
	displays := make([]Display, len(mons))
	primary := -1
	for i, m := range mons {
		displays[i] = Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: rectFrom(m.Geometry),
			Usable: rectFrom(m.Work),
		}
		if m.Primary && primary < 0 {
			primary = i
		}
	}
	if primary < 0 {
		primary = max(0, b.conn.PointerMonitor(mons))
	}

	b.mu.Lock()
	b.displays = displays
	b.primary = primary
	b.mu.Unlock()
	return nil
}

func (b *X11) Monitors() []Display {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Display(nil), b.displays...)
}

func (b *X11) Primary() Display {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.primary < len(b.displays) {
		return b.displays[b.primary]
	}
	return Display{}
}

func (b *X11) MonitorFor(bounds Rect) Display {
	return DisplayFor(b.Monitors(), b.Primary(), bounds)
}

func (b *X11) window(id SurfaceID) (xproto.Window, error) {
	b.mu.Lock()
	_, ok := b.surfaces[id]
	b.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSurface, id)
	}
	return xproto.Window(id), nil
}

// attach registers the per-surface callbacks that decode X events.
func (b *X11) attach(win xproto.Window, id SurfaceID) {
	xu := b.conn.XUtil

	xevent.ExposeFun(func(_ *xgbutil.XUtil, e xevent.ExposeEvent) {
		// Only the last expose of a series.
		if e.Count == 0 {
			b.Emit(Event{Kind: EventExpose, Surface: id, Raw: e})
		}
	}).Connect(xu, win)

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, e xevent.ConfigureNotifyEvent) {
		b.Emit(Event{Kind: EventConfigure, Surface: id, Raw: e, Bounds: Rect{
			X: int(e.X), Y: int(e.Y), Width: int(e.Width), Height: int(e.Height),
		}})
	}).Connect(xu, win)

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, e xevent.ButtonPressEvent) {
		if button, ok := buttonIndex(e.Detail); ok {
			b.Emit(Event{Kind: EventButtonDown, Surface: id, Button: button,
				X: int(e.EventX), Y: int(e.EventY), Mods: e.State, Raw: e})
		}
	}).Connect(xu, win)

	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, e xevent.ButtonReleaseEvent) {
		if button, ok := buttonIndex(e.Detail); ok {
			b.Emit(Event{Kind: EventButtonUp, Surface: id, Button: button,
				X: int(e.EventX), Y: int(e.EventY), Mods: e.State, Raw: e})
		}
	}).Connect(xu, win)

	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, e xevent.MotionNotifyEvent) {
		b.Emit(Event{Kind: EventMouseMove, Surface: id, X: int(e.EventX), Y: int(e.EventY), Raw: e})
	}).Connect(xu, win)

	xevent.LeaveNotifyFun(func(_ *xgbutil.XUtil, e xevent.LeaveNotifyEvent) {
		b.Emit(Event{Kind: EventMouseLeave, Surface: id, Raw: e})
	}).Connect(xu, win)

	xevent.KeyPressFun(func(xu *xgbutil.XUtil, e xevent.KeyPressEvent) {
		if e.State&xproto.ModMask1 != 0 {
			b.Emit(Event{Kind: EventSysKeyDown, Surface: id, Keycode: uint32(e.Detail), Mods: e.State, Raw: e})
			return
		}
		b.Emit(Event{Kind: EventKeyDown, Surface: id, Keycode: uint32(e.Detail), Mods: e.State, Raw: e})
		if r, ok := keyRune(keybind.LookupString(xu, e.State, e.Detail)); ok {
			b.Emit(Event{Kind: EventChar, Surface: id, Rune: r, Raw: e})
		}
	}).Connect(xu, win)

	xevent.KeyReleaseFun(func(_ *xgbutil.XUtil, e xevent.KeyReleaseEvent) {
		kind := EventKeyUp
		if e.State&xproto.ModMask1 != 0 {
			kind = EventSysKeyUp
		}
		b.Emit(Event{Kind: kind, Surface: id, Keycode: uint32(e.Detail), Mods: e.State, Raw: e})
	}).Connect(xu, win)

	xevent.FocusInFun(func(_ *xgbutil.XUtil, e xevent.FocusInEvent) {
		b.Emit(Event{Kind: EventFocusIn, Surface: id, Raw: e})
	}).Connect(xu, win)

	xevent.FocusOutFun(func(_ *xgbutil.XUtil, e xevent.FocusOutEvent) {
		b.Emit(Event{Kind: EventFocusOut, Surface: id, Raw: e})
	}).Connect(xu, win)

	xevent.ClientMessageFun(func(xu *xgbutil.XUtil, e xevent.ClientMessageEvent) {
		if icccm.IsDeleteProtocol(xu, e) {
			b.Emit(Event{Kind: EventClose, Surface: id, Raw: e})
		}
	}).Connect(xu, win)
}

// buttonIndex maps X button numbers to Event.Button. Wheel buttons have no
// mapping.
func buttonIndex(detail xproto.Button) (int, bool) {
	switch detail {
	case xproto.ButtonIndex1:
		return 0, true
	case xproto.ButtonIndex3:
		return 1, true
	case xproto.ButtonIndex2:
		return 2, true
	case 8, 9:
		return 3, true
	}
	return 0, false
}

// keyRune returns the character a key lookup produced, ignoring named keys
// such as "Return" or "space".
func keyRune(s string) (rune, bool) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}

func rectFrom(g x11.Geometry) Rect {
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}
