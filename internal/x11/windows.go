package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// SurfaceEvents is the event mask every surface listens with.
const SurfaceEvents = xproto.EventMaskExposure |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskFocusChange

const fullscreenAtom = "_NET_WM_STATE_FULLSCREEN"

// Rect is a filled rectangle in window coordinates.
type Rect struct {
	Geometry
	Color uint32
}

// CreateWindow creates an unmapped top-level window that asks the window
// manager for WM_DELETE_WINDOW instead of being killed.
func (c *Connection) CreateWindow(title string, g Geometry, background uint32) (xproto.Window, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("allocate window: %w", err)
	}
	err = win.CreateChecked(c.Root, g.X, g.Y, max(1, g.Width), max(1, g.Height),
		xproto.CwBackPixel|xproto.CwEventMask, background, SurfaceEvents)
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}
	id := win.Id

	if err := icccm.WmProtocolsSet(c.XUtil, id, []string{"WM_DELETE_WINDOW"}); err != nil {
		win.Destroy()
		return 0, fmt.Errorf("set WM_PROTOCOLS: %w", err)
	}
	if err := c.SetTitle(id, title); err != nil {
		win.Destroy()
		return 0, err
	}

	gc, err := xproto.NewGcontextId(c.XUtil.Conn())
	if err != nil {
		win.Destroy()
		return 0, fmt.Errorf("allocate gc: %w", err)
	}
	xproto.CreateGC(c.XUtil.Conn(), gc, xproto.Drawable(id),
		xproto.GcForeground|xproto.GcGraphicsExposures, []uint32{background, 0})

	c.mu.Lock()
	c.gcs[id] = gc
	c.mu.Unlock()
	return id, nil
}

// DestroyWindow frees a window created by CreateWindow.
func (c *Connection) DestroyWindow(id xproto.Window) error {
	c.mu.Lock()
	gc, ok := c.gcs[id]
	delete(c.gcs, id)
	c.mu.Unlock()
	if ok {
		xproto.FreeGC(c.XUtil.Conn(), gc)
	}
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), id).Check()
}

// MapWindow shows a window.
func (c *Connection) MapWindow(id xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), id).Check()
}

// UnmapWindow hides a window.
func (c *Connection) UnmapWindow(id xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), id).Check()
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(id xproto.Window, g Geometry) error {
	// Prefer the EWMH request so the window manager sees it, and fall back to
	// configuring the window directly.
	if err := ewmh.MoveresizeWindow(c.XUtil, id, g.X, g.Y, g.Width, g.Height); err != nil {
		xwindow.New(c.XUtil, id).MoveResize(g.X, g.Y, g.Width, g.Height)
	}
	return nil
}

// WindowGeometry returns the client area of a window in root coordinates.
func (c *Connection) WindowGeometry(id xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(id)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("get geometry: %w", err)
	}
	tr, err := xproto.TranslateCoordinates(c.XUtil.Conn(), id, c.Root, 0, 0).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("translate coordinates: %w", err)
	}
	return Geometry{
		X:      int(tr.DstX),
		Y:      int(tr.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// IsIconic reports whether the window manager has iconified the window.
func (c *Connection) IsIconic(id xproto.Window) bool {
	state, err := icccm.WmStateGet(c.XUtil, id)
	if err != nil {
		return false
	}
	return state.State == icccm.StateIconic
}

// SetFullscreen adds or removes _NET_WM_STATE_FULLSCREEN. Unmapped windows
// get the property directly; mapped ones go through the window manager.
func (c *Connection) SetFullscreen(id xproto.Window, on bool) error {
	if !c.isMapped(id) {
		states, _ := ewmh.WmStateGet(c.XUtil, id)
		return ewmh.WmStateSet(c.XUtil, id, withState(states, fullscreenAtom, on))
	}
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, id, action, fullscreenAtom)
}

func (c *Connection) isMapped(id xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), id).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState != xproto.MapStateUnmapped
}

func withState(states []string, name string, on bool) []string {
	out := make([]string, 0, len(states)+1)
	for _, s := range states {
		if s != name {
			out = append(out, s)
		}
	}
	if on {
		out = append(out, name)
	}
	return out
}

// SetTitle sets both the EWMH and ICCCM window names.
func (c *Connection) SetTitle(id xproto.Window, title string) error {
	if err := ewmh.WmNameSet(c.XUtil, id, title); err != nil {
		return fmt.Errorf("set _NET_WM_NAME: %w", err)
	}
	if err := icccm.WmNameSet(c.XUtil, id, title); err != nil {
		return fmt.Errorf("set WM_NAME: %w", err)
	}
	return nil
}

// Paint clears a window to background and fills rects over it, batching
// consecutive rects of the same color into one request.
func (c *Connection) Paint(id xproto.Window, background uint32, rects []Rect) error {
	c.mu.Lock()
	gc, ok := c.gcs[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("window %d has no graphics context", id)
	}

	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(id)).Reply()
	if err != nil {
		return fmt.Errorf("get geometry: %w", err)
	}

	conn := c.XUtil.Conn()
	drawable := xproto.Drawable(id)
	xproto.ChangeGC(conn, gc, xproto.GcForeground, []uint32{background})
	xproto.PolyFillRectangle(conn, drawable, gc, []xproto.Rectangle{{Width: geom.Width, Height: geom.Height}})

	for i := 0; i < len(rects); {
		color := rects[i].Color
		var batch []xproto.Rectangle
		for ; i < len(rects) && rects[i].Color == color; i++ {
			r := rects[i]
			if r.Width <= 0 || r.Height <= 0 {
				continue
			}
			batch = append(batch, xproto.Rectangle{
				X:      int16(r.X),
				Y:      int16(r.Y),
				Width:  uint16(r.Width),
				Height: uint16(r.Height),
			})
		}
		if len(batch) == 0 {
			continue
		}
		xproto.ChangeGC(conn, gc, xproto.GcForeground, []uint32{color})
		xproto.PolyFillRectangle(conn, drawable, gc, batch)
	}
	c.XUtil.Sync()
	return nil
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW, and
// sets input focus directly when the window manager does not answer.
// We build the message manually because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) FocusWindow(id xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 1 // application
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: id,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	err = xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
	if err != nil {
		return xproto.SetInputFocusChecked(c.XUtil.Conn(), xproto.InputFocusPointerRoot,
			id, xproto.TimeCurrentTime).Check()
	}
	return nil
}

// InputFocus returns the window holding keyboard focus.
func (c *Connection) InputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(c.XUtil.Conn()).Reply()
	if err != nil {
		return 0
	}
	return reply.Focus
}

// SetCursorVisible swaps between the default cursor and a blank one on the
// given windows.
func (c *Connection) SetCursorVisible(ids []xproto.Window, visible bool) error {
	cursor := uint32(0)
	if !visible {
		blank, err := c.blankCursor()
		if err != nil {
			return err
		}
		cursor = uint32(blank)
	}
	for _, id := range ids {
		xproto.ChangeWindowAttributes(c.XUtil.Conn(), id, xproto.CwCursor, []uint32{cursor})
	}
	return nil
}

func (c *Connection) blankCursor() (xproto.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blank != 0 {
		return c.blank, nil
	}

	conn := c.XUtil.Conn()
	pix, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, fmt.Errorf("allocate pixmap: %w", err)
	}
	xproto.CreatePixmap(conn, 1, pix, xproto.Drawable(c.Root), 1, 1)
	defer xproto.FreePixmap(conn, pix)

	cursor, err := xproto.NewCursorId(conn)
	if err != nil {
		return 0, fmt.Errorf("allocate cursor: %w", err)
	}
	if err := xproto.CreateCursorChecked(conn, cursor, pix, pix, 0, 0, 0, 0, 0, 0, 0, 0).Check(); err != nil {
		return 0, fmt.Errorf("create blank cursor: %w", err)
	}
	c.blank = cursor
	return cursor, nil
}
