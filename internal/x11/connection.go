package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// wake is an unmapped input-only window used to unblock the event loop.
	wake xproto.Window

	mu    sync.Mutex
	gcs   map[xproto.Window]xproto.Gcontext
	blank xproto.Cursor
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Required for global hotkeys and key decoding.
	keybind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
		gcs:   make(map[xproto.Window]xproto.Gcontext),
	}
	if err := c.createWakeWindow(); err != nil {
		xu.Conn().Close()
		return nil, err
	}
	return c, nil
}

func (c *Connection) createWakeWindow() error {
	id, err := xproto.NewWindowId(c.XUtil.Conn())
	if err != nil {
		return fmt.Errorf("allocate wake window: %w", err)
	}
	err = xproto.CreateWindowChecked(c.XUtil.Conn(), 0, id, c.Root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, c.XUtil.Screen().RootVisual,
		0, nil).Check()
	if err != nil {
		return fmt.Errorf("create wake window: %w", err)
	}
	c.wake = id
	return nil
}

// EventLoop runs the main X11 event loop until StopEventLoop is called.
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// StopEventLoop asks the event loop to return. The loop only notices after
// its next event, so a client message is sent to the wake window.
func (c *Connection) StopEventLoop() error {
	xevent.Quit(c.XUtil)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: c.wake,
		Type:   xproto.AtomString,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{0, 0, 0, 0, 0}),
	}
	return xproto.SendEventChecked(c.XUtil.Conn(), false, c.wake,
		xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	if c.blank != 0 {
		xproto.FreeCursor(c.XUtil.Conn(), c.blank)
	}
	if c.wake != 0 {
		xproto.DestroyWindow(c.XUtil.Conn(), c.wake)
	}
	c.XUtil.Conn().Close()
}
