// Package window holds per-surface state and the registry of live windows.
package window

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/rendersync"
)

const (
	// MinDim is the smallest width or height a window is sized to.
	MinDim = 200

	DefaultWidth  = 640
	DefaultHeight = 480

	// DoubleClickTime and DoubleClickSlop bound the second click of a
	// double click.
	DoubleClickTime = 500 * time.Millisecond
	DoubleClickSlop = 4
)

// InitState is the outcome of the creation handshake.
type InitState int32

const (
	InitPending InitState = iota
	InitReady
	InitFailed
)

func (s InitState) String() string {
	switch s {
	case InitPending:
		return "pending"
	case InitReady:
		return "ready"
	case InitFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ResizeState tracks an interactive move/resize.
type ResizeState uint8

const (
	ResizeIdle ResizeState = iota
	ResizeResizing
	ResizePendingRedraw
)

func (s ResizeState) String() string {
	switch s {
	case ResizeIdle:
		return "idle"
	case ResizeResizing:
		return "resizing"
	case ResizePendingRedraw:
		return "pending_redraw"
	default:
		return "unknown"
	}
}

// Options configure a window at creation.
type Options struct {
	Title      string
	Monitor    platform.Display
	MaxWidth   int
	MaxHeight  int
	Refresh    int
	Fullscreen bool
	Maximize   bool
}

// Window is one presentation surface. Render-affecting fields are written
// only on the pump goroutine; mu lets the simulation goroutine read them.
type Window struct {
	handle Handle
	index  int
	opts   Options
	lock   *rendersync.Lock
	target render.Target

	initState atomic.Int32
	initOnce  sync.Once
	initDone  chan struct{}
	initErr   error

	mu                  sync.RWMutex
	monitor             platform.Display
	surface             platform.SurfaceID
	renderer            render.Renderer
	fullscreen          bool
	fullscreenSafe      bool
	resize              ResizeState
	nonFullscreenBounds platform.Rect
	minimized           bool
	maximized           bool
	primitives          *render.PrimitiveList
	clientW             int
	clientH             int

	// simulation goroutine only
	lastUpdate  time.Time
	lastView    int
	lastOrient  int
	lastLayer   uint32
	viewTracked bool

	// pump goroutine only
	lastClick  time.Time
	lastClickX int
	lastClickY int
}

// New creates a window in the Pending state owning target.
func New(index int, opts Options, target render.Target) *Window {
	w := &Window{
		index:      index,
		opts:       opts,
		lock:       rendersync.New(),
		target:     target,
		initDone:   make(chan struct{}),
		fullscreen: opts.Fullscreen,
		monitor:    opts.Monitor,
	}
	w.initState.Store(int32(InitPending))
	return w
}

// Handle returns the registry handle, zero until registered.
func (w *Window) Handle() Handle { return w.handle }

// Index is the creation ordinal, used for naming.
func (w *Window) Index() int { return w.index }

// Options returns the creation options.
func (w *Window) Options() Options { return w.opts }

// Lock returns the window's render lock.
func (w *Window) Lock() *rendersync.Lock { return w.lock }

// Target returns the render target, nil once released.
func (w *Window) Target() render.Target {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.target
}

// ReleaseTarget frees the render target.
func (w *Window) ReleaseTarget() {
	w.mu.Lock()
	target := w.target
	w.target = nil
	w.mu.Unlock()
	if target != nil {
		target.Release()
	}
}

// InitState returns the handshake state.
func (w *Window) InitState() InitState {
	return InitState(w.initState.Load())
}

// InitDone is closed once the init state leaves Pending.
func (w *Window) InitDone() <-chan struct{} {
	return w.initDone
}

// InitErr is the failure cause when the state is InitFailed.
func (w *Window) InitErr() error {
	select {
	case <-w.initDone:
		return w.initErr
	default:
		return nil
	}
}

// CompleteInit moves the window out of Pending exactly once. Later calls
// return false and change nothing.
func (w *Window) CompleteInit(state InitState, err error) bool {
	if state == InitPending {
		return false
	}
	if !w.initState.CompareAndSwap(int32(InitPending), int32(state)) {
		return false
	}
	w.initOnce.Do(func() {
		w.initErr = err
		close(w.initDone)
	})
	return true
}

// Surface returns the OS surface, zero if none.
func (w *Window) Surface() platform.SurfaceID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.surface
}

// SetSurface associates the OS surface. Pump goroutine only.
func (w *Window) SetSurface(id platform.SurfaceID) {
	w.mu.Lock()
	w.surface = id
	w.mu.Unlock()
}

// Renderer returns the active renderer, nil if none.
func (w *Window) Renderer() render.Renderer {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.renderer
}

// SetRenderer replaces the renderer. Pump goroutine only.
func (w *Window) SetRenderer(r render.Renderer) {
	w.mu.Lock()
	w.renderer = r
	w.mu.Unlock()
}

// Fullscreen reports the fullscreen flag.
func (w *Window) Fullscreen() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fullscreen
}

// SetFullscreenFlag records the fullscreen flag. Pump goroutine only.
func (w *Window) SetFullscreenFlag(on bool) {
	w.mu.Lock()
	w.fullscreen = on
	w.mu.Unlock()
}

// FullscreenSafe reports whether no earlier sibling shares this monitor.
func (w *Window) FullscreenSafe() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fullscreenSafe
}

func (w *Window) setFullscreenSafe(safe bool) {
	w.mu.Lock()
	w.fullscreenSafe = safe
	w.mu.Unlock()
}

// Monitor returns the display the window is on.
func (w *Window) Monitor() platform.Display {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.monitor
}

// SetMonitor records that the window now lives on d. Pump role.
func (w *Window) SetMonitor(d platform.Display) {
	w.mu.Lock()
	w.monitor = d
	w.mu.Unlock()
}

// ResizeState returns the interactive resize state.
func (w *Window) ResizeState() ResizeState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.resize
}

// SetResizeState updates the resize state. Pump goroutine only.
func (w *Window) SetResizeState(s ResizeState) {
	w.mu.Lock()
	w.resize = s
	w.mu.Unlock()
}

// NonFullscreenBounds returns the bounds cached when entering fullscreen.
func (w *Window) NonFullscreenBounds() platform.Rect {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.nonFullscreenBounds
}

// SetNonFullscreenBounds caches windowed bounds. Pump goroutine only.
func (w *Window) SetNonFullscreenBounds(r platform.Rect) {
	w.mu.Lock()
	w.nonFullscreenBounds = r
	w.mu.Unlock()
}

// MinMax reports whether the window is sized to its minimum or maximum.
func (w *Window) MinMax() (minimized, maximized bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.minimized, w.maximized
}

// SetMinMax records the min/max sizing state. Pump goroutine only.
func (w *Window) SetMinMax(minimized, maximized bool) {
	w.mu.Lock()
	w.minimized, w.maximized = minimized, maximized
	w.mu.Unlock()
}

// ClientSize returns the last known drawable size.
func (w *Window) ClientSize() (int, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.clientW, w.clientH
}

// SetClientSize records the drawable size. Pump goroutine only.
func (w *Window) SetClientSize(width, height int) {
	w.mu.Lock()
	w.clientW, w.clientH = width, height
	w.mu.Unlock()
}

// CurrentPrimitives returns the snapshot the pump last received.
func (w *Window) CurrentPrimitives() *render.PrimitiveList {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.primitives
}

// SetPrimitives stores a snapshot from a Redraw. Pump goroutine only.
func (w *Window) SetPrimitives(list *render.PrimitiveList) {
	w.mu.Lock()
	w.primitives = list
	w.mu.Unlock()
}

// LastUpdate is the time of the last frame handed to the pump.
// Simulation goroutine only.
func (w *Window) LastUpdate() time.Time { return w.lastUpdate }

// MarkUpdated records a successful frame update. Simulation goroutine only.
func (w *Window) MarkUpdated(t time.Time) { w.lastUpdate = t }

// TargetChanged compares the target's view configuration with the last
// observed one and records the new values. The first observation never
// counts as a change. Simulation goroutine only.
func (w *Window) TargetChanged(view, orientation int, layer uint32) bool {
	if !w.viewTracked {
		w.viewTracked = true
		w.lastView, w.lastOrient, w.lastLayer = view, orientation, layer
		return false
	}
	changed := view != w.lastView || orientation != w.lastOrient || layer != w.lastLayer
	w.lastView, w.lastOrient, w.lastLayer = view, orientation, layer
	return changed
}

// Click registers a button press and reports whether it completes a double
// click. Pump goroutine only.
func (w *Window) Click(at time.Time, x, y int) bool {
	if !w.lastClick.IsZero() &&
		at.Sub(w.lastClick) < DoubleClickTime &&
		abs(x-w.lastClickX) <= DoubleClickSlop &&
		abs(y-w.lastClickY) <= DoubleClickSlop {
		w.lastClick = time.Time{}
		return true
	}
	w.lastClick = at
	w.lastClickX, w.lastClickY = x, y
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
