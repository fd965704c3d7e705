package platform

import "time"

// SurfaceID is a platform-neutral presentation surface identifier.
// Zero means "no surface".
type SurfaceID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Center returns the midpoint of the rect.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// EventKind classifies an OS event after platform decoding.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventKeyDown
	EventKeyUp
	EventSysKeyDown
	EventSysKeyUp
	EventChar
	EventButtonDown
	EventButtonUp
	EventMouseMove
	EventMouseLeave
	EventExpose
	EventConfigure
	EventFocusIn
	EventFocusOut
	EventClose
	EventDestroyed
	EventEnterSizeMove
	EventExitSizeMove
	EventEnterMenuLoop
	EventExitMenuLoop
	EventHotkey
)

var eventKindNames = [...]string{
	EventNone:          "none",
	EventKeyDown:       "key_down",
	EventKeyUp:         "key_up",
	EventSysKeyDown:    "sys_key_down",
	EventSysKeyUp:      "sys_key_up",
	EventChar:          "char",
	EventButtonDown:    "button_down",
	EventButtonUp:      "button_up",
	EventMouseMove:     "mouse_move",
	EventMouseLeave:    "mouse_leave",
	EventExpose:        "expose",
	EventConfigure:     "configure",
	EventFocusIn:       "focus_in",
	EventFocusOut:      "focus_out",
	EventClose:         "close",
	EventDestroyed:     "destroyed",
	EventEnterSizeMove: "enter_size_move",
	EventExitSizeMove:  "exit_size_move",
	EventEnterMenuLoop: "enter_menu_loop",
	EventExitMenuLoop:  "exit_menu_loop",
	EventHotkey:        "hotkey",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is a decoded OS event. Surface is zero for events addressed to the
// thread rather than to a particular surface.
type Event struct {
	Kind    EventKind
	Surface SurfaceID
	Time    time.Time

	// Button is 0 left, 1 right, 2 middle, 3 extra.
	Button int
	X      int
	Y      int

	Keycode uint32
	Mods    uint16
	Rune    rune

	Bounds Rect
	Hotkey string

	// Raw carries the native event for DefaultHandle.
	Raw any
}

// SurfaceOptions describes a surface to create.
type SurfaceOptions struct {
	Title      string
	Bounds     Rect
	Fullscreen bool
}

// WindowSystem is the platform window layer. Implementations must be safe
// for concurrent use: surfaces are mutated from the pump goroutine, while
// focus and cursor queries also come from the simulation goroutine.
type WindowSystem interface {
	CreateSurface(opts SurfaceOptions) (SurfaceID, error)
	DestroySurface(id SurfaceID) error
	Show(id SurfaceID) error
	Hide(id SurfaceID) error
	MoveResize(id SurfaceID, bounds Rect) error
	Bounds(id SurfaceID) (Rect, error)
	Iconic(id SurfaceID) bool
	SetFullscreenState(id SurfaceID, fullscreen bool) error
	Fill(id SurfaceID, rgb uint32) error
	Focus(id SurfaceID) error
	FocusedSurface() SurfaceID
	SetCursorVisible(visible bool) error

	// Start begins delivering decoded events to post. It returns once the
	// event source is attached.
	Start(post func(Event)) error
	Stop()

	// DefaultHandle applies the platform's default behavior to an event the
	// coordinator does not handle.
	DefaultHandle(ev Event)
}

// FillRect is a solid rectangle in surface coordinates.
type FillRect struct {
	Bounds Rect
	Color  uint32
}

// Painter is implemented by window systems that can draw solid rectangles
// onto their surfaces.
type Painter interface {
	Paint(id SurfaceID, background uint32, rects []FillRect) error
}

// MonitorProvider enumerates displays.
type MonitorProvider interface {
	Refresh() error
	Monitors() []Display
	Primary() Display
	MonitorFor(bounds Rect) Display
}

// DisplayFor picks the display containing the center of bounds, then the one
// overlapping it most, then fallback.
func DisplayFor(displays []Display, fallback Display, bounds Rect) Display {
	cx, cy := bounds.Center()
	for _, d := range displays {
		if d.Bounds.Contains(cx, cy) {
			return d
		}
	}

	best, bestArea := fallback, 0
	for _, d := range displays {
		x1, y1 := max(d.Bounds.X, bounds.X), max(d.Bounds.Y, bounds.Y)
		x2 := min(d.Bounds.X+d.Bounds.Width, bounds.X+bounds.Width)
		y2 := min(d.Bounds.Y+d.Bounds.Height, bounds.Y+bounds.Height)
		if area := (x2 - x1) * (y2 - y1); x2 > x1 && y2 > y1 && area > bestArea {
			best, bestArea = d, area
		}
	}
	return best
}

// Input is the input subsystem consulted by the event filter.
type Input interface {
	HandleMouseButton(button int, down bool, x, y int) bool
	ShouldHideMouse() bool
}

// UIInput receives pointer and character events for on-screen UI.
// Implementing it is optional.
type UIInput interface {
	MouseMove(surface SurfaceID, x, y int)
	MouseLeave(surface SurfaceID)
	MouseDown(surface SurfaceID, x, y int)
	MouseUp(surface SurfaceID, x, y int)
	DoubleClick(surface SurfaceID, x, y int)
	Char(surface SurfaceID, r rune)
}

// Machine is the simulation handle.
type Machine interface {
	Pause()
	Resume()
	IsPaused() bool
	RequestExit()
}
