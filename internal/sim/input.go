package sim

import (
	"sync"
	"time"

	"github.com/1broseidon/winthread/internal/platform"
)

// HideAfter is how long the pointer must be idle before the cursor hides.
const HideAfter = 3 * time.Second

// SurfaceSizer reports a surface's client size, used to map pointer
// coordinates into the scene.
type SurfaceSizer interface {
	Bounds(id platform.SurfaceID) (platform.Rect, error)
}

// Input feeds pointer activity into the machine. It runs on the pump
// goroutine.
type Input struct {
	m     *Machine
	sizer SurfaceSizer
	now   func() time.Time

	// OnDoubleClick, when set, runs on the pump goroutine after a double
	// click.
	OnDoubleClick func()

	mu        sync.Mutex
	lastMove  time.Time
	buttons   [4]bool
	presses   int
	doubles   int
	chars     []rune
	hideMouse bool
}

// NewInput wires pointer input to m. sizer may be nil, in which case the
// crosshair is not drawn.
func NewInput(m *Machine, sizer SurfaceSizer, hideMouse bool) *Input {
	return &Input{m: m, sizer: sizer, now: time.Now, hideMouse: hideMouse}
}

// HandleMouseButton records button state. It never consumes the event so
// window handling still sees it.
func (in *Input) HandleMouseButton(button int, down bool, x, y int) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if button < 0 || button >= len(in.buttons) {
		return false
	}
	if down && !in.buttons[button] {
		in.presses++
	}
	in.buttons[button] = down
	return false
}

// ShouldHideMouse is true when hiding is enabled and the pointer has been
// idle for HideAfter.
func (in *Input) ShouldHideMouse() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.hideMouse && in.now().Sub(in.lastMove) >= HideAfter
}

func (in *Input) MouseMove(surface platform.SurfaceID, x, y int) {
	in.mu.Lock()
	in.lastMove = in.now()
	in.mu.Unlock()

	if in.sizer == nil {
		return
	}
	b, err := in.sizer.Bounds(surface)
	if err != nil || b.Width <= 0 || b.Height <= 0 {
		return
	}
	in.m.SetPointer(float64(x)/float64(b.Width), float64(y)/float64(b.Height))
}

func (in *Input) MouseLeave(platform.SurfaceID) { in.m.HidePointer() }

func (in *Input) MouseDown(platform.SurfaceID, int, int) {}

func (in *Input) MouseUp(platform.SurfaceID, int, int) {}

func (in *Input) DoubleClick(platform.SurfaceID, int, int) {
	in.mu.Lock()
	in.doubles++
	fn := in.OnDoubleClick
	in.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (in *Input) Char(_ platform.SurfaceID, r rune) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.chars = append(in.chars, r)
	if len(in.chars) > 64 {
		in.chars = in.chars[len(in.chars)-64:]
	}
}

// Pressed reports whether button is currently held.
func (in *Input) Pressed(button int) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return button >= 0 && button < len(in.buttons) && in.buttons[button]
}

// Clicks returns the number of button presses and double clicks seen.
func (in *Input) Clicks() (presses, doubles int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.presses, in.doubles
}

// Typed returns the most recent characters.
func (in *Input) Typed() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return string(in.chars)
}
