// Package platformtest provides in-memory platform and render collaborators
// for coordinator tests.
package platformtest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
)

// Surface is the recorded state of one fake surface.
type Surface struct {
	Options    platform.SurfaceOptions
	Bounds     platform.Rect
	Visible    bool
	Fullscreen bool
	Iconic     bool
	Title      string
	Fills      []uint32
}

// WindowSystem is a fake platform window layer.
type WindowSystem struct {
	// StartErr is returned from Start.
	StartErr error
	// CreateErr is returned from CreateSurface.
	CreateErr error

	mu            sync.Mutex
	next          platform.SurfaceID
	surfaces      map[platform.SurfaceID]*Surface
	destroyed     []platform.SurfaceID
	focused       platform.SurfaceID
	cursorVisible bool
	cursorChanges int
	post          func(platform.Event)
	started       bool
	stopped       bool
	defaults      []platform.Event
}

// NewWindowSystem returns an empty fake window system.
func NewWindowSystem() *WindowSystem {
	return &WindowSystem{
		surfaces:      make(map[platform.SurfaceID]*Surface),
		cursorVisible: true,
	}
}

func (ws *WindowSystem) CreateSurface(opts platform.SurfaceOptions) (platform.SurfaceID, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.CreateErr != nil {
		return 0, ws.CreateErr
	}
	ws.next++
	ws.surfaces[ws.next] = &Surface{Options: opts, Bounds: opts.Bounds, Title: opts.Title, Fullscreen: opts.Fullscreen}
	return ws.next, nil
}

func (ws *WindowSystem) DestroySurface(id platform.SurfaceID) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if _, ok := ws.surfaces[id]; !ok {
		return fmt.Errorf("surface %d not found", id)
	}
	delete(ws.surfaces, id)
	ws.destroyed = append(ws.destroyed, id)
	if ws.focused == id {
		ws.focused = 0
	}
	return nil
}

func (ws *WindowSystem) with(id platform.SurfaceID, fn func(*Surface)) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	s, ok := ws.surfaces[id]
	if !ok {
		return fmt.Errorf("surface %d not found", id)
	}
	fn(s)
	return nil
}

func (ws *WindowSystem) Show(id platform.SurfaceID) error {
	return ws.with(id, func(s *Surface) { s.Visible = true })
}

func (ws *WindowSystem) Hide(id platform.SurfaceID) error {
	return ws.with(id, func(s *Surface) { s.Visible = false })
}

func (ws *WindowSystem) MoveResize(id platform.SurfaceID, bounds platform.Rect) error {
	return ws.with(id, func(s *Surface) { s.Bounds = bounds })
}

func (ws *WindowSystem) Bounds(id platform.SurfaceID) (platform.Rect, error) {
	var r platform.Rect
	err := ws.with(id, func(s *Surface) { r = s.Bounds })
	return r, err
}

func (ws *WindowSystem) Iconic(id platform.SurfaceID) bool {
	var iconic bool
	_ = ws.with(id, func(s *Surface) { iconic = s.Iconic })
	return iconic
}

func (ws *WindowSystem) SetFullscreenState(id platform.SurfaceID, fullscreen bool) error {
	return ws.with(id, func(s *Surface) { s.Fullscreen = fullscreen })
}

func (ws *WindowSystem) Fill(id platform.SurfaceID, rgb uint32) error {
	return ws.with(id, func(s *Surface) { s.Fills = append(s.Fills, rgb) })
}

func (ws *WindowSystem) Focus(id platform.SurfaceID) error {
	return ws.with(id, func(*Surface) { ws.focused = id })
}

func (ws *WindowSystem) FocusedSurface() platform.SurfaceID {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.focused
}

func (ws *WindowSystem) SetCursorVisible(visible bool) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.cursorVisible != visible {
		ws.cursorChanges++
	}
	ws.cursorVisible = visible
	return nil
}

func (ws *WindowSystem) Start(post func(platform.Event)) error {
	if ws.StartErr != nil {
		return ws.StartErr
	}
	ws.mu.Lock()
	ws.post = post
	ws.started = true
	ws.mu.Unlock()
	return nil
}

func (ws *WindowSystem) Stop() {
	ws.mu.Lock()
	ws.stopped = true
	ws.mu.Unlock()
}

func (ws *WindowSystem) DefaultHandle(ev platform.Event) {
	ws.mu.Lock()
	ws.defaults = append(ws.defaults, ev)
	ws.mu.Unlock()
}

// Emit delivers ev through the callback handed to Start.
func (ws *WindowSystem) Emit(ev platform.Event) {
	ws.mu.Lock()
	post := ws.post
	ws.mu.Unlock()
	if post == nil {
		panic("platformtest: Emit before Start")
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	post(ev)
}

// Surface returns a copy of the surface state.
func (ws *WindowSystem) Surface(id platform.SurfaceID) (Surface, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	s, ok := ws.surfaces[id]
	if !ok {
		return Surface{}, false
	}
	out := *s
	out.Fills = append([]uint32(nil), s.Fills...)
	return out, true
}

// SetIconic marks a surface as minimized by the window manager.
func (ws *WindowSystem) SetIconic(id platform.SurfaceID, iconic bool) {
	_ = ws.with(id, func(s *Surface) { s.Iconic = iconic })
}

// Destroyed lists destroyed surfaces in order.
func (ws *WindowSystem) Destroyed() []platform.SurfaceID {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]platform.SurfaceID(nil), ws.destroyed...)
}

// Live is the number of surfaces not yet destroyed.
func (ws *WindowSystem) Live() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.surfaces)
}

// CursorVisible reports the cursor state and how often it changed.
func (ws *WindowSystem) CursorVisible() (bool, int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.cursorVisible, ws.cursorChanges
}

// Started reports whether Start succeeded and Stop was called.
func (ws *WindowSystem) Started() (started, stopped bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.started, ws.stopped
}

// Defaults lists events passed to DefaultHandle.
func (ws *WindowSystem) Defaults() []platform.Event {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]platform.Event(nil), ws.defaults...)
}

// Monitors is a fixed monitor layout.
type Monitors struct {
	Displays []platform.Display
}

// SingleMonitor returns a 1920x1080 layout.
func SingleMonitor() *Monitors {
	return &Monitors{Displays: []platform.Display{{
		ID:     0,
		Name:   "FAKE-1",
		Bounds: platform.Rect{Width: 1920, Height: 1080},
		Usable: platform.Rect{Width: 1920, Height: 1040},
	}}}
}

func (m *Monitors) Refresh() error { return nil }

func (m *Monitors) Monitors() []platform.Display {
	return append([]platform.Display(nil), m.Displays...)
}

func (m *Monitors) Primary() platform.Display {
	if len(m.Displays) == 0 {
		return platform.Display{}
	}
	return m.Displays[0]
}

func (m *Monitors) MonitorFor(bounds platform.Rect) platform.Display {
	return platform.DisplayFor(m.Displays, m.Primary(), bounds)
}

// Input records filter calls and pointer events.
type Input struct {
	// Consume decides whether HandleMouseButton swallows a button.
	Consume func(button int, down bool) bool
	// HideMouse is returned from ShouldHideMouse.
	HideMouse bool

	mu      sync.Mutex
	buttons []string
	ui      []string
}

func (in *Input) HandleMouseButton(button int, down bool, x, y int) bool {
	in.mu.Lock()
	in.buttons = append(in.buttons, fmt.Sprintf("%d:%t", button, down))
	in.mu.Unlock()
	return in.Consume != nil && in.Consume(button, down)
}

func (in *Input) ShouldHideMouse() bool { return in.HideMouse }

func (in *Input) record(format string, args ...any) {
	in.mu.Lock()
	in.ui = append(in.ui, fmt.Sprintf(format, args...))
	in.mu.Unlock()
}

func (in *Input) MouseMove(_ platform.SurfaceID, x, y int)   { in.record("move %d,%d", x, y) }
func (in *Input) MouseLeave(platform.SurfaceID)              { in.record("leave") }
func (in *Input) MouseDown(_ platform.SurfaceID, x, y int)   { in.record("down %d,%d", x, y) }
func (in *Input) MouseUp(_ platform.SurfaceID, x, y int)     { in.record("up %d,%d", x, y) }
func (in *Input) DoubleClick(_ platform.SurfaceID, x, y int) { in.record("double %d,%d", x, y) }
func (in *Input) Char(_ platform.SurfaceID, r rune)          { in.record("char %c", r) }

// Buttons lists HandleMouseButton calls as "button:down".
func (in *Input) Buttons() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.buttons...)
}

// UI lists pointer and character events in order.
func (in *Input) UI() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.ui...)
}

// Machine records pause and resume calls.
type Machine struct {
	mu     sync.Mutex
	paused bool
	calls  []string
	exits  int
}

func (m *Machine) Pause() {
	m.mu.Lock()
	m.paused = true
	m.calls = append(m.calls, "pause")
	m.mu.Unlock()
}

func (m *Machine) Resume() {
	m.mu.Lock()
	m.paused = false
	m.calls = append(m.calls, "resume")
	m.mu.Unlock()
}

func (m *Machine) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Machine) RequestExit() {
	m.mu.Lock()
	m.exits++
	m.mu.Unlock()
}

// SetPaused changes the paused flag without recording a call.
func (m *Machine) SetPaused(p bool) {
	m.mu.Lock()
	m.paused = p
	m.mu.Unlock()
}

// Calls lists "pause" and "resume" in call order.
func (m *Machine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Exits counts RequestExit calls.
func (m *Machine) Exits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exits
}

// Target is a render target producing one primitive per frame.
type Target struct {
	mu          sync.Mutex
	frame       uint64
	view        int
	orientation int
	layer       uint32
	minW, minH  int
	released    bool
}

// NewTarget returns a target whose minimum size is w x h.
func NewTarget(w, h int) *Target {
	return &Target{minW: w, minH: h}
}

func (t *Target) Primitives(width, height int) *render.PrimitiveList {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frame++
	return &render.PrimitiveList{
		Frame:      t.frame,
		Width:      width,
		Height:     height,
		Background: render.Background,
	}
}

func (t *Target) View() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

func (t *Target) Orientation() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.orientation
}

func (t *Target) LayerConfig() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layer
}

func (t *Target) MinSize() (int, int) { return t.minW, t.minH }

func (t *Target) Release() {
	t.mu.Lock()
	t.released = true
	t.mu.Unlock()
}

// SetView changes the view index.
func (t *Target) SetView(v int) {
	t.mu.Lock()
	t.view = v
	t.mu.Unlock()
}

// Released reports whether Release was called.
func (t *Target) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// DrawCall is one recorded Renderer.Draw.
type DrawCall struct {
	Window  int
	Surface platform.SurfaceID
	Full    bool
	Frame   uint64
	Empty   bool
}

// ErrCreate is returned by renderers when Backend.FailCreate says so.
var ErrCreate = errors.New("renderer create failed")

// Backend is a render backend recording every draw.
type Backend struct {
	// FailCreate makes Create fail for the given window index and call
	// number (1-based per window).
	FailCreate func(window, attempt int) bool

	mu       sync.Mutex
	draws    []DrawCall
	creates  map[int]int
	destroys int
	exits    int
	saves    int
	fx       bool
	rec      bool
}

// NewBackend returns a recording backend.
func NewBackend() *Backend {
	return &Backend{creates: make(map[int]int)}
}

func (b *Backend) Name() string { return "fake" }

func (b *Backend) NewRenderer(view render.View) render.Renderer {
	return &renderer{b: b, view: view}
}

func (b *Backend) Exit() {
	b.mu.Lock()
	b.exits++
	b.mu.Unlock()
}

// Draws lists draw calls in order.
func (b *Backend) Draws() []DrawCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DrawCall(nil), b.draws...)
}

// Counts reports renderer lifecycle counters.
func (b *Backend) Counts() (creates, destroys, exits, saves int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.creates {
		creates += n
	}
	return creates, b.destroys, b.exits, b.saves
}

type renderer struct {
	b    *Backend
	view render.View
}

func (r *renderer) Create() error {
	r.b.mu.Lock()
	r.b.creates[r.view.Index()]++
	attempt := r.b.creates[r.view.Index()]
	fail := r.b.FailCreate
	r.b.mu.Unlock()
	if fail != nil && fail(r.view.Index(), attempt) {
		return ErrCreate
	}
	return nil
}

func (r *renderer) Destroy() {
	r.b.mu.Lock()
	r.b.destroys++
	r.b.mu.Unlock()
}

func (r *renderer) Draw(surface platform.SurfaceID, full bool) error {
	call := DrawCall{Window: r.view.Index(), Surface: surface, Full: full, Empty: true}
	if list := r.view.CurrentPrimitives(); list != nil {
		call.Frame = list.Frame
		call.Empty = len(list.Prims) == 0
	}
	r.b.mu.Lock()
	r.b.draws = append(r.b.draws, call)
	r.b.mu.Unlock()
	return nil
}

func (r *renderer) Primitives() *render.PrimitiveList {
	t := r.view.Target()
	if t == nil {
		return nil
	}
	w, h := r.view.ClientSize()
	return t.Primitives(w, h)
}

func (r *renderer) Save() (string, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	r.b.saves++
	return fmt.Sprintf("snap-w%d-%04d.png", r.view.Index(), r.b.saves), nil
}

func (r *renderer) Record() (bool, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	r.b.rec = !r.b.rec
	return r.b.rec, nil
}

func (r *renderer) ToggleFX() bool {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	r.b.fx = !r.b.fx
	return r.b.fx
}
