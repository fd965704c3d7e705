package osd

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/platform/platformtest"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/window"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeHotkeys struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeHotkeys) Dispatch(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return name != "unbound"
}

func (f *fakeHotkeys) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

type harness struct {
	ws      *platformtest.WindowSystem
	input   *platformtest.Input
	machine *platformtest.Machine
	backend *platformtest.Backend
	hotkeys *fakeHotkeys
	clock   *fakeClock

	mu      sync.Mutex
	targets []*platformtest.Target

	c *Coordinator
}

func modeName(dual bool) string {
	if dual {
		return "dual"
	}
	return "single"
}

func newHarness(t *testing.T, dual bool, mutate ...func(*harness, *Config)) *harness {
	t.Helper()
	h := &harness{
		ws:      platformtest.NewWindowSystem(),
		input:   &platformtest.Input{},
		machine: &platformtest.Machine{},
		backend: platformtest.NewBackend(),
		hotkeys: &fakeHotkeys{},
		clock:   newFakeClock(),
	}
	cfg := Config{
		Multithreading: dual,
		Windows:        h.ws,
		Monitors:       platformtest.SingleMonitor(),
		Input:          h.input,
		Machine:        h.machine,
		Backend:        h.backend,
		Hotkeys:        h.hotkeys,
		NewTarget: func(int) render.Target {
			tg := platformtest.NewTarget(320, 240)
			h.mu.Lock()
			h.targets = append(h.targets, tg)
			h.mu.Unlock()
			return tg
		},
		Logger: slog.New(slog.DiscardHandler),
		Now:    h.clock.Now,
	}
	for _, m := range mutate {
		m(h, &cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.c = c
	t.Cleanup(func() {
		if c.State() == StateRunning {
			_ = c.Shutdown()
		}
	})
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func (h *harness) create(t *testing.T) (window.Handle, *window.Window) {
	t.Helper()
	handle, err := h.c.CreateWindow(window.Options{Title: "test"})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	w, ok := h.c.Registry().Get(handle)
	if !ok {
		t.Fatalf("window %s not registered", handle)
	}
	return handle, w
}

// flushPump returns once the pump has handled everything posted before it.
func flushPump(t *testing.T, c *Coordinator) {
	t.Helper()
	done := make(chan struct{})
	if err := c.toPump(ExecFunc{Fn: func(any) { close(done) }}); err != nil {
		t.Fatalf("post barrier: %v", err)
	}
	c.await(done)
}

// pumpUntil drains the simulation mailbox until cond holds.
func pumpUntil(t *testing.T, c *Coordinator, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		c.PumpEvents(true)
		time.Sleep(time.Millisecond)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	ws := platformtest.NewWindowSystem()
	m := &platformtest.Machine{}
	b := platformtest.NewBackend()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no windows", cfg: Config{Machine: m, Backend: b}},
		{name: "no machine", cfg: Config{Windows: ws, Backend: b}},
		{name: "no backend", cfg: Config{Windows: ws, Machine: m}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStartFailureIsFatal(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.ws.StartErr = errors.New("no display")

			err := h.c.Start()
			var fatal *FatalStartupError
			if !errors.As(err, &fatal) {
				t.Fatalf("Start error = %v, want FatalStartupError", err)
			}
			if h.c.State() != StateTerminated {
				t.Fatalf("state = %s, want terminated", h.c.State())
			}
		})
	}
}

func TestLifecycleTransitions(t *testing.T) {
	h := newHarness(t, true)
	if err := h.c.Shutdown(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Shutdown before Start = %v, want ErrInvalidState", err)
	}
	h.start(t)
	if err := h.c.Start(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second Start = %v, want ErrInvalidState", err)
	}
	if h.c.State() != StateRunning {
		t.Fatalf("state = %s, want running", h.c.State())
	}
	if err := h.c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if h.c.State() != StateTerminated {
		t.Fatalf("state = %s, want terminated", h.c.State())
	}
	if _, err := h.c.CreateWindow(window.Options{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("CreateWindow after shutdown = %v, want ErrInvalidState", err)
	}
}

func TestCreateWindowBecomesReady(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.start(t)
			_, w := h.create(t)

			if w.InitState() != window.InitReady {
				t.Fatalf("init state = %s, want ready", w.InitState())
			}
			if w.Surface() == 0 {
				t.Fatal("surface not associated")
			}
			if w.Renderer() == nil {
				t.Fatal("renderer not created")
			}
			s, ok := h.ws.Surface(w.Surface())
			if !ok {
				t.Fatal("surface missing from window system")
			}
			if !s.Visible {
				t.Fatal("surface not shown")
			}
			if len(s.Fills) == 0 || s.Fills[0] != render.Background {
				t.Fatalf("fills = %v, want initial background fill", s.Fills)
			}
			// Default windows start at their minimum size.
			if s.Bounds.Width != 320 || s.Bounds.Height != 240 {
				t.Fatalf("bounds = %+v, want 320x240", s.Bounds)
			}
			if minimized, _ := w.MinMax(); !minimized {
				t.Fatal("window should report minimized size")
			}
			if w.CompleteInit(window.InitFailed, nil) {
				t.Fatal("init state changed twice")
			}
		})
	}
}

func TestCreateWindowFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		cause error
	}{
		{
			name:  "surface",
			setup: func(h *harness) { h.ws.CreateErr = errors.New("bad visual") },
		},
		{
			name: "renderer",
			setup: func(h *harness) {
				h.backend.FailCreate = func(int, int) bool { return true }
			},
			cause: platformtest.ErrCreate,
		},
	}
	for _, tt := range tests {
		for _, dual := range []bool{false, true} {
			t.Run(tt.name+"/"+modeName(dual), func(t *testing.T) {
				h := newHarness(t, dual)
				tt.setup(h)
				h.start(t)

				_, err := h.c.CreateWindow(window.Options{})
				if !errors.Is(err, ErrWindowCreationFailed) {
					t.Fatalf("CreateWindow = %v, want ErrWindowCreationFailed", err)
				}
				if tt.cause != nil && !errors.Is(err, tt.cause) {
					t.Fatalf("CreateWindow = %v, want cause %v", err, tt.cause)
				}
				if h.c.Registry().Len() != 0 {
					t.Fatalf("registry has %d windows after failure", h.c.Registry().Len())
				}
				if live := h.ws.Live(); live != 0 {
					t.Fatalf("%d surfaces leaked", live)
				}
			})
		}
	}
}

func TestUpdateWithoutPrimitivesDraws(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.start(t)
			handle, w := h.create(t)
			if w.CurrentPrimitives() != nil {
				t.Fatal("new window already has primitives")
			}

			if err := h.c.UpdateWindow(handle); err != nil {
				t.Fatalf("UpdateWindow: %v", err)
			}
			flushPump(t, h.c)

			draws := h.backend.Draws()
			if len(draws) != 1 {
				t.Fatalf("draws = %d, want 1", len(draws))
			}
			if !draws[0].Empty || draws[0].Full {
				t.Fatalf("draw = %+v, want empty partial draw", draws[0])
			}
			if got := h.c.Stats(); got.FramesQueued != 1 || got.FramesDrawn != 1 {
				t.Fatalf("stats = %+v", got)
			}
		})
	}
}

func TestExposeBeforeFirstFrameFillsBackground(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	_, w := h.create(t)
	before, _ := h.ws.Surface(w.Surface())

	h.ws.Emit(platform.Event{Kind: platform.EventExpose, Surface: w.Surface()})
	h.c.PumpEvents(false)

	after, _ := h.ws.Surface(w.Surface())
	if len(after.Fills) != len(before.Fills)+1 {
		t.Fatalf("fills %d -> %d, want one more", len(before.Fills), len(after.Fills))
	}
	if len(h.backend.Draws()) != 0 {
		t.Fatal("renderer drew without primitives")
	}
}

func TestUpdateSkipsWhileLockHeld(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.start(t)
			handle, w := h.create(t)

			if err := h.c.UpdateWindow(handle); err != nil {
				t.Fatalf("UpdateWindow: %v", err)
			}
			flushPump(t, h.c)

			w.Lock().Acquire()
			h.clock.Advance(10 * time.Millisecond)

			done := make(chan error, 1)
			go func() { done <- h.c.UpdateWindow(handle) }()
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("UpdateWindow: %v", err)
				}
			case <-time.After(5 * time.Second):
				w.Lock().Release()
				t.Fatal("UpdateWindow blocked on a held lock")
			}
			w.Lock().Release()

			if got := h.c.Stats(); got.FramesSkipped != 1 || got.FramesQueued != 1 {
				t.Fatalf("stats = %+v, want 1 queued and 1 skipped", got)
			}
		})
	}
}

func TestUpdateBlocksWhenStale(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	handle, w := h.create(t)

	if err := h.c.UpdateWindow(handle); err != nil {
		t.Fatalf("UpdateWindow: %v", err)
	}
	w.Lock().Acquire()
	h.clock.Advance(300 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- h.c.UpdateWindow(handle) }()
	select {
	case <-done:
		t.Fatal("stale update did not wait for the lock")
	case <-time.After(50 * time.Millisecond):
	}
	w.Lock().Release()
	if err := <-done; err != nil {
		t.Fatalf("UpdateWindow: %v", err)
	}
	if got := h.c.Stats(); got.FramesSkipped != 0 || got.FramesQueued != 2 {
		t.Fatalf("stats = %+v, want 2 queued", got)
	}
}

func TestModesProduceSameDraws(t *testing.T) {
	run := func(dual bool) []platformtest.DrawCall {
		h := newHarness(t, dual, func(_ *harness, cfg *Config) { cfg.Throttle = true })
		h.start(t)
		first, _ := h.create(t)
		second, _ := h.create(t)
		for i := 0; i < 5; i++ {
			for _, handle := range []window.Handle{first, second} {
				if err := h.c.UpdateWindow(handle); err != nil {
					t.Fatalf("UpdateWindow: %v", err)
				}
			}
			h.clock.Advance(16 * time.Millisecond)
		}
		if err := h.c.Shutdown(); err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
		draws := h.backend.Draws()
		// Surface ids are allocated identically in both modes.
		return draws
	}

	single, dual := run(false), run(true)
	if len(single) != 10 {
		t.Fatalf("single-thread draws = %d, want 10", len(single))
	}
	if len(single) != len(dual) {
		t.Fatalf("draw counts differ: single %d, dual %d", len(single), len(dual))
	}
	for i := range single {
		if single[i] != dual[i] {
			t.Fatalf("draw %d differs: single %+v, dual %+v", i, single[i], dual[i])
		}
	}
}

func TestDestroyWindow(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.start(t)
			handle, w := h.create(t)
			surface := w.Surface()

			if err := h.c.DestroyWindow(handle); err != nil {
				t.Fatalf("DestroyWindow: %v", err)
			}
			if _, ok := h.c.Registry().Get(handle); ok {
				t.Fatal("window still registered")
			}
			if w.Surface() != 0 || w.Renderer() != nil {
				t.Fatal("destroy notification did not clear surface and renderer")
			}
			if got := h.ws.Destroyed(); len(got) != 1 || got[0] != surface {
				t.Fatalf("destroyed = %v, want [%d]", got, surface)
			}
			if !h.targets[0].Released() {
				t.Fatal("render target not released")
			}
			if err := h.c.DestroyWindow(handle); !errors.Is(err, ErrUnknownWindow) {
				t.Fatalf("second DestroyWindow = %v, want ErrUnknownWindow", err)
			}

			// Late events for the dead surface go to default handling.
			h.ws.Emit(platform.Event{Kind: platform.EventExpose, Surface: surface})
			flushPump(t, h.c)
			h.c.PumpEvents(true)
			if len(h.ws.Defaults()) != 1 {
				t.Fatalf("defaults = %v, want the late expose", h.ws.Defaults())
			}
		})
	}
}

func TestShutdownJoinsPump(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	h.create(t)
	h.create(t)

	done := make(chan error, 1)
	go func() { done <- h.c.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not join the pump")
	}

	if _, stopped := h.ws.Started(); !stopped {
		t.Fatal("event source not stopped")
	}
	if h.ws.Live() != 0 {
		t.Fatalf("%d surfaces left", h.ws.Live())
	}
	if _, _, exits, _ := h.backend.Counts(); exits != 1 {
		t.Fatalf("backend exits = %d, want 1", exits)
	}
	if got := h.ws.Destroyed(); len(got) != 2 || got[0] > got[1] {
		t.Fatalf("destroy order = %v, want registry order", got)
	}
}

func TestTargetlessSelfTerminateExitsLoop(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)

	if err := h.c.pumpBox.Post(SelfTerminate{}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	select {
	case <-h.c.pumpDone:
	case <-time.After(5 * time.Second):
		t.Fatal("pump loop did not exit")
	}
}

func TestRequestsFailAfterPumpExits(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	handle, _ := h.create(t)

	if err := h.c.pumpBox.Post(SelfTerminate{}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	select {
	case <-h.c.pumpDone:
	case <-time.After(5 * time.Second):
		t.Fatal("pump loop did not exit")
	}

	errc := make(chan error, 1)
	go func() { errc <- h.c.SetFullscreen(handle, true) }()
	select {
	case err := <-errc:
		if !errors.Is(err, ErrPumpStopped) {
			t.Fatalf("SetFullscreen error = %v, want ErrPumpStopped", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("SetFullscreen blocked after the pump exited")
	}

	if _, err := h.c.CreateWindow(window.Options{Title: "late"}); !errors.Is(err, ErrWindowCreationFailed) {
		t.Fatalf("CreateWindow error = %v, want ErrWindowCreationFailed", err)
	}

	done := make(chan error, 1)
	go func() { done <- h.c.Shutdown() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown blocked after the pump exited")
	}
	if got := h.c.State(); got != StateTerminated {
		t.Fatalf("state = %s, want terminated", got)
	}
}

func TestEventFilter(t *testing.T) {
	h := newHarness(t, false)
	h.input.Consume = func(button int, down bool) bool { return button == 1 }
	h.start(t)
	_, w := h.create(t)
	id := w.Surface()

	events := []platform.Event{
		{Kind: platform.EventSysKeyDown, Surface: id},
		{Kind: platform.EventSysKeyUp, Surface: 0},
		{Kind: platform.EventButtonDown, Surface: id, Button: 1, X: 1, Y: 1},
		{Kind: platform.EventButtonDown, Surface: id, Button: 0, X: 5, Y: 6},
		{Kind: platform.EventButtonUp, Surface: id, Button: 0, X: 5, Y: 6},
		{Kind: platform.EventMouseMove, Surface: id, X: 7, Y: 8},
		{Kind: platform.EventChar, Surface: id, Rune: 'q'},
		{Kind: platform.EventExpose, Surface: 999},
		{Kind: platform.EventHotkey, Hotkey: "snapshot"},
		{Kind: platform.EventHotkey, Hotkey: "unbound"},
	}
	for _, ev := range events {
		h.ws.Emit(ev)
	}
	h.c.PumpEvents(false)

	wantButtons := []string{"1:true", "0:true", "0:false"}
	if got := h.input.Buttons(); !equalStrings(got, wantButtons) {
		t.Fatalf("buttons = %v, want %v", got, wantButtons)
	}
	wantUI := []string{"down 5,6", "up 5,6", "move 7,8", "char q"}
	if got := h.input.UI(); !equalStrings(got, wantUI) {
		t.Fatalf("ui = %v, want %v", got, wantUI)
	}
	if got := h.hotkeys.Names(); !equalStrings(got, []string{"snapshot", "unbound"}) {
		t.Fatalf("hotkeys = %v", got)
	}

	defaults := h.ws.Defaults()
	if len(defaults) != 2 {
		t.Fatalf("defaults = %+v, want foreign expose and unbound hotkey", defaults)
	}
	if defaults[0].Surface != 999 || defaults[1].Hotkey != "unbound" {
		t.Fatalf("defaults = %+v", defaults)
	}
}

func TestDoubleClick(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	_, w := h.create(t)
	at := time.Now()

	h.ws.Emit(platform.Event{Kind: platform.EventButtonDown, Surface: w.Surface(), X: 10, Y: 10, Time: at})
	h.ws.Emit(platform.Event{Kind: platform.EventButtonDown, Surface: w.Surface(), X: 12, Y: 9, Time: at.Add(100 * time.Millisecond)})
	h.ws.Emit(platform.Event{Kind: platform.EventButtonDown, Surface: w.Surface(), X: 12, Y: 9, Time: at.Add(time.Second)})
	h.c.PumpEvents(false)

	want := []string{"down 10,10", "down 12,9", "double 12,9", "down 12,9"}
	if got := h.input.UI(); !equalStrings(got, want) {
		t.Fatalf("ui = %v, want %v", got, want)
	}
}

func TestSizeMovePausesSimulation(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.start(t)
			_, w := h.create(t)

			h.ws.Emit(platform.Event{Kind: platform.EventEnterSizeMove, Surface: w.Surface()})
			pumpUntil(t, h.c, h.machine.IsPaused)
			if h.c.PauseDepth() != 1 {
				t.Fatalf("depth = %d, want 1", h.c.PauseDepth())
			}

			h.ws.Emit(platform.Event{Kind: platform.EventExitSizeMove, Surface: w.Surface()})
			watchdog := time.AfterFunc(5*time.Second, func() { _ = h.c.RequestExit() })
			h.c.PumpEvents(false)
			watchdog.Stop()
			if h.machine.Exits() != 0 {
				t.Fatal("PumpEvents did not return after the pause ended")
			}
			flushPump(t, h.c)

			if h.c.PauseDepth() != 0 {
				t.Fatalf("depth = %d, want 0", h.c.PauseDepth())
			}
			if got := h.machine.Calls(); !equalStrings(got, []string{"pause", "resume"}) {
				t.Fatalf("machine calls = %v", got)
			}
			if w.ResizeState() != window.ResizeIdle {
				t.Fatalf("resize state = %s, want idle after redraw", w.ResizeState())
			}
		})
	}
}

func TestSizeMoveTracksMonitor(t *testing.T) {
	monitors := &platformtest.Monitors{Displays: []platform.Display{
		{ID: 0, Name: "LEFT", Bounds: platform.Rect{Width: 1920, Height: 1080}, Usable: platform.Rect{Width: 1920, Height: 1040}},
		{ID: 1, Name: "RIGHT", Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}, Usable: platform.Rect{X: 1920, Width: 1280, Height: 1000}},
	}}
	h := newHarness(t, false, func(_ *harness, cfg *Config) { cfg.Monitors = monitors })
	h.start(t)
	_, w := h.create(t)
	if got := w.Monitor().Name; got != "LEFT" {
		t.Fatalf("initial monitor = %q, want LEFT", got)
	}

	if err := h.ws.MoveResize(w.Surface(), platform.Rect{X: 2000, Y: 100, Width: 640, Height: 480}); err != nil {
		t.Fatalf("MoveResize: %v", err)
	}
	h.ws.Emit(platform.Event{Kind: platform.EventEnterSizeMove, Surface: w.Surface()})
	h.ws.Emit(platform.Event{Kind: platform.EventExitSizeMove, Surface: w.Surface()})
	watchdog := time.AfterFunc(5*time.Second, func() { _ = h.c.RequestExit() })
	h.c.PumpEvents(false)
	watchdog.Stop()

	if got := w.Monitor().Name; got != "RIGHT" {
		t.Fatalf("monitor after move = %q, want RIGHT", got)
	}
	if got := h.c.maxBounds(w); got.X < 1920 || got.Width != 1280 {
		t.Fatalf("max bounds = %+v, want the RIGHT work area", got)
	}
}

func TestMenuLoopKeepsUserPause(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.create(t)
	h.machine.SetPaused(true)

	h.c.ToggleMenuLoop()
	if h.c.PauseDepth() != 1 || !h.c.UIPaused() {
		t.Fatalf("depth = %d uiPaused = %t", h.c.PauseDepth(), h.c.UIPaused())
	}
	h.c.ToggleMenuLoop()
	if h.c.PauseDepth() != 0 {
		t.Fatalf("depth = %d, want 0", h.c.PauseDepth())
	}
	if !h.machine.IsPaused() {
		t.Fatal("menu loop resumed a pause it did not own")
	}
	if len(h.machine.Calls()) != 0 {
		t.Fatalf("machine calls = %v, want none", h.machine.Calls())
	}
}

func TestCloseRequestsExit(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.start(t)
			_, w := h.create(t)

			h.ws.Emit(platform.Event{Kind: platform.EventClose, Surface: w.Surface()})
			pumpUntil(t, h.c, func() bool { return h.machine.Exits() == 1 })
		})
	}
}

func TestExecOnSimulationFromPump(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)

	var (
		mu  sync.Mutex
		got any
	)
	err := h.c.toPump(ExecFunc{Fn: func(any) {
		h.c.ExecOnSimulation(func(arg any) {
			mu.Lock()
			got = arg
			mu.Unlock()
		}, 42)
	}})
	if err != nil {
		t.Fatalf("toPump: %v", err)
	}
	pumpUntil(t, h.c, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got == 42
	})
}

func TestPumpEventsPeriodic(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	runs := 0
	submit := func() {
		if err := h.c.Submit(func() { runs++ }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	submit()
	h.c.PumpEventsPeriodic()
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}

	submit()
	h.clock.Advance(50 * time.Millisecond)
	h.c.PumpEventsPeriodic()
	if runs != 1 {
		t.Fatalf("runs = %d, want 1 inside the interval", runs)
	}

	h.clock.Advance(100 * time.Millisecond)
	h.c.PumpEventsPeriodic()
	if runs != 2 {
		t.Fatalf("runs = %d, want 2 after the interval", runs)
	}
}

func TestSetFullscreen(t *testing.T) {
	for _, dual := range []bool{false, true} {
		t.Run(modeName(dual), func(t *testing.T) {
			h := newHarness(t, dual)
			h.start(t)
			handle, w := h.create(t)
			windowed, _ := h.ws.Bounds(w.Surface())

			if err := h.c.SetFullscreen(handle, true); err != nil {
				t.Fatalf("SetFullscreen(true): %v", err)
			}
			s, _ := h.ws.Surface(w.Surface())
			mon := platformtest.SingleMonitor().Primary().Bounds
			if !s.Fullscreen || s.Bounds != mon || !s.Visible {
				t.Fatalf("surface = %+v, want visible fullscreen on %+v", s, mon)
			}
			if w.NonFullscreenBounds() != windowed {
				t.Fatalf("saved bounds = %+v, want %+v", w.NonFullscreenBounds(), windowed)
			}
			if creates, destroys, _, _ := h.backend.Counts(); creates != 2 || destroys != 1 {
				t.Fatalf("renderer creates=%d destroys=%d, want 2 and 1", creates, destroys)
			}

			if err := h.c.SetFullscreen(handle, false); err != nil {
				t.Fatalf("SetFullscreen(false): %v", err)
			}
			s, _ = h.ws.Surface(w.Surface())
			if s.Fullscreen || s.Bounds != windowed {
				t.Fatalf("surface = %+v, want windowed at %+v", s, windowed)
			}
		})
	}
}

func TestSetFullscreenRendererFailureDegrades(t *testing.T) {
	h := newHarness(t, true)
	h.backend.FailCreate = func(_, attempt int) bool { return attempt == 2 }
	h.start(t)
	handle, w := h.create(t)

	err := h.c.SetFullscreen(handle, true)
	if !errors.Is(err, ErrRendererCreationFailed) {
		t.Fatalf("SetFullscreen = %v, want ErrRendererCreationFailed", err)
	}
	if w.Renderer() != nil {
		t.Fatal("failed renderer kept")
	}
	if h.c.State() != StateRunning {
		t.Fatalf("state = %s, want running", h.c.State())
	}

	before, _ := h.ws.Surface(w.Surface())
	if err := h.c.UpdateWindow(handle); err != nil {
		t.Fatalf("UpdateWindow: %v", err)
	}
	h.ws.Emit(platform.Event{Kind: platform.EventExpose, Surface: w.Surface()})
	flushPump(t, h.c)
	after, _ := h.ws.Surface(w.Surface())
	if len(after.Fills) != len(before.Fills)+1 {
		t.Fatal("expose without renderer did not fill the background")
	}
}

func TestToggleFullScreenFocusesPrimary(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	_, w := h.create(t)

	on, err := h.c.ToggleFullScreen()
	if err != nil || !on {
		t.Fatalf("ToggleFullScreen = %t, %v", on, err)
	}
	if !w.Fullscreen() || !h.c.HasFocus() {
		t.Fatalf("fullscreen=%t focus=%t", w.Fullscreen(), h.c.HasFocus())
	}
	on, err = h.c.ToggleFullScreen()
	if err != nil || on || w.Fullscreen() {
		t.Fatalf("second toggle = %t, %v", on, err)
	}
}

func TestSecondWindowOnSameMonitorIsNotFullscreenSafe(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	_, first := h.create(t)
	handle, second := h.create(t)

	if !first.FullscreenSafe() || second.FullscreenSafe() {
		t.Fatalf("fullscreen safe: first=%t second=%t", first.FullscreenSafe(), second.FullscreenSafe())
	}
	if err := h.c.SetFullscreen(handle, true); err != nil {
		t.Fatalf("SetFullscreen: %v", err)
	}
	s, _ := h.ws.Surface(second.Surface())
	if s.Visible || second.Renderer() != nil {
		t.Fatal("unsafe fullscreen window should stay hidden without a renderer")
	}
}

func TestTargetChangeReappliesMinSize(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	handle, w := h.create(t)
	if err := h.c.UpdateWindow(handle); err != nil {
		t.Fatalf("UpdateWindow: %v", err)
	}

	if err := h.ws.MoveResize(w.Surface(), platform.Rect{X: 20, Y: 20, Width: 500, Height: 500}); err != nil {
		t.Fatalf("MoveResize: %v", err)
	}
	h.targets[0].SetView(1)
	if err := h.c.UpdateWindow(handle); err != nil {
		t.Fatalf("UpdateWindow: %v", err)
	}

	b, _ := h.ws.Bounds(w.Surface())
	if b.Width != 320 || b.Height != 240 {
		t.Fatalf("bounds = %+v, want minimum 320x240", b)
	}
}

func TestCursorHiddenWhileFocused(t *testing.T) {
	h := newHarness(t, false)
	h.input.HideMouse = true
	h.start(t)
	_, w := h.create(t)

	h.c.PumpEvents(false)
	if visible, _ := h.ws.CursorVisible(); !visible {
		t.Fatal("cursor hidden without focus")
	}

	if err := h.ws.Focus(w.Surface()); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	h.c.PumpEvents(false)
	if visible, _ := h.ws.CursorVisible(); visible {
		t.Fatal("cursor visible while focused and running")
	}

	h.machine.SetPaused(true)
	h.c.PumpEvents(false)
	if visible, _ := h.ws.CursorVisible(); !visible {
		t.Fatal("cursor hidden while paused in a window")
	}

	h.machine.SetPaused(false)
	h.c.PumpEvents(false)
	if err := h.c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if visible, _ := h.ws.CursorVisible(); !visible {
		t.Fatal("cursor not restored at shutdown")
	}
}

func TestSnapshotRecordFX(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)
	h.create(t)

	paths, err := h.c.TakeSnapshot()
	if err != nil || len(paths) != 1 {
		t.Fatalf("TakeSnapshot = %v, %v", paths, err)
	}
	if on, err := h.c.ToggleRecording(); err != nil || !on {
		t.Fatalf("ToggleRecording = %t, %v", on, err)
	}
	if !h.c.ToggleFX() {
		t.Fatal("ToggleFX should report enabled")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
