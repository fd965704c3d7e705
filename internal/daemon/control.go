package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/1broseidon/winthread/internal/ipc"
	"github.com/1broseidon/winthread/internal/osd"
	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/window"
)

// ErrTimeout is returned when the simulation did not pick up a request in
// time, usually because it is exiting.
var ErrTimeout = errors.New("simulation did not answer in time")

// Machine is the simulation state the control surface reports on.
type Machine interface {
	platform.Machine
	Ticks() uint64
}

// ControlConfig wires the control surface.
type ControlConfig struct {
	Coordinator *osd.Coordinator
	Machine     Machine
	Monitors    platform.MonitorProvider
	Reloader    *Reloader
	Backend     string
	// Session identifies this run; a random one is generated when empty.
	Session string
	Logger  *slog.Logger
	// Timeout bounds how long a request waits for the simulation.
	Timeout time.Duration
}

// Control answers IPC commands by running them on the simulation goroutine.
type Control struct {
	coord    *osd.Coordinator
	machine  Machine
	monitors platform.MonitorProvider
	reloader *Reloader
	backend  string
	session  string
	logger   *slog.Logger
	timeout  time.Duration
	started  time.Time
	proc     *process.Process
}

var _ ipc.Controller = (*Control)(nil)

// NewControl creates the control surface.
func NewControl(cfg ControlConfig) (*Control, error) {
	if cfg.Coordinator == nil || cfg.Machine == nil {
		return nil, errors.New("control needs a coordinator and a machine")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	session := cfg.Session
	if session == "" {
		session = uuid.New().String()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Debug("process stats unavailable", "error", err)
		proc = nil
	}

	return &Control{
		coord:    cfg.Coordinator,
		machine:  cfg.Machine,
		monitors: cfg.Monitors,
		reloader: cfg.Reloader,
		backend:  cfg.Backend,
		session:  session,
		logger:   logger,
		timeout:  timeout,
		started:  time.Now(),
		proc:     proc,
	}, nil
}

// Session returns the run id.
func (c *Control) Session() string { return c.session }

// onSim runs fn on the simulation goroutine and waits for its result.
func onSim[T any](c *Control, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	err := c.coord.Submit(func() {
		v, err := fn()
		done <- result{v, err}
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("submit to simulation: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.v, r.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

func (c *Control) Status() (ipc.StatusData, error) {
	data, err := onSim(c, func() (ipc.StatusData, error) {
		stats := c.coord.Stats()
		return ipc.StatusData{
			State:         c.coord.State().String(),
			Multithreaded: c.coord.Multithreaded(),
			Throttled:     c.coord.Throttled(),
			Paused:        c.machine.IsPaused(),
			PauseDepth:    c.coord.PauseDepth(),
			Windows:       c.coord.Registry().Len(),
			FramesQueued:  stats.FramesQueued,
			FramesSkipped: stats.FramesSkipped,
			FramesDrawn:   stats.FramesDrawn,
			Ticks:         c.machine.Ticks(),
		}, nil
	})
	if err != nil {
		return data, err
	}

	data.Session = c.session
	data.PID = int32(os.Getpid())
	data.Backend = c.backend
	data.UptimeSeconds = int64(time.Since(c.started).Seconds())
	if c.proc != nil {
		if n, err := c.proc.NumThreads(); err == nil {
			data.OSThreads = n
		}
		if mem, err := c.proc.MemoryInfo(); err == nil {
			data.RSSBytes = mem.RSS
		}
	}
	return data, nil
}

// Pause pauses the machine, or nests a temporary pause when temporary is
// set.
func (c *Control) Pause(temporary bool) error {
	_, err := onSim(c, func() (struct{}, error) {
		if temporary {
			c.coord.RequestPause(true)
		} else {
			c.machine.Pause()
		}
		return struct{}{}, nil
	})
	return err
}

// Resume undoes Pause. Releasing a temporary pause that was never taken is
// an error.
func (c *Control) Resume(temporary bool) error {
	_, err := onSim(c, func() (struct{}, error) {
		if !temporary {
			c.machine.Resume()
			return struct{}{}, nil
		}
		if c.coord.PauseDepth() == 0 {
			return struct{}{}, errors.New("no temporary pause in effect")
		}
		c.coord.RequestPause(false)
		return struct{}{}, nil
	})
	return err
}

func (c *Control) ToggleFullscreen() (bool, error) {
	return onSim(c, c.coord.ToggleFullScreen)
}

func (c *Control) Snapshot() ([]string, error) {
	return onSim(c, c.coord.TakeSnapshot)
}

func (c *Control) ToggleRecording() (bool, error) {
	return onSim(c, c.coord.ToggleRecording)
}

func (c *Control) ToggleFX() (bool, error) {
	return onSim(c, func() (bool, error) {
		return c.coord.ToggleFX(), nil
	})
}

func (c *Control) Windows() ([]ipc.WindowInfo, error) {
	return onSim(c, func() ([]ipc.WindowInfo, error) {
		windows := c.coord.Registry().Windows()
		out := make([]ipc.WindowInfo, 0, len(windows))
		for _, w := range windows {
			out = append(out, windowInfo(w))
		}
		return out, nil
	})
}

func windowInfo(w *window.Window) ipc.WindowInfo {
	width, height := w.ClientSize()
	minimized, maximized := w.MinMax()
	return ipc.WindowInfo{
		Handle:         w.Handle().String(),
		Index:          w.Index(),
		Surface:        uint32(w.Surface()),
		State:          w.InitState().String(),
		Monitor:        w.Monitor().Name,
		Width:          width,
		Height:         height,
		Fullscreen:     w.Fullscreen(),
		FullscreenSafe: w.FullscreenSafe(),
		Minimized:      minimized,
		Maximized:      maximized,
		HasRenderer:    w.Renderer() != nil,
	}
}

func (c *Control) Monitors() ([]ipc.MonitorInfo, error) {
	if c.monitors == nil {
		return nil, errors.New("no monitor provider")
	}
	if err := c.monitors.Refresh(); err != nil {
		return nil, fmt.Errorf("refresh monitors: %w", err)
	}
	primary := c.monitors.Primary()
	displays := c.monitors.Monitors()
	out := make([]ipc.MonitorInfo, 0, len(displays))
	for _, d := range displays {
		out = append(out, ipc.MonitorInfo{
			ID:      d.ID,
			Name:    d.Name,
			Primary: d.ID == primary.ID,
			X:       d.Bounds.X,
			Y:       d.Bounds.Y,
			Width:   d.Bounds.Width,
			Height:  d.Bounds.Height,
			WorkX:   d.Usable.X,
			WorkY:   d.Usable.Y,
			WorkW:   d.Usable.Width,
			WorkH:   d.Usable.Height,
		})
	}
	return out, nil
}

func (c *Control) Reload() (ipc.ReloadData, error) {
	if c.reloader == nil {
		return ipc.ReloadData{}, errors.New("reload is not available")
	}
	return c.reloader.Reload()
}

// Quit asks the simulation to exit and returns without waiting for it.
func (c *Control) Quit() error {
	c.logger.Info("quit requested over IPC")
	return c.coord.RequestExit()
}
