package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/1broseidon/winthread/internal/config"
	"github.com/1broseidon/winthread/internal/daemon"
	"github.com/1broseidon/winthread/internal/hotkeys"
	"github.com/1broseidon/winthread/internal/ipc"
	"github.com/1broseidon/winthread/internal/osd"
	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
	"github.com/1broseidon/winthread/internal/runtimepath"
	"github.com/1broseidon/winthread/internal/sim"
	"github.com/1broseidon/winthread/internal/threadlog"
	"github.com/1broseidon/winthread/internal/window"
)

// boxesPerWindow sizes the demo scene.
const boxesPerWindow = 4

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winthread/config.yaml)")
	windows := fs.Int("windows", 0, "Override num_windows")
	video := fs.String("video", "", "Override video backend (x11|none)")
	single := fs.Bool("single-thread", false, "Run the window pump on the simulation thread")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winthread run [--path PATH] [--windows N] [--video x11|none] [--single-thread]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open the configured windows and run the demo simulation in the foreground.")
		fmt.Fprintln(os.Stderr, "SIGHUP reloads the config; SIGINT/SIGTERM exit.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	configPath := *path
	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			log.Fatalf("Failed to resolve config path: %v", err)
		}
		configPath = p
	}
	res, err := config.LoadFromPath(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// Overrides apply to this run only; the reloader compares against the file.
	cfg := *res.Config
	if *windows > 0 {
		cfg.NumWindows = *windows
	}
	if *video != "" {
		cfg.Video = *video
	}
	if *single {
		cfg.Multithreading = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Printf("Configuration loaded (windows: %d, video: %s, multithreading: %v)", cfg.NumWindows, cfg.Video, cfg.Multithreading)

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel())
	logger := newLogger(level)
	slog.SetDefault(logger)

	session := uuid.New().String()
	logger = logger.With("session", session)

	// Connect to display server
	ws, err := platform.NewX11FromDisplay(logger)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer ws.Disconnect()
	if err := ws.Refresh(); err != nil {
		logger.Warn("monitor query failed", "error", err)
	}

	backend, err := render.Init(cfg.Video, map[string]render.Factory{
		config.VideoX11: render.NewPaintFactory(config.VideoX11, ws),
	}, render.Options{
		SnapshotDir: cfg.SnapshotDir,
		Session:     session,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize rendering: %v", err)
	}

	machine := sim.NewMachine(boxesPerWindow*cfg.NumWindows, logger)
	input := sim.NewInput(machine, ws, true)

	var tlog *threadlog.Log
	if cfg.Logging.ThreadLog {
		tlog = threadlog.New(cfg.Logging.ThreadLogSize)
	}

	var coord *osd.Coordinator
	actions := newActions(func() *osd.Coordinator { return coord }, machine, logger)
	input.OnDoubleClick = actions[hotkeys.Fullscreen]

	coord, err = osd.New(osd.Config{
		Multithreading: cfg.Multithreading,
		Throttle:       cfg.Throttle,
		Windows:        ws,
		Monitors:       ws,
		Input:          input,
		Machine:        machine,
		Backend:        backend,
		Hotkeys:        actions,
		NewTarget:      machine.NewTarget,
		Logger:         logger,
		Diagnostics:    cfg.Logging.Diagnostics,
		ThreadLog:      tlog,
	})
	if err != nil {
		log.Fatalf("Failed to create window coordinator: %v", err)
	}

	// Setup hotkey handler
	hotkeyHandler := hotkeys.NewHandler(ws.Connection(), ws, logger)
	if err := hotkeyHandler.RegisterAll(cfg.Hotkeys.Bindings()); err != nil {
		log.Printf("Warning: some hotkeys could not be registered: %v", err)
	}
	defer hotkeyHandler.Close()

	if err := coord.Start(); err != nil {
		var fatal *osd.FatalStartupError
		if errors.As(err, &fatal) {
			log.Printf("Fatal: %v", err)
			return 1
		}
		log.Fatalf("Failed to start window coordinator: %v", err)
	}

	for i := 0; i < cfg.NumWindows; i++ {
		opts := windowOptions(&cfg, ws, i)
		if _, err := coord.CreateWindow(opts); err != nil {
			logger.Error("window creation failed", "index", i, "error", err)
			if err := coord.Shutdown(); err != nil {
				logger.Warn("shutdown after failed start", "error", err)
			}
			return 1
		}
	}
	log.Printf("winthread started with %d window(s)", cfg.NumWindows)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader := daemon.NewReloader(configPath, res.Config, coord, level, logger)
	go func() {
		if err := reloader.Watch(ctx); err != nil {
			logger.Debug("config watcher not running", "error", err)
		}
	}()

	control, err := daemon.NewControl(daemon.ControlConfig{
		Coordinator: coord,
		Machine:     machine,
		Monitors:    ws,
		Reloader:    reloader,
		Backend:     backend.Name(),
		Session:     session,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to create control surface: %v", err)
	}

	// Start IPC server
	var ipcServer *ipc.Server
	if socketPath, err := runtimepath.SocketPath(); err != nil {
		logger.Warn("IPC disabled", "error", err)
	} else if ipcServer, err = ipc.NewServer(socketPath, control, logger); err != nil {
		logger.Warn("IPC disabled", "error", err)
	} else if err := ipcServer.Start(); err != nil {
		logger.Warn("IPC disabled", "error", err)
		ipcServer = nil
	}

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					if _, err := reloader.Reload(); err != nil {
						log.Printf("Config reload failed: %v", err)
					}
				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down winthread...")
					if err := coord.RequestExit(); err != nil {
						logger.Warn("exit request failed", "error", err)
					}
				}
			}
		}
	}()

	runner := daemon.NewRunner(daemon.RunnerConfig{
		Interval: cfg.FrameInterval(),
		Logger:   logger,
	}, machine, coord)
	runner.Run(ctx)

	cancel()
	if ipcServer != nil {
		ipcServer.Stop()
	}
	if err := coord.Shutdown(); err != nil {
		logger.Warn("shutdown finished with errors", "error", err)
		return 1
	}
	return 0
}

// windowOptions builds the options of the window at index. Without an
// explicit monitor, windows are spread across monitors starting at the
// primary.
func windowOptions(cfg *config.Config, monitors platform.MonitorProvider, index int) window.Options {
	title := cfg.Window.Title
	if cfg.NumWindows > 1 {
		title = fmt.Sprintf("%s (%d)", title, index+1)
	}
	opts := window.Options{
		Title:      title,
		MaxWidth:   cfg.Window.MaxWidth,
		MaxHeight:  cfg.Window.MaxHeight,
		Refresh:    cfg.Window.Refresh,
		Fullscreen: cfg.Window.Fullscreen,
		Maximize:   cfg.Window.Maximize,
	}

	displays := monitors.Monitors()
	if len(displays) == 0 {
		return opts
	}
	if m := cfg.Window.Monitor; m >= 0 && m < len(displays) {
		opts.Monitor = displays[m]
		return opts
	}
	primary := monitors.Primary()
	start := 0
	for i, d := range displays {
		if d.ID == primary.ID {
			start = i
			break
		}
	}
	opts.Monitor = displays[(start+index)%len(displays)]
	return opts
}

// newActions binds hotkey names to their effects. Every action runs on the
// pump goroutine and forwards simulation work through ExecOnSimulation.
func newActions(coord func() *osd.Coordinator, machine *sim.Machine, logger *slog.Logger) hotkeys.Actions {
	onSim := func(name string, fn func(c *osd.Coordinator)) func() {
		return func() {
			c := coord()
			if c == nil {
				return
			}
			logger.Debug("hotkey", "action", name)
			c.ExecOnSimulation(func(any) { fn(c) }, nil)
		}
	}

	return hotkeys.Actions{
		hotkeys.Fullscreen: onSim(hotkeys.Fullscreen, func(c *osd.Coordinator) {
			if _, err := c.ToggleFullScreen(); err != nil {
				logger.Warn("fullscreen toggle failed", "error", err)
			}
		}),
		hotkeys.Pause: onSim(hotkeys.Pause, func(*osd.Coordinator) {
			if machine.IsPaused() {
				machine.Resume()
			} else {
				machine.Pause()
			}
		}),
		hotkeys.Snapshot: onSim(hotkeys.Snapshot, func(c *osd.Coordinator) {
			paths, err := c.TakeSnapshot()
			if err != nil {
				logger.Warn("snapshot failed", "error", err)
			}
			for _, p := range paths {
				logger.Info("snapshot saved", "path", p)
			}
		}),
		hotkeys.Record: onSim(hotkeys.Record, func(c *osd.Coordinator) {
			on, err := c.ToggleRecording()
			if err != nil {
				logger.Warn("recording toggle failed", "error", err)
				return
			}
			logger.Info("recording", "enabled", on)
		}),
		hotkeys.ToggleFX: onSim(hotkeys.ToggleFX, func(c *osd.Coordinator) {
			logger.Info("fx", "enabled", c.ToggleFX())
		}),
		hotkeys.Menu: func() {
			if c := coord(); c != nil {
				c.ToggleMenuLoop()
			}
		},
	}
}
