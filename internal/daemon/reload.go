package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/1broseidon/winthread/internal/config"
	"github.com/1broseidon/winthread/internal/ipc"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 250 * time.Millisecond

// Throttler is the part of the coordinator a reload can change live.
type Throttler interface {
	SetThrottle(on bool)
}

// Reloader re-reads the config file and applies what can change at runtime.
type Reloader struct {
	path   string
	coord  Throttler
	level  *slog.LevelVar
	logger *slog.Logger

	// startup is the file as it was when the process started. Settings
	// that need a restart are compared against it, so a pending change keeps
	// being reported until the process restarts.
	startup config.Config

	mu      sync.Mutex
	current *config.Config
}

// NewReloader creates a reloader for the config at path. loaded is the
// config read from that file, before any command line overrides. level is
// the LevelVar behind the process logger.
func NewReloader(path string, loaded *config.Config, coord Throttler, level *slog.LevelVar, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	if loaded == nil {
		loaded = config.DefaultConfig()
	}
	return &Reloader{
		path:    path,
		coord:   coord,
		level:   level,
		logger:  logger,
		startup: *loaded,
		current: loaded,
	}
}

// Path returns the watched config file.
func (r *Reloader) Path() string { return r.path }

// Current returns the config last read from the file.
func (r *Reloader) Current() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Reload loads the config file, applies throttle and log level, and lists the
// changed settings that need a restart. An invalid file leaves everything
// as it was.
func (r *Reloader) Reload() (ipc.ReloadData, error) {
	res, err := config.LoadFromPath(r.path)
	if err != nil {
		return ipc.ReloadData{}, fmt.Errorf("reload %s: %w", r.path, err)
	}
	next := res.Config

	r.mu.Lock()
	prev := r.current
	r.current = next
	r.mu.Unlock()

	data := ipc.ReloadData{Applied: []string{}}
	if next.Throttle != prev.Throttle {
		if r.coord != nil {
			r.coord.SetThrottle(next.Throttle)
		}
		data.Applied = append(data.Applied, "throttle")
	}
	if next.Logging.Level != prev.Logging.Level {
		if r.level != nil {
			r.level.Set(next.LogLevel())
		}
		data.Applied = append(data.Applied, "logging.level")
	}
	data.RestartRequired = restartRequired(&r.startup, next)

	r.logger.Info("config reloaded",
		"path", r.path,
		"applied", data.Applied,
		"restart_required", data.RestartRequired)
	return data, nil
}

// restartRequired lists the changed settings that only take effect on the
// next start.
func restartRequired(prev, next *config.Config) []string {
	var out []string
	check := func(name string, changed bool) {
		if changed {
			out = append(out, name)
		}
	}
	check("multithreading", prev.Multithreading != next.Multithreading)
	check("video", prev.Video != next.Video)
	check("frame_rate", prev.FrameRate != next.FrameRate)
	check("num_windows", prev.NumWindows != next.NumWindows)
	check("window", prev.Window != next.Window)
	check("hotkeys", prev.Hotkeys != next.Hotkeys)
	check("snapshot_dir", prev.SnapshotDir != next.SnapshotDir)
	check("logging.diagnostics", prev.Logging.Diagnostics != next.Logging.Diagnostics)
	check("logging.thread_log", prev.Logging.ThreadLog != next.Logging.ThreadLog ||
		prev.Logging.ThreadLogSize != next.Logging.ThreadLogSize)
	return out
}

// Watch reloads whenever the config file changes, until ctx is cancelled.
// The parent directory is watched so editors that replace the file are
// seen too.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	r.logger.Debug("watching config", "dir", dir)

	name := filepath.Clean(r.path)
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if _, err := r.Reload(); err != nil {
				r.logger.Warn("config reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("config watcher error", "error", err)
		}
	}
}
