package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Video backends understood by the render chain.
const (
	VideoX11  = "x11"
	VideoNone = "none"
)

const (
	DefaultFrameRate     = 60
	DefaultNumWindows    = 1
	DefaultThreadLogSize = 256
	MaxWindows           = 8
)

// WindowConfig describes every window the program opens.
type WindowConfig struct {
	Title string `yaml:"title"`
	// MaxWidth and MaxHeight clamp the maximized size; 0 means the work area.
	MaxWidth  int  `yaml:"max_width"`
	MaxHeight int  `yaml:"max_height"`
	Refresh   int  `yaml:"refresh"`
	Maximize  bool `yaml:"maximize"`
	// Fullscreen starts windows fullscreen.
	Fullscreen bool `yaml:"fullscreen"`
	// Monitor selects a monitor by index; -1 is the primary.
	Monitor int `yaml:"monitor"`
}

// HotkeyConfig holds X11 key sequences (keybind syntax, e.g. "Mod4-Shift-f").
// An empty sequence leaves the action unbound.
type HotkeyConfig struct {
	Fullscreen string `yaml:"fullscreen"`
	Pause      string `yaml:"pause"`
	Snapshot   string `yaml:"snapshot"`
	Record     string `yaml:"record"`
	ToggleFX   string `yaml:"toggle_fx"`
	Menu       string `yaml:"menu"`
}

// Bindings returns the hotkeys keyed by action name.
func (h HotkeyConfig) Bindings() map[string]string {
	return map[string]string{
		"fullscreen": h.Fullscreen,
		"pause":      h.Pause,
		"snapshot":   h.Snapshot,
		"record":     h.Record,
		"toggle_fx":  h.ToggleFX,
		"menu":       h.Menu,
	}
}

// LoggingConfig configures structured logging and the cross-thread event log.
type LoggingConfig struct {
	// Level controls verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// Diagnostics logs every message the coordinator does not handle.
	Diagnostics bool `yaml:"diagnostics"`
	// ThreadLog keeps a ring of cross-thread events, dumped at shutdown.
	ThreadLog     bool `yaml:"thread_log"`
	ThreadLogSize int  `yaml:"thread_log_size"`
}

// Config holds the effective winthread configuration.
type Config struct {
	Multithreading bool          `yaml:"multithreading"`
	Video          string        `yaml:"video"`
	Throttle       bool          `yaml:"throttle"`
	FrameRate      int           `yaml:"frame_rate"`
	NumWindows     int           `yaml:"num_windows"`
	Window         WindowConfig  `yaml:"window"`
	Hotkeys        HotkeyConfig  `yaml:"hotkeys"`
	SnapshotDir    string        `yaml:"snapshot_dir"`
	Logging        LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Multithreading: true,
		Video:          VideoX11,
		Throttle:       true,
		FrameRate:      DefaultFrameRate,
		NumWindows:     DefaultNumWindows,
		Window: WindowConfig{
			Title:   "winthread",
			Monitor: -1,
		},
		Hotkeys: HotkeyConfig{
			Fullscreen: "Mod4-Shift-f",
			Pause:      "Mod4-Shift-p",
			Snapshot:   "Mod4-Shift-s",
			Record:     "Mod4-Shift-r",
			ToggleFX:   "Mod4-Shift-x",
			Menu:       "Mod4-Shift-m",
		},
		SnapshotDir: defaultSnapshotDir(),
		Logging: LoggingConfig{
			Level:         "info",
			ThreadLogSize: DefaultThreadLogSize,
		},
	}
}

// defaultSnapshotDir is $XDG_DATA_HOME/winthread/snapshots.
func defaultSnapshotDir() string {
	return filepath.Join(xdg.DataHome, "winthread", "snapshots")
}

// FrameInterval is the simulation tick period.
func (c *Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / DefaultFrameRate
	}
	return time.Second / time.Duration(c.FrameRate)
}

// LogLevel returns the parsed logging level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, err := ParseLogLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Validate checks the effective config.
func (c *Config) Validate() error {
	switch c.Video {
	case VideoX11, VideoNone:
	default:
		return &ValidationError{Path: "video", Err: fmt.Errorf("must be %q or %q, got %q", VideoX11, VideoNone, c.Video)}
	}
	if c.FrameRate < 1 || c.FrameRate > 1000 {
		return &ValidationError{Path: "frame_rate", Err: fmt.Errorf("must be between 1 and 1000, got %d", c.FrameRate)}
	}
	if c.NumWindows < 1 || c.NumWindows > MaxWindows {
		return &ValidationError{Path: "num_windows", Err: fmt.Errorf("must be between 1 and %d, got %d", MaxWindows, c.NumWindows)}
	}
	if c.Window.MaxWidth < 0 {
		return &ValidationError{Path: "window.max_width", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Window.MaxHeight < 0 {
		return &ValidationError{Path: "window.max_height", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Window.Refresh < 0 {
		return &ValidationError{Path: "window.refresh", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Window.Monitor < -1 {
		return &ValidationError{Path: "window.monitor", Err: fmt.Errorf("must be -1 (primary) or a monitor index")}
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return &ValidationError{Path: "logging.level", Err: err}
	}
	if c.Logging.ThreadLogSize < 0 {
		return &ValidationError{Path: "logging.thread_log_size", Err: fmt.Errorf("must be >= 0")}
	}
	if strings.TrimSpace(c.SnapshotDir) == "" {
		return &ValidationError{Path: "snapshot_dir", Err: fmt.Errorf("must not be empty")}
	}
	return nil
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
