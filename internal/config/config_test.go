package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if !cfg.Multithreading || !cfg.Throttle {
		t.Fatalf("expected multithreading and throttle on by default")
	}
	if cfg.Window.Monitor != -1 {
		t.Fatalf("expected primary monitor by default, got %d", cfg.Window.Monitor)
	}
	if !strings.HasSuffix(cfg.SnapshotDir, filepath.Join("winthread", "snapshots")) {
		t.Fatalf("unexpected snapshot dir %q", cfg.SnapshotDir)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
	if res.Config.FrameRate != DefaultFrameRate {
		t.Fatalf("expected frame_rate %d, got %d", DefaultFrameRate, res.Config.FrameRate)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Video != VideoX11 {
		t.Fatalf("expected video %q, got %q", VideoX11, res.Config.Video)
	}
}

func TestLoadFromPath_NestedKeys(t *testing.T) {
	data := strings.Join([]string{
		"multithreading: false",
		"video: NONE",
		"num_windows: 2",
		"window:",
		"  title: demo",
		"  max_width: 800",
		"  maximize: true",
		"hotkeys:",
		"  pause: \"Mod4-p\"",
		"  menu: \"\"",
		"logging:",
		"  level: debug",
		"  thread_log: true",
		"  thread_log_size: 0",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Multithreading {
		t.Fatalf("expected multithreading off")
	}
	if cfg.Video != VideoNone {
		t.Fatalf("expected video to be normalized to none, got %q", cfg.Video)
	}
	if cfg.NumWindows != 2 || cfg.Window.Title != "demo" || cfg.Window.MaxWidth != 800 || !cfg.Window.Maximize {
		t.Fatalf("window settings not applied: %+v", cfg.Window)
	}
	if cfg.Hotkeys.Pause != "Mod4-p" || cfg.Hotkeys.Menu != "" {
		t.Fatalf("hotkeys not applied: %+v", cfg.Hotkeys)
	}
	if cfg.Hotkeys.Fullscreen != DefaultConfig().Hotkeys.Fullscreen {
		t.Fatalf("unset hotkey lost its default: %q", cfg.Hotkeys.Fullscreen)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel())
	}
	if cfg.Logging.ThreadLogSize != DefaultThreadLogSize {
		t.Fatalf("expected thread log size to default when enabled, got %d", cfg.Logging.ThreadLogSize)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "throttle: true\nframe_rate: 0\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "frame_rate" {
		t.Fatalf("expected frame_rate path, got %q", verr.Path)
	}
	if !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "frame_rate: 30\nwindow:\n  refresh: 50\n")
	writeConfig(t, configD, "20-override.yaml", "frame_rate: 45\n")

	// Main file overrides includes.
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"frame_rate: 90",
		"window:",
		"  title: main",
		"",
	}, "\n")
	path := writeConfig(t, dir, "config.yaml", main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.FrameRate != 90 {
		t.Fatalf("expected frame_rate to be 90, got %d", res.Config.FrameRate)
	}
	if res.Config.Window.Refresh != 50 || res.Config.Window.Title != "main" {
		t.Fatalf("expected nested window keys to merge, got %+v", res.Config.Window)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "logging:\n  level: warn\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "logging.level")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != "warn" || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("logging.level = %v from %#v", value, src)
	}

	value, src, err = Explain(res, "throttle")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != true || src.Kind != SourceDefault {
		t.Fatalf("throttle = %v from %#v", value, src)
	}

	for _, p := range Paths() {
		if _, _, err := Explain(res, p); err != nil {
			t.Fatalf("Explain(%q): %v", p, err)
		}
	}
	if _, _, err := Explain(res, "window.nope"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLogLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "video", mutate: func(c *Config) { c.Video = "vulkan" }, path: "video"},
		{name: "windows", mutate: func(c *Config) { c.NumWindows = MaxWindows + 1 }, path: "num_windows"},
		{name: "monitor", mutate: func(c *Config) { c.Window.Monitor = -2 }, path: "window.monitor"},
		{name: "level", mutate: func(c *Config) { c.Logging.Level = "loud" }, path: "logging.level"},
		{name: "snapshot dir", mutate: func(c *Config) { c.SnapshotDir = " " }, path: "snapshot_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			var verr *ValidationError
			if err := cfg.Validate(); !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("Validate() = %v, want error at %s", err, tt.path)
			}
		})
	}
}

func TestFrameInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameRate = 50
	if got := cfg.FrameInterval(); got != 20*time.Millisecond {
		t.Fatalf("FrameInterval = %v, want 20ms", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.NumWindows = 3
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if res.Config.NumWindows != 3 {
		t.Fatalf("num_windows = %d after save", res.Config.NumWindows)
	}
}
