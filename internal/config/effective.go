package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig layers raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	set(&cfg.Multithreading, raw.Multithreading)
	set(&cfg.Throttle, raw.Throttle)
	set(&cfg.FrameRate, raw.FrameRate)
	set(&cfg.NumWindows, raw.NumWindows)
	if raw.Video != nil {
		cfg.Video = strings.ToLower(strings.TrimSpace(*raw.Video))
	}
	if raw.SnapshotDir != nil {
		dir, err := expandHome(*raw.SnapshotDir)
		if err != nil {
			return nil, &ValidationError{Path: "snapshot_dir", Err: err}
		}
		cfg.SnapshotDir = dir
	}

	if w := raw.Window; w != nil {
		set(&cfg.Window.Title, w.Title)
		set(&cfg.Window.MaxWidth, w.MaxWidth)
		set(&cfg.Window.MaxHeight, w.MaxHeight)
		set(&cfg.Window.Refresh, w.Refresh)
		set(&cfg.Window.Maximize, w.Maximize)
		set(&cfg.Window.Fullscreen, w.Fullscreen)
		set(&cfg.Window.Monitor, w.Monitor)
	}

	if h := raw.Hotkeys; h != nil {
		set(&cfg.Hotkeys.Fullscreen, h.Fullscreen)
		set(&cfg.Hotkeys.Pause, h.Pause)
		set(&cfg.Hotkeys.Snapshot, h.Snapshot)
		set(&cfg.Hotkeys.Record, h.Record)
		set(&cfg.Hotkeys.ToggleFX, h.ToggleFX)
		set(&cfg.Hotkeys.Menu, h.Menu)
	}

	if l := raw.Logging; l != nil {
		set(&cfg.Logging.Level, l.Level)
		set(&cfg.Logging.Diagnostics, l.Diagnostics)
		set(&cfg.Logging.ThreadLog, l.ThreadLog)
		set(&cfg.Logging.ThreadLogSize, l.ThreadLogSize)
		if cfg.Logging.ThreadLog && cfg.Logging.ThreadLogSize == 0 {
			cfg.Logging.ThreadLogSize = DefaultThreadLogSize
		}
	}

	return cfg, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
