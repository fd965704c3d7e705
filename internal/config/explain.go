package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths are the top-level keys and their dotted children, e.g.:
//
//	multithreading
//	throttle
//	window.max_width
//	hotkeys.fullscreen
//	logging.level
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// Paths lists every path Explain accepts.
func Paths() []string {
	return []string{
		"multithreading", "video", "throttle", "frame_rate", "num_windows", "snapshot_dir",
		"window.title", "window.max_width", "window.max_height", "window.refresh",
		"window.maximize", "window.fullscreen", "window.monitor",
		"hotkeys.fullscreen", "hotkeys.pause", "hotkeys.snapshot", "hotkeys.record",
		"hotkeys.toggle_fx", "hotkeys.menu",
		"logging.level", "logging.diagnostics", "logging.thread_log", "logging.thread_log_size",
	}
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		switch parts[0] {
		case "multithreading":
			return cfg.Multithreading, nil
		case "video":
			return cfg.Video, nil
		case "throttle":
			return cfg.Throttle, nil
		case "frame_rate":
			return cfg.FrameRate, nil
		case "num_windows":
			return cfg.NumWindows, nil
		case "snapshot_dir":
			return cfg.SnapshotDir, nil
		case "window":
			return cfg.Window, nil
		case "hotkeys":
			return cfg.Hotkeys, nil
		case "logging":
			return cfg.Logging, nil
		}
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	switch parts[0] {
	case "window":
		switch parts[1] {
		case "title":
			return cfg.Window.Title, nil
		case "max_width":
			return cfg.Window.MaxWidth, nil
		case "max_height":
			return cfg.Window.MaxHeight, nil
		case "refresh":
			return cfg.Window.Refresh, nil
		case "maximize":
			return cfg.Window.Maximize, nil
		case "fullscreen":
			return cfg.Window.Fullscreen, nil
		case "monitor":
			return cfg.Window.Monitor, nil
		}
	case "hotkeys":
		if v, ok := cfg.Hotkeys.Bindings()[parts[1]]; ok {
			return v, nil
		}
	case "logging":
		switch parts[1] {
		case "level":
			return cfg.Logging.Level, nil
		case "diagnostics":
			return cfg.Logging.Diagnostics, nil
		case "thread_log":
			return cfg.Logging.ThreadLog, nil
		case "thread_log_size":
			return cfg.Logging.ThreadLogSize, nil
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
