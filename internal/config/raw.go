package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWindow struct {
	Title      *string `yaml:"title"`
	MaxWidth   *int    `yaml:"max_width"`
	MaxHeight  *int    `yaml:"max_height"`
	Refresh    *int    `yaml:"refresh"`
	Maximize   *bool   `yaml:"maximize"`
	Fullscreen *bool   `yaml:"fullscreen"`
	Monitor    *int    `yaml:"monitor"`
}

type RawHotkeys struct {
	Fullscreen *string `yaml:"fullscreen"`
	Pause      *string `yaml:"pause"`
	Snapshot   *string `yaml:"snapshot"`
	Record     *string `yaml:"record"`
	ToggleFX   *string `yaml:"toggle_fx"`
	Menu       *string `yaml:"menu"`
}

type RawLogging struct {
	Level         *string `yaml:"level"`
	Diagnostics   *bool   `yaml:"diagnostics"`
	ThreadLog     *bool   `yaml:"thread_log"`
	ThreadLogSize *int    `yaml:"thread_log_size"`
}

// RawConfig mirrors Config with optional fields so files can be layered.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Multithreading *bool       `yaml:"multithreading"`
	Video          *string     `yaml:"video"`
	Throttle       *bool       `yaml:"throttle"`
	FrameRate      *int        `yaml:"frame_rate"`
	NumWindows     *int        `yaml:"num_windows"`
	Window         *RawWindow  `yaml:"window"`
	Hotkeys        *RawHotkeys `yaml:"hotkeys"`
	SnapshotDir    *string     `yaml:"snapshot_dir"`
	Logging        *RawLogging `yaml:"logging"`
}

// merge returns c with every field set in overlay replaced.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	override(&out.Multithreading, overlay.Multithreading)
	override(&out.Video, overlay.Video)
	override(&out.Throttle, overlay.Throttle)
	override(&out.FrameRate, overlay.FrameRate)
	override(&out.NumWindows, overlay.NumWindows)
	override(&out.SnapshotDir, overlay.SnapshotDir)

	if overlay.Window != nil {
		w := RawWindow{}
		if out.Window != nil {
			w = *out.Window
		}
		override(&w.Title, overlay.Window.Title)
		override(&w.MaxWidth, overlay.Window.MaxWidth)
		override(&w.MaxHeight, overlay.Window.MaxHeight)
		override(&w.Refresh, overlay.Window.Refresh)
		override(&w.Maximize, overlay.Window.Maximize)
		override(&w.Fullscreen, overlay.Window.Fullscreen)
		override(&w.Monitor, overlay.Window.Monitor)
		out.Window = &w
	}

	if overlay.Hotkeys != nil {
		h := RawHotkeys{}
		if out.Hotkeys != nil {
			h = *out.Hotkeys
		}
		override(&h.Fullscreen, overlay.Hotkeys.Fullscreen)
		override(&h.Pause, overlay.Hotkeys.Pause)
		override(&h.Snapshot, overlay.Hotkeys.Snapshot)
		override(&h.Record, overlay.Hotkeys.Record)
		override(&h.ToggleFX, overlay.Hotkeys.ToggleFX)
		override(&h.Menu, overlay.Hotkeys.Menu)
		out.Hotkeys = &h
	}

	if overlay.Logging != nil {
		l := RawLogging{}
		if out.Logging != nil {
			l = *out.Logging
		}
		override(&l.Level, overlay.Logging.Level)
		override(&l.Diagnostics, overlay.Logging.Diagnostics)
		override(&l.ThreadLog, overlay.Logging.ThreadLog)
		override(&l.ThreadLogSize, overlay.Logging.ThreadLogSize)
		out.Logging = &l
	}

	return out
}

func override[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
