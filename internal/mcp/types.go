package mcp

import "github.com/1broseidon/winthread/internal/ipc"

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// PauseInput is the input for the pause and resume tools.
type PauseInput struct {
	Temporary bool `json:"temporary,omitempty" jsonschema:"When true, nest a temporary UI pause instead of toggling the user pause. A temporary pause must be released with resume temporary=true."`
}

// AckOutput is returned by tools that only succeed or fail.
type AckOutput struct {
	OK bool `json:"ok"`
}

// ToggleOutput reports the state after a toggle.
type ToggleOutput struct {
	Enabled bool `json:"enabled"`
}

// SnapshotOutput lists the files a snapshot wrote.
type SnapshotOutput struct {
	Paths []string `json:"paths"`
}

// StatusOutput is the output for the get_status tool.
type StatusOutput = ipc.StatusData

// WindowsOutput is the output for the list_windows tool.
type WindowsOutput struct {
	Windows []ipc.WindowInfo `json:"windows"`
}

// MonitorsOutput is the output for the list_monitors tool.
type MonitorsOutput struct {
	Monitors []ipc.MonitorInfo `json:"monitors"`
}

// ReloadOutput is the output for the reload_config tool.
type ReloadOutput struct {
	Applied         []string `json:"applied"`
	RestartRequired []string `json:"restart_required,omitempty"`
}
