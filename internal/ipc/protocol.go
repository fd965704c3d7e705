package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandStatus      CommandType = "STATUS"
	CommandPause       CommandType = "PAUSE"
	CommandResume      CommandType = "RESUME"
	CommandFullscreen  CommandType = "FULLSCREEN"
	CommandSnapshot    CommandType = "SNAPSHOT"
	CommandRecord      CommandType = "RECORD"
	CommandToggleFX    CommandType = "TOGGLE_FX"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandReload      CommandType = "RELOAD"
	CommandQuit        CommandType = "QUIT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by STATUS
type StatusData struct {
	Session        string `json:"session"`
	PID            int32  `json:"pid"`
	State          string `json:"state"`
	Multithreaded  bool   `json:"multithreaded"`
	Throttled      bool   `json:"throttled"`
	Paused         bool   `json:"paused"`
	PauseDepth     int    `json:"pause_depth"`
	Windows        int    `json:"windows"`
	Backend        string `json:"backend"`
	FramesQueued   uint64 `json:"frames_queued"`
	FramesSkipped  uint64 `json:"frames_skipped"`
	FramesDrawn    uint64 `json:"frames_drawn"`
	Ticks          uint64 `json:"ticks"`
	OSThreads      int32  `json:"os_threads"`
	RSSBytes       uint64 `json:"rss_bytes"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	MailboxPending int    `json:"mailbox_pending"`
}

// PausePayload is the optional payload of PAUSE and RESUME.
type PausePayload struct {
	// Temporary nests a UI pause instead of toggling the user pause.
	Temporary bool `json:"temporary,omitempty"`
}

// FullscreenData reports the fullscreen state after FULLSCREEN.
type FullscreenData struct {
	Fullscreen bool `json:"fullscreen"`
}

// SnapshotData lists the files written by SNAPSHOT.
type SnapshotData struct {
	Paths []string `json:"paths"`
}

// ToggleData reports the new state after RECORD or TOGGLE_FX.
type ToggleData struct {
	Enabled bool `json:"enabled"`
}

// WindowInfo describes one coordinator window.
type WindowInfo struct {
	Handle         string `json:"handle"`
	Index          int    `json:"index"`
	Surface        uint32 `json:"surface"`
	State          string `json:"state"`
	Monitor        string `json:"monitor"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Fullscreen     bool   `json:"fullscreen"`
	FullscreenSafe bool   `json:"fullscreen_safe"`
	Minimized      bool   `json:"minimized"`
	Maximized      bool   `json:"maximized"`
	HasRenderer    bool   `json:"has_renderer"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	WorkX   int    `json:"work_x"`
	WorkY   int    `json:"work_y"`
	WorkW   int    `json:"work_width"`
	WorkH   int    `json:"work_height"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// ReloadData reports which settings a RELOAD applied live and which need a
// restart.
type ReloadData struct {
	Applied         []string `json:"applied"`
	RestartRequired []string `json:"restart_required,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
