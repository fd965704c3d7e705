package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winthread/internal/ipc"
)

const (
	ServerName    = "winthread"
	ServerVersion = "0.1.0"
)

// Client is the control connection to a running instance. *ipc.Client
// implements it.
type Client interface {
	GetStatus() (*ipc.StatusData, error)
	Pause(temporary bool) error
	Resume(temporary bool) error
	ToggleFullscreen() (bool, error)
	Snapshot() ([]string, error)
	ToggleRecording() (bool, error)
	ToggleFX() (bool, error)
	ListWindows() (*ipc.WindowsData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	Reload() (*ipc.ReloadData, error)
	Quit() error
}

// Server exposes a running instance's control commands as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	client    Client
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls over client.
func NewServer(client Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		client: client,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the running instance: coordinator state, threading mode, pause state and depth, window count, render backend, frame counters, OS thread count and memory use.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every window with its handle, surface id, monitor, client size, fullscreen and fullscreen-safe flags, and whether it has a renderer.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List the monitors known to the window system, with their bounds and usable work areas.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pause",
		Description: "Pause the simulation. With temporary=true a nested UI pause is taken instead; the simulation stays blocked until it is released.",
	}, s.handlePause)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resume",
		Description: "Resume the simulation, or release one temporary pause when temporary=true.",
	}, s.handleResume)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_fullscreen",
		Description: "Flip every window between windowed and fullscreen. Returns the new fullscreen state.",
	}, s.handleToggleFullscreen)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snapshot",
		Description: "Save the current frame of every window as a PNG. Returns the written file paths.",
	}, s.handleSnapshot)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_recording",
		Description: "Start or stop recording frames to disk on every window. Returns whether recording is now on.",
	}, s.handleToggleRecording)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_fx",
		Description: "Toggle the scanline post-processing effect. Returns whether it is now on.",
	}, s.handleToggleFX)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Re-read the config file. Throttle and log level apply immediately; other changed settings are listed as needing a restart.",
	}, s.handleReloadConfig)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "quit",
		Description: "Ask the running instance to exit.",
	}, s.handleQuit)
}
