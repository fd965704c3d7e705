package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winthread/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, *status, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, WindowsOutput, error) {
	data, err := s.client.ListWindows()
	if err != nil {
		return nil, WindowsOutput{}, err
	}
	out := WindowsOutput{Windows: data.Windows}
	if out.Windows == nil {
		out.Windows = []ipc.WindowInfo{}
	}
	return nil, out, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, MonitorsOutput, error) {
	data, err := s.client.GetMonitors()
	if err != nil {
		return nil, MonitorsOutput{}, err
	}
	out := MonitorsOutput{Monitors: data.Monitors}
	if out.Monitors == nil {
		out.Monitors = []ipc.MonitorInfo{}
	}
	return nil, out, nil
}

func (s *Server) handlePause(_ context.Context, _ *mcpsdk.CallToolRequest, args PauseInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Pause(args.Temporary); err != nil {
		return nil, AckOutput{}, fmt.Errorf("pause: %w", err)
	}
	s.logger.Info("mcp pause", "temporary", args.Temporary)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleResume(_ context.Context, _ *mcpsdk.CallToolRequest, args PauseInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Resume(args.Temporary); err != nil {
		return nil, AckOutput{}, fmt.Errorf("resume: %w", err)
	}
	s.logger.Info("mcp resume", "temporary", args.Temporary)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleToggleFullscreen(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToggleOutput, error) {
	on, err := s.client.ToggleFullscreen()
	if err != nil {
		return nil, ToggleOutput{}, fmt.Errorf("toggle fullscreen: %w", err)
	}
	return nil, ToggleOutput{Enabled: on}, nil
}

func (s *Server) handleSnapshot(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, SnapshotOutput, error) {
	paths, err := s.client.Snapshot()
	if err != nil {
		return nil, SnapshotOutput{}, fmt.Errorf("snapshot: %w", err)
	}
	if paths == nil {
		paths = []string{}
	}
	return nil, SnapshotOutput{Paths: paths}, nil
}

func (s *Server) handleToggleRecording(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToggleOutput, error) {
	on, err := s.client.ToggleRecording()
	if err != nil {
		return nil, ToggleOutput{}, fmt.Errorf("toggle recording: %w", err)
	}
	return nil, ToggleOutput{Enabled: on}, nil
}

func (s *Server) handleToggleFX(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToggleOutput, error) {
	on, err := s.client.ToggleFX()
	if err != nil {
		return nil, ToggleOutput{}, fmt.Errorf("toggle fx: %w", err)
	}
	return nil, ToggleOutput{Enabled: on}, nil
}

func (s *Server) handleReloadConfig(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ReloadOutput, error) {
	data, err := s.client.Reload()
	if err != nil {
		return nil, ReloadOutput{}, fmt.Errorf("reload config: %w", err)
	}
	out := ReloadOutput{Applied: data.Applied, RestartRequired: data.RestartRequired}
	if out.Applied == nil {
		out.Applied = []string{}
	}
	return nil, out, nil
}

func (s *Server) handleQuit(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Quit(); err != nil {
		return nil, AckOutput{}, fmt.Errorf("quit: %w", err)
	}
	s.logger.Info("mcp quit")
	return nil, AckOutput{OK: true}, nil
}
