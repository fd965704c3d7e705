package mcp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/winthread/internal/ipc"
)

type fakeClient struct {
	paused    []bool
	resumed   []bool
	quit      bool
	fail      error
	windows   []ipc.WindowInfo
	snapshots []string
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &ipc.StatusData{Session: "abc", State: "running", Windows: len(f.windows)}, nil
}

func (f *fakeClient) Pause(temporary bool) error {
	f.paused = append(f.paused, temporary)
	return f.fail
}

func (f *fakeClient) Resume(temporary bool) error {
	f.resumed = append(f.resumed, temporary)
	return f.fail
}

func (f *fakeClient) ToggleFullscreen() (bool, error) { return true, f.fail }
func (f *fakeClient) Snapshot() ([]string, error)     { return f.snapshots, f.fail }
func (f *fakeClient) ToggleRecording() (bool, error)  { return true, f.fail }
func (f *fakeClient) ToggleFX() (bool, error)         { return false, f.fail }

func (f *fakeClient) ListWindows() (*ipc.WindowsData, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &ipc.WindowsData{Windows: f.windows}, nil
}

func (f *fakeClient) GetMonitors() (*ipc.MonitorsData, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &ipc.MonitorsData{}, nil
}

func (f *fakeClient) Reload() (*ipc.ReloadData, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &ipc.ReloadData{RestartRequired: []string{"video"}}, nil
}

func (f *fakeClient) Quit() error {
	f.quit = true
	return f.fail
}

func newTestServer(c *fakeClient) *Server {
	return NewServer(c, slog.New(slog.DiscardHandler))
}

func TestHandlers_ForwardToClient(t *testing.T) {
	c := &fakeClient{windows: []ipc.WindowInfo{{Handle: "w0", Width: 640}}}
	s := newTestServer(c)
	ctx := context.Background()

	_, status, err := s.handleGetStatus(ctx, nil, EmptyInput{})
	if err != nil || status.Session != "abc" || status.Windows != 1 {
		t.Fatalf("get_status = %+v, %v", status, err)
	}

	if _, out, err := s.handlePause(ctx, nil, PauseInput{Temporary: true}); err != nil || !out.OK {
		t.Fatalf("pause = %+v, %v", out, err)
	}
	if _, out, err := s.handleResume(ctx, nil, PauseInput{}); err != nil || !out.OK {
		t.Fatalf("resume = %+v, %v", out, err)
	}
	if len(c.paused) != 1 || !c.paused[0] || len(c.resumed) != 1 || c.resumed[0] {
		t.Fatalf("paused=%v resumed=%v", c.paused, c.resumed)
	}

	_, windows, err := s.handleListWindows(ctx, nil, EmptyInput{})
	if err != nil || len(windows.Windows) != 1 || windows.Windows[0].Handle != "w0" {
		t.Fatalf("list_windows = %+v, %v", windows, err)
	}

	if _, out, err := s.handleToggleFullscreen(ctx, nil, EmptyInput{}); err != nil || !out.Enabled {
		t.Fatalf("toggle_fullscreen = %+v, %v", out, err)
	}
	if _, out, err := s.handleToggleRecording(ctx, nil, EmptyInput{}); err != nil || !out.Enabled {
		t.Fatalf("toggle_recording = %+v, %v", out, err)
	}
	if _, out, err := s.handleToggleFX(ctx, nil, EmptyInput{}); err != nil || out.Enabled {
		t.Fatalf("toggle_fx = %+v, %v", out, err)
	}

	if _, out, err := s.handleQuit(ctx, nil, EmptyInput{}); err != nil || !out.OK || !c.quit {
		t.Fatalf("quit = %+v, %v (client quit=%v)", out, err, c.quit)
	}
}

func TestHandlers_EmptyListsAreNotNull(t *testing.T) {
	s := newTestServer(&fakeClient{})
	ctx := context.Background()

	_, windows, err := s.handleListWindows(ctx, nil, EmptyInput{})
	if err != nil || windows.Windows == nil {
		t.Fatalf("list_windows = %#v, %v; want empty non-nil list", windows.Windows, err)
	}
	_, monitors, err := s.handleListMonitors(ctx, nil, EmptyInput{})
	if err != nil || monitors.Monitors == nil {
		t.Fatalf("list_monitors = %#v, %v; want empty non-nil list", monitors.Monitors, err)
	}
	_, snap, err := s.handleSnapshot(ctx, nil, EmptyInput{})
	if err != nil || snap.Paths == nil {
		t.Fatalf("snapshot = %#v, %v; want empty non-nil list", snap.Paths, err)
	}
	_, reload, err := s.handleReloadConfig(ctx, nil, EmptyInput{})
	if err != nil || reload.Applied == nil {
		t.Fatalf("reload_config = %#v, %v; want empty non-nil list", reload.Applied, err)
	}
	if len(reload.RestartRequired) != 1 || reload.RestartRequired[0] != "video" {
		t.Fatalf("restart required = %v", reload.RestartRequired)
	}
}

func TestHandlers_ClientErrorsPropagate(t *testing.T) {
	s := newTestServer(&fakeClient{fail: errors.New("failed to connect to winthread")})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"get_status", func() error { _, _, err := s.handleGetStatus(ctx, nil, EmptyInput{}); return err }, "connect"},
		{"pause", func() error { _, _, err := s.handlePause(ctx, nil, PauseInput{}); return err }, "pause:"},
		{"snapshot", func() error { _, _, err := s.handleSnapshot(ctx, nil, EmptyInput{}); return err }, "snapshot:"},
		{"reload_config", func() error { _, _, err := s.handleReloadConfig(ctx, nil, EmptyInput{}); return err }, "reload config:"},
		{"quit", func() error { _, _, err := s.handleQuit(ctx, nil, EmptyInput{}); return err }, "quit:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestIPCClientSatisfiesClient(t *testing.T) {
	var _ Client = ipc.NewClientAt("/nonexistent.sock")
}
