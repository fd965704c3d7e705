package ipc

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeController struct {
	mu         sync.Mutex
	pauses     []bool
	resumes    []bool
	fullscreen bool
	quit       bool
	reloadErr  error
}

func (f *fakeController) Status() (StatusData, error) {
	return StatusData{Session: "s1", State: "running", Windows: 2, Backend: "none"}, nil
}

func (f *fakeController) Pause(temporary bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses = append(f.pauses, temporary)
	return nil
}

func (f *fakeController) Resume(temporary bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes = append(f.resumes, temporary)
	return nil
}

func (f *fakeController) ToggleFullscreen() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen = !f.fullscreen
	return f.fullscreen, nil
}

func (f *fakeController) Snapshot() ([]string, error) {
	return []string{"/tmp/a.png", "/tmp/b.png"}, nil
}

func (f *fakeController) ToggleRecording() (bool, error) { return true, nil }

func (f *fakeController) ToggleFX() (bool, error) { return false, nil }

func (f *fakeController) Windows() ([]WindowInfo, error) {
	return []WindowInfo{{Handle: "w0", Index: 0, Width: 640, Height: 480, FullscreenSafe: true}}, nil
}

func (f *fakeController) Monitors() ([]MonitorInfo, error) {
	return []MonitorInfo{{ID: 0, Name: "HDMI-1", Primary: true, Width: 1920, Height: 1080}}, nil
}

func (f *fakeController) Reload() (ReloadData, error) {
	if f.reloadErr != nil {
		return ReloadData{}, f.reloadErr
	}
	return ReloadData{Applied: []string{"throttle"}}, nil
}

func (f *fakeController) Quit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quit = true
	return nil
}

func startServer(t *testing.T, ctl Controller) (*Server, *Client) {
	t.Helper()
	dir, err := os.MkdirTemp("", "wt")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	socket := filepath.Join(dir, "s.sock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(socket, ctl, logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, NewClientAt(socket)
}

func TestNewServer_RequiresController(t *testing.T) {
	if _, err := NewServer("/tmp/unused.sock", nil, nil); err == nil {
		t.Fatalf("expected error for nil controller")
	}
}

func TestClientServerRoundTrip(t *testing.T) {
	ctl := &fakeController{}
	_, client := startServer(t, ctl)

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Session != "s1" || status.Windows != 2 || status.Backend != "none" {
		t.Fatalf("unexpected status: %+v", status)
	}

	if err := client.Pause(true); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := client.Resume(false); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	ctl.mu.Lock()
	if len(ctl.pauses) != 1 || !ctl.pauses[0] {
		t.Fatalf("pauses = %v, want [true]", ctl.pauses)
	}
	if len(ctl.resumes) != 1 || ctl.resumes[0] {
		t.Fatalf("resumes = %v, want [false]", ctl.resumes)
	}
	ctl.mu.Unlock()

	on, err := client.ToggleFullscreen()
	if err != nil || !on {
		t.Fatalf("ToggleFullscreen = %v, %v; want true, nil", on, err)
	}
	on, err = client.ToggleFullscreen()
	if err != nil || on {
		t.Fatalf("second ToggleFullscreen = %v, %v; want false, nil", on, err)
	}

	paths, err := client.Snapshot()
	if err != nil || len(paths) != 2 {
		t.Fatalf("Snapshot = %v, %v", paths, err)
	}

	rec, err := client.ToggleRecording()
	if err != nil || !rec {
		t.Fatalf("ToggleRecording = %v, %v", rec, err)
	}

	windows, err := client.ListWindows()
	if err != nil {
		t.Fatalf("ListWindows: %v", err)
	}
	if len(windows.Windows) != 1 || windows.Windows[0].Width != 640 || !windows.Windows[0].FullscreenSafe {
		t.Fatalf("unexpected windows: %+v", windows.Windows)
	}

	monitors, err := client.GetMonitors()
	if err != nil {
		t.Fatalf("GetMonitors: %v", err)
	}
	if len(monitors.Monitors) != 1 || monitors.Monitors[0].Name != "HDMI-1" {
		t.Fatalf("unexpected monitors: %+v", monitors.Monitors)
	}

	reload, err := client.Reload()
	if err != nil || len(reload.Applied) != 1 {
		t.Fatalf("Reload = %+v, %v", reload, err)
	}

	if err := client.Quit(); err != nil {
		t.Fatalf("Quit: %v", err)
	}
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if !ctl.quit {
		t.Fatalf("expected controller Quit to be called")
	}
}

func TestClient_ControllerErrorSurfaces(t *testing.T) {
	ctl := &fakeController{reloadErr: errors.New("config invalid")}
	_, client := startServer(t, ctl)

	_, err := client.Reload()
	if err == nil {
		t.Fatalf("expected reload error")
	}
	if !strings.Contains(err.Error(), "config invalid") {
		t.Fatalf("error = %v, want it to mention controller error", err)
	}
}

func TestServer_UnknownCommand(t *testing.T) {
	srv, _ := startServer(t, &fakeController{})

	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(`{"command":"BOGUS"}` + "\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.Contains(string(data), `"ERROR"`) || !strings.Contains(string(data), "Unknown command") {
		t.Fatalf("unexpected response: %s", data)
	}
}

func TestServer_InvalidRequest(t *testing.T) {
	srv, _ := startServer(t, &fakeController{})

	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte("not json\n"))
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.Contains(string(data), "Invalid request") {
		t.Fatalf("unexpected response: %s", data)
	}
}

func TestClient_NotRunning(t *testing.T) {
	client := NewClientAt(filepath.Join(t.TempDir(), "missing.sock"))
	if err := client.Ping(); err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestServer_StopRemovesSocket(t *testing.T) {
	srv, _ := startServer(t, &fakeController{})
	srv.Stop()
	if _, err := os.Stat(srv.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("socket still present after Stop: %v", err)
	}
}
