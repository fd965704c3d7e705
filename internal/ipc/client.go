package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/winthread/internal/runtimepath"
)

// Client handles IPC communication with a running instance
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to winthread: %w (is it running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("winthread error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends cmd with an optional payload and decodes the response data
// into out when out is non-nil.
func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetStatus retrieves instance status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Pause pauses the simulation. temporary nests a UI pause instead.
func (c *Client) Pause(temporary bool) error {
	return c.call(CommandPause, PausePayload{Temporary: temporary}, nil)
}

// Resume undoes Pause.
func (c *Client) Resume(temporary bool) error {
	return c.call(CommandResume, PausePayload{Temporary: temporary}, nil)
}

// ToggleFullscreen flips fullscreen on every window.
func (c *Client) ToggleFullscreen() (bool, error) {
	var data FullscreenData
	err := c.call(CommandFullscreen, nil, &data)
	return data.Fullscreen, err
}

// Snapshot saves the current frame of every window.
func (c *Client) Snapshot() ([]string, error) {
	var data SnapshotData
	err := c.call(CommandSnapshot, nil, &data)
	return data.Paths, err
}

// ToggleRecording starts or stops frame recording.
func (c *Client) ToggleRecording() (bool, error) {
	var data ToggleData
	err := c.call(CommandRecord, nil, &data)
	return data.Enabled, err
}

// ToggleFX flips the post-processing effect.
func (c *Client) ToggleFX() (bool, error) {
	var data ToggleData
	err := c.call(CommandToggleFX, nil, &data)
	return data.Enabled, err
}

// ListWindows retrieves the coordinator's windows.
func (c *Client) ListWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	var data MonitorsData
	if err := c.call(CommandGetMonitors, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Reload asks the instance to re-read its config file.
func (c *Client) Reload() (*ReloadData, error) {
	var data ReloadData
	if err := c.call(CommandReload, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Quit asks the instance to exit.
func (c *Client) Quit() error {
	return c.call(CommandQuit, nil, nil)
}

// Ping checks if the instance is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
