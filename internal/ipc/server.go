package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
)

// Controller executes control commands against the running instance.
// Implementations run each call on the simulation goroutine and return
// once it has executed there.
type Controller interface {
	Status() (StatusData, error)
	Pause(temporary bool) error
	Resume(temporary bool) error
	ToggleFullscreen() (bool, error)
	Snapshot() ([]string, error)
	ToggleRecording() (bool, error)
	ToggleFX() (bool, error)
	Windows() ([]WindowInfo, error)
	Monitors() ([]MonitorInfo, error)
	Reload() (ReloadData, error)
	Quit() error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctl          Controller
	logger       *slog.Logger
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server on socketPath.
func NewServer(socketPath string, ctl Controller, logger *slog.Logger) (*Server, error) {
	if ctl == nil {
		return nil, errors.New("ipc server needs a controller")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctl:        ctl,
		logger:     logger,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandStatus:
		return respond(s.ctl.Status())
	case CommandPause, CommandResume:
		var p PausePayload
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &p); err != nil {
				return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
			}
		}
		var err error
		if req.Command == CommandPause {
			err = s.ctl.Pause(p.Temporary)
		} else {
			err = s.ctl.Resume(p.Temporary)
		}
		return respondErr(err)
	case CommandFullscreen:
		on, err := s.ctl.ToggleFullscreen()
		return respond(FullscreenData{Fullscreen: on}, err)
	case CommandSnapshot:
		paths, err := s.ctl.Snapshot()
		return respond(SnapshotData{Paths: paths}, err)
	case CommandRecord:
		on, err := s.ctl.ToggleRecording()
		return respond(ToggleData{Enabled: on}, err)
	case CommandToggleFX:
		on, err := s.ctl.ToggleFX()
		return respond(ToggleData{Enabled: on}, err)
	case CommandListWindows:
		windows, err := s.ctl.Windows()
		return respond(WindowsData{Windows: windows}, err)
	case CommandGetMonitors:
		monitors, err := s.ctl.Monitors()
		return respond(MonitorsData{Monitors: monitors}, err)
	case CommandReload:
		return respond(s.ctl.Reload())
	case CommandQuit:
		return respondErr(s.ctl.Quit())
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func respond[T any](data T, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func respondErr(err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, removes the socket and waits for the accept loop.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}
