// Package render defines the contract between windows and pluggable
// rendering backends, plus the headless "none" backend.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/1broseidon/winthread/internal/platform"
)

// Background is the fill used before a window has any primitives.
const Background uint32 = 0x000000

// Primitive is one filled rectangle in surface coordinates.
type Primitive = platform.FillRect

// PrimitiveList is an immutable snapshot of what to draw for one frame.
type PrimitiveList struct {
	Frame      uint64
	Width      int
	Height     int
	Background uint32
	Prims      []Primitive
}

// Target is the simulation-side render target owned by a window.
type Target interface {
	Primitives(width, height int) *PrimitiveList
	View() int
	Orientation() int
	LayerConfig() uint32
	MinSize() (int, int)
	Release()
}

// View is what a renderer needs from the window that owns it.
type View interface {
	Index() int
	Surface() platform.SurfaceID
	Target() Target
	ClientSize() (int, int)
	CurrentPrimitives() *PrimitiveList
}

// Renderer draws one window.
type Renderer interface {
	Create() error
	Destroy()
	Draw(surface platform.SurfaceID, full bool) error
	Primitives() *PrimitiveList
	Save() (string, error)
	Record() (bool, error)
	ToggleFX() bool
}

// Backend produces renderers and owns process-wide backend state.
type Backend interface {
	Name() string
	NewRenderer(view View) Renderer
	Exit()
}

// Options are shared by all backends.
type Options struct {
	SnapshotDir string
	Session     string
	Logger      *slog.Logger
}

// Factory builds a backend. Returning an error moves on to the next backend
// in the chain.
type Factory func(opts Options) (Backend, error)

// BackendNone is always available and renders nothing on screen.
const BackendNone = "none"

// ErrNoBackend is returned when every backend in the chain failed.
var ErrNoBackend = errors.New("no render backend available")

// Chain returns the backends to try for a requested name, in order.
func Chain(requested string) []string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested == "" || requested == BackendNone {
		return []string{BackendNone}
	}
	return []string{requested, BackendNone}
}

// Init walks the fallback chain for requested and returns the first backend
// that initializes.
func Init(requested string, factories map[string]Factory, opts Options) (Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, name := range Chain(requested) {
		factory, ok := factories[name]
		if !ok {
			if name != BackendNone {
				errs = append(errs, fmt.Errorf("%s: unknown backend", name))
				continue
			}
			factory = NewNoneBackend
		}
		backend, err := factory(opts)
		if err != nil {
			logger.Warn("render backend unavailable, falling back", "backend", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if name != strings.ToLower(strings.TrimSpace(requested)) {
			logger.Info("using fallback render backend", "requested", requested, "backend", name)
		}
		return backend, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}
