package render

import (
	"sync/atomic"

	"github.com/1broseidon/winthread/internal/platform"
)

type noneBackend struct {
	opts Options
}

// NewNoneBackend returns the headless backend. Frames are computed and can
// be captured, but nothing reaches the screen.
func NewNoneBackend(opts Options) (Backend, error) {
	return &noneBackend{opts: opts}, nil
}

func (b *noneBackend) Name() string { return BackendNone }

func (b *noneBackend) NewRenderer(view View) Renderer {
	return &noneRenderer{
		view:    view,
		Capture: NewCapture(b.opts, view.Index()),
	}
}

func (b *noneBackend) Exit() {}

type noneRenderer struct {
	*Capture
	view  View
	draws atomic.Uint64
}

func (r *noneRenderer) Create() error { return nil }

func (r *noneRenderer) Destroy() {}

func (r *noneRenderer) Draw(surface platform.SurfaceID, full bool) error {
	r.draws.Add(1)
	return r.Capture.Frame(r.view.CurrentPrimitives())
}

func (r *noneRenderer) Primitives() *PrimitiveList {
	target := r.view.Target()
	if target == nil {
		return nil
	}
	w, h := r.view.ClientSize()
	return target.Primitives(w, h)
}

func (r *noneRenderer) Save() (string, error) {
	return r.Capture.Save(r.view.CurrentPrimitives())
}

func (r *noneRenderer) Record() (bool, error) {
	return r.Capture.ToggleRecord()
}
