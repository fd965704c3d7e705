package render

import (
	"fmt"

	"github.com/1broseidon/winthread/internal/platform"
)

// scanline is the color drawn over every other row while fx is on.
const scanline uint32 = 0x101010

// NewPaintFactory returns a factory for a backend that draws primitive lists
// through a window system's Painter. A nil painter makes the factory fail so
// the chain falls back.
func NewPaintFactory(name string, painter platform.Painter) Factory {
	return func(opts Options) (Backend, error) {
		if painter == nil {
			return nil, fmt.Errorf("%s: window system cannot paint", name)
		}
		return &paintBackend{name: name, painter: painter, opts: opts}, nil
	}
}

type paintBackend struct {
	name    string
	painter platform.Painter
	opts    Options
}

func (b *paintBackend) Name() string { return b.name }

func (b *paintBackend) NewRenderer(view View) Renderer {
	return &paintRenderer{
		Capture: NewCapture(b.opts, view.Index()),
		view:    view,
		painter: b.painter,
	}
}

func (b *paintBackend) Exit() {}

type paintRenderer struct {
	*Capture
	view    View
	painter platform.Painter
	created bool
}

func (r *paintRenderer) Create() error {
	if r.view.Surface() == 0 {
		return fmt.Errorf("window %d has no surface", r.view.Index())
	}
	r.created = true
	return nil
}

func (r *paintRenderer) Destroy() { r.created = false }

// Draw paints the window's current list. Partial and full draws are the same
// here: the list is always repainted whole.
func (r *paintRenderer) Draw(surface platform.SurfaceID, full bool) error {
	list := r.view.CurrentPrimitives()
	if list == nil {
		return r.painter.Paint(surface, Background, nil)
	}

	rects := list.Prims
	if r.FX() {
		rects = withScanlines(list)
	}
	if err := r.painter.Paint(surface, list.Background, rects); err != nil {
		return err
	}
	return r.Capture.Frame(list)
}

func (r *paintRenderer) Primitives() *PrimitiveList {
	target := r.view.Target()
	if target == nil {
		return nil
	}
	w, h := r.view.ClientSize()
	return target.Primitives(w, h)
}

func (r *paintRenderer) Save() (string, error) {
	return r.Capture.Save(r.view.CurrentPrimitives())
}

func (r *paintRenderer) Record() (bool, error) {
	return r.Capture.ToggleRecord()
}

func withScanlines(list *PrimitiveList) []Primitive {
	out := make([]Primitive, 0, len(list.Prims)+list.Height/2)
	out = append(out, list.Prims...)
	for y := 1; y < list.Height; y += 2 {
		out = append(out, Primitive{
			Bounds: platform.Rect{Y: y, Width: list.Width, Height: 1},
			Color:  scanline,
		})
	}
	return out
}
