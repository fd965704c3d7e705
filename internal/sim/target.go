package sim

import (
	"sync/atomic"

	"github.com/1broseidon/winthread/internal/platform"
	"github.com/1broseidon/winthread/internal/render"
)

const (
	minWidth  = 320
	minHeight = 240

	pointerColor uint32 = 0xffffff
	pointerArm          = 8
)

// backgrounds tints each view so windows are easy to tell apart.
var backgrounds = []uint32{0x1e2127, 0x21252b, 0x282c34, 0x2c313a}

// Target renders the machine's scene for one window.
type Target struct {
	m        *Machine
	view     atomic.Int32
	orient   atomic.Int32
	layer    atomic.Uint32
	frame    atomic.Uint64
	released atomic.Bool
}

// NewTarget returns the render target for the window at index.
func (m *Machine) NewTarget(index int) render.Target {
	t := &Target{m: m}
	t.view.Store(int32(index))
	return t
}

// Primitives snapshots the scene scaled to width x height.
func (t *Target) Primitives(width, height int) *render.PrimitiveList {
	width, height = max(1, width), max(1, height)
	list := &render.PrimitiveList{
		Frame:      t.frame.Add(1),
		Width:      width,
		Height:     height,
		Background: backgrounds[int(t.view.Load())%len(backgrounds)],
	}
	if t.released.Load() {
		return list
	}

	t.m.mu.RLock()
	defer t.m.mu.RUnlock()

	fw, fh := float64(width), float64(height)
	list.Prims = make([]render.Primitive, 0, len(t.m.boxes)+2)
	for _, b := range t.m.boxes {
		list.Prims = append(list.Prims, render.Primitive{
			Bounds: platform.Rect{
				X:      int(b.x * fw),
				Y:      int(b.y * fh),
				Width:  max(1, int(b.size*fw)),
				Height: max(1, int(b.size*fh)),
			},
			Color: b.color,
		})
	}
	if p := t.m.pointer; p.visible {
		x, y := int(p.x*fw), int(p.y*fh)
		list.Prims = append(list.Prims,
			render.Primitive{Bounds: platform.Rect{X: x - pointerArm, Y: y, Width: 2*pointerArm + 1, Height: 1}, Color: pointerColor},
			render.Primitive{Bounds: platform.Rect{X: x, Y: y - pointerArm, Width: 1, Height: 2*pointerArm + 1}, Color: pointerColor},
		)
	}
	return list
}

func (t *Target) View() int           { return int(t.view.Load()) }
func (t *Target) Orientation() int    { return int(t.orient.Load()) }
func (t *Target) LayerConfig() uint32 { return t.layer.Load() }
func (t *Target) MinSize() (int, int) { return minWidth, minHeight }

// Release detaches the target from the scene. Later frames are empty.
func (t *Target) Release() { t.released.Store(true) }

// Rotate turns the view a quarter and reports the new orientation.
func (t *Target) Rotate() int {
	for {
		cur := t.orient.Load()
		next := (cur + 1) % 4
		if t.orient.CompareAndSwap(cur, next) {
			return int(next)
		}
	}
}

// SetLayers replaces the layer configuration bits.
func (t *Target) SetLayers(bits uint32) { t.layer.Store(bits) }
