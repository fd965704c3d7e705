package window

import (
	"fmt"
	"sync"

	"github.com/1broseidon/winthread/internal/platform"
)

// Handle addresses a registry slot. A handle whose window was removed never
// resolves again, even if the slot is reused.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h was issued by a registry.
func (h Handle) Valid() bool { return h.gen != 0 }

func (h Handle) String() string {
	return fmt.Sprintf("window#%d.%d", h.index, h.gen)
}

type slot struct {
	gen uint32
	win *Window
}

// Registry is the arena of live windows plus their order. Only the
// simulation goroutine mutates it; the pump goroutine reads it to route
// events.
type Registry struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32
	order []Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends w at the tail and returns its handle.
func (r *Registry) Add(w *Window) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		idx = uint32(len(r.slots) - 1)
	}
	w.setFullscreenSafe(r.monitorFreeLocked(w.Monitor().ID))
	s := &r.slots[idx]
	s.gen++
	s.win = w

	h := Handle{index: idx, gen: s.gen}
	w.handle = h
	r.order = append(r.order, h)
	return h
}

// Remove unlinks the window addressed by h and returns it.
func (r *Registry) Remove(h Handle) (*Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.getLocked(h)
	if !ok {
		return nil, false
	}
	r.slots[h.index].win = nil
	r.free = append(r.free, h.index)
	for i, oh := range r.order {
		if oh == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return w, true
}

// Get resolves h.
func (r *Registry) Get(h Handle) (*Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(h)
}

func (r *Registry) getLocked(h Handle) (*Window, bool) {
	if !h.Valid() || int(h.index) >= len(r.slots) {
		return nil, false
	}
	s := r.slots[h.index]
	if s.gen != h.gen || s.win == nil {
		return nil, false
	}
	return s.win, true
}

// BySurface finds the live window owning surface.
func (r *Registry) BySurface(id platform.SurfaceID) (*Window, bool) {
	if id == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.order {
		if w, ok := r.getLocked(h); ok && w.Surface() == id {
			return w, true
		}
	}
	return nil, false
}

// Windows returns the live windows in registry order.
func (r *Registry) Windows() []*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Window, 0, len(r.order))
	for _, h := range r.order {
		if w, ok := r.getLocked(h); ok {
			out = append(out, w)
		}
	}
	return out
}

// Primary returns the first window, which holds focus by default.
func (r *Registry) Primary() (*Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, false
	}
	return r.getLocked(r.order[0])
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// monitorFreeLocked reports whether no live window sits on monitor id. The
// flag is fixed at Add: a window admitted as shared stays shared after its
// sibling goes away.
func (r *Registry) monitorFreeLocked(id int) bool {
	for _, h := range r.order {
		if w, ok := r.getLocked(h); ok && w.Monitor().ID == id {
			return false
		}
	}
	return true
}
