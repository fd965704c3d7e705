// Package sim is a small demo simulation: a handful of boxes bouncing around
// a unit square, drawn into every window, plus a pointer crosshair.
package sim

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

// box is one moving rectangle in unit coordinates.
type box struct {
	x, y   float64
	dx, dy float64
	size   float64
	color  uint32
}

var palette = []uint32{0xe06c75, 0x98c379, 0xe5c07b, 0x61afef, 0xc678dd, 0x56b6c2}

// Machine owns the scene and the pause and exit state the coordinator
// drives. Step runs on the simulation goroutine; the rest is safe from any
// goroutine.
type Machine struct {
	logger *slog.Logger

	paused atomic.Bool
	ticks  atomic.Uint64

	exitOnce sync.Once
	exit     chan struct{}

	mu      sync.RWMutex
	boxes   []box
	pointer struct {
		x, y    float64
		visible bool
	}
}

// NewMachine creates a scene with n boxes.
func NewMachine(n int, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	n = max(1, n)
	m := &Machine{
		logger: logger,
		exit:   make(chan struct{}),
		boxes:  make([]box, n),
	}
	for i := range m.boxes {
		f := float64(i+1) / float64(n+1)
		m.boxes[i] = box{
			x:     f * 0.8,
			y:     (1 - f) * 0.8,
			dx:    0.004 + 0.002*float64(i%3),
			dy:    0.003 + 0.0015*float64((i+1)%4),
			size:  0.08 + 0.02*float64(i%3),
			color: palette[i%len(palette)],
		}
	}
	return m
}

// Pause stops the scene from advancing.
func (m *Machine) Pause() {
	if !m.paused.Swap(true) {
		m.logger.Debug("simulation paused")
	}
}

// Resume lets the scene advance again.
func (m *Machine) Resume() {
	if m.paused.Swap(false) {
		m.logger.Debug("simulation resumed")
	}
}

func (m *Machine) IsPaused() bool { return m.paused.Load() }

// RequestExit asks the run loop to stop. Repeated calls are no-ops.
func (m *Machine) RequestExit() {
	m.exitOnce.Do(func() {
		m.logger.Info("simulation exit requested")
		close(m.exit)
	})
}

// Done is closed once RequestExit has been called.
func (m *Machine) Done() <-chan struct{} { return m.exit }

// Exiting reports whether RequestExit has been called.
func (m *Machine) Exiting() bool {
	select {
	case <-m.exit:
		return true
	default:
		return false
	}
}

// Ticks is the number of steps the scene has advanced.
func (m *Machine) Ticks() uint64 { return m.ticks.Load() }

// Step advances the scene one tick unless paused, and reports whether it
// advanced.
func (m *Machine) Step() bool {
	if m.paused.Load() || m.Exiting() {
		return false
	}
	m.mu.Lock()
	for i := range m.boxes {
		b := &m.boxes[i]
		b.x, b.dx = bounce(b.x+b.dx, b.dx, 1-b.size)
		b.y, b.dy = bounce(b.y+b.dy, b.dy, 1-b.size)
	}
	m.mu.Unlock()
	m.ticks.Add(1)
	return true
}

// bounce reflects pos back into [0, limit] and flips the velocity when it
// crossed an edge.
func bounce(pos, vel, limit float64) (float64, float64) {
	switch {
	case pos < 0:
		return -pos, math.Abs(vel)
	case pos > limit:
		return 2*limit - pos, -math.Abs(vel)
	}
	return pos, vel
}

// SetPointer places the crosshair at unit coordinates. Out of range values
// hide it.
func (m *Machine) SetPointer(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointer.visible = x >= 0 && x <= 1 && y >= 0 && y <= 1
	m.pointer.x, m.pointer.y = x, y
}

// HidePointer removes the crosshair.
func (m *Machine) HidePointer() {
	m.mu.Lock()
	m.pointer.visible = false
	m.mu.Unlock()
}
