// Package syncevent provides a manual-reset event: a boolean that any
// goroutine can wait on until it becomes set.
package syncevent

import "sync"

// Event is a level-triggered signal. The zero value is not usable; use New.
type Event struct {
	mu  sync.Mutex
	set bool
	c   *sync.Cond
}

// New returns a cleared event.
func New() *Event {
	e := &Event{}
	e.c = sync.NewCond(&e.mu)
	return e
}

// Set raises the event and wakes all waiters.
func (e *Event) Set() {
	e.mu.Lock()
	e.set = true
	e.mu.Unlock()
	e.c.Broadcast()
}

// Reset lowers the event.
func (e *Event) Reset() {
	e.mu.Lock()
	e.set = false
	e.mu.Unlock()
}

// IsSet reports the current level.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Wait blocks until the event is set. It returns immediately if it already is.
func (e *Event) Wait() {
	e.mu.Lock()
	for !e.set {
		e.c.Wait()
	}
	e.mu.Unlock()
}
