// Package rendersync guards the hand-off of frame snapshots between the
// simulation goroutine that produces them and the pump goroutine that draws.
package rendersync

import "time"

// StaleAfter is how old the last successful update may get before the
// producer stops skipping frames and waits for the lock instead.
const StaleAfter = 250 * time.Millisecond

// Lock is a per-window mutex with a non-blocking acquire mode.
type Lock struct {
	ch chan struct{}
}

// New returns an unlocked Lock.
func New() *Lock {
	return &Lock{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is held.
func (l *Lock) Acquire() {
	l.ch <- struct{}{}
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (l *Lock) TryAcquire() bool {
	select {
	case l.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release unlocks. Releasing an unlocked Lock panics, like sync.Mutex.
func (l *Lock) Release() {
	select {
	case <-l.ch:
	default:
		panic("rendersync: release of unlocked lock")
	}
}

// Held reports whether some goroutine currently holds the lock.
func (l *Lock) Held() bool {
	return len(l.ch) == 1
}

// ShouldBlock decides the acquisition mode for a frame update.
func ShouldBlock(throttled bool, lastUpdate, now time.Time) bool {
	return throttled || now.Sub(lastUpdate) > StaleAfter
}

// AcquireFor picks the acquisition mode and takes the lock. It returns false
// when the frame should be skipped.
func (l *Lock) AcquireFor(throttled bool, lastUpdate, now time.Time) bool {
	if ShouldBlock(throttled, lastUpdate, now) {
		l.Acquire()
		return true
	}
	return l.TryAcquire()
}
