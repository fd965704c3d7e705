// Package threadlog keeps a bounded in-memory trace of cross-thread
// coordination events for post-mortem debugging. A nil *Log discards
// everything.
package threadlog

import (
	"log/slog"
	"sync"
	"time"
)

// Entry is one traced event.
type Entry struct {
	At     time.Time
	Thread string
	TID    int
	Event  string
}

// Log is a fixed-size ring of entries.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	start   time.Time
}

// New returns a log holding at most size entries.
func New(size int) *Log {
	if size <= 0 {
		size = 1024
	}
	return &Log{entries: make([]Entry, size), start: time.Now()}
}

// Add records event for the named thread role.
func (l *Log) Add(thread, event string) {
	if l == nil {
		return
	}
	e := Entry{At: time.Now(), Thread: thread, TID: currentTID(), Event: event}

	l.mu.Lock()
	l.entries[l.next] = e
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.full = true
	}
	l.mu.Unlock()
}

// Entries returns the recorded entries, oldest first.
func (l *Log) Entries() []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]Entry(nil), l.entries[:l.next]...)
	}
	out := make([]Entry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}

// Dump writes every entry to logger at debug level.
func (l *Log) Dump(logger *slog.Logger) {
	if l == nil || logger == nil {
		return
	}
	for _, e := range l.Entries() {
		logger.Debug("thread log",
			"offset", e.At.Sub(l.start).Round(time.Microsecond),
			"thread", e.Thread,
			"tid", e.TID,
			"event", e.Event)
	}
}
