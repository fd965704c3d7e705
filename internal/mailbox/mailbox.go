package mailbox

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Post and Receive once the mailbox has been closed.
var ErrClosed = errors.New("mailbox closed")

// Kind tags a message so receivers can route it without reflection.
type Kind uint8

const (
	KindUnhandled Kind = iota
	KindOSEvent
	KindFinishCreateWindow
	KindSelfTerminate
	KindRedraw
	KindSetFullscreen
	KindSetMaxSize
	KindSetMinSize
	KindUITempPause
	KindExecFunc
	KindQuit
)

var kindNames = map[Kind]string{
	KindUnhandled:          "unhandled",
	KindOSEvent:            "os_event",
	KindFinishCreateWindow: "finish_create_window",
	KindSelfTerminate:      "self_terminate",
	KindRedraw:             "redraw",
	KindSetFullscreen:      "set_fullscreen",
	KindSetMaxSize:         "set_max_size",
	KindSetMinSize:         "set_min_size",
	KindUITempPause:        "ui_temp_pause",
	KindExecFunc:           "exec_func",
	KindQuit:               "quit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Message is a payload deliverable to a thread's mailbox.
type Message interface {
	Kind() Kind
}

// Mailbox is an unbounded FIFO owned by one receiving goroutine.
// Post never blocks; any number of goroutines may post.
type Mailbox struct {
	name string

	mu     sync.Mutex
	queue  []Message
	closed bool
	notify chan struct{}

	posted    uint64
	delivered uint64
}

// New creates an empty mailbox. The name is used in logs only.
func New(name string) *Mailbox {
	return &Mailbox{
		name:   name,
		notify: make(chan struct{}, 1),
	}
}

// Name returns the mailbox name.
func (m *Mailbox) Name() string {
	return m.name
}

// Post appends msg to the queue and wakes the receiver.
func (m *Mailbox) Post(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.queue = append(m.queue, msg)
	m.posted++

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// TryReceive pops the oldest message without blocking.
func (m *Mailbox) TryReceive() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return nil, false
	}
	msg := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	if len(m.queue) == 0 {
		m.queue = m.queue[:0:0]
	}
	m.delivered++
	return msg, true
}

// Receive blocks until a message is available, the mailbox is closed and
// drained, or ctx is done.
func (m *Mailbox) Receive(ctx context.Context) (Message, error) {
	for {
		if msg, ok := m.TryReceive(); ok {
			return msg, nil
		}
		if m.isClosed() {
			return nil, ErrClosed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.notify:
		}
	}
}

// Notify returns a channel that receives a token whenever a message is posted.
// A token may be stale; callers must drain with TryReceive after waking.
func (m *Mailbox) Notify() <-chan struct{} {
	return m.notify
}

// Len reports the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Stats returns the number of posted and delivered messages.
func (m *Mailbox) Stats() (posted, delivered uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posted, m.delivered
}

// Close rejects further posts. Queued messages can still be received.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.notify)
}

func (m *Mailbox) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
