package rendersync

import (
	"testing"
	"time"
)

func TestShouldBlock(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		throttled bool
		last      time.Time
		want      bool
	}{
		{name: "fresh unthrottled", last: now.Add(-10 * time.Millisecond), want: false},
		{name: "fresh throttled", throttled: true, last: now.Add(-10 * time.Millisecond), want: true},
		{name: "exactly at threshold", last: now.Add(-StaleAfter), want: false},
		{name: "stale", last: now.Add(-StaleAfter - time.Millisecond), want: true},
		{name: "never updated", last: time.Time{}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldBlock(tt.throttled, tt.last, now); got != tt.want {
				t.Fatalf("ShouldBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLock_TryAcquireFailsWhileHeld(t *testing.T) {
	l := New()
	if !l.TryAcquire() {
		t.Fatalf("TryAcquire on free lock failed")
	}
	if !l.Held() {
		t.Fatalf("Held() = false after acquire")
	}
	if l.TryAcquire() {
		t.Fatalf("TryAcquire succeeded on held lock")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatalf("TryAcquire after release failed")
	}
	l.Release()
}

func TestLock_AcquireForNeverBlocksWhenFreshAndUnthrottled(t *testing.T) {
	l := New()
	l.Acquire() // consumer is mid-draw

	now := time.Now()
	done := make(chan bool, 1)
	go func() {
		done <- l.AcquireFor(false, now.Add(-5*time.Millisecond), now)
	}()

	select {
	case got := <-done:
		if got {
			t.Fatalf("AcquireFor acquired a held lock")
		}
	case <-time.After(time.Second):
		t.Fatalf("AcquireFor blocked on a fresh unthrottled update")
	}
	l.Release()
}

func TestLock_AcquireForWaitsWhenStale(t *testing.T) {
	l := New()
	l.Acquire()

	now := time.Now()
	done := make(chan bool, 1)
	go func() {
		done <- l.AcquireFor(false, now.Add(-time.Second), now)
	}()

	select {
	case <-done:
		t.Fatalf("stale update did not wait for the lock")
	case <-time.After(30 * time.Millisecond):
	}

	l.Release()
	select {
	case got := <-done:
		if !got {
			t.Fatalf("AcquireFor returned false after waiting")
		}
	case <-time.After(time.Second):
		t.Fatalf("AcquireFor never acquired")
	}
	l.Release()
}

func TestLock_ReleaseUnlockedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New().Release()
}
