package platform

import "testing"

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}
	if r.Empty() {
		t.Fatalf("%v reported empty", r)
	}
	if !(Rect{Width: 0, Height: 5}).Empty() {
		t.Fatalf("zero-width rect not empty")
	}
	if !r.Contains(10, 20) || r.Contains(110, 20) || r.Contains(10, 70) {
		t.Fatalf("Contains edges wrong for %v", r)
	}
	if x, y := r.Center(); x != 60 || y != 45 {
		t.Fatalf("Center = %d,%d, want 60,45", x, y)
	}
}

func TestDisplayFor(t *testing.T) {
	left := Display{ID: 0, Name: "left", Bounds: Rect{Width: 1920, Height: 1080}}
	right := Display{ID: 1, Name: "right", Bounds: Rect{X: 1920, Width: 1280, Height: 1024}}
	displays := []Display{left, right}

	tests := []struct {
		name   string
		bounds Rect
		want   string
	}{
		{name: "center on left", bounds: Rect{X: 100, Y: 100, Width: 640, Height: 480}, want: "left"},
		{name: "center on right", bounds: Rect{X: 2000, Y: 100, Width: 640, Height: 480}, want: "right"},
		{name: "center off screen, overlaps right", bounds: Rect{X: 2800, Y: 900, Width: 640, Height: 480}, want: "right"},
		{name: "nowhere", bounds: Rect{X: -5000, Y: -5000, Width: 10, Height: 10}, want: "left"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayFor(displays, left, tt.bounds); got.Name != tt.want {
				t.Fatalf("DisplayFor(%v) = %s, want %s", tt.bounds, got.Name, tt.want)
			}
		})
	}
}

func TestEventKindString(t *testing.T) {
	if got := EventHotkey.String(); got != "hotkey" {
		t.Fatalf("EventHotkey = %q", got)
	}
	if got := EventKind(200).String(); got != "unknown" {
		t.Fatalf("out of range kind = %q", got)
	}
}
