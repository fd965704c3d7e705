package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoSnapshotDir is returned when a capture is requested without a
// configured output directory.
var ErrNoSnapshotDir = errors.New("snapshot directory not configured")

// Capture implements the save/record/fx half of a renderer. Backends embed
// it and feed it every frame they draw.
type Capture struct {
	opts  Options
	index int

	mu        sync.Mutex
	seq       int
	recording bool
	recDir    string
	recFrame  int
	fx        bool
}

// NewCapture creates capture state for the window at index.
func NewCapture(opts Options, index int) *Capture {
	return &Capture{opts: opts, index: index}
}

// Save writes one PNG of list and returns its path.
func (c *Capture) Save(list *PrimitiveList) (string, error) {
	if c.opts.SnapshotDir == "" {
		return "", ErrNoSnapshotDir
	}
	if err := os.MkdirAll(c.opts.SnapshotDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	c.mu.Lock()
	c.seq++
	name := fmt.Sprintf("%s-w%d-%04d.png", c.prefix(), c.index, c.seq)
	fx := c.fx
	c.mu.Unlock()

	path := filepath.Join(c.opts.SnapshotDir, name)
	if err := writePNG(path, Rasterize(list, fx)); err != nil {
		return "", err
	}
	return path, nil
}

// ToggleRecord starts or stops writing every drawn frame to a directory.
// It returns the new recording state.
func (c *Capture) ToggleRecord() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording {
		c.recording = false
		return false, nil
	}
	if c.opts.SnapshotDir == "" {
		return false, ErrNoSnapshotDir
	}

	c.seq++
	dir := filepath.Join(c.opts.SnapshotDir, fmt.Sprintf("%s-w%d-rec%04d", c.prefix(), c.index, c.seq))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create recording dir: %w", err)
	}
	c.recDir = dir
	c.recFrame = 0
	c.recording = true
	return true, nil
}

// Frame records list if recording is active.
func (c *Capture) Frame(list *PrimitiveList) error {
	c.mu.Lock()
	if !c.recording || list == nil {
		c.mu.Unlock()
		return nil
	}
	c.recFrame++
	path := filepath.Join(c.recDir, fmt.Sprintf("frame-%06d.png", c.recFrame))
	fx := c.fx
	c.mu.Unlock()

	return writePNG(path, Rasterize(list, fx))
}

// Recording reports whether frames are being recorded.
func (c *Capture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// ToggleFX flips the scanline effect and returns the new state.
func (c *Capture) ToggleFX() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fx = !c.fx
	return c.fx
}

// FX reports whether the scanline effect is on.
func (c *Capture) FX() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fx
}

func (c *Capture) prefix() string {
	if len(c.opts.Session) >= 8 {
		return c.opts.Session[:8]
	}
	if c.opts.Session != "" {
		return c.opts.Session
	}
	return "snap"
}

// Rasterize renders list into an RGBA image. A nil list yields a 1x1
// background image.
func Rasterize(list *PrimitiveList, fx bool) *image.RGBA {
	if list == nil || list.Width <= 0 || list.Height <= 0 {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, rgb(Background))
		return img
	}

	bounds := image.Rect(0, 0, list.Width, list.Height)
	img := image.NewRGBA(bounds)
	fill(img, bounds, rgb(list.Background))
	for _, p := range list.Prims {
		fill(img, image.Rect(p.Bounds.X, p.Bounds.Y, p.Bounds.X+p.Bounds.Width, p.Bounds.Y+p.Bounds.Height), rgb(p.Color))
	}
	if fx {
		// Half-transparent black over every other row halves it.
		shade := image.NewUniform(color.RGBA{A: 0x80})
		for y := 1; y < list.Height; y += 2 {
			draw.Draw(img, image.Rect(0, y, list.Width, y+1), shade, image.Point{}, draw.Over)
		}
	}
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func rgb(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
