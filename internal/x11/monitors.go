package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Geometry is a rectangle in root window coordinates.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Monitor represents a physical display. Work is the part of it not covered
// by panels and docks.
type Monitor struct {
	ID      int
	Name    string
	Primary bool
	Geometry
	Work Geometry
}

// GetMonitors retrieves all active monitors using XRandR, with their work
// areas filled in.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTCs report no size or no outputs.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		isPrimary := false
		for _, o := range info.Outputs {
			if primary != 0 && o == primary {
				isPrimary = true
			}
		}

		mon := Monitor{
			ID:      i,
			Name:    name,
			Primary: isPrimary,
			Geometry: Geometry{
				X:      int(info.X),
				Y:      int(info.Y),
				Width:  int(info.Width),
				Height: int(info.Height),
			},
		}
		mon.Work = c.workArea(mon.Geometry)
		monitors = append(monitors, mon)
	}

	if len(monitors) == 0 {
		root := RootGeometry(c)
		monitors = append(monitors, Monitor{Name: "screen", Primary: true, Geometry: root, Work: c.workArea(root)})
	}
	return monitors, nil
}

// PointerMonitor returns the index of the monitor under the pointer, or -1.
func (c *Connection) PointerMonitor(monitors []Monitor) int {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return -1
	}
	x, y := int(pointer.RootX), int(pointer.RootY)
	for i, mon := range monitors {
		if x >= mon.X && x < mon.X+mon.Width && y >= mon.Y && y < mon.Y+mon.Height {
			return i
		}
	}
	return -1
}

// RootGeometry returns the size of the root window.
func RootGeometry(c *Connection) Geometry {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return Geometry{Width: 1, Height: 1}
	}
	return Geometry{Width: int(geom.Width), Height: int(geom.Height)}
}

// workArea shrinks a monitor by dock struts, falling back to the EWMH work
// area of the current desktop.
func (c *Connection) workArea(mon Geometry) Geometry {
	if work, ok := applyDockStruts(c, mon); ok {
		return work
	}

	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return mon
	}
	desktop := 0
	if cur, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(cur) < len(areas) {
		desktop = int(cur)
	}
	wa := areas[desktop]

	x1 := max(mon.X, int(wa.X))
	y1 := max(mon.Y, int(wa.Y))
	x2 := min(mon.X+mon.Width, int(wa.X)+int(wa.Width))
	y2 := min(mon.Y+mon.Height, int(wa.Y)+int(wa.Height))
	if x2 <= x1 || y2 <= y1 {
		return mon
	}
	return Geometry{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

func applyDockStruts(c *Connection, mon Geometry) (Geometry, bool) {
	root := RootGeometry(c)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return mon, false
	}

	var struts dockStruts
	for _, id := range clients {
		if !isDock(c, id) {
			continue
		}
		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, id); err == nil {
			struts.add(mon, root, sp)
			continue
		}
		// Some docks only set _NET_WM_STRUT.
		if s, err := ewmh.WmStrutGet(c.XUtil, id); err == nil {
			struts.add(mon, root, &ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(root.Height - 1),
				RightEndY:  uint(root.Height - 1),
				TopEndX:    uint(root.Width - 1),
				BottomEndX: uint(root.Width - 1),
			})
		}
	}

	if struts == (dockStruts{}) {
		return mon, false
	}
	work := Geometry{
		X:      mon.X + struts.left,
		Y:      mon.Y + struts.top,
		Width:  max(1, mon.Width-struts.left-struts.right),
		Height: max(1, mon.Height-struts.top-struts.bottom),
	}
	return work, true
}

func isDock(c *Connection, id xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, id)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

func (acc *dockStruts) add(mon, root Geometry, sp *ewmh.WmStrutPartial) {
	if sp.Top > 0 {
		r := Geometry{X: int(sp.TopStartX), Y: 0, Width: int(sp.TopEndX) + 1 - int(sp.TopStartX), Height: int(sp.Top)}
		acc.top = max(acc.top, intersect(mon, r).Height)
	}
	if sp.Bottom > 0 {
		r := Geometry{X: int(sp.BottomStartX), Y: root.Height - int(sp.Bottom), Width: int(sp.BottomEndX) + 1 - int(sp.BottomStartX), Height: int(sp.Bottom)}
		acc.bottom = max(acc.bottom, intersect(mon, r).Height)
	}
	if sp.Left > 0 {
		r := Geometry{X: 0, Y: int(sp.LeftStartY), Width: int(sp.Left), Height: int(sp.LeftEndY) + 1 - int(sp.LeftStartY)}
		acc.left = max(acc.left, intersect(mon, r).Width)
	}
	if sp.Right > 0 {
		r := Geometry{X: root.Width - int(sp.Right), Y: int(sp.RightStartY), Width: int(sp.Right), Height: int(sp.RightEndY) + 1 - int(sp.RightStartY)}
		acc.right = max(acc.right, intersect(mon, r).Width)
	}
}

// intersect returns the overlap of a and b, or a zero Geometry.
func intersect(a, b Geometry) Geometry {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return Geometry{}
	}
	return Geometry{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
