package hotkeys

// Hotkey names shared by the config keys and the pump dispatch table.
const (
	Fullscreen = "fullscreen"
	Pause      = "pause"
	Snapshot   = "snapshot"
	Record     = "record"
	ToggleFX   = "toggle_fx"
	Menu       = "menu"
)

// Names lists every hotkey in config order.
var Names = []string{Fullscreen, Pause, Snapshot, Record, ToggleFX, Menu}

// Actions maps hotkey names to the functions run when they fire. Dispatch
// is called on the pump goroutine.
type Actions map[string]func()

// Dispatch runs the action bound to name and reports whether one existed.
func (a Actions) Dispatch(name string) bool {
	fn, ok := a[name]
	if !ok || fn == nil {
		return false
	}
	fn()
	return true
}
