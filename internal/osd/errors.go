package osd

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowCreationFailed is returned by CreateWindow when the pump
	// could not build the surface.
	ErrWindowCreationFailed = errors.New("window creation failed")

	// ErrRendererCreationFailed is returned by SetFullscreen when the
	// renderer could not be recreated after the style change. The window
	// keeps running with background fills only.
	ErrRendererCreationFailed = errors.New("renderer creation failed")

	// ErrInvalidState is returned for lifecycle calls made in the wrong state.
	ErrInvalidState = errors.New("invalid coordinator state")

	// ErrUnknownWindow is returned for handles that no longer resolve.
	ErrUnknownWindow = errors.New("unknown window")

	// ErrPumpStopped is returned for requests that reach the pump after its
	// loop has exited.
	ErrPumpStopped = errors.New("pump stopped")
)

// FatalStartupError reports that the pump goroutine never came alive.
type FatalStartupError struct {
	Err error
}

func (e *FatalStartupError) Error() string {
	return fmt.Sprintf("pump thread failed to start: %v", e.Err)
}

func (e *FatalStartupError) Unwrap() error {
	return e.Err
}
