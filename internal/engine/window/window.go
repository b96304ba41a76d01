// Package window creates the OS window and its OpenGL context.
//
// Two backends are available: GLFW and SDL2. Both request an OpenGL 3.3
// core profile context and make it current on the calling thread, which
// must stay the main thread for the life of the process.
package window

import (
	"errors"
	"fmt"
	"runtime"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// ErrCreateWindow is returned when the window or its context cannot be created.
var ErrCreateWindow = errors.New("window creation failed")

// Backend names.
const (
	GLFW = "glfw"
	SDL  = "sdl"
)

// Context version requested from every backend.
const (
	glMajor = 3
	glMinor = 3
)

// Config holds window configuration.
type Config struct {
	Title   string
	Width   int
	Height  int
	Backend string
	VSync   bool
}

// Window is a window with a current OpenGL context.
type Window interface {
	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool
	// SwapBuffers presents the back buffer.
	SwapBuffers()
	// PollEvents processes pending window system events.
	PollEvents()
	// Size returns the drawable size in pixels.
	Size() (int, int)
	// Close destroys the window and shuts the backend down.
	Close()
}

// New creates a window using the configured backend.
func New(cfg Config) (Window, error) {
	switch cfg.Backend {
	case GLFW, "":
		w, err := newGLFW(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	case SDL:
		w, err := newSDL(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrCreateWindow, cfg.Backend)
	}
}
