package core

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	resizeHandlers []ResizeCallback
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:      1280,
		Height:     720,
		Title:      "audioscene",
		Resizable:  true,
		VSync:      true,
		Fullscreen: false,
	}
}

// NewWindow creates a window with a current OpenGL 4.1 core context.
// With VSync on, one buffer swap happens per display refresh.
func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	// A fullscreen window gets the monitor's video mode, not the requested size.
	width, height := handle.GetSize()
	window := &Window{
		Handle: handle,
		Width:  width,
		Height: height,
		Title:  config.Title,
	}

	handle.SetSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
		for _, cb := range window.resizeHandlers {
			cb(width, height)
		}
	})

	return window, nil
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

// Close asks the event loop to exit after the current frame.
func (w *Window) Close() {
	w.Handle.SetShouldClose(true)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEventsTimeout blocks until an event is queued or timeout seconds pass.
func (w *Window) WaitEventsTimeout(timeout float64) {
	glfw.WaitEventsTimeout(timeout)
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

// PixelRatio is the framebuffer-to-window scale (2 on most HiDPI displays).
func (w *Window) PixelRatio() float32 {
	fbw, _ := w.Handle.GetFramebufferSize()
	if w.Width == 0 {
		return 1
	}
	return float32(fbw) / float32(w.Width)
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) IsMouseButtonPressed(button int) bool {
	return w.Handle.GetMouseButton(glfw.MouseButton(button)) == glfw.Press
}

func (w *Window) GetCursorPos() (float64, float64) {
	return w.Handle.GetCursorPos()
}

// ResizeCallback receives the new window size in screen coordinates.
type ResizeCallback func(width, height int)

// OnResize registers cb to run after the window size changes. Handlers
// run in registration order on the main goroutine.
func (w *Window) OnResize(cb ResizeCallback) {
	w.resizeHandlers = append(w.resizeHandlers, cb)
}

// CursorCallback receives the cursor position in window coordinates.
type CursorCallback func(x, y float64)

func (w *Window) SetCursorCallback(cb CursorCallback) {
	w.Handle.SetCursorPosCallback(func(win *glfw.Window, x, y float64) {
		cb(x, y)
	})
}

// ScrollCallback is the type for scroll event handlers
type ScrollCallback func(xoff, yoff float64)

func (w *Window) SetScrollCallback(cb ScrollCallback) {
	w.Handle.SetScrollCallback(func(win *glfw.Window, xoff, yoff float64) {
		cb(xoff, yoff)
	})
}

// KeyCallback fires on key press and auto-repeat, never on release.
type KeyCallback func(key int)

func (w *Window) SetKeyCallback(cb KeyCallback) {
	w.Handle.SetKeyCallback(func(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		cb(int(key))
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const (
	KeySpace  = int(glfw.KeySpace)
	KeyEscape = int(glfw.KeyEscape)
	KeyUp     = int(glfw.KeyUp)
	KeyDown   = int(glfw.KeyDown)
	KeyP      = int(glfw.KeyP)
	KeyS      = int(glfw.KeyS)

	MouseLeft = int(glfw.MouseButtonLeft)
)
