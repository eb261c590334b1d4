package core

import (
	"os"
	"testing"
)

// GLFW must be driven from the main thread, so the window is created in
// TestMain and inspected by the tests.
var (
	testWindow    *Window
	testWindowErr error
	testSize      [2]int
)

func TestMain(m *testing.M) {
	cfg := DefaultWindowConfig()
	cfg.Width, cfg.Height = 320, 240
	testWindow, testWindowErr = NewWindow(cfg)
	if testWindowErr == nil {
		testSize[0], testSize[1] = testWindow.Handle.GetSize()
	}
	code := m.Run()
	if testWindow != nil {
		testWindow.Destroy()
	}
	os.Exit(code)
}

func TestWindowReportsActualSize(t *testing.T) {
	if testWindowErr != nil {
		t.Skipf("no display: %v", testWindowErr)
	}
	if testWindow.Width != testSize[0] || testWindow.Height != testSize[1] {
		t.Errorf("window size = %dx%d, GLFW reports %dx%d", testWindow.Width, testWindow.Height, testSize[0], testSize[1])
	}
}

func TestColorHex(t *testing.T) {
	c := ColorHex(0xb5b5b5)
	want := float32(0xb5) / 255
	if c.R != want || c.G != want || c.B != want || c.A != 1 {
		t.Errorf("ColorHex(0xb5b5b5) = %+v", c)
	}
}
