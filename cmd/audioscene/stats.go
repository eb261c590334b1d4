package main

import (
	"fmt"
	"time"

	"audioscene/core"
	"audioscene/internal/log"
	"audioscene/renderer"
	"audioscene/stage"
)

// frameStats shows frame rate and draw counts in the window title once a
// second and logs them at debug level.
type frameStats struct {
	window *core.Window
	engine *renderer.RenderEngine
	ctrl   *stage.Controller
	log    *log.Logger

	frames int
	last   time.Time
}

func newFrameStats(window *core.Window, engine *renderer.RenderEngine, ctrl *stage.Controller, logger *log.Logger) *frameStats {
	return &frameStats{window: window, engine: engine, ctrl: ctrl, log: logger, last: time.Now()}
}

// update is a per-frame hook.
func (fs *frameStats) update() {
	if fs.ctrl.Driver.State() == stage.Running {
		fs.frames++
	}
	now := time.Now()
	elapsed := now.Sub(fs.last)
	if elapsed < time.Second {
		return
	}
	fps := float64(fs.frames) / elapsed.Seconds()
	objects, triangles := fs.engine.DrawStats()
	state := fs.ctrl.Driver.State()

	fs.window.SetTitle(fmt.Sprintf("audioscene | FPS: %.0f | %s | progress %.3f", fps, state, fs.ctrl.State.Slider.Value()))
	fs.log.Debugw("frame stats",
		"fps", fps,
		"objects", objects,
		"triangles", triangles,
		"state", state,
		"time", fs.ctrl.State.Time,
		"playing", fs.ctrl.Play.Playing(),
	)

	fs.frames = 0
	fs.last = now
}
