package stage

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"audioscene/internal/log"
)

// Pointer is the last cursor position normalised to [-0.5, 0.5] with +y up.
type Pointer struct {
	pos mgl32.Vec2
	set bool
}

// Move records a cursor position in window coordinates of a width×height
// viewport.
func (p *Pointer) Move(x, y, width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	p.pos = mgl32.Vec2{float32(x/width - 0.5), float32(-y/height + 0.5)}
	p.set = true
}

// Value returns the position; ok is false before the first Move.
func (p *Pointer) Value() (pos mgl32.Vec2, ok bool) {
	return p.pos, p.set
}

const (
	SliderMin  = 0
	SliderMax  = 0.2
	SliderStep = 0.001
)

// Slider holds the progress value, always in [SliderMin, SliderMax] and on
// a SliderStep boundary.
type Slider struct {
	value float32
}

func (s *Slider) Value() float32 { return s.value }

// Set clamps v into range and snaps it to the nearest step.
func (s *Slider) Set(v float32) {
	v = clampf(v, SliderMin, SliderMax)
	steps := math.Round(float64(v-SliderMin) / SliderStep)
	s.value = clampf(float32(SliderMin+steps*SliderStep), SliderMin, SliderMax)
}

// Nudge moves the value by n steps.
func (s *Slider) Nudge(n int) {
	s.Set(s.value + float32(n)*SliderStep)
}

// AudioContext is the output device gate.
type AudioContext interface {
	Suspended() bool
	Resume() error
}

// Track is a playable audio source. Err reports a device or decode
// failure that stopped playback.
type Track interface {
	Play()
	Pause()
	Ended() bool
	Err() error
}

// PlayControl is the play/pause toggle of the soundtrack. Its state is
// independent of the frame driver.
type PlayControl struct {
	ctx     AudioContext
	track   Track
	playing bool
	log     *log.Logger
}

// NewPlayControl returns a control in the not-playing state. ctx and track
// may be nil when audio is unavailable; Toggle then does nothing.
func NewPlayControl(ctx AudioContext, track Track, logger *log.Logger) *PlayControl {
	return &PlayControl{ctx: ctx, track: track, log: logger}
}

// Playing reports the control's visible state.
func (c *PlayControl) Playing() bool { return c.playing }

// Toggle resumes a suspended audio context, then plays or pauses the
// track and flips the state. A failed resume is reported but does not
// prevent the toggle.
func (c *PlayControl) Toggle() error {
	if c.track == nil {
		c.log.Debugw("play toggled without audio")
		return nil
	}
	var err error
	if c.ctx != nil && c.ctx.Suspended() {
		err = multierr.Append(err, c.ctx.Resume())
	}
	if c.playing {
		c.track.Pause()
	} else {
		c.track.Play()
	}
	c.playing = !c.playing
	c.log.Infow("playback toggled", "playing", c.playing)
	return err
}

// Poll resets the state to not playing once the track has ended or
// failed. Call it once per frame.
func (c *PlayControl) Poll() {
	if !c.playing || c.track == nil {
		return
	}
	if err := c.track.Err(); err != nil {
		c.track.Pause()
		c.playing = false
		c.log.Errorw("playback failed", "error", err)
		return
	}
	if c.track.Ended() {
		c.playing = false
		c.log.Infow("track ended")
	}
}

// OrbitControls turns left-drag into camera orbit and scroll into zoom
// around the camera target.
type OrbitControls struct {
	state       *State
	RotateSpeed float32 // radians per pixel
	ZoomSpeed   float32 // distance factor per scroll step

	dragging     bool
	lastX, lastY float64
}

func NewOrbitControls(st *State) *OrbitControls {
	return &OrbitControls{state: st, RotateSpeed: 0.005, ZoomSpeed: 0.95}
}

// Drag feeds the current button state and cursor position. Call once per
// frame.
func (o *OrbitControls) Drag(pressed bool, x, y float64) {
	if !pressed {
		o.dragging = false
		return
	}
	if !o.dragging {
		o.dragging = true
		o.lastX, o.lastY = x, y
		return
	}
	dx, dy := x-o.lastX, y-o.lastY
	o.lastX, o.lastY = x, y
	if dx == 0 && dy == 0 {
		return
	}
	o.state.Camera.Orbit(-float32(dx)*o.RotateSpeed, float32(dy)*o.RotateSpeed)
}

// Scroll zooms in for positive offsets and out for negative ones.
func (o *OrbitControls) Scroll(yoff float64) {
	if yoff == 0 {
		return
	}
	o.state.Camera.Zoom(float32(math.Pow(float64(o.ZoomSpeed), yoff)))
}

func clampf(v, lo, hi float32) float32 {
	return max(lo, min(hi, v))
}
