package stage

import (
	"context"

	"audioscene/internal/log"
)

// DriverState is the frame driver's scheduling state.
type DriverState int

const (
	Running DriverState = iota
	Stopped
)

func (s DriverState) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

const (
	// TimeStep is added to State.Time on every rendered frame.
	TimeStep = 0.05
	// AmplitudeBin is the frequency bin forwarded as amplitude.
	AmplitudeBin = 20

	frequencyBins = 64
	idleWait      = 0.1 // seconds between hook runs while stopped
)

// FrequencySource supplies byte frequency data, one value per bin.
type FrequencySource interface {
	ByteFrequencyData(dst []byte)
}

// Drawer renders the scene once.
type Drawer interface {
	Render() error
}

// Host is the window the driver runs in.
type Host interface {
	ShouldClose() bool
	PollEvents()
	WaitEventsTimeout(timeout float64)
	SwapBuffers()
}

// FrameDriver updates the shader parameter block and renders one frame
// per display refresh while Running.
type FrameDriver struct {
	state    *State
	analyser FrequencySource
	drawer   Drawer
	log      *log.Logger

	hooks   []func()
	bins    [frequencyBins]byte
	lastErr string
}

// NewFrameDriver returns a driver for st. A nil analyser reads as silence.
func NewFrameDriver(st *State, analyser FrequencySource, drawer Drawer, logger *log.Logger) *FrameDriver {
	return &FrameDriver{state: st, analyser: analyser, drawer: drawer, log: logger}
}

// State reports Running or Stopped.
func (d *FrameDriver) State() DriverState {
	if d.state.Playing {
		return Running
	}
	return Stopped
}

// OnFrame registers a hook run once per loop iteration, before the tick,
// whatever the driver state.
func (d *FrameDriver) OnFrame(hook func()) {
	d.hooks = append(d.hooks, hook)
}

// Tick performs one frame while Running and reports whether a frame was
// rendered. While Stopped it changes nothing.
func (d *FrameDriver) Tick() bool {
	if !d.state.Playing {
		return false
	}
	st := d.state

	if d.analyser != nil {
		d.analyser.ByteFrequencyData(d.bins[:])
	}
	st.Time += TimeStep

	p := st.Params
	p.Time = st.Time
	p.Amplitude = float32(d.bins[AmplitudeBin])
	p.Progress = clampf(st.Slider.Value(), SliderMin, SliderMax)
	if v, ok := st.Pointer.Value(); ok {
		p.Pointer = v
	}

	if err := d.drawer.Render(); err != nil {
		if msg := err.Error(); msg != d.lastErr {
			d.log.Errorw("render failed", "error", err)
			d.lastErr = msg
		}
	} else {
		d.lastErr = ""
	}
	return true
}

// Stop halts frame production after the current frame.
func (d *FrameDriver) Stop() {
	if d.state.Playing {
		d.state.Playing = false
		d.log.Debugw("frame driver stopped", "time", d.state.Time)
	}
}

// Play resumes frame production. The next loop iteration renders again;
// a stopped driver does not stay frozen.
func (d *FrameDriver) Play() {
	if !d.state.Playing {
		d.state.Playing = true
		d.log.Debugw("frame driver resumed", "time", d.state.Time)
	}
}

// Run drives frames until host asks to close or ctx is done. Each
// iteration handles host events, runs the hooks, ticks and presents the
// frame. While Stopped it waits for events instead of spinning.
func (d *FrameDriver) Run(ctx context.Context, host Host) error {
	for !host.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.state.Playing {
			host.PollEvents()
		} else {
			host.WaitEventsTimeout(idleWait)
		}
		for _, hook := range d.hooks {
			hook()
		}
		if d.Tick() {
			host.SwapBuffers()
		}
	}
	return nil
}
