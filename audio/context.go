package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	channelCount   = 2
	bytesPerSample = 2 // signed 16-bit little endian
	frameSize      = channelCount * bytesPerSample
)

// Context owns the audio device. Like a browser audio context it starts
// suspended and produces no sound until Resume is called.
type Context struct {
	ctx        *oto.Context
	ready      chan struct{}
	sampleRate int
	suspended  atomic.Bool
}

// NewContext opens the default output device at sampleRate.
// Only one Context may exist per process.
func NewContext(sampleRate int) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	c := &Context{ctx: ctx, ready: ready, sampleRate: sampleRate}
	c.suspended.Store(true)
	return c, nil
}

// SampleRate of the output device.
func (c *Context) SampleRate() int { return c.sampleRate }

// Suspended reports whether output is currently halted.
func (c *Context) Suspended() bool { return c.suspended.Load() }

// Resume waits for the device to become ready and starts output.
func (c *Context) Resume() error {
	<-c.ready
	if err := c.ctx.Resume(); err != nil {
		return fmt.Errorf("resume audio: %w", err)
	}
	c.suspended.Store(false)
	return nil
}

