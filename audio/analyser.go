package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// FFTSize is the analysis window length in samples.
	FFTSize = 128

	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	ringLen = 1 << 15
)

// Analyser computes smoothed byte frequency data of the most recently
// heard FFTSize mono samples.
type Analyser struct {
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64

	mu       sync.Mutex
	ring     []float32 // mono ring buffer
	writePos int
	delay    func() int // samples tapped but not yet audible

	fft      *fourier.FFT
	window   []float64
	frame    []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyser returns an analyser with the Web Audio defaults.
func NewAnalyser() *Analyser {
	return &Analyser{
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
		ring:        make([]float32, ringLen),
		fft:         fourier.NewFFT(FFTSize),
		window:      blackman(FFTSize),
		frame:       make([]float64, FFTSize),
		smoothed:    make([]float64, FFTSize/2),
	}
}

// FrequencyBinCount is half the FFT size.
func (a *Analyser) FrequencyBinCount() int { return FFTSize / 2 }

// SetDelay installs a function reporting how many tapped samples are still
// buffered ahead of the speaker, so the analysis follows what is heard.
func (a *Analyser) SetDelay(fn func() int) {
	a.mu.Lock()
	a.delay = fn
	a.mu.Unlock()
}

// Tap is called from the audio goroutine with mono samples in [-1, 1].
func (a *Analyser) Tap(samples []float32) {
	a.mu.Lock()
	for _, s := range samples {
		a.ring[a.writePos] = s
		a.writePos = (a.writePos + 1) % ringLen
	}
	a.mu.Unlock()
}

// Reset silences the input; smoothed output decays from its last value.
func (a *Analyser) Reset() {
	a.mu.Lock()
	clear(a.ring)
	a.mu.Unlock()
}

// snapshot copies the FFTSize samples currently audible into a.frame.
func (a *Analyser) snapshot() {
	a.mu.Lock()
	defer a.mu.Unlock()

	delay := 0
	if a.delay != nil {
		delay = min(max(a.delay(), 0), ringLen-FFTSize)
	}
	start := (a.writePos - delay - FFTSize + ringLen*2) % ringLen
	for i := range a.frame {
		a.frame[i] = float64(a.ring[(start+i)%ringLen])
	}
}

// ByteFrequencyData writes up to FrequencyBinCount values into dst, one per
// bin, each the smoothed magnitude in decibels mapped linearly from
// [MinDecibels, MaxDecibels] onto [0, 255]. Every call advances the
// smoothing by one step.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.snapshot()
	for i, w := range a.window {
		a.frame[i] *= w
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	tau := clamp(a.Smoothing, 0, 1)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / FFTSize
		s := tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s
	}

	n := min(len(dst), len(a.smoothed))
	for k := 0; k < n; k++ {
		dst[k] = byteFromDecibels(20*math.Log10(a.smoothed[k]), a.MinDecibels, a.MaxDecibels)
	}
}

// byteFromDecibels maps db linearly from [minDB, maxDB] to [0, 255],
// clamping outside the range. -Inf (silence) maps to 0.
func byteFromDecibels(db, minDB, maxDB float64) byte {
	if math.IsInf(db, -1) || math.IsNaN(db) || maxDB <= minDB {
		return 0
	}
	v := math.Floor(255 / (maxDB - minDB) * (db - minDB))
	return byte(clamp(v, 0, 255))
}

// blackman returns the Blackman window (alpha 0.16) of length n.
func blackman(n int) []float64 {
	const (
		a0 = 0.42
		a1 = 0.5
		a2 = 0.08
	)
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
