package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
)

func sine(bin int, amplitude float64) []float32 {
	out := make([]float32, FFTSize)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*float64(bin)*float64(i)/FFTSize))
	}
	return out
}

func TestAnalyserSilence(t *testing.T) {
	a := NewAnalyser()
	buf := make([]byte, a.FrequencyBinCount())
	for i := range buf {
		buf[i] = 0xff
	}
	a.ByteFrequencyData(buf)
	for k, v := range buf {
		if v != 0 {
			t.Fatalf("bin %d = %d on silence, want 0", k, v)
		}
	}
}

func TestAnalyserPeakBin(t *testing.T) {
	a := NewAnalyser()
	a.Tap(sine(20, 0.01))

	buf := make([]byte, a.FrequencyBinCount())
	a.ByteFrequencyData(buf)

	if buf[20] == 0 {
		t.Fatal("bin 20 is silent")
	}
	if buf[20] <= buf[19] || buf[20] <= buf[21] {
		t.Errorf("bin 20 (%d) is not the peak: 19=%d 21=%d", buf[20], buf[19], buf[21])
	}
	if buf[40] != 0 || buf[2] != 0 {
		t.Errorf("far bins should be silent: 2=%d 40=%d", buf[2], buf[40])
	}
}

func TestAnalyserSmoothingDecays(t *testing.T) {
	a := NewAnalyser()
	a.Tap(sine(20, 0.01))
	buf := make([]byte, a.FrequencyBinCount())
	a.ByteFrequencyData(buf)
	first := buf[20]

	a.Reset()
	a.ByteFrequencyData(buf)
	if buf[20] == 0 || buf[20] >= first {
		t.Errorf("after silence bin 20 = %d, want decay below %d but above 0", buf[20], first)
	}

	a.Smoothing = 0
	a.ByteFrequencyData(buf)
	if buf[20] != 0 {
		t.Errorf("unsmoothed silence bin 20 = %d, want 0", buf[20])
	}
}

func TestAnalyserShortDestination(t *testing.T) {
	a := NewAnalyser()
	a.Tap(sine(3, 0.01))
	buf := make([]byte, 4)
	a.ByteFrequencyData(buf)
	if buf[3] == 0 {
		t.Error("bin 3 should carry the signal")
	}
}

func TestAnalyserDelay(t *testing.T) {
	a := NewAnalyser()
	a.Tap(sine(20, 0.01))
	a.Tap(make([]float32, FFTSize))

	buf := make([]byte, a.FrequencyBinCount())
	a.SetDelay(func() int { return FFTSize })
	a.Smoothing = 0
	a.ByteFrequencyData(buf)
	if buf[20] == 0 {
		t.Error("delayed window should still see the tone")
	}

	a.SetDelay(nil)
	a.ByteFrequencyData(buf)
	if buf[20] != 0 {
		t.Errorf("undelayed window sees silence, got %d", buf[20])
	}
}

func TestByteFromDecibels(t *testing.T) {
	cases := []struct {
		db   float64
		want byte
	}{
		{math.Inf(-1), 0},
		{-120, 0},
		{-100, 0},
		{-65, 127},
		{-30, 255},
		{0, 255},
	}
	for _, tc := range cases {
		if got := byteFromDecibels(tc.db, DefaultMinDecibels, DefaultMaxDecibels); got != tc.want {
			t.Errorf("byteFromDecibels(%v) = %d, want %d", tc.db, got, tc.want)
		}
	}
}

func TestBlackmanWindow(t *testing.T) {
	w := blackman(FFTSize)
	if math.Abs(w[0]) > 1e-9 {
		t.Errorf("w[0] = %v, want 0", w[0])
	}
	if math.Abs(w[FFTSize/2]-1) > 1e-9 {
		t.Errorf("w[N/2] = %v, want 1", w[FFTSize/2])
	}
}

func TestDecodeMono(t *testing.T) {
	var b bytes.Buffer
	for _, s := range []int16{16384, 16384, -32768, 0, 100, -100} {
		binary.Write(&b, binary.LittleEndian, s)
	}
	got := decodeMono(nil, b.Bytes())
	want := []float32{0.5, -0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTapReaderCarriesPartialFrames(t *testing.T) {
	var pcm bytes.Buffer
	for i := 0; i < 8; i++ {
		binary.Write(&pcm, binary.LittleEndian, int16(16384))
	}
	var tapped []float32
	r := &tapReader{
		src: bytes.NewReader(pcm.Bytes()),
		tap: func(s []float32) { tapped = append(tapped, s...) },
	}

	// Odd read sizes split frames across calls.
	p := make([]byte, 3)
	for {
		_, err := r.Read(p)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if !r.eof.Load() {
		t.Error("eof not recorded")
	}
	if len(tapped) != 4 {
		t.Fatalf("tapped %d frames, want 4", len(tapped))
	}
	for i, s := range tapped {
		if s != 0.5 {
			t.Errorf("frame %d = %v, want 0.5", i, s)
		}
	}
}
