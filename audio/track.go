package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
)

// Source is a decoded MP3 stream of 16-bit stereo PCM.
type Source struct {
	Path       string
	SampleRate int
	file       *os.File
	dec        *mp3.Decoder
}

// OpenMP3 opens path and prepares its decoder.
func OpenMP3(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track %q: %w", path, err)
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode track %q: %w", path, err)
	}
	return &Source{Path: path, SampleRate: dec.SampleRate(), file: f, dec: dec}, nil
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}

// player is the part of *oto.Player a Track drives.
type player interface {
	Play()
	Pause()
	IsPlaying() bool
	BufferedSize() int
	Seek(offset int64, whence int) (int64, error)
	Err() error
	Close() error
}

var _ player = (*oto.Player)(nil)

// Track plays a Source through a Context, feeding an Analyser with the
// samples handed to the device.
type Track struct {
	src      *Source
	player   player
	reader   *tapReader
	analyser *Analyser
}

// NewTrack wires src to the device. The analyser may be nil.
func (c *Context) NewTrack(src *Source, analyser *Analyser) *Track {
	r := &tapReader{src: src.dec}
	if analyser != nil {
		r.tap = analyser.Tap
	}
	return newTrack(src, c.ctx.NewPlayer(r), r, analyser)
}

func newTrack(src *Source, p player, r *tapReader, analyser *Analyser) *Track {
	t := &Track{
		src:      src,
		player:   p,
		reader:   r,
		analyser: analyser,
	}
	if analyser != nil {
		analyser.SetDelay(func() int {
			return t.player.BufferedSize() / frameSize
		})
	}
	return t
}

// Play starts or continues playback. A track that has ended restarts from
// the beginning; a track paused in its last buffered stretch plays that
// tail first.
func (t *Track) Play() {
	if t.Ended() {
		if _, err := t.player.Seek(0, io.SeekStart); err == nil {
			t.reader.eof.Store(false)
		}
	}
	t.player.Play()
}

// Pause halts playback at the current position.
func (t *Track) Pause() {
	t.player.Pause()
	if t.analyser != nil {
		t.analyser.Reset()
	}
}

// Ended reports that the whole track has been played out: the decoder hit
// EOF and the device drained everything it had buffered.
func (t *Track) Ended() bool {
	return t.reader.eof.Load() && !t.player.IsPlaying() && t.player.BufferedSize() == 0
}

// Err returns a playback error, if any.
func (t *Track) Err() error { return t.player.Err() }

// Close stops playback and releases the source.
func (t *Track) Close() error {
	t.player.Pause()
	if err := t.player.Close(); err != nil {
		t.src.Close()
		return err
	}
	return t.src.Close()
}

// tapReader forwards decoded PCM to the device and a mono copy to tap.
type tapReader struct {
	src io.ReadSeeker
	tap func([]float32)
	eof atomic.Bool

	mu      sync.Mutex
	pending []byte // partial frame carried over between reads
	mono    []float32
}

func (r *tapReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 && r.tap != nil {
		r.forward(p[:n])
	}
	if err == io.EOF {
		r.eof.Store(true)
	}
	return n, err
}

func (r *tapReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	r.pending = r.pending[:0]
	r.mu.Unlock()
	return r.src.Seek(offset, whence)
}

// forward downmixes complete 16-bit stereo frames to mono.
func (r *tapReader) forward(b []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, b...)
	frames := len(r.pending) / frameSize
	if frames == 0 {
		return
	}
	r.mono = decodeMono(r.mono[:0], r.pending[:frames*frameSize])
	r.pending = append(r.pending[:0], r.pending[frames*frameSize:]...)
	r.tap(r.mono)
}

// decodeMono appends the average of each interleaved signed 16-bit LE
// stereo frame of b to dst, scaled to [-1, 1).
func decodeMono(dst []float32, b []byte) []float32 {
	for i := 0; i+frameSize <= len(b); i += frameSize {
		l := int16(binary.LittleEndian.Uint16(b[i:]))
		rr := int16(binary.LittleEndian.Uint16(b[i+bytesPerSample:]))
		dst = append(dst, (float32(l)+float32(rr))*0.5/32768)
	}
	return dst
}
