package stage

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type recordingResizer struct {
	calls [][2]int
}

func (r *recordingResizer) Resize(w, h int) {
	r.calls = append(r.calls, [2]int{w, h})
}

func TestAspectCorrection(t *testing.T) {
	tests := []struct {
		w, h   float32
		a1, a2 float32
	}{
		{800, 600, 1, 0.75},
		{600, 800, 0.75, 1},
		{500, 500, 1, 1},
		{1920, 1080, 1, 0.5625},
		{400, 1000, 0.4, 1},
	}
	for _, tt := range tests {
		a1, a2 := AspectCorrection(tt.w, tt.h)
		if !near(a1, tt.a1) || !near(a2, tt.a2) {
			t.Errorf("AspectCorrection(%v, %v) = (%v, %v), want (%v, %v)", tt.w, tt.h, a1, a2, tt.a1, tt.a2)
		}
	}
}

func TestViewportResize(t *testing.T) {
	st := newTestState()
	r := &recordingResizer{}
	v := NewViewport(st, r)

	v.Resize(800, 600)

	want := mgl32.Vec4{800, 600, 1, 0.75}
	if !nearVec4(st.Params.Resolution, want) {
		t.Errorf("Resolution = %v, want %v", st.Params.Resolution, want)
	}
	if !near(st.Camera.AspectRatio, 800.0/600.0) {
		t.Errorf("camera aspect = %v, want %v", st.Camera.AspectRatio, 800.0/600.0)
	}
	if len(r.calls) != 1 || r.calls[0] != [2]int{800, 600} {
		t.Errorf("renderer resizes = %v", r.calls)
	}
	if st.Width != 800 || st.Height != 600 {
		t.Errorf("state size = %dx%d", st.Width, st.Height)
	}
}

func TestViewportIgnoresZeroSize(t *testing.T) {
	st := newTestState()
	r := &recordingResizer{}
	v := NewViewport(st, r)
	v.Resize(800, 600)
	before := st.Params.Resolution

	v.Resize(0, 0)
	v.Resize(800, 0)

	if st.Params.Resolution != before {
		t.Errorf("Resolution = %v after zero resize, want %v", st.Params.Resolution, before)
	}
	if len(r.calls) != 1 {
		t.Errorf("renderer resized %d times, want 1", len(r.calls))
	}
}
