package stage

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"audioscene/core"
	"audioscene/internal/log"
	"audioscene/scene"
)

type fakeRenderer struct {
	countingDrawer
	recordingResizer
	scene *scene.Scene
}

func (r *fakeRenderer) SetScene(s *scene.Scene) { r.scene = s }

func newTestController(t *testing.T, loader AssetLoader) (*Controller, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{}
	c, err := New(context.Background(), Options{
		Renderer: r,
		Loader:   loader,
		AssetDir: "assets",
		Program:  &scene.ShaderProgram{Name: "plane"},
		Width:    800,
		Height:   600,
		Logger:   log.NewNop(),
	})
	if c == nil {
		t.Fatalf("New: %v", err)
	}
	return c, r
}

func TestNewBuildsStage(t *testing.T) {
	c, r := newTestController(t, newRecordingLoader())
	s := c.State.Scene

	if r.scene != s {
		t.Error("renderer not given the scene")
	}
	if c.Driver.State() != Running {
		t.Errorf("driver %v after New, want running", c.Driver.State())
	}
	if !nearVec3(c.State.Camera.Position, cameraPosition) {
		t.Errorf("camera at %v, want %v", c.State.Camera.Position, cameraPosition)
	}
	if !near(c.State.Camera.FOV, mgl32.DegToRad(75)) {
		t.Errorf("fov = %v", c.State.Camera.FOV)
	}

	if len(s.Lights) != 1 || s.Lights[0].Type != scene.LightTypeSpot || s.Lights[0].SpotAngle != 0.2 {
		t.Errorf("lights = %+v", s.Lights)
	}

	plane := s.Root.Find("plane")
	if plane == nil || plane.Mesh.Material.Kind != scene.MaterialShader || plane.Mesh.Material.Params != c.State.Params {
		t.Fatal("shader plane missing or not bound to the parameter block")
	}

	mirror := s.Root.Find("mirror")
	if mirror == nil || mirror.Mesh.Material.Reflector == nil {
		t.Fatal("mirror missing")
	}
	if mirror.Mesh.Material.Reflector.ClipBias != 0.003 {
		t.Errorf("clip bias = %v", mirror.Mesh.Material.Reflector.ClipBias)
	}
	up := mirror.GetWorldMatrix().Mat3().Mul3x1(mgl32.Vec3{0, 0, 1})
	if !nearVec3(up, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("mirror normal = %v, want +Y", up)
	}

	ground := s.Root.Find("ground")
	if ground == nil || !ground.Mesh.Material.Transparent || ground.Mesh.Material.Opacity != 0.5 {
		t.Fatal("ground missing or opaque")
	}
	if ground.Mesh.Material.Albedo != core.ColorBlack {
		t.Errorf("ground colour = %v", ground.Mesh.Material.Albedo)
	}

	// 3 fixed planes plus one root per placement
	if got := len(s.Root.Children); got != 3+13 {
		t.Errorf("root children = %d, want 16", got)
	}

	want := mgl32.Vec4{800, 600, 1, 0.75}
	if !nearVec4(c.State.Params.Resolution, want) {
		t.Errorf("Resolution = %v, want %v", c.State.Params.Resolution, want)
	}
	if len(r.calls) != 1 {
		t.Errorf("renderer resized %d times, want 1", len(r.calls))
	}
}

func TestNewWithMissingAssets(t *testing.T) {
	r := &fakeRenderer{}
	c, err := New(context.Background(), Options{
		Renderer: r,
		Loader:   newRecordingLoader("tv.gltf"),
		Program:  &scene.ShaderProgram{Name: "plane"},
		Width:    800,
		Height:   600,
	})
	if c == nil {
		t.Fatalf("New: %v", err)
	}
	if len(multierr.Errors(err)) != 1 {
		t.Errorf("err = %v, want one asset failure", err)
	}
	if got := len(c.State.Scene.Root.Children); got != 3+12 {
		t.Errorf("root children = %d, want 15", got)
	}
}

func TestNewRequiresProgram(t *testing.T) {
	c, err := New(context.Background(), Options{Renderer: &fakeRenderer{}})
	if c != nil || err == nil {
		t.Fatalf("New = %v, %v; want error", c, err)
	}
}

func TestHandleKey(t *testing.T) {
	c, _ := newTestController(t, newRecordingLoader())
	track := &fakeTrack{}
	c.Play = NewPlayControl(&fakeAudio{suspended: true}, track, log.NewNop())

	c.HandleKey(core.KeyUp)
	c.HandleKey(core.KeyUp)
	c.HandleKey(core.KeyDown)
	if !near(c.State.Slider.Value(), 0.001) {
		t.Errorf("slider = %v, want 0.001", c.State.Slider.Value())
	}

	c.HandleKey(core.KeySpace)
	if track.plays != 1 || !c.Play.Playing() {
		t.Errorf("space: plays=%d playing=%v", track.plays, c.Play.Playing())
	}

	c.HandleKey(core.KeyS)
	if c.Driver.State() != Stopped {
		t.Error("S did not stop the driver")
	}
	if !c.Play.Playing() {
		t.Error("stopping the driver changed playback")
	}
	c.HandleKey(core.KeyP)
	if c.Driver.State() != Running {
		t.Error("P did not resume the driver")
	}

	if c.HandleKey(core.KeyEscape) {
		t.Error("escape is handled by the window, not the controller")
	}
}

func TestControllerRun(t *testing.T) {
	c, r := newTestController(t, newRecordingLoader())
	track := &fakeTrack{}
	c.Play = NewPlayControl(&fakeAudio{}, track, log.NewNop())
	c.Driver.hooks = []func(){c.Play.Poll}
	c.Play.Toggle()
	track.ended = true

	c.HandleCursor(600, 150, 800, 600)
	host := &fakeHost{frames: 2}
	if err := c.Run(context.Background(), host); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.renders != 2 || host.swaps != 2 {
		t.Errorf("renders=%d swaps=%d, want 2", r.renders, host.swaps)
	}
	if c.Play.Playing() {
		t.Error("ended track still playing after a frame")
	}
	if !nearVec2(c.State.Params.Pointer, mgl32.Vec2{0.25, 0.25}) {
		t.Errorf("Pointer = %v", c.State.Params.Pointer)
	}
	if !near(c.State.Time, 0.1) {
		t.Errorf("Time = %v, want 0.1", c.State.Time)
	}
}

func TestControllerRunCancelled(t *testing.T) {
	c, _ := newTestController(t, newRecordingLoader())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Run(ctx, &fakeHost{frames: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
}
