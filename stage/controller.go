package stage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"audioscene/core"
	"audioscene/internal/log"
	"audioscene/scene"
)

// Renderer is what the controller needs from the render engine.
type Renderer interface {
	Drawer
	Resizer
	SetScene(s *scene.Scene)
}

// Options configures New. Renderer and Program are required; a nil
// Analyser reads as silence and a nil Track disables play/pause.
type Options struct {
	Renderer Renderer
	Analyser FrequencySource
	Audio    AudioContext
	Track    Track

	Loader      AssetLoader
	AssetDir    string
	Placements  []Placement
	LoadWorkers int

	Program *scene.ShaderProgram
	Matcap  *scene.Texture
	Matcap1 *scene.Texture

	Width  int
	Height int

	Logger *log.Logger
}

// Camera and scene constants.
const (
	cameraFov  = 75 // degrees
	cameraNear = 0.001
	cameraFar  = 1000

	mirrorClipBias = 0.003
)

var (
	cameraPosition = mgl32.Vec3{0, 0.2, 1.5}
	planePosition  = mgl32.Vec3{0, 0.05, -0.05}
	mirrorPosition = mgl32.Vec3{0, -0.71, 0}
	groundPosition = mgl32.Vec3{0, -0.65, -2.5}
	lightPosition  = mgl32.Vec3{-50, 50, 50}
)

// Controller owns the scene and the parts acting on it.
type Controller struct {
	State    *State
	Driver   *FrameDriver
	Viewport *Viewport
	Play     *PlayControl
	Orbit    *OrbitControls

	renderer Renderer
	log      *log.Logger
}

// New builds the scene, loads the placement assets, lays out the viewport
// once and leaves the frame driver Running. Asset failures are logged and
// returned alongside a usable controller; other errors return no
// controller.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Renderer == nil {
		return nil, errors.New("stage: renderer is required")
	}
	if opts.Program == nil {
		return nil, errors.New("stage: shader program is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	placements := opts.Placements
	if placements == nil {
		var err error
		if placements, err = Placements(); err != nil {
			return nil, fmt.Errorf("placements: %w", err)
		}
	}
	loader := opts.Loader
	if loader == nil {
		loader = GLTFLoader
	}

	aspect := float32(1)
	if opts.Width > 0 && opts.Height > 0 {
		aspect = float32(opts.Width) / float32(opts.Height)
	}
	camera := scene.NewOrbitCamera(mgl32.Vec3{}, cameraPosition, mgl32.DegToRad(cameraFov), aspect, cameraNear, cameraFar)
	st := NewState(camera)
	st.Params.Matcap = opts.Matcap
	st.Params.Matcap1 = opts.Matcap1

	buildStage(st.Scene, opts.Program, st.Params)

	c := &Controller{
		State:    st,
		Viewport: NewViewport(st, opts.Renderer),
		Play:     NewPlayControl(opts.Audio, opts.Track, logger.Named("play")),
		Orbit:    NewOrbitControls(st),
		renderer: opts.Renderer,
		log:      logger,
	}
	c.Driver = NewFrameDriver(st, opts.Analyser, opts.Renderer, logger.Named("driver"))
	c.Driver.OnFrame(c.Play.Poll)
	opts.Renderer.SetScene(st.Scene)

	loadErr := Compose(ctx, st.Scene, loader, opts.AssetDir, placements, opts.LoadWorkers, logger.Named("assets"))
	if loadErr != nil {
		logger.Warnw("scene composed with missing assets", "error", loadErr)
	}

	c.Viewport.Resize(opts.Width, opts.Height)
	return c, loadErr
}

// buildStage adds the fixed part of the scene: spot light, shader plane,
// reflective floor and the translucent ground in front of it.
func buildStage(s *scene.Scene, program *scene.ShaderProgram, params *scene.ShaderParams) {
	s.AddLight(&scene.Light{
		Type:      scene.LightTypeSpot,
		Position:  lightPosition,
		Color:     core.ColorHex(0xffffff),
		Intensity: 1,
		SpotAngle: 0.2,
	})

	plane := scene.NewNode("plane")
	plane.Mesh = scene.CreatePlane(1.5, 1.1, 1, 1)
	plane.Mesh.Material = scene.NewShaderMaterial("plane", program, params)
	plane.SetPosition(planePosition)
	s.AddNode(plane)

	mirror := scene.NewNode("mirror")
	mirror.Mesh = scene.CreatePlane(20, 20, 1, 1)
	mirror.Mesh.Material = scene.NewReflectorMaterial("mirror", core.ColorHex(0xb5b5b5), scene.ReflectorOptions{
		ClipBias: mirrorClipBias,
	})
	mirror.SetPosition(mirrorPosition)
	mirror.RotateX(-math.Pi / 2)
	s.AddNode(mirror)

	groundMat := scene.NewBasicMaterial("ground", core.ColorBlack)
	groundMat.Opacity = 0.5
	groundMat.Transparent = true
	groundMat.DoubleSided = true
	ground := scene.NewNode("ground")
	ground.Mesh = scene.CreatePlane(20, 20, 1, 1)
	ground.Mesh.Material = groundMat
	ground.RotateX(-math.Pi / 2)
	ground.SetPosition(groundPosition)
	s.AddNode(ground)
}

// Run drives the frame loop in host until it closes or ctx is done.
func (c *Controller) Run(ctx context.Context, host Host) error {
	c.log.Infow("frame loop started", "state", c.Driver.State())
	err := c.Driver.Run(ctx, host)
	c.log.Infow("frame loop finished", "time", c.State.Time)
	return err
}

// HandleKey applies a key binding. It reports false for unbound keys.
func (c *Controller) HandleKey(key int) bool {
	switch key {
	case core.KeySpace:
		if err := c.Play.Toggle(); err != nil {
			c.log.Errorw("audio resume failed", "error", err)
		}
	case core.KeyUp:
		c.State.Slider.Nudge(1)
	case core.KeyDown:
		c.State.Slider.Nudge(-1)
	case core.KeyS:
		c.Driver.Stop()
	case core.KeyP:
		c.Driver.Play()
	default:
		return false
	}
	return true
}

// HandleCursor records a cursor position in window coordinates.
func (c *Controller) HandleCursor(x, y float64, width, height int) {
	c.State.Pointer.Move(x, y, float64(width), float64(height))
}
