package renderer

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"audioscene/core"
	"audioscene/internal/opengl"
	"audioscene/scene"
)

// RenderEngine is the high-level renderer that drives the OpenGL backend.
type RenderEngine struct {
	gl     *opengl.Renderer
	window *core.Window
	Scene  *scene.Scene

	// ReflectionDivisor scales mirror targets down from the framebuffer.
	ReflectionDivisor int

	targets map[*scene.Mesh]*opengl.ReflectionTarget
	fbW     int
	fbH     int

	// Per-frame stats (populated during Render)
	lastObjects   int
	lastTriangles int
}

func NewRenderEngine(window *core.Window) (*RenderEngine, error) {
	glRenderer, err := opengl.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}

	fbW, fbH := window.GetFramebufferSize()
	glRenderer.SetViewport(fbW, fbH)

	return &RenderEngine{
		gl:                glRenderer,
		window:            window,
		ReflectionDivisor: 5,
		targets:           make(map[*scene.Mesh]*opengl.ReflectionTarget),
		fbW:               fbW,
		fbH:               fbH,
	}, nil
}

// Version reports the OpenGL version of the context.
func (re *RenderEngine) Version() string {
	return re.gl.Version()
}

func (re *RenderEngine) SetScene(s *scene.Scene) {
	re.Scene = s
}

type drawItem struct {
	node  *scene.Node
	model mgl32.Mat4
}

// Render draws the scene once: every mirror's reflection pass first, then
// the main pass with opaque meshes, mirrors, and finally transparent meshes
// sorted back to front. Meshes outside the view frustum are skipped. Draw
// failures are collected; the frame still completes.
func (re *RenderEngine) Render() error {
	if re.Scene == nil || re.Scene.Camera == nil {
		return fmt.Errorf("no scene or camera")
	}
	s := re.Scene
	view := s.Camera.GetViewMatrix()
	proj := s.Camera.GetProjectionMatrix()

	var items, mirrors []drawItem
	for _, node := range s.GetVisibleNodes() {
		it := drawItem{node: node, model: node.GetWorldMatrix()}
		if mat := node.Mesh.Material; mat != nil && mat.Kind == scene.MaterialReflector {
			mirrors = append(mirrors, it)
			continue
		}
		items = append(items, it)
	}

	var errs error

	// ── Reflection passes ─────────────────────────────────────────────────────
	texMatrices := make(map[*scene.Mesh]mgl32.Mat4, len(mirrors))
	for _, m := range mirrors {
		opts := m.node.Mesh.Material.Reflector
		mv, ok := scene.ReflectView(view, proj, m.model, opts.ClipBias)
		if !ok {
			continue
		}
		target, err := re.targetFor(m.node.Mesh)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		re.gl.BeginReflection(target, s.SkyColor, s.Lights, s.Ambient, mv.ClipPlane)
		opaque, transparent := re.cull(items, mv.View, proj)
		errs = multierr.Append(errs, re.drawAll(opaque, mv.View, proj))
		errs = multierr.Append(errs, re.drawAll(transparent, mv.View, proj))
		re.gl.EndReflection()
		texMatrices[m.node.Mesh] = mv.TextureMatrix
	}

	// ── Main render pass ──────────────────────────────────────────────────────
	re.gl.BeginFrame(s.SkyColor, s.Lights, s.Ambient)
	opaque, transparent := re.cull(items, view, proj)
	errs = multierr.Append(errs, re.drawAll(opaque, view, proj))
	for _, m := range mirrors {
		texMatrix, ok := texMatrices[m.node.Mesh]
		if !ok {
			continue
		}
		re.gl.DrawMirror(m.node.Mesh, re.targets[m.node.Mesh], m.model, view, proj, texMatrix)
	}
	errs = multierr.Append(errs, re.drawAll(transparent, view, proj))

	re.lastObjects = len(opaque) + len(transparent) + len(texMatrices)
	re.lastTriangles = triangleCount(opaque) + triangleCount(transparent)
	return errs
}

// cull drops items outside the view frustum and splits the rest into
// opaque items in scene order and transparent items from farthest to
// nearest.
func (re *RenderEngine) cull(items []drawItem, view, proj mgl32.Mat4) (opaque, transparent []drawItem) {
	frustum := scene.FrustumFromVP(proj.Mul4(view))
	for _, it := range items {
		if !scene.WorldAABB(it.node.Mesh, it.model).IntersectsFrustum(&frustum) {
			continue
		}
		if mat := it.node.Mesh.Material; mat != nil && mat.Transparent {
			transparent = append(transparent, it)
			continue
		}
		opaque = append(opaque, it)
	}
	sort.SliceStable(transparent, func(i, j int) bool {
		return viewDepth(view, transparent[i].model) < viewDepth(view, transparent[j].model)
	})
	return opaque, transparent
}

func (re *RenderEngine) drawAll(items []drawItem, view, proj mgl32.Mat4) error {
	var errs error
	for _, it := range items {
		errs = multierr.Append(errs, re.gl.DrawMesh(it.node.Mesh, it.model, view, proj))
	}
	return errs
}

func triangleCount(items []drawItem) int {
	n := 0
	for _, it := range items {
		n += len(it.node.Mesh.Indices) / 3
	}
	return n
}

// viewDepth is the view-space z of the model origin (more negative = farther).
func viewDepth(view, model mgl32.Mat4) float32 {
	return view.Mul4x1(model.Col(3)).Z()
}

// targetFor returns the reflection target of mirror, allocating or
// resizing it to the size its material asks for.
func (re *RenderEngine) targetFor(mirror *scene.Mesh) (*opengl.ReflectionTarget, error) {
	opts := mirror.Material.Reflector
	w, h := opts.TextureWidth, opts.TextureHeight
	if w <= 0 || h <= 0 {
		w, h = re.reflectionSize()
	}
	if t, ok := re.targets[mirror]; ok {
		if err := t.Resize(w, h); err != nil {
			return nil, fmt.Errorf("mirror %q: %w", mirror.Name, err)
		}
		return t, nil
	}
	t, err := opengl.NewReflectionTarget(w, h)
	if err != nil {
		return nil, fmt.Errorf("mirror %q: %w", mirror.Name, err)
	}
	re.targets[mirror] = t
	return t, nil
}

func (re *RenderEngine) reflectionSize() (int, int) {
	div := max(re.ReflectionDivisor, 1)
	return re.fbW / div, re.fbH / div
}

// Resize adapts the GL viewport to a window of width×height screen
// coordinates and rescales every mirror target of the scene to the
// framebuffer size divided by ReflectionDivisor.
func (re *RenderEngine) Resize(width, height int) {
	ratio := re.window.PixelRatio()
	re.fbW = int(float32(width) * ratio)
	re.fbH = int(float32(height) * ratio)
	re.gl.SetViewport(re.fbW, re.fbH)

	if re.Scene == nil {
		return
	}
	w, h := re.reflectionSize()
	re.Scene.Root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil || n.Mesh.Material == nil || n.Mesh.Material.Reflector == nil {
			return
		}
		n.Mesh.Material.Reflector.TextureWidth = w
		n.Mesh.Material.Reflector.TextureHeight = h
	})
}

// PrepareProgram compiles the external program now, so a broken shader
// fails at startup rather than on every frame.
func (re *RenderEngine) PrepareProgram(src *scene.ShaderProgram) error {
	return re.gl.PrepareProgram(src)
}

// UploadTexture uploads tex now instead of at first use.
func (re *RenderEngine) UploadTexture(tex *scene.Texture) error {
	return opengl.UploadTexture(tex)
}

func (re *RenderEngine) DeleteTexture(tex *scene.Texture) {
	opengl.DeleteTexture(tex)
}

func (re *RenderEngine) Destroy() {
	for mesh, t := range re.targets {
		t.Destroy()
		delete(re.targets, mesh)
	}
	re.gl.Destroy()
}

// DrawStats returns the object and triangle counts of the last pass.
func (re *RenderEngine) DrawStats() (objects, triangles int) {
	return re.lastObjects, re.lastTriangles
}
