package opengl

import (
	"fmt"
	"math"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"audioscene/core"
	"audioscene/scene"
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	// Surface program: lit (standard) and unlit (basic) materials.
	program uint32

	projLoc      int32
	viewLoc      int32
	modelLoc     int32
	clipPlaneLoc int32

	ambientColorLoc   int32
	hasSpotLoc        int32
	spotPosLoc        int32
	spotDirLoc        int32
	spotColorLoc      int32
	spotIntensityLoc  int32
	spotCosLoc        int32

	matAlbedoLoc  int32
	opacityLoc    int32
	albedoTexLoc  int32
	hasTextureLoc int32
	unlitLoc      int32

	mirror *mirrorProgram

	// External programs keyed by their source descriptor.
	programs *programCache

	viewportW int32
	viewportH int32
	clipping  bool

	gpuMeshes map[*scene.Mesh]*GPUMesh
}

// ── Shaders ───────────────────────────────────────────────────────────────────

const surfaceVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;

uniform mat4 projection;
uniform mat4 view;
uniform mat4 model;
uniform vec4 clipPlane;

out vec3 fragWorldPos;
out vec3 fragNormal;
out vec2 fragUV;
out vec4 fragColor;

void main() {
    vec4 world   = model * vec4(inPosition, 1.0);
    fragWorldPos = world.xyz;
    fragNormal   = mat3(transpose(inverse(model))) * inNormal;
    fragUV       = inUV;
    fragColor    = inColor;
    gl_ClipDistance[0] = dot(world, clipPlane);
    gl_Position  = projection * view * world;
}
` + "\x00"

const surfaceFragSrc = `
#version 410 core
in vec3 fragWorldPos;
in vec3 fragNormal;
in vec2 fragUV;
in vec4 fragColor;

out vec4 outColor;

uniform vec4      matAlbedo;
uniform float     opacity;
uniform bool      hasTexture;
uniform sampler2D albedoTex;
uniform bool      unlit;

uniform vec3  ambientColor;
uniform bool  hasSpot;
uniform vec3  spotPos;
uniform vec3  spotDir;
uniform vec3  spotColor;
uniform float spotIntensity;
uniform float spotCos;

void main() {
    vec4 base = matAlbedo * fragColor;
    if (hasTexture) {
        base *= texture(albedoTex, fragUV);
    }
    if (unlit) {
        outColor = vec4(base.rgb, base.a * opacity);
        return;
    }

    vec3 n = normalize(fragNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    vec3 light = ambientColor;
    if (hasSpot) {
        vec3  L    = normalize(spotPos - fragWorldPos);
        float cone = smoothstep(spotCos, mix(spotCos, 1.0, 0.05), dot(-L, spotDir));
        light += spotColor * spotIntensity * max(dot(n, L), 0.0) * cone;
    }
    outColor = vec4(base.rgb * light, base.a * opacity);
}
` + "\x00"

// ── NewRenderer ───────────────────────────────────────────────────────────────

// NewRenderer initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	prog, err := newProgram(surfaceVertSrc, surfaceFragSrc)
	if err != nil {
		return nil, fmt.Errorf("surface shader compile: %w", err)
	}
	mirror, err := newMirrorProgram()
	if err != nil {
		gl.DeleteProgram(prog)
		return nil, fmt.Errorf("mirror shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	r := &Renderer{
		program: prog,
		mirror:  mirror,

		projLoc:      uniformLoc(prog, "projection"),
		viewLoc:      uniformLoc(prog, "view"),
		modelLoc:     uniformLoc(prog, "model"),
		clipPlaneLoc: uniformLoc(prog, "clipPlane"),

		ambientColorLoc:  uniformLoc(prog, "ambientColor"),
		hasSpotLoc:       uniformLoc(prog, "hasSpot"),
		spotPosLoc:       uniformLoc(prog, "spotPos"),
		spotDirLoc:       uniformLoc(prog, "spotDir"),
		spotColorLoc:     uniformLoc(prog, "spotColor"),
		spotIntensityLoc: uniformLoc(prog, "spotIntensity"),
		spotCosLoc:       uniformLoc(prog, "spotCos"),

		matAlbedoLoc:  uniformLoc(prog, "matAlbedo"),
		opacityLoc:    uniformLoc(prog, "opacity"),
		albedoTexLoc:  uniformLoc(prog, "albedoTex"),
		hasTextureLoc: uniformLoc(prog, "hasTexture"),
		unlitLoc:      uniformLoc(prog, "unlit"),

		programs:  newProgramCache(NewProgram),
		gpuMeshes: make(map[*scene.Mesh]*GPUMesh),
	}

	// Bind texture units: albedo=0
	gl.UseProgram(prog)
	gl.Uniform1i(r.albedoTexLoc, 0)
	gl.Uniform4f(r.clipPlaneLoc, 0, 0, 0, 1)

	return r, nil
}

// Version reports the GL_VERSION string of the current context.
func (r *Renderer) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// ── Viewport ──────────────────────────────────────────────────────────────────

// SetViewport resizes the OpenGL viewport and stores the dimensions for
// restoring after an off-screen pass.
func (r *Renderer) SetViewport(width, height int) {
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, int32(width), int32(height))
}

// ── Passes ────────────────────────────────────────────────────────────────────

// BeginFrame binds the default framebuffer, clears it and sets the
// per-frame lighting uniforms.
func (r *Renderer) BeginFrame(clear core.Color, lights []*scene.Light, ambient core.Color) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
	r.clear(clear)
	r.setLights(lights, ambient)
}

// BeginReflection renders into target with geometry below plane
// (world-space, xyz = normal) clipped away.
func (r *Renderer) BeginReflection(target *ReflectionTarget, clear core.Color, lights []*scene.Light, ambient core.Color, plane mgl32.Vec4) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, target.FBO)
	gl.Viewport(0, 0, target.Width, target.Height)
	r.clear(clear)
	r.setLights(lights, ambient)

	gl.Enable(gl.CLIP_DISTANCE0)
	r.clipping = true
	gl.Uniform4f(r.clipPlaneLoc, plane[0], plane[1], plane[2], plane[3])
}

// EndReflection restores the default framebuffer and viewport.
func (r *Renderer) EndReflection() {
	gl.Disable(gl.CLIP_DISTANCE0)
	r.clipping = false
	gl.UseProgram(r.program)
	gl.Uniform4f(r.clipPlaneLoc, 0, 0, 0, 1)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
}

func (r *Renderer) clear(c core.Color) {
	gl.DepthMask(true)
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// setLights uploads the ambient term and the first spot light.
func (r *Renderer) setLights(lights []*scene.Light, ambient core.Color) {
	gl.UseProgram(r.program)
	gl.Uniform3f(r.ambientColorLoc, ambient.R, ambient.G, ambient.B)

	gl.Uniform1i(r.hasSpotLoc, 0)
	for _, l := range lights {
		if l == nil || l.Type != scene.LightTypeSpot {
			continue
		}
		dir := l.Direction()
		gl.Uniform1i(r.hasSpotLoc, 1)
		gl.Uniform3f(r.spotPosLoc, l.Position.X(), l.Position.Y(), l.Position.Z())
		gl.Uniform3f(r.spotDirLoc, dir.X(), dir.Y(), dir.Z())
		gl.Uniform3f(r.spotColorLoc, l.Color.R, l.Color.G, l.Color.B)
		gl.Uniform1f(r.spotIntensityLoc, l.Intensity)
		gl.Uniform1f(r.spotCosLoc, float32(math.Cos(float64(l.SpotAngle))))
		break
	}
}

// ── DrawMesh ──────────────────────────────────────────────────────────────────

// DrawMesh draws a mesh with its material. Reflector materials are drawn
// with DrawMirror instead and are skipped here.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, model, view, proj mgl32.Mat4) error {
	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}

	switch mat.Kind {
	case scene.MaterialReflector:
		return nil
	case scene.MaterialShader:
		return r.drawShaderMesh(mesh, mat, model, view, proj)
	}

	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return nil
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.projLoc, 1, false, &proj[0])
	gl.UniformMatrix4fv(r.viewLoc, 1, false, &view[0])
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &model[0])
	r.applyMaterial(mat)
	applyRasterState(mat)

	drawGPUMesh(gpu, len(mesh.Vertices))
	return nil
}

// PrepareProgram compiles and links src now instead of at first draw.
func (r *Renderer) PrepareProgram(src *scene.ShaderProgram) error {
	_, err := r.programs.get(src)
	return err
}

// drawShaderMesh draws a mesh with its externally supplied program.
func (r *Renderer) drawShaderMesh(mesh *scene.Mesh, mat *scene.Material, model, view, proj mgl32.Mat4) error {
	if mat.Program == nil {
		return fmt.Errorf("material %q: no shader program", mat.Name)
	}
	p, err := r.programs.get(mat.Program)
	if err != nil {
		return err
	}
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return nil
	}

	// External programs do not write gl_ClipDistance.
	if r.clipping {
		gl.Disable(gl.CLIP_DISTANCE0)
		defer gl.Enable(gl.CLIP_DISTANCE0)
	}

	gl.UseProgram(p.ID)
	p.SetMatrices(model, view, proj)
	if mat.Params != nil {
		if err := p.SetParams(mat.Params); err != nil {
			return err
		}
	}
	applyRasterState(mat)

	drawGPUMesh(gpu, len(mesh.Vertices))
	return nil
}

// DrawMirror draws a reflector mesh sampling the reflection target through
// the projective textureMatrix.
func (r *Renderer) DrawMirror(mesh *scene.Mesh, target *ReflectionTarget, model, view, proj, textureMatrix mgl32.Mat4) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil || target == nil {
		return
	}
	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	r.mirror.use(model, view, proj, textureMatrix, mat.Albedo)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, target.ColorTex)
	applyRasterState(mat)

	drawGPUMesh(gpu, len(mesh.Vertices))
}

// applyMaterial sets the surface program's material uniforms and binds the
// albedo texture. Textures are uploaded on first use.
func (r *Renderer) applyMaterial(mat *scene.Material) {
	gl.Uniform4f(r.matAlbedoLoc, mat.Albedo.R, mat.Albedo.G, mat.Albedo.B, mat.Albedo.A)

	opacity := float32(1)
	if mat.Transparent {
		opacity = mat.Opacity
	}
	gl.Uniform1f(r.opacityLoc, opacity)

	if mat.Kind == scene.MaterialBasic {
		gl.Uniform1i(r.unlitLoc, 1)
	} else {
		gl.Uniform1i(r.unlitLoc, 0)
	}

	// Albedo texture (unit 0)
	if tex := mat.AlbedoTexture; tex != nil && ensureTexture(tex) {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
		gl.Uniform1i(r.hasTextureLoc, 1)
	} else {
		gl.Uniform1i(r.hasTextureLoc, 0)
	}
}

// applyRasterState sets face culling and blending for mat.
func applyRasterState(mat *scene.Material) {
	if mat.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	if mat.Transparent {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
	} else {
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
	}
}

func drawGPUMesh(gpu *GPUMesh, vertexCount int) {
	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(vertexCount))
	}
	gl.BindVertexArray(0)
}

// ── Resource management ───────────────────────────────────────────────────────

// ReleaseMesh frees GPU buffers for the given mesh.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		gl.DeleteVertexArrays(1, &gpu.VAO)
		gl.DeleteBuffers(1, &gpu.VBO)
		if gpu.HasIndices {
			gl.DeleteBuffers(1, &gpu.EBO)
		}
		delete(r.gpuMeshes, mesh)
		mesh.GPUData = nil
	}
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for mesh := range r.gpuMeshes {
		r.ReleaseMesh(mesh)
	}
	r.programs.destroy()
	r.mirror.destroy()
	gl.DeleteProgram(r.program)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data if not already done.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	posOff := int(unsafe.Offsetof(v.Position))
	normOff := int(unsafe.Offsetof(v.Normal))
	uvOff := int(unsafe.Offsetof(v.UV))
	colorOff := int(unsafe.Offsetof(v.Color))

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(posOff))

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(normOff))

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(uvOff))

	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, stride, gl.PtrOffset(colorOff))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func uniformLoc(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	if !strings.HasSuffix(src, "\x00") {
		src += "\x00"
	}
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}
