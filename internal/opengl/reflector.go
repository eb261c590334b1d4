package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"audioscene/core"
)

// ReflectionTarget is the off-screen colour+depth target a planar mirror
// renders the scene into.
type ReflectionTarget struct {
	FBO      uint32 // framebuffer object
	ColorTex uint32 // RGBA8 colour attachment, sampled by the mirror
	DepthRBO uint32 // depth renderbuffer
	Width    int32
	Height   int32
}

// ── Shaders ───────────────────────────────────────────────────────────────────

// mirrorVertSrc projects the reflection texture onto the mirror surface.
const mirrorVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 projection;
uniform mat4 view;
uniform mat4 model;
uniform mat4 textureMatrix;

out vec4 fragUV;

void main() {
    fragUV      = textureMatrix * vec4(inPosition, 1.0);
    gl_Position = projection * view * model * vec4(inPosition, 1.0);
}
` + "\x00"

// mirrorFragSrc overlays the tint colour on the reflected image.
const mirrorFragSrc = `
#version 410 core
in  vec4 fragUV;
out vec4 outColor;

uniform sampler2D reflection;
uniform vec3      tint;

float blendOverlay(float base, float blend) {
    return base < 0.5 ? (2.0 * base * blend) : (1.0 - 2.0 * (1.0 - base) * (1.0 - blend));
}

void main() {
    vec4 base = textureProj(reflection, fragUV);
    outColor = vec4(
        blendOverlay(base.r, tint.r),
        blendOverlay(base.g, tint.g),
        blendOverlay(base.b, tint.b),
        1.0);
}
` + "\x00"

type mirrorProgram struct {
	id            uint32
	projLoc       int32
	viewLoc       int32
	modelLoc      int32
	texMatrixLoc  int32
	reflectionLoc int32
	tintLoc       int32
}

func newMirrorProgram() (*mirrorProgram, error) {
	prog, err := newProgram(mirrorVertSrc, mirrorFragSrc)
	if err != nil {
		return nil, err
	}
	m := &mirrorProgram{
		id:            prog,
		projLoc:       uniformLoc(prog, "projection"),
		viewLoc:       uniformLoc(prog, "view"),
		modelLoc:      uniformLoc(prog, "model"),
		texMatrixLoc:  uniformLoc(prog, "textureMatrix"),
		reflectionLoc: uniformLoc(prog, "reflection"),
		tintLoc:       uniformLoc(prog, "tint"),
	}
	gl.UseProgram(prog)
	gl.Uniform1i(m.reflectionLoc, 0)
	return m, nil
}

func (m *mirrorProgram) use(model, view, proj, textureMatrix mgl32.Mat4, tint core.Color) {
	gl.UseProgram(m.id)
	gl.UniformMatrix4fv(m.projLoc, 1, false, &proj[0])
	gl.UniformMatrix4fv(m.viewLoc, 1, false, &view[0])
	gl.UniformMatrix4fv(m.modelLoc, 1, false, &model[0])
	gl.UniformMatrix4fv(m.texMatrixLoc, 1, false, &textureMatrix[0])
	gl.Uniform3f(m.tintLoc, tint.R, tint.G, tint.B)
}

func (m *mirrorProgram) destroy() {
	if m.id != 0 {
		gl.DeleteProgram(m.id)
		m.id = 0
	}
}

// ── Target lifecycle ──────────────────────────────────────────────────────────

// NewReflectionTarget allocates a width×height target (clamped to 1×1).
func NewReflectionTarget(width, height int) (*ReflectionTarget, error) {
	t := &ReflectionTarget{}
	if err := t.alloc(width, height); err != nil {
		t.free()
		return nil, err
	}
	return t, nil
}

func (t *ReflectionTarget) alloc(width, height int) error {
	t.Width = int32(max(width, 1))
	t.Height = int32(max(height, 1))

	gl.GenTextures(1, &t.ColorTex)
	gl.BindTexture(gl.TEXTURE_2D, t.ColorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
		t.Width, t.Height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenRenderbuffers(1, &t.DepthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.DepthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, t.Width, t.Height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &t.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_2D, t.ColorTex, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT,
		gl.RENDERBUFFER, t.DepthRBO)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("reflection FBO incomplete (0x%X)", status)
	}
	return nil
}

func (t *ReflectionTarget) free() {
	if t.FBO != 0 {
		gl.DeleteFramebuffers(1, &t.FBO)
		t.FBO = 0
	}
	if t.ColorTex != 0 {
		gl.DeleteTextures(1, &t.ColorTex)
		t.ColorTex = 0
	}
	if t.DepthRBO != 0 {
		gl.DeleteRenderbuffers(1, &t.DepthRBO)
		t.DepthRBO = 0
	}
}

// Resize recreates the attachments at the new pixel dimensions. It is a
// no-op when the size is unchanged.
func (t *ReflectionTarget) Resize(width, height int) error {
	if int32(max(width, 1)) == t.Width && int32(max(height, 1)) == t.Height {
		return nil
	}
	t.free()
	return t.alloc(width, height)
}

// Destroy frees all GPU resources owned by this target.
func (t *ReflectionTarget) Destroy() {
	t.free()
}
