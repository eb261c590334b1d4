package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"audioscene/scene"
)

// Program is an externally supplied GPU program. Uniform locations are
// resolved on first use and cached; names the program does not declare
// resolve to -1 and are ignored by GL.
type Program struct {
	Name string
	ID   uint32
	locs map[string]int32
}

// NewProgram compiles and links src.
func NewProgram(src *scene.ShaderProgram) (*Program, error) {
	id, err := newProgram(src.VertexSource, src.FragmentSource)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", src.Name, err)
	}
	return &Program{Name: src.Name, ID: id, locs: make(map[string]int32)}, nil
}

// Loc returns the cached location of the named uniform.
func (p *Program) Loc(name string) int32 {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := uniformLoc(p.ID, name)
	p.locs[name] = loc
	return loc
}

// SetMatrices uploads the transform uniforms. The program must be in use.
func (p *Program) SetMatrices(model, view, proj mgl32.Mat4) {
	modelView := view.Mul4(model)
	normal := modelView.Mat3().Inv().Transpose()
	gl.UniformMatrix4fv(p.Loc("projectionMatrix"), 1, false, &proj[0])
	gl.UniformMatrix4fv(p.Loc("modelViewMatrix"), 1, false, &modelView[0])
	gl.UniformMatrix4fv(p.Loc("modelMatrix"), 1, false, &model[0])
	gl.UniformMatrix4fv(p.Loc("viewMatrix"), 1, false, &view[0])
	gl.UniformMatrix3fv(p.Loc("normalMatrix"), 1, false, &normal[0])
}

// SetParams uploads the parameter block. Matcaps are bound to texture
// units 0 and 1. The program must be in use.
func (p *Program) SetParams(params *scene.ShaderParams) error {
	gl.Uniform1f(p.Loc(scene.UniformTime), params.Time)
	gl.Uniform1f(p.Loc(scene.UniformAmplitude), params.Amplitude)
	gl.Uniform1f(p.Loc(scene.UniformProgress), params.Progress)
	gl.Uniform2f(p.Loc(scene.UniformPointer), params.Pointer[0], params.Pointer[1])
	res := params.Resolution
	gl.Uniform4f(p.Loc(scene.UniformResolution), res[0], res[1], res[2], res[3])

	units := []struct {
		name string
		tex  *scene.Texture
	}{
		{scene.UniformMatcap, params.Matcap},
		{scene.UniformMatcap1, params.Matcap1},
	}
	for i, u := range units {
		if u.tex == nil {
			continue
		}
		if !ensureTexture(u.tex) {
			return fmt.Errorf("program %q: texture %q not uploaded", p.Name, u.tex.Name)
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, u.tex.GLID)
		gl.Uniform1i(p.Loc(u.name), int32(i))
	}
	return nil
}

// Destroy deletes the GL program object.
func (p *Program) Destroy() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// programCache builds each program source at most once. A source that
// failed to compile keeps its error, so a broken shader is not rebuilt
// every frame.
type programCache struct {
	build    func(*scene.ShaderProgram) (*Program, error)
	programs map[*scene.ShaderProgram]*Program
	failed   map[*scene.ShaderProgram]error
}

func newProgramCache(build func(*scene.ShaderProgram) (*Program, error)) *programCache {
	return &programCache{
		build:    build,
		programs: make(map[*scene.ShaderProgram]*Program),
		failed:   make(map[*scene.ShaderProgram]error),
	}
}

func (c *programCache) get(src *scene.ShaderProgram) (*Program, error) {
	if p, ok := c.programs[src]; ok {
		return p, nil
	}
	if err, ok := c.failed[src]; ok {
		return nil, err
	}
	p, err := c.build(src)
	if err != nil {
		c.failed[src] = err
		return nil, err
	}
	c.programs[src] = p
	return p, nil
}

func (c *programCache) destroy() {
	for src, p := range c.programs {
		p.Destroy()
		delete(c.programs, src)
	}
	clear(c.failed)
}
