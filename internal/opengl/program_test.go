package opengl

import (
	"errors"
	"testing"

	"audioscene/scene"
)

func TestProgramCacheBuildsOnce(t *testing.T) {
	builds := 0
	c := newProgramCache(func(src *scene.ShaderProgram) (*Program, error) {
		builds++
		return &Program{Name: src.Name}, nil
	})
	src := &scene.ShaderProgram{Name: "plane"}

	p1, err := c.get(src)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p2, _ := c.get(src)
	if p1 != p2 || builds != 1 {
		t.Errorf("builds = %d, same program %v; want 1 build and one program", builds, p1 == p2)
	}
}

func TestProgramCacheRemembersFailure(t *testing.T) {
	builds := 0
	compileErr := errors.New("0:3: syntax error")
	c := newProgramCache(func(*scene.ShaderProgram) (*Program, error) {
		builds++
		return nil, compileErr
	})
	src := &scene.ShaderProgram{Name: "broken"}

	for frame := 0; frame < 5; frame++ {
		if _, err := c.get(src); !errors.Is(err, compileErr) {
			t.Fatalf("frame %d: err = %v, want the compile error", frame, err)
		}
	}
	if builds != 1 {
		t.Errorf("broken program built %d times, want 1", builds)
	}

	other := &scene.ShaderProgram{Name: "other"}
	c.get(other)
	if builds != 2 {
		t.Errorf("a different source was not built: builds = %d", builds)
	}
}
