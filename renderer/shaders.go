package renderer

import (
	_ "embed"
	"fmt"
	"os"

	"audioscene/scene"
)

var (
	//go:embed shaders/plane.vert
	planeVertSrc string
	//go:embed shaders/plane.frag
	planeFragSrc string
)

// LoadShaderProgram reads the shader plane's GLSL sources. An empty path
// selects the built-in source for that stage.
func LoadShaderProgram(vertexPath, fragmentPath string) (*scene.ShaderProgram, error) {
	vert, err := readShaderSource(vertexPath, planeVertSrc)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	frag, err := readShaderSource(fragmentPath, planeFragSrc)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	return &scene.ShaderProgram{
		Name:           "plane",
		VertexSource:   vert,
		FragmentSource: frag,
	}, nil
}

func readShaderSource(path, builtin string) (string, error) {
	if path == "" {
		return builtin, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
