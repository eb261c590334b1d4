package stage

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed placements.yaml
var placementsYAML []byte

// Placement fixes where one model file goes in the scene.
type Placement struct {
	Name   string     `yaml:"name"`
	File   string     `yaml:"file"`
	Scale  float32    `yaml:"scale"`
	Offset [3]float32 `yaml:"offset"`
	// Center re-centres mesh geometry about its bounding box first.
	Center bool `yaml:"center"`
}

// Position is Offset as a vector.
func (p Placement) Position() mgl32.Vec3 {
	return mgl32.Vec3(p.Offset)
}

// Placements returns the built-in placement table.
func Placements() ([]Placement, error) {
	return ParsePlacements(placementsYAML)
}

// ParsePlacements decodes a YAML placement list and checks that names are
// unique, files are set and scales are positive.
func ParsePlacements(data []byte) ([]Placement, error) {
	var out []Placement
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse placements: %w", err)
	}
	seen := make(map[string]bool, len(out))
	for i, p := range out {
		switch {
		case p.Name == "":
			return nil, fmt.Errorf("placement %d: missing name", i)
		case seen[p.Name]:
			return nil, fmt.Errorf("placement %q: duplicate name", p.Name)
		case p.File == "":
			return nil, fmt.Errorf("placement %q: missing file", p.Name)
		case p.Scale <= 0:
			return nil, fmt.Errorf("placement %q: scale %v must be positive", p.Name, p.Scale)
		}
		seen[p.Name] = true
	}
	return out, nil
}
