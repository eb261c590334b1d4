package scene

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"audioscene/core"
)

// GLTFResult holds the nodes and textures loaded from a .glb / .gltf file.
// Building it touches no GPU state, so LoadGLTF is safe to call from any
// goroutine; textures are uploaded later on the render goroutine.
type GLTFResult struct {
	Path     string
	Roots    []*Node    // top-level nodes; add each with scene.AddNode(n)
	Textures []*Texture // textures that need GPU upload
	Warnings []error    // non-fatal problems (skipped images or primitives)
}

// Meshes returns every mesh-bearing node below the roots.
func (r *GLTFResult) Meshes() []*Node {
	var out []*Node
	for _, root := range r.Roots {
		root.Traverse(func(n *Node) {
			if n.Mesh != nil {
				out = append(out, n)
			}
		})
	}
	return out
}

// LoadGLTF opens a .glb or .gltf file and returns a ready-to-use scene graph.
// Mesh geometry, base-colour materials and textures, and the node hierarchy
// are populated.
func LoadGLTF(path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	dir := filepath.Dir(path)
	result := &GLTFResult{Path: path}

	// ── 1. Textures ───────────────────────────────────────────────────────────
	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil {
			continue
		}
		img := doc.Images[*gt.Source]
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("%s#img%d", filepath.Base(path), *gt.Source)
		}

		var raw []byte
		switch {
		case img.BufferView != nil:
			raw, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		case img.IsEmbeddedResource():
			raw, err = img.MarshalData()
		case img.URI != "":
			var tex *Texture
			tex, err = LoadTexture(filepath.Join(dir, img.URI))
			if err == nil {
				texCache[i] = tex
				result.Textures = append(result.Textures, tex)
			}
		}
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("image %d: %w", *gt.Source, err))
			err = nil
			continue
		}
		if raw != nil {
			tex, derr := DecodeTexture(name, bytes.NewReader(raw))
			if derr != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("image %d decode: %w", *gt.Source, derr))
				continue
			}
			texCache[i] = tex
			result.Textures = append(result.Textures, tex)
		}
	}

	// ── 2. Materials ─────────────────────────────────────────────────────────
	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		mat.DoubleSided = gm.DoubleSided

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			if gm.AlphaMode == gltf.AlphaBlend {
				mat.Transparent = true
				mat.Opacity = float32(cf[3])
			}
			if pbr.BaseColorTexture != nil {
				idx := pbr.BaseColorTexture.Index
				if idx < len(texCache) && texCache[idx] != nil {
					mat.AlbedoTexture = texCache[idx]
				}
			}
		}
		matCache[i] = mat
	}

	// ── 3. Mesh primitives ────────────────────────────────────────────────────
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, *prim)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("mesh %d prim %d: %w", mi, pi, err))
				continue
			}
			if prim.Material != nil && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	// ── 4. Nodes ──────────────────────────────────────────────────────────────
	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)

		t := gn.TranslationOrDefault()
		n.SetPosition(mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])})

		sc := gn.ScaleOrDefault()
		n.SetScale(mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])})

		r := gn.RotationOrDefault() // [x, y, z, w]
		n.SetRotation(mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}})

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
				// no geometry
			case 1:
				n.Mesh = prims[0]
			default:
				// Multiple primitives → one child node per primitive
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx < len(nodes) && nodes[childIdx] != nil {
				nodes[i].AddChild(nodes[childIdx])
			}
		}
	}

	// ── 5. Root nodes ─────────────────────────────────────────────────────────
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) && nodes[rootIdx] != nil {
				result.Roots = append(result.Roots, nodes[rootIdx])
			}
		}
	} else {
		for _, n := range nodes {
			if n != nil && n.Parent == nil {
				result.Roots = append(result.Roots, n)
			}
		}
	}

	return result, nil
}

// loadGLTFPrimitive converts one glTF mesh primitive into a scene.Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: mgl32.Vec3(p),
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2(uvs[i])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	return CreateMeshFromData(name, verts, indices), nil
}
