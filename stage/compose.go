package stage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"audioscene/internal/log"
	"audioscene/scene"
)

// AssetLoader parses one model file. Implementations must be safe for
// concurrent use and must not touch GPU state.
type AssetLoader interface {
	Load(ctx context.Context, path string) (*scene.GLTFResult, error)
}

// AssetLoaderFunc adapts a function to AssetLoader.
type AssetLoaderFunc func(ctx context.Context, path string) (*scene.GLTFResult, error)

func (f AssetLoaderFunc) Load(ctx context.Context, path string) (*scene.GLTFResult, error) {
	return f(ctx, path)
}

// GLTFLoader loads glTF files from disk.
var GLTFLoader AssetLoader = AssetLoaderFunc(func(_ context.Context, path string) (*scene.GLTFResult, error) {
	return scene.LoadGLTF(path)
})

// Loaded pairs a parsed asset with its placement.
type Loaded struct {
	Placement Placement
	Asset     *scene.GLTFResult
}

// LoadAll requests every placement's file exactly once, at most workers at
// a time, and waits for all of them. Assets that loaded are returned in
// placement order even when others failed; the failures are combined into
// the returned error. Loads not yet started when ctx ends fail with the
// context's error.
func LoadAll(ctx context.Context, loader AssetLoader, dir string, placements []Placement, workers int, logger *log.Logger) ([]Loaded, error) {
	results := make([]*scene.GLTFResult, len(placements))

	var (
		mu   sync.Mutex
		errs error
	)
	fail := func(err error) {
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
	}

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range placements {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				fail(fmt.Errorf("asset %s: %w", p.Name, err))
				return nil
			}
			path := filepath.Join(dir, p.File)
			asset, err := loader.Load(ctx, path)
			if err != nil {
				logger.Errorw("asset load failed", "asset", p.Name, "path", path, "error", err)
				fail(fmt.Errorf("asset %s: %w", p.Name, err))
				return nil
			}
			for _, w := range asset.Warnings {
				logger.Warnw("asset warning", "asset", p.Name, "warning", w)
			}
			logger.Infow("asset loaded", "asset", p.Name, "meshes", len(asset.Meshes()), "textures", len(asset.Textures))
			results[i] = asset
			return nil
		})
	}
	g.Wait()

	loaded := make([]Loaded, 0, len(placements))
	for i, asset := range results {
		if asset != nil {
			loaded = append(loaded, Loaded{Placement: placements[i], Asset: asset})
		}
	}
	return loaded, errs
}

// Attach adds the loaded subtrees to s and gives every mesh-bearing node
// the placement's uniform scale and absolute position, replacing whatever
// transform the file carried. Must run on the scene's goroutine.
func Attach(s *scene.Scene, l Loaded) {
	p := l.Placement
	centred := make(map[*scene.Mesh]bool)
	for _, root := range l.Asset.Roots {
		s.AddNode(root)
		root.Traverse(func(n *scene.Node) {
			if n.Mesh == nil {
				return
			}
			if p.Center && !centred[n.Mesh] {
				n.Mesh.Center()
				centred[n.Mesh] = true
			}
			n.SetUniformScale(p.Scale)
			n.SetPosition(p.Position())
		})
	}
}

// Compose loads all placements and attaches what loaded to s. The error
// lists every asset that failed; the scene is usable either way.
func Compose(ctx context.Context, s *scene.Scene, loader AssetLoader, dir string, placements []Placement, workers int, logger *log.Logger) error {
	loaded, err := LoadAll(ctx, loader, dir, placements, workers, logger)
	for _, l := range loaded {
		Attach(s, l)
	}
	return err
}
