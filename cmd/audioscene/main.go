package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"audioscene/audio"
	"audioscene/core"
	"audioscene/internal/config"
	"audioscene/internal/log"
	"audioscene/renderer"
	"audioscene/scene"
	"audioscene/stage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := log.NewLogger(cfg.Development, cfg.Debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	windowConfig := core.DefaultWindowConfig()
	windowConfig.Width = cfg.Width
	windowConfig.Height = cfg.Height
	windowConfig.Fullscreen = cfg.Fullscreen

	window, err := core.NewWindow(windowConfig)
	if err != nil {
		logger.Errorw("window creation failed", "error", err)
		return err
	}
	defer window.Destroy()

	engine, err := renderer.NewRenderEngine(window)
	if err != nil {
		logger.Errorw("render engine creation failed", "error", err)
		return err
	}
	defer engine.Destroy()
	engine.ReflectionDivisor = cfg.ReflectionDivisor
	logger.Infow("render engine ready", "gl", engine.Version())

	program, err := renderer.LoadShaderProgram(cfg.VertexShader, cfg.FragmentShader)
	if err != nil {
		logger.Errorw("shader load failed", "error", err)
		return err
	}
	if err := engine.PrepareProgram(program); err != nil {
		logger.Errorw("shader compile failed", "error", err)
		return err
	}
	matcap := loadMatcap(engine, logger, filepath.Join(cfg.AssetDir, "matcap01.png"))
	matcap1 := loadMatcap(engine, logger, filepath.Join(cfg.AssetDir, "matcap02.png"))
	for _, tex := range []*scene.Texture{matcap, matcap1} {
		if tex != nil {
			defer engine.DeleteTexture(tex)
		}
	}

	opts := stage.Options{
		Renderer:    engine,
		AssetDir:    cfg.AssetDir,
		LoadWorkers: cfg.LoadWorkers,
		Program:     program,
		Matcap:      matcap,
		Matcap1:     matcap1,
		Width:       window.Width,
		Height:      window.Height,
		Logger:      logger,
	}

	analyser := audio.NewAnalyser()
	opts.Analyser = analyser
	if actx, track, err := openTrack(cfg.TrackPath(), analyser); err != nil {
		logger.Warnw("audio disabled", "track", cfg.TrackPath(), "error", err)
	} else {
		defer track.Close()
		opts.Audio = actx
		opts.Track = track
	}

	ctrl, err := stage.New(ctx, opts)
	if ctrl == nil {
		logger.Errorw("stage setup failed", "error", err)
		return err
	}

	window.OnResize(ctrl.Viewport.Resize)
	window.SetCursorCallback(func(x, y float64) {
		ctrl.HandleCursor(x, y, window.Width, window.Height)
	})
	window.SetScrollCallback(func(_, yoff float64) {
		ctrl.Orbit.Scroll(yoff)
	})
	window.SetKeyCallback(func(key int) {
		if key == core.KeyEscape {
			window.Close()
			return
		}
		ctrl.HandleKey(key)
	})
	ctrl.Driver.OnFrame(func() {
		x, y := window.GetCursorPos()
		ctrl.Orbit.Drag(window.IsMouseButtonPressed(core.MouseLeft), x, y)
	})

	ctrl.Driver.OnFrame(newFrameStats(window, engine, ctrl, logger.Named("stats")).update)

	if err := ctrl.Run(ctx, window); err != nil && ctx.Err() == nil {
		logger.Errorw("frame loop failed", "error", err)
		return err
	}
	objects, triangles := engine.DrawStats()
	logger.Infow("shutdown", "objects", objects, "triangles", triangles)
	return nil
}

// openTrack prepares the soundtrack. The context stays suspended until the
// first play toggle.
func openTrack(path string, analyser *audio.Analyser) (*audio.Context, *audio.Track, error) {
	src, err := audio.OpenMP3(path)
	if err != nil {
		return nil, nil, err
	}
	actx, err := audio.NewContext(src.SampleRate)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return actx, actx.NewTrack(src, analyser), nil
}

// loadMatcap reads and uploads a matcap. A missing or unusable file leaves
// the sampler unbound.
func loadMatcap(engine *renderer.RenderEngine, logger *log.Logger, path string) *scene.Texture {
	tex, err := scene.LoadTexture(path)
	if err != nil {
		logger.Warnw("matcap unavailable", "error", err)
		return nil
	}
	if err := engine.UploadTexture(tex); err != nil {
		logger.Warnw("matcap upload failed", "path", path, "error", err)
		return nil
	}
	return tex
}
