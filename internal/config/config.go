// Package config reads the application settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the application.
type Config struct {
	AssetDir       string `validate:"required"`
	Track          string `validate:"required,audiofile"`
	VertexShader   string
	FragmentShader string

	Width      int `validate:"gte=64,lte=16384"`
	Height     int `validate:"gte=64,lte=16384"`
	Fullscreen bool

	ReflectionDivisor int `validate:"gte=1,lte=64"`
	LoadWorkers       int `validate:"gte=1,lte=64"`

	Debug       bool
	Development bool
}

// TrackPath is the track file resolved against the asset directory.
func (c *Config) TrackPath() string {
	if filepath.IsAbs(c.Track) {
		return c.Track
	}
	return filepath.Join(c.AssetDir, c.Track)
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		AssetDir:          "assets",
		Track:             "track.mp3",
		Width:             1280,
		Height:            720,
		ReflectionDivisor: 5,
		LoadWorkers:       4,
		Development:       true,
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("audiofile", validateAudioFile); err != nil {
		panic(fmt.Sprintf("register audiofile validation: %v", err))
	}
}

// validateAudioFile accepts the formats the audio package can decode.
func validateAudioFile(fl validator.FieldLevel) bool {
	return strings.EqualFold(filepath.Ext(fl.Field().String()), ".mp3")
}

// Load seeds the environment from envFile (a missing file is not an error)
// and reads the configuration from it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, falling back to Default for unset
// variables, and validates it.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	r.str("AUDIOSCENE_ASSET_DIR", &cfg.AssetDir)
	r.str("AUDIOSCENE_TRACK", &cfg.Track)
	r.str("AUDIOSCENE_VERTEX_SHADER", &cfg.VertexShader)
	r.str("AUDIOSCENE_FRAGMENT_SHADER", &cfg.FragmentShader)
	r.int("AUDIOSCENE_WIDTH", &cfg.Width)
	r.int("AUDIOSCENE_HEIGHT", &cfg.Height)
	r.bool("AUDIOSCENE_FULLSCREEN", &cfg.Fullscreen)
	r.int("AUDIOSCENE_REFLECTION_DIVISOR", &cfg.ReflectionDivisor)
	r.int("AUDIOSCENE_LOAD_WORKERS", &cfg.LoadWorkers)
	r.bool("AUDIOSCENE_DEBUG", &cfg.Debug)
	r.bool("AUDIOSCENE_DEV", &cfg.Development)

	if r.err != nil {
		return nil, r.err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// reader keeps the first parse error so the caller checks once.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *reader) int(key string, dst *int) {
	v, ok := r.get(key)
	if !ok || r.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (r *reader) bool(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok || r.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = b
}
