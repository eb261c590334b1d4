package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(mapLookup(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := Default()
	if *cfg != want {
		t.Errorf("got %+v, want %+v", *cfg, want)
	}
	if cfg.TrackPath() != filepath.Join("assets", "track.mp3") {
		t.Errorf("TrackPath = %q", cfg.TrackPath())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(mapLookup(map[string]string{
		"AUDIOSCENE_ASSET_DIR":          "/srv/scene",
		"AUDIOSCENE_TRACK":              "song.MP3",
		"AUDIOSCENE_WIDTH":              "800",
		"AUDIOSCENE_HEIGHT":             " 600 ",
		"AUDIOSCENE_FULLSCREEN":         "true",
		"AUDIOSCENE_REFLECTION_DIVISOR": "2",
		"AUDIOSCENE_LOAD_WORKERS":       "8",
		"AUDIOSCENE_DEBUG":              "1",
		"AUDIOSCENE_DEV":                "false",
		"AUDIOSCENE_FRAGMENT_SHADER":    "custom.frag",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.AssetDir != "/srv/scene" || cfg.Track != "song.MP3" {
		t.Errorf("paths not applied: %+v", cfg)
	}
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("size = %dx%d, want 800x600", cfg.Width, cfg.Height)
	}
	if !cfg.Fullscreen || !cfg.Debug || cfg.Development {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.ReflectionDivisor != 2 || cfg.LoadWorkers != 8 {
		t.Errorf("ints not applied: %+v", cfg)
	}
	if cfg.VertexShader != "" || cfg.FragmentShader != "custom.frag" {
		t.Errorf("shader overrides: %+v", cfg)
	}
	if cfg.TrackPath() != filepath.Join("/srv/scene", "song.MP3") {
		t.Errorf("TrackPath = %q", cfg.TrackPath())
	}
}

func TestFromEnvRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad int", map[string]string{"AUDIOSCENE_WIDTH": "wide"}, "AUDIOSCENE_WIDTH"},
		{"bad bool", map[string]string{"AUDIOSCENE_DEBUG": "maybe"}, "AUDIOSCENE_DEBUG"},
		{"tiny window", map[string]string{"AUDIOSCENE_HEIGHT": "10"}, "Height"},
		{"zero divisor", map[string]string{"AUDIOSCENE_REFLECTION_DIVISOR": "0"}, "ReflectionDivisor"},
		{"no workers", map[string]string{"AUDIOSCENE_LOAD_WORKERS": "0"}, "LoadWorkers"},
		{"not mp3", map[string]string{"AUDIOSCENE_TRACK": "track.wav"}, "Track"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(mapLookup(tc.env))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("AUDIOSCENE_LOAD_WORKERS=3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AUDIOSCENE_LOAD_WORKERS", "")
	os.Unsetenv("AUDIOSCENE_LOAD_WORKERS")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LoadWorkers != 3 {
		t.Errorf("LoadWorkers = %d, want 3", cfg.LoadWorkers)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestAudioFileValidation(t *testing.T) {
	tests := []struct {
		track string
		ok    bool
	}{
		{"track.mp3", true},
		{"TRACK.MP3", true},
		{"track.wav", false},
		{"track", false},
	}
	for _, tt := range tests {
		err := validate.Var(tt.track, "audiofile")
		if (err == nil) != tt.ok {
			t.Errorf("audiofile(%q) err = %v, want ok=%v", tt.track, err, tt.ok)
		}
	}
}
