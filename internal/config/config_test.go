package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"heroscene/internal/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	tun, err := cfg.Tuning()
	require.NoError(t, err)
	want := scene.DefaultTuning()
	assert.Equal(t, want.ResizeQuiet, tun.ResizeQuiet)
	assert.Equal(t, want.ReadyDelay, tun.ReadyDelay)
	assert.Equal(t, want.Dark.Bloom, tun.Dark.Bloom)
	assert.Equal(t, want.Light.HudGlowColor.Hex(), tun.Light.HudGlowColor.Hex())
	assert.Equal(t, want.Dark.Background.Hex(), tun.Dark.Background.Hex())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heroscene.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[window]
viewport_fraction = 0.6

[theme]
initial = "light"

[log]
level = "debug"

[scene]
seed = 42
delta_time = true
resize_quiet_ms = 250
star_count = 90

[scene.light]
background = "#ffffff"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.6, cfg.Window.ViewportFraction)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, "light", cfg.Theme.Initial)
	assert.Equal(t, uint64(42), cfg.Scene.Seed)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	tun, err := cfg.Tuning()
	require.NoError(t, err)
	assert.True(t, tun.DeltaTime)
	assert.Equal(t, 250*time.Millisecond, tun.ResizeQuiet)
	assert.Equal(t, 90, tun.StarCount)
	assert.Equal(t, "#ffffff", tun.Light.Background.Hex())
	// Untouched profile keys keep their defaults.
	assert.Equal(t, scene.LightProfile().Bloom, tun.Light.Bloom)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heroscene.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scene]\nwarp_factor = 9\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warp_factor")
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Window.ViewportFraction = 1.5
	cfg.Audio.Volume = -1
	cfg.Log.Level = "chatty"
	cfg.Scene.Smoothing = 0
	cfg.Scene.StarCount = 0
	cfg.Scene.Dark.HudGlowColor = "cyan"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "viewport_fraction")
	assert.Contains(t, msg, "audio volume")
	assert.Contains(t, msg, "log level")
	assert.Contains(t, msg, "hud_glow_color")

	cfg.Scene.Dark.HudGlowColor = "#44ffff"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smoothing")
	assert.Contains(t, err.Error(), "star count")
}

func TestValidateRejectsShortResizeDebounce(t *testing.T) {
	cfg := Default()
	cfg.Scene.ResizeQuietMS = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resize quiet period")

	cfg.Scene.ResizeQuietMS = 80
	assert.NoError(t, cfg.Validate())
}
