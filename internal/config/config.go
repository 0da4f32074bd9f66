// Package config loads heroscene settings from TOML on top of defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"heroscene/internal/scene"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Window WindowConfig `toml:"window"`
	Theme  ThemeConfig  `toml:"theme"`
	Audio  AudioConfig  `toml:"audio"`
	Log    LogConfig    `toml:"log"`
	Scene  SceneConfig  `toml:"scene"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	// Share of the window width, on the right, that shows the scene.
	ViewportFraction float64 `toml:"viewport_fraction"`
}

type ThemeConfig struct {
	Initial string `toml:"initial"` // "light" or "dark"
	// WatchFile mirrors the theme marker to a file; empty disables it.
	WatchFile string `toml:"watch_file"`
}

type AudioConfig struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type SceneConfig struct {
	Seed      uint64 `toml:"seed"`
	DeltaTime bool   `toml:"delta_time"`

	FOV          float32 `toml:"fov"`
	CameraScaleX float32 `toml:"camera_scale_x"`
	CameraScaleY float32 `toml:"camera_scale_y"`
	Smoothing    float32 `toml:"smoothing"`
	RollFactor   float32 `toml:"roll_factor"`
	ScrollRate   float32 `toml:"scroll_rate"`

	SpeedLineCount int     `toml:"speed_line_count"`
	SpeedLineSpeed float32 `toml:"speed_line_speed"`
	StarCount      int     `toml:"star_count"`
	StarSpeed      float32 `toml:"star_speed"`

	ResizeQuietMS       int     `toml:"resize_quiet_ms"`
	ReadyDelayMS        int     `toml:"ready_delay_ms"`
	VisibilityThreshold float64 `toml:"visibility_threshold"`
	MaxPixelRatio       float32 `toml:"max_pixel_ratio"`
	Exposure            float32 `toml:"exposure"`

	Dark  ProfileConfig `toml:"dark"`
	Light ProfileConfig `toml:"light"`
}

// ProfileConfig is one theme's adaptive values. Colours are "#rrggbb".
type ProfileConfig struct {
	BloomStrength    float32 `toml:"bloom_strength"`
	BloomRadius      float32 `toml:"bloom_radius"`
	BloomThreshold   float32 `toml:"bloom_threshold"`
	HudRingOpacity   float32 `toml:"hud_ring_opacity"`
	HudGlowOpacity   float32 `toml:"hud_glow_opacity"`
	HudGlowColor     string  `toml:"hud_glow_color"`
	SpeedLineOpacity float32 `toml:"speed_line_opacity"`
	StarOpacity      float32 `toml:"star_opacity"`
	StarSize         float32 `toml:"star_size"`
	GridGlow         float32 `toml:"grid_glow"`
	Background       string  `toml:"background"`
}

// Default mirrors the scene's stock tuning.
func Default() Config {
	t := scene.DefaultTuning()
	return Config{
		Window: WindowConfig{
			Width:            1280,
			Height:           720,
			Title:            "heroscene",
			ViewportFraction: 0.5,
		},
		Theme: ThemeConfig{Initial: "dark"},
		Audio: AudioConfig{Enabled: true, Volume: 0.15},
		Log:   LogConfig{Level: "info"},
		Scene: SceneConfig{
			DeltaTime:           t.DeltaTime,
			FOV:                 t.FOV,
			CameraScaleX:        t.CameraScaleX,
			CameraScaleY:        t.CameraScaleY,
			Smoothing:           t.Smoothing,
			RollFactor:          t.RollFactor,
			ScrollRate:          t.ScrollRate,
			SpeedLineCount:      t.SpeedLineCount,
			SpeedLineSpeed:      t.SpeedLineSpeed,
			StarCount:           t.StarCount,
			StarSpeed:           t.StarSpeed,
			ResizeQuietMS:       int(t.ResizeQuiet / time.Millisecond),
			ReadyDelayMS:        int(t.ReadyDelay / time.Millisecond),
			VisibilityThreshold: t.VisibilityThreshold,
			MaxPixelRatio:       t.MaxPixelRatio,
			Exposure:            t.Exposure,
			Dark:                profileConfig(t.Dark),
			Light:               profileConfig(t.Light),
		},
	}
}

func profileConfig(p scene.ThemeProfile) ProfileConfig {
	return ProfileConfig{
		BloomStrength:    p.Bloom.Strength,
		BloomRadius:      p.Bloom.Radius,
		BloomThreshold:   p.Bloom.Threshold,
		HudRingOpacity:   p.HudRingOpacity,
		HudGlowOpacity:   p.HudGlowOpacity,
		HudGlowColor:     p.HudGlowColor.Hex(),
		SpeedLineOpacity: p.SpeedLineOpacity,
		StarOpacity:      p.StarOpacity,
		StarSize:         p.StarSize,
		GridGlow:         p.GridGlow,
		Background:       p.Background.Hex(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults;
// unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode merges TOML data into cfg.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate checks everything the scene does not check itself.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.ViewportFraction <= 0 || c.Window.ViewportFraction > 1 {
		errs = append(errs, fmt.Errorf("viewport_fraction %v out of range (0,1]", c.Window.ViewportFraction))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio volume %v out of range [0,1]", c.Audio.Volume))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Scene.ReadyDelayMS < 0 {
		errs = append(errs, errors.New("ready_delay_ms must not be negative"))
	}
	t, err := c.Tuning()
	if err != nil {
		errs = append(errs, err)
	} else if err := t.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses the configured slog level name.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

// Tuning converts the scene section into controller tuning.
func (c *Config) Tuning() (scene.Tuning, error) {
	s := &c.Scene
	t := scene.DefaultTuning()
	t.DeltaTime = s.DeltaTime
	t.FOV = s.FOV
	t.CameraScaleX = s.CameraScaleX
	t.CameraScaleY = s.CameraScaleY
	t.Smoothing = s.Smoothing
	t.RollFactor = s.RollFactor
	t.ScrollRate = s.ScrollRate
	t.SpeedLineCount = s.SpeedLineCount
	t.SpeedLineSpeed = s.SpeedLineSpeed
	t.StarCount = s.StarCount
	t.StarSpeed = s.StarSpeed
	t.ResizeQuiet = time.Duration(s.ResizeQuietMS) * time.Millisecond
	t.ReadyDelay = time.Duration(s.ReadyDelayMS) * time.Millisecond
	t.VisibilityThreshold = s.VisibilityThreshold
	t.MaxPixelRatio = s.MaxPixelRatio
	t.Exposure = s.Exposure

	var err error
	if t.Dark, err = s.Dark.profile(); err != nil {
		return t, fmt.Errorf("dark profile: %w", err)
	}
	if t.Light, err = s.Light.profile(); err != nil {
		return t, fmt.Errorf("light profile: %w", err)
	}
	return t, nil
}

func (p *ProfileConfig) profile() (scene.ThemeProfile, error) {
	glow, err := colorful.Hex(p.HudGlowColor)
	if err != nil {
		return scene.ThemeProfile{}, fmt.Errorf("hud_glow_color %q: %w", p.HudGlowColor, err)
	}
	bg, err := colorful.Hex(p.Background)
	if err != nil {
		return scene.ThemeProfile{}, fmt.Errorf("background %q: %w", p.Background, err)
	}
	return scene.ThemeProfile{
		Bloom: scene.Bloom{
			Strength:  p.BloomStrength,
			Radius:    p.BloomRadius,
			Threshold: p.BloomThreshold,
		},
		HudRingOpacity:   p.HudRingOpacity,
		HudGlowOpacity:   p.HudGlowOpacity,
		HudGlowColor:     glow,
		SpeedLineOpacity: p.SpeedLineOpacity,
		StarOpacity:      p.StarOpacity,
		StarSize:         p.StarSize,
		GridGlow:         p.GridGlow,
		Background:       bg,
	}, nil
}
