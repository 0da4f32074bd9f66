// Command heroscene shows the animated tunnel hero background in a window.
// The right part of the window is the scene viewport; press T to toggle
// the light theme and Escape to quit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"heroscene/internal/audio"
	"heroscene/internal/config"
	"heroscene/internal/platform"
	"heroscene/internal/scene"
	"heroscene/internal/theme"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "heroscene: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config   string
	theme    string
	seed     uint64
	mute     bool
	logLevel string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "heroscene.toml", "path to the TOML config file")
	flag.StringVar(&f.theme, "theme", "", "initial theme: light or dark")
	flag.Uint64Var(&f.seed, "seed", 0, "random seed for object placement (0 = from clock)")
	flag.BoolVar(&f.mute, "mute", false, "disable the engine hum")
	flag.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.Parse()
	return f
}

// loadConfig layers the config file, HEROSCENE_SEED and explicit flags.
func loadConfig(f flags) (config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return cfg, err
	}
	if s := os.Getenv("HEROSCENE_SEED"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("HEROSCENE_SEED: %w", err)
		}
		cfg.Scene.Seed = v
	}
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "theme":
			cfg.Theme.Initial = f.theme
		case "seed":
			cfg.Scene.Seed = f.seed
		case "mute":
			cfg.Audio.Enabled = cfg.Audio.Enabled && !f.mute
		case "log-level":
			cfg.Log.Level = f.logLevel
		}
	})
	return cfg, cfg.Validate()
}

func run() error {
	cfg, err := loadConfig(parseFlags())
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	tuning, err := cfg.Tuning()
	if err != nil {
		return err
	}

	seed := cfg.Scene.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host, err := platform.NewHost(platform.Config{
		Width:               cfg.Window.Width,
		Height:              cfg.Window.Height,
		Title:               cfg.Window.Title,
		ViewportFraction:    cfg.Window.ViewportFraction,
		MaxPixelRatio:       tuning.MaxPixelRatio,
		VisibilityThreshold: tuning.VisibilityThreshold,
	}, log)
	if err != nil {
		return err
	}
	defer host.Close()

	marker := theme.NewMarker(cfg.Theme.Initial)
	if path := cfg.Theme.WatchFile; path != "" {
		if err := marker.Bind(path); err != nil {
			log.Warn("theme marker file", "path", path, "err", err)
		} else if err := theme.Watch(ctx, path, host.Queue().Post, marker.Set, log); err != nil {
			log.Warn("theme marker not watched", "path", path, "err", err)
		}
	}

	profile := func(light bool) scene.ThemeProfile {
		if light {
			return tuning.Light
		}
		return tuning.Dark
	}
	host.SetBackground(profile(marker.IsLight()).Background)

	var hum *audio.Hum
	if cfg.Audio.Enabled {
		hum, err = audio.NewHum(cfg.Audio.Volume, float64(tuning.CameraScaleX), float64(tuning.CameraScaleY))
		if err != nil {
			log.Warn("audio init failed, continuing without sound", "err", err)
			hum = nil
		} else {
			defer hum.Close()
		}
	}

	events := scene.NewEventBus()
	events.Subscribe(scene.EventThemeChanged, func(e scene.Event) {
		host.SetBackground(profile(e.Light).Background)
		log.Info("theme changed", "theme", scene.ThemeName(e.Light))
	})
	events.Subscribe(scene.EventResized, func(e scene.Event) {
		log.Debug("viewport resized", "width", e.Width, "height", e.Height)
	})
	events.Subscribe(scene.EventDisposed, func(scene.Event) { host.Detach() })
	if hum != nil {
		events.Subscribe(scene.EventSuspended, func(scene.Event) { hum.Pause() })
		events.Subscribe(scene.EventResumed, func(scene.Event) { hum.Resume() })
		events.Subscribe(scene.EventFrame, func(e scene.Event) { hum.SetMotion(e.Camera[0], e.Camera[1]) })
	}

	ctl, err := scene.New(host, host.Queue(), scene.Options{
		OnReady: func() {
			log.Info("scene ready")
			host.SetTitle(cfg.Window.Title + " (ready)")
		},
		Light:  marker.IsLight(),
		Tuning: &tuning,
		Logger: log,
		Seed:   seed,
		Events: events,
	})
	if err != nil {
		if errors.Is(err, scene.ErrNoContext) {
			log.Error("3D background unavailable on this system", "err", err)
		}
		return fmt.Errorf("start scene: %w", err)
	}
	defer ctl.Dispose()
	log.Debug("scene running", "seed", seed, "theme", marker.Value())

	marker.Subscribe(ctl.SetTheme)
	host.OnKey(glfw.KeyT, func() {
		if err := marker.Toggle(); err != nil {
			log.Warn("theme toggle", "err", err)
		}
	})
	host.Attach(ctl.Send)

	return host.Run(ctx)
}
