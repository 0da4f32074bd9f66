// Package scene is the animated 3D hero background: it builds the tunnel
// scene, owns the render pipeline, advances the animation once per display
// refresh and reacts to pointer, visibility, resize and theme signals.
//
// A Controller is single-threaded. Every method, and every callback it
// hands to its Scheduler, must run on the host's render thread.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"heroscene/internal/frames"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrNoContext   = errors.New("no rendering context available")
	ErrNoViewport  = errors.New("nil viewport")
	ErrNoScheduler = errors.New("nil scheduler")
)

// Viewport is the host region the scene renders into.
type Viewport interface {
	Size() (width, height int)
	CreateSurface() (Surface, error)
	RemoveSurface(s Surface)
}

// Scheduler is the host's display-refresh primitive plus one-shot timers.
type Scheduler interface {
	Now() time.Duration
	RequestFrame(fn frames.Func) frames.ID
	CancelFrame(id frames.ID)
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type Options struct {
	// OnReady is called once, ReadyDelay after construction.
	OnReady func()
	// Light selects the initial theme.
	Light  bool
	Tuning *Tuning
	Logger *slog.Logger
	Seed   uint64
	Events *EventBus
}

type Controller struct {
	vp     Viewport
	sched  Scheduler
	tuning Tuning
	log    *slog.Logger
	events *EventBus
	rng    *Rand

	state    State
	surface  Surface
	pipeline *Pipeline
	scene    *Scene

	light   bool
	pointer mgl32.Vec2
	scroll  float32

	start    time.Duration
	lastStep time.Duration
	stepped  bool
	steps    int

	pending frames.ID
	inbox   []Signal

	resizeW, resizeH int
	cancelResize     func()
	cancelReady      func()
}

// New builds the scene into vp and starts the animation loop. It fails
// only when no rendering surface can be created; a zero-size viewport
// defers the scene build until a valid size is signalled.
func New(vp Viewport, sched Scheduler, opts Options) (*Controller, error) {
	if vp == nil {
		return nil, ErrNoViewport
	}
	if sched == nil {
		return nil, ErrNoScheduler
	}
	tuning := DefaultTuning()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{
		vp:     vp,
		sched:  sched,
		tuning: tuning,
		log:    logger,
		events: opts.Events,
		rng:    NewRand(opts.Seed),
		state:  StateConstructing,
		start:  sched.Now(),
	}

	surface, err := vp.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", errors.Join(ErrNoContext, err))
	}
	if surface == nil {
		return nil, ErrNoContext
	}
	c.surface = surface
	c.pipeline = newPipeline(surface, &c.tuning)

	if w, h := vp.Size(); w > 0 && h > 0 {
		if err := c.build(w, h); err != nil {
			c.teardown()
			return nil, err
		}
	} else {
		c.log.Debug("viewport has no area, deferring scene build", "width", w, "height", h)
	}
	c.applyTheme(opts.Light)

	if opts.OnReady != nil {
		ready := opts.OnReady
		c.cancelReady = sched.AfterFunc(c.tuning.ReadyDelay, func() {
			c.cancelReady = nil
			if c.state == StateDisposed {
				return
			}
			ready()
			c.events.Emit(Event{Type: EventReady})
		})
	}

	c.state = StateRunning
	c.schedule()
	c.log.Debug("scene started", "state", c.state)
	c.events.Emit(Event{Type: EventStarted})
	return c, nil
}

func (c *Controller) build(width, height int) error {
	sc, err := BuildScene(c.surface, &c.tuning, c.rng)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	c.scene = sc
	c.pipeline.Resize(width, height)
	return nil
}

// State reports the lifecycle state.
func (c *Controller) State() State { return c.state }

// Pipeline exposes the render pipeline for inspection.
func (c *Controller) Pipeline() *Pipeline { return c.pipeline }

// Scene returns the scene graph, or nil before the first valid size.
func (c *Controller) Scene() *Scene { return c.scene }

// Scroll is the tunnel travel distance so far.
func (c *Controller) Scroll() float32 { return c.scroll }

// Pointer is the last applied Pointer Target.
func (c *Controller) Pointer() mgl32.Vec2 { return c.pointer }

// Light reports the applied theme flag.
func (c *Controller) Light() bool { return c.light }

// Steps counts completed animation steps.
func (c *Controller) Steps() int { return c.steps }

// SetTheme pushes a theme change from the host.
func (c *Controller) SetTheme(isLight bool) {
	c.Send(ThemeSignal(isLight))
}

// Send delivers one environment signal. Visibility changes take effect at
// once; resize signals restart the quiet-period timer; pointer and theme
// signals are applied at the start of the next frame step, or at once
// while no step is coming. Signals after Dispose are dropped.
func (c *Controller) Send(sig Signal) {
	if c.state == StateDisposed {
		return
	}
	switch sig.Kind {
	case SignalVisibility:
		c.setVisible(sig.Visible)
	case SignalResize:
		c.queueResize(sig.Width, sig.Height)
	default:
		if c.state == StateRunning {
			c.inbox = append(c.inbox, sig)
			return
		}
		c.apply(sig)
	}
}

func (c *Controller) apply(sig Signal) {
	switch sig.Kind {
	case SignalPointer:
		c.pointer = sig.Pointer
	case SignalTheme:
		if sig.Light != c.light {
			c.applyTheme(sig.Light)
		}
	}
}

func (c *Controller) drain() {
	for i, sig := range c.inbox {
		c.apply(sig)
		c.inbox[i] = Signal{}
	}
	c.inbox = c.inbox[:0]
}

func (c *Controller) applyTheme(light bool) {
	c.light = light
	prof := &c.tuning.Dark
	if light {
		prof = &c.tuning.Light
	}
	c.pipeline.SetThemeAdaptation(light, prof, c.scene)
	c.events.Emit(Event{Type: EventThemeChanged, Light: light})
}

func (c *Controller) setVisible(visible bool) {
	switch {
	case visible && c.state == StateSuspended:
		c.state = StateRunning
		c.stepped = false
		c.drain()
		c.schedule()
		c.log.Debug("scene resumed")
		c.events.Emit(Event{Type: EventResumed})
	case !visible && c.state == StateRunning:
		c.unschedule()
		c.state = StateSuspended
		// Nothing will drain the inbox until resume.
		c.drain()
		c.log.Debug("scene suspended")
		c.events.Emit(Event{Type: EventSuspended})
	}
}

func (c *Controller) queueResize(width, height int) {
	if width <= 0 || height <= 0 {
		c.log.Debug("ignoring empty viewport size", "width", width, "height", height)
		return
	}
	c.resizeW, c.resizeH = width, height
	if c.cancelResize != nil {
		c.cancelResize()
	}
	c.cancelResize = c.sched.AfterFunc(c.tuning.ResizeQuiet, c.flushResize)
}

func (c *Controller) flushResize() {
	c.cancelResize = nil
	if c.state == StateDisposed {
		return
	}
	w, h := c.resizeW, c.resizeH
	if c.scene == nil {
		if err := c.build(w, h); err != nil {
			c.log.Error("deferred scene build failed", "err", err)
			return
		}
		c.scene.ApplyTheme(c.profile())
	} else {
		c.pipeline.Resize(w, h)
	}
	c.events.Emit(Event{Type: EventResized, Width: w, Height: h})
}

func (c *Controller) profile() *ThemeProfile {
	if c.light {
		return &c.tuning.Light
	}
	return &c.tuning.Dark
}

// schedule requests the next frame while Running, keeping at most one
// request outstanding.
func (c *Controller) schedule() {
	if c.state != StateRunning || c.pending != 0 {
		return
	}
	c.pending = c.sched.RequestFrame(c.frame)
}

func (c *Controller) unschedule() {
	if c.pending != 0 {
		c.sched.CancelFrame(c.pending)
		c.pending = 0
	}
}

func (c *Controller) frame(now time.Duration) {
	c.pending = 0
	if c.state != StateRunning {
		return
	}
	c.step(now)
	c.schedule()
}

// step is one animation update followed by one render.
func (c *Controller) step(now time.Duration) {
	c.drain()
	sc := c.scene
	if sc == nil {
		return
	}
	t := &c.tuning

	k := float32(1)
	if t.DeltaTime {
		if c.stepped {
			k = clampF32(float32((now-c.lastStep).Seconds()*60), 0, 6)
		}
	}
	c.lastStep = now
	c.stepped = true

	c.scroll += t.ScrollRate * k
	elapsed := float32((now - c.start).Seconds())
	for _, g := range sc.Grids() {
		g.Time = elapsed
		g.Scroll = c.scroll
	}

	cam := &c.pipeline.Camera
	goal := mgl32.Vec2{c.pointer[0] * t.CameraScaleX, c.pointer[1] * t.CameraScaleY}
	cam.Follow(goal, smoothingFor(t.Smoothing, k))
	cam.Roll = -cam.Position[0] * t.RollFactor
	cam.Target = t.LookAt

	sc.Ring.Track(cam.Position)
	sc.Glow.Track(cam.Position)

	sc.SpeedLines.Advance(t.SpeedLineSpeed*k, t, c.rng)
	sc.Stars.Advance(t.StarSpeed*k, t, c.rng)

	c.pipeline.RenderFrame(sc)
	c.steps++
	c.events.Emit(Event{Type: EventFrame, Camera: cam.Position, Scroll: c.scroll})
}

// Dispose stops the loop, cancels pending timers, releases every GPU
// resource and detaches the surface from the viewport. Later calls do
// nothing.
func (c *Controller) Dispose() {
	if c.state == StateDisposed {
		return
	}
	c.state = StateDisposed
	c.teardown()
	c.log.Debug("scene disposed")
	c.events.Emit(Event{Type: EventDisposed})
}

func (c *Controller) teardown() {
	c.unschedule()
	if c.cancelResize != nil {
		c.cancelResize()
		c.cancelResize = nil
	}
	if c.cancelReady != nil {
		c.cancelReady()
		c.cancelReady = nil
	}
	c.inbox = nil
	if c.scene != nil {
		c.scene.Release(c.surface)
		c.scene = nil
	}
	if c.surface != nil {
		c.surface.Destroy()
		c.vp.RemoveSurface(c.surface)
		c.surface = nil
	}
}
