// Package platform hosts the hero scene in a GLFW window. The window plays
// the page's hero section: the pointer is observed over all of it, the
// scene's viewport covers a share of its right side, and the rest shows
// the theme's background colour. The display loop pumps a frames.Queue so
// frame callbacks run once per vsync'd refresh.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"heroscene/internal/frames"
	"heroscene/internal/glrender"
	"heroscene/internal/scene"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/lucasb-eyer/go-colorful"
)

type Config struct {
	Width, Height int
	Title         string
	// ViewportFraction is the share of the window width given to the scene.
	ViewportFraction    float64
	MaxPixelRatio       float32
	VisibilityThreshold float64
}

// Host owns the window, the GL context and the display loop. It must be
// created and driven from the main OS thread.
type Host struct {
	cfg   Config
	log   *slog.Logger
	win   *glfw.Window
	queue *frames.Queue

	surface    *glrender.Surface
	background colorful.Color

	sink    func(scene.Signal)
	visible bool
	keys    map[glfw.Key]func()
}

// NewHost opens the window. Callers must lock the OS thread first.
func NewHost(cfg Config, log *slog.Logger) (*Host, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	win, err := initWindow(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return nil, err
	}
	h := &Host{
		cfg:     cfg,
		log:     log,
		win:     win,
		queue:   frames.NewQueue(glfwNow),
		visible: true,
		keys:    make(map[glfw.Key]func()),
	}
	h.queue.Wake = glfw.PostEmptyEvent
	h.keys[glfw.KeyEscape] = func() { h.win.SetShouldClose(true) }
	h.win.SetKeyCallback(h.onKey)
	return h, nil
}

func glfwNow() time.Duration {
	return time.Duration(glfw.GetTime() * float64(time.Second))
}

// Queue is the scheduler the scene runs on.
func (h *Host) Queue() *frames.Queue { return h.queue }

// OnKey binds fn to a key press. Escape closes the window unless rebound.
func (h *Host) OnKey(key glfw.Key, fn func()) { h.keys[key] = fn }

func (h *Host) SetTitle(title string) { h.win.SetTitle(title) }

// SetBackground sets the colour shown around the viewport.
func (h *Host) SetBackground(c colorful.Color) {
	h.background = c
	if h.surface != nil {
		h.surface.SetClearColor(c)
	}
}

func (h *Host) viewport() scene.Rect {
	w, hh := h.win.GetSize()
	return viewportRect(w, hh, h.cfg.ViewportFraction)
}

// Size reports the viewport's logical size.
func (h *Host) Size() (width, height int) {
	r := h.viewport()
	return int(r.W), int(r.H)
}

// CreateSurface loads the GL entry points and builds the renderer.
func (h *Host) CreateSurface() (scene.Surface, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	h.log.Debug("gl context", "version", gl.GoStr(gl.GetString(gl.VERSION)))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	s, err := glrender.NewSurface(h.log, h.cfg.MaxPixelRatio)
	if err != nil {
		return nil, err
	}
	s.SetClearColor(h.background)
	h.surface = s
	h.layout()
	return s, nil
}

// RemoveSurface detaches the renderer; the window keeps its background.
func (h *Host) RemoveSurface(s scene.Surface) {
	if gs, ok := s.(*glrender.Surface); ok && gs == h.surface {
		h.surface = nil
	}
}

func (h *Host) layout() {
	if h.surface == nil {
		return
	}
	winW, winH := h.win.GetSize()
	fbW, _ := h.win.GetFramebufferSize()
	r := viewportRect(winW, winH, h.cfg.ViewportFraction)
	h.surface.SetPixelRatio(pixelRatio(fbW, winW))
	h.surface.Place(int(r.X), int(r.Y), winH)
}

// Attach starts forwarding window observations to sink: pointer moves over
// the whole window, viewport size changes, and visibility of the viewport
// on the connected monitors.
func (h *Host) Attach(sink func(scene.Signal)) {
	h.sink = sink
	h.win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		winW, winH := w.GetSize()
		hero := scene.Rect{W: float64(winW), H: float64(winH)}
		p := scene.NormalizePointer(x, y, hero)
		h.send(scene.PointerSignal(p[0], p[1]))
	})
	h.win.SetSizeCallback(func(_ *glfw.Window, _, _ int) {
		h.layout()
		w, hh := h.Size()
		h.send(scene.ResizeSignal(w, hh))
		h.checkVisibility()
	})
	h.win.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		h.layout()
	})
	h.win.SetPosCallback(func(_ *glfw.Window, _, _ int) { h.checkVisibility() })
	h.win.SetIconifyCallback(func(_ *glfw.Window, _ bool) { h.checkVisibility() })
	glfw.SetMonitorCallback(func(_ *glfw.Monitor, _ glfw.PeripheralEvent) { h.checkVisibility() })
	h.checkVisibility()
}

// Detach stops all observers. Safe to call more than once.
func (h *Host) Detach() {
	h.sink = nil
	h.win.SetCursorPosCallback(nil)
	h.win.SetSizeCallback(nil)
	h.win.SetFramebufferSizeCallback(nil)
	h.win.SetPosCallback(nil)
	h.win.SetIconifyCallback(nil)
	glfw.SetMonitorCallback(nil)
}

func (h *Host) send(sig scene.Signal) {
	if h.sink != nil {
		h.sink(sig)
	}
}

func (h *Host) checkVisibility() {
	visible := h.visibleRatio()
	v := scene.IsVisible(visible, h.cfg.VisibilityThreshold)
	if v == h.visible {
		return
	}
	h.visible = v
	h.log.Debug("viewport visibility", "ratio", visible, "visible", v)
	h.send(scene.VisibilitySignal(v))
}

func (h *Host) visibleRatio() float64 {
	if h.win.GetAttrib(glfw.Iconified) == glfw.True || h.win.GetAttrib(glfw.Visible) == glfw.False {
		return 0
	}
	wx, wy := h.win.GetPos()
	vp := screenRect(h.viewport(), wx, wy)
	var areas []scene.Rect
	for _, m := range glfw.GetMonitors() {
		x, y, w, hh := m.GetWorkarea()
		areas = append(areas, scene.Rect{X: float64(x), Y: float64(y), W: float64(w), H: float64(hh)})
	}
	return scene.VisibleRatio(vp, areas)
}

func (h *Host) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if fn, ok := h.keys[key]; ok {
		fn()
	}
}

// Run drives the display loop until the window closes or ctx is done.
// Each turn it waits for input (or the next timer), runs posted work and
// due timers, then fires pending frame callbacks and presents whatever
// they drew.
func (h *Host) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		h.queue.Post(func() { h.win.SetShouldClose(true) })
	})
	defer stop()

	for !h.win.ShouldClose() {
		h.wait()
		h.queue.RunPosted()
		h.queue.RunTimers()
		if h.queue.RunFrames() == 0 {
			continue
		}
		if h.presented() {
			h.win.SwapBuffers()
		} else {
			// No swap to block on vsync; pace the next frame by hand.
			glfw.WaitEventsTimeout(idleFrame.Seconds())
		}
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// idleFrame paces frames that drew nothing, roughly one 60 Hz refresh.
const idleFrame = time.Second / 60

// presented reports whether a frame was drawn into the back buffer.
// Steps that skip drawing, such as a build still waiting for a size,
// leave nothing worth swapping in.
func (h *Host) presented() bool {
	return h.surface != nil && h.surface.TakePresented()
}

func (h *Host) wait() {
	if h.queue.Pending() > 0 {
		glfw.PollEvents()
		return
	}
	if at, ok := h.queue.NextDeadline(); ok {
		d := at - h.queue.Now()
		if d <= 0 {
			glfw.PollEvents()
			return
		}
		glfw.WaitEventsTimeout(d.Seconds())
		return
	}
	glfw.WaitEvents()
}

// Close destroys the window and terminates GLFW.
func (h *Host) Close() {
	h.Detach()
	h.win.Destroy()
	glfw.Terminate()
}
