package scene

import (
	"errors"
	"testing"
	"time"

	"heroscene/internal/frames"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refresh = 16 * time.Millisecond

type harness struct {
	clock *frames.ManualClock
	queue *frames.Queue
	vp    *fakeViewport
	ctl   *Controller
}

func newHarness(t *testing.T, w, h int, opts Options) *harness {
	t.Helper()
	clock := &frames.ManualClock{}
	q := frames.NewQueue(clock.Now)
	vp := &fakeViewport{w: w, h: h}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	ctl, err := New(vp, q, opts)
	require.NoError(t, err)
	return &harness{clock: clock, queue: q, vp: vp, ctl: ctl}
}

// tick advances one display refresh: timers first, then frames.
func (h *harness) tick() {
	h.clock.Advance(refresh)
	h.queue.RunTimers()
	h.queue.RunFrames()
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.tick()
	}
}

func (h *harness) wait(d time.Duration) {
	h.clock.Advance(d)
	h.queue.RunTimers()
}

func TestThemeScenario(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	p := h.ctl.Pipeline()
	dark := DarkProfile()
	light := LightProfile()

	assert.Equal(t, dark.Bloom.Strength, p.Bloom().Strength)
	assert.False(t, p.HasPass(PassInvert))
	assert.Equal(t, []PassKind{PassRender, PassBloom}, p.Passes())

	h.ctl.SetTheme(true)
	h.tick()
	assert.True(t, p.HasPass(PassInvert))
	assert.Equal(t, light.Bloom.Strength, p.Bloom().Strength)
	assert.Equal(t, []PassKind{PassRender, PassBloom, PassInvert}, h.vp.surface.lastPass)
	assert.Equal(t, light.Bloom, h.vp.surface.lastBloom)

	sc := h.ctl.Scene()
	assert.Equal(t, light.HudRingOpacity, sc.Ring.Opacity)
	assert.Equal(t, light.HudGlowOpacity, sc.Glow.Opacity)
	assert.Equal(t, light.HudGlowColor, sc.Glow.Color)
	assert.Equal(t, light.StarSize, sc.Stars.Size)
	assert.Equal(t, light.GridGlow, sc.Floor.GlowIntensity)
	assert.Equal(t, light.GridGlow, sc.Ceiling.GlowIntensity)
	for _, l := range sc.SpeedLines.Lines {
		assert.Equal(t, light.SpeedLineOpacity, l.Opacity)
	}

	draws := h.vp.surface.draws
	h.ctl.Dispose()
	assert.False(t, h.vp.attached)
	assert.Equal(t, 1, h.vp.surface.destroyed)

	h.ctl.SetTheme(false)
	h.ticks(5)
	assert.Equal(t, draws, h.vp.surface.draws)
	assert.Equal(t, 0, h.queue.Pending())
}

func TestThemeRoundTrip(t *testing.T) {
	h := newHarness(t, 640, 480, Options{})
	p := h.ctl.Pipeline()
	before := p.Passes()

	h.ctl.SetTheme(true)
	h.tick()
	h.ctl.SetTheme(false)
	h.tick()

	assert.Equal(t, before, p.Passes())
	assert.Equal(t, DarkProfile().Bloom, p.Bloom())
}

func TestInitialLightTheme(t *testing.T) {
	h := newHarness(t, 640, 480, Options{Light: true})
	p := h.ctl.Pipeline()
	assert.Equal(t, PassInvert, p.Passes()[len(p.Passes())-1])
	assert.Equal(t, LightProfile().StarOpacity, h.ctl.Scene().Stars.Opacity)
}

func TestInvertStaysLast(t *testing.T) {
	h := newHarness(t, 640, 480, Options{})
	for i := 0; i < 4; i++ {
		h.ctl.SetTheme(i%2 == 0)
		h.tick()
		passes := h.ctl.Pipeline().Passes()
		assert.Equal(t, h.ctl.Light(), h.ctl.Pipeline().HasPass(PassInvert))
		for j, k := range passes {
			if k == PassInvert {
				assert.Equal(t, len(passes)-1, j)
			}
		}
	}
}

func TestResizeSetsAspect(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	sizes := [][2]int{{1, 1}, {1920, 1080}, {333, 777}, {1, 4096}, {1280, 720}}
	for _, s := range sizes {
		h.ctl.Send(ResizeSignal(s[0], s[1]))
		h.wait(ResizeQuiet)
		assert.Equal(t, float32(s[0])/float32(s[1]), h.ctl.Pipeline().Camera.Aspect)
	}
	last := h.vp.surface.resizes[len(h.vp.surface.resizes)-1]
	assert.Equal(t, [4]int{1280, 720, 640, 360}, last)
}

func TestResizeIsDebounced(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	surf := h.vp.surface
	require.Len(t, surf.resizes, 1)

	for i := 0; i < 10; i++ {
		h.ctl.Send(ResizeSignal(800+i*10, 600))
		h.wait(ResizeQuiet / 4)
	}
	assert.Len(t, surf.resizes, 1, "no resize inside the quiet period")

	h.wait(ResizeQuiet)
	require.Len(t, surf.resizes, 2)
	assert.Equal(t, 890, surf.resizes[1][0])
}

func TestZeroSizeDefersBuild(t *testing.T) {
	h := newHarness(t, 0, 0, Options{})
	assert.Nil(t, h.ctl.Scene())
	assert.Equal(t, StateRunning, h.ctl.State())

	h.ticks(3)
	assert.Equal(t, 0, h.ctl.Pipeline().Renders())
	assert.Zero(t, h.vp.surface.draws, "nothing to present before the build")

	h.ctl.Send(ResizeSignal(0, 300))
	h.wait(ResizeQuiet)
	assert.Nil(t, h.ctl.Scene())

	h.ctl.SetTheme(true)
	h.tick()
	h.ctl.Send(ResizeSignal(400, 300))
	h.wait(ResizeQuiet)
	require.NotNil(t, h.ctl.Scene())
	assert.Equal(t, LightProfile().GridGlow, h.ctl.Scene().Floor.GlowIntensity)

	h.tick()
	assert.Equal(t, 1, h.ctl.Pipeline().Renders())
	assert.Equal(t, float32(400)/float32(300), h.ctl.Pipeline().Camera.Aspect)
}

func TestNoContextFailsFast(t *testing.T) {
	q := frames.NewQueue((&frames.ManualClock{}).Now)
	vp := &fakeViewport{w: 800, h: 600, err: errors.New("glfw: no GL")}
	ctl, err := New(vp, q, Options{})
	assert.Nil(t, ctl)
	assert.ErrorIs(t, err, ErrNoContext)
	assert.Equal(t, 0, q.Pending())
}

func TestNilArguments(t *testing.T) {
	q := frames.NewQueue((&frames.ManualClock{}).Now)
	_, err := New(nil, q, Options{})
	assert.ErrorIs(t, err, ErrNoViewport)
	_, err = New(&fakeViewport{}, nil, Options{})
	assert.ErrorIs(t, err, ErrNoScheduler)
}

func TestBuildFailureReleasesPartialScene(t *testing.T) {
	q := frames.NewQueue((&frames.ManualClock{}).Now)
	surf := newFakeSurface()
	surf.failAfter = 2
	vp := &fakeViewport{w: 800, h: 600, surface: surf}

	_, err := New(vp, q, Options{})
	require.Error(t, err)
	assert.True(t, surf.releasedOnce())
	assert.Equal(t, 1, surf.destroyed)
	assert.False(t, vp.attached)
}

func TestInvalidTuning(t *testing.T) {
	tun := DefaultTuning()
	tun.StarCount = 0
	tun.Smoothing = 2
	q := frames.NewQueue((&frames.ManualClock{}).Now)
	_, err := New(&fakeViewport{w: 1, h: 1}, q, Options{Tuning: &tun})
	assert.ErrorContains(t, err, "star count")
	assert.ErrorContains(t, err, "smoothing")
}

func TestResizeQuietHasFloor(t *testing.T) {
	tun := DefaultTuning()
	tun.ResizeQuiet = 0
	assert.ErrorContains(t, tun.Validate(), "resize quiet period")

	tun.ResizeQuiet = MinResizeQuiet
	assert.NoError(t, tun.Validate())
}

func TestScrollNeverDecreases(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	prev := h.ctl.Scroll()
	for i := 0; i < 200; i++ {
		if i == 50 {
			h.ctl.Send(VisibilitySignal(false))
		}
		if i == 80 {
			h.ctl.Send(VisibilitySignal(true))
		}
		h.tick()
		cur := h.ctl.Scroll()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.InDelta(t, float64(ScrollRate*float32(h.ctl.Steps())), float64(prev), 1e-3)
	grid := h.ctl.Scene().Floor
	assert.Equal(t, prev, grid.Scroll)
	assert.Equal(t, prev, h.ctl.Scene().Ceiling.Scroll)
}

func TestPoolSizesAreConstant(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	sc := h.ctl.Scene()
	lines := &sc.SpeedLines.Lines[0]
	stars := &sc.Stars.Points[0]

	for i := 0; i < 600; i++ {
		h.tick()
		require.Len(t, sc.SpeedLines.Lines, SpeedLineCount)
		require.Len(t, sc.Stars.Points, StarCount)
	}
	// Same backing arrays: nothing was reallocated.
	assert.Same(t, lines, &sc.SpeedLines.Lines[0])
	assert.Same(t, stars, &sc.Stars.Points[0])
}

func TestVisibilityFreezesRendering(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	h.ticks(5)
	renders := h.ctl.Pipeline().Renders()
	assert.Equal(t, 5, renders)

	h.ctl.Send(VisibilitySignal(false))
	assert.Equal(t, StateSuspended, h.ctl.State())
	assert.Equal(t, 0, h.queue.Pending())
	h.ticks(30)
	assert.Equal(t, renders, h.ctl.Pipeline().Renders())

	// Repeated signals do not stack requests.
	h.ctl.Send(VisibilitySignal(true))
	h.ctl.Send(VisibilitySignal(true))
	assert.Equal(t, StateRunning, h.ctl.State())
	assert.Equal(t, 1, h.queue.Pending())
	h.ticks(2)
	assert.Equal(t, renders+2, h.ctl.Pipeline().Renders())
	assert.Equal(t, 1, h.queue.Pending())
}

func TestThemeWhileSuspendedAppliesImmediately(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	h.ctl.Send(VisibilitySignal(false))
	h.ctl.SetTheme(true)
	assert.True(t, h.ctl.Pipeline().HasPass(PassInvert))
}

func TestPointerCenterSettles(t *testing.T) {
	h := newHarness(t, 800, 600, Options{})
	surface := Rect{X: 0, Y: 0, W: 1600, H: 600}

	h.ctl.Send(PointerSignal(1, 1))
	h.ticks(60)
	cam := h.ctl.Pipeline().Camera.Position
	assert.InDelta(t, CameraScaleX, cam.X(), 0.01)
	assert.InDelta(t, CameraScaleY, cam.Y(), 0.01)
	assert.Less(t, h.ctl.Pipeline().Camera.Roll, float32(0))

	target := NormalizePointer(800, 300, surface)
	assert.Equal(t, mgl32.Vec2{0, 0}, target)
	h.ctl.Send(PointerSignal(target[0], target[1]))
	h.ticks(120)

	assert.Equal(t, mgl32.Vec2{0, 0}, h.ctl.Pointer())
	cam = h.ctl.Pipeline().Camera.Position
	assert.InDelta(t, 0, cam.X(), 1e-3)
	assert.InDelta(t, 0, cam.Y(), 1e-3)
	assert.Equal(t, float32(0), cam.Z())

	sc := h.ctl.Scene()
	assert.InDelta(t, cam.X(), sc.Ring.Position.X(), 1e-6)
	assert.Equal(t, float32(HudRingDepth), sc.Ring.Position.Z())
	assert.Equal(t, float32(HudGlowDepth), sc.Glow.Position.Z())
}

func TestDisposeReleasesEverything(t *testing.T) {
	h := newHarness(t, 800, 600, Options{OnReady: func() {}})
	h.ticks(3)
	h.ctl.Send(ResizeSignal(100, 100))
	surf := h.vp.surface

	h.ctl.Dispose()
	assert.Equal(t, StateDisposed, h.ctl.State())
	assert.Equal(t, 0, h.queue.Pending())
	assert.Equal(t, 0, h.queue.Timers())
	assert.False(t, h.vp.attached)
	assert.True(t, surf.releasedOnce())
	assert.NotEmpty(t, surf.meshes)
	assert.Len(t, surf.textures, 1)

	assert.NotPanics(t, h.ctl.Dispose)
	assert.True(t, surf.releasedOnce())
	assert.Equal(t, 1, surf.destroyed)
	assert.Equal(t, 1, h.vp.removed)
}

func TestOnReadyOnce(t *testing.T) {
	calls := 0
	h := newHarness(t, 800, 600, Options{OnReady: func() { calls++ }})
	h.wait(ReadyDelay / 2)
	assert.Equal(t, 0, calls)
	h.wait(ReadyDelay)
	assert.Equal(t, 1, calls)
	h.ticks(20)
	assert.Equal(t, 1, calls)
}

func TestOnReadyCancelledByDispose(t *testing.T) {
	calls := 0
	h := newHarness(t, 800, 600, Options{OnReady: func() { calls++ }})
	h.ctl.Dispose()
	h.wait(time.Second)
	assert.Equal(t, 0, calls)
}

func TestEventsFollowLifecycle(t *testing.T) {
	bus := NewEventBus()
	var got []EventType
	for _, et := range []EventType{EventStarted, EventSuspended, EventResumed, EventResized, EventDisposed} {
		bus.Subscribe(et, func(e Event) { got = append(got, e.Type) })
	}
	h := newHarness(t, 800, 600, Options{Events: bus})
	h.ctl.Send(VisibilitySignal(false))
	h.ctl.Send(VisibilitySignal(true))
	h.ctl.Send(ResizeSignal(300, 200))
	h.wait(ResizeQuiet)
	h.ctl.Dispose()

	assert.Equal(t, []EventType{EventStarted, EventSuspended, EventResumed, EventResized, EventDisposed}, got)
}

func TestDeltaTimeScaling(t *testing.T) {
	tun := DefaultTuning()
	tun.DeltaTime = true
	h := newHarness(t, 800, 600, Options{Tuning: &tun})

	h.tick() // first step always advances one frame
	assert.InDelta(t, ScrollRate, h.ctl.Scroll(), 1e-6)

	// A slower display advances further per step.
	h.clock.Advance(2 * refresh)
	h.queue.RunFrames()
	assert.InDelta(t, ScrollRate*(1+(2*refresh).Seconds()*60), h.ctl.Scroll(), 1e-4)
}
