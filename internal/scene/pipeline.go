package scene

import (
	"image"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// PassKind is one stage of the post-processing chain.
type PassKind uint8

const (
	PassRender PassKind = iota
	PassBloom
	PassInvert
)

func (k PassKind) String() string {
	switch k {
	case PassRender:
		return "render"
	case PassBloom:
		return "bloom"
	case PassInvert:
		return "invert"
	}
	return "unknown"
}

// Bloom configures the glow pass.
type Bloom struct {
	Strength  float32
	Radius    float32
	Threshold float32
}

// Frame is everything a Surface needs to draw one frame.
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Camera     Camera
	Passes     []PassKind
	Bloom      Bloom
	Exposure   float32
	Scene      *Scene
}

// Surface is the rendering surface attached to a Viewport. Resize gets the
// full size and the half-resolution size used by the bloom buffers.
type Surface interface {
	CreateMesh(g *Geometry) (MeshHandle, error)
	CreateTexture(img *image.RGBA) (TextureHandle, error)
	ReleaseMesh(h MeshHandle)
	ReleaseTexture(h TextureHandle)
	Resize(width, height, bloomWidth, bloomHeight int)
	Draw(f *Frame)
	Destroy()
}

// Pipeline owns the camera and the ordered pass chain.
type Pipeline struct {
	Camera Camera

	surface       Surface
	passes        []PassKind
	bloom         Bloom
	exposure      float32
	width, height int
	frame         Frame
	renders       int
}

func newPipeline(s Surface, t *Tuning) *Pipeline {
	return &Pipeline{
		Camera:   NewCamera(t.FOV, t.Near, t.Far),
		surface:  s,
		passes:   []PassKind{PassRender, PassBloom},
		bloom:    t.Dark.Bloom,
		exposure: t.Exposure,
	}
}

// Resize updates the camera aspect and every surface buffer. Sizes with a
// zero or negative side are ignored and reported as false.
func (p *Pipeline) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	p.width, p.height = width, height
	p.Camera.SetAspect(float32(width) / float32(height))
	p.surface.Resize(width, height, max(width/2, 1), max(height/2, 1))
	return true
}

// SetThemeAdaptation adds or removes the invert pass and writes the
// theme's bloom and material values. sc may be nil before the first build.
func (p *Pipeline) SetThemeAdaptation(isLight bool, prof *ThemeProfile, sc *Scene) {
	has := p.HasPass(PassInvert)
	switch {
	case isLight && !has:
		// Invert must see the fully composited image, so it always goes last.
		p.passes = append(p.passes, PassInvert)
	case !isLight && has:
		p.passes = slices.DeleteFunc(p.passes, func(k PassKind) bool { return k == PassInvert })
	}
	p.bloom = prof.Bloom
	if sc != nil {
		sc.ApplyTheme(prof)
	}
}

// RenderFrame runs the pass chain against the current camera and scene.
func (p *Pipeline) RenderFrame(sc *Scene) {
	p.frame = Frame{
		View:       p.Camera.View(),
		Projection: p.Camera.Projection(),
		Camera:     p.Camera,
		Passes:     p.passes,
		Bloom:      p.bloom,
		Exposure:   p.exposure,
		Scene:      sc,
	}
	p.surface.Draw(&p.frame)
	p.renders++
}

// Passes returns a copy of the current pass chain.
func (p *Pipeline) Passes() []PassKind { return slices.Clone(p.passes) }

func (p *Pipeline) HasPass(k PassKind) bool { return slices.Contains(p.passes, k) }

func (p *Pipeline) Bloom() Bloom { return p.bloom }

func (p *Pipeline) Size() (width, height int) { return p.width, p.height }

// Renders counts RenderFrame calls over the pipeline's lifetime.
func (p *Pipeline) Renders() int { return p.renders }
