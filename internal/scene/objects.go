package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// MeshHandle and TextureHandle name GPU resources owned by a Surface.
// Zero is never a valid handle.
type (
	MeshHandle    uint32
	TextureHandle uint32
)

// GridSurface is one tunnel plane drawn with the animated grid shader.
type GridSurface struct {
	Mesh      MeshHandle
	Position  mgl32.Vec3
	RotationX float32

	// Shader uniforms.
	Time          float32
	Scroll        float32
	GlowIntensity float32
}

func (g *GridSurface) Model() mgl32.Mat4 {
	return mgl32.Translate3D(g.Position[0], g.Position[1], g.Position[2]).Mul4(mgl32.HomogRotate3DX(g.RotationX))
}

func (g *GridSurface) applyTheme(p *ThemeProfile) {
	g.GlowIntensity = p.GridGlow
}

// HudRing is one ring of the reticle. Glow marks the outer halo ring,
// which also changes colour with the theme.
type HudRing struct {
	Mesh     MeshHandle
	Glow     bool
	Depth    float32
	Position mgl32.Vec3
	Color    colorful.Color
	Opacity  float32
}

// Track centres the ring on the camera's x/y at its fixed depth.
func (h *HudRing) Track(cam mgl32.Vec3) {
	h.Position = mgl32.Vec3{cam[0], cam[1], h.Depth}
}

func (h *HudRing) Model() mgl32.Mat4 {
	return mgl32.Translate3D(h.Position[0], h.Position[1], h.Position[2])
}

func (h *HudRing) applyTheme(p *ThemeProfile) {
	if h.Glow {
		h.Opacity = p.HudGlowOpacity
		h.Color = p.HudGlowColor
		return
	}
	h.Opacity = p.HudRingOpacity
}

// SpeedLine is one pooled streak.
type SpeedLine struct {
	Position mgl32.Vec3
	Opacity  float32
}

// SpeedLines is the fixed pool of streaks sharing one cylinder mesh.
type SpeedLines struct {
	Mesh  MeshHandle
	Color colorful.Color
	Lines []SpeedLine
}

// Model lays the cylinder along the flight axis at line i.
func (s *SpeedLines) Model(i int) mgl32.Mat4 {
	p := s.Lines[i].Position
	return mgl32.Translate3D(p[0], p[1], p[2]).Mul4(mgl32.HomogRotate3DX(math32.Pi / 2))
}

func (s *SpeedLines) applyTheme(p *ThemeProfile) {
	for i := range s.Lines {
		s.Lines[i].Opacity = p.SpeedLineOpacity
	}
}

// StarField is the fixed pool of point sprites. Positions are streamed to
// the surface every frame.
type StarField struct {
	Texture   TextureHandle
	Points    []mgl32.Vec3
	Color     colorful.Color
	Opacity   float32
	Size      float32
	AlphaTest float32
}

func (s *StarField) applyTheme(p *ThemeProfile) {
	s.Opacity = p.StarOpacity
	s.Size = p.StarSize
}
