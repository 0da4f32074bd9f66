package scene

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ResourceFactory uploads CPU-side data and hands back GPU handles.
type ResourceFactory interface {
	CreateMesh(g *Geometry) (MeshHandle, error)
	CreateTexture(img *image.RGBA) (TextureHandle, error)
	ReleaseMesh(h MeshHandle)
	ReleaseTexture(h TextureHandle)
}

// Scene owns every renderable object and the GPU resources behind them.
type Scene struct {
	Floor   GridSurface
	Ceiling GridSurface

	Ring HudRing
	Glow HudRing

	SpeedLines SpeedLines
	Stars      StarField

	meshes   []MeshHandle
	textures []TextureHandle
}

// BuildScene creates the tunnel grid, HUD reticle, speed lines and
// starfield. On error every resource created so far is released.
func BuildScene(rf ResourceFactory, t *Tuning, rng *Rand) (*Scene, error) {
	s := &Scene{}
	if err := s.build(rf, t, rng); err != nil {
		s.Release(rf)
		return nil, err
	}
	return s, nil
}

func (s *Scene) build(rf ResourceFactory, t *Tuning, rng *Rand) error {
	grid, err := s.mesh(rf, PlaneGeometry(GridWidth, GridLength, GridSegmentsX, GridSegmentsY))
	if err != nil {
		return fmt.Errorf("grid mesh: %w", err)
	}
	// Floor lies flat below the camera; the ceiling mirrors it above.
	s.Floor = GridSurface{Mesh: grid, Position: mgl32.Vec3{0, -GridOffsetY, 0}, RotationX: -math32.Pi / 2, GlowIntensity: 1}
	s.Ceiling = GridSurface{Mesh: grid, Position: mgl32.Vec3{0, GridOffsetY, 0}, RotationX: math32.Pi / 2, GlowIntensity: 1}

	ring, err := s.mesh(rf, RingGeometry(HudRingInner, HudRingOuter, HudSegments))
	if err != nil {
		return fmt.Errorf("hud ring mesh: %w", err)
	}
	glow, err := s.mesh(rf, RingGeometry(HudGlowInner, HudGlowOuter, HudSegments))
	if err != nil {
		return fmt.Errorf("hud glow mesh: %w", err)
	}
	s.Ring = HudRing{Mesh: ring, Depth: HudRingDepth, Color: mustHex(HudRingColor), Opacity: 0.9}
	s.Glow = HudRing{Mesh: glow, Glow: true, Depth: HudGlowDepth, Color: mustHex("#44ffff"), Opacity: 0.4}
	s.Ring.Track(mgl32.Vec3{})
	s.Glow.Track(mgl32.Vec3{})

	line, err := s.mesh(rf, CylinderGeometry(SpeedLineRadius, SpeedLineRadius, SpeedLineLength, SpeedLineSegments))
	if err != nil {
		return fmt.Errorf("speed line mesh: %w", err)
	}
	s.SpeedLines = SpeedLines{Mesh: line, Color: mustHex(SpeedLineTint), Lines: make([]SpeedLine, t.SpeedLineCount)}
	for i := range s.SpeedLines.Lines {
		s.SpeedLines.Lines[i] = SpeedLine{Position: spawnSpeedLine(t, rng), Opacity: 0.7}
	}

	tex, err := rf.CreateTexture(StarSprite(StarSpriteSize, StarSpriteRadius, StarSpriteBlur))
	if err != nil {
		return fmt.Errorf("star sprite: %w", err)
	}
	s.textures = append(s.textures, tex)
	s.Stars = StarField{
		Texture:   tex,
		Points:    make([]mgl32.Vec3, t.StarCount),
		Color:     mustHex(StarTint),
		Opacity:   0.9,
		Size:      0.2,
		AlphaTest: StarAlphaTest,
	}
	for i := range s.Stars.Points {
		s.Stars.Points[i] = spawnStar(t, rng, -rng.Float32()*t.StarFar)
	}
	return nil
}

func (s *Scene) mesh(rf ResourceFactory, g *Geometry) (MeshHandle, error) {
	h, err := rf.CreateMesh(g)
	if err != nil {
		return 0, err
	}
	s.meshes = append(s.meshes, h)
	return h, nil
}

// ApplyTheme writes a profile into every theme-adaptive object.
func (s *Scene) ApplyTheme(p *ThemeProfile) {
	s.Floor.applyTheme(p)
	s.Ceiling.applyTheme(p)
	s.Ring.applyTheme(p)
	s.Glow.applyTheme(p)
	s.SpeedLines.applyTheme(p)
	s.Stars.applyTheme(p)
}

// Grids returns the floor and ceiling.
func (s *Scene) Grids() [2]*GridSurface {
	return [2]*GridSurface{&s.Floor, &s.Ceiling}
}

// Release frees every GPU resource exactly once; later calls do nothing.
func (s *Scene) Release(rf ResourceFactory) {
	for _, h := range s.meshes {
		rf.ReleaseMesh(h)
	}
	for _, h := range s.textures {
		rf.ReleaseTexture(h)
	}
	s.meshes = nil
	s.textures = nil
}
