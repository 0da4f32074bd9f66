package scene

import "github.com/chewxy/math32"

type Primitive uint8

const (
	Triangles Primitive = iota
	Points
)

// Geometry is CPU-side vertex data uploaded once to the surface.
type Geometry struct {
	Primitive Primitive
	Positions []float32 // xyz per vertex
	UVs       []float32 // uv per vertex
	Indices   []uint32
}

func (g *Geometry) VertexCount() int { return len(g.Positions) / 3 }

// PlaneGeometry is a width x height plane in the XY plane facing +Z,
// subdivided into segX x segY quads, with v running from the bottom edge.
func PlaneGeometry(width, height float32, segX, segY int) *Geometry {
	if segX < 1 {
		segX = 1
	}
	if segY < 1 {
		segY = 1
	}
	gx1, gy1 := segX+1, segY+1
	sw := width / float32(segX)
	sh := height / float32(segY)

	g := &Geometry{
		Positions: make([]float32, 0, gx1*gy1*3),
		UVs:       make([]float32, 0, gx1*gy1*2),
		Indices:   make([]uint32, 0, segX*segY*6),
	}
	for iy := 0; iy < gy1; iy++ {
		y := float32(iy)*sh - height/2
		for ix := 0; ix < gx1; ix++ {
			x := float32(ix)*sw - width/2
			g.Positions = append(g.Positions, x, -y, 0)
			g.UVs = append(g.UVs, float32(ix)/float32(segX), 1-float32(iy)/float32(segY))
		}
	}
	for iy := 0; iy < segY; iy++ {
		for ix := 0; ix < segX; ix++ {
			a := uint32(ix + gx1*iy)
			b := uint32(ix + gx1*(iy+1))
			c := uint32(ix + 1 + gx1*(iy+1))
			d := uint32(ix + 1 + gx1*iy)
			g.Indices = append(g.Indices, a, b, d, b, c, d)
		}
	}
	return g
}

// RingGeometry is a flat annulus in the XY plane.
func RingGeometry(inner, outer float32, segments int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	g := &Geometry{
		Positions: make([]float32, 0, 2*(segments+1)*3),
		UVs:       make([]float32, 0, 2*(segments+1)*2),
		Indices:   make([]uint32, 0, segments*6),
	}
	for _, r := range [2]float32{inner, outer} {
		for i := 0; i <= segments; i++ {
			theta := float32(i) / float32(segments) * 2 * math32.Pi
			x := r * math32.Cos(theta)
			y := r * math32.Sin(theta)
			g.Positions = append(g.Positions, x, y, 0)
			g.UVs = append(g.UVs, (x/outer+1)/2, (y/outer+1)/2)
		}
	}
	stride := uint32(segments + 1)
	for i := uint32(0); i < uint32(segments); i++ {
		a := i
		b := i + stride
		c := b + 1
		d := a + 1
		g.Indices = append(g.Indices, a, b, d, b, c, d)
	}
	return g
}

// CylinderGeometry is an open tube along Y centred on the origin. The
// streaks are too thin for end caps to be visible.
func CylinderGeometry(radiusTop, radiusBottom, height float32, radial int) *Geometry {
	if radial < 3 {
		radial = 3
	}
	g := &Geometry{
		Positions: make([]float32, 0, 2*(radial+1)*3),
		UVs:       make([]float32, 0, 2*(radial+1)*2),
		Indices:   make([]uint32, 0, radial*6),
	}
	for row := 0; row <= 1; row++ {
		v := float32(row)
		r := v*(radiusBottom-radiusTop) + radiusTop
		for i := 0; i <= radial; i++ {
			u := float32(i) / float32(radial)
			theta := u * 2 * math32.Pi
			g.Positions = append(g.Positions, r*math32.Sin(theta), -v*height+height/2, r*math32.Cos(theta))
			g.UVs = append(g.UVs, u, 1-v)
		}
	}
	stride := uint32(radial + 1)
	for i := uint32(0); i < uint32(radial); i++ {
		a := i
		b := i + stride
		c := b + 1
		d := a + 1
		g.Indices = append(g.Indices, a, b, d, b, c, d)
	}
	return g
}
