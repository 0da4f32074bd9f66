package scene

import "github.com/go-gl/mathgl/mgl32"

type SignalKind uint8

const (
	SignalPointer SignalKind = iota
	SignalVisibility
	SignalResize
	SignalTheme
)

// Signal is one observation from the host environment. Only the fields
// belonging to Kind are meaningful.
type Signal struct {
	Kind SignalKind

	Pointer       mgl32.Vec2 // normalized, [-1,1] on both axes, +y up
	Visible       bool
	Width, Height int
	Light         bool
}

func PointerSignal(x, y float32) Signal {
	return Signal{Kind: SignalPointer, Pointer: mgl32.Vec2{x, y}}
}

func VisibilitySignal(visible bool) Signal {
	return Signal{Kind: SignalVisibility, Visible: visible}
}

func ResizeSignal(width, height int) Signal {
	return Signal{Kind: SignalResize, Width: width, Height: height}
}

func ThemeSignal(light bool) Signal {
	return Signal{Kind: SignalTheme, Light: light}
}

// Rect is an axis-aligned rectangle in host coordinates (y down).
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Area() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

func (r Rect) Intersect(o Rect) Rect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.W, o.X+o.W)
	y1 := min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// NormalizePointer maps a pointer position over the observation surface to
// a Pointer Target: the centre is (0,0), right and top edges are +1.
func NormalizePointer(px, py float64, surface Rect) mgl32.Vec2 {
	if surface.W <= 0 || surface.H <= 0 {
		return mgl32.Vec2{}
	}
	x := (px - surface.X) / surface.W
	y := (py - surface.Y) / surface.H
	return mgl32.Vec2{
		clampF32(float32((x-0.5)*2), -1, 1),
		clampF32(float32((0.5-y)*2), -1, 1),
	}
}

// VisibleRatio is the fraction of r covered by the display regions, which
// are assumed not to overlap.
func VisibleRatio(r Rect, display []Rect) float64 {
	area := r.Area()
	if area == 0 {
		return 0
	}
	var covered float64
	for _, d := range display {
		covered += r.Intersect(d).Area()
	}
	return min(covered/area, 1)
}

// IsVisible applies the visibility threshold to a coverage ratio. Any
// coverage at all counts when the threshold is zero.
func IsVisible(ratio, threshold float64) bool {
	if ratio <= 0 {
		return false
	}
	return ratio >= threshold
}
