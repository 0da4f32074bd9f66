package platform

import (
	"heroscene/internal/scene"
)

// viewportRect places the scene on the right-hand share of the window,
// full height. fraction is clamped to (0,1].
func viewportRect(winW, winH int, fraction float64) scene.Rect {
	if winW <= 0 || winH <= 0 {
		return scene.Rect{}
	}
	if fraction <= 0 || fraction > 1 {
		fraction = 1
	}
	w := int(float64(winW)*fraction + 0.5)
	return scene.Rect{X: float64(winW - w), Y: 0, W: float64(w), H: float64(winH)}
}

// pixelRatio is framebuffer pixels per window unit.
func pixelRatio(fbW, winW int) float32 {
	if fbW <= 0 || winW <= 0 {
		return 1
	}
	return float32(fbW) / float32(winW)
}

// screenRect moves a window-relative rectangle to screen coordinates.
func screenRect(r scene.Rect, winX, winY int) scene.Rect {
	r.X += float64(winX)
	r.Y += float64(winY)
	return r
}
