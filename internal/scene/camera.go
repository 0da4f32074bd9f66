package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Camera is the viewer ("the jet"): one perspective projection whose
// position is steered toward the pointer every frame.
type Camera struct {
	FOV, Near, Far float32 // FOV in degrees
	Aspect         float32

	Position mgl32.Vec3
	Roll     float32    // rotation about the view axis, radians
	Target   mgl32.Vec3 // look point

	projection mgl32.Mat4
}

func NewCamera(fov, near, far float32) Camera {
	c := Camera{
		FOV:    fov,
		Near:   near,
		Far:    far,
		Aspect: 1,
		Target: mgl32.Vec3{0, 0, LookAheadZ},
	}
	c.UpdateProjection()
	return c
}

// SetAspect stores the aspect ratio and rebuilds the projection.
func (c *Camera) SetAspect(aspect float32) {
	c.Aspect = aspect
	c.UpdateProjection()
}

func (c *Camera) UpdateProjection() {
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

func (c *Camera) Projection() mgl32.Mat4 { return c.projection }

// View aims the camera at Target and then applies Roll about the view axis.
func (c *Camera) View() mgl32.Mat4 {
	look := mgl32.LookAtV(c.Position, c.Target, worldUp)
	if c.Roll == 0 {
		return look
	}
	return mgl32.HomogRotate3DZ(-c.Roll).Mul4(look)
}

// Follow moves the camera a fraction k of the way toward goal on x and y
// and pins z to the flight plane. It is a first-order low-pass filter.
func (c *Camera) Follow(goal mgl32.Vec2, k float32) {
	c.Position[0] += (goal[0] - c.Position[0]) * k
	c.Position[1] += (goal[1] - c.Position[1]) * k
	c.Position[2] = 0
}

// smoothingFor converts a per-frame smoothing factor to one covering
// frames display frames.
func smoothingFor(k, frames float32) float32 {
	if frames == 1 {
		return k
	}
	return 1 - math32.Pow(1-k, frames)
}
