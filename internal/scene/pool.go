package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Pooled objects are never added or removed after the scene is built;
// anything that passes the camera is moved back out ahead of it.

func spawnSpeedLine(t *Tuning, rng *Rand) mgl32.Vec3 {
	return mgl32.Vec3{
		rng.Centered(t.SpeedLineSpreadX),
		rng.Centered(t.SpeedLineSpreadY),
		-rng.RangeF(t.SpeedLineNear, t.SpeedLineFar),
	}
}

// spawnStar places a star on the ring at depth z.
func spawnStar(t *Tuning, rng *Rand, z float32) mgl32.Vec3 {
	r := rng.RangeF(t.StarRadiusMin, t.StarRadiusMax)
	theta := rng.Float32() * 2 * math32.Pi
	return mgl32.Vec3{
		math32.Cos(theta) * r,
		rng.Centered(t.StarSpreadY),
		z,
	}
}

// Advance moves every streak dz toward the camera and respawns the ones
// that passed it. It returns how many were respawned.
func (s *SpeedLines) Advance(dz float32, t *Tuning, rng *Rand) int {
	n := 0
	for i := range s.Lines {
		l := &s.Lines[i]
		l.Position[2] += dz
		if l.Position[2] > t.RespawnZ {
			l.Position = spawnSpeedLine(t, rng)
			n++
		}
	}
	return n
}

// Advance moves every star dz toward the camera; passed stars go back to
// the far end of the ring.
func (s *StarField) Advance(dz float32, t *Tuning, rng *Rand) int {
	n := 0
	for i := range s.Points {
		p := &s.Points[i]
		p[2] += dz
		if p[2] > t.RespawnZ {
			*p = spawnStar(t, rng, -t.StarFar)
			n++
		}
	}
	return n
}
