package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeedLineRespawnsAhead(t *testing.T) {
	tun := DefaultTuning()
	rng := NewRand(7)
	s := SpeedLines{Lines: []SpeedLine{{Position: mgl32.Vec3{0, 0, 0.5}}}}

	n := s.Advance(SpeedLineSpeed, &tun, rng)
	require.Equal(t, 1, n)
	require.Len(t, s.Lines, 1)

	p := s.Lines[0].Position
	assert.LessOrEqual(t, p.Z(), float32(-SpeedLineNear))
	assert.GreaterOrEqual(t, p.Z(), float32(-SpeedLineFar))
	assert.LessOrEqual(t, abs32(p.X()), float32(SpeedLineSpreadX/2))
	assert.LessOrEqual(t, abs32(p.Y()), float32(SpeedLineSpreadY/2))
}

func TestSpeedLineBeforeBoundaryKeepsMoving(t *testing.T) {
	tun := DefaultTuning()
	s := SpeedLines{Lines: []SpeedLine{{Position: mgl32.Vec3{1, 1, -5}}}}
	assert.Equal(t, 0, s.Advance(SpeedLineSpeed, &tun, NewRand(1)))
	assert.InDelta(t, -5+SpeedLineSpeed, s.Lines[0].Position.Z(), 1e-6)
	assert.Equal(t, float32(1), s.Lines[0].Position.X())
}

func TestStarRespawnsOnFarRing(t *testing.T) {
	tun := DefaultTuning()
	rng := NewRand(3)
	s := StarField{Points: make([]mgl32.Vec3, 50)}
	for i := range s.Points {
		s.Points[i] = mgl32.Vec3{0, 0, RespawnZ}
	}

	n := s.Advance(StarSpeed, &tun, rng)
	assert.Equal(t, 50, n)
	assert.Len(t, s.Points, 50)
	for _, p := range s.Points {
		assert.Equal(t, float32(-StarFar), p.Z())
		assert.LessOrEqual(t, abs32(p.X()), float32(StarRadiusMax))
		assert.LessOrEqual(t, abs32(p.Y()), float32(StarSpreadY/2))
	}
}

func TestRandRange(t *testing.T) {
	r := NewRand(0)
	for i := 0; i < 1000; i++ {
		v := r.Float32()
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
	assert.Equal(t, float32(2), r.RangeF(2, 1))
	assert.Equal(t, NewRand(9).NextU64(), NewRand(9).NextU64())
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
