package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera projection.
const (
	DefaultFOV  = 75.0
	DefaultNear = 0.1
	DefaultFar  = 1000.0
)

// Steering: pointer target is scaled, then the camera low-pass follows it.
const (
	CameraScaleX = 3.0
	CameraScaleY = 1.5
	Smoothing    = 0.12 // fraction of the remaining distance covered per frame
	RollFactor   = 0.08
	LookAheadZ   = -2.0
)

// Tunnel travel.
const (
	ScrollRate = 0.08 // grid scroll units per frame
	RespawnZ   = 1.0  // pooled objects past this z have passed the camera
)

// Tunnel grid planes (floor and mirrored ceiling).
const (
	GridWidth     = 10.0
	GridLength    = 30.0
	GridSegmentsX = 20
	GridSegmentsY = 60
	GridOffsetY   = 2.5
)

// HUD reticle.
const (
	HudRingInner  = 0.18
	HudRingOuter  = 0.22
	HudGlowInner  = 0.24
	HudGlowOuter  = 0.32
	HudSegments   = 48
	HudRingDepth  = -1.2
	HudGlowDepth  = -1.21
	HudRingColor  = "#00ffff"
	SpeedLineTint = "#ffffff"
	StarTint      = "#ffffff"
)

// Speed-line streaks.
const (
	SpeedLineCount    = 12
	SpeedLineSpeed    = 0.7
	SpeedLineRadius   = 0.01
	SpeedLineLength   = 1.2
	SpeedLineSegments = 3
	SpeedLineSpreadX  = 7.0
	SpeedLineSpreadY  = 3.5
	SpeedLineNear     = 2.0 // spawn depth range, in front of the camera
	SpeedLineFar      = 20.0
)

// Starfield.
const (
	StarCount        = 60
	StarSpeed        = 0.12
	StarRadiusMin    = 8.0
	StarRadiusMax    = 16.0
	StarSpreadY      = 8.0
	StarFar          = 30.0
	StarAlphaTest    = 0.1
	StarSpriteSize   = 8
	StarSpriteRadius = 3.0
	StarSpriteBlur   = 2.0
)

// Host timing and output.
const (
	ResizeQuiet         = 100 * time.Millisecond
	MinResizeQuiet      = 80 * time.Millisecond // shortest allowed debounce
	ReadyDelay          = 100 * time.Millisecond
	VisibilityThreshold = 0.1
	MaxPixelRatio       = 1.2
	Exposure            = 1.5
)

// Tuning carries every tunable of a controller instance. DefaultTuning
// mirrors the constants above.
type Tuning struct {
	FOV, Near, Far float32

	CameraScaleX, CameraScaleY float32
	Smoothing                  float32
	RollFactor                 float32
	LookAt                     mgl32.Vec3

	ScrollRate float32
	RespawnZ   float32
	// DeltaTime scales per-frame advances by elapsed time (60 Hz = 1.0)
	// instead of advancing a fixed amount every displayed frame.
	DeltaTime bool

	SpeedLineCount   int
	SpeedLineSpeed   float32
	SpeedLineSpreadX float32
	SpeedLineSpreadY float32
	SpeedLineNear    float32
	SpeedLineFar     float32

	StarCount     int
	StarSpeed     float32
	StarRadiusMin float32
	StarRadiusMax float32
	StarSpreadY   float32
	StarFar       float32

	ResizeQuiet         time.Duration
	ReadyDelay          time.Duration
	VisibilityThreshold float64
	MaxPixelRatio       float32
	Exposure            float32

	Dark  ThemeProfile
	Light ThemeProfile
}

// DefaultTuning returns the stock tunables.
func DefaultTuning() Tuning {
	return Tuning{
		FOV:  DefaultFOV,
		Near: DefaultNear,
		Far:  DefaultFar,

		CameraScaleX: CameraScaleX,
		CameraScaleY: CameraScaleY,
		Smoothing:    Smoothing,
		RollFactor:   RollFactor,
		LookAt:       mgl32.Vec3{0, 0, LookAheadZ},

		ScrollRate: ScrollRate,
		RespawnZ:   RespawnZ,

		SpeedLineCount:   SpeedLineCount,
		SpeedLineSpeed:   SpeedLineSpeed,
		SpeedLineSpreadX: SpeedLineSpreadX,
		SpeedLineSpreadY: SpeedLineSpreadY,
		SpeedLineNear:    SpeedLineNear,
		SpeedLineFar:     SpeedLineFar,

		StarCount:     StarCount,
		StarSpeed:     StarSpeed,
		StarRadiusMin: StarRadiusMin,
		StarRadiusMax: StarRadiusMax,
		StarSpreadY:   StarSpreadY,
		StarFar:       StarFar,

		ResizeQuiet:         ResizeQuiet,
		ReadyDelay:          ReadyDelay,
		VisibilityThreshold: VisibilityThreshold,
		MaxPixelRatio:       MaxPixelRatio,
		Exposure:            Exposure,

		Dark:  DarkProfile(),
		Light: LightProfile(),
	}
}

// Validate reports the first tunable that would break the scene.
func (t *Tuning) Validate() error {
	var errs []error
	if t.FOV <= 0 || t.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %v out of range (0,180)", t.FOV))
	}
	if t.Near <= 0 || t.Far <= t.Near {
		errs = append(errs, fmt.Errorf("clip planes near=%v far=%v", t.Near, t.Far))
	}
	if t.Smoothing <= 0 || t.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("smoothing %v out of range (0,1]", t.Smoothing))
	}
	if t.ScrollRate < 0 || t.SpeedLineSpeed < 0 || t.StarSpeed < 0 {
		errs = append(errs, errors.New("advance rates must not be negative"))
	}
	if t.SpeedLineCount <= 0 {
		errs = append(errs, fmt.Errorf("speed line count %d must be positive", t.SpeedLineCount))
	}
	if t.StarCount <= 0 {
		errs = append(errs, fmt.Errorf("star count %d must be positive", t.StarCount))
	}
	if t.SpeedLineFar <= t.SpeedLineNear || t.SpeedLineNear < 0 {
		errs = append(errs, fmt.Errorf("speed line depth range [%v,%v]", t.SpeedLineNear, t.SpeedLineFar))
	}
	if t.StarRadiusMax < t.StarRadiusMin || t.StarFar <= 0 {
		errs = append(errs, errors.New("star ring bounds"))
	}
	if t.VisibilityThreshold < 0 || t.VisibilityThreshold > 1 {
		errs = append(errs, fmt.Errorf("visibility threshold %v out of range [0,1]", t.VisibilityThreshold))
	}
	if t.ResizeQuiet < MinResizeQuiet {
		errs = append(errs, fmt.Errorf("resize quiet period %v below %v", t.ResizeQuiet, MinResizeQuiet))
	}
	if t.MaxPixelRatio <= 0 {
		errs = append(errs, fmt.Errorf("max pixel ratio %v must be positive", t.MaxPixelRatio))
	}
	return errors.Join(errs...)
}
