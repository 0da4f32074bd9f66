// Package audio plays a procedural engine hum that follows the camera.
package audio

import (
	"fmt"
	"math"
	"sync"

	"github.com/hajimehoshi/oto/v2"
)

// Hum owns the oto context and the single drone player.
type Hum struct {
	ctx    *oto.Context
	ready  chan struct{}
	drone  *drone
	player oto.Player

	// Camera extents that map to full pitch and full pan.
	spanX, spanY float64

	mu     sync.Mutex
	paused bool
	closed bool
}

// NewHum opens the audio device. volume is in [0,1]; spanX and spanY are
// the largest camera offsets on each axis.
func NewHum(volume, spanX, spanY float64) (*Hum, error) {
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	h := &Hum{
		ctx:   ctx,
		ready: ready,
		drone: newDrone(),
		spanX: spanX,
		spanY: spanY,
	}
	h.player = ctx.NewPlayer(h.drone)
	h.player.SetVolume(clamp(volume, 0, 1))
	go func() {
		<-ready
		h.mu.Lock()
		defer h.mu.Unlock()
		if !h.closed && !h.paused {
			h.player.Play()
		}
	}()
	return h, nil
}

// SetMotion steers the hum from the camera offset: distance from the
// tunnel axis raises the pitch, x pans it.
func (h *Hum) SetMotion(x, y float32) {
	nx := float64(x) / math.Max(h.spanX, 1e-6)
	ny := float64(y) / math.Max(h.spanY, 1e-6)
	disp := math.Min(math.Hypot(nx, ny)/math.Sqrt2, 1)
	h.drone.setTargets(disp, nx)
}

func (h *Hum) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.paused {
		return
	}
	h.paused = true
	h.player.Pause()
}

func (h *Hum) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.paused {
		return
	}
	h.paused = false
	select {
	case <-h.ready:
		h.player.Play()
	default:
		// The ready goroutine starts playback.
	}
}

// Close stops playback for good. Later calls do nothing.
func (h *Hum) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.player.Close()
}
