package audio

import (
	"math"
	"sync/atomic"
)

const (
	SampleRate   = 44100
	ChannelCount = 2

	baseFreq   = 55.0  // A1
	pitchRange = 0.6   // fraction of baseFreq added at full displacement
	detune     = 1.007 // second oscillator ratio
	glide      = 0.0005
)

// drone is an endless engine hum: two detuned saws and a sub sine through
// a one-pole lowpass. Pitch follows displacement, pan follows x. Targets
// are written from the host thread and read by the audio thread.
type drone struct {
	pitch atomic.Uint64 // float64 bits, 0..1
	pan   atomic.Uint64 // float64 bits, -1..1

	phase1, phase2, phaseSub float64
	lp                       float64
	curPitch, curPan         float64
}

func newDrone() *drone {
	d := &drone{}
	d.setTargets(0, 0)
	return d
}

func (d *drone) setTargets(pitch, pan float64) {
	d.pitch.Store(math.Float64bits(clamp(pitch, 0, 1)))
	d.pan.Store(math.Float64bits(clamp(pan, -1, 1)))
}

func (d *drone) Read(p []byte) (int, error) {
	samples := len(p) / 8
	if samples == 0 {
		return 0, nil
	}
	tp := math.Float64frombits(d.pitch.Load())
	tn := math.Float64frombits(d.pan.Load())
	for i := 0; i < samples; i++ {
		// Glide toward the targets so parameter jumps never click.
		d.curPitch += (tp - d.curPitch) * glide
		d.curPan += (tn - d.curPan) * glide

		f := baseFreq * (1 + pitchRange*d.curPitch)
		d.phase1 = advance(d.phase1, f)
		d.phase2 = advance(d.phase2, f*detune)
		d.phaseSub = advance(d.phaseSub, f/2)

		raw := 0.35*saw(d.phase1) + 0.35*saw(d.phase2) + 0.3*math.Sin(2*math.Pi*d.phaseSub)
		cut := 0.02 + 0.05*d.curPitch
		d.lp += (raw - d.lp) * cut
		s := softSat(d.lp * 0.8)

		// Equal-power pan.
		angle := (d.curPan + 1) * math.Pi / 4
		putStereoF32LR(p, i, s*math.Cos(angle), s*math.Sin(angle))
	}
	return samples * 8, nil
}

func advance(phase, freq float64) float64 {
	phase += freq / SampleRate
	return phase - math.Floor(phase)
}

func saw(phase float64) float64 { return 2*phase - 1 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// softSat applies gentle tanh-like saturation, no harsh clipping.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/(x)
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// putStereoF32LR writes independent left/right samples in [-1,1].
func putStereoF32LR(buf []byte, i int, left, right float64) {
	lv := math.Float32bits(float32(left))
	rv := math.Float32bits(float32(right))
	buf[i*8] = byte(lv)
	buf[i*8+1] = byte(lv >> 8)
	buf[i*8+2] = byte(lv >> 16)
	buf[i*8+3] = byte(lv >> 24)
	buf[i*8+4] = byte(rv)
	buf[i*8+5] = byte(rv >> 8)
	buf[i*8+6] = byte(rv >> 16)
	buf[i*8+7] = byte(rv >> 24)
}
