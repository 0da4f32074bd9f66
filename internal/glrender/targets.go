package glrender

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// target is an offscreen colour buffer, optionally with depth.
type target struct {
	fbo, tex, depth uint32
	w, h            int32
	hdr             bool
	withDepth       bool
}

// resize reallocates storage. Attachments are created on first use.
func (t *target) resize(w, h int32) error {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if t.fbo != 0 && t.w == w && t.h == h {
		return nil
	}
	t.w, t.h = w, h
	if t.fbo == 0 {
		gl.GenFramebuffers(1, &t.fbo)
		gl.GenTextures(1, &t.tex)
		if t.withDepth {
			gl.GenRenderbuffers(1, &t.depth)
		}
	}

	internal, typ := int32(gl.RGBA8), uint32(gl.UNSIGNED_BYTE)
	if t.hdr {
		internal, typ = gl.RGBA16F, gl.HALF_FLOAT
	}
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, w, h, 0, gl.RGBA, typ, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.tex, 0)
	if t.withDepth {
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.depth)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, w, h)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer %dx%d incomplete: 0x%x", w, h, status)
	}
	return nil
}

func (t *target) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, t.w, t.h)
}

func (t *target) destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	if t.tex != 0 {
		gl.DeleteTextures(1, &t.tex)
	}
	if t.depth != 0 {
		gl.DeleteRenderbuffers(1, &t.depth)
	}
	*t = target{hdr: t.hdr, withDepth: t.withDepth}
}

// renderRatio is the device pixel ratio actually used for offscreen
// buffers: never above maxRatio, never below 1.
func renderRatio(device, maxRatio float32) float32 {
	r := device
	if maxRatio > 0 && r > maxRatio {
		r = maxRatio
	}
	return max(r, 1)
}

// pixels converts a logical coordinate to pixels at ratio r.
func pixels(n int, r float32) int32 {
	return int32(math32.Round(float32(n) * r))
}

// scaled converts a logical size to pixels at ratio r, at least one pixel.
func scaled(n int, r float32) int32 {
	return max(pixels(n, r), 1)
}

// blurWeights returns normalized one-sided gaussian weights: w[0] is the
// centre tap and every other tap is used on both sides.
func blurWeights(n int, sigma float32) []float32 {
	w := make([]float32, n)
	if n == 0 {
		return w
	}
	if sigma <= 0 {
		w[0] = 1
		return w
	}
	var sum float32
	for i := range w {
		x := float32(i)
		w[i] = math32.Exp(-(x * x) / (2 * sigma * sigma))
		if i == 0 {
			sum += w[i]
		} else {
			sum += 2 * w[i]
		}
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}
