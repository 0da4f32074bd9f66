package glrender

import (
	"heroscene/internal/scene"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Draw runs the frame's pass chain and blends the result into the window.
// Each post stage reads the previous stage's output; tone mapping happens
// once, in the first stage that leaves HDR.
func (s *Surface) Draw(f *scene.Frame) {
	if s.width <= 0 || s.height <= 0 || f.Scene == nil {
		return
	}
	src := &s.sceneRT
	mapped := false
	ping := 0
	for _, p := range f.Passes {
		switch p {
		case scene.PassRender:
			s.renderScene(f)
			src, mapped = &s.sceneRT, false
		case scene.PassBloom:
			s.blurBright(src, f.Bloom)
			dst := &s.post[ping]
			ping ^= 1
			dst.bind()
			s.composite(src.tex, s.bloom[0].tex, f.Bloom.Strength, !mapped, false, f.Exposure)
			src, mapped = dst, true
		case scene.PassInvert:
			dst := &s.post[ping]
			ping ^= 1
			dst.bind()
			s.composite(src.tex, 0, 0, !mapped, true, f.Exposure)
			src, mapped = dst, true
		}
	}
	s.present(src, !mapped, f.Exposure)
	s.presented = true
}

// TakePresented reports whether Draw filled the back buffer since the last
// call, and resets the flag.
func (s *Surface) TakePresented() bool {
	p := s.presented
	s.presented = false
	return p
}

func (s *Surface) renderScene(f *scene.Frame) {
	s.sceneRT.bind()
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	sc := f.Scene
	vp := f.Projection.Mul4(f.View)

	// Back to front: tunnel, stars, streaks, reticle.
	gl.UseProgram(s.gridProg)
	for _, g := range sc.Grids() {
		mvp := vp.Mul4(g.Model())
		gl.UniformMatrix4fv(s.gridMVP, 1, false, &mvp[0])
		gl.Uniform1f(s.gridTime, g.Time)
		gl.Uniform1f(s.gridScr, g.Scroll)
		gl.Uniform1f(s.gridGlow, g.GlowIntensity)
		s.drawMesh(g.Mesh)
	}

	s.drawStars(f, &sc.Stars)

	gl.UseProgram(s.flatProg)
	lines := &sc.SpeedLines
	setColor(s.flatColor, lines.Color)
	for i, l := range lines.Lines {
		mvp := vp.Mul4(lines.Model(i))
		gl.UniformMatrix4fv(s.flatMVP, 1, false, &mvp[0])
		gl.Uniform1f(s.flatOpacity, l.Opacity)
		s.drawMesh(lines.Mesh)
	}
	for _, r := range []*scene.HudRing{&sc.Glow, &sc.Ring} {
		mvp := vp.Mul4(r.Model())
		gl.UniformMatrix4fv(s.flatMVP, 1, false, &mvp[0])
		setColor(s.flatColor, r.Color)
		gl.Uniform1f(s.flatOpacity, r.Opacity)
		s.drawMesh(r.Mesh)
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
}

// drawStars streams the star positions and draws them as point sprites.
func (s *Surface) drawStars(f *scene.Frame, st *scene.StarField) {
	tex, ok := s.textures[st.Texture]
	if !ok || len(st.Points) == 0 {
		return
	}
	s.starBuf = s.starBuf[:0]
	for _, p := range st.Points {
		s.starBuf = append(s.starBuf, p[0], p[1], p[2])
	}

	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.UseProgram(s.starProg)
	gl.BindVertexArray(s.starVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.starVBO)
	gl.UniformMatrix4fv(s.starView, 1, false, &f.View[0])
	gl.UniformMatrix4fv(s.starProj, 1, false, &f.Projection[0])
	gl.Uniform1f(s.starSize, st.Size)
	gl.Uniform1f(s.starScale, float32(s.sceneRT.h)/2)
	setColor(s.starColor, st.Color)
	gl.Uniform1f(s.starAlpha, st.Opacity)
	gl.Uniform1f(s.starTest, st.AlphaTest)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	gl.BufferData(gl.ARRAY_BUFFER, len(s.starBuf)*4, gl.Ptr(s.starBuf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(len(st.Points)))

	gl.BindVertexArray(0)
	gl.Disable(gl.PROGRAM_POINT_SIZE)
}

func (s *Surface) drawMesh(h scene.MeshHandle) {
	m, ok := s.meshes[h]
	if !ok {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElements(m.mode, m.count, gl.UNSIGNED_INT, glOffset(0))
	gl.BindVertexArray(0)
}

// blurBright extracts the bright parts of src into bloom[0] and blurs them
// there, horizontally through bloom[1] and back.
func (s *Surface) blurBright(src *target, b scene.Bloom) {
	gl.Disable(gl.BLEND)
	gl.ActiveTexture(gl.TEXTURE0)

	s.bloom[0].bind()
	gl.UseProgram(s.brightProg)
	gl.Uniform1f(s.brightThresh, b.Threshold)
	gl.BindTexture(gl.TEXTURE_2D, src.tex)
	s.drawQuad()

	gl.UseProgram(s.blurProg)
	gl.Uniform1fv(s.blurWeights, int32(len(s.weights)), &s.weights[0])
	spread := 1 + b.Radius
	dirs := [2]mgl32.Vec2{
		{spread / float32(s.bloom[0].w), 0},
		{0, spread / float32(s.bloom[0].h)},
	}
	for i, d := range dirs {
		from, to := &s.bloom[i], &s.bloom[1-i]
		to.bind()
		gl.Uniform2f(s.blurDir, d[0], d[1])
		gl.BindTexture(gl.TEXTURE_2D, from.tex)
		s.drawQuad()
	}
}

// composite draws the composite program into the bound framebuffer.
func (s *Surface) composite(src, bloom uint32, strength float32, toneMap, invert bool, exposure float32) {
	gl.UseProgram(s.compProg)
	gl.Uniform1f(s.compStrength, 0)
	if bloom != 0 {
		gl.Uniform1f(s.compStrength, strength)
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, bloom)
	}
	gl.Uniform1i(s.compToneMap, boolInt(toneMap))
	gl.Uniform1f(s.compExposure, exposure)
	gl.Uniform1i(s.compInvert, boolInt(invert))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, src)
	s.drawQuad()
}

// present clears the window to the background colour and blends the
// chain's output into the viewport rectangle.
func (s *Surface) present(src *target, toneMap bool, exposure float32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ClearColor(float32(s.clear.R), float32(s.clear.G), float32(s.clear.B), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	r := s.deviceRatio
	x := pixels(s.x, r)
	y := pixels(s.windowH-s.y-s.height, r)
	gl.Viewport(x, y, scaled(s.width, r), scaled(s.height, r))
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	s.composite(src.tex, 0, 0, toneMap, false, exposure)
	gl.Disable(gl.BLEND)
}

func (s *Surface) drawQuad() {
	gl.BindVertexArray(s.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

func setColor(loc int32, c colorful.Color) {
	gl.Uniform3f(loc, float32(c.R), float32(c.G), float32(c.B))
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
