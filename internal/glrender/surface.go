// Package glrender draws the hero scene with OpenGL 4.1: meshes and the
// star sprite are uploaded once, the scene renders into an HDR target, and
// the pass chain (bloom at half resolution, invert) runs through
// offscreen buffers before the tone-mapped result is blended over the
// window background at the viewport's place.
//
// All methods must be called on the thread that owns the GL context.
package glrender

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"unsafe"

	"heroscene/internal/scene"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/lucasb-eyer/go-colorful"
)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

const (
	meshStride = 5 * 4 // xyz uv
	blurTaps   = 5
	blurSigma  = 2.0
)

type mesh struct {
	vao, vbo, ebo uint32
	count         int32
	mode          uint32
}

// Surface implements scene.Surface on the current GL context.
type Surface struct {
	log *slog.Logger

	gridProg uint32
	gridMVP  int32
	gridTime int32
	gridScr  int32
	gridGlow int32

	flatProg    uint32
	flatMVP     int32
	flatColor   int32
	flatOpacity int32

	starProg   uint32
	starView   int32
	starProj   int32
	starSize   int32
	starScale  int32
	starColor  int32
	starAlpha  int32
	starTest   int32
	starSprite int32
	starVAO    uint32
	starVBO    uint32
	starBuf    []float32

	brightProg   uint32
	brightThresh int32
	blurProg     uint32
	blurDir      int32
	blurWeights  int32

	compProg     uint32
	compBloom    int32
	compStrength int32
	compToneMap  int32
	compExposure int32
	compInvert   int32

	quadVAO uint32
	quadVBO uint32

	meshes   map[scene.MeshHandle]mesh
	textures map[scene.TextureHandle]uint32

	sceneRT target
	post    [2]target
	bloom   [2]target

	// Logical placement inside the window, y down from the top edge.
	x, y, windowH  int
	width, height  int
	bloomW, bloomH int

	deviceRatio float32
	maxRatio    float32
	clear       colorful.Color
	weights     []float32

	// presented is set by Draw once the back buffer holds a frame.
	presented bool
}

// NewSurface links every program and allocates the shared quad and star
// buffers. maxRatio caps the pixel ratio used for offscreen buffers.
func NewSurface(log *slog.Logger, maxRatio float32) (*Surface, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Surface{
		log:         log,
		meshes:      make(map[scene.MeshHandle]mesh),
		textures:    make(map[scene.TextureHandle]uint32),
		sceneRT:     target{hdr: true, withDepth: true},
		bloom:       [2]target{{hdr: true}, {hdr: true}},
		deviceRatio: 1,
		maxRatio:    maxRatio,
		weights:     blurWeights(blurTaps, blurSigma),
	}
	if err := s.linkPrograms(); err != nil {
		s.Destroy()
		return nil, err
	}

	// Fullscreen quad: a unit quad (6 vertices, 2 triangles).
	gl.GenVertexArrays(1, &s.quadVAO)
	gl.GenBuffers(1, &s.quadVBO)
	gl.BindVertexArray(s.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.quadVBO)
	quadVerts := [12]float32{
		0, 0, 1, 0, 1, 1,
		0, 0, 1, 1, 0, 1,
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVerts)*4, gl.Ptr(&quadVerts[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, glOffset(0))

	// Star buffer: streamed every frame, xyz per star.
	gl.GenVertexArrays(1, &s.starVAO)
	gl.GenBuffers(1, &s.starVBO)
	gl.BindVertexArray(s.starVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.starVBO)
	gl.BufferData(gl.ARRAY_BUFFER, scene.StarCount*3*4, nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, glOffset(0))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return s, nil
}

func (s *Surface) linkPrograms() error {
	var err error
	if s.gridProg, err = linkProgram("grid", meshVertSrc, gridFragSrc); err != nil {
		return err
	}
	if s.flatProg, err = linkProgram("flat", meshVertSrc, flatFragSrc); err != nil {
		return err
	}
	if s.starProg, err = linkProgram("star", starVertSrc, starFragSrc); err != nil {
		return err
	}
	if s.brightProg, err = linkProgram("bright", quadVertSrc, brightFragSrc); err != nil {
		return err
	}
	if s.blurProg, err = linkProgram("blur", quadVertSrc, blurFragSrc); err != nil {
		return err
	}
	if s.compProg, err = linkProgram("composite", quadVertSrc, compositeFragSrc); err != nil {
		return err
	}

	s.gridMVP = uniform(s.gridProg, "uMVP")
	s.gridTime = uniform(s.gridProg, "uTime")
	s.gridScr = uniform(s.gridProg, "uScroll")
	s.gridGlow = uniform(s.gridProg, "uGlow")

	s.flatMVP = uniform(s.flatProg, "uMVP")
	s.flatColor = uniform(s.flatProg, "uColor")
	s.flatOpacity = uniform(s.flatProg, "uOpacity")

	s.starView = uniform(s.starProg, "uView")
	s.starProj = uniform(s.starProg, "uProj")
	s.starSize = uniform(s.starProg, "uSize")
	s.starScale = uniform(s.starProg, "uScale")
	s.starColor = uniform(s.starProg, "uColor")
	s.starAlpha = uniform(s.starProg, "uOpacity")
	s.starTest = uniform(s.starProg, "uAlphaTest")
	s.starSprite = uniform(s.starProg, "uSprite")
	gl.UseProgram(s.starProg)
	gl.Uniform1i(s.starSprite, 0)

	s.brightThresh = uniform(s.brightProg, "uThreshold")
	gl.UseProgram(s.brightProg)
	gl.Uniform1i(uniform(s.brightProg, "uSrc"), 0)

	s.blurDir = uniform(s.blurProg, "uDir")
	s.blurWeights = uniform(s.blurProg, "uWeights")
	gl.UseProgram(s.blurProg)
	gl.Uniform1i(uniform(s.blurProg, "uSrc"), 0)

	s.compBloom = uniform(s.compProg, "uBloom")
	s.compStrength = uniform(s.compProg, "uBloomStrength")
	s.compToneMap = uniform(s.compProg, "uToneMap")
	s.compExposure = uniform(s.compProg, "uExposure")
	s.compInvert = uniform(s.compProg, "uInvert")
	gl.UseProgram(s.compProg)
	gl.Uniform1i(uniform(s.compProg, "uSrc"), 0)
	gl.Uniform1i(s.compBloom, 1)

	gl.UseProgram(0)
	return nil
}

// CreateMesh uploads interleaved positions and uvs plus the index buffer.
func (s *Surface) CreateMesh(g *scene.Geometry) (scene.MeshHandle, error) {
	n := g.VertexCount()
	if n == 0 || len(g.Indices) == 0 {
		return 0, errors.New("empty geometry")
	}
	buf := make([]float32, 0, n*5)
	for i := 0; i < n; i++ {
		buf = append(buf, g.Positions[i*3], g.Positions[i*3+1], g.Positions[i*3+2])
		if len(g.UVs) >= (i+1)*2 {
			buf = append(buf, g.UVs[i*2], g.UVs[i*2+1])
		} else {
			buf = append(buf, 0, 0)
		}
	}

	var m mesh
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)
	gl.BindVertexArray(m.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(buf)*4, gl.Ptr(buf), gl.STATIC_DRAW)
	// aPos (vec3)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, meshStride, glOffset(0))
	// aUV (vec2)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, meshStride, glOffset(3*4))

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, gl.Ptr(g.Indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)

	m.count = int32(len(g.Indices))
	m.mode = gl.TRIANGLES
	if g.Primitive == scene.Points {
		m.mode = gl.POINTS
	}
	if err := glError("create mesh"); err != nil {
		s.deleteMesh(m)
		return 0, err
	}
	h := scene.MeshHandle(m.vao)
	s.meshes[h] = m
	return h, nil
}

// CreateTexture uploads an RGBA image with linear filtering.
func (s *Surface) CreateTexture(img *image.RGBA) (scene.TextureHandle, error) {
	b := img.Bounds()
	if b.Empty() {
		return 0, errors.New("empty texture")
	}
	if img.Stride != b.Dx()*4 {
		img = repack(img)
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := glError("create texture"); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}
	h := scene.TextureHandle(tex)
	s.textures[h] = tex
	return h, nil
}

func repack(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()*4])
	}
	return out
}

func (s *Surface) ReleaseMesh(h scene.MeshHandle) {
	m, ok := s.meshes[h]
	if !ok {
		return
	}
	delete(s.meshes, h)
	s.deleteMesh(m)
}

func (s *Surface) deleteMesh(m mesh) {
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
}

func (s *Surface) ReleaseTexture(h scene.TextureHandle) {
	tex, ok := s.textures[h]
	if !ok {
		return
	}
	delete(s.textures, h)
	gl.DeleteTextures(1, &tex)
}

// Resize reallocates the offscreen buffers for a logical size. The bloom
// buffers use the separate, smaller size.
func (s *Surface) Resize(width, height, bloomWidth, bloomHeight int) {
	s.width, s.height = width, height
	s.bloomW, s.bloomH = bloomWidth, bloomHeight
	s.allocate()
}

func (s *Surface) allocate() {
	if s.width <= 0 || s.height <= 0 {
		return
	}
	r := renderRatio(s.deviceRatio, s.maxRatio)
	w, h := scaled(s.width, r), scaled(s.height, r)
	bw, bh := scaled(s.bloomW, r), scaled(s.bloomH, r)
	errs := []error{s.sceneRT.resize(w, h)}
	for i := range s.post {
		errs = append(errs, s.post[i].resize(w, h))
	}
	for i := range s.bloom {
		errs = append(errs, s.bloom[i].resize(bw, bh))
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Error("render targets", "err", err)
	}
}

// Place moves the output rectangle. x and y are the viewport's top-left
// corner in window coordinates; windowHeight flips them into GL's
// bottom-left origin.
func (s *Surface) Place(x, y, windowHeight int) {
	s.x, s.y, s.windowH = x, y, windowHeight
}

// SetPixelRatio records the framebuffer-to-window ratio of the display.
func (s *Surface) SetPixelRatio(ratio float32) {
	if ratio <= 0 || ratio == s.deviceRatio {
		return
	}
	s.deviceRatio = ratio
	s.allocate()
}

// SetClearColor sets the page background shown around and behind the scene.
func (s *Surface) SetClearColor(c colorful.Color) {
	s.clear = c
}

// Destroy deletes every GL object the surface created. Safe to call twice.
func (s *Surface) Destroy() {
	for h, m := range s.meshes {
		s.deleteMesh(m)
		delete(s.meshes, h)
	}
	for h, tex := range s.textures {
		gl.DeleteTextures(1, &tex)
		delete(s.textures, h)
	}
	s.sceneRT.destroy()
	for i := range s.post {
		s.post[i].destroy()
	}
	for i := range s.bloom {
		s.bloom[i].destroy()
	}
	for _, id := range []*uint32{&s.quadVBO, &s.starVBO} {
		if *id != 0 {
			gl.DeleteBuffers(1, id)
			*id = 0
		}
	}
	for _, id := range []*uint32{&s.quadVAO, &s.starVAO} {
		if *id != 0 {
			gl.DeleteVertexArrays(1, id)
			*id = 0
		}
	}
	for _, id := range []*uint32{&s.gridProg, &s.flatProg, &s.starProg, &s.brightProg, &s.blurProg, &s.compProg} {
		if *id != 0 {
			gl.DeleteProgram(*id)
			*id = 0
		}
	}
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", op, code)
	}
	return nil
}
