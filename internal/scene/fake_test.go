package scene

import (
	"errors"
	"image"
	"slices"
)

// fakeSurface records what the controller asks of the GPU.
type fakeSurface struct {
	nextHandle uint32
	meshes     map[MeshHandle]int // handle -> release count
	textures   map[TextureHandle]int
	failAfter  int // fail CreateMesh after this many successes; 0 = never

	resizes   [][4]int
	draws     int
	lastPass  []PassKind
	lastBloom Bloom
	destroyed int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		meshes:   make(map[MeshHandle]int),
		textures: make(map[TextureHandle]int),
	}
}

func (f *fakeSurface) CreateMesh(g *Geometry) (MeshHandle, error) {
	if f.failAfter > 0 && len(f.meshes) >= f.failAfter {
		return 0, errors.New("out of memory")
	}
	f.nextHandle++
	h := MeshHandle(f.nextHandle)
	f.meshes[h] = 0
	return h, nil
}

func (f *fakeSurface) CreateTexture(img *image.RGBA) (TextureHandle, error) {
	f.nextHandle++
	h := TextureHandle(f.nextHandle)
	f.textures[h] = 0
	return h, nil
}

func (f *fakeSurface) ReleaseMesh(h MeshHandle)       { f.meshes[h]++ }
func (f *fakeSurface) ReleaseTexture(h TextureHandle) { f.textures[h]++ }

func (f *fakeSurface) Resize(w, h, bw, bh int) {
	f.resizes = append(f.resizes, [4]int{w, h, bw, bh})
}

func (f *fakeSurface) Draw(fr *Frame) {
	f.draws++
	f.lastPass = slices.Clone(fr.Passes)
	f.lastBloom = fr.Bloom
}

func (f *fakeSurface) Destroy() { f.destroyed++ }

// releasedOnce reports whether every resource was released exactly once.
func (f *fakeSurface) releasedOnce() bool {
	for _, n := range f.meshes {
		if n != 1 {
			return false
		}
	}
	for _, n := range f.textures {
		if n != 1 {
			return false
		}
	}
	return true
}

type fakeViewport struct {
	w, h     int
	surface  *fakeSurface
	attached bool
	err      error
	removed  int
}

func (v *fakeViewport) Size() (int, int) { return v.w, v.h }

func (v *fakeViewport) CreateSurface() (Surface, error) {
	if v.err != nil {
		return nil, v.err
	}
	if v.surface == nil {
		v.surface = newFakeSurface()
	}
	v.attached = true
	return v.surface, nil
}

func (v *fakeViewport) RemoveSurface(s Surface) {
	v.attached = false
	v.removed++
}
