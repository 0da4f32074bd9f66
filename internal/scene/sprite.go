package scene

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/vector"
)

// StarSprite rasterizes the soft round point-sprite used by the starfield:
// an opaque white disc of the given radius, centred in a size x size image,
// surrounded by a halo that fades out over blur pixels.
func StarSprite(size int, radius, blur float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float32(size) / 2

	rings := int(math32.Ceil(blur))
	for i := rings; i >= 1; i-- {
		t := float32(i) / float32(rings+1)
		a := uint8(255 * (1 - t) * 0.5)
		fillCircle(img, c, c, radius+blur*float32(i)/float32(rings), color.NRGBA{R: 255, G: 255, B: 255, A: a})
	}
	fillCircle(img, c, c, radius, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func fillCircle(dst *image.RGBA, cx, cy, r float32, col color.NRGBA) {
	const steps = 32
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(cx+r, cy)
	for i := 1; i < steps; i++ {
		theta := float32(i) / steps * 2 * math32.Pi
		z.LineTo(cx+r*math32.Cos(theta), cy+r*math32.Sin(theta))
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}
