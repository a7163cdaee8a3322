package render

import (
	"image"
	imgcolor "image/color"

	"github.com/df07/specterray/pkg/color"
)

// Framebuffer is the image-output contract of the renderer writes
// each pixel exactly once, to disjoint addresses, so no synchronisation
// is required beyond completion of the worker pool.
type Framebuffer interface {
	SetPixel(x, y int, c color.Color3)
}

// PixelBuffer is the in-memory Framebuffer used by the CLI driver and
// tests: a flat array of linear-sRGB colours plus a tone-mapping
// conversion to an 8-bit image.
type PixelBuffer struct {
	Width, Height int
	pixels        []color.Color3
}

// NewPixelBuffer allocates a width x height buffer initialised to black.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{Width: width, Height: height, pixels: make([]color.Color3, width*height)}
}

// SetPixel stores c at (x, y). Out-of-range coordinates are ignored.
func (b *PixelBuffer) SetPixel(x, y int, c color.Color3) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	b.pixels[y*b.Width+x] = c
}

// At returns the stored colour at (x, y).
func (b *PixelBuffer) At(x, y int) color.Color3 {
	return b.pixels[y*b.Width+x]
}

// ToImage converts the buffer to an 8-bit sRGB image, clamping each
// channel to [0, 1] before gamma encoding.
func (b *PixelBuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.At(x, y).To(color.SRGB)
			img.Set(x, y, imgcolor.RGBA{
				R: toByte(c.C0),
				G: toByte(c.C1),
				B: toByte(c.C2),
				A: 255,
			})
		}
	}
	return img
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
