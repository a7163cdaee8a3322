package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/df07/specterray/pkg/color"
)

// ImageData is the image-input contract of decoded dimensions plus the
// texels as sRGB-tagged Color3 values, ready to feed a mipmap build (the
// mipmap converts each texel into the working colour space exactly once
// at ingestion).
type ImageData struct {
	Width  int
	Height int
	Pixels []color.Color3
}

// LoadImage decodes a PNG or JPEG image into an ImageData.
func LoadImage(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return imageToData(img), nil
}

// LoadImagePowerOfTwo decodes an image and, if either dimension is not a
// power of two, resamples it up to the next power-of-two size so it
// satisfies the mipmap builder's base-image requirement. The
// resample uses a Catmull-Rom kernel, the conventional choice for
// upscaling texture content.
func LoadImagePowerOfTwo(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := nextPowerOfTwo(bounds.Dx()), nextPowerOfTwo(bounds.Dy())
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA64(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		img = dst
	}
	return imageToData(img), nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func imageToData(img image.Image) *ImageData {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]color.Color3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]
			pixels[y*width+x] = color.NewColor3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
				color.SRGB,
			)
		}
	}

	return &ImageData{Width: width, Height: height, Pixels: pixels}
}
