package render

import (
	"testing"

	"github.com/df07/specterray/pkg/bvh"
	"github.com/df07/specterray/pkg/camera"
	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/integrator"
	"github.com/df07/specterray/pkg/shading"
	"github.com/df07/specterray/pkg/shape"
	"github.com/df07/specterray/pkg/spectrum"
)

func testOptions() Options {
	return Options{
		SamplesPerPixel: 1,
		TileSize:        16,
		NumWorkers:      2,
		Seed:            1,
		Tracer: integrator.Config{
			MinBounces:                1,
			MaxBounces:                2,
			MinTerminationProbability: 0,
			RouletteThreshold:         0, // never roulette: keeps the scenarios deterministic
		},
	}
}

func testCamera(t *testing.T, size int) *camera.Camera {
	t.Helper()
	cam, err := camera.New(camera.Config{
		LookFrom: core.NewVec3(0, 0, 4),
		LookAt:   core.NewVec3(0, 0, 0),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     60,
		Width:    size,
		Height:   size,
	})
	if err != nil {
		t.Fatalf("camera.New failed: %v", err)
	}
	return cam
}

// TestRenderRedSphereScene checks that a red Lambertian sphere
// lit by a white point light against a black background. Every pixel that
// hits the sphere has R > 0, G = 0, B = 0; every miss pixel is exactly
// the background colour (black, since there is no environmental light).
func TestRenderRedSphereScene(t *testing.T) {
	const size = 64
	red := shading.NewMatte(shading.NewConstantReflector(spectrum.NewRGBReflector(1, 0, 0)), 0)
	sphere := shape.NewSphere(core.NewVec3(0, 0, 0), 1, red)
	scene := bvh.NewScene([]shape.Shape{sphere}, nil)

	light := shading.NewPointLight(core.NewVec3(0, 5, 5), spectrum.NewRGB(50, 50, 50))
	lights := shading.NewUniformLightSampler([]shading.Light{light})

	r, err := New(scene, testCamera(t, size), lights, RGBIntegrator{}, size, size, testOptions())
	if err != nil {
		t.Fatalf("render.New failed: %v", err)
	}
	fb := NewPixelBuffer(size, size)
	r.Render(fb)

	hitPixels := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := fb.At(x, y)
			if c.C1 != 0 || c.C2 != 0 {
				t.Fatalf("pixel (%d,%d): red sphere scene leaked green/blue: %+v", x, y, c)
			}
			if c.C0 > 0 {
				hitPixels++
			}
		}
	}
	if hitPixels == 0 {
		t.Fatal("expected some pixels to hit the lit red sphere")
	}

	// Corner pixels look well past the unit sphere: exactly background.
	for _, p := range [][2]int{{0, 0}, {size - 1, 0}, {0, size - 1}, {size - 1, size - 1}} {
		c := fb.At(p[0], p[1])
		if !c.IsBlack() {
			t.Fatalf("miss pixel (%d,%d) should be exactly the black background, got %+v", p[0], p[1], c)
		}
	}
}

// TestRenderMirrorReflectsRedSphere checks that a mirror sphere
// beside a red Lambertian sphere. Where bounced rays connect the two, the
// mirror shows a red reflection; nowhere does any green or blue appear.
func TestRenderMirrorReflectsRedSphere(t *testing.T) {
	const size = 64
	red := shading.NewMatte(shading.NewConstantReflector(spectrum.NewRGBReflector(1, 0, 0)), 0)
	mirror := shading.NewMirrorMaterial(shading.NewConstantReflector(spectrum.NewConstantReflector(0.9)))

	redSphere := shape.NewSphere(core.NewVec3(-1, 0, -1), 1, red)
	mirrorSphere := shape.NewSphere(core.NewVec3(1, 0, -1), 1, mirror)
	scene := bvh.NewScene([]shape.Shape{redSphere, mirrorSphere}, nil)

	light := shading.NewPointLight(core.NewVec3(0, 5, 0), spectrum.NewRGB(80, 80, 80))
	lights := shading.NewUniformLightSampler([]shading.Light{light})

	r, err := New(scene, testCamera(t, size), lights, RGBIntegrator{}, size, size, testOptions())
	if err != nil {
		t.Fatalf("render.New failed: %v", err)
	}
	fb := NewPixelBuffer(size, size)
	r.Render(fb)

	reflectionPixels := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := fb.At(x, y)
			if c.C1 != 0 || c.C2 != 0 {
				t.Fatalf("pixel (%d,%d): scene has only red reflectance, got %+v", x, y, c)
			}
			// The mirror sphere occupies the right side of the frame; red
			// there can only have arrived via the specular bounce.
			if x > size/2+1 && c.C0 > 0 {
				reflectionPixels++
			}
		}
	}
	if reflectionPixels == 0 {
		t.Fatal("expected the mirror sphere to show a red reflection of its neighbour")
	}
}

// TestCIEIntegratorUnitSpectrum checks the CIE reduction is normalised:
// a constant unit spectrum lands near Y = 1 with near-neutral chroma.
func TestCIEIntegratorUnitSpectrum(t *testing.T) {
	ci := NewCIEIntegrator(64)
	c := ci.ToColor(spectrum.NewConstant(1))
	if c.Space != color.XYZ {
		t.Fatalf("expected XYZ result, got space %v", c.Space)
	}
	if c.C1 < 0.99 || c.C1 > 1.01 {
		t.Fatalf("unit spectrum should integrate to Y ~= 1, got %v", c.C1)
	}
	if c.C0 <= 0 || c.C2 <= 0 {
		t.Fatalf("unit spectrum should excite all three channels, got %+v", c)
	}
	if ci.ToColor(nil).IsBlack() != true {
		t.Fatal("null spectrum must integrate to black")
	}
}

// TestPixelBufferToImage checks tone mapping clamps and gamma-encodes.
func TestPixelBufferToImage(t *testing.T) {
	fb := NewPixelBuffer(2, 1)
	fb.SetPixel(0, 0, color.NewColor3(10, 0.5, 0, color.LinearSRGB))
	img := fb.ToImage()
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 255 {
		t.Fatalf("overbright channel should clamp to 255, got %d", r>>8)
	}
	if g>>8 <= 128 {
		t.Fatalf("0.5 linear should gamma-encode above mid-grey, got %d", g>>8)
	}
	if b != 0 {
		t.Fatalf("zero channel should stay zero, got %d", b>>8)
	}
}
