// Command specterray renders a built-in demonstration scene with the
// spectral path tracer and writes the result as a PNG.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/df07/specterray/pkg/bvh"
	"github.com/df07/specterray/pkg/camera"
	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/extrapolator"
	"github.com/df07/specterray/pkg/loaders"
	"github.com/df07/specterray/pkg/mipmap"
	"github.com/df07/specterray/pkg/render"
	"github.com/df07/specterray/pkg/shading"
	"github.com/df07/specterray/pkg/shape"
	"github.com/df07/specterray/pkg/spectrum"
)

type config struct {
	Width      int
	Height     int
	Samples    int
	NumWorkers int
	Seed       int64
	Output     string
	MeshPath   string
}

func parseFlags() config {
	cfg := config{}
	flag.IntVar(&cfg.Width, "width", 800, "Output image width")
	flag.IntVar(&cfg.Height, "height", 600, "Output image height")
	flag.IntVar(&cfg.Samples, "samples", 64, "Samples per pixel")
	flag.IntVar(&cfg.NumWorkers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	flag.Int64Var(&cfg.Seed, "seed", 1, "Base RNG seed")
	flag.StringVar(&cfg.Output, "out", "render.png", "Output PNG path")
	flag.StringVar(&cfg.MeshPath, "mesh", "", "Optional PLY mesh to add to the scene")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	scene, lights, err := buildScene(cfg)
	if err != nil {
		fmt.Printf("Error building scene: %v\n", err)
		os.Exit(1)
	}

	cam, err := camera.New(camera.Config{
		LookFrom: core.NewVec3(0, 1.5, 6),
		LookAt:   core.NewVec3(0, 0.5, 0),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     45,
		Width:    cfg.Width,
		Height:   cfg.Height,
	})
	if err != nil {
		fmt.Printf("Error building camera: %v\n", err)
		os.Exit(1)
	}

	opts := render.DefaultOptions()
	opts.SamplesPerPixel = cfg.Samples
	opts.NumWorkers = cfg.NumWorkers
	opts.Seed = cfg.Seed

	renderer, err := render.New(scene, cam, lights, render.NewCIEIntegrator(32), cfg.Width, cfg.Height, opts)
	if err != nil {
		fmt.Printf("Error building renderer: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %dx%d at %d spp...\n", cfg.Width, cfg.Height, cfg.Samples)
	start := time.Now()
	fb := render.NewPixelBuffer(cfg.Width, cfg.Height)
	renderer.Render(fb)
	fmt.Printf("Render completed in %v\n", time.Since(start))

	if err := savePNG(cfg.Output, fb); err != nil {
		fmt.Printf("Error saving image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", cfg.Output)
}

// buildScene assembles the demonstration scene: a matte ground, a spread
// of materials across spheres, a CSG bite, an emissive sphere with a
// matching area light, and a gradient sky.
func buildScene(cfg config) (*bvh.Scene, shading.LightSampler, error) {
	cache := extrapolator.New()
	cache.Prepare(16)

	gray, err := cache.Reflector(color.NewColor3(0.6, 0.6, 0.6, color.LinearSRGB))
	if err != nil {
		return nil, nil, err
	}
	red, err := cache.Reflector(color.NewColor3(0.65, 0.05, 0.05, color.LinearSRGB))
	if err != nil {
		return nil, nil, err
	}
	gold, err := cache.Reflector(color.NewColor3(0.9, 0.7, 0.3, color.LinearSRGB))
	if err != nil {
		return nil, nil, err
	}

	ground := shape.NewSphere(core.NewVec3(0, -1000, 0), 1000,
		shading.NewMatte(shading.NewImageReflector(checkerTexture(cache)), 0))
	ground.TCMap = shading.UVTexCoordMap{}
	redSphere := shape.NewSphere(core.NewVec3(-2.2, 0.5, 0), 0.5,
		shading.NewMatte(shading.NewConstantReflector(red), 0.3))
	glass := shape.NewSphere(core.NewVec3(-0.9, 0.5, 0.8), 0.5,
		shading.NewGlassMaterial(shading.NewConstantReflector(spectrum.NewConstantReflector(1)), 1.5))
	mirror := shape.NewSphere(core.NewVec3(2.2, 0.5, 0), 0.5,
		shading.NewMirrorMaterial(shading.NewConstantReflector(spectrum.NewConstantReflector(0.95))))
	glossy := shape.NewSphere(core.NewVec3(0.5, 0.5, -1.2), 0.5,
		shading.NewGlossyMaterial(shading.NewConstantReflector(gold), 0.2, 0.05, 1.0, 1.5))

	// A matte sphere with a spherical bite taken out of it.
	bittenBase := shape.NewSphere(core.NewVec3(0.4, 0.35, 1.6), 0.35,
		shading.NewMatte(shading.NewConstantReflector(gray), 0))
	bite := shape.NewSphere(core.NewVec3(0.6, 0.55, 1.85), 0.25, nil)
	bitten := shape.NewCSG(shape.Difference, bittenBase, bite)

	lampSphere := shape.NewSphere(core.NewVec3(0, 3.5, 1), 0.4, nil)
	lampSphere.Emit = shading.NewEmissive(spectrum.NewBlackbody(5500))

	shapes := []shape.Shape{ground, redSphere, glass, mirror, glossy, bitten, lampSphere}

	if cfg.MeshPath != "" {
		mesh, err := loaders.LoadPLY(cfg.MeshPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading mesh: %w", err)
		}
		meshMat := shading.NewMatte(shading.NewConstantReflector(gray), 0)
		_, tris := shape.NewTriangleMesh(mesh.Vertices, mesh.Normals, mesh.UVs, mesh.Faces, meshMat)
		for _, tri := range tris {
			shapes = append(shapes, tri)
		}
		fmt.Printf("Loaded %s: %d vertices, %d triangles\n", cfg.MeshPath, len(mesh.Vertices), len(tris))
	}

	sky := shading.NewGradientInfiniteLight(
		spectrum.NewRGB(0.4, 0.6, 1.0),
		spectrum.NewRGB(0.9, 0.9, 0.9),
		2000)

	scene := bvh.NewScene(shapes, sky)

	lamp := shading.NewDiffuseAreaLight(lampSphere, shape.FaceFront,
		spectrum.NewBlackbody(5500), false)
	lights := shading.NewUniformLightSampler([]shading.Light{lamp, sky})
	return scene, lights, nil
}

// checkerTexture builds a procedural checkerboard reflectance mipmap for
// the ground plane, sharing the scene's colour extrapolator.
func checkerTexture(cache *extrapolator.Cache) *mipmap.ReflectorMipmap {
	const size = 64
	bright := color.NewColor3(0.7, 0.7, 0.7, color.LinearSRGB)
	dark := color.NewColor3(0.25, 0.3, 0.35, color.LinearSRGB)
	texels := make([]color.Color3, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := bright
			if (x/8+y/8)%2 == 1 {
				c = dark
			}
			texels[y*size+x] = c
		}
	}
	opts := mipmap.Options{Filter: mipmap.FilterTrilinear, MaxAnisotropy: 8, Wrap: mipmap.Repeat}
	return mipmap.NewReflectorMipmap(size, size, texels, opts, cache)
}

func savePNG(path string, fb *render.PixelBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, fb.ToImage())
}
