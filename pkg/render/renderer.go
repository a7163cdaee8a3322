// Package render drives the transport kernel over a framebuffer: a
// tile-parallel worker pool with per-worker preallocated state (one RNG,
// one compositor pair, one BSDF allocator, one hit tester, one path
// tracer per worker, reset per camera ray, never shared).
package render

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/df07/specterray/pkg/bvh"
	"github.com/df07/specterray/pkg/camera"
	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/integrator"
	"github.com/df07/specterray/pkg/shading"
	"github.com/df07/specterray/pkg/spectrum"
)

// Visibility implements shading.VisibilityTester against a scene with a
// worker-private hit tester, so shadow rays never contend with the
// worker's primary-ray tester.
type Visibility struct {
	Scene  *bvh.Scene
	tester *bvh.HitTester
}

// NewVisibility creates a visibility tester for scene.
func NewVisibility(scene *bvh.Scene) *Visibility {
	return &Visibility{Scene: scene, tester: bvh.NewHitTester()}
}

// Unoccluded reports whether the open segment between from and to is free
// of scene geometry, with a small slack at the far end to avoid
// re-intersecting the light's own surface.
func (v *Visibility) Unoccluded(from, to core.Vec3) bool {
	toOther := to.Subtract(from)
	dist := toOther.Length()
	if dist == 0 {
		return true
	}
	ray := core.NewRay(from, toOther.Multiply(1/dist))
	v.tester.Reset()
	hit := v.Scene.Trace(ray, v.tester)
	return hit == nil || hit.Distance > dist-1e-3
}

// Options configures a render.
type Options struct {
	SamplesPerPixel int
	TileSize        int
	NumWorkers      int // 0 = runtime.NumCPU()
	Seed            int64
	Tracer          integrator.Config
}

// DefaultOptions returns a small but complete configuration.
func DefaultOptions() Options {
	return Options{
		SamplesPerPixel: 16,
		TileSize:        32,
		NumWorkers:      0,
		Seed:            1,
		Tracer: integrator.Config{
			MinBounces:                3,
			MaxBounces:                8,
			MinTerminationProbability: 0.05,
			RouletteThreshold:         0.1,
		},
	}
}

// Renderer owns everything shared read-only across workers: the scene,
// the camera, the light sampler and the colour integrator.
type Renderer struct {
	scene        *bvh.Scene
	camera       *camera.Camera
	lightSampler shading.LightSampler
	colors       ColorIntegrator
	opts         Options
	width        int
	height       int
}

// New validates opts and builds a Renderer.
func New(scene *bvh.Scene, cam *camera.Camera, lights shading.LightSampler, colors ColorIntegrator, width, height int, opts Options) (*Renderer, error) {
	if scene == nil || cam == nil || colors == nil {
		return nil, fmt.Errorf("render: scene, camera and color integrator are required")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: dimensions %dx%d must be positive", width, height)
	}
	if opts.SamplesPerPixel <= 0 {
		return nil, fmt.Errorf("render: samples per pixel must be positive, got %d", opts.SamplesPerPixel)
	}
	if opts.TileSize <= 0 {
		opts.TileSize = 32
	}
	if err := opts.Tracer.Validate(); err != nil {
		return nil, err
	}
	if lights == nil {
		lights = shading.NewUniformLightSampler(nil)
	}
	return &Renderer{
		scene:        scene,
		camera:       cam,
		lightSampler: lights,
		colors:       colors,
		opts:         opts,
		width:        width,
		height:       height,
	}, nil
}

// workerState is the per-worker preallocated bundle. Everything here
// is owned by exactly one goroutine for the lifetime of the render.
type workerState struct {
	rng       *core.RNG
	tracer    *integrator.PathTracer
	tester    *bvh.HitTester
	vis       *Visibility
	sc        *spectrum.SpectrumCompositor
	rc        *spectrum.ReflectorCompositor
	bsdfAlloc shading.BsdfAllocator
	texAlloc  shading.TextureCoordinateAllocator
}

func (r *Renderer) newWorkerState(seed int64) (*workerState, error) {
	pt, err := integrator.New(r.opts.Tracer)
	if err != nil {
		return nil, err
	}
	return &workerState{
		rng:    core.NewRNG(seed),
		tracer: pt,
		tester: bvh.NewHitTester(),
		vis:    NewVisibility(r.scene),
		sc:     spectrum.NewSpectrumCompositor(256),
		rc:     spectrum.NewReflectorCompositor(256),
	}, nil
}

// renderPixel traces all samples for one pixel and writes the average.
// Compositors and allocators reset once per camera ray.
func (r *Renderer) renderPixel(ws *workerState, x, y int, fb Framebuffer) {
	accum := color.NewColor3(0, 0, 0, color.LinearSRGB)
	for s := 0; s < r.opts.SamplesPerPixel; s++ {
		ws.sc.Reset()
		ws.rc.Reset()
		ws.bsdfAlloc.Reset()
		ws.texAlloc.Reset()

		u, v := 0.5, 0.5
		if r.opts.SamplesPerPixel > 1 {
			u, v = ws.rng.NextFloat(0, 1), ws.rng.NextFloat(0, 1)
		}
		ray := r.camera.GetRay(x, y, u, v)
		radiance := ws.tracer.Li(r.scene, ws.tester, r.lightSampler, ws.vis, ws.rng,
			ws.sc, ws.rc, &ws.bsdfAlloc, &ws.texAlloc, ray)
		accum = accum.Add(r.colors.ToColor(radiance))
	}
	fb.SetPixel(x, y, accum.Scale(1/float64(r.opts.SamplesPerPixel)))
}

// Render traces every pixel into fb, tile-parallel. It blocks until the
// whole frame is done; per-pixel work is atomic once begun, so there is
// no mid-pixel interruption path.
func (r *Renderer) Render(fb Framebuffer) {
	numWorkers := r.opts.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	tiles := make(chan image.Rectangle, numWorkers*4)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		ws, err := r.newWorkerState(r.opts.Seed + int64(w))
		if err != nil {
			// Options were validated in New; a failure here means the
			// tracer config was mutated after construction.
			panic(err)
		}
		wg.Add(1)
		go func(ws *workerState) {
			defer wg.Done()
			for tile := range tiles {
				for y := tile.Min.Y; y < tile.Max.Y; y++ {
					for x := tile.Min.X; x < tile.Max.X; x++ {
						r.renderPixel(ws, x, y, fb)
					}
				}
			}
		}(ws)
	}

	ts := r.opts.TileSize
	for y := 0; y < r.height; y += ts {
		for x := 0; x < r.width; x += ts {
			tiles <- image.Rect(x, y, min(x+ts, r.width), min(y+ts, r.height))
		}
	}
	close(tiles)
	wg.Wait()
}
