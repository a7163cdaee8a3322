package camera

import (
	"math"
	"testing"

	"github.com/df07/specterray/pkg/core"
)

func testConfig() Config {
	return Config{
		LookFrom: core.NewVec3(0, 0, 4),
		LookAt:   core.NewVec3(0, 0, 0),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     45,
		Width:    100,
		Height:   100,
	}
}

func TestCenterRayPointsAtLookAt(t *testing.T) {
	cam, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ray := cam.GetRay(50, 50, 0, 0)
	want := core.NewVec3(0, 0, -1)
	if math.Abs(ray.Direction.X-want.X) > 0.02 ||
		math.Abs(ray.Direction.Y-want.Y) > 0.02 ||
		math.Abs(ray.Direction.Z-want.Z) > 0.02 {
		t.Fatalf("center ray direction %v should point toward look-at, want ~%v", ray.Direction, want)
	}
}

func TestRayDifferentialsSpanOnePixel(t *testing.T) {
	cam, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ray := cam.GetRay(50, 50, 0.5, 0.5)
	if !ray.HasDifferentials {
		t.Fatal("camera rays must carry differentials for mipmap filtering")
	}

	// The offset rays must differ from the primary, and the x offset must
	// move horizontally while the y offset moves vertically.
	dx := ray.RxDirection.Subtract(ray.Direction)
	dy := ray.RyDirection.Subtract(ray.Direction)
	if dx.Length() == 0 || dy.Length() == 0 {
		t.Fatal("differential rays must be offset from the primary ray")
	}
	if math.Abs(dx.X) <= math.Abs(dx.Y) {
		t.Fatalf("x-differential %v should be dominated by horizontal motion", dx)
	}
	if math.Abs(dy.Y) <= math.Abs(dy.X) {
		t.Fatalf("y-differential %v should be dominated by vertical motion", dy)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := []Config{
		{LookFrom: core.NewVec3(0, 0, 4), Up: core.NewVec3(0, 1, 0), VFov: 45, Width: 0, Height: 100},
		{LookFrom: core.NewVec3(0, 0, 4), Up: core.NewVec3(0, 1, 0), VFov: 0, Width: 100, Height: 100},
		{LookFrom: core.NewVec3(0, 0, 0), LookAt: core.NewVec3(0, 0, 0), Up: core.NewVec3(0, 1, 0), VFov: 45, Width: 100, Height: 100},
		{LookFrom: core.NewVec3(0, 0, 4), LookAt: core.NewVec3(0, 0, 0), Up: core.NewVec3(0, 0, 1), VFov: 45, Width: 100, Height: 100},
	}
	for i, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Errorf("case %d: expected construction failure for %+v", i, cfg)
		}
	}
}
