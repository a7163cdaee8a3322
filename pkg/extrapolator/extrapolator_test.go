package extrapolator

import (
	"testing"

	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/spectrum"
)

func TestBlackColorShortcut(t *testing.T) {
	c := New()
	black := color.NewColor3(0, 0, 0, color.LinearSRGB)

	s, err := c.Spectrum(black)
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Fatalf("expected nil spectrum for black colour")
	}
	if c.spectra.count != 0 {
		t.Fatalf("expected no cache entry for black colour, got %d", c.spectra.count)
	}
}

func TestCacheHitReturnsSameValue(t *testing.T) {
	c := New()
	red := color.NewColor3(0.8, 0.1, 0.1, color.LinearSRGB)

	s1, err := c.Spectrum(red)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := c.Spectrum(red)
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatalf("expected cached spectrum identity to be stable across calls")
	}
}

func TestSynthesizedSpectrumNonNegative(t *testing.T) {
	c := New()
	col := color.NewColor3(0.2, 0.9, 0.4, color.LinearSRGB)
	s, err := c.Spectrum(col)
	if err != nil {
		t.Fatal(err)
	}
	for lambda := 380.0; lambda <= 720; lambda += 13 {
		if v := spectrum.Sample(s, lambda); v < 0 {
			t.Fatalf("negative sample at %v: %v", lambda, v)
		}
	}
}

func TestPrepareGrowsWithoutLosingEntries(t *testing.T) {
	c := New()
	c.Prepare(100)
	for i := 0; i < 50; i++ {
		col := color.NewColor3(float64(i)/50.0, 0.3, 0.5, color.LinearSRGB)
		if _, err := c.Spectrum(col); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 50; i++ {
		col := color.NewColor3(float64(i)/50.0, 0.3, 0.5, color.LinearSRGB)
		if _, ok := c.spectra.get(col); !ok {
			t.Fatalf("missing entry %d after growth", i)
		}
	}
}
