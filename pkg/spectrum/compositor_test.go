package spectrum

import "testing"

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < tolerance
}

func TestCompositorLinearity(t *testing.T) {
	c := NewSpectrumCompositor(16)
	a := NewConstant(2)
	b := NewConstant(3)
	k := 4.0

	sum := c.Add(a, b)
	result := c.Attenuate(sum, k)

	for _, lambda := range []float64{400, 550, 700} {
		want := k * (Sample(a, lambda) + Sample(b, lambda))
		got := Sample(result, lambda)
		if !approxEqual(got, want) {
			t.Fatalf("attenuate(add(a,b),k).Sample(%v) = %v, want %v", lambda, got, want)
		}
	}
}

func TestCompositorIdentities(t *testing.T) {
	c := NewSpectrumCompositor(16)
	x := NewConstant(5)

	if got := c.Add(nil, x); got != x {
		t.Fatalf("add(null, x) != x")
	}
	if got := c.Attenuate(x, 0); got != nil {
		t.Fatalf("attenuate(x, 0) != null, got %v", got)
	}
	if got := c.Attenuate(x, 1); got != x {
		t.Fatalf("attenuate(x, 1) != x")
	}
}

func TestCompositorDeduplication(t *testing.T) {
	c := NewSpectrumCompositor(16)
	a := NewConstant(1)
	b := NewConstant(2)

	s1 := c.Add(a, b)
	s2 := c.Add(a, b)
	if s1 != s2 {
		t.Fatalf("expected identical operands to dedup to the same node")
	}
}

func TestCompositorResetInvalidation(t *testing.T) {
	c := NewSpectrumCompositor(16)
	a := NewConstant(1)
	b := NewConstant(2)

	s := c.Add(a, b)
	wantVal := Sample(s, 550)

	c.Reset()
	sNew := c.Add(a, b)

	if !approxEqual(Sample(sNew, 550), wantVal) {
		t.Fatalf("semantic value changed across reset: got %v want %v", Sample(sNew, 550), wantVal)
	}
}

func TestSpectrumNonNegativity(t *testing.T) {
	specs := []Spectrum{
		NewConstant(3),
		NewRGB(0.2, 0.5, 0.9),
		NewXYZ(0.3, 0.4, 0.5),
		NewBlackbody(5800),
		NewInterpolated([]float64{400, 500, 600}, []float64{1, -2, 3}),
	}
	for _, s := range specs {
		for lambda := 380.0; lambda <= 750; lambda += 10 {
			v := Sample(s, lambda)
			if v < 0 {
				t.Fatalf("spectrum sampled negative at %v: %v", lambda, v)
			}
		}
	}
}

func TestReflectorBound(t *testing.T) {
	refs := []Reflector{
		NewConstantReflector(0.8),
		NewRGBReflector(0.9, 1.2, -0.3),
		NewInterpolatedReflector([]float64{400, 500, 600}, []float64{0.1, 1.5, 0.3}),
	}
	for _, r := range refs {
		if AlbedoOf(r) > 1+1e-9 {
			t.Fatalf("albedo exceeds 1: %v", AlbedoOf(r))
		}
		for lambda := 380.0; lambda <= 750; lambda += 10 {
			v := SampleReflector(r, lambda)
			if v < 0 || v > 1+1e-9 {
				t.Fatalf("reflector sample out of [0,1] at %v: %v", lambda, v)
			}
		}
	}
}
