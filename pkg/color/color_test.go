package color

import (
	"math"
	"testing"
)

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewColor3SanitizesInvalidComponents(t *testing.T) {
	c := NewColor3(math.NaN(), -0.5, math.Inf(1), LinearSRGB)
	if c.C0 != 0 || c.C1 != 0 || c.C2 != 0 {
		t.Fatalf("NaN/negative/infinite components must sanitize to zero, got %+v", c)
	}
	if !c.IsBlack() {
		t.Fatal("a fully sanitized colour is black")
	}
}

func TestSRGBLinearRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.002, 0.04045, 0.1, 0.5, 0.73, 1} {
		c := NewColor3(v, v, v, SRGB)
		back := c.To(LinearSRGB).To(SRGB)
		if !closeTo(back.C0, v, 1e-12) {
			t.Fatalf("sRGB %v round-tripped to %v", v, back.C0)
		}
	}
}

func TestXYZRoundTrip(t *testing.T) {
	c := NewColor3(0.2, 0.55, 0.81, LinearSRGB)
	back := c.To(XYZ).To(LinearSRGB)
	if !closeTo(back.C0, c.C0, 1e-6) || !closeTo(back.C1, c.C1, 1e-6) || !closeTo(back.C2, c.C2, 1e-6) {
		t.Fatalf("linear-sRGB %+v round-tripped through XYZ to %+v", c, back)
	}
}

func TestWhitePointMapsToD65(t *testing.T) {
	white := NewColor3(1, 1, 1, LinearSRGB).To(XYZ)
	// D65 white: X ~0.9505, Y = 1, Z ~1.089
	if !closeTo(white.C1, 1, 1e-6) {
		t.Fatalf("linear white must have Y = 1, got %v", white.C1)
	}
	if !closeTo(white.C0, 0.9505, 1e-3) || !closeTo(white.C2, 1.089, 1e-2) {
		t.Fatalf("linear white should map to D65, got %+v", white)
	}
}

func TestLumaUsesRec709Weights(t *testing.T) {
	if !closeTo(NewColor3(1, 0, 0, LinearSRGB).Luma(), 0.2126, 1e-9) {
		t.Fatal("red luma must be the Rec.709 red weight")
	}
	if !closeTo(NewColor3(0, 1, 0, LinearSRGB).Luma(), 0.7152, 1e-9) {
		t.Fatal("green luma must be the Rec.709 green weight")
	}
	if !closeTo(NewColor3(1, 1, 1, LinearSRGB).Luma(), 1, 1e-9) {
		t.Fatal("white luma must be 1")
	}
}

func TestAddConvertsToReceiverSpace(t *testing.T) {
	a := NewColor3(0.25, 0.25, 0.25, LinearSRGB)
	b := NewColor3(0.5, 0.5, 0.5, SRGB) // ~0.214 linear
	sum := a.Add(b)
	if sum.Space != LinearSRGB {
		t.Fatalf("sum must stay in the receiver's space, got %v", sum.Space)
	}
	if !closeTo(sum.C0, 0.25+0.2140, 1e-3) {
		t.Fatalf("sum should add the sRGB operand's linear form, got %v", sum.C0)
	}
}

func TestConversionIsPure(t *testing.T) {
	c := NewColor3(0.3, 0.6, 0.9, SRGB)
	first := c.To(XYZ)
	second := c.To(XYZ)
	if first != second {
		t.Fatal("conversion must be a pure function of the value and space tag")
	}
	if c.Space != SRGB {
		t.Fatal("conversion must not mutate its receiver")
	}
}
