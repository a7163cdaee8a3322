package spectrum

import "math"

// SpectrumCompositor is the scoped arena + content-addressed factory of
// every derived Spectrum it returns shares its lifetime, and
// repeated calls with identical operands (by identity, not value) return
// the same node instead of allocating a new one. Single-owner, no locks
//: exactly one worker goroutine uses a given compositor.
type SpectrumCompositor struct {
	pool  []any // retained so this arena is the thing keeping nodes alive until Reset
	cache map[specKey]Spectrum
}

// NewSpectrumCompositor creates an empty compositor. capacityHint sizes
// the dedup table up front for the expected per-ray node count (default
// 256 in callers, matching a single path's typical bounce count times
// operations-per-bounce).
func NewSpectrumCompositor(capacityHint int) *SpectrumCompositor {
	return &SpectrumCompositor{cache: make(map[specKey]Spectrum, capacityHint)}
}

// Reset invalidates every Spectrum this compositor has ever returned.
// Callers must not retain a value past Reset.
func (c *SpectrumCompositor) Reset() {
	c.pool = c.pool[:0]
	for k := range c.cache {
		delete(c.cache, k)
	}
}

type specOp int

const (
	opAdd specOp = iota
	opAttenuate
	opAttenuatedAdd
	opReflect
	opAttenuateReflect
)

type specKey struct {
	op   specOp
	a    Spectrum
	b    Spectrum
	r    Reflector
	bits uint64
}

func (c *SpectrumCompositor) lookup(key specKey, build func() Spectrum) Spectrum {
	if v, ok := c.cache[key]; ok {
		return v
	}
	v := build()
	c.cache[key] = v
	c.pool = append(c.pool, v)
	return v
}

type sumSpectrum struct{ a, b Spectrum }

func (s *sumSpectrum) Sample(lambda float64) float64 {
	return Sample(s.a, lambda) + Sample(s.b, lambda)
}

type attenuateSpectrum struct {
	a Spectrum
	k float64
}

func (s *attenuateSpectrum) Sample(lambda float64) float64 {
	return s.k * Sample(s.a, lambda)
}

type attenuatedAddSpectrum struct {
	a, b Spectrum
	k    float64
}

func (s *attenuatedAddSpectrum) Sample(lambda float64) float64 {
	return Sample(s.a, lambda) + s.k*Sample(s.b, lambda)
}

type reflectSpectrum struct {
	s Spectrum
	r Reflector
}

func (s *reflectSpectrum) Sample(lambda float64) float64 {
	return Sample(s.s, lambda) * SampleReflector(s.r, lambda)
}

type attenuateReflectSpectrum struct {
	s Spectrum
	r Reflector
	k float64
}

func (s *attenuateReflectSpectrum) Sample(lambda float64) float64 {
	return s.k * Sample(s.s, lambda) * SampleReflector(s.r, lambda)
}

// Add returns a Spectrum representing a+b. `null + x == x`.
func (c *SpectrumCompositor) Add(a, b Spectrum) Spectrum {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return c.lookup(specKey{op: opAdd, a: a, b: b}, func() Spectrum {
		return &sumSpectrum{a: a, b: b}
	})
}

// Attenuate returns a Spectrum representing k*a. k==0 collapses to null;
// k==1 returns a unchanged.
func (c *SpectrumCompositor) Attenuate(a Spectrum, k float64) Spectrum {
	if a == nil || k == 0 {
		return nil
	}
	if k == 1 {
		return a
	}
	return c.lookup(specKey{op: opAttenuate, a: a, bits: math.Float64bits(k)}, func() Spectrum {
		return &attenuateSpectrum{a: a, k: k}
	})
}

// AttenuatedAdd returns a Spectrum representing a + k*b, fused to halve
// the arena footprint of MIS loops that would otherwise allocate both an
// Attenuate and an Add node.
func (c *SpectrumCompositor) AttenuatedAdd(a, b Spectrum, k float64) Spectrum {
	if b == nil || k == 0 {
		return a
	}
	if a == nil {
		return c.Attenuate(b, k)
	}
	return c.lookup(specKey{op: opAttenuatedAdd, a: a, b: b, bits: math.Float64bits(k)}, func() Spectrum {
		return &attenuatedAddSpectrum{a: a, b: b, k: k}
	})
}

// Reflect returns a Spectrum representing the wavelength-wise product s⊗r.
func (c *SpectrumCompositor) Reflect(s Spectrum, r Reflector) Spectrum {
	if s == nil || r == nil {
		return nil
	}
	return c.lookup(specKey{op: opReflect, a: s, r: r}, func() Spectrum {
		return &reflectSpectrum{s: s, r: r}
	})
}

// AttenuateReflection returns a Spectrum representing k*(s⊗r), the fused
// variant used by the direct-lighting estimator's inner loop.
func (c *SpectrumCompositor) AttenuateReflection(s Spectrum, r Reflector, k float64) Spectrum {
	if s == nil || r == nil || k == 0 {
		return nil
	}
	return c.lookup(specKey{op: opAttenuateReflect, a: s, r: r, bits: math.Float64bits(k)}, func() Spectrum {
		return &attenuateReflectSpectrum{s: s, r: r, k: k}
	})
}

// ReflectorCompositor is the reflector-valued twin of SpectrumCompositor:
// sum and attenuate over Reflector values (used when combining multiple
// BSDF lobes' reflectances, e.g. by the Aggregate BSDF).
type ReflectorCompositor struct {
	pool  []any
	cache map[reflKey]Reflector
}

func NewReflectorCompositor(capacityHint int) *ReflectorCompositor {
	return &ReflectorCompositor{cache: make(map[reflKey]Reflector, capacityHint)}
}

func (c *ReflectorCompositor) Reset() {
	c.pool = c.pool[:0]
	for k := range c.cache {
		delete(c.cache, k)
	}
}

type reflKey struct {
	op   specOp
	a, b Reflector
	bits uint64
}

func (c *ReflectorCompositor) lookup(key reflKey, build func() Reflector) Reflector {
	if v, ok := c.cache[key]; ok {
		return v
	}
	v := build()
	c.cache[key] = v
	c.pool = append(c.pool, v)
	return v
}

type sumReflector struct{ a, b Reflector }

func (r *sumReflector) Sample(lambda float64) float64 {
	return clamp01(SampleReflector(r.a, lambda) + SampleReflector(r.b, lambda))
}
func (r *sumReflector) Albedo() float64 {
	return math.Min(1, AlbedoOf(r.a)+AlbedoOf(r.b))
}

type attenuateReflector struct {
	a Reflector
	k float64
}

func (r *attenuateReflector) Sample(lambda float64) float64 {
	return clamp01(r.k * SampleReflector(r.a, lambda))
}
func (r *attenuateReflector) Albedo() float64 {
	return clamp01(r.k * AlbedoOf(r.a))
}

type attenuatedAddReflector struct {
	a, b Reflector
	k    float64
}

func (r *attenuatedAddReflector) Sample(lambda float64) float64 {
	return clamp01(SampleReflector(r.a, lambda) + r.k*SampleReflector(r.b, lambda))
}
func (r *attenuatedAddReflector) Albedo() float64 {
	return math.Min(1, AlbedoOf(r.a)+r.k*AlbedoOf(r.b))
}

// Add returns a Reflector representing a+b, clamped to stay within [0,1].
func (c *ReflectorCompositor) Add(a, b Reflector) Reflector {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return c.lookup(reflKey{op: opAdd, a: a, b: b}, func() Reflector {
		return &sumReflector{a: a, b: b}
	})
}

// Attenuate returns a Reflector representing k*a.
func (c *ReflectorCompositor) Attenuate(a Reflector, k float64) Reflector {
	if a == nil || k == 0 {
		return nil
	}
	if k == 1 {
		return a
	}
	return c.lookup(reflKey{op: opAttenuate, a: a, bits: math.Float64bits(k)}, func() Reflector {
		return &attenuateReflector{a: a, k: k}
	})
}

// AttenuatedAdd returns a Reflector representing a + k*b.
func (c *ReflectorCompositor) AttenuatedAdd(a, b Reflector, k float64) Reflector {
	if b == nil || k == 0 {
		return a
	}
	if a == nil {
		return c.Attenuate(b, k)
	}
	return c.lookup(reflKey{op: opAttenuatedAdd, a: a, b: b, bits: math.Float64bits(k)}, func() Reflector {
		return &attenuatedAddReflector{a: a, b: b, k: k}
	})
}
