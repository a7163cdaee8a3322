package shading

import "github.com/df07/specterray/pkg/core"

// LightSample is one (light, selection-pdf) pair returned to the
// integrator for direct lighting.
type LightSample struct {
	Light Light
	Pdf   float64
}

// LightSampler selects which lights to evaluate for a given hit point.
type LightSampler interface {
	Sample(point core.Vec3, rng RNG) []LightSample
}

// UniformLightSampler returns every light in the scene with a uniform
// selection probability, the simplest LightSampler strategy.
type UniformLightSampler struct {
	Lights []Light
}

func NewUniformLightSampler(lights []Light) *UniformLightSampler {
	return &UniformLightSampler{Lights: lights}
}

func (s *UniformLightSampler) Sample(point core.Vec3, rng RNG) []LightSample {
	if len(s.Lights) == 0 {
		return nil
	}
	pdf := 1.0 / float64(len(s.Lights))
	out := make([]LightSample, len(s.Lights))
	for i, l := range s.Lights {
		out[i] = LightSample{Light: l, Pdf: pdf}
	}
	return out
}
