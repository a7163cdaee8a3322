package core

import "math/rand"

// RNG wraps math/rand.Rand behind the two draws sampling code needs:
// a uniform float on a range and a uniform index. A single RNG is
// threaded through every Sample call a worker makes.
type RNG struct {
	r *rand.Rand
}

// NewRNG returns an RNG seeded deterministically, so a render is
// reproducible given the same seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// NextFloat draws uniformly from [low, high).
func (g *RNG) NextFloat(low, high float64) float64 {
	return low + g.r.Float64()*(high-low)
}

// NextIndex draws uniformly from [0, n).
func (g *RNG) NextIndex(n int) int {
	return g.r.Intn(n)
}
