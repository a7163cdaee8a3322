package mipmap

// FloatMipmap is the plain-scalar instantiation, used for non-colour
// textures such as roughness or alpha maps. Float maps store
// values directly; there is no colour-space or extrapolation step.
type FloatMipmap = Mipmap[float64]

// NewFloatMipmap builds a FloatMipmap from a WxH array of texels.
func NewFloatMipmap(width, height int, texels []float64, opts Options) *FloatMipmap {
	add := func(a, b float64) float64 { return a + b }
	scale := func(a float64, k float64) float64 { return a * k }
	return Build(width, height, texels, opts, 0, add, scale)
}
