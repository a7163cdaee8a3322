package shading

import (
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/mipmap"
	"github.com/df07/specterray/pkg/spectrum"
)

// ReflectorSource provides spatially-varying reflectance: a constant
// reflector is the solid-color case; a ReflectorMipmap-backed source is
// the image-texture case.
type ReflectorSource interface {
	Evaluate(hctx HitContext) (spectrum.Reflector, error)
}

// ConstantReflector is the uniform-reflector source.
type ConstantReflector struct {
	Reflector spectrum.Reflector
}

func NewConstantReflector(r spectrum.Reflector) *ConstantReflector {
	return &ConstantReflector{Reflector: r}
}

func (c *ConstantReflector) Evaluate(hctx HitContext) (spectrum.Reflector, error) {
	return c.Reflector, nil
}

// ImageReflector samples a ReflectorMipmap at the hit's texture
// coordinate, using the screen-space derivatives carried on the
// HitContext for filtering. It consumes the tagged TexCoord payload and
// declares itself a UV consumer: a hit whose shape emitted no UV payload
// evaluates to the null reflector.
type ImageReflector struct {
	Mipmap *mipmap.ReflectorMipmap
}

func NewImageReflector(m *mipmap.ReflectorMipmap) *ImageReflector {
	return &ImageReflector{Mipmap: m}
}

func (t *ImageReflector) Evaluate(hctx HitContext) (spectrum.Reflector, error) {
	if hctx.TexCoord.Kind != TexCoordUV {
		return nil, nil
	}
	return t.Mipmap.Lookup(hctx.TexCoord.U, hctx.TexCoord.V, hctx.DuDx, hctx.DvDx, hctx.DuDy, hctx.DvDy)
}

// UVTexCoordMap emits the shape's native UV as a TexCoord payload (the
// common case; the sum type also allows TexCoordNone for shapes with no
// parameterisation).
type UVTexCoordMap struct{}

func (UVTexCoordMap) Compute(hctx HitContext, alloc *TextureCoordinateAllocator) TexCoord {
	return alloc.New(TexCoord{Kind: TexCoordUV, U: hctx.UV.X, V: hctx.UV.Y})
}

// BumpNormalMap perturbs the shading normal by a constant-strength fake
// bump derived from an image-space height gradient sampled from a
// FloatMipmap.
type BumpNormalMap struct {
	Heights *mipmap.FloatMipmap
	Strength float64
}

func NewBumpNormalMap(heights *mipmap.FloatMipmap, strength float64) *BumpNormalMap {
	return &BumpNormalMap{Heights: heights, Strength: strength}
}

func (b *BumpNormalMap) Perturb(hctx HitContext) core.Vec3 {
	if hctx.TexCoord.Kind != TexCoordUV {
		return hctx.ShadingNormal
	}
	const eps = 1.0 / 1024
	u, v := hctx.TexCoord.U, hctx.TexCoord.V
	h0 := b.Heights.Lookup(u, v, 0, 0, 0, 0)
	hu := b.Heights.Lookup(u+eps, v, 0, 0, 0, 0)
	hv := b.Heights.Lookup(u, v+eps, 0, 0, 0, 0)

	t, bt := localFrame(hctx.ShadingNormal)
	perturbed := hctx.ShadingNormal.
		Add(t.Multiply(-(hu - h0) * b.Strength / eps)).
		Add(bt.Multiply(-(hv - h0) * b.Strength / eps))
	return perturbed.Normalize()
}
