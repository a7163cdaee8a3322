package shading

import "github.com/df07/specterray/pkg/arena"

// BsdfAllocator is the scoped allocator for transient BSDF instances built
// during a single shading call.
type BsdfAllocator struct {
	arena arena.Arena[BSDF]
}

// New records bsdf as owned by this shading call and returns it.
func (a *BsdfAllocator) New(bsdf BSDF) BSDF { return a.arena.New(bsdf) }

// Reset invalidates every BSDF produced since the last reset.
func (a *BsdfAllocator) Reset() { a.arena.Reset() }

// TextureCoordinateAllocator is the scoped allocator for transient
// texture-coordinate payloads produced while shading a single hit.
type TextureCoordinateAllocator struct {
	arena arena.Arena[TexCoord]
}

func (a *TextureCoordinateAllocator) New(tc TexCoord) TexCoord { return a.arena.New(tc) }

func (a *TextureCoordinateAllocator) Reset() { a.arena.Reset() }
