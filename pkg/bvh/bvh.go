// Package bvh implements the top-level acceleration structure: a packed
// SAH-binned BVH over an array of shapes, stackless traversal, and the
// Scene that wraps it with an optional environmental light.
package bvh

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
	"github.com/df07/specterray/pkg/shape"
)

const (
	maxLeafShapes = 65535
	maxTreeDepth  = 64
	numSAHBins    = 12
)

// Node is the packed BVH node record. An interior node carries
// NumShapes == 0 and Offset as the index of its second child (the first
// child is always the next node in the array); a leaf carries
// NumShapes > 0 and Offset as the starting index into the flat Shapes
// array.
type Node struct {
	Bounds    core.AABB
	Offset    uint32
	NumShapes uint16
	Axis      uint16
}

// BVH is the packed node array plus the flattened, leaf-ordered shape
// list every leaf's Offset/NumShapes indexes into. It itself satisfies
// shape.Shape, so a BVH can be nested as a
// CSG child or instanced, though the fast closest-hit path (TraceClosest,
// used by Scene) is the one the render loop actually calls.
type BVH struct {
	Nodes  []Node
	Shapes []shape.Shape
}

type sahItem struct {
	shape    shape.Shape
	bounds   core.AABB
	centroid core.Vec3
}

// Build constructs a BVH from shapes, each bounded in world space (an
// Instance's Bounds already folds in its own transform, so Build never
// needs a separate model-to-world parameter).
func Build(shapes []shape.Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}
	items := make([]sahItem, len(shapes))
	for i, s := range shapes {
		b := s.Bounds(core.Identity())
		items[i] = sahItem{shape: s, bounds: b, centroid: b.Center()}
	}

	b := &BVH{}
	root := buildRecursive(items, 0)
	flatten(root, &b.Nodes, &b.Shapes)
	return b
}

type buildNode struct {
	bounds     core.AABB
	left, right *buildNode
	axis        int
	leafShapes  []shape.Shape // non-nil only for leaves
}

func axisValue(v core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func makeLeaf(items []sahItem, bounds core.AABB) *buildNode {
	shapes := make([]shape.Shape, len(items))
	for i, it := range items {
		shapes[i] = it.shape
	}
	return &buildNode{bounds: bounds, leafShapes: shapes}
}

func unionBounds(items []sahItem) core.AABB {
	bounds := core.EmptyAABB()
	for _, it := range items {
		bounds = bounds.Union(it.bounds)
	}
	return bounds
}

func buildRecursive(items []sahItem, depth int) *buildNode {
	bounds := unionBounds(items)

	if len(items) == 1 || depth >= maxTreeDepth {
		return splitOversizedLeaf(items, bounds, depth)
	}

	centroidBounds := core.EmptyAABB()
	for _, it := range items {
		centroidBounds = centroidBounds.Union(core.NewAABB(it.centroid, it.centroid))
	}
	axis := centroidBounds.LongestAxis()
	lo, hi := axisValue(centroidBounds.Min, axis), axisValue(centroidBounds.Max, axis)
	if hi-lo < 1e-12 {
		return splitOversizedLeaf(items, bounds, depth)
	}

	binOf := func(it sahItem) int {
		t := (axisValue(it.centroid, axis) - lo) / (hi - lo)
		idx := int(t * numSAHBins)
		if idx >= numSAHBins {
			idx = numSAHBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		return idx
	}

	var binBounds [numSAHBins]core.AABB
	var binCount [numSAHBins]int
	for i := range binBounds {
		binBounds[i] = core.EmptyAABB()
	}
	for _, it := range items {
		idx := binOf(it)
		binBounds[idx] = binBounds[idx].Union(it.bounds)
		binCount[idx]++
	}

	nodeSA := bounds.SurfaceArea()
	bestCost := math.Inf(1)
	bestSplit := -1
	for split := 1; split < numSAHBins; split++ {
		belowBounds, aboveBounds := core.EmptyAABB(), core.EmptyAABB()
		belowCount, aboveCount := 0, 0
		for i := 0; i < split; i++ {
			belowBounds = belowBounds.Union(binBounds[i])
			belowCount += binCount[i]
		}
		for i := split; i < numSAHBins; i++ {
			aboveBounds = aboveBounds.Union(binBounds[i])
			aboveCount += binCount[i]
		}
		if belowCount == 0 || aboveCount == 0 {
			continue
		}
		cost := (1 + belowBounds.SurfaceArea()*float64(belowCount)/nodeSA + aboveBounds.SurfaceArea()*float64(aboveCount)/nodeSA)
		if cost < bestCost {
			bestCost = cost
			bestSplit = split
		}
	}

	leafCost := float64(len(items))
	if bestSplit < 0 || (bestCost >= leafCost && len(items) <= maxLeafShapes) {
		return makeLeaf(items, bounds)
	}

	i, j := 0, len(items)-1
	for i <= j {
		if binOf(items[i]) < bestSplit {
			i++
		} else {
			items[i], items[j] = items[j], items[i]
			j--
		}
	}
	if i == 0 || i == len(items) {
		return makeLeaf(items, bounds)
	}

	node := &buildNode{bounds: bounds, axis: axis}
	node.left = buildRecursive(items[:i], depth+1)
	node.right = buildRecursive(items[i:], depth+1)
	return node
}

// splitOversizedLeaf returns a leaf for items, falling back to a blind
// index-midpoint split (recursing, ignoring SAH) when a depth- or
// centroid-collapse-forced leaf would exceed maxLeafShapes (a leaf's
// NumShapes field holds at most 65535).
func splitOversizedLeaf(items []sahItem, bounds core.AABB, depth int) *buildNode {
	if len(items) <= maxLeafShapes {
		return makeLeaf(items, bounds)
	}
	mid := len(items) / 2
	node := &buildNode{bounds: bounds, axis: 0}
	node.left = buildRecursive(items[:mid], depth+1)
	node.right = buildRecursive(items[mid:], depth+1)
	return node
}

func flatten(n *buildNode, nodes *[]Node, shapesOut *[]shape.Shape) uint32 {
	idx := uint32(len(*nodes))
	*nodes = append(*nodes, Node{Bounds: n.bounds})
	if n.leafShapes != nil {
		(*nodes)[idx].Offset = uint32(len(*shapesOut))
		(*nodes)[idx].NumShapes = uint16(len(n.leafShapes))
		*shapesOut = append(*shapesOut, n.leafShapes...)
		return idx
	}
	(*nodes)[idx].Axis = uint16(n.axis)
	flatten(n.left, nodes, shapesOut)
	rightIdx := flatten(n.right, nodes, shapesOut)
	(*nodes)[idx].Offset = rightIdx
	return idx
}

// TraceClosest is the fast path: a stackless traversal over a
// 64-entry worklist that visits the near child first (by the ray's sign
// on the node's split axis) and shrinks the box-test interval to the
// closest confirmed hit found so far.
func (b *BVH) TraceClosest(ray core.Ray, tester *HitTester) {
	if len(b.Nodes) == 0 {
		return
	}
	var stack [maxTreeDepth]uint32
	sp := 0
	cur := uint32(0)
	dirNeg := [3]bool{ray.Direction.X < 0, ray.Direction.Y < 0, ray.Direction.Z < 0}

	for {
		node := &b.Nodes[cur]
		if !node.Bounds.Hit(ray, tester.tMin, tester.TMax()) {
			if sp == 0 {
				return
			}
			sp--
			cur = stack[sp]
			continue
		}
		if node.NumShapes > 0 {
			for i := 0; i < int(node.NumShapes); i++ {
				s := b.Shapes[int(node.Offset)+i]
				tester.Consider(s.Trace(ray, &tester.Alloc))
			}
			if sp == 0 {
				return
			}
			sp--
			cur = stack[sp]
			continue
		}

		near, far := cur+1, node.Offset
		if dirNeg[node.Axis] {
			near, far = far, near
		}
		stack[sp] = far
		sp++
		cur = near
	}
}

// Trace satisfies shape.Shape for nesting a BVH as a CSG child or
// instancing target: unlike TraceClosest, it must return every hit (CSG
// needs the full sorted list), so it visits every node the ray's box
// test passes without using a shrinking tMax, then merges the per-shape
// lists it collects.
func (b *BVH) Trace(ray core.Ray, alloc *shape.ShapeHitAllocator) *shape.Hit {
	if len(b.Nodes) == 0 {
		return nil
	}
	var result *shape.Hit
	var visit func(idx uint32)
	visit = func(idx uint32) {
		node := &b.Nodes[idx]
		if !node.Bounds.Hit(ray, 0, math.Inf(1)) {
			return
		}
		if node.NumShapes > 0 {
			for i := 0; i < int(node.NumShapes); i++ {
				s := b.Shapes[int(node.Offset)+i]
				for h := s.Trace(ray, alloc); h != nil; {
					next := h.Next
					result = mergeHit(result, h)
					h = next
				}
			}
			return
		}
		visit(idx + 1)
		visit(node.Offset)
	}
	visit(0)
	return result
}

// mergeHit inserts a single detached hit into a sorted hit list.
func mergeHit(head *shape.Hit, h *shape.Hit) *shape.Hit {
	h.Next = nil
	if head == nil || h.Distance < head.Distance {
		h.Next = head
		return h
	}
	cur := head
	for cur.Next != nil && cur.Next.Distance <= h.Distance {
		cur = cur.Next
	}
	h.Next = cur.Next
	cur.Next = h
	return head
}

func (b *BVH) Bounds(modelToWorld core.Matrix4x4) core.AABB {
	if len(b.Nodes) == 0 {
		return core.EmptyAABB()
	}
	return b.Nodes[0].Bounds.Transform(modelToWorld)
}

// Normal, Material, Emissive, NormalMap, TexCoordMap, SampleFace and
// PDFSolidAngle are never invoked on the aggregate itself: every Hit it
// produces still names the leaf shape that was actually hit, so dispatch
// happens there (same rationale as shape.CSG).
func (b *BVH) Normal(point core.Vec3, face int) core.Vec3 { return core.Vec3{} }
func (b *BVH) Material(face int) shading.Material         { return nil }
func (b *BVH) Emissive(face int) shading.EmissiveMaterial  { return nil }
func (b *BVH) NormalMap(face int) shading.NormalMap        { return nil }
func (b *BVH) TexCoordMap(face int) shading.TexCoordMap    { return nil }
func (b *BVH) SampleFace(face int, u, v float64) (core.Vec3, core.Vec3) {
	return core.Vec3{}, core.Vec3{}
}
func (b *BVH) PDFSolidAngle(ray core.Ray, distance float64, face int) float64 { return 0 }
