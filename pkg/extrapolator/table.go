package extrapolator

import (
	"encoding/binary"
	"hash/maphash"
	"math"

	"github.com/df07/specterray/pkg/color"
)

// table is an open-addressed hash map from Color3 to V with linear
// probing and robin-hood-style displacement bookkeeping: initial
// capacity 16, grown by a factor of 2 once the load factor exceeds 0.75.
// Key equality is bitwise on the colour tuple (including its space tag, so
// the same numeric triple in two different spaces is a distinct key).
type table[V any] struct {
	keys    []color.Color3
	values  []V
	occupied []bool
	dist    []int // probe distance from ideal slot, for robin-hood swaps
	count   int
}

func newTable[V any](capacity int) table[V] {
	capacity = nextPow2(capacity)
	return table[V]{
		keys:     make([]color.Color3, capacity),
		values:   make([]V, capacity),
		occupied: make([]bool, capacity),
		dist:     make([]int, capacity),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	if p == 0 {
		p = 1
	}
	return p
}

// tableSeed randomises keyHash per process; probe order is an internal
// detail, so cross-run determinism is not required.
var tableSeed = maphash.MakeSeed()

// keyHash hashes the bitwise representation of the triple and its space
// tag, matching keyEqual's bitwise equality.
func keyHash(c color.Color3) uint64 {
	var buf [25]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(c.C0))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(c.C1))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(c.C2))
	buf[24] = byte(c.Space)
	return maphash.Bytes(tableSeed, buf[:])
}

func keyEqual(a, b color.Color3) bool {
	return a.C0 == b.C0 && a.C1 == b.C1 && a.C2 == b.C2 && a.Space == b.Space
}

func (t *table[V]) reserve(n int) {
	// Capacity needed to hold n entries within the 0.75 load factor.
	need := (4*n + 2) / 3
	if need <= len(t.keys) {
		return
	}
	t.grow(nextPow2(need))
}

func (t *table[V]) maybeGrow() {
	if float64(t.count+1) > 0.75*float64(len(t.keys)) {
		t.grow(len(t.keys) * 2)
	}
}

func (t *table[V]) grow(newCap int) {
	old := *t
	*t = newTable[V](newCap)
	for i, occ := range old.occupied {
		if occ {
			t.insert(old.keys[i], old.values[i])
		}
	}
}

func (t *table[V]) insert(key color.Color3, value V) {
	idx := int(keyHash(key)) & (len(t.keys) - 1)
	dist := 0
	for {
		if !t.occupied[idx] {
			t.keys[idx] = key
			t.values[idx] = value
			t.occupied[idx] = true
			t.dist[idx] = dist
			t.count++
			return
		}
		if keyEqual(t.keys[idx], key) {
			t.values[idx] = value
			return
		}
		// robin-hood: if the existing entry has traveled less than us,
		// swap so no entry ever waits longer than necessary behind a
		// luckier one.
		if t.dist[idx] < dist {
			key, t.keys[idx] = t.keys[idx], key
			value, t.values[idx] = t.values[idx], value
			dist, t.dist[idx] = t.dist[idx], dist
		}
		idx = (idx + 1) & (len(t.keys) - 1)
		dist++
	}
}

func (t *table[V]) put(key color.Color3, value V) {
	t.maybeGrow()
	t.insert(key, value)
}

func (t *table[V]) get(key color.Color3) (V, bool) {
	var zero V
	if len(t.keys) == 0 {
		return zero, false
	}
	idx := int(keyHash(key)) & (len(t.keys) - 1)
	dist := 0
	for t.occupied[idx] {
		if keyEqual(t.keys[idx], key) {
			return t.values[idx], true
		}
		if t.dist[idx] < dist {
			// robin-hood invariant: entries are ordered by probe
			// distance, so no further slot can hold this key.
			break
		}
		idx = (idx + 1) & (len(t.keys) - 1)
		dist++
	}
	return zero, false
}
