// Package recset implements a reconcilable set: a map of short IDs backed
// by an incrementally-maintained sketch, supporting pairwise difference
// decoding and a two-round bisection fallback when the symmetric
// difference exceeds sketch capacity.
package recset

import (
	"github.com/chaintools/erlay-relay-sim/internal/sketch"
)

// RecSet maintains a set of 64-bit element IDs together with a BCH
// characteristic-polynomial sketch of the designated capacity.
type RecSet struct {
	capacity int
	seed     *uint64
	sk       *sketch.Sketch
	elems    map[uint64]struct{}
	order    []uint64
}

// New constructs an empty set with the given capacity.
func New(capacity int) *RecSet {
	return &RecSet{
		capacity: capacity,
		sk:       sketch.New(capacity),
		elems:    make(map[uint64]struct{}, capacity),
	}
}

// WithSeed constructs an empty set with a capacity and seed threaded to the
// underlying sketch construction.
func WithSeed(capacity int, seed uint64) *RecSet {
	return &RecSet{
		capacity: capacity,
		seed:     &seed,
		sk:       sketch.NewSeeded(capacity, seed),
		elems:    make(map[uint64]struct{}, capacity),
	}
}

// Insert adds id to the set. Repeated insertion of the same id is a no-op:
// the sketch is only touched on first insertion, since BCH sketch addition
// is XOR and a double-add would cancel itself out.
func (r *RecSet) Insert(id uint64) {
	if _, ok := r.elems[id]; ok {
		return
	}
	r.elems[id] = struct{}{}
	r.order = append(r.order, id)
	r.sk.Insert(id)
}

// Contains reports whether id is a member of the set.
func (r *RecSet) Contains(id uint64) bool {
	_, ok := r.elems[id]
	return ok
}

// Len returns the number of distinct elements inserted.
func (r *RecSet) Len() int {
	return len(r.elems)
}

// Sketch serializes the current sketch state; pure with respect to r.
func (r *RecSet) Sketch() []byte {
	return r.sk.Serialize()
}

// HalfSketch serializes a sketch over the subset of this set's elements
// with an even value (id&1==0), for use as the "half" side of a bisection
// round.
func (r *RecSet) HalfSketch() []byte {
	return HalfSketch(r.order, r.capacity, r.seed)
}

// ReconcileWith deserializes the peer's sketch under this set's
// (capacity, seed), XOR-merges it with a local copy, and decodes the
// symmetric difference.
func (r *RecSet) ReconcileWith(peerSketch []byte) ([]uint64, error) {
	return Reconcile(r.Sketch(), peerSketch, r.capacity, r.seed)
}

// Reconcile is the stateless, pairwise form used directly by bisection: it
// deserializes both sketches under (capacity, seed), merges them, and
// decodes the differing IDs.
func Reconcile(a, b []byte, capacity int, seed *uint64) ([]uint64, error) {
	return sketch.Reconcile(a, b, capacity, seed)
}

// subSketches XOR-merges serialized sketches a and b (subtraction equals
// addition in GF(2)) and returns the result re-serialized, used to derive
// a_rest = a_whole - a_half during bisection.
func subSketches(a, b []byte, capacity int, seed *uint64) ([]byte, error) {
	sa, err := sketch.Deserialize(capacity, seed, a)
	if err != nil {
		return nil, err
	}
	sb, err := sketch.Deserialize(capacity, seed, b)
	if err != nil {
		return nil, err
	}
	if err := sa.Merge(sb); err != nil {
		return nil, err
	}
	return sa.Serialize(), nil
}

// BisectWith is the fallback invoked when simple reconciliation fails
// because the symmetric difference exceeds capacity. aWhole/aHalf are this
// side's full and half sketches; bWhole/bHalf are the peer's. The "half" is
// a sketch over the subset of the originating set with an even element
// value (id&1==0) — an intrinsic property of each element, so both sides
// independently classify any shared element into the same half/rest
// bucket regardless of the order each side happened to insert it in.
//
// The symmetric difference is the concatenation of the independently
// decoded differences of (aHalf, bHalf) and (aRest, bRest), where
// aRest = aWhole - aHalf and bRest = bWhole - bHalf.
func BisectWith(aWhole, aHalf, bWhole, bHalf []byte, capacity int, seed *uint64) ([]uint64, error) {
	aRest, err := subSketches(aWhole, aHalf, capacity, seed)
	if err != nil {
		return nil, err
	}
	bRest, err := subSketches(bWhole, bHalf, capacity, seed)
	if err != nil {
		return nil, err
	}

	halfDiffs, err := Reconcile(aHalf, bHalf, capacity, seed)
	if err != nil {
		return nil, err
	}
	restDiffs, err := Reconcile(aRest, bRest, capacity, seed)
	if err != nil {
		return nil, err
	}

	return append(halfDiffs, restDiffs...), nil
}

// HalfSketch builds a sketch over the subset of ids with an even value
// (id&1==0), for use as this side's "half" in a bisection round. Bucketing
// by the element's own value, rather than by its position in whatever
// order a side happened to insert it, guarantees both sides of a
// reconciliation place any element they have in common into the same
// half/rest bucket.
func HalfSketch(ids []uint64, capacity int, seed *uint64) []byte {
	var sk *sketch.Sketch
	if seed != nil {
		sk = sketch.NewSeeded(capacity, *seed)
	} else {
		sk = sketch.New(capacity)
	}
	for _, id := range ids {
		if id&1 == 0 {
			sk.Insert(id)
		}
	}
	return sk.Serialize()
}
