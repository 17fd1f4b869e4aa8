package multimap

import (
	"math"
	"math/rand"
)

// SentinelReadID marks the trailer row multi-mapping allocation tables
// are terminated with, per SPEC_FULL.md §4.8.
const SentinelReadID = math.MaxUint32

// overlapWindow is how far past each candidate's span the allocator
// looks for uniquely-mapped fragments when weighting it, per
// SPEC_FULL.md §4.8.
const overlapWindow = 100

// Candidate is one locus a multi-mapped read could be assigned to.
type Candidate struct {
	RefID  uint32
	Start  uint32
	Length uint32
}

// Allocator assigns a multi-mapped read to one of its candidate loci,
// weighting each by how many uniquely-mapped fragments it overlaps
// (the more unique coverage nearby, the more likely the read truly
// belongs there), falling back to a uniform draw when every candidate
// has zero such overlap.
type Allocator struct {
	trees map[uint32]*Tree // refID -> tree of uniquely-mapped fragments on that reference
}

// NewAllocator builds an Allocator from per-reference interval trees.
// Each Tree must already have had Index called.
func NewAllocator(trees map[uint32]*Tree) *Allocator {
	return &Allocator{trees: trees}
}

// Weight returns the number of uniquely-mapped fragments overlapping
// [c.Start - overlapWindow, c.Start + c.Length + overlapWindow) on
// c.RefID. A reference with no unique-fragment tree weighs zero.
func (a *Allocator) Weight(c Candidate) int {
	tr, ok := a.trees[c.RefID]
	if !ok {
		return 0
	}
	lo := uint32(0)
	if c.Start > overlapWindow {
		lo = c.Start - overlapWindow
	}
	hi := c.Start + c.Length + overlapWindow
	return tr.CountOverlaps(lo, hi)
}

// Allocate picks one of candidates by weighted discrete sampling and
// returns its index. When every candidate weighs zero it falls back to
// a uniform draw. rng should be seeded per-read, e.g. via
// bestmap.NewReadRNG, so the choice is reproducible independent of
// worker-thread scheduling.
func (a *Allocator) Allocate(candidates []Candidate, rng *rand.Rand) int {
	n := len(candidates)
	if n == 0 {
		return -1
	}
	if n == 1 {
		return 0
	}

	weights := make([]int64, n)
	var total int64
	for i, c := range candidates {
		w := int64(a.Weight(c))
		weights[i] = w
		total += w
	}

	if total == 0 {
		return int(rng.Int63n(int64(n)))
	}

	draw := rng.Int63n(total)
	var cum int64
	for i, w := range weights {
		cum += w
		if draw < cum {
			return i
		}
	}
	return n - 1 // unreachable unless rounding, keeps Allocate total
}
