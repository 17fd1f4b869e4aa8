// Package multimap implements MultiMappingAllocator (SPEC_FULL.md §4.8):
// an augmented interval tree over uniquely-mapped fragments, queried to
// weight a multi-mapped read's candidate loci by how many unique
// fragments they overlap.
package multimap

import "sort"

// Tree is an augmented interval tree over half-open [start, end)
// intervals, built once (via Add then Index) and queried only
// afterwards (CountOverlaps) — the two phases are never interleaved, per
// SPEC_FULL.md §9.
//
// It lays its intervals out in the array position a sorted-array binary
// search tree would use (mid = (lo+hi)/2, recursively), the same
// implicit in-order layout interval/endpoint_index.go's search helpers
// assume, and augments each node with the maximum end across its left
// subtree so overlap queries can prune in O(log n + k).
type Tree struct {
	starts  []uint32
	ends    []uint32
	leftMax []int64 // leftMax[i]: max end in the left subtree rooted "at" i, or -1 if empty
}

// New returns an empty Tree.
func New() *Tree { return &Tree{} }

// Add registers interval [start, end) for inclusion at the next Index
// call.
func (t *Tree) Add(start, end uint32) {
	t.starts = append(t.starts, start)
	t.ends = append(t.ends, end)
}

// Index sorts the added intervals by start and computes the max-end
// augmentation. It must be called exactly once, after all Add calls and
// before any CountOverlaps call.
func (t *Tree) Index() {
	n := len(t.starts)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return t.starts[order[i]] < t.starts[order[j]] })

	sortedStarts := make([]uint32, n)
	sortedEnds := make([]uint32, n)
	for i, o := range order {
		sortedStarts[i] = t.starts[o]
		sortedEnds[i] = t.ends[o]
	}
	t.starts, t.ends = sortedStarts, sortedEnds
	t.leftMax = make([]int64, n)

	var build func(lo, hi int) int64
	build = func(lo, hi int) int64 {
		if lo >= hi {
			return -1
		}
		mid := (lo + hi) / 2
		leftMax := build(lo, mid)
		rightMax := build(mid+1, hi)
		t.leftMax[mid] = leftMax

		m := int64(t.ends[mid])
		if leftMax > m {
			m = leftMax
		}
		if rightMax > m {
			m = rightMax
		}
		return m
	}
	build(0, n)
}

// CountOverlaps returns the number of indexed intervals that intersect
// the half-open query interval [qlo, qhi).
func (t *Tree) CountOverlaps(qlo, qhi uint32) int {
	var rec func(lo, hi int) int
	rec = func(lo, hi int) int {
		if lo >= hi {
			return 0
		}
		mid := (lo + hi) / 2
		count := 0

		if t.leftMax[mid] > int64(qlo) {
			count += rec(lo, mid)
		}
		if t.starts[mid] < qhi && t.ends[mid] > qlo {
			count++
		}
		if t.starts[mid] < qhi {
			count += rec(mid+1, hi)
		}
		return count
	}
	return rec(0, len(t.starts))
}
