// Package bestmap implements BestMappingSelector (SPEC_FULL.md §4.5):
// reservoir sampling down to a fixed cap when the number of best mappings
// exceeds it, and the drop-if-too-repetitive guard.
package bestmap

import (
	"math/rand"
	"sort"
)

// NewReadRNG seeds a PRNG from (globalSeed, readID) rather than a single
// per-worker stream, so results are deterministic independent of thread
// count (the §5 Open Question decision recorded in DESIGN.md).
func NewReadRNG(globalSeed int64, readID uint32) *rand.Rand {
	// A simple odd multiplier mixes the two inputs into one seed; this
	// need not be cryptographic, only well-distributed for rand.Rand's
	// own PRNG to take over from.
	mixed := globalSeed*6364136223846793005 + int64(readID)
	return rand.New(rand.NewSource(mixed))
}

// Select decides which of numBestMappings candidate indices (0..count-1)
// to keep. If count <= cap, all indices are kept. If count exceeds
// dropRepetitiveReads, the read is dropped entirely (nil, true). Otherwise
// a uniform reservoir sample of size cap is drawn and returned sorted
// ascending.
func Select(count, cap, dropRepetitiveReads int, rng *rand.Rand) (indices []int, dropped bool) {
	if count > dropRepetitiveReads {
		return nil, true
	}
	if count <= cap {
		indices = make([]int, count)
		for i := range indices {
			indices[i] = i
		}
		return indices, false
	}
	return reservoirSample(count, cap, rng), false
}

// reservoirSample runs the classic algorithm R: fill the reservoir with
// the first n indices, then for each subsequent index draw a uniform
// position in [0, i] and overwrite the reservoir slot it lands on (if
// any). The result is sorted ascending to give a stable emission order.
func reservoirSample(count, n int, rng *rand.Rand) []int {
	reservoir := make([]int, n)
	for i := 0; i < n; i++ {
		reservoir[i] = i
	}
	for i := n; i < count; i++ {
		j := rng.Intn(i + 1)
		if j < n {
			reservoir[j] = i
		}
	}
	sort.Ints(reservoir)
	return reservoir
}
