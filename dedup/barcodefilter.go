package dedup

import farm "github.com/dgryski/go-farm"

// BarcodeSeedFilter is an approximate, experimental pre-mapping
// duplicate rejector: a two-level hash map keyed by barcode seed and
// read seed pair (SPEC_FULL.md §4.7, §9 Open Question decision). It is
// gated behind Opts.ExperimentalBarcodeSeedFilter and is not exercised
// by the default pipeline path.
//
// The original implementation used a hand-rolled open-addressing hash
// table; this port uses Go's native map, keyed by farm.Hash64 digests of
// the variable-length nucleotide seeds, since this path is explicitly
// experimental and unparity-tested upstream.
type BarcodeSeedFilter struct {
	seen map[uint64]map[uint64]uint64
}

// NewBarcodeSeedFilter constructs an empty filter.
func NewBarcodeSeedFilter() *BarcodeSeedFilter {
	return &BarcodeSeedFilter{seen: make(map[uint64]map[uint64]uint64)}
}

// IsDuplicate reports whether (seed1, seed2) has already been observed
// under barcode. One seed2 is kept per (barcode, seed1): a pair with a new
// seed1 is recorded, while a pair whose seed1 is already recorded with a
// different seed2 is reported as not a duplicate and is not recorded,
// leaving the earlier seed2 in place. seed1 and seed2 are raw base bytes
// (e.g. 32nt read-start seeds); barcode is the raw barcode bytes.
func (f *BarcodeSeedFilter) IsDuplicate(barcode, seed1, seed2 []byte) bool {
	bKey := farm.Hash64(barcode)
	s1Key := farm.Hash64(seed1)
	s2Key := farm.Hash64(seed2)

	byRead, ok := f.seen[bKey]
	if !ok {
		byRead = make(map[uint64]uint64)
		f.seen[bKey] = byRead
	}

	if prevS2, ok := byRead[s1Key]; ok {
		return prevS2 == s2Key
	}
	byRead[s1Key] = s2Key
	return false
}
