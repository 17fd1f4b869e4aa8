// Package dedup implements DuplicateFilter (SPEC_FULL.md §4.7):
// sort-and-unique PCR-duplicate removal over per-reference mapping
// vectors, plus an experimental barcode-aware pre-mapping rejection
// filter.
package dedup

import "sort"

// Keyed is the minimal shape DuplicateFilter needs from a mapping
// record: a sort/dedupe key. Barcodes, where present, are compared only
// through Filter's equal callback.
type Keyed interface {
	Key() uint64
}

// Filter sorts records by Key (descending, matching the most-significant
// first ordering of SPEC_FULL.md §4.7) and removes adjacent duplicates,
// returning the deduplicated slice. equal is the structural comparator:
// it should also compare barcodes when barcode-awareness is enabled.
func Filter(records []Keyed, equal func(a, b Keyed) bool) []Keyed {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Key() > records[j].Key()
	})

	out := records[:0:0]
	for i, r := range records {
		if i == 0 || !equal(records[i-1], r) {
			out = append(out, r)
		}
	}
	return out
}
