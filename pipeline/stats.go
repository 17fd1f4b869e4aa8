// Package pipeline implements PipelineDriver (SPEC_FULL.md §5, §9): the
// batch loop that drives CandidateVerifier, PairResolver, MapqScorer,
// BestMappingSelector, DuplicateFilter and MultiMappingAllocator over a
// SequenceBatch, plus the driver's ambient statistics and memory-usage
// reporting.
package pipeline

import "fmt"

// Stats accumulates mapping outcomes across a run. Each read pair that
// passes the length filter contributes to exactly one of
// NumUniquelyMapped / NumMultiMapped / NumUnmapped (a too-short pair is
// counted only in NumTooShort) — a deliberate fix of the original implementation's
// double-counting of multi-mapped pairs (SPEC_FULL.md §9 Open Question
// decision); only the individual MappingRecord fields need to stay
// bit-exact with the original, not these aggregate counters.
type Stats struct {
	NumReads             uint64
	NumUniquelyMapped    uint64
	NumMultiMapped       uint64
	NumUnmapped          uint64
	NumTooShort          uint64
	NumDuplicatesRemoved uint64
	NumCandidatesDropped uint64 // not incremented by Driver: verify.Verify drops WindowOutOfBounds candidates uncounted
}

// Merge folds o into a copy of s, as the per-worker partial Stats are
// folded into a run-wide total.
func (s Stats) Merge(o Stats) Stats {
	s.NumReads += o.NumReads
	s.NumUniquelyMapped += o.NumUniquelyMapped
	s.NumMultiMapped += o.NumMultiMapped
	s.NumUnmapped += o.NumUnmapped
	s.NumTooShort += o.NumTooShort
	s.NumDuplicatesRemoved += o.NumDuplicatesRemoved
	s.NumCandidatesDropped += o.NumCandidatesDropped
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"reads=%d unique=%d multi=%d unmapped=%d too_short=%d duplicates_removed=%d",
		s.NumReads, s.NumUniquelyMapped, s.NumMultiMapped, s.NumUnmapped,
		s.NumTooShort, s.NumDuplicatesRemoved)
}
