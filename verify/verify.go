// Package verify implements CandidateVerifier (SPEC_FULL.md §4.2): it
// walks a sorted candidate list, rejects out-of-bounds windows, runs the
// banded aligner, and tracks the best/second-best error counts.
package verify

import (
	"github.com/grailbio/chromap"
	"github.com/grailbio/chromap/align"
)

// Hit is a verified alignment: the number of errors found and the packed
// ref_id|pos of the aligned end position.
type Hit struct {
	Errors int
	Packed uint64
}

// Best tracks (min, count) and (second-min, count) across a scan of
// candidates, in the canonical fashion CandidateVerifier and PairResolver
// both use.
type Best struct {
	MinErrors       int
	MinCount        int
	SecondMinErrors int
	SecondMinCount  int
}

// NewBest returns a Best with both slots empty.
func NewBest() Best {
	return Best{MinErrors: -1, SecondMinErrors: -1}
}

// Update folds one more observed error count into b.
func (b *Best) Update(errors int) {
	switch {
	case b.MinErrors < 0 || errors < b.MinErrors:
		b.SecondMinErrors, b.SecondMinCount = b.MinErrors, b.MinCount
		b.MinErrors, b.MinCount = errors, 1
	case errors == b.MinErrors:
		b.MinCount++
	case b.SecondMinErrors < 0 || errors < b.SecondMinErrors:
		b.SecondMinErrors, b.SecondMinCount = errors, 1
	case errors == b.SecondMinErrors:
		b.SecondMinCount++
	}
}

// Verify runs BandedAligner over each candidate in candidates (packed
// ref_id|pos, sorted), rejecting any whose verification window escapes
// the reference (WindowOutOfBounds, SPEC_FULL.md §7), and returns the
// verified hits plus the folded Best summary.
func Verify(read []byte, candidates []uint64, ref chromap.Reference, errorThreshold int) ([]Hit, Best) {
	best := NewBest()
	hits := make([]Hit, 0, len(candidates))
	readLength := len(read)

	for _, packed := range candidates {
		rid, pos := chromap.UnpackRefPos(packed)
		refLen := int(ref.Length(rid))

		windowStart := int(pos) + 1 - readLength - errorThreshold
		windowEnd := windowStart + readLength + 2*errorThreshold
		if windowStart < 0 || windowEnd > refLen {
			continue // WindowOutOfBounds: silently dropped
		}

		seq := ref.Sequence(rid)
		window := seq[windowStart:windowEnd]

		errs, endOffset := align.Forward(window, read, errorThreshold)
		if errs == align.Rejected || errs > errorThreshold {
			continue
		}

		endPos := uint32(windowStart + (readLength - 1) + endOffset)
		hits = append(hits, Hit{Errors: errs, Packed: chromap.PackRefPos(rid, endPos)})
		best.Update(errs)
	}

	return hits, best
}
