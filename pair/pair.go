// Package pair implements PairResolver (SPEC_FULL.md §4.3): two-pointer
// intersection of per-mate candidate and alignment lists under an
// insert-size window, in the two orientations this core accepts.
package pair

import (
	"sort"

	"github.com/grailbio/chromap"
	"github.com/grailbio/chromap/verify"
)

// Orientation selects which of the two valid paired-end orientations a
// two-pointer pass considers.
type Orientation int

const (
	// FR: mate1 on the positive strand, mate2 on the negative strand.
	FR Orientation = iota
	// RF: mate1 on the negative strand, mate2 on the positive strand.
	RF
)

// ReduceCandidates intersects mate1 and mate2 candidate lists (each
// packed ref_id|pos, sorted ascending) under insert-size window w,
// returning the subset of each list that has at least one potential
// partner. A given mate2 candidate is emitted at most once, keeping the
// reduced lists monotone (the "previous_end" watermark of
// SPEC_FULL.md §4.3).
func ReduceCandidates(mate1, mate2 []uint64, w uint32) (reducedMate1, reducedMate2 []uint64) {
	j := 0
	previousEnd := 0
	for _, c1 := range mate1 {
		rid1, p1 := chromap.UnpackRefPos(c1)
		low := int64(p1) - int64(w)
		high := int64(p1) + int64(w)

		for j < len(mate2) {
			rid2, p2 := chromap.UnpackRefPos(mate2[j])
			if rid2 > rid1 || (rid2 == rid1 && int64(p2) >= low) {
				break
			}
			j++
		}

		found := false
		for k := j; k < len(mate2); k++ {
			rid2, p2 := chromap.UnpackRefPos(mate2[k])
			if rid2 != rid1 {
				break
			}
			if int64(p2) > high {
				break
			}
			found = true
			if k >= previousEnd {
				reducedMate2 = append(reducedMate2, mate2[k])
				previousEnd = k + 1
			}
		}
		if found {
			reducedMate1 = append(reducedMate1, c1)
		}
	}
	return reducedMate1, reducedMate2
}

// Pairing is one candidate pairing between a mate1 hit and a mate2 hit.
type Pairing struct {
	Idx1, Idx2 int
	SumErrors  int
}

// Best tracks the minimum and second-minimum sum-of-errors across a set
// of enumerated pairings, and which pairings achieve the minimum.
type Best struct {
	MinSumErrors       int
	SecondMinSumErrors int
	SecondCount        int
	BestPairings       []Pairing
}

// MergeBest folds two independently-computed Bests (e.g. from the FR and
// RF orientation passes) into one, the same way a single pass folds
// successive pairings.
func MergeBest(a, b Best) Best {
	m := Best{MinSumErrors: -1, SecondMinSumErrors: -1}
	for _, src := range []Best{a, b} {
		if src.MinSumErrors < 0 {
			continue
		}
		switch {
		case m.MinSumErrors < 0 || src.MinSumErrors < m.MinSumErrors:
			m.SecondMinSumErrors, m.SecondCount = m.MinSumErrors, len(m.BestPairings)
			m.MinSumErrors = src.MinSumErrors
			m.BestPairings = append([]Pairing(nil), src.BestPairings...)
			if src.SecondMinSumErrors >= 0 && (m.SecondMinSumErrors < 0 || src.SecondMinSumErrors < m.SecondMinSumErrors) {
				m.SecondMinSumErrors, m.SecondCount = src.SecondMinSumErrors, src.SecondCount
			}
		case src.MinSumErrors == m.MinSumErrors:
			m.BestPairings = append(m.BestPairings, src.BestPairings...)
		default:
			if m.SecondMinSumErrors < 0 || src.MinSumErrors < m.SecondMinSumErrors {
				m.SecondMinSumErrors, m.SecondCount = src.MinSumErrors, len(src.BestPairings)
			} else if src.MinSumErrors == m.SecondMinSumErrors {
				m.SecondCount += len(src.BestPairings)
			}
		}
	}
	return m
}

// bounds returns the [low, high] window, relative to a mate1 end
// position p1, that a valid mate2 end position must fall within, for the
// given orientation (SPEC_FULL.md §4.3).
func bounds(o Orientation, p1 uint32, w, read1Len, read2Len, minOverlap int) (low, high int64) {
	switch o {
	case FR:
		return int64(p1) - int64(w-read1Len), int64(p1) + int64(read2Len-minOverlap)
	default: // RF, mirrored
		return int64(p1) - int64(read2Len-minOverlap), int64(p1) + int64(w-read1Len)
	}
}

// ResolvePairs enumerates all (idx1, idx2) combinations whose mate2
// position falls within the orientation-dependent window of the mate1
// position, and folds their summed error counts into a Best. Idx1/Idx2 in
// the returned Pairings index into sortedHits1/sortedHits2, which
// ResolvePairs also returns since it sorts its inputs by position.
func ResolvePairs(hits1, hits2 []verify.Hit, o Orientation, w, read1Len, read2Len, minOverlap int) (best Best, sortedHits1, sortedHits2 []verify.Hit) {
	h1 := append([]verify.Hit(nil), hits1...)
	h2 := append([]verify.Hit(nil), hits2...)
	sort.Slice(h1, func(i, j int) bool { return h1[i].Packed < h1[j].Packed })
	sort.Slice(h2, func(i, j int) bool { return h2[i].Packed < h2[j].Packed })

	best = Best{MinSumErrors: -1, SecondMinSumErrors: -1}

	j0 := 0
	for i, a := range h1 {
		rid1, p1 := chromap.UnpackRefPos(a.Packed)
		low, high := bounds(o, p1, w, read1Len, read2Len, minOverlap)

		for j0 < len(h2) {
			rid2, p2 := chromap.UnpackRefPos(h2[j0].Packed)
			if rid2 > rid1 || (rid2 == rid1 && int64(p2) >= low) {
				break
			}
			j0++
		}

		for k := j0; k < len(h2); k++ {
			rid2, p2 := chromap.UnpackRefPos(h2[k].Packed)
			if rid2 != rid1 {
				break
			}
			if int64(p2) > high {
				break
			}
			sum := a.Errors + h2[k].Errors
			pairing := Pairing{Idx1: i, Idx2: k, SumErrors: sum}

			switch {
			case best.MinSumErrors < 0 || sum < best.MinSumErrors:
				best.SecondMinSumErrors = best.MinSumErrors
				best.SecondCount = len(best.BestPairings)
				best.MinSumErrors = sum
				best.BestPairings = []Pairing{pairing}
			case sum == best.MinSumErrors:
				best.BestPairings = append(best.BestPairings, pairing)
			case sum == best.SecondMinSumErrors:
				best.SecondCount++
			case best.SecondMinSumErrors < 0 || sum < best.SecondMinSumErrors:
				best.SecondMinSumErrors = sum
				best.SecondCount = 1
			}
		}
	}
	return best, h1, h2
}
