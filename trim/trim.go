// Package trim implements AdapterTrimmer (SPEC_FULL.md §4.6): a
// heuristic overlap merge between mate1 and the reverse complement of
// mate2, used to cut adapter read-through off both mates of a short
// fragment.
package trim

import (
	"bytes"

	"github.com/grailbio/chromap/biosimd"
	"github.com/grailbio/chromap/util"
)

// Trim looks for adapter read-through between read1 and read2 (mate2's
// reverse complement overlapping mate1). If an overlap is confirmed
// within 1 mismatch, it returns the overlap length and true; callers
// trim both mates to that length via SequenceBatch.Trim.
func Trim(read1, read2 []byte, minReadLength int) (overlapLength int, trimmed bool) {
	l := minReadLength / 2
	if l <= 0 || l > len(read1) {
		return 0, false
	}

	revComp2 := make([]byte, len(read2))
	biosimd.ReverseComp8NoValidate(revComp2, read2)

	for s := 0; s < 2; s++ {
		seedStart := s * l
		if seedStart+l > len(read1) {
			continue
		}
		seed := read1[seedStart : seedStart+l]

		hitStart := bytes.Index(revComp2, seed)
		if hitStart < 0 || hitStart < seedStart {
			continue
		}

		overlapStart := hitStart - seedStart
		overlap := len(revComp2) - overlapStart
		if overlap <= 0 || overlap > len(read1) {
			continue
		}

		a := read1[:overlap]
		b := revComp2[overlapStart:]
		if util.Hamming(string(a), string(b)) <= 1 {
			return overlap, true
		}
	}
	return 0, false
}
