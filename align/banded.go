// Package align implements the bit-parallel banded edit-distance kernel
// (Myers' algorithm restricted to a diagonal band of width 2E+1) used to
// verify candidate loci and to trace back their start position.
package align

import "github.com/grailbio/chromap/util"

// Rejected is the sentinel error count returned when a candidate cannot
// be verified within the error threshold.
const Rejected = -1

// maxBand is the largest band width (2E+1) this implementation supports
// in a single machine word. E values used in practice (<=3) keep the band
// well under this, matching the "32-bit registers" register width
// SPEC_FULL.md §4.1 calls for.
const maxBand = 32

// bases the Peq lookup is indexed by; any other byte value (e.g. 'N')
// never matches and so never sets a Peq bit.
const bases = "ACGT"

func baseIndex(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	default:
		return -1
	}
}

// Forward runs the forward banded alignment: window is a reference slice
// of length len(text)+2*e, text is the read, e is the error threshold
// (E). It returns the minimum edit distance over all band end-positions
// and that end position as an offset (0 to 2*e) from index len(text)-1 of
// window, so the alignment ends at window[len(text)-1+endOffset]. If no
// band end-position achieves errors <= e, it returns (Rejected, 0).
func Forward(window []byte, text []byte, e int) (errors int, endOffset int) {
	band := 2*e + 1
	if band > maxBand {
		band = maxBand
	}
	if len(window) < len(text)+band-1 {
		// Caller violated the window-sizing contract (CandidateVerifier
		// clamps window_start so this should not happen for in-bounds
		// candidates); treat as a rejection rather than panicking.
		return Rejected, 0
	}

	var peq [4]uint32
	mask := uint32(1)<<uint(band) - 1
	for k := 0; k < band; k++ {
		if idx := baseIndex(window[k]); idx >= 0 {
			peq[idx] |= 1 << uint(k)
		}
	}

	vp := uint32(0)
	vn := uint32(0)
	err0 := 0 // running error count at band row 0 (the band's start row)
	threshold := 3 * e

	for i := 0; i < len(text); i++ {
		if i > 0 {
			// Slide the band forward by one reference position: shift
			// Peq down by 1 and bring in the base newly entering the
			// bottom of the window.
			newBase := window[i+band-1]
			newIdx := baseIndex(newBase)
			for c := range peq {
				peq[c] >>= 1
				if c == newIdx {
					peq[c] |= 1 << uint(band-1)
				}
			}
		}

		var eq uint32
		if idx := baseIndex(text[i]); idx >= 0 {
			eq = peq[idx]
		}

		xv := eq | vn
		xh := (((eq & vp) + vp) ^ vp) | xv
		ph := vn | ^(xh | vp)
		mh := vp & xh
		ph &= mask
		mh &= mask

		if xh&1 == 0 {
			err0++
		}
		if err0 > threshold {
			return Rejected, 0
		}

		vp = (mh | ^(xh>>1 | ph)) & mask
		vn = (ph & (xh >> 1)) & mask
	}

	// Scan the final band for the minimum end-position score, walking
	// row by row from the band's start (err0 already reflects row 0).
	best := err0
	bestOffset := 0
	running := err0
	for k := 1; k < band; k++ {
		if vp&(1<<uint(k-1)) != 0 {
			running++
		}
		if vn&(1<<uint(k-1)) != 0 {
			running--
		}
		if running < best {
			best = running
			bestOffset = k
		}
	}

	if best > e {
		return Rejected, 0
	}
	return best, bestOffset
}

// Traceback locates the start offset (within window) of an alignment
// known to end with minErrors errors. It runs the symmetric computation
// on the reversed pattern/text. As a short-circuit, when the read aligns
// to window with no indels (its Hamming distance equals minErrors), the
// start offset is exactly e (SPEC_FULL.md §4.1).
func Traceback(window []byte, text []byte, e int, minErrors int) (startOffset int) {
	if e < len(window) && e+len(text) <= len(window) {
		if util.Hamming(string(window[e:e+len(text)]), string(text)) == minErrors {
			return e
		}
	}

	revWindow := reverseBytes(window)
	revText := reverseBytes(text)
	_, endOffset := Forward(revWindow, revText, e)
	// The reversed alignment ends at index len(text)-1+endOffset of the
	// reversed window; translate back into a start offset in the
	// original orientation.
	return len(window) - len(text) - endOffset
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
