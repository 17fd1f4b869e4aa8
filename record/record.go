// Package record defines the MappingRecord variants emitted by the
// mapping core (SPEC_FULL.md §3).
package record

// SingleEnd is a mapping record for an unpaired read.
type SingleEnd struct {
	ReadID  uint32
	Barcode uint32 // valid only when the run is barcode-tagged
	Start   uint32
	Length  uint16
	Mapq    uint8
}

// PairedEnd is a mapping record for a pair of reads collapsed into one
// fragment. The strand of mate1 is packed into the low bit of
// PositiveAlignLen; callers must shift right by one to recover the
// alignment length (SPEC_FULL.md §3).
type PairedEnd struct {
	ReadID           uint32
	Barcode          uint32 // valid only when the run is barcode-tagged
	RefID            uint32
	FragmentStart    uint32
	FragmentLength   uint16
	Mapq             uint8
	PositiveAlignLen uint16 // low bit = mate1 strand (1 = positive)
	NegativeAlignLen uint16
}

// Mate1Positive reports the strand bit packed into PositiveAlignLen.
func (p PairedEnd) Mate1Positive() bool {
	return p.PositiveAlignLen&1 == 1
}

// PositiveLength recovers the alignment length from PositiveAlignLen.
func (p PairedEnd) PositiveLength() uint16 {
	return p.PositiveAlignLen >> 1
}

// PackPositiveAlignLen packs an alignment length and the mate1-positive
// strand bit the way PairedEnd.PositiveAlignLen expects.
func PackPositiveAlignLen(length uint16, mate1Positive bool) uint16 {
	v := length << 1
	if mate1Positive {
		v |= 1
	}
	return v
}

// Key returns the DuplicateFilter sort/dedupe key for a paired-end record:
// (fragment_start << 24) | (fragment_length << 8) | mapq, per
// SPEC_FULL.md §4.7.
func (p PairedEnd) Key() uint64 {
	return uint64(p.FragmentStart)<<24 | uint64(p.FragmentLength)<<8 | uint64(p.Mapq)
}

// Key is the single-end analogue of PairedEnd.Key.
func (s SingleEnd) Key() uint64 {
	return uint64(s.Start)<<24 | uint64(s.Length)<<8 | uint64(s.Mapq)
}
