// Package chromap implements the mapping core shared by ChIP-seq and
// ATAC-seq pipelines: seed-hit verification, paired-end resolution,
// duplicate removal, and multi-mapping allocation over a minimizer index
// supplied by the caller.
package chromap

// Index is the minimizer index collaborator. It is constructed and
// populated outside this package; chromap only queries it.
type Index interface {
	// Sketch returns the minimizers of read, each paired with its
	// position within read.
	Sketch(read []byte) []MinimizerHit

	// Candidates turns a list of minimizers into four sorted candidate
	// lists: positive- and negative-strand minimizer hits, and positive-
	// and negative-strand candidate loci (packed ref_id|pos, §3).
	Candidates(minimizers []MinimizerHit) (positiveHits, negativeHits, positiveCandidates, negativeCandidates []uint64)
}

// MinimizerHit is a (minimizer value, read offset) pair produced by
// Index.Sketch.
type MinimizerHit struct {
	Minimizer uint64
	Offset    int
}

// Reference is the loaded-genome collaborator: an ordered, immutable list
// of named sequences.
type Reference interface {
	NumSequences() uint32
	Name(rid uint32) string
	Length(rid uint32) uint32
	// Sequence returns the forward-strand bytes of sequence rid.
	Sequence(rid uint32) []byte
}

// SequenceBatch buffers a batch of reads (optionally paired, optionally
// barcoded) and serves per-read queries used throughout the pipeline.
type SequenceBatch interface {
	// LoadOne advances to the next read, returning true at end of stream.
	LoadOne(index int) (eof bool, err error)
	// PrepareNegative caches the reverse complement of read index for
	// subsequent NegativeSequence calls.
	PrepareNegative(index int)

	Sequence(index int) []byte
	NegativeSequence(index int) []byte
	Length(index int) int
	ID(index int) uint32

	// Trim cuts read index (and its cached reverse complement) down to
	// overlapLength bytes. Used only by the adapter trimmer.
	Trim(index int, overlapLength int)

	// GenerateSeed returns a packed encoding of length bases starting at
	// offset, used as a dedupe key.
	GenerateSeed(index int, offset, length int) uint64
}

// PackRefPos packs a reference id and position into the 64-bit encoding
// used throughout this package: ref id in the high 32 bits, position in
// the low 32 bits. Ordering by the packed value equals lexicographic
// ordering of (ref id, position).
func PackRefPos(refID, pos uint32) uint64 {
	return uint64(refID)<<32 | uint64(pos)
}

// UnpackRefPos is the inverse of PackRefPos.
func UnpackRefPos(packed uint64) (refID, pos uint32) {
	return uint32(packed >> 32), uint32(packed)
}
