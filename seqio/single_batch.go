package seqio

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromap/biosimd"
	"github.com/grailbio/chromap/encoding/fastq"
)

// SingleBatch is the single-end analogue of Batch: one read per index
// (no mate pairing), loaded from a plain fastq.Scanner.
type SingleBatch struct {
	scanner *fastq.Scanner

	seqs     [][]byte
	negs     [][]byte
	negValid []bool
}

// NewSingleBatch constructs an empty SingleBatch reading unpaired reads
// from scanner, sized to hold up to capacity reads per Load call.
func NewSingleBatch(scanner *fastq.Scanner, capacity int) *SingleBatch {
	return &SingleBatch{
		scanner:  scanner,
		seqs:     make([][]byte, capacity),
		negs:     make([][]byte, capacity),
		negValid: make([]bool, capacity),
	}
}

// LoadOne reads the next FASTQ record into slot index.
func (b *SingleBatch) LoadOne(index int) (eof bool, err error) {
	if b.seqs[index] != nil {
		return false, nil
	}

	var r fastq.Read
	if !b.scanner.Scan(&r) {
		if err := b.scanner.Err(); err != nil {
			return false, errors.E(err, "seqio: scanning FASTQ record")
		}
		return true, nil
	}

	b.seqs[index] = []byte(r.Seq)
	return false, nil
}

// PrepareNegative caches the reverse complement of read index for
// subsequent NegativeSequence calls.
func (b *SingleBatch) PrepareNegative(index int) {
	seq := b.seqs[index]
	neg := make([]byte, len(seq))
	biosimd.ReverseComp8NoValidate(neg, seq)
	b.negs[index] = neg
	b.negValid[index] = true
}

// Sequence returns the forward-strand bytes loaded for index.
func (b *SingleBatch) Sequence(index int) []byte { return b.seqs[index] }

// NegativeSequence returns the reverse complement cached by
// PrepareNegative. It panics if PrepareNegative was not yet called for
// index, since that indicates a caller ordering bug.
func (b *SingleBatch) NegativeSequence(index int) []byte {
	if !b.negValid[index] {
		panic("seqio: NegativeSequence called before PrepareNegative")
	}
	return b.negs[index]
}

// Length returns the current (possibly trimmed) length of read index.
func (b *SingleBatch) Length(index int) int { return len(b.seqs[index]) }

// ID returns the 0-based read id of index: unlike Batch, SingleBatch has
// no mate pairing, so index and read id coincide.
func (b *SingleBatch) ID(index int) uint32 { return uint32(index) }

// Trim cuts read index (and its cached reverse complement, if any) down
// to overlapLength bytes.
func (b *SingleBatch) Trim(index int, overlapLength int) {
	b.seqs[index] = b.seqs[index][:overlapLength]
	if b.negValid[index] {
		b.negs[index] = b.negs[index][len(b.negs[index])-overlapLength:]
	}
}

// GenerateSeed packs length bases of read index starting at offset into
// a uint64, 2 bits per base, matching Batch.GenerateSeed's encoding.
func (b *SingleBatch) GenerateSeed(index, offset, length int) uint64 {
	seq := b.seqs[index][offset : offset+length]
	var seed uint64
	for _, c := range seq {
		seed <<= 2
		switch c {
		case 'C':
			seed |= 1
		case 'G':
			seed |= 2
		case 'T':
			seed |= 3
		}
	}
	return seed
}
