// Package seqio implements a FASTQ-backed chromap.SequenceBatch, the way
// bio-fusion's readFASTQ/processFASTQ consume fastq.PairScanner, adapted
// from a channel-fed worker pipeline to the fixed-capacity double-buffer
// PipelineDriver loads one batch at a time.
package seqio

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromap/biosimd"
	"github.com/grailbio/chromap/encoding/fastq"
)

// Batch buffers up to 2*capacity reads (mate1 at even slots, mate2 at
// odd slots) loaded from a fastq.PairScanner for one PipelineDriver
// batch. Construct a fresh Batch for the next one.
type Batch struct {
	scanner *fastq.PairScanner

	seqs     [][]byte
	negs     [][]byte
	negValid []bool
}

// NewBatch constructs an empty Batch reading read pairs from scanner,
// sized to hold up to capacity pairs per Load call.
func NewBatch(scanner *fastq.PairScanner, capacity int) *Batch {
	n := capacity * 2
	return &Batch{
		scanner:  scanner,
		seqs:     make([][]byte, n),
		negs:     make([][]byte, n),
		negValid: make([]bool, n),
	}
}

// LoadOne reads the next FASTQ record pair into slots (index, index^1)
// the first time either half of a pair is requested, and is a no-op on
// the second call for the same pair. index must be even for mate1 or odd
// for mate2; this mirrors PipelineDriver's "mate1 at 2*i, mate2 at
// 2*i+1" convention.
func (b *Batch) LoadOne(index int) (eof bool, err error) {
	pairIndex := index &^ 1
	if b.seqs[pairIndex] != nil {
		return false, nil
	}

	var r1, r2 fastq.Read
	if !b.scanner.Scan(&r1, &r2) {
		if err := b.scanner.Err(); err != nil {
			return false, errors.E(err, "seqio: scanning FASTQ pair")
		}
		return true, nil
	}

	b.seqs[pairIndex] = []byte(r1.Seq)
	b.seqs[pairIndex+1] = []byte(r2.Seq)
	return false, nil
}

// PrepareNegative caches the reverse complement of read index for
// subsequent NegativeSequence calls.
func (b *Batch) PrepareNegative(index int) {
	seq := b.seqs[index]
	neg := make([]byte, len(seq))
	biosimd.ReverseComp8NoValidate(neg, seq)
	b.negs[index] = neg
	b.negValid[index] = true
}

// Sequence returns the forward-strand bytes loaded for index.
func (b *Batch) Sequence(index int) []byte { return b.seqs[index] }

// NegativeSequence returns the reverse complement cached by
// PrepareNegative. It panics if PrepareNegative was not yet called for
// index, since that indicates a caller ordering bug.
func (b *Batch) NegativeSequence(index int) []byte {
	if !b.negValid[index] {
		panic("seqio: NegativeSequence called before PrepareNegative")
	}
	return b.negs[index]
}

// Length returns the current (possibly trimmed) length of read index.
func (b *Batch) Length(index int) int { return len(b.seqs[index]) }

// ID returns the 0-based read-pair id read index belongs to.
func (b *Batch) ID(index int) uint32 { return uint32(index / 2) }

// Trim cuts read index (and its cached reverse complement, if any) down
// to overlapLength bytes.
func (b *Batch) Trim(index int, overlapLength int) {
	b.seqs[index] = b.seqs[index][:overlapLength]
	if b.negValid[index] {
		b.negs[index] = b.negs[index][len(b.negs[index])-overlapLength:]
	}
}

// GenerateSeed packs length bases of read index starting at offset into
// a uint64, 2 bits per base (A=0, C=1, G=2, T=3; any other byte maps to
// 0), used as dedup.BarcodeSeedFilter's seed key. length must be <= 32.
func (b *Batch) GenerateSeed(index, offset, length int) uint64 {
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
