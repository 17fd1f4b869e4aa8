// Package seedindex is a minimal, in-memory chromap.Index: exact k-mer
// seeding with no minimizer window reduction. Full minimizer index
// construction is out of scope for this core (SPEC_FULL.md §1); this
// package exists only so cmd/chromap has something to map against on
// small references without depending on an external index builder.
package seedindex

import (
	"sort"

	"github.com/grailbio/chromap"
)

// Index builds a hash table from every kmerSize-mer observed in a
// Reference's forward and reverse-complement strands to the sorted list
// of packed ref_id|pos loci it occurs at.
type Index struct {
	kmerSize int
	pos      map[uint64][]uint64 // positive-strand hits
	neg      map[uint64][]uint64 // negative-strand hits
}

// Build indexes every sequence in ref at the given k-mer size. Every
// forward-reference window [i, i+k) is registered twice: once under its
// own k-mer value (a positive-strand hit, for reads that align forward),
// and once under its reverse complement's k-mer value (a negative-strand
// hit, for reads whose reverse complement aligns forward here). Both
// hits are keyed by the window's last base, matching CandidateVerifier's
// windowStart formula (SPEC_FULL.md §4.2), which treats a candidate's
// packed position as the alignment's forward-strand end.
func Build(ref chromap.Reference, kmerSize int) *Index {
	idx := &Index{
		kmerSize: kmerSize,
		pos:      make(map[uint64][]uint64),
		neg:      make(map[uint64][]uint64),
	}
	for rid := uint32(0); rid < ref.NumSequences(); rid++ {
		seq := ref.Sequence(rid)
		k := kmerSize
		for i := 0; i+k <= len(seq); i++ {
			window := seq[i : i+k]
			packed := chromap.PackRefPos(rid, uint32(i+k-1))

			if key, ok := packKmer(window); ok {
				idx.pos[key] = append(idx.pos[key], packed)
			}
			if key, ok := packKmer(reverseComplement(window)); ok {
				idx.neg[key] = append(idx.neg[key], packed)
			}
		}
	}
	return idx
}

// Sketch implements chromap.Index: it returns one "minimizer" per
// position the read has a full k-mer starting at, using the k-mer value
// itself as the minimizer.
func (idx *Index) Sketch(read []byte) []chromap.MinimizerHit {
	k := idx.kmerSize
	if len(read) < k {
		return nil
	}
	hits := make([]chromap.MinimizerHit, 0, len(read)-k+1)
	for i := 0; i+k <= len(read); i++ {
		key, ok := packKmer(read[i : i+k])
		if !ok {
			continue
		}
		hits = append(hits, chromap.MinimizerHit{Minimizer: key, Offset: i})
	}
	return hits
}

// Candidates implements chromap.Index by looking up every minimizer's
// exact-match loci and returning them sorted and deduplicated.
func (idx *Index) Candidates(minimizers []chromap.MinimizerHit) (positiveHits, negativeHits, positiveCandidates, negativeCandidates []uint64) {
	seenPos := map[uint64]bool{}
	seenNeg := map[uint64]bool{}
	for _, m := range minimizers {
		for _, p := range idx.pos[m.Minimizer] {
			if !seenPos[p] {
				seenPos[p] = true
				positiveCandidates = append(positiveCandidates, p)
			}
		}
		for _, p := range idx.neg[m.Minimizer] {
			if !seenNeg[p] {
				seenNeg[p] = true
				negativeCandidates = append(negativeCandidates, p)
			}
		}
	}
	sort.Slice(positiveCandidates, func(i, j int) bool { return positiveCandidates[i] < positiveCandidates[j] })
	sort.Slice(negativeCandidates, func(i, j int) bool { return negativeCandidates[i] < negativeCandidates[j] })
	return nil, nil, positiveCandidates, negativeCandidates
}

// packKmer packs a fixed-length nucleotide k-mer into a uint64, 2 bits
// per base. It reports false if the k-mer is longer than 32 bases or
// contains an ambiguity code.
func packKmer(kmer []byte) (uint64, bool) {
	if len(kmer) > 32 {
		return 0, false
	}
	var v uint64
	for _, c := range kmer {
		v <<= 2
		switch c {
		case 'A':
		case 'C':
			v |= 1
		case 'G':
			v |= 2
		case 'T':
			v |= 3
		default:
			return 0, false
		}
	}
	return v, true
}

func reverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, c := range seq {
		var r byte
		switch c {
		case 'A':
			r = 'T'
		case 'T':
			r = 'A'
		case 'C':
			r = 'G'
		case 'G':
			r = 'C'
		default:
			r = c
		}
		out[len(seq)-1-i] = r
	}
	return out
}
