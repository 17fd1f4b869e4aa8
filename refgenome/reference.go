// Package refgenome adapts an in-memory encoding/fasta.Fasta into a
// chromap.Reference, assigning reference ids in FASTA appearance order.
package refgenome

import (
	"io"

	"github.com/grailbio/base/errors"

	"github.com/grailbio/chromap/encoding/fasta"
)

// Reference implements chromap.Reference over a fasta.Fasta loaded
// entirely into memory.
type Reference struct {
	fa      fasta.Fasta
	names   []string
	seqs    [][]byte
	lengths []uint32
}

// Load reads a whole FASTA file from r and builds a Reference from it.
func Load(r io.Reader) (*Reference, error) {
	fa, err := fasta.New(r)
	if err != nil {
		return nil, errors.E(err, "refgenome: parsing FASTA reference")
	}

	names := fa.SeqNames()
	ref := &Reference{
		fa:      fa,
		names:   names,
		seqs:    make([][]byte, len(names)),
		lengths: make([]uint32, len(names)),
	}
	for i, name := range names {
		n, err := fa.Len(name)
		if err != nil {
			return nil, errors.E(err, "refgenome: reading sequence length for "+name)
		}
		s, err := fa.Get(name, 0, n)
		if err != nil {
			return nil, errors.E(err, "refgenome: reading sequence for "+name)
		}
		ref.seqs[i] = []byte(s)
		ref.lengths[i] = uint32(n)
	}
	return ref, nil
}

// NumSequences implements chromap.Reference.
func (r *Reference) NumSequences() uint32 { return uint32(len(r.names)) }

// Name implements chromap.Reference.
func (r *Reference) Name(rid uint32) string { return r.names[rid] }

// Length implements chromap.Reference.
func (r *Reference) Length(rid uint32) uint32 { return r.lengths[rid] }

// Sequence implements chromap.Reference.
func (r *Reference) Sequence(rid uint32) []byte { return r.seqs[rid] }

// RefID returns the reference id assigned to name and whether name was
// found among the loaded sequences.
func (r *Reference) RefID(name string) (uint32, bool) {
	for i, n := range r.names {
		if n == name {
			return uint32(i), true
		}
	}
	return 0, false
}
