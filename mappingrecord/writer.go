// Package mappingrecord defines the output Writer contract SPEC_FULL.md
// §6 leaves to callers, plus a minimal TagAlign renderer so cmd/chromap
// is runnable end-to-end without a real production output formatter.
package mappingrecord

import (
	"bufio"
	"fmt"
	"io"

	"github.com/grailbio/chromap"
	"github.com/grailbio/chromap/record"
)

// Writer accepts paired-end mapping records for a reference and renders
// them in whatever format the caller chooses (BED, TagAlign, PAF, ...).
// This core never implements a format itself beyond the minimal
// TagAlignWriter below.
type Writer interface {
	WritePairedEnd(ref chromap.Reference, r record.PairedEnd) error
	WriteSingleEnd(ref chromap.Reference, r record.SingleEnd) error
	Close() error
}

// TagAlignWriter renders paired-end records as two TagAlign lines per
// fragment (one per mate), the line shape SPEC_FULL.md §6 names:
// "name\tstart\tend\tN\t1000\tstrand".
type TagAlignWriter struct {
	w *bufio.Writer
}

// NewTagAlignWriter wraps w for buffered TagAlign output.
func NewTagAlignWriter(w io.Writer) *TagAlignWriter {
	return &TagAlignWriter{w: bufio.NewWriter(w)}
}

// WritePairedEnd implements Writer. Mate1 occupies the first
// PositiveLength bases of the fragment (or the last, depending on
// strand); mate2 occupies the remainder.
func (t *TagAlignWriter) WritePairedEnd(ref chromap.Reference, r record.PairedEnd) error {
	name := ref.Name(r.RefID)
	fragStart := r.FragmentStart
	fragEnd := fragStart + uint32(r.FragmentLength)
	mate1Len := uint32(r.PositiveLength())

	mate1Strand, mate2Strand := "+", "-"
	var mate1Start, mate1End, mate2Start, mate2End uint32
	if r.Mate1Positive() {
		mate1Start, mate1End = fragStart, fragStart+mate1Len
		mate2Start, mate2End = fragEnd-uint32(r.NegativeAlignLen), fragEnd
	} else {
		mate1Strand, mate2Strand = "-", "+"
		mate1Start, mate1End = fragEnd-mate1Len, fragEnd
		mate2Start, mate2End = fragStart, fragStart+uint32(r.NegativeAlignLen)
	}

	if _, err := fmt.Fprintf(t.w, "%s\t%d\t%d\tN\t1000\t%s\n", name, mate1Start, mate1End, mate1Strand); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(t.w, "%s\t%d\t%d\tN\t1000\t%s\n", name, mate2Start, mate2End, mate2Strand); err != nil {
		return err
	}
	return nil
}

// WriteSingleEnd implements Writer. record.SingleEnd (SPEC_FULL.md §3)
// carries no reference id or strand, unlike PairedEnd, so this writer
// can only place unpaired reads against the first reference sequence
// and reports them on the positive strand; multi-reference single-end
// runs need a MappingRecord variant richer than the current spec's.
func (t *TagAlignWriter) WriteSingleEnd(ref chromap.Reference, r record.SingleEnd) error {
	name := ref.Name(0)
	end := r.Start + uint32(r.Length)
	_, err := fmt.Fprintf(t.w, "%s\t%d\t%d\tN\t1000\t+\n", name, r.Start, end)
	return err
}

// Close flushes any buffered output.
func (t *TagAlignWriter) Close() error {
	return t.w.Flush()
}
