package pipeline

// Tn5 shift constants: the Tn5 transposase inserts via a 9bp staggered
// cut, so the read start on the forward strand is shifted +4bp and the
// read end on the reverse strand is shifted -5bp to recover the
// transposition midpoint. Applied only to ATAC-seq (non-bulk) data.
const (
	tn5ForwardShift = 4
	tn5ReverseShift = 5
)

// ApplyTn5Shift corrects a fragment's [start, end) span for the Tn5
// insertion offset. It is only meaningful for ATAC-seq libraries
// (!Opts.IsBulkData); bulk ChIP-seq callers must not call it.
func ApplyTn5Shift(start, end uint32) (shiftedStart, shiftedEnd uint32) {
	shiftedStart = start + tn5ForwardShift
	if end > tn5ReverseShift {
		shiftedEnd = end - tn5ReverseShift
	}
	return shiftedStart, shiftedEnd
}
