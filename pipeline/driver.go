package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/chromap"
	"github.com/grailbio/chromap/align"
	"github.com/grailbio/chromap/bestmap"
	"github.com/grailbio/chromap/dedup"
	"github.com/grailbio/chromap/mapq"
	"github.com/grailbio/chromap/multimap"
	"github.com/grailbio/chromap/pair"
	"github.com/grailbio/chromap/record"
	"github.com/grailbio/chromap/trim"
	"github.com/grailbio/chromap/verify"
)

// minOverlap is the minimum required mate overlap PairResolver's bounds
// formula subtracts from the non-anchor mate's length (SPEC_FULL.md
// §4.3). No configuration knob in Opts controls it, so it is fixed at
// zero: the window formula then reduces to insert-size-only bounding.
const minOverlap = 0

// Driver is PipelineDriver: it drives CandidateVerifier, PairResolver,
// MapqScorer, BestMappingSelector, DuplicateFilter and
// MultiMappingAllocator over a SequenceBatch, the way bio-fusion's
// processFASTQ/processRequests pair drives fusion detection over a
// worker pool, grounded on the same request/response channel pattern.
type Driver struct {
	Opts  chromap.Opts
	Index chromap.Index
	Ref   chromap.Reference
}

// NewDriver constructs a Driver. opts must already have passed Validate.
func NewDriver(opts chromap.Opts, idx chromap.Index, ref chromap.Reference) *Driver {
	return &Driver{Opts: opts, Index: idx, Ref: ref}
}

// candidatePair is one concrete (mate1 end, mate2 end) pairing, with its
// originating reference resolved, ready to become a record.PairedEnd or
// a multimap.Candidate. pos1/pos2 are the alignment *end* positions
// verify.Verify recorded (the window's last matched base, §4.2); text1/
// text2 are the read bytes (forward or reverse-complement, whichever
// orientation this pairing used) each position was verified against, kept
// around so fragmentSpan can run traceback.
type candidatePair struct {
	pos1, pos2       uint64 // packed ref_id|pos
	errors1, errors2 int
	text1, text2     []byte
	sumErrors        int
	mate1Positive    bool
}

// fragmentSpan runs BandedAligner traceback on both mates (SPEC_FULL.md
// §4.5) to locate each mate's actual alignment start, and returns the
// fragment's outer boundaries: the leftmost start and the rightmost end
// across both mates' alignments.
func (d *Driver) fragmentSpan(c candidatePair) (refID, start, end uint32) {
	e := d.Opts.ErrorThreshold
	refID, start1, end1 := d.mateSpan(c.pos1, c.text1, c.errors1, e)
	_, start2, end2 := d.mateSpan(c.pos2, c.text2, c.errors2, e)

	start = start1
	if start2 < start {
		start = start2
	}
	end = end1
	if end2 > end {
		end = end2
	}
	return refID, start, end
}

// mateSpan locates one mate's actual alignment start via BandedAligner
// traceback over the same verification window CandidateVerifier used to
// confirm it (SPEC_FULL.md §4.2), given its already-known alignment end
// (the packed position verify.Verify recorded) and error count.
func (d *Driver) mateSpan(packed uint64, text []byte, errs, e int) (refID, start, end uint32) {
	refID, pos := chromap.UnpackRefPos(packed)
	readLength := len(text)
	windowStart := int(pos) + 1 - readLength - e
	windowEnd := windowStart + readLength + 2*e
	window := d.Ref.Sequence(refID)[windowStart:windowEnd]

	startOffset := align.Traceback(window, text, e, errs)
	return refID, uint32(windowStart + startOffset), pos + 1
}

// pairsFrom expands a pair.Best's index-based Pairings into concrete
// position pairs using the sorted hit slices ResolvePairs returned
// alongside it. text1/text2 are the read bytes this orientation verified
// mate1/mate2 against (forward or reverse-complement).
func pairsFrom(best pair.Best, sh1, sh2 []verify.Hit, text1, text2 []byte, mate1Positive bool) []candidatePair {
	out := make([]candidatePair, 0, len(best.BestPairings))
	for _, p := range best.BestPairings {
		h1, h2 := sh1[p.Idx1], sh2[p.Idx2]
		out = append(out, candidatePair{
			pos1: h1.Packed, pos2: h2.Packed,
			errors1: h1.Errors, errors2: h2.Errors,
			text1: text1, text2: text2,
			sumErrors: p.SumErrors, mate1Positive: mate1Positive,
		})
	}
	return out
}

// mapOnePair runs CandidateVerifier and PairResolver in both mate
// orientations and folds the results into the globally best and
// second-best scoring candidate pairs.
func (d *Driver) mapOnePair(seq1, seq2, negSeq1, negSeq2 []byte) (best []candidatePair, secondCount int) {
	w := uint32(d.Opts.MaxInsertSize)
	read1Len, read2Len := len(seq1), len(seq2)

	min1 := d.Index.Sketch(seq1)
	_, _, pos1, neg1 := d.Index.Candidates(min1)
	min2 := d.Index.Sketch(seq2)
	_, _, pos2, neg2 := d.Index.Candidates(min2)

	rPos1, rNeg2 := pair.ReduceCandidates(pos1, neg2, w)
	hits1FR, _ := verify.Verify(seq1, rPos1, d.Ref, d.Opts.ErrorThreshold)
	hits2FR, _ := verify.Verify(negSeq2, rNeg2, d.Ref, d.Opts.ErrorThreshold)
	bestFR, sh1FR, sh2FR := pair.ResolvePairs(hits1FR, hits2FR, pair.FR, w, read1Len, read2Len, minOverlap)

	rNeg1, rPos2 := pair.ReduceCandidates(neg1, pos2, w)
	hits1RF, _ := verify.Verify(negSeq1, rNeg1, d.Ref, d.Opts.ErrorThreshold)
	hits2RF, _ := verify.Verify(seq2, rPos2, d.Ref, d.Opts.ErrorThreshold)
	bestRF, sh1RF, sh2RF := pair.ResolvePairs(hits1RF, hits2RF, pair.RF, w, read1Len, read2Len, minOverlap)

	minSum, secondSum := -1, -1
	var bests []candidatePair
	fold := func(c candidatePair) {
		switch {
		case minSum < 0 || c.sumErrors < minSum:
			secondSum, secondCount = minSum, len(bests)
			minSum = c.sumErrors
			bests = []candidatePair{c}
		case c.sumErrors == minSum:
			bests = append(bests, c)
		case c.sumErrors == secondSum:
			secondCount++
		case secondSum < 0 || c.sumErrors < secondSum:
			secondSum = c.sumErrors
			secondCount = 1
		}
	}
	for _, c := range pairsFrom(bestFR, sh1FR, sh2FR, seq1, negSeq2, true) {
		fold(c)
	}
	for _, c := range pairsFrom(bestRF, sh1RF, sh2RF, negSeq1, seq2, false) {
		fold(c)
	}
	// Each orientation's own second-best tally never surfaces as concrete
	// pairs (PairResolver keeps only counts past the minimum), but still
	// contributes to the MAPQ multiplicity.
	for _, s := range [2]pair.Best{bestFR, bestRF} {
		if s.SecondMinSumErrors < 0 || s.SecondCount == 0 {
			continue
		}
		switch {
		case s.SecondMinSumErrors == minSum:
		case s.SecondMinSumErrors == secondSum:
			secondCount += s.SecondCount
		case secondSum < 0 || s.SecondMinSumErrors < secondSum:
			secondSum = s.SecondMinSumErrors
			secondCount = s.SecondCount
		}
	}
	return bests, secondCount
}

// buildRecord turns one resolved candidatePair into the PairedEnd record
// SPEC_FULL.md §3 describes, after running traceback to find the
// fragment's true boundaries (§4.5).
func (d *Driver) buildRecord(readID, barcode uint32, c candidatePair, mapqScore uint8, applyTn5 bool) record.PairedEnd {
	refID, start, end := d.fragmentSpan(c)
	if applyTn5 {
		start, end = ApplyTn5Shift(start, end)
	}
	length := end - start
	return record.PairedEnd{
		ReadID:           readID,
		Barcode:          barcode,
		RefID:            refID,
		FragmentStart:    start,
		FragmentLength:   uint16(length),
		Mapq:             mapqScore,
		PositiveAlignLen: record.PackPositiveAlignLen(uint16(len(c.text1)), c.mate1Positive),
		NegativeAlignLen: uint16(len(c.text2)),
	}
}

// pendingMulti is a multi-mapped read deferred to the allocation pass.
type pendingMulti struct {
	readID    uint32
	cands     []candidatePair
	mapqScore uint8
}

// readBatchItem is one loaded read pair handed from the loader goroutine
// to the worker pool.
type readBatchItem struct {
	i1, i2 int
	readID uint32
}

// treeAdd is one uniquely-mapped fragment a worker found, deferred so the
// single collector goroutine is the only writer of the shared per-
// reference interval trees (SPEC_FULL.md §5's single-writer policy).
type treeAdd struct {
	refID      uint32
	start, end uint32
}

// workerResult is one worker goroutine's thread-local per-reference
// buffer (SPEC_FULL.md §5): the emitted records, statistics, deferred
// multi-mapped reads, and tree insertions it accumulated over every item
// it drained from the work channel.
type workerResult struct {
	stats    Stats
	records  []record.PairedEnd
	pending  []pendingMulti
	treeAdds []treeAdd
}

// mapOneItem runs the inner pipeline (length filter, adapter trim,
// verify, resolve, score) for one read pair, folding the outcome into
// res rather than any shared state, so workers never block on each other
// during mapping (SPEC_FULL.md §5).
func (d *Driver) mapOneItem(batch chromap.SequenceBatch, item readBatchItem, res *workerResult) {
	i1, i2 := item.i1, item.i2
	res.stats.NumReads++

	if batch.Length(i1) < d.Opts.MinReadLength || batch.Length(i2) < d.Opts.MinReadLength {
		res.stats.NumTooShort++
		return
	}

	if d.Opts.TrimAdapters {
		if overlap, trimmed := trim.Trim(batch.Sequence(i1), batch.Sequence(i2), d.Opts.MinReadLength); trimmed {
			batch.Trim(i1, overlap)
			batch.Trim(i2, overlap)
		}
	}

	batch.PrepareNegative(i1)
	batch.PrepareNegative(i2)
	seq1, seq2 := batch.Sequence(i1), batch.Sequence(i2)
	negSeq1, negSeq2 := batch.NegativeSequence(i1), batch.NegativeSequence(i2)

	best, secondCount := d.mapOnePair(seq1, seq2, negSeq1, negSeq2)
	if len(best) == 0 {
		res.stats.NumUnmapped++
		return
	}

	mapqScore := mapq.Score(len(best), secondCount)

	if len(best) == 1 {
		res.stats.NumUniquelyMapped++
		res.records = append(res.records, d.buildRecord(item.readID, 0, best[0], mapqScore, !d.Opts.IsBulkData))

		refID, start, end := d.fragmentSpan(best[0])
		res.treeAdds = append(res.treeAdds, treeAdd{refID: refID, start: start, end: end})
		return
	}

	res.stats.NumMultiMapped++
	if d.Opts.OnlyOutputUniqueMappings {
		return
	}
	res.pending = append(res.pending, pendingMulti{readID: item.readID, cands: best, mapqScore: mapqScore})
}

// RunPaired maps numPairs read pairs loaded from batch (mate1 at even
// indices, mate2 at the following odd index) and returns the emitted
// records plus run statistics.
//
// The batch loop follows SPEC_FULL.md §5's Go realization: a loader
// goroutine advances batch sequentially (SequenceBatch.LoadOne is not
// safe for concurrent callers) and feeds a buffered channel; a pool of
// Opts.NumThreads worker goroutines drains that channel, each mapping
// into its own thread-local workerResult so no worker blocks on another
// during mapping; this goroutine is the single collector, merging every
// worker's result into the run-wide records/stats/trees only after both
// a loader and a worker sync.WaitGroup have drained. Multi-mapped reads
// are resolved in a second, sequential pass once every uniquely-mapped
// fragment is known, so MultiMappingAllocator can weight candidates by
// nearby unique coverage.
func (d *Driver) RunPaired(ctx context.Context, batch chromap.SequenceBatch, numPairs int) ([]record.PairedEnd, Stats, error) {
	numWorkers := d.Opts.NumThreads
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	items := make(chan readBatchItem, numWorkers*4)
	results := make(chan workerResult, numWorkers)

	var loadErr error
	var loaderWG sync.WaitGroup
	loaderWG.Add(1)
	go func() {
		defer loaderWG.Done()
		defer close(items)
		for i := 0; i < numPairs; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}

			i1, i2 := 2*i, 2*i+1
			eof1, err := batch.LoadOne(i1)
			if err != nil {
				loadErr = err
				return
			}
			eof2, err := batch.LoadOne(i2)
			if err != nil {
				loadErr = err
				return
			}
			if eof1 || eof2 {
				return
			}

			select {
			case items <- readBatchItem{i1: i1, i2: i2, readID: batch.ID(i1)}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var workersWG sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			var res workerResult
			for item := range items {
				d.mapOneItem(batch, item, &res)
			}
			results <- res
		}()
	}

	loaderWG.Wait()
	workersWG.Wait()
	close(results)

	if loadErr != nil {
		return nil, Stats{}, loadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	var records []record.PairedEnd
	var pending []pendingMulti
	trees := map[uint32]*multimap.Tree{}
	for res := range results {
		stats = stats.Merge(res.stats)
		records = append(records, res.records...)
		pending = append(pending, res.pending...)
		for _, ta := range res.treeAdds {
			tr, ok := trees[ta.refID]
			if !ok {
				tr = multimap.New()
				trees[ta.refID] = tr
			}
			tr.Add(ta.start, ta.end)
		}
	}

	for _, tr := range trees {
		tr.Index()
	}

	multiRecords, err := d.resolveMulti(pending, trees)
	if err != nil {
		return nil, stats, err
	}
	records = append(records, multiRecords...)

	if d.Opts.RemovePCRDuplicates {
		records, stats.NumDuplicatesRemoved = dedupRecords(records)
	}

	return records, stats, nil
}

// resolveMulti assigns each deferred multi-mapped read either one
// allocated locus (MultiMappingAllocator, when AllocateMultiMappings is
// set) or a reservoir-sampled subset of its candidate loci
// (BestMappingSelector), dropping reads that exceed DropRepetitiveReads.
func (d *Driver) resolveMulti(pending []pendingMulti, trees map[uint32]*multimap.Tree) ([]record.PairedEnd, error) {
	var out []record.PairedEnd
	var allocator *multimap.Allocator
	if d.Opts.AllocateMultiMappings {
		allocator = multimap.NewAllocator(trees)
	}

	for _, pm := range pending {
		rng := bestmap.NewReadRNG(d.Opts.AllocationSeed, pm.readID)

		if allocator != nil {
			mcands := make([]multimap.Candidate, len(pm.cands))
			for i, c := range pm.cands {
				refID, start, end := d.fragmentSpan(c)
				mcands[i] = multimap.Candidate{RefID: refID, Start: start, Length: end - start}
			}
			chosen := allocator.Allocate(mcands, rng)
			if chosen < 0 {
				log.Printf("chromap: read %d has no multi-mapping candidates, skipping", pm.readID)
				continue
			}
			out = append(out, d.buildRecord(pm.readID, 0, pm.cands[chosen], pm.mapqScore, !d.Opts.IsBulkData))
			continue
		}

		indices, dropped := bestmap.Select(len(pm.cands), d.Opts.MaxNumBestMappings, d.Opts.DropRepetitiveReads, rng)
		if dropped {
			continue
		}
		for _, idx := range indices {
			out = append(out, d.buildRecord(pm.readID, 0, pm.cands[idx], pm.mapqScore, !d.Opts.IsBulkData))
		}
	}
	return out, nil
}

// singleCandidate is one verified single-end alignment, analogous to
// candidatePair but for an unpaired read: pos is the alignment *end*
// position verify.Verify recorded, and text is the read bytes (forward
// or reverse-complement, whichever strand this candidate verified
// against) traceback needs to locate the true start.
type singleCandidate struct {
	pos      uint64
	errors   int
	text     []byte
	positive bool
}

// singleSpan runs BandedAligner traceback (SPEC_FULL.md §4.5) to locate
// c's true alignment start, returning its [start, end) span.
func (d *Driver) singleSpan(c singleCandidate) (refID, start, end uint32) {
	return d.mateSpan(c.pos, c.text, c.errors, d.Opts.ErrorThreshold)
}

// mapOneRead runs CandidateVerifier over both strands of one unpaired
// read and folds the results into the globally best and second-best
// scoring candidates, the single-end analogue of mapOnePair.
func (d *Driver) mapOneRead(seq, negSeq []byte) (best []singleCandidate, secondCount int) {
	mins := d.Index.Sketch(seq)
	_, _, pos, neg := d.Index.Candidates(mins)

	hitsPos, _ := verify.Verify(seq, pos, d.Ref, d.Opts.ErrorThreshold)
	hitsNeg, _ := verify.Verify(negSeq, neg, d.Ref, d.Opts.ErrorThreshold)

	minErrs, secondErrs := -1, -1
	var bests []singleCandidate
	fold := func(c singleCandidate) {
		switch {
		case minErrs < 0 || c.errors < minErrs:
			secondErrs, secondCount = minErrs, len(bests)
			minErrs = c.errors
			bests = []singleCandidate{c}
		case c.errors == minErrs:
			bests = append(bests, c)
		case c.errors == secondErrs:
			secondCount++
		case secondErrs < 0 || c.errors < secondErrs:
			secondErrs = c.errors
			secondCount = 1
		}
	}
	for _, h := range hitsPos {
		fold(singleCandidate{pos: h.Packed, errors: h.Errors, text: seq, positive: true})
	}
	for _, h := range hitsNeg {
		fold(singleCandidate{pos: h.Packed, errors: h.Errors, text: negSeq, positive: false})
	}
	return bests, secondCount
}

// buildSingleRecord turns one resolved singleCandidate into the
// SingleEnd record SPEC_FULL.md §3 describes, after running traceback
// to find the alignment's true start (§4.5).
func (d *Driver) buildSingleRecord(readID, barcode uint32, c singleCandidate, mapqScore uint8, applyTn5 bool) record.SingleEnd {
	_, start, end := d.singleSpan(c)
	if applyTn5 {
		start, end = ApplyTn5Shift(start, end)
	}
	return record.SingleEnd{
		ReadID:  readID,
		Barcode: barcode,
		Start:   start,
		Length:  uint16(end - start),
		Mapq:    mapqScore,
	}
}

// pendingMultiSingle is a multi-mapped unpaired read deferred to the
// allocation pass.
type pendingMultiSingle struct {
	readID    uint32
	cands     []singleCandidate
	mapqScore uint8
}

// readItemSingle is one loaded unpaired read handed from the loader
// goroutine to the worker pool.
type readItemSingle struct {
	i      int
	readID uint32
}

// workerResultSingle is one worker goroutine's thread-local buffer, the
// single-end analogue of workerResult.
type workerResultSingle struct {
	stats    Stats
	records  []record.SingleEnd
	pending  []pendingMultiSingle
	treeAdds []treeAdd
}

// mapOneItemSingle runs the inner pipeline (length filter, verify,
// score) for one unpaired read, folding the outcome into res.
func (d *Driver) mapOneItemSingle(batch chromap.SequenceBatch, item readItemSingle, res *workerResultSingle) {
	i := item.i
	res.stats.NumReads++

	if batch.Length(i) < d.Opts.MinReadLength {
		res.stats.NumTooShort++
		return
	}

	batch.PrepareNegative(i)
	seq, negSeq := batch.Sequence(i), batch.NegativeSequence(i)

	best, secondCount := d.mapOneRead(seq, negSeq)
	if len(best) == 0 {
		res.stats.NumUnmapped++
		return
	}

	mapqScore := mapq.Score(len(best), secondCount)

	if len(best) == 1 {
		res.stats.NumUniquelyMapped++
		res.records = append(res.records, d.buildSingleRecord(item.readID, 0, best[0], mapqScore, !d.Opts.IsBulkData))

		refID, start, end := d.singleSpan(best[0])
		res.treeAdds = append(res.treeAdds, treeAdd{refID: refID, start: start, end: end})
		return
	}

	res.stats.NumMultiMapped++
	if d.Opts.OnlyOutputUniqueMappings {
		return
	}
	res.pending = append(res.pending, pendingMultiSingle{readID: item.readID, cands: best, mapqScore: mapqScore})
}

// RunSingleEnd maps numReads unpaired reads loaded from batch and
// returns the emitted records plus run statistics. Unlike RunPaired
// there is no PairResolver stage: each read is verified and scored on
// its own. Concurrency, ordering guarantees, and the deferred
// multi-mapping/dedup passes otherwise mirror RunPaired exactly
// (SPEC_FULL.md §5).
func (d *Driver) RunSingleEnd(ctx context.Context, batch chromap.SequenceBatch, numReads int) ([]record.SingleEnd, Stats, error) {
	numWorkers := d.Opts.NumThreads
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	items := make(chan readItemSingle, numWorkers*4)
	results := make(chan workerResultSingle, numWorkers)

	var loadErr error
	var loaderWG sync.WaitGroup
	loaderWG.Add(1)
	go func() {
		defer loaderWG.Done()
		defer close(items)
		for i := 0; i < numReads; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}

			eof, err := batch.LoadOne(i)
			if err != nil {
				loadErr = err
				return
			}
			if eof {
				return
			}

			select {
			case items <- readItemSingle{i: i, readID: batch.ID(i)}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var workersWG sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			var res workerResultSingle
			for item := range items {
				d.mapOneItemSingle(batch, item, &res)
			}
			results <- res
		}()
	}

	loaderWG.Wait()
	workersWG.Wait()
	close(results)

	if loadErr != nil {
		return nil, Stats{}, loadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	var records []record.SingleEnd
	var pending []pendingMultiSingle
	trees := map[uint32]*multimap.Tree{}
	for res := range results {
		stats = stats.Merge(res.stats)
		records = append(records, res.records...)
		pending = append(pending, res.pending...)
		for _, ta := range res.treeAdds {
			tr, ok := trees[ta.refID]
			if !ok {
				tr = multimap.New()
				trees[ta.refID] = tr
			}
			tr.Add(ta.start, ta.end)
		}
	}

	for _, tr := range trees {
		tr.Index()
	}

	multiRecords, err := d.resolveMultiSingle(pending, trees)
	if err != nil {
		return nil, stats, err
	}
	records = append(records, multiRecords...)

	if d.Opts.RemovePCRDuplicates {
		records, stats.NumDuplicatesRemoved = dedupRecordsSingle(records)
	}

	return records, stats, nil
}

// resolveMultiSingle is the single-end analogue of resolveMulti.
func (d *Driver) resolveMultiSingle(pending []pendingMultiSingle, trees map[uint32]*multimap.Tree) ([]record.SingleEnd, error) {
	var out []record.SingleEnd
	var allocator *multimap.Allocator
	if d.Opts.AllocateMultiMappings {
		allocator = multimap.NewAllocator(trees)
	}

	for _, pm := range pending {
		rng := bestmap.NewReadRNG(d.Opts.AllocationSeed, pm.readID)

		if allocator != nil {
			mcands := make([]multimap.Candidate, len(pm.cands))
			for i, c := range pm.cands {
				refID, start, end := d.singleSpan(c)
				mcands[i] = multimap.Candidate{RefID: refID, Start: start, Length: end - start}
			}
			chosen := allocator.Allocate(mcands, rng)
			if chosen < 0 {
				log.Printf("chromap: read %d has no multi-mapping candidates, skipping", pm.readID)
				continue
			}
			out = append(out, d.buildSingleRecord(pm.readID, 0, pm.cands[chosen], pm.mapqScore, !d.Opts.IsBulkData))
			continue
		}

		indices, dropped := bestmap.Select(len(pm.cands), d.Opts.MaxNumBestMappings, d.Opts.DropRepetitiveReads, rng)
		if dropped {
			continue
		}
		for _, idx := range indices {
			out = append(out, d.buildSingleRecord(pm.readID, 0, pm.cands[idx], pm.mapqScore, !d.Opts.IsBulkData))
		}
	}
	return out, nil
}

// dedupRecordsSingle is the single-end analogue of dedupRecords.
// record.SingleEnd carries no RefID (SPEC_FULL.md §3), so unlike
// dedupRecords this cannot bucket per reference sequence first; it runs
// DuplicateFilter once over the whole batch, which is only exact for a
// single-reference genome (the same limitation TagAlignWriter.
// WriteSingleEnd documents).
func dedupRecordsSingle(records []record.SingleEnd) ([]record.SingleEnd, uint64) {
	keyed := make([]dedup.Keyed, len(records))
	for i, r := range records {
		keyed[i] = singleKey{r}
	}
	filtered := dedup.Filter(keyed, func(a, b dedup.Keyed) bool {
		ra, rb := a.(singleKey).SingleEnd, b.(singleKey).SingleEnd
		return ra == rb
	})
	out := make([]record.SingleEnd, len(filtered))
	for i, k := range filtered {
		out[i] = k.(singleKey).SingleEnd
	}
	return out, uint64(len(records) - len(out))
}

type singleKey struct{ record.SingleEnd }

func (s singleKey) Key() uint64 { return s.SingleEnd.Key() }

// dedupRecords applies DuplicateFilter per reference sequence, the way
// SPEC_FULL.md §4.7 scopes the sort-and-unique pass to each reference's
// own mapping vector, returning the surviving records and the count
// removed.
func dedupRecords(records []record.PairedEnd) ([]record.PairedEnd, uint64) {
	byRef := map[uint32][]record.PairedEnd{}
	order := []uint32{}
	for _, r := range records {
		if _, ok := byRef[r.RefID]; !ok {
			order = append(order, r.RefID)
		}
		byRef[r.RefID] = append(byRef[r.RefID], r)
	}

	var out []record.PairedEnd
	for _, refID := range order {
		bucket := byRef[refID]
		keyed := make([]dedup.Keyed, len(bucket))
		for i, r := range bucket {
			keyed[i] = pairedKey{r}
		}
		filtered := dedup.Filter(keyed, func(a, b dedup.Keyed) bool {
			ra, rb := a.(pairedKey).PairedEnd, b.(pairedKey).PairedEnd
			return ra == rb
		})
		for _, k := range filtered {
			out = append(out, k.(pairedKey).PairedEnd)
		}
	}
	return out, uint64(len(records) - len(out))
}

type pairedKey struct{ record.PairedEnd }

func (p pairedKey) Key() uint64 { return p.PairedEnd.Key() }
