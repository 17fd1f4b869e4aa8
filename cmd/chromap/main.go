// Command chromap maps paired-end ChIP-seq/ATAC-seq reads (single-end
// reads when -r2 is omitted) against a FASTA reference and emits
// TagAlign records. It wires together the
// collaborators SPEC_FULL.md §6 leaves external to the core library:
// a FASTA-backed Reference (refgenome), a FASTQ-backed SequenceBatch
// (seqio), and a minimal exact-match seed Index (seedindex), since
// minimizer index construction/load is out of this core's scope.
package main

import (
	"context"
	"flag"
	"io"
	"time"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/chromap"
	"github.com/grailbio/chromap/encoding/fastq"
	"github.com/grailbio/chromap/mappingrecord"
	"github.com/grailbio/chromap/pipeline"
	"github.com/grailbio/chromap/refgenome"
	"github.com/grailbio/chromap/seedindex"
	"github.com/grailbio/chromap/seqio"
)

type cmdFlags struct {
	refPath        string
	r1Path, r2Path string
	outPath        string

	errorThreshold           int
	kmerSize                 int
	maxNumBestMappings       int
	maxInsertSize            int
	minReadLength            int
	allocationSeed           int64
	dropRepetitiveReads      int
	batchSize                int
	numThreads               int
	trimAdapters             bool
	removePCRDuplicates      bool
	isBulkData               bool
	allocateMultiMappings    bool
	onlyOutputUniqueMappings bool
}

func parseFlags() cmdFlags {
	defaults := chromap.DefaultOpts()
	var f cmdFlags
	flag.StringVar(&f.refPath, "ref", "", "Path to a FASTA reference.")
	flag.StringVar(&f.r1Path, "r1", "", "Path to the mate-1 FASTQ file.")
	flag.StringVar(&f.r2Path, "r2", "", "Path to the mate-2 FASTQ file. Omit for single-end mapping.")
	flag.StringVar(&f.outPath, "o", "", "Path to the output TagAlign file.")

	flag.IntVar(&f.errorThreshold, "e", defaults.ErrorThreshold, "Max edit-distance errors tolerated per read.")
	flag.IntVar(&f.kmerSize, "k", defaults.KmerSize, "Seed k-mer length.")
	flag.IntVar(&f.maxNumBestMappings, "max-num-best-mappings", defaults.MaxNumBestMappings, "Cap on reported loci per multi-mapped read.")
	flag.IntVar(&f.maxInsertSize, "max-insert-size", defaults.MaxInsertSize, "Paired-end insert size window.")
	flag.IntVar(&f.minReadLength, "min-read-length", defaults.MinReadLength, "Reads shorter than this are dropped.")
	flag.Int64Var(&f.allocationSeed, "multi-mapping-allocation-seed", defaults.AllocationSeed, "Seed for multi-mapping allocation/sampling.")
	flag.IntVar(&f.dropRepetitiveReads, "drop-repetitive-reads", defaults.DropRepetitiveReads, "Reads with more candidate loci than this are dropped entirely.")
	flag.IntVar(&f.batchSize, "batch-size", defaults.BatchSize, "Read pairs mapped per batch.")
	flag.IntVar(&f.numThreads, "num-threads", defaults.NumThreads, "Worker goroutines mapping each batch concurrently.")
	flag.BoolVar(&f.trimAdapters, "trim-adapters", defaults.TrimAdapters, "Trim 3' adapter read-through before mapping.")
	flag.BoolVar(&f.removePCRDuplicates, "remove-pcr-duplicates", defaults.RemovePCRDuplicates, "Remove PCR duplicate fragments.")
	flag.BoolVar(&f.isBulkData, "is-bulk-data", defaults.IsBulkData, "Bulk ChIP-seq data; disables the Tn5 shift correction.")
	flag.BoolVar(&f.allocateMultiMappings, "allocate-multi-mappings", defaults.AllocateMultiMappings, "Allocate each multi-mapped read to one locus by nearby unique coverage instead of reporting all best loci.")
	flag.BoolVar(&f.onlyOutputUniqueMappings, "only-output-unique-mappings", defaults.OnlyOutputUniqueMappings, "Drop multi-mapped reads instead of reporting or allocating them.")
	flag.Parse()
	return f
}

func (f cmdFlags) opts() chromap.Opts {
	o := chromap.DefaultOpts()
	o.ErrorThreshold = f.errorThreshold
	o.KmerSize = f.kmerSize
	o.MaxNumBestMappings = f.maxNumBestMappings
	o.MaxInsertSize = f.maxInsertSize
	o.MinReadLength = f.minReadLength
	o.AllocationSeed = f.allocationSeed
	o.DropRepetitiveReads = f.dropRepetitiveReads
	o.BatchSize = f.batchSize
	o.NumThreads = f.numThreads
	o.TrimAdapters = f.trimAdapters
	o.RemovePCRDuplicates = f.removePCRDuplicates
	o.IsBulkData = f.isBulkData
	o.AllocateMultiMappings = f.allocateMultiMappings
	o.OnlyOutputUniqueMappings = f.onlyOutputUniqueMappings
	return o
}

// openMaybeCompressed opens path and transparently unwraps gzip/bgzf
// compression based on its extension, the way readFASTQ does in
// bio-fusion's cmd/bio-fusion/main.go.
func openMaybeCompressed(ctx context.Context, path string) (io.Reader, file.File, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	var r io.Reader = f.Reader(ctx)
	if u := compress.NewReaderPath(r, f.Name()); u != nil {
		r = u
	}
	return r, f, nil
}

func main() {
	flag.Usage = func() {
		log.Print("usage: chromap -ref ref.fa -r1 r1.fastq [-r2 r2.fastq] -o out.tagAlign")
	}
	flags := parseFlags()
	if flags.refPath == "" || flags.r1Path == "" || flags.outPath == "" {
		log.Fatal("chromap: -ref, -r1 and -o are required")
	}

	opts := flags.opts()
	if err := opts.Validate(); err != nil {
		log.Fatalf("chromap: invalid configuration: %v", err)
	}

	shutdown := grail.Init()
	defer shutdown()
	ctx := vcontext.Background()

	var memWatcher pipeline.MemWatcher
	go func() {
		for {
			time.Sleep(500 * time.Millisecond)
			memWatcher.Update()
		}
	}()

	refReader, refFile, err := openMaybeCompressed(ctx, flags.refPath)
	if err != nil {
		log.Fatalf("chromap: open %v: %v", flags.refPath, err)
	}
	ref, err := refgenome.Load(refReader)
	if err != nil {
		log.Fatalf("chromap: load reference %v: %v", flags.refPath, err)
	}
	if err := refFile.Close(ctx); err != nil {
		log.Fatalf("chromap: close %v: %v", flags.refPath, err)
	}
	log.Printf("chromap: loaded %d reference sequences from %s", ref.NumSequences(), flags.refPath)

	index := seedindex.Build(ref, opts.KmerSize)
	driver := pipeline.NewDriver(opts, index, ref)

	outFile, err := file.Create(ctx, flags.outPath)
	if err != nil {
		log.Fatalf("chromap: create %v: %v", flags.outPath, err)
	}
	writer := mappingrecord.NewTagAlignWriter(outFile.Writer(ctx))

	var total pipeline.Stats
	if flags.r2Path == "" {
		total = runSingleEnd(ctx, flags, opts, ref, driver, writer)
	} else {
		total = runPaired(ctx, flags, opts, ref, driver, writer)
	}

	if err := writer.Close(); err != nil {
		log.Fatalf("chromap: flushing %v: %v", flags.outPath, err)
	}
	if err := outFile.Close(ctx); err != nil {
		log.Fatalf("chromap: close %v: %v", flags.outPath, err)
	}

	memWatcher.Update()
	log.Printf("chromap: %s", total.String())
	log.Printf("chromap: %s", memWatcher.String())
}

// runPaired maps flags.r1Path/flags.r2Path as a mate pair, batch by
// batch, until both streams are exhausted.
func runPaired(ctx context.Context, flags cmdFlags, opts chromap.Opts, ref chromap.Reference, driver *pipeline.Driver, writer mappingrecord.Writer) pipeline.Stats {
	r1Reader, r1File, err := openMaybeCompressed(ctx, flags.r1Path)
	if err != nil {
		log.Fatalf("chromap: open %v: %v", flags.r1Path, err)
	}
	defer func() {
		if err := r1File.Close(ctx); err != nil {
			log.Fatalf("chromap: close %v: %v", flags.r1Path, err)
		}
	}()
	r2Reader, r2File, err := openMaybeCompressed(ctx, flags.r2Path)
	if err != nil {
		log.Fatalf("chromap: open %v: %v", flags.r2Path, err)
	}
	defer func() {
		if err := r2File.Close(ctx); err != nil {
			log.Fatalf("chromap: close %v: %v", flags.r2Path, err)
		}
	}()
	scanner := fastq.NewPairScanner(r1Reader, r2Reader, fastq.All)

	var total pipeline.Stats
	for {
		batch := seqio.NewBatch(scanner, opts.BatchSize)
		records, stats, err := driver.RunPaired(ctx, batch, opts.BatchSize)
		if err != nil {
			log.Fatalf("chromap: mapping batch: %v", err)
		}
		total = total.Merge(stats)
		for _, rec := range records {
			if err := writer.WritePairedEnd(ref, rec); err != nil {
				log.Fatalf("chromap: writing output: %v", err)
			}
		}
		if stats.NumReads < uint64(opts.BatchSize) {
			break
		}
	}
	return total
}

// runSingleEnd maps flags.r1Path as an unpaired read stream, batch by
// batch, until the stream is exhausted. Single-end mode has no
// PairResolver stage (SPEC_FULL.md §4.3 is paired-only); each read is
// verified and scored independently.
func runSingleEnd(ctx context.Context, flags cmdFlags, opts chromap.Opts, ref chromap.Reference, driver *pipeline.Driver, writer mappingrecord.Writer) pipeline.Stats {
	r1Reader, r1File, err := openMaybeCompressed(ctx, flags.r1Path)
	if err != nil {
		log.Fatalf("chromap: open %v: %v", flags.r1Path, err)
	}
	defer func() {
		if err := r1File.Close(ctx); err != nil {
			log.Fatalf("chromap: close %v: %v", flags.r1Path, err)
		}
	}()
	scanner := fastq.NewScanner(r1Reader, fastq.All)

	var total pipeline.Stats
	for {
		batch := seqio.NewSingleBatch(scanner, opts.BatchSize)
		records, stats, err := driver.RunSingleEnd(ctx, batch, opts.BatchSize)
		if err != nil {
			log.Fatalf("chromap: mapping batch: %v", err)
		}
		total = total.Merge(stats)
		for _, rec := range records {
			if err := writer.WriteSingleEnd(ref, rec); err != nil {
				log.Fatalf("chromap: writing output: %v", err)
			}
		}
		if stats.NumReads < uint64(opts.BatchSize) {
			break
		}
	}
	return total
}
