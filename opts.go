package chromap

import "github.com/grailbio/base/log"

// Opts holds every tunable of the mapping core (SPEC_FULL.md §6). It is
// filled in by the CLI (or by a test) and then validated with Validate
// before a PipelineDriver is constructed.
type Opts struct {
	// ErrorThreshold is the maximum number of edit-distance errors (E)
	// tolerated by BandedAligner / CandidateVerifier.
	ErrorThreshold int
	// KmerSize and WindowSize describe the minimizer scheme used to
	// build the Index this core consumes. They are not checked against
	// the Index (chromap.Index exposes no k-mer or window size, and no
	// code returns ErrIndexMismatch); cmd/chromap passes KmerSize to
	// seedindex.Build, and WindowSize is not read by any code.
	KmerSize   int
	WindowSize int

	// MinNumSeeds is the minimum number of minimizer hits required
	// before a read is considered for candidate generation. No code in
	// this module reads it; candidate generation is left to the Index.
	MinNumSeeds int
	// MaxSeedFrequencies bounds how repetitive a minimizer may be
	// before it is excluded from candidate generation, indexed by
	// strictness: [normal, relaxed]. Like MinNumSeeds, no code in this
	// module reads it.
	MaxSeedFrequencies [2]int

	// MaxNumBestMappings is N in BestMappingSelector's reservoir cap.
	MaxNumBestMappings int
	// MaxInsertSize is the paired-end window W used by PairResolver.
	MaxInsertSize int
	// NumThreads is the worker-pool size for PipelineDriver.
	NumThreads int
	// MinReadLength rejects reads shorter than this value (TooShortRead).
	MinReadLength int
	// AllocationSeed seeds MultiMappingAllocator's and
	// BestMappingSelector's PRNGs.
	AllocationSeed int64
	// DropRepetitiveReads is the ExceededRepetition cutoff.
	DropRepetitiveReads int
	// BatchSize is the number of read (pairs) loaded per pipeline batch.
	BatchSize int

	TrimAdapters         bool
	RemovePCRDuplicates  bool
	IsBulkData           bool
	AllocateMultiMappings bool
	OnlyOutputUniqueMappings bool

	// ExperimentalBarcodeSeedFilter enables dedup.BarcodeSeedFilter, an
	// approximate pre-mapping duplicate rejector. Off by default: see
	// DESIGN.md's Open Question decision on the barcode dedupe path.
	ExperimentalBarcodeSeedFilter bool
}

// DefaultOpts returns the configuration defaults enumerated in
// SPEC_FULL.md §6, matching the original implementation's startup
// defaults.
func DefaultOpts() Opts {
	return Opts{
		ErrorThreshold:           3,
		KmerSize:                 17,
		WindowSize:               5,
		MinNumSeeds:              2,
		MaxSeedFrequencies:       [2]int{1000, 5000},
		MaxNumBestMappings:       10,
		MaxInsertSize:            400,
		NumThreads:               1,
		MinReadLength:            30,
		AllocationSeed:           11,
		DropRepetitiveReads:      500000,
		BatchSize:                1000000,
		TrimAdapters:             false,
		RemovePCRDuplicates:      false,
		IsBulkData:               true,
		AllocateMultiMappings:    false,
		OnlyOutputUniqueMappings: false,
	}
}

// Validate checks Opts for internal consistency, clamping and warning
// (rather than failing) where SPEC_FULL.md's Open Question decisions say
// to, and returning a *ConfigError for anything that cannot be silently
// resolved.
func (o *Opts) Validate() error {
	if o.ErrorThreshold < 0 {
		return newConfigError("error threshold must be >= 0, got %d", o.ErrorThreshold)
	}
	if o.MinReadLength <= 0 {
		return newConfigError("min read length must be > 0, got %d", o.MinReadLength)
	}
	if o.MaxInsertSize <= 0 {
		return newConfigError("max insert size must be > 0, got %d", o.MaxInsertSize)
	}
	if o.NumThreads <= 0 {
		o.NumThreads = 1
	}
	if o.BatchSize <= 0 {
		return newConfigError("batch size must be > 0, got %d", o.BatchSize)
	}

	if o.MaxNumBestMappings > o.DropRepetitiveReads {
		log.Printf("chromap: max_num_best_mappings (%d) exceeds drop_repetitive_reads (%d), clamping",
			o.MaxNumBestMappings, o.DropRepetitiveReads)
		o.MaxNumBestMappings = o.DropRepetitiveReads
	}

	if o.AllocateMultiMappings && o.OnlyOutputUniqueMappings {
		log.Printf("chromap: allocate_multi_mappings and only_output_unique_mappings both set; " +
			"keeping unique-only output and ignoring multi-mapping allocation")
		o.AllocateMultiMappings = false
	}

	return nil
}
