package chromap

import "github.com/pkg/errors"

// ConfigError reports a malformed or contradictory configuration value.
// Construction-time issues (out-of-range numerics, missing paths) are
// reported this way; see Opts.Validate.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return "chromap: config error: " + e.msg }

func newConfigError(format string, args ...interface{}) error {
	return &ConfigError{msg: errors.Errorf(format, args...).Error()}
}

// Sentinel fatal errors, per the taxonomy in SPEC_FULL.md §7. Wrap with
// github.com/pkg/errors at I/O boundaries so errors.Cause recovers these.
var (
	// ErrInputSizeMismatch reports that read1, read2, and (if present)
	// barcode streams do not reach EOF at the same read index. No code
	// in this module returns it; fastq.PairScanner reports mates of
	// differing length as fastq.ErrDiscordant.
	ErrInputSizeMismatch = errors.New("chromap: mate/barcode streams of differing length")

	// ErrIndexMismatch reports that a loaded Index's k-mer or window size
	// disagrees with the active configuration. No code in this module
	// returns it: chromap.Index exposes no k-mer or window size to check.
	ErrIndexMismatch = errors.New("chromap: index is incompatible with configuration")
)
