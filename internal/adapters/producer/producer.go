package producer

import "fmt"

type Options struct {
	// EnableChecksum continues the caller's checksum over each call's
	// source and reports the slot ready. Disabled, the checksum slot is
	// never touched and the caller hashes in software.
	EnableChecksum bool

	// EnableHistogram tallies symbol frequencies for each call's parse
	// and reports the slot ready. Disabled, the histogram is never
	// touched and the caller tallies in software.
	EnableHistogram bool

	// HashLog sizes the match table at 1<<HashLog buckets. Larger tables
	// find more matches on big inputs at the cost of memory and reset
	// time. 0 selects DefaultHashLog.
	HashLog uint8
}

// Match table sizing bounds. The table is reset on every call, so the cap
// keeps per-call overhead predictable.
const (
	DefaultHashLog uint8 = 15
	MinHashLog     uint8 = 8
	MaxHashLog     uint8 = 24
)

// DefaultOptions returns options with both accelerations enabled and the
// default match table size.
func DefaultOptions() *Options {
	return &Options{
		EnableChecksum:  true,
		EnableHistogram: true,
		HashLog:         DefaultHashLog,
	}
}

// Validate checks that the options are within acceptable bounds.
func Validate(opts *Options) error {
	if opts.HashLog < MinHashLog || opts.HashLog > MaxHashLog {
		return fmt.Errorf("hash log must be between %d and %d, got %d", MinHashLog, MaxHashLog, opts.HashLog)
	}
	return nil
}
