package offload

import "go.uber.org/zap"

const (
	// DefaultLevel is the compression-level hint handed to producers.
	DefaultLevel = 3
	MinLevel     = -7
	MaxLevel     = 22

	// DefaultWindowLog sizes the match window hint at 1 MiB.
	DefaultWindowLog uint8 = 20
	MinWindowLog     uint8 = 10
	MaxWindowLog     uint8 = 31

	// DefaultMaxSequences bounds one call's output buffer. At 16 bytes per
	// sequence that is 4 MiB of scratch, reused across calls.
	DefaultMaxSequences uint32 = 1 << 18
	MinSequences        uint32 = 16
)

func prepareDefaults(opts *Options) *Options {
	if opts.Level == 0 {
		opts.Level = DefaultLevel
	}

	if opts.WindowLog == 0 {
		opts.WindowLog = DefaultWindowLog
	}

	if opts.MaxSequences == 0 {
		opts.MaxSequences = DefaultMaxSequences
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return opts
}
