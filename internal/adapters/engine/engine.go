package engine

import (
	"fmt"
	"math/bits"
	"runtime"
)

type Options struct {
	// Level is the zstd compression level, 1 (fastest) to 22 (best).
	Level int

	// EncoderConcurrency and DecoderConcurrency bound the worker
	// goroutines of the underlying codec. 0 selects one per CPU.
	EncoderConcurrency uint8
	DecoderConcurrency uint8

	// WindowSize fixes the encoder's match window in bytes. It must be a
	// power of two between MinWindowSize and MaxWindowSize; 0 leaves the
	// codec's own sizing in place.
	WindowSize int
}

// Compression level bounds of the zstd format.
const (
	FastestLevel = 1
	DefaultLevel = 3
	BestLevel    = 22
)

// Window bounds accepted by the codec.
const (
	MinWindowSize = 1 << 10
	MaxWindowSize = 1 << 30
)

// DefaultOptions returns options balanced for throughput: the default
// level and one worker per CPU on both sides.
func DefaultOptions() *Options {
	return &Options{
		Level:              DefaultLevel,
		EncoderConcurrency: uint8(runtime.NumCPU()),
		DecoderConcurrency: uint8(runtime.NumCPU()),
	}
}

// Validate checks that the options are within acceptable bounds.
func Validate(opts *Options) error {
	if opts.Level < FastestLevel || opts.Level > BestLevel {
		return fmt.Errorf("compression level must be between %d and %d, got %d", FastestLevel, BestLevel, opts.Level)
	}

	if opts.WindowSize != 0 {
		if opts.WindowSize < MinWindowSize || opts.WindowSize > MaxWindowSize {
			return fmt.Errorf(
				"window size must be between %d and %d, got %d",
				MinWindowSize, MaxWindowSize, opts.WindowSize,
			)
		}
		if bits.OnesCount(uint(opts.WindowSize)) != 1 {
			return fmt.Errorf("window size must be a power of two, got %d", opts.WindowSize)
		}
	}

	return nil
}
