// Package engine wraps the downstream zstd codec the offload session
// feeds. It is the collaborator that would consume the session's parses
// in a full integration; here it compresses source buffers so runs can
// compare offload-assisted accounting against real codec output, and it
// prices histograms the way the entropy stage would.
package engine

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd is a thread-safe wrapper around one encoder/decoder pair.
type Zstd struct {
	level   int           // Compression level the encoder was built with.
	mu      sync.RWMutex  // Guards the pair against Close.
	decoder *zstd.Decoder // Concurrent-safe decoder instance.
	encoder *zstd.Encoder // Concurrent-safe encoder instance.
}

// NewZstd builds an encoder/decoder pair from the options. A nil opts
// selects DefaultOptions.
func NewZstd(opts *Options) (*Zstd, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	o := *opts
	if o.Level == 0 {
		o.Level = DefaultLevel
	}
	// The codec requires at least one worker on each side.
	if o.EncoderConcurrency == 0 {
		o.EncoderConcurrency = uint8(runtime.NumCPU())
	}
	if o.DecoderConcurrency == 0 {
		o.DecoderConcurrency = uint8(runtime.NumCPU())
	}
	if err := Validate(&o); err != nil {
		return nil, err
	}

	encOpts := []zstd.EOption{
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(o.Level)),
		zstd.WithEncoderConcurrency(int(o.EncoderConcurrency)),
	}
	if o.WindowSize != 0 {
		encOpts = append(encOpts, zstd.WithWindowSize(o.WindowSize))
	}

	encoder, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(int(o.DecoderConcurrency)))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Zstd{encoder: encoder, decoder: decoder, level: o.Level}, nil
}

// Compress encodes data as a zstd frame. Every input round-trips through
// Decompress, including inputs the codec cannot shrink; size comparisons
// are the caller's business.
func (z *Zstd) Compress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if z.encoder == nil {
		return nil, fmt.Errorf("compress: engine closed")
	}
	return z.encoder.EncodeAll(data, nil), nil
}

// Decompress restores the original bytes of a zstd frame.
func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if z.decoder == nil {
		return nil, fmt.Errorf("decompress: engine closed")
	}

	decompressed, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	return decompressed, nil
}

// Level returns the compression level the encoder was built with.
func (z *Zstd) Level() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.level
}

// Close releases the encoder and decoder. The instance is unusable
// afterwards; Close is idempotent.
func (z *Zstd) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.encoder == nil {
		return nil
	}

	err := z.encoder.Close()
	z.decoder.Close()
	z.encoder = nil
	z.decoder = nil

	if err != nil {
		return fmt.Errorf("error closing encoder: %w", err)
	}
	return nil
}
