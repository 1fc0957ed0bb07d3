// Package offload runs streaming sessions against an external sequence
// producer. A session owns one exchange block and drives the per-call
// protocol on it: clear the status word, seed the checksum slot, invoke
// the producer, then inspect the returned bits and adopt each output or
// recompute it in software. Offload never changes results, only who
// computes them; a session with a producer that declines everything
// yields byte-identical digests and histograms to one offloading every
// call.
package offload

import (
	"context"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/iamNilotpal/offload/internal/core/domain"
	"github.com/iamNilotpal/offload/internal/core/ports"
	"github.com/iamNilotpal/offload/pkg/errors"
	"github.com/iamNilotpal/offload/pkg/pool"
	"github.com/iamNilotpal/offload/pkg/system"
)

// Session drives the offload exchange for one stream.
type Session struct {
	// Configuration and collaborators
	opts     *Options
	producer ports.SequenceProducer
	log      *zap.SugaredLogger

	// Exchange state shared with the producer
	params *domain.ExchangeParams
	seqs   *pool.SlicePool[domain.Sequence]
	window uint64

	// Stream state carried across calls
	digest *xxhash.Digest

	// Lifecycle and concurrency control
	mu     sync.Mutex
	state  SessionState
	stats  Stats
	closed bool
}

// New builds a Session from the options. The producer is required;
// everything else has defaults.
func New(opts *Options) (*Session, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts = prepareDefaults(opts)
	if err := Validate(opts); err != nil {
		return nil, err
	}

	digest := xxhash.New()
	if opts.Seed != 0 {
		digest.ResetWithSeed(opts.Seed)
	}

	return &Session{
		opts:     opts,
		producer: opts.Producer,
		log:      opts.Logger,
		params:   &domain.ExchangeParams{},
		seqs:     pool.NewSlicePool[domain.Sequence](int(opts.MaxSequences)),
		window:   uint64(1) << opts.WindowLog,
		digest:   digest,
		state:    StateIdle,
	}, nil
}

// Produce runs one production call over src. dict optionally precedes the
// source for match finding and may be nil.
//
// The Result carries the parse and this call's settled outputs with
// fallbacks already applied: the stream digest advances over src exactly
// once no matter which side hashed it, and the histogram reflects the
// adopted parse whether offloaded or tallied here. Call Release once the
// sequences have been consumed.
//
// Calls are serialized on the session; the exchange block is reused.
func (s *Session) Produce(ctx context.Context, src, dict []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	s.state = StateCallInvoked
	defer func() { s.state = StateIdle }()

	s.stats.Calls++
	s.stats.BytesProcessed += uint64(len(src))

	bound := domain.SequenceBound(len(src))
	if bound > int(s.opts.MaxSequences) {
		bound = int(s.opts.MaxSequences)
	}
	buf := s.seqs.Get()
	out := buf[:bound]

	s.params.ClearStatus()
	if err := s.params.Checksum.SetNative(s.digest); err != nil {
		s.seqs.Put(buf)
		return nil, errors.NewOffloadError(errors.ErrorChecksum, "seed", err)
	}

	count := s.producer(s.opts.ProducerState, out, src, dict, s.opts.Level, s.window, s.params)
	s.state = StateSettling

	if count == ports.SequenceProducerError {
		s.seqs.Put(buf)
		s.stats.Declines++
		s.stats.ChecksumFallback++

		// The producer wrote nothing trustworthy. Keep the stream whole
		// by hashing this call's input in software.
		s.digest.Write(src)

		s.log.Debugw("producer declined call", "bytes", len(src), "dictBytes", len(dict))
		return &Result{Declined: true, Digest: s.digest.Sum64()}, nil
	}

	if count > uint64(len(out)) {
		s.seqs.Put(buf)
		return nil, errors.NewOffloadError(
			errors.ErrorProducer, "produce",
			fmt.Errorf("%w: count %d, capacity %d", domain.ErrCapacityExceeded, count, len(out)),
		)
	}

	seqs := out[:count]
	if s.opts.ValidateSequences {
		if err := domain.ValidateSequences(seqs, len(src), s.window); err != nil {
			s.seqs.Put(buf)
			return nil, errors.NewOffloadError(errors.ErrorProducer, "produce", err)
		}
	}

	res := &Result{
		Sequences: seqs,
		release:   func() { s.seqs.Put(buf) },
	}

	// Histogram settles first: tallying mutates nothing, so a failure
	// here leaves the session exactly as it was before the call.
	if s.params.Status.HistogramReady() {
		res.Histogram = s.params.Histogram
		res.HistogramOffloaded = true
		s.stats.HistogramOffloaded++
	} else {
		if err := res.Histogram.Tally(src, seqs); err != nil {
			s.seqs.Put(buf)
			return nil, errors.NewOffloadError(errors.ErrorHistogram, "tally", err)
		}
		s.stats.HistogramFallback++
	}

	if s.params.Status.ChecksumReady() {
		adopted, err := s.params.Checksum.Native()
		if err != nil {
			s.seqs.Put(buf)
			return nil, errors.NewOffloadError(errors.ErrorChecksum, "adopt", err)
		}
		s.digest = adopted
		res.ChecksumOffloaded = true
		s.stats.ChecksumOffloaded++
	} else {
		s.digest.Write(src)
		s.stats.ChecksumFallback++
	}
	res.Digest = s.digest.Sum64()

	s.stats.SequencesProduced += count

	s.log.Debugw(
		"call settled",
		"sequences", count,
		"bytes", len(src),
		"status", s.params.Status.String(),
		"checksumOffloaded", res.ChecksumOffloaded,
		"histogramOffloaded", res.HistogramOffloaded,
	)
	return res, nil
}

// Digest returns the running digest over everything absorbed so far.
func (s *Session) Digest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digest.Sum64()
}

// State reports where the session is in its call cycle.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the session's lifetime counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close shuts the session down and logs a final summary. Produce fails
// with ErrSessionClosed afterwards. Close is idempotent; the context only
// bounds how long to wait on an in-flight call.
func (s *Session) Close(ctx context.Context) error {
	return system.RunWithContext(ctx, func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return nil
		}
		s.closed = true
		s.state = StateClosed

		s.log.Infow(
			"session closed",
			"calls", s.stats.Calls,
			"declines", s.stats.Declines,
			"bytes", s.stats.BytesProcessed,
			"sequences", s.stats.SequencesProduced,
			"checksumOffloaded", s.stats.ChecksumOffloaded,
			"histogramOffloaded", s.stats.HistogramOffloaded,
			"digest", fmt.Sprintf("%#016x", s.digest.Sum64()),
		)
		return nil
	})
}
