package offload

import (
	"errors"

	"go.uber.org/zap"

	"github.com/iamNilotpal/offload/internal/core/domain"
	"github.com/iamNilotpal/offload/internal/core/ports"
)

// ErrSessionClosed is returned by Produce after Close.
var ErrSessionClosed = errors.New("offload session closed")

// SessionState labels where a session is in its call cycle.
type SessionState string

const (
	// StateIdle means no call is in flight.
	StateIdle SessionState = "IDLE"

	// StateCallInvoked means the producer is running.
	StateCallInvoked SessionState = "CALL_INVOKED"

	// StateSettling means the producer returned and its outputs are
	// being adopted or recomputed.
	StateSettling SessionState = "SETTLING"

	// StateClosed means the session has shut down.
	StateClosed SessionState = "CLOSED"
)

// Options configures an offload Session.
type Options struct {
	// Producer is the external sequence producer invoked on every call.
	// Required.
	Producer ports.SequenceProducer

	// ProducerState is the opaque handle forwarded to the producer
	// unchanged on every call. The session never interprets it.
	// Default: nil.
	ProducerState any

	// Level is the compression-level hint forwarded to the producer.
	// 0 selects the default.
	// Default: 3.
	Level int

	// WindowLog sets the match-window hint to 1<<WindowLog bytes.
	// Default: 20 (1 MiB).
	WindowLog uint8

	// MaxSequences caps the output buffer handed to the producer each
	// call. Calls whose source could theoretically need more still run;
	// a producer that really needs the room declines and the call falls
	// back to software.
	// Default: 262144.
	MaxSequences uint32

	// ValidateSequences re-checks every adopted parse against the
	// sequence rules before trusting it. Recommended while integrating
	// a new producer; costs one pass over the sequences.
	// Default: false.
	ValidateSequences bool

	// Seed seeds the stream checksum.
	// Default: 0.
	Seed uint64

	// Logger receives structured session logs.
	// Default: a no-op logger.
	Logger *zap.SugaredLogger
}

// Result reports the settled outputs of one production call.
type Result struct {
	// Sequences is this call's parse. It aliases a pooled buffer: read
	// it before Release, never after.
	Sequences []domain.Sequence

	// Declined reports that the producer returned the sentinel and the
	// caller must produce this call itself. Only Digest is meaningful
	// then: the stream checksum advanced in software so later calls stay
	// consistent.
	Declined bool

	// ChecksumOffloaded and HistogramOffloaded report which slots the
	// producer serviced in-band. False means the session computed that
	// output in software; the Result fields are valid either way.
	ChecksumOffloaded  bool
	HistogramOffloaded bool

	// Histogram holds this call's symbol frequencies, offloaded or
	// software-tallied. Zero when Declined.
	Histogram domain.Histogram

	// Digest is the running stream digest after absorbing this call's
	// source.
	Digest uint64

	release func()
}

// Release returns the sequence buffer to the session pool. The Result's
// Sequences must not be read afterwards. Safe to call more than once.
func (r *Result) Release() {
	if r.release != nil {
		r.release()
		r.release = nil
		r.Sequences = nil
	}
}

// Stats counts a session's lifetime outcomes.
type Stats struct {
	Calls              uint64 // Production calls attempted.
	Declines           uint64 // Calls the producer declined wholesale.
	SequencesProduced  uint64 // Sequences adopted from producers.
	BytesProcessed     uint64 // Source bytes absorbed.
	ChecksumOffloaded  uint64 // Calls whose checksum settled in-band.
	ChecksumFallback   uint64 // Calls whose checksum ran in software.
	HistogramOffloaded uint64 // Calls whose histogram settled in-band.
	HistogramFallback  uint64 // Calls whose histogram ran in software.
}
