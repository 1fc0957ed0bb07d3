package ports

import (
	"math"

	"github.com/iamNilotpal/offload/internal/core/domain"
)

// SequenceProducerError is the distinguished return value meaning "no
// sequences produced, fall back to the software path". It is not reachable
// as a real count: a count can never exceed the output capacity, let alone
// the 64-bit maximum.
const SequenceProducerError = uint64(math.MaxUint64)

// SequenceProducer is the production call boundary. One call hands the
// producer a source buffer and gets back a parse plus optionally-settled
// checksum and histogram slots.
//
// Contract:
//   - state is a producer-owned handle the caller forwards unchanged and
//     never interprets.
//   - out is the output buffer; len(out) is its capacity in sequences. The
//     producer writes from index 0 and must not touch anything past the
//     returned count.
//   - src is the input for this call; dict optionally precedes it for
//     match finding and may be nil.
//   - level and windowSize are hints mirroring the caller's own settings.
//     Matches must stay within windowSize.
//   - params is the shared exchange block. The caller has cleared its
//     status word and seeded the checksum slot; the producer sets a status
//     bit for every slot it fully populated, and only those.
//
// The return value is the number of sequences written, or
// SequenceProducerError to decline the whole call. On decline the caller
// ignores the output buffer and the exchange block entirely.
//
// Calls are serial per exchange block. A producer shared across sessions
// must tolerate concurrent calls with distinct blocks.
type SequenceProducer func(
	state any,
	out []domain.Sequence,
	src []byte,
	dict []byte,
	level int,
	windowSize uint64,
	params *domain.ExchangeParams,
) uint64
