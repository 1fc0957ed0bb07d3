// Package producer provides a pure-software producer implementing the
// external sequence-production contract. It stands in for an accelerator
// during integration and testing: a greedy hash-chain matcher emits the
// parse, and the checksum and histogram slots are serviced in-band exactly
// as offload hardware would, feature by feature.
package producer

import (
	"encoding/binary"

	"github.com/iamNilotpal/offload/internal/core/domain"
	"github.com/iamNilotpal/offload/internal/core/ports"
)

// Matches are found by hashing 4-byte windows, so that is the shortest
// match the reference can emit. It satisfies domain.MinMatch with room to
// spare.
const hashBytes = 4

// Knuth multiplicative hash constant.
const hashMul = 2654435761

// Reference is a software sequence producer. One instance serves one
// session at a time: the match table is per-call scratch, so concurrent
// calls on a shared instance would corrupt each other's parses. Sessions
// that run in parallel each get their own instance.
type Reference struct {
	opts  Options
	table []int32 // Bucket holds last position + 1; 0 means empty.
}

// New builds a Reference with the given options. A nil opts selects
// DefaultOptions.
func New(opts *Options) (*Reference, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	o := *opts
	if o.HashLog == 0 {
		o.HashLog = DefaultHashLog
	}
	if err := Validate(&o); err != nil {
		return nil, err
	}

	return &Reference{opts: o, table: make([]int32, 1<<o.HashLog)}, nil
}

// Produce implements the production call; pass the method value as a
// ports.SequenceProducer. The opaque state handle is unused because the
// receiver already carries everything.
//
// Dictionaries are not supported: a call with one is declined so the
// caller falls back to its own path, the same way real hardware declines
// work outside its capabilities. Levels at or below 0 produce a
// literals-only parse.
func (r *Reference) Produce(
	state any,
	out []domain.Sequence,
	src []byte,
	dict []byte,
	level int,
	windowSize uint64,
	params *domain.ExchangeParams,
) uint64 {
	if len(dict) > 0 {
		return ports.SequenceProducerError
	}

	n, ok := r.parse(out, src, level, windowSize)
	if !ok {
		return ports.SequenceProducerError
	}

	if r.opts.EnableChecksum {
		params.Checksum.Update(src)
		params.Status |= domain.StatusChecksumReady
	}
	if r.opts.EnableHistogram {
		// The bit stays unset if the tally fails; a half-written
		// histogram must never be claimed.
		if err := params.Histogram.Tally(src, out[:n]); err == nil {
			params.Status |= domain.StatusHistogramReady
		}
	}

	return uint64(n)
}

// parse writes a greedy parse of src into out and returns the sequence
// count. It reports false when out is too small, which callers surface as
// a declined call.
func (r *Reference) parse(out []domain.Sequence, src []byte, level int, windowSize uint64) (int, bool) {
	n := 0
	anchor := 0

	if level > 0 && len(src) >= hashBytes {
		for i := range r.table {
			r.table[i] = 0
		}

		shift := 32 - uint(r.opts.HashLog)
		last := len(src) - hashBytes
		i := 0
		for i <= last {
			h := (load32(src, i) * hashMul) >> shift
			cand := int(r.table[h]) - 1
			r.table[h] = int32(i + 1)

			if cand >= 0 && uint64(i-cand) <= windowSize && load32(src, cand) == load32(src, i) {
				length := hashBytes + matchLen(src[cand+hashBytes:], src[i+hashBytes:])

				if n == len(out) {
					return 0, false
				}
				out[n] = domain.Sequence{
					Offset:      uint32(i - cand),
					LitLength:   uint32(i - anchor),
					MatchLength: uint32(length),
				}
				n++

				i += length
				anchor = i
				continue
			}
			i++
		}
	}

	if anchor < len(src) {
		if n == len(out) {
			return 0, false
		}
		out[n] = domain.Sequence{LitLength: uint32(len(src) - anchor)}
		n++
	}

	return n, true
}

func load32(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i : i+4])
}

// matchLen counts the shared prefix of a and b. Comparing forward keeps
// overlapping matches correct.
func matchLen(a, b []byte) int {
	var n int
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
