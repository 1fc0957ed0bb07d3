package domain

import "fmt"

// Histogram tabulates symbol frequencies for one call: raw literal byte
// values plus the literal-length, match-length and offset codes of every
// match-bearing sequence. The engine's entropy stage consumes these counts
// to build its coding tables.
//
// The four arrays are contiguous 32-bit counters and the struct is 8-byte
// aligned with its size rounded up to an 8-byte multiple (1512 bytes), the
// same footprint the producer writes through the exchange block. The
// zero-width leading field pins that alignment.
//
// Contents are valid for a single call. Whoever fills the histogram
// overwrites it from scratch; counts never accumulate across calls.
type Histogram struct {
	_ [0]uint64

	// Literals counts occurrences of each literal byte value.
	Literals [NumLiterals]uint32

	// LiteralLengths counts literal-length codes, one per match-bearing
	// sequence.
	LiteralLengths [NumLiteralLengthCodes]uint32

	// MatchLengths counts match-length codes, one per match-bearing
	// sequence.
	MatchLengths [NumMatchLengthCodes]uint32

	// Offsets counts offset codes, one per match-bearing sequence.
	Offsets [NumOffsetCodes]uint32
}

// Reset zeroes every counter.
func (h *Histogram) Reset() {
	*h = Histogram{}
}

// Tally overwrites h with the frequencies of one call's parse over src.
// Literal bytes are drawn from src at the positions the parse assigns
// them; each match-bearing sequence contributes one code to each of the
// three code tables. A trailing literals-only sequence contributes its
// literal bytes and nothing else.
//
// The walk fails if the parse strays outside src or maps to codes beyond
// the table sizes; h is then partially written and must not be consumed.
func (h *Histogram) Tally(src []byte, seqs []Sequence) error {
	h.Reset()

	pos := 0
	for i, seq := range seqs {
		end := pos + int(seq.LitLength)
		if end > len(src) {
			return fmt.Errorf(
				"%w: sequence %d literals overrun source (%d > %d)",
				ErrParseCoverage, i, end, len(src),
			)
		}
		for _, b := range src[pos:end] {
			h.Literals[b]++
		}
		pos = end + int(seq.MatchLength)

		if seq.MatchLength == 0 {
			continue
		}
		if seq.MatchLength < MinMatch {
			return fmt.Errorf(
				"%w: sequence %d match length %d below minimum %d",
				ErrInvalidSequence, i, seq.MatchLength, MinMatch,
			)
		}

		ll := LiteralLengthCode(seq.LitLength)
		ml := MatchLengthCode(seq.MatchLength)
		of := OffsetCode(seq.Offset, seq.Rep)
		if int(ll) >= NumLiteralLengthCodes || int(ml) >= NumMatchLengthCodes || int(of) >= NumOffsetCodes {
			return fmt.Errorf(
				"%w: sequence %d codes out of range (ll=%d ml=%d of=%d)",
				ErrInvalidSequence, i, ll, ml, of,
			)
		}
		h.LiteralLengths[ll]++
		h.MatchLengths[ml]++
		h.Offsets[of]++
	}

	if pos != len(src) {
		return fmt.Errorf("%w: parse covers %d of %d source bytes", ErrParseCoverage, pos, len(src))
	}
	return nil
}

// TotalLiterals returns the number of literal bytes counted.
func (h *Histogram) TotalLiterals() uint64 {
	var n uint64
	for _, c := range h.Literals {
		n += uint64(c)
	}
	return n
}

// TotalSequences returns the number of match-bearing sequences counted.
func (h *Histogram) TotalSequences() uint64 {
	var n uint64
	for _, c := range h.LiteralLengths {
		n += uint64(c)
	}
	return n
}
