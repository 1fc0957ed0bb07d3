package domain

import "fmt"

const (
	// MinMatch is the shortest run a producer may report as a match.
	// Anything shorter must be folded into the literal run instead.
	MinMatch = 3

	// MaxRep is the number of repeat-offset history slots. A sequence's
	// Rep field selects one of them with 1 to MaxRep; 0 means the Offset
	// field carries an explicit distance.
	MaxRep = 3
)

// Sequence describes one step of a parse: a run of literals copied from the
// source followed by one back-reference match. The four 32-bit fields and
// their order are fixed; producers write sequences directly into the shared
// output buffer in this shape.
type Sequence struct {
	// Offset is the explicit match distance when Rep is 0. The final
	// sequence of a parse may describe literals only, in which case
	// Offset must be 0.
	Offset uint32

	// LitLength is the number of literal bytes preceding the match.
	LitLength uint32

	// MatchLength is the match length in bytes, at least MinMatch. It is
	// 0 only on a trailing literals-only sequence.
	MatchLength uint32

	// Rep selects a repeat-offset slot (1 to MaxRep) or is 0 when Offset
	// is explicit.
	Rep uint32
}

// SequenceBound returns the worst-case number of sequences a parse of
// srcSize bytes can need: one match every MinMatch bytes plus a trailing
// literal run.
func SequenceBound(srcSize int) int {
	if srcSize <= 0 {
		return 1
	}
	return srcSize/MinMatch + 1
}

// ValidateSequences checks a whole parse against the rules the downstream
// engine enforces: every sequence well formed, matches within the window,
// literals-only sequences nowhere but the end, and the runs summing to
// exactly srcSize. A nil error means the parse can be consumed as-is.
func ValidateSequences(seqs []Sequence, srcSize int, windowSize uint64) error {
	if len(seqs) == 0 {
		if srcSize == 0 {
			return nil
		}
		return fmt.Errorf("%w: empty parse for %d source bytes", ErrParseCoverage, srcSize)
	}

	var covered uint64
	for i, seq := range seqs {
		covered += uint64(seq.LitLength) + uint64(seq.MatchLength)

		if seq.MatchLength == 0 {
			if i != len(seqs)-1 {
				return fmt.Errorf(
					"%w: literals-only sequence %d before the end of the parse",
					ErrInvalidSequence, i,
				)
			}
			if seq.Offset != 0 {
				return fmt.Errorf(
					"%w: final literals-only sequence carries offset %d",
					ErrInvalidSequence, seq.Offset,
				)
			}
			continue
		}

		if seq.MatchLength < MinMatch {
			return fmt.Errorf(
				"%w: sequence %d match length %d below minimum %d",
				ErrInvalidSequence, i, seq.MatchLength, MinMatch,
			)
		}
		if seq.Rep > MaxRep {
			return fmt.Errorf(
				"%w: sequence %d repeat code %d exceeds %d",
				ErrInvalidSequence, i, seq.Rep, MaxRep,
			)
		}
		if seq.Rep == 0 {
			if seq.Offset == 0 {
				return fmt.Errorf("%w: sequence %d match without an offset", ErrInvalidSequence, i)
			}
			if uint64(seq.Offset) > windowSize {
				return fmt.Errorf(
					"%w: sequence %d offset %d exceeds window %d",
					ErrInvalidSequence, i, seq.Offset, windowSize,
				)
			}
		}
	}

	if covered != uint64(srcSize) {
		return fmt.Errorf("%w: parse covers %d of %d source bytes", ErrParseCoverage, covered, srcSize)
	}
	return nil
}
