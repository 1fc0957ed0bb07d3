package domain

import "math/bits"

// Alphabet sizes of the four entropy tables. The histogram arrays are
// dimensioned by these, so they are also the exclusive upper bounds for
// the code mapping functions below.
const (
	NumLiterals           = 256
	NumLiteralLengthCodes = 36
	NumMatchLengthCodes   = 53
	NumOffsetCodes        = 32
)

// Code deltas for lengths past the direct-mapped table ranges.
const (
	llDeltaCode = 19
	mlDeltaCode = 36
)

// Direct mapping for literal lengths 0-63. Longer runs code from the high
// bit of the length.
var llCodeTable = [64]uint8{
	0, 1, 2, 3, 4, 5, 6, 7,
	8, 9, 10, 11, 12, 13, 14, 15,
	16, 16, 17, 17, 18, 18, 19, 19,
	20, 20, 20, 20, 21, 21, 21, 21,
	22, 22, 22, 22, 22, 22, 22, 22,
	23, 23, 23, 23, 23, 23, 23, 23,
	24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24,
}

// Direct mapping for match-length bases (match length minus MinMatch)
// 0-127. Longer matches code from the high bit of the base.
var mlCodeTable = [128]uint8{
	0, 1, 2, 3, 4, 5, 6, 7,
	8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, 21, 22, 23,
	24, 25, 26, 27, 28, 29, 30, 31,
	32, 32, 33, 33, 34, 34, 35, 35,
	36, 36, 36, 36, 37, 37, 37, 37,
	38, 38, 38, 38, 38, 38, 38, 38,
	39, 39, 39, 39, 39, 39, 39, 39,
	40, 40, 40, 40, 40, 40, 40, 40,
	40, 40, 40, 40, 40, 40, 40, 40,
	41, 41, 41, 41, 41, 41, 41, 41,
	41, 41, 41, 41, 41, 41, 41, 41,
	42, 42, 42, 42, 42, 42, 42, 42,
	42, 42, 42, 42, 42, 42, 42, 42,
	42, 42, 42, 42, 42, 42, 42, 42,
	42, 42, 42, 42, 42, 42, 42, 42,
}

// LiteralLengthCode maps a literal run length to its entropy symbol.
func LiteralLengthCode(litLength uint32) uint8 {
	if litLength > 63 {
		return uint8(highBit(litLength)) + llDeltaCode
	}
	return llCodeTable[litLength]
}

// MatchLengthCode maps a full match length (at least MinMatch) to its
// entropy symbol.
func MatchLengthCode(matchLength uint32) uint8 {
	base := matchLength - MinMatch
	if base > 127 {
		return uint8(highBit(base)) + mlDeltaCode
	}
	return mlCodeTable[base]
}

// OffsetCode maps a match's distance encoding to its entropy symbol.
// Repeat matches code from the repeat slot number; explicit distances code
// from the offset plus the repeat bias, so codes 0 and 1 are reachable
// only through the repeat slots.
func OffsetCode(offset, rep uint32) uint8 {
	offBase := offset + MaxRep
	if rep > 0 {
		offBase = rep
	}
	return uint8(highBit(offBase))
}

func highBit(v uint32) uint32 {
	return uint32(bits.Len32(v)) - 1
}
