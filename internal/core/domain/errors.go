package domain

import "errors"

var (
	// ErrInvalidSequence marks a sequence that breaks the parse rules:
	// a too-short match, a bad repeat code, a missing or out-of-window
	// offset, or a literals-only sequence before the end.
	ErrInvalidSequence = errors.New("invalid sequence")

	// ErrParseCoverage marks a parse whose runs do not map onto the
	// source buffer exactly.
	ErrParseCoverage = errors.New("parse does not cover source")

	// ErrCapacityExceeded marks a producer that claimed more sequences
	// than the output buffer it was handed can hold. The count cannot be
	// trusted and neither can the buffer contents.
	ErrCapacityExceeded = errors.New("sequence count exceeds output capacity")
)
