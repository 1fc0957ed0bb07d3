// Package domain defines the data exchanged with external sequence
// producers: the sequence shape a producer writes, the checksum and
// histogram slots it may fill, the status word that reports which slots
// settled, and the validation rules a parse must satisfy before the
// engine consumes it.
package domain

import "github.com/iamNilotpal/offload/pkg/xxh64"

// ExchangeParams is the per-call exchange block shared with the producer.
//
// The layout is fixed: the status word at offset 0, the checksum slot at
// offset 8, the histogram at offset 96, 1608 bytes overall. Natural field
// alignment reproduces the padding the producer side expects, so the
// struct can back a shared buffer as-is. Both sides must be built for the
// same layout generation; a mismatch is not detectable at runtime.
//
// Lifecycle per call: the caller clears Status and seeds Checksum with
// its running digest, the producer overwrites the slots it services and
// sets exactly the matching Status bits, the caller consumes the slots
// whose bits are set and recomputes the rest. The block retains nothing
// between calls except what the caller chooses to carry forward.
type ExchangeParams struct {
	// Status is the availability word. Cleared by the caller before every
	// call, written by the producer during it.
	Status Status

	// Checksum is the streaming checksum slot. In builds whose hash
	// library exposes its own state type this footprint is read through
	// that type instead; the two images are bit-identical, which is what
	// the bridge in pkg/xxh64 relies on.
	Checksum xxh64.State

	// Histogram receives the symbol frequencies of this call's parse.
	// Producers overwrite it from scratch, so stale counts from earlier
	// calls never leak through.
	Histogram Histogram
}

// ClearStatus readies the block for the next call. Only the status word
// needs clearing: the caller re-seeds the checksum slot itself, and the
// histogram is overwritten by whichever side tallies it.
func (p *ExchangeParams) ClearStatus() {
	p.Status = 0
}
