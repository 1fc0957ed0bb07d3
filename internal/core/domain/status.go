package domain

import (
	"fmt"
	"strings"
)

// Status is the availability word of the current exchange layout. The
// producer sets a bit only for a slot it fully populated during the call;
// a set bit is a claim that the slot is trustworthy, an unset bit means
// the slot holds garbage and the caller computes that output itself.
// There are no request bits: the caller always seeds the checksum slot and
// takes both outputs opportunistically.
type Status uint32

const (
	// StatusChecksumReady reports that the checksum slot was advanced
	// over this call's entire source.
	StatusChecksumReady Status = 1 << iota

	// StatusHistogramReady reports that the histogram holds this call's
	// complete symbol frequencies.
	StatusHistogramReady
)

// ChecksumReady reports whether the checksum slot settled in-band.
func (s Status) ChecksumReady() bool { return s&StatusChecksumReady != 0 }

// HistogramReady reports whether the histogram slot settled in-band.
func (s Status) HistogramReady() bool { return s&StatusHistogramReady != 0 }

var statusStrings = map[Status]string{
	StatusChecksumReady:  "ChecksumReady",
	StatusHistogramReady: "HistogramReady",
}

var statusOrder = []Status{StatusChecksumReady, StatusHistogramReady}

// String returns the set flags in human-readable form, with any unknown
// bits rendered in hex.
func (s Status) String() string {
	if s == 0 {
		return "0x0"
	}

	parts := make([]string, 0, len(statusOrder)+1)
	for _, flag := range statusOrder {
		if s&flag == flag {
			parts = append(parts, statusStrings[flag])
			s &^= flag
		}
	}
	if s != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(s)))
	}
	return strings.Join(parts, "|")
}

// LegacyStatus is the status word of the first-generation exchange layout,
// kept for producers still speaking it. That generation paired an explicit
// low request bit with a high availability bit per feature, so the caller
// opted in to each acceleration and the producer confirmed it separately.
//
// The two generations are not wire-compatible: the bit the current layout
// reads as "checksum ready" is a request bit under the legacy layout, and
// the legacy ready bits sit in the high half. A build speaks exactly one
// generation; ExchangeParams carries Status. The distinct Go type makes
// accidental mixing a compile error rather than a silent misread.
type LegacyStatus uint32

const (
	// LegacyChecksumRequest asks the producer to continue the checksum.
	LegacyChecksumRequest LegacyStatus = 0x00000001

	// LegacyHistogramRequest asks the producer to tally the histogram.
	LegacyHistogramRequest LegacyStatus = 0x00000002

	// LegacyChecksumReady confirms a serviced checksum request.
	LegacyChecksumReady LegacyStatus = 0x00010000

	// LegacyHistogramReady confirms a serviced histogram request.
	LegacyHistogramReady LegacyStatus = 0x00020000
)

// ChecksumRequested reports whether the caller asked for checksum offload.
func (s LegacyStatus) ChecksumRequested() bool { return s&LegacyChecksumRequest != 0 }

// HistogramRequested reports whether the caller asked for histogram offload.
func (s LegacyStatus) HistogramRequested() bool { return s&LegacyHistogramRequest != 0 }

// ChecksumReady reports whether the producer confirmed the checksum slot.
func (s LegacyStatus) ChecksumReady() bool { return s&LegacyChecksumReady != 0 }

// HistogramReady reports whether the producer confirmed the histogram slot.
func (s LegacyStatus) HistogramReady() bool { return s&LegacyHistogramReady != 0 }

var legacyStatusStrings = map[LegacyStatus]string{
	LegacyChecksumRequest:  "ChecksumRequest",
	LegacyHistogramRequest: "HistogramRequest",
	LegacyChecksumReady:    "ChecksumReady",
	LegacyHistogramReady:   "HistogramReady",
}

var legacyStatusOrder = []LegacyStatus{
	LegacyChecksumRequest, LegacyHistogramRequest,
	LegacyChecksumReady, LegacyHistogramReady,
}

// String returns the set flags in human-readable form, with any unknown
// bits rendered in hex.
func (s LegacyStatus) String() string {
	if s == 0 {
		return "0x0"
	}

	parts := make([]string, 0, len(legacyStatusOrder)+1)
	for _, flag := range legacyStatusOrder {
		if s&flag == flag {
			parts = append(parts, legacyStatusStrings[flag])
			s &^= flag
		}
	}
	if s != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(s)))
	}
	return strings.Join(parts, "|")
}
