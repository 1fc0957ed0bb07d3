package errors

import (
	"fmt"
	"time"
)

// ErrorCategory classifies failures around the offload exchange. The
// category tells the caller which subsystem misbehaved and whether the
// software fallback for that concern is still trustworthy.
type ErrorCategory int

const (
	// ErrorProducer indicates the producer violated the call contract:
	// a count beyond capacity, an invalid parse, or sequences that fail
	// validation.
	ErrorProducer ErrorCategory = iota + 1

	// ErrorChecksum indicates the checksum slot could not be seeded or
	// adopted, usually a corrupted state image.
	ErrorChecksum

	// ErrorHistogram indicates the histogram could not be tallied or
	// consumed for this call.
	ErrorHistogram

	// ErrorEngine indicates a failure in the downstream compression
	// engine rather than in the exchange itself.
	ErrorEngine

	// ErrorConfig indicates invalid options or configuration.
	ErrorConfig
)

// String returns the string representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorProducer:
		return "producer"
	case ErrorChecksum:
		return "checksum"
	case ErrorHistogram:
		return "histogram"
	case ErrorEngine:
		return "engine"
	case ErrorConfig:
		return "config"
	default:
		return "unknown"
	}
}

// OffloadError wraps a failure with the operation that hit it, when, and
// which subsystem it belongs to.
type OffloadError struct {
	Err       error
	Operation string
	Timestamp time.Time
	Category  ErrorCategory
}

// NewOffloadError builds an OffloadError stamped with the current time.
func NewOffloadError(category ErrorCategory, operation string, err error) *OffloadError {
	return &OffloadError{
		Err:       err,
		Category:  category,
		Operation: operation,
		Timestamp: time.Now(),
	}
}

func (e *OffloadError) Error() string {
	return fmt.Sprintf("[%v] %s: %v", e.Category, e.Operation, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *OffloadError) Unwrap() error {
	return e.Err
}

// IsFallbackSafe reports whether the caller can redo the failed call in
// pure software and keep going. Exchange-side failures are caught before
// any session state is adopted, so the software path stays intact; engine
// and configuration failures have no software path to fall back to.
func (e *OffloadError) IsFallbackSafe() bool {
	switch e.Category {
	case ErrorProducer:
		// The bad output was never consumed.
		return true
	case ErrorChecksum:
		// The running digest is settled only after the slot proves out.
		return true
	case ErrorHistogram:
		// Histograms are per call; the next call tallies fresh.
		return true
	case ErrorEngine:
		return false
	case ErrorConfig:
		return false
	default:
		return false
	}
}
