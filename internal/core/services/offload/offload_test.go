package offload

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"

	"github.com/iamNilotpal/offload/internal/adapters/producer"
	"github.com/iamNilotpal/offload/internal/core/domain"
	"github.com/iamNilotpal/offload/internal/core/ports"
	pkgerrors "github.com/iamNilotpal/offload/pkg/errors"
)

func newReferenceSession(t *testing.T, opts *Options) *Session {
	t.Helper()

	ref, err := producer.New(nil)
	if err != nil {
		t.Fatalf("producer.New: %v", err)
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.Producer == nil {
		opts.Producer = ref.Produce
	}

	sess, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sess
}

func chunks(data []byte, size int) [][]byte {
	var out [][]byte
	for len(data) > size {
		out = append(out, data[:size])
		data = data[size:]
	}
	return append(out, data)
}

// literalParse writes the simplest valid parse: one literals-only
// sequence covering src.
func literalParse(out []domain.Sequence, src []byte) uint64 {
	if len(src) == 0 {
		return 0
	}
	out[0] = domain.Sequence{LitLength: uint32(len(src))}
	return 1
}

func TestSessionStreamsAcrossCalls(t *testing.T) {
	data := []byte(strings.Repeat("streaming checksum and histogram offload ", 200))
	sess := newReferenceSession(t, nil)
	defer sess.Close(context.Background())

	var consumed []byte
	for _, chunk := range chunks(data, 1024) {
		res, err := sess.Produce(context.Background(), chunk, nil)
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		consumed = append(consumed, chunk...)

		if !res.ChecksumOffloaded || !res.HistogramOffloaded {
			t.Fatalf("expected both slots offloaded, got checksum=%v histogram=%v",
				res.ChecksumOffloaded, res.HistogramOffloaded)
		}
		if err := domain.ValidateSequences(res.Sequences, len(chunk), uint64(1)<<DefaultWindowLog); err != nil {
			t.Fatalf("adopted parse invalid: %v", err)
		}
		if want := xxhash.Sum64(consumed); res.Digest != want {
			t.Fatalf("digest %#016x after %d bytes, want %#016x", res.Digest, len(consumed), want)
		}

		var want domain.Histogram
		if err := want.Tally(chunk, res.Sequences); err != nil {
			t.Fatalf("Tally: %v", err)
		}
		if res.Histogram != want {
			t.Fatal("offloaded histogram differs from a software tally of the adopted parse")
		}

		res.Release()
	}

	if got, want := sess.Digest(), xxhash.Sum64(data); got != want {
		t.Fatalf("final digest %#016x, want %#016x", got, want)
	}
}

func TestOffloadMatchesSoftwarePaths(t *testing.T) {
	data := []byte(strings.Repeat("equivalence of offloaded and software paths ", 128))

	run := func(t *testing.T, popts *producer.Options) (uint64, []domain.Histogram, []bool) {
		t.Helper()

		ref, err := producer.New(popts)
		if err != nil {
			t.Fatalf("producer.New: %v", err)
		}
		sess, err := New(&Options{Producer: ref.Produce})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer sess.Close(context.Background())

		var hists []domain.Histogram
		var offloaded []bool
		for _, chunk := range chunks(data, 512) {
			res, err := sess.Produce(context.Background(), chunk, nil)
			if err != nil {
				t.Fatalf("Produce: %v", err)
			}
			hists = append(hists, res.Histogram)
			offloaded = append(offloaded, res.HistogramOffloaded)
			res.Release()
		}
		return sess.Digest(), hists, offloaded
	}

	inBand, inBandHists, inBandFlags := run(t, nil)
	software, softwareHists, softwareFlags := run(t, &producer.Options{HashLog: producer.DefaultHashLog})

	if inBand != software {
		t.Fatalf("offloaded digest %#016x, software digest %#016x", inBand, software)
	}
	if want := xxhash.Sum64(data); inBand != want {
		t.Fatalf("digest %#016x, want %#016x", inBand, want)
	}

	for i := range inBandHists {
		if inBandHists[i] != softwareHists[i] {
			t.Fatalf("call %d: offloaded and software histograms differ", i)
		}
		if !inBandFlags[i] {
			t.Fatalf("call %d: expected in-band histogram", i)
		}
		if softwareFlags[i] {
			t.Fatalf("call %d: disabled producer still claimed the histogram", i)
		}
	}
}

func TestSessionIgnoresPoisonedSlots(t *testing.T) {
	poison := func(state any, out []domain.Sequence, src, dict []byte, level int, windowSize uint64, params *domain.ExchangeParams) uint64 {
		// Scribble over both slots without claiming either. A conforming
		// caller must never look at any of this.
		params.Checksum.TotalLen = 0xbadbadbad
		params.Checksum.V = [4]uint64{1, 2, 3, 4}
		params.Checksum.MemSize = 31
		for i := range params.Histogram.Literals {
			params.Histogram.Literals[i] = 0xdeadbeef
		}
		return literalParse(out, src)
	}

	sess, err := New(&Options{Producer: poison})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close(context.Background())

	data := []byte("reads must gate on the status bits")
	res, err := sess.Produce(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if res.ChecksumOffloaded || res.HistogramOffloaded {
		t.Fatal("unset bits reported as offloaded")
	}
	if want := xxhash.Sum64(data); res.Digest != want {
		t.Fatalf("digest %#016x consumed a poisoned slot, want %#016x", res.Digest, want)
	}

	var want domain.Histogram
	if err := want.Tally(data, res.Sequences); err != nil {
		t.Fatalf("Tally: %v", err)
	}
	if res.Histogram != want {
		t.Fatal("histogram consumed poisoned counts")
	}
	res.Release()

	// The next call seeds the slot over the garbage and streams on.
	more := []byte(" and the stream continues")
	res2, err := sess.Produce(context.Background(), more, nil)
	if err != nil {
		t.Fatalf("second Produce: %v", err)
	}
	defer res2.Release()

	whole := append(append([]byte{}, data...), more...)
	if want := xxhash.Sum64(whole); res2.Digest != want {
		t.Fatalf("digest %#016x after poisoned call, want %#016x", res2.Digest, want)
	}
}

func TestSessionRejectsCapacityViolation(t *testing.T) {
	greedy := func(state any, out []domain.Sequence, src, dict []byte, level int, windowSize uint64, params *domain.ExchangeParams) uint64 {
		return uint64(len(out)) + 1
	}

	sess, err := New(&Options{Producer: greedy})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close(context.Background())

	_, err = sess.Produce(context.Background(), []byte("overclaim"), nil)
	if err == nil {
		t.Fatal("Produce accepted a count beyond capacity")
	}
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("error %v, want a capacity violation", err)
	}

	var oe *pkgerrors.OffloadError
	if !errors.As(err, &oe) || oe.Category != pkgerrors.ErrorProducer {
		t.Fatalf("error %v, want producer category", err)
	}
	if !oe.IsFallbackSafe() {
		t.Fatal("capacity violations leave the software path intact")
	}
}

func TestSessionValidatesAdoptedParses(t *testing.T) {
	short := func(state any, out []domain.Sequence, src, dict []byte, level int, windowSize uint64, params *domain.ExchangeParams) uint64 {
		if len(src) < 2 {
			return literalParse(out, src)
		}
		out[0] = domain.Sequence{LitLength: uint32(len(src) - 1)}
		return 1
	}
	data := []byte("this parse is one byte short")

	t.Run("validation on", func(t *testing.T) {
		sess, err := New(&Options{Producer: short, ValidateSequences: true})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer sess.Close(context.Background())

		_, err = sess.Produce(context.Background(), data, nil)
		if !errors.Is(err, domain.ErrParseCoverage) {
			t.Fatalf("error %v, want a coverage failure", err)
		}
		var oe *pkgerrors.OffloadError
		if !errors.As(err, &oe) || oe.Category != pkgerrors.ErrorProducer {
			t.Fatalf("error %v, want producer category", err)
		}
	})

	t.Run("validation off", func(t *testing.T) {
		sess, err := New(&Options{Producer: short})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer sess.Close(context.Background())

		// The software histogram walk trips over the same defect.
		_, err = sess.Produce(context.Background(), data, nil)
		if !errors.Is(err, domain.ErrParseCoverage) {
			t.Fatalf("error %v, want a coverage failure", err)
		}
		var oe *pkgerrors.OffloadError
		if !errors.As(err, &oe) || oe.Category != pkgerrors.ErrorHistogram {
			t.Fatalf("error %v, want histogram category", err)
		}
	})
}

func TestSessionHandlesDecline(t *testing.T) {
	declining := func(state any, out []domain.Sequence, src, dict []byte, level int, windowSize uint64, params *domain.ExchangeParams) uint64 {
		return ports.SequenceProducerError
	}

	sess, err := New(&Options{Producer: declining})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close(context.Background())

	data := []byte("declined calls still advance the stream")
	res, err := sess.Produce(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if !res.Declined {
		t.Fatal("decline sentinel not surfaced")
	}
	if res.Sequences != nil {
		t.Fatal("declined call carried sequences")
	}
	if res.Histogram != (domain.Histogram{}) {
		t.Fatal("declined call carried a histogram")
	}
	if want := xxhash.Sum64(data); res.Digest != want {
		t.Fatalf("digest %#016x after decline, want %#016x", res.Digest, want)
	}

	stats := sess.Stats()
	if stats.Declines != 1 || stats.ChecksumFallback != 1 {
		t.Fatalf("stats %+v, want one decline with a checksum fallback", stats)
	}
}

func TestSessionRejectsCorruptReadyState(t *testing.T) {
	liar := func(state any, out []domain.Sequence, src, dict []byte, level int, windowSize uint64, params *domain.ExchangeParams) uint64 {
		n := literalParse(out, src)
		// Claim the slot but break its internal invariant.
		params.Checksum.TotalLen += 5
		params.Status |= domain.StatusChecksumReady
		return n
	}

	sess, err := New(&Options{Producer: liar})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close(context.Background())

	_, err = sess.Produce(context.Background(), []byte("trust but verify"), nil)
	if err == nil {
		t.Fatal("Produce adopted a corrupt checksum state")
	}
	var oe *pkgerrors.OffloadError
	if !errors.As(err, &oe) || oe.Category != pkgerrors.ErrorChecksum {
		t.Fatalf("error %v, want checksum category", err)
	}

	// Nothing was adopted, so the session digest is still the fresh one.
	if got, want := sess.Digest(), xxhash.New().Sum64(); got != want {
		t.Fatalf("digest %#016x moved on a failed call, want %#016x", got, want)
	}
}

func TestSessionSeed(t *testing.T) {
	sess := newReferenceSession(t, &Options{Seed: 1234})
	defer sess.Close(context.Background())

	data := []byte(strings.Repeat("seeded stream ", 64))
	res, err := sess.Produce(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	defer res.Release()

	want := xxhash.New()
	want.ResetWithSeed(1234)
	want.Write(data)
	if res.Digest != want.Sum64() {
		t.Fatalf("seeded digest %#016x, want %#016x", res.Digest, want.Sum64())
	}
}

func TestSessionStats(t *testing.T) {
	sess := newReferenceSession(t, nil)
	defer sess.Close(context.Background())

	first := []byte(strings.Repeat("counted ", 32))
	second := []byte("also counted")

	for _, src := range [][]byte{first, second} {
		res, err := sess.Produce(context.Background(), src, nil)
		if err != nil {
			t.Fatalf("Produce: %v", err)
		}
		res.Release()
	}

	// The reference producer declines dictionary calls.
	res, err := sess.Produce(context.Background(), []byte("declined"), []byte("dict"))
	if err != nil {
		t.Fatalf("Produce with dict: %v", err)
	}
	if !res.Declined {
		t.Fatal("expected the dictionary call to be declined")
	}

	stats := sess.Stats()
	if stats.Calls != 3 {
		t.Fatalf("calls %d, want 3", stats.Calls)
	}
	if stats.Declines != 1 {
		t.Fatalf("declines %d, want 1", stats.Declines)
	}
	if stats.ChecksumOffloaded != 2 || stats.ChecksumFallback != 1 {
		t.Fatalf("checksum counters %d/%d, want 2 offloaded and 1 fallback",
			stats.ChecksumOffloaded, stats.ChecksumFallback)
	}
	if stats.HistogramOffloaded != 2 || stats.HistogramFallback != 0 {
		t.Fatalf("histogram counters %d/%d, want 2 offloaded and 0 fallback",
			stats.HistogramOffloaded, stats.HistogramFallback)
	}
	if want := uint64(len(first) + len(second) + len("declined")); stats.BytesProcessed != want {
		t.Fatalf("bytes %d, want %d", stats.BytesProcessed, want)
	}
	if stats.SequencesProduced == 0 {
		t.Fatal("no sequences counted from two adopted calls")
	}
}

func TestSessionClose(t *testing.T) {
	sess := newReferenceSession(t, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sess.Close(cancelled); err == nil {
		t.Fatal("Close ignored a cancelled context")
	}
	if sess.State() == StateClosed {
		t.Fatal("session closed despite the cancelled context")
	}

	if err := sess.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := sess.State(); got != StateClosed {
		t.Fatalf("state %s after Close, want %s", got, StateClosed)
	}
	if err := sess.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := sess.Produce(context.Background(), []byte("late"), nil); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Produce after Close returned %v, want %v", err, ErrSessionClosed)
	}
}

func TestResultRelease(t *testing.T) {
	sess := newReferenceSession(t, nil)
	defer sess.Close(context.Background())

	res, err := sess.Produce(context.Background(), []byte(strings.Repeat("release me ", 16)), nil)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(res.Sequences) == 0 {
		t.Fatal("expected a parse")
	}

	res.Release()
	if res.Sequences != nil {
		t.Fatal("sequences readable after Release")
	}
	res.Release()
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New accepted nil options without a producer")
	} else if !pkgerrors.IsValidationError(err) {
		t.Fatalf("error %v, want a validation error", err)
	}

	_, err := New(&Options{
		Producer:     func(any, []domain.Sequence, []byte, []byte, int, uint64, *domain.ExchangeParams) uint64 { return 0 },
		WindowLog:    5,
		MaxSequences: 1,
	})
	if err == nil {
		t.Fatal("New accepted an undersized window and buffer")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("got %d validation errors, want 2: %v", got, err)
	}

	if _, err := New(&Options{
		Producer: func(any, []domain.Sequence, []byte, []byte, int, uint64, *domain.ExchangeParams) uint64 { return 0 },
		Level:    -5,
	}); err != nil {
		t.Fatalf("New rejected a fast negative level: %v", err)
	}
}
