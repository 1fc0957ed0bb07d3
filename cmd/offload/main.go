package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/jessevdk/go-flags"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/offload/config"
	"github.com/iamNilotpal/offload/internal/adapters/engine"
	"github.com/iamNilotpal/offload/internal/adapters/producer"
	"github.com/iamNilotpal/offload/internal/core/services/offload"
	"github.com/iamNilotpal/offload/internal/serialize"
	pkgerrors "github.com/iamNilotpal/offload/pkg/errors"
	"github.com/iamNilotpal/offload/pkg/logger"
)

type options struct {
	Input  string `short:"i" long:"input" description:"File to stream through the session" required:"true"`
	Config string `short:"c" long:"config" description:"YAML configuration file"`
	Chunk  int    `long:"chunk" default:"131072" description:"Bytes handed to the producer per call"`
	JSON   bool   `long:"json" description:"Write the run report to stdout as JSON"`
}

type report struct {
	Input              string  `json:"input"`
	Bytes              int     `json:"bytes"`
	Calls              uint64  `json:"calls"`
	Declines           uint64  `json:"declines"`
	Sequences          uint64  `json:"sequences"`
	ChecksumOffloaded  uint64  `json:"checksum_offloaded"`
	HistogramOffloaded uint64  `json:"histogram_offloaded"`
	Digest             string  `json:"digest"`
	EntropyBytes       uint64  `json:"entropy_bytes"`
	CompressedBytes    int     `json:"compressed_bytes"`
	Ratio              float64 `json:"ratio"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		// go-flags already printed the problem.
		os.Exit(1)
	}

	log := logger.New("offload")
	defer log.Sync()

	if err := run(log, &opts); err != nil {
		if pkgerrors.IsValidationError(err) {
			ve := pkgerrors.AsValidationError(err)
			log.Infow("invalid options", "field", ve.Field, "value", ve.Value, "error", ve.Err)
		} else {
			log.Infow("run error", "error", err)
		}
		os.Exit(1)
	}
}

// run streams one file through an offload session backed by the reference
// producer, cross-checks the stream digest against a one-shot hash, and
// reports what the producer serviced alongside real codec output sizes.
func run(log *zap.SugaredLogger, opts *options) error {
	cfg := config.DefaultConfig()
	if opts.Config != "" {
		loaded, err := config.LoadConfig(opts.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.Chunk <= 0 {
		return fmt.Errorf("chunk must be positive, got %d", opts.Chunk)
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	level := int(cfg.Session.Level)
	if level == 0 {
		level = engine.DefaultLevel
	}

	ref, err := producer.New(&producer.Options{
		EnableChecksum:  cfg.Producer.Checksum,
		EnableHistogram: cfg.Producer.Histogram,
		HashLog:         cfg.Producer.HashLog,
	})
	if err != nil {
		return err
	}

	sess, err := offload.New(&offload.Options{
		Producer:          ref.Produce,
		Level:             level,
		WindowLog:         cfg.Session.WindowLog,
		MaxSequences:      cfg.Session.MaxSequences,
		ValidateSequences: cfg.Session.ValidateSequences,
		Seed:              cfg.Session.Seed,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()

	engineLevel := level
	if engineLevel < engine.FastestLevel {
		// Negative levels sit below the codec's scale; clamp to its floor.
		engineLevel = engine.FastestLevel
	}
	eng, err := engine.NewZstd(&engine.Options{
		Level:              engineLevel,
		EncoderConcurrency: cfg.Engine.EncoderConcurrency,
		DecoderConcurrency: cfg.Engine.DecoderConcurrency,
	})
	if err != nil {
		return multierr.Append(err, sess.Close(ctx))
	}

	defer func() {
		if cerr := multierr.Append(sess.Close(ctx), eng.Close()); cerr != nil {
			log.Infow("close error", "error", cerr)
		}
	}()

	var entropyBytes uint64
	for off := 0; off < len(data); off += opts.Chunk {
		end := off + opts.Chunk
		if end > len(data) {
			end = len(data)
		}

		res, err := sess.Produce(ctx, data[off:end], nil)
		if err != nil {
			return err
		}
		if !res.Declined {
			entropyBytes += engine.EstimateBytes(&res.Histogram)
		}
		res.Release()
	}

	// The chunked stream must agree with a one-shot hash of the file.
	digest := sess.Digest()
	check := xxhash.New()
	check.ResetWithSeed(cfg.Session.Seed)
	check.Write(data)
	if want := check.Sum64(); digest != want {
		return fmt.Errorf("stream digest %#016x diverged from %#016x", digest, want)
	}

	compressed, err := eng.Compress(data)
	if err != nil {
		return err
	}

	stats := sess.Stats()
	rep := report{
		Input:              opts.Input,
		Bytes:              len(data),
		Calls:              stats.Calls,
		Declines:           stats.Declines,
		Sequences:          stats.SequencesProduced,
		ChecksumOffloaded:  stats.ChecksumOffloaded,
		HistogramOffloaded: stats.HistogramOffloaded,
		Digest:             fmt.Sprintf("%#016x", digest),
		EntropyBytes:       entropyBytes,
		CompressedBytes:    len(compressed),
	}
	if len(compressed) > 0 {
		rep.Ratio = float64(len(data)) / float64(len(compressed))
	}

	if opts.JSON {
		out, err := serialize.MarshalIndentJSON(rep)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	log.Infow(
		"run complete",
		"input", rep.Input,
		"bytes", rep.Bytes,
		"calls", rep.Calls,
		"declines", rep.Declines,
		"sequences", rep.Sequences,
		"checksumOffloaded", rep.ChecksumOffloaded,
		"histogramOffloaded", rep.HistogramOffloaded,
		"digest", rep.Digest,
		"entropyBytes", rep.EntropyBytes,
		"compressedBytes", rep.CompressedBytes,
		"ratio", fmt.Sprintf("%.2f", rep.Ratio),
	)
	return nil
}
