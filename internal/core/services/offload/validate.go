package offload

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/iamNilotpal/offload/pkg/errors"
)

// Validate checks that the options describe a runnable session. All
// violations are reported together.
func Validate(opts *Options) error {
	var errs error

	if opts.Producer == nil {
		errs = multierr.Append(errs, errors.NewValidationError(
			"producer", nil, fmt.Errorf("a sequence producer is required"),
		))
	}

	if opts.Level < MinLevel || opts.Level > MaxLevel {
		errs = multierr.Append(errs, errors.NewValidationError(
			"level", opts.Level,
			fmt.Errorf("level must be between %d and %d", MinLevel, MaxLevel),
		))
	}

	if opts.WindowLog < MinWindowLog || opts.WindowLog > MaxWindowLog {
		errs = multierr.Append(errs, errors.NewValidationError(
			"windowLog", opts.WindowLog,
			fmt.Errorf("window log must be between %d and %d", MinWindowLog, MaxWindowLog),
		))
	}

	if opts.MaxSequences < MinSequences {
		errs = multierr.Append(errs, errors.NewValidationError(
			"maxSequences", opts.MaxSequences,
			fmt.Errorf("at least %d sequences of buffer are required", MinSequences),
		))
	}

	return errs
}
