package simulate

import (
	"errors"
	"fmt"
)

// verify checks the counters of a finished run against what the generated
// history must have produced.
func verify(h History, stats *Stats) error {
	var errs []error
	if stats.Failed > 0 {
		errs = append(errs, fmt.Errorf("%d requests failed", stats.Failed))
	}
	if stats.Conflicts != h.Replays {
		errs = append(errs, fmt.Errorf("expected %d duplicate rejections, got %d", h.Replays, stats.Conflicts))
	}
	if stats.Accepted != h.Records {
		errs = append(errs, fmt.Errorf("expected %d accepted records, got %d", h.Records, stats.Accepted))
	}
	if want := stats.BaselineRecords + uint32(stats.Accepted); stats.FinalRecords < want {
		errs = append(errs, fmt.Errorf("snapshot counts %d observations, expected at least %d", stats.FinalRecords, want))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
}
