package validation

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
)

const defaultRunTimeout = 90 * time.Second

// Runner executes a stage's checks concurrently and joins on all of
// them reaching a terminal state. Checks share only the read-only
// snapshot and rule bundle, so no coordination beyond the join is
// needed.
type Runner struct {
	timeout time.Duration
	logger  zerolog.Logger
}

func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{timeout: defaultRunTimeout, logger: logger}
}

// WithTimeout overrides the per-run deadline.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}

// Run fans the checks out and collects one CheckResult per check, in
// input order. A panicking check is contained and reported as
// unavailable rather than taking the run down.
func (r *Runner) Run(ctx context.Context, checks []Check, snap *claim.Snapshot, bundle *rules.Bundle) []CheckResult {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, chk := range checks {
		wg.Add(1)
		go func(idx int, chk Check) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					r.logger.Error().
						Str("check", chk.Name()).
						Interface("panic", rec).
						Bytes("stack", buf[:n]).
						Msg("check panicked")
					results[idx] = Unavailable(chk.Name(), fmt.Sprintf("internal error: %v", rec))
				}
			}()
			started := time.Now()
			results[idx] = chk.Run(runCtx, snap, bundle)
			r.logger.Debug().
				Str("check", chk.Name()).
				Str("verdict", string(results[idx].Verdict)).
				Int("score_delta", results[idx].ScoreDelta).
				Dur("duration", time.Since(started)).
				Msg("check completed")
		}(i, chk)
	}
	wg.Wait()
	return results
}
