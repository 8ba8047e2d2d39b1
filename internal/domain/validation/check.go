package validation

import (
	"context"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
)

// Check is one validation over a claim snapshot. Implementations are
// stateless and safe for concurrent runs; they never mutate the
// snapshot or the rule bundle. All business outcomes, including
// detected problems, come back as findings inside the CheckResult;
// a check does not return an error.
type Check interface {
	Name() string
	Run(ctx context.Context, snap *claim.Snapshot, bundle *rules.Bundle) CheckResult
}

// effectiveTotal prefers the stated bill total and falls back to the
// line-item sum when no total was stated.
func effectiveTotal(snap *claim.Snapshot) float64 {
	if snap.StatedTotal > 0 {
		return snap.StatedTotal
	}
	return snap.Costs.Sum()
}
