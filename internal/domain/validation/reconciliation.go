package validation

import (
	"context"
	"fmt"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
)

const significantVarianceDelta = -20

// ReconciliationCheck compares the discharge bill against the pre-auth
// estimate, category by category. Fully deterministic. Each
// significant overage deducts 20 points; the cost-escalation check
// compensates the deduction when the discharge summary documents the
// overage.
type ReconciliationCheck struct{}

func (ReconciliationCheck) Name() string { return CheckReconciliation }

func (ReconciliationCheck) Run(_ context.Context, snap *claim.Snapshot, _ *rules.Bundle) CheckResult {
	estimate, ok := baselineCosts(snap)
	if !ok {
		return CheckResult{
			CheckName: CheckReconciliation,
			Verdict:   VerdictPass,
			Findings: []Finding{{
				Severity:     SeverityInfo,
				Category:     CheckReconciliation,
				Code:         "no_baseline",
				Message:      "no pre-authorization estimate available; bill could not be reconciled",
				SuggestedFix: "supply the pre-auth claim reference or a manual estimate",
			}},
		}
	}

	variances := compareCosts(estimate, snap.Costs)
	var findings []Finding
	delta := 0
	for _, v := range variances {
		detail := map[string]string{
			"cost_category": string(v.Category),
			"estimate":      fmt.Sprintf("%.2f", v.Estimate),
			"actual":        fmt.Sprintf("%.2f", v.Actual),
			"variance_pct":  fmt.Sprintf("%.1f", v.Pct),
		}
		switch v.Band {
		case bandSignificant:
			findings = append(findings, Finding{
				Severity:     SeverityWarning,
				Category:     CheckReconciliation,
				Code:         "significant_variance",
				Message:      fmt.Sprintf("%s billed %.0f against an estimate of %.0f (%.0f%% over)", v.Category, v.Actual, v.Estimate, v.Pct),
				Detail:       detail,
				SuggestedFix: "ensure the discharge summary documents the reason for the overage",
			})
			delta += significantVarianceDelta
		case bandMinor:
			findings = append(findings, Finding{
				Severity:     SeverityInfo,
				Category:     CheckReconciliation,
				Code:         "minor_variance",
				Message:      fmt.Sprintf("%s billed %.0f against an estimate of %.0f (%.0f%% over)", v.Category, v.Actual, v.Estimate, v.Pct),
				Detail:       detail,
				SuggestedFix: "documentation of the increase is recommended",
			})
		}
	}

	// Total-level comparison is reported but carries no deduction of
	// its own; the per-category findings already account for it.
	estTotal := estimate.Sum()
	actTotal := totalBilled(snap)
	if estTotal > 0 && actTotal > estTotal {
		pct := (actTotal - estTotal) / estTotal * 100
		band := classifyVariance(pct)
		severity := SeverityInfo
		if band == bandSignificant {
			severity = SeverityWarning
		}
		if band != bandAcceptable {
			findings = append(findings, Finding{
				Severity: severity,
				Category: CheckReconciliation,
				Code:     "total_variance",
				Message:  fmt.Sprintf("total billed %.0f against an estimated %.0f (%.0f%% over)", actTotal, estTotal, pct),
				Detail: map[string]string{
					"estimate":     fmt.Sprintf("%.2f", estTotal),
					"actual":       fmt.Sprintf("%.2f", actTotal),
					"variance_pct": fmt.Sprintf("%.1f", pct),
				},
			})
		}
	}

	verdict := VerdictPass
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			verdict = VerdictWarning
			break
		}
	}

	return CheckResult{
		CheckName:  CheckReconciliation,
		Verdict:    verdict,
		Findings:   findings,
		ScoreDelta: delta,
	}
}

func totalBilled(snap *claim.Snapshot) float64 {
	if snap.StatedTotal > 0 {
		return snap.StatedTotal
	}
	return snap.Costs.Sum()
}
