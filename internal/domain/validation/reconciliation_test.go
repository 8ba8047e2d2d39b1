package validation

import (
	"context"
	"testing"

	"github.com/claimready/claimready/internal/domain/claim"
)

func TestClassifyVariance_Bands(t *testing.T) {
	cases := []struct {
		pct  float64
		want varianceBand
	}{
		{0, bandAcceptable},
		{10, bandAcceptable}, // exactly 10% stays acceptable
		{10.1, bandMinor},
		{25, bandMinor}, // exactly 25% stays minor
		{25.1, bandSignificant},
		{100, bandSignificant},
	}
	for _, tc := range cases {
		if got := classifyVariance(tc.pct); got != tc.want {
			t.Errorf("classifyVariance(%.1f) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestCompareCosts_DecreaseIsAcceptable(t *testing.T) {
	vs := compareCosts(
		claim.CostBreakdown{claim.CategoryRoom: 20000},
		claim.CostBreakdown{claim.CategoryRoom: 12000},
	)
	if len(vs) != 1 || vs[0].Band != bandAcceptable {
		t.Errorf("cost decrease must be acceptable, got %+v", vs)
	}
}

func TestCompareCosts_UnestimatedCategoryIsSignificant(t *testing.T) {
	vs := compareCosts(
		claim.CostBreakdown{claim.CategoryRoom: 20000},
		claim.CostBreakdown{claim.CategoryRoom: 20000, claim.CategoryICU: 30000},
	)
	for _, v := range vs {
		if v.Category == claim.CategoryICU {
			if v.Band != bandSignificant {
				t.Errorf("category billed without an estimate must be significant, got %s", v.Band)
			}
			return
		}
	}
	t.Fatal("icu variance missing from comparison")
}

func TestReconciliation_NoBaseline(t *testing.T) {
	snap := completeDischargeSnapshot()
	snap.PriorPreauth = nil

	res := ReconciliationCheck{}.Run(context.Background(), snap, testBundle())
	if res.Verdict != VerdictPass || res.ScoreDelta != 0 {
		t.Errorf("missing baseline is informational, got %s delta %d", res.Verdict, res.ScoreDelta)
	}
	if !hasFindingCode(res.Findings, "no_baseline") {
		t.Errorf("expected no_baseline, got %v", findingCodes(res.Findings))
	}
}

func TestReconciliation_WithinVariancePasses(t *testing.T) {
	res := ReconciliationCheck{}.Run(context.Background(), completeDischargeSnapshot(), testBundle())
	if res.Verdict != VerdictPass {
		t.Errorf("expected pass, got %s with findings %v", res.Verdict, findingCodes(res.Findings))
	}
	if res.ScoreDelta != 0 {
		t.Errorf("expected zero delta, got %d", res.ScoreDelta)
	}
}

func TestReconciliation_BoundaryAtTwentyFivePercent(t *testing.T) {
	snap := completeDischargeSnapshot()
	// Estimate 80000; 100000 is exactly +25%, 100001 just over.
	snap.Costs[claim.CategorySurgeon] = 100000
	snap.StatedTotal = 0

	res := ReconciliationCheck{}.Run(context.Background(), snap, testBundle())
	if hasFindingCode(res.Findings, "significant_variance") {
		t.Errorf("exactly 25%% is minor, got %v", findingCodes(res.Findings))
	}
	if !hasFindingCode(res.Findings, "minor_variance") {
		t.Errorf("expected minor_variance at the boundary, got %v", findingCodes(res.Findings))
	}

	snap.Costs[claim.CategorySurgeon] = 100001
	res = ReconciliationCheck{}.Run(context.Background(), snap, testBundle())
	if !hasFindingCode(res.Findings, "significant_variance") {
		t.Errorf("just over 25%% is significant, got %v", findingCodes(res.Findings))
	}
	if res.ScoreDelta != significantVarianceDelta {
		t.Errorf("expected %d per significant category, got %d", significantVarianceDelta, res.ScoreDelta)
	}
}

func TestReconciliation_MinorVarianceIsInfoOnly(t *testing.T) {
	snap := completeDischargeSnapshot()
	snap.Costs[claim.CategorySurgeon] = 92000 // +15%
	snap.StatedTotal = 0

	res := ReconciliationCheck{}.Run(context.Background(), snap, testBundle())
	if !hasFindingCode(res.Findings, "minor_variance") {
		t.Fatalf("expected minor_variance, got %v", findingCodes(res.Findings))
	}
	if res.ScoreDelta != 0 {
		t.Errorf("minor variance carries no deduction, got %d", res.ScoreDelta)
	}
	if res.Verdict != VerdictPass {
		t.Errorf("info-only findings keep the verdict at pass, got %s", res.Verdict)
	}
}

func TestReconciliation_SignificantVariancePerCategory(t *testing.T) {
	snap := completeDischargeSnapshot()
	snap.Costs[claim.CategorySurgeon] = 120000 // +50%
	snap.Costs[claim.CategoryRoom] = 30000     // +50%
	snap.StatedTotal = 0

	res := ReconciliationCheck{}.Run(context.Background(), snap, testBundle())
	if res.ScoreDelta != 2*significantVarianceDelta {
		t.Errorf("two significant categories deduct %d, got %d", 2*significantVarianceDelta, res.ScoreDelta)
	}
	if res.Verdict != VerdictWarning {
		t.Errorf("expected warning, got %s", res.Verdict)
	}
}

func TestReconciliation_TotalVarianceCarriesNoExtraDeduction(t *testing.T) {
	snap := completeDischargeSnapshot()
	snap.Costs[claim.CategorySurgeon] = 120000
	snap.StatedTotal = snap.Costs.Sum()

	res := ReconciliationCheck{}.Run(context.Background(), snap, testBundle())
	if !hasFindingCode(res.Findings, "total_variance") {
		t.Fatalf("expected total_variance report, got %v", findingCodes(res.Findings))
	}
	if res.ScoreDelta != significantVarianceDelta {
		t.Errorf("total report must not double-count, got %d", res.ScoreDelta)
	}
}
