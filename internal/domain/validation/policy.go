package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
)

const (
	policyCriticalDelta = -20
	policyWarningDelta  = -10
)

// PolicyCheck evaluates the snapshot against the resolved policy rule:
// waiting periods, exclusions, sum-insured adequacy and the room-rent
// sub-limit. Fully deterministic.
type PolicyCheck struct {
	// Now is injectable for waiting-period math in tests.
	Now func() time.Time
}

func NewPolicyCheck() PolicyCheck { return PolicyCheck{Now: time.Now} }

func (PolicyCheck) Name() string { return CheckPolicy }

func (p PolicyCheck) Run(_ context.Context, snap *claim.Snapshot, bundle *rules.Bundle) CheckResult {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	rule := bundle.Policy
	proc := bundle.Procedure

	var findings []Finding
	delta := 0

	critical := func(code, msg, fix string, detail map[string]string) {
		findings = append(findings, Finding{
			Severity: SeverityCritical, Category: CheckPolicy,
			Code: code, Message: msg, Detail: detail, SuggestedFix: fix,
		})
		delta += policyCriticalDelta
	}
	warning := func(code, msg, fix string, detail map[string]string) {
		findings = append(findings, Finding{
			Severity: SeverityWarning, Category: CheckPolicy,
			Code: code, Message: msg, Detail: detail, SuggestedFix: fix,
		})
		delta += policyWarningDelta
	}

	start := snap.Policy.StartDate
	if !start.IsZero() {
		// Initial waiting period, counted in days from policy start.
		elapsed := start.DaysSince(now)
		if elapsed < rule.WaitingPeriods.InitialDays {
			critical("waiting_period_violation",
				fmt.Sprintf("policy is %d days old, initial waiting period is %d days", elapsed, rule.WaitingPeriods.InitialDays),
				"wait until the initial waiting period has elapsed or obtain an accident-admission waiver",
				map[string]string{
					"elapsed_days":  fmt.Sprintf("%d", elapsed),
					"required_days": fmt.Sprintf("%d", rule.WaitingPeriods.InitialDays),
				})
		}

		// Procedure-specific waiting period, counted in whole months.
		if required, ok := rule.WaitingPeriods.ProcedureMonths[strings.ToLower(proc.ID)]; ok && required > 0 {
			months := claim.MonthsBetween(start.Time, now)
			if months < required {
				critical("waiting_period_violation",
					fmt.Sprintf("%s has a %d-month waiting period, policy is %d months old", proc.DisplayName, required, months),
					fmt.Sprintf("claimable after %d more months of coverage", required-months),
					map[string]string{
						"procedure":       proc.ID,
						"elapsed_months":  fmt.Sprintf("%d", months),
						"required_months": fmt.Sprintf("%d", required),
					})
			}
		}

		// Pre-existing disease waiting period.
		if snap.Policy.PreExistingDeclared != nil && rule.WaitingPeriods.PreExistingMonths > 0 {
			months := claim.MonthsBetween(start.Time, now)
			if months < rule.WaitingPeriods.PreExistingMonths {
				critical("waiting_period_violation",
					fmt.Sprintf("pre-existing condition waiting period is %d months, policy is %d months old", rule.WaitingPeriods.PreExistingMonths, months),
					"declare and wait out the pre-existing condition period",
					map[string]string{
						"elapsed_months":  fmt.Sprintf("%d", months),
						"required_months": fmt.Sprintf("%d", rule.WaitingPeriods.PreExistingMonths),
					})
			}
		}
	}

	if excl := matchExclusion(rule.Exclusions, snap, proc); excl != "" {
		critical("policy_exclusion",
			fmt.Sprintf("%s matches policy exclusion %q", proc.DisplayName, excl),
			"verify the exclusion with the insurer; the claim is likely inadmissible",
			map[string]string{"exclusion": excl, "procedure": proc.ID})
	}

	available := snap.Policy.SumInsured - snap.Policy.PreviousClaimsAmount
	if total := effectiveTotal(snap); total > available {
		warning("sum_insured_exceeded",
			fmt.Sprintf("estimated cost %.0f exceeds available cover %.0f", total, available),
			"the difference is payable by the patient; consider revising the estimate",
			map[string]string{
				"estimated_total": fmt.Sprintf("%.2f", total),
				"available_cover": fmt.Sprintf("%.2f", available),
				"shortfall":       fmt.Sprintf("%.2f", total-available),
			})
	}

	if f, d := p.roomRentFinding(snap, rule); f != nil {
		findings = append(findings, *f)
		delta += d
	}

	if f := coPayFinding(snap, rule); f != nil {
		findings = append(findings, *f)
	}

	verdict := VerdictPass
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			verdict = VerdictFail
			break
		}
		if f.Severity == SeverityWarning {
			verdict = VerdictWarning
		}
	}

	return CheckResult{
		CheckName:  CheckPolicy,
		Verdict:    verdict,
		Findings:   findings,
		ScoreDelta: delta,
	}
}

// roomRentFinding computes the proportionate deduction when the daily
// room rent exceeds the policy sub-limit. Only the categories the rule
// designates are reduced; pharmacy, consumables, implants, diagnostics
// and ICU are never touched because the rule never lists them.
func (p PolicyCheck) roomRentFinding(snap *claim.Snapshot, rule *rules.PolicyRule) (*Finding, int) {
	if rule.RoomRent == nil {
		return nil, 0
	}
	roomTotal, ok := snap.Costs[claim.CategoryRoom]
	if !ok || roomTotal <= 0 {
		return nil, 0
	}

	days := stayDays(snap)
	permittedPerDay := rule.RoomRent.PermittedPerDay(snap.Policy.SumInsured)
	if permittedPerDay <= 0 {
		return nil, 0
	}
	actualPerDay := roomTotal / float64(days)
	if actualPerDay <= permittedPerDay {
		return nil, 0
	}

	// Proportionate deduction: the payable share of each affected
	// category scales by permitted/actual room rent.
	ratio := permittedPerDay / actualPerDay
	var outOfPocket float64
	var affected []string
	for _, cat := range rule.RoomRent.AppliesTo {
		amt, ok := snap.Costs[cat]
		if !ok || amt <= 0 {
			continue
		}
		outOfPocket += amt * (1 - ratio)
		affected = append(affected, string(cat))
	}
	sort.Strings(affected)

	return &Finding{
		Severity: SeverityWarning,
		Category: CheckPolicy,
		Code:     "room_rent_limit_exceeded",
		Message: fmt.Sprintf("room rent %.0f/day exceeds the permitted %.0f/day; proportionate deduction applies to %s",
			actualPerDay, permittedPerDay, strings.Join(affected, ", ")),
		Detail: map[string]string{
			"actual_per_day":      fmt.Sprintf("%.2f", actualPerDay),
			"permitted_per_day":   fmt.Sprintf("%.2f", permittedPerDay),
			"affected_categories": strings.Join(affected, ","),
			"out_of_pocket":       fmt.Sprintf("%.2f", outOfPocket),
		},
		SuggestedFix: "choose a room within the eligible rent or accept the proportionate deduction",
	}, policyWarningDelta
}

// coPayFinding reports an applicable co-payment as an informational
// finding. A co-pay is a cost-sharing term, not a documentation
// defect, so it never deducts from the score.
func coPayFinding(snap *claim.Snapshot, rule *rules.PolicyRule) *Finding {
	cp := rule.CoPay
	if cp == nil || cp.Percent <= 0 {
		return nil
	}
	if cp.AgeThreshold > 0 {
		if snap.Policy.PatientAge == nil || *snap.Policy.PatientAge < cp.AgeThreshold {
			return nil
		}
	}

	share := effectiveTotal(snap) * cp.Percent / 100
	return &Finding{
		Severity: SeverityInfo,
		Category: CheckPolicy,
		Code:     "co_pay_applies",
		Message:  fmt.Sprintf("policy applies a %.0f%% co-payment; approximately %.0f is payable by the patient", cp.Percent, share),
		Detail: map[string]string{
			"co_pay_percent": fmt.Sprintf("%.0f", cp.Percent),
			"patient_share":  fmt.Sprintf("%.2f", share),
		},
		SuggestedFix: "inform the patient of the expected out-of-pocket share before admission",
	}
}

func stayDays(snap *claim.Snapshot) int {
	if snap.Discharge != nil && snap.Discharge.ActualStayDays > 0 {
		return snap.Discharge.ActualStayDays
	}
	if snap.Note != nil && snap.Note.PlannedStayDays > 0 {
		return snap.Note.PlannedStayDays
	}
	return 1
}

// matchExclusion does a case-insensitive substring match of the
// procedure name, synonyms and stated diagnosis against the policy's
// exclusion list.
func matchExclusion(exclusions []string, snap *claim.Snapshot, proc *rules.ProcedureReference) string {
	if len(exclusions) == 0 {
		return ""
	}
	var candidates []string
	candidates = append(candidates, proc.DisplayName)
	candidates = append(candidates, proc.Synonyms...)
	if snap.Note != nil && snap.Note.Diagnosis != "" {
		candidates = append(candidates, snap.Note.Diagnosis)
	}
	for _, excl := range exclusions {
		le := strings.ToLower(excl)
		for _, cand := range candidates {
			lc := strings.ToLower(cand)
			if strings.Contains(lc, le) || strings.Contains(le, lc) {
				return excl
			}
		}
	}
	return ""
}
