package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
	"github.com/claimready/claimready/internal/platform/reasoning"
)

const (
	fwaHighDelta   = -20
	fwaMediumDelta = -10

	// criticalMultiplier is the over-range factor beyond which an
	// undocumented overage escalates from warning to critical.
	criticalMultiplier = 2.0

	// stayGraceDays on top of the typical maximum stay before an
	// extended stay needs a documented reason.
	stayGraceDays = 2
)

// FWACheck screens cost line items and length of stay for fraud,
// waste and abuse signals. Hybrid: the range comparison is
// deterministic and always runs; a reasoning pass then classifies
// over-range items as documented, patient-elective or unexplained.
// If the reasoning pass fails the deterministic findings stand.
type FWACheck struct {
	assessor reasoning.Assessor
}

func NewFWACheck(assessor reasoning.Assessor) FWACheck {
	return FWACheck{assessor: assessor}
}

func (FWACheck) Name() string { return CheckFWA }

type fwaJudgment struct {
	Category       string `json:"category"`
	Classification string `json:"classification"`
	Rationale      string `json:"rationale"`
}

type fwaAssessment struct {
	Judgments []fwaJudgment `json:"judgments"`
}

func (f FWACheck) Run(ctx context.Context, snap *claim.Snapshot, bundle *rules.Bundle) CheckResult {
	proc := bundle.Procedure
	findings, overranges := f.rangeFindings(snap, proc)
	findings = append(findings, f.stayFindings(snap, proc)...)

	var raw json.RawMessage
	if len(overranges) > 0 {
		var degraded *Finding
		findings, raw, degraded = f.applyJudgments(ctx, snap, proc, findings, overranges)
		if degraded != nil {
			findings = append(findings, *degraded)
		}
	}

	// Risk level derives from the surviving findings.
	delta := 0
	verdict := VerdictPass
	for _, fd := range findings {
		if fd.Severity == SeverityCritical {
			delta = fwaHighDelta
			verdict = VerdictFail
			break
		}
		if fd.Severity == SeverityWarning {
			delta = fwaMediumDelta
			verdict = VerdictWarning
		}
	}

	return CheckResult{
		CheckName:  CheckFWA,
		Verdict:    verdict,
		Findings:   findings,
		ScoreDelta: delta,
		RawDetail:  raw,
	}
}

// rangeFindings compares each line item against the typical range.
// Amounts at or below the maximum are never flagged; only strictly
// exceeding it is. Returns the findings plus the over-range categories
// for the reasoning pass.
func (f FWACheck) rangeFindings(snap *claim.Snapshot, proc *rules.ProcedureReference) ([]Finding, []claim.Category) {
	var findings []Finding
	var overranges []claim.Category
	for _, cat := range claim.Categories {
		amt, ok := snap.Costs[cat]
		if !ok || amt <= 0 {
			continue
		}
		rng, ok := proc.TypicalCosts[cat]
		if !ok || rng.Max <= 0 {
			continue
		}
		max := effectiveMax(rng.Max, snap, proc)
		if amt <= max {
			continue
		}
		overranges = append(overranges, cat)

		severity := SeverityWarning
		code := "cost_above_range"
		if amt > max*criticalMultiplier && !hasDocumentedComplication(snap) {
			severity = SeverityCritical
			code = "cost_far_above_range"
		}
		findings = append(findings, Finding{
			Severity: severity,
			Category: CheckFWA,
			Code:     code,
			Message:  fmt.Sprintf("%s quoted at %.0f, typical maximum is %.0f", cat, amt, max),
			Detail: map[string]string{
				"cost_category": string(cat),
				"quoted":        fmt.Sprintf("%.2f", amt),
				"typical_max":   fmt.Sprintf("%.2f", max),
			},
			SuggestedFix: "obtain an itemized justification for the quoted amount",
		})
	}
	return findings, overranges
}

// effectiveMax widens the typical maximum when the note documents a
// legitimate cost variation the procedure defines, e.g. bilateral in
// one sitting.
func effectiveMax(max float64, snap *claim.Snapshot, proc *rules.ProcedureReference) float64 {
	if snap.Note == nil || len(proc.CostVariations) == 0 {
		return max
	}
	text := strings.ToLower(snap.Note.Diagnosis + " " + snap.Note.ProposedTreatment + " " + snap.Note.Justification)
	for _, cv := range proc.CostVariations {
		if cv.Multiplier.Max > 1 && strings.Contains(text, strings.ToLower(cv.Name)) {
			return max * cv.Multiplier.Max
		}
	}
	return max
}

func hasDocumentedComplication(snap *claim.Snapshot) bool {
	if snap.Note != nil && strings.TrimSpace(snap.Note.Complications) != "" {
		return true
	}
	if snap.Discharge != nil && strings.TrimSpace(snap.Discharge.Complications) != "" {
		return true
	}
	return false
}

func (f FWACheck) stayFindings(snap *claim.Snapshot, proc *rules.ProcedureReference) []Finding {
	days := stayDays(snap)
	// A single-day stay for a day-care-appropriate procedure is
	// normal, never a flag.
	if days == 1 && proc.DayCareAppropriate {
		return nil
	}
	if proc.TypicalStayDays.Max <= 0 || days <= proc.TypicalStayDays.Max+stayGraceDays {
		return nil
	}
	if hasDocumentedComplication(snap) {
		return []Finding{{
			Severity: SeverityInfo,
			Category: CheckFWA,
			Code:     "extended_stay_documented",
			Message:  fmt.Sprintf("stay of %d days exceeds the typical %d but a complication is documented", days, proc.TypicalStayDays.Max),
			Detail:   map[string]string{"stay_days": fmt.Sprintf("%d", days)},
		}}
	}
	return []Finding{{
		Severity: SeverityWarning,
		Category: CheckFWA,
		Code:     "extended_stay_undocumented",
		Message:  fmt.Sprintf("stay of %d days exceeds the typical maximum of %d with no documented reason", days, proc.TypicalStayDays.Max),
		Detail: map[string]string{
			"stay_days":   fmt.Sprintf("%d", days),
			"typical_max": fmt.Sprintf("%d", proc.TypicalStayDays.Max),
		},
		SuggestedFix: "document the medical reason for the extended stay",
	}}
}

// applyJudgments runs the reasoning pass over the over-range
// categories and downgrades findings it classifies as patient-elective
// or documented. On failure the deterministic findings are returned
// untouched plus an info finding marking the skipped pass.
func (f FWACheck) applyJudgments(ctx context.Context, snap *claim.Snapshot, proc *rules.ProcedureReference, findings []Finding, overranges []claim.Category) ([]Finding, json.RawMessage, *Finding) {
	raw, err := f.assessor.Assess(ctx, f.buildRequest(snap, proc, overranges))
	if err != nil {
		return findings, nil, &Finding{
			Severity: SeverityInfo,
			Category: CheckFWA,
			Code:     "judgment_unavailable",
			Message:  "cost-pattern judgment could not run; range findings are unreviewed",
		}
	}
	var out fwaAssessment
	if err := json.Unmarshal(raw, &out); err != nil {
		return findings, nil, &Finding{
			Severity: SeverityInfo,
			Category: CheckFWA,
			Code:     "judgment_unavailable",
			Message:  "cost-pattern judgment response did not parse; range findings are unreviewed",
		}
	}

	byCategory := make(map[string]fwaJudgment, len(out.Judgments))
	for _, j := range out.Judgments {
		byCategory[strings.ToLower(j.Category)] = j
	}

	for i := range findings {
		cat, ok := findings[i].Detail["cost_category"]
		if !ok {
			continue
		}
		j, ok := byCategory[strings.ToLower(cat)]
		if !ok {
			continue
		}
		switch strings.ToLower(j.Classification) {
		case "elective":
			// Patient-elective upgrades are a cost disclosure, not
			// fraud.
			findings[i].Severity = SeverityInfo
			findings[i].Code = "patient_elective_cost"
			findings[i].Message = fmt.Sprintf("%s exceeds the typical range as a patient-elective choice: %s", cat, j.Rationale)
			findings[i].SuggestedFix = "confirm the patient accepts the elective cost difference"
		case "documented":
			if findings[i].Severity == SeverityCritical {
				findings[i].Severity = SeverityWarning
				findings[i].Code = "cost_above_range"
			}
			if j.Rationale != "" {
				findings[i].Detail["documented_reason"] = j.Rationale
			}
		}
	}
	return findings, raw, nil
}

func (f FWACheck) buildRequest(snap *claim.Snapshot, proc *rules.ProcedureReference, overranges []claim.Category) reasoning.Request {
	items := make([]map[string]interface{}, 0, len(overranges))
	for _, cat := range overranges {
		rng := proc.TypicalCosts[cat]
		items = append(items, map[string]interface{}{
			"category":    string(cat),
			"quoted":      snap.Costs[cat],
			"typical_min": rng.Min,
			"typical_max": rng.Max,
		})
	}
	input := map[string]interface{}{
		"procedure":        proc.DisplayName,
		"over_range_items": items,
		"fwa_patterns":     proc.FWAPatterns,
	}
	if snap.Note != nil {
		input["justification"] = snap.Note.Justification
		input["complications"] = snap.Note.Complications
		input["proposed_treatment"] = snap.Note.ProposedTreatment
	}
	return reasoning.Request{
		Task: "fwa_judgment",
		Instructions: "For each over-range line item decide whether the overage is documented " +
			"(a contemporaneous medical reason appears in the note, with plausible timing), elective " +
			"(a patient-chosen upgrade), or unexplained. " +
			"Respond with JSON: judgments ([{category, classification: documented|elective|unexplained, rationale}]).",
		Input: input,
	}
}
