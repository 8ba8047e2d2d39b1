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

// EscalationCheck searches the discharge documentation for explicit,
// temporally plausible medical reasons behind the cost overages the
// bill shows. It reports documented or undocumented per category; it
// deliberately never judges whether the escalation was clinically
// justified, and never predicts insurer approval or a patient payment
// figure. A documented significant overage earns a compensating +20 so
// the reconciliation deduction nets out.
type EscalationCheck struct {
	assessor reasoning.Assessor
}

func NewEscalationCheck(assessor reasoning.Assessor) EscalationCheck {
	return EscalationCheck{assessor: assessor}
}

func (EscalationCheck) Name() string { return CheckEscalation }

const escalationWaiverDelta = 20

type escalationJudgment struct {
	Category      string `json:"category"`
	Documentation string `json:"documentation"`
	Evidence      string `json:"evidence"`
}

type escalationAssessment struct {
	Judgments []escalationJudgment `json:"judgments"`
}

func (e EscalationCheck) Run(ctx context.Context, snap *claim.Snapshot, _ *rules.Bundle) CheckResult {
	estimate, ok := baselineCosts(snap)
	if !ok {
		return CheckResult{
			CheckName: CheckEscalation,
			Verdict:   VerdictPass,
			Findings: []Finding{{
				Severity: SeverityInfo,
				Category: CheckEscalation,
				Code:     "no_baseline",
				Message:  "no pre-authorization estimate available; nothing to analyze",
			}},
		}
	}
	flagged := flaggedVariances(compareCosts(estimate, snap.Costs))
	if len(flagged) == 0 {
		return CheckResult{
			CheckName: CheckEscalation,
			Verdict:   VerdictPass,
			Findings: []Finding{{
				Severity: SeverityInfo,
				Category: CheckEscalation,
				Code:     "no_escalations",
				Message:  "all cost categories are within the acceptable variance of the estimate",
			}},
		}
	}

	raw, err := e.assessor.Assess(ctx, e.buildRequest(snap, flagged))
	if err != nil {
		return Unavailable(CheckEscalation, err.Error())
	}
	var out escalationAssessment
	if err := json.Unmarshal(raw, &out); err != nil {
		return Unavailable(CheckEscalation, "assessment response did not parse")
	}
	byCategory := make(map[string]escalationJudgment, len(out.Judgments))
	for _, j := range out.Judgments {
		byCategory[strings.ToLower(j.Category)] = j
	}

	var findings []Finding
	delta := 0
	verdict := VerdictPass
	for _, v := range flagged {
		j, ok := byCategory[strings.ToLower(string(v.Category))]
		documented := ok && strings.EqualFold(j.Documentation, "documented")
		detail := map[string]string{
			"cost_category": string(v.Category),
			"variance_pct":  fmt.Sprintf("%.1f", v.Pct),
			"documentation": "undocumented",
		}
		if documented {
			detail["documentation"] = "documented"
			if j.Evidence != "" {
				detail["evidence"] = j.Evidence
			}
		}

		switch {
		case v.Band == bandSignificant && documented:
			findings = append(findings, Finding{
				Severity: SeverityInfo,
				Category: CheckEscalation,
				Code:     "escalation_documented",
				Message:  fmt.Sprintf("overage in %s is documented in the discharge summary; deduction waived", v.Category),
				Detail:   detail,
			})
			delta += escalationWaiverDelta
		case v.Band == bandSignificant:
			findings = append(findings, Finding{
				Severity:     SeverityWarning,
				Category:     CheckEscalation,
				Code:         "escalation_undocumented",
				Message:      fmt.Sprintf("significant overage in %s has no documented medical reason", v.Category),
				Detail:       detail,
				SuggestedFix: "obtain an addendum to the discharge summary explaining the overage",
			})
			verdict = VerdictWarning
		case documented:
			findings = append(findings, Finding{
				Severity: SeverityInfo,
				Category: CheckEscalation,
				Code:     "escalation_documented",
				Message:  fmt.Sprintf("minor overage in %s is documented in the discharge summary", v.Category),
				Detail:   detail,
			})
		default:
			findings = append(findings, Finding{
				Severity:     SeverityInfo,
				Category:     CheckEscalation,
				Code:         "escalation_undocumented",
				Message:      fmt.Sprintf("minor overage in %s has no documented reason", v.Category),
				Detail:       detail,
				SuggestedFix: "documentation of the increase is recommended",
			})
		}
	}

	return CheckResult{
		CheckName:  CheckEscalation,
		Verdict:    verdict,
		Findings:   findings,
		ScoreDelta: delta,
		RawDetail:  raw,
	}
}

func (e EscalationCheck) buildRequest(snap *claim.Snapshot, flagged []categoryVariance) reasoning.Request {
	items := make([]map[string]interface{}, 0, len(flagged))
	for _, v := range flagged {
		items = append(items, map[string]interface{}{
			"category":     string(v.Category),
			"estimate":     v.Estimate,
			"actual":       v.Actual,
			"variance_pct": v.Pct,
			"band":         string(v.Band),
		})
	}
	input := map[string]interface{}{"flagged_categories": items}
	if snap.Discharge != nil {
		input["discharge_summary"] = snap.Discharge.DischargeSummary
		input["complications"] = snap.Discharge.Complications
		input["procedures_performed"] = snap.Discharge.ProceduresPerformed
		input["admission_date"] = snap.Discharge.AdmissionDate.String()
		input["discharge_date"] = snap.Discharge.DischargeDate.String()
	}
	return reasoning.Request{
		Task: "cost_escalation",
		Instructions: "For each flagged category decide only whether the discharge documentation contains " +
			"an explicit, temporally plausible medical reason for the cost increase. Do not judge clinical " +
			"adequacy, do not predict insurer approval, and do not compute patient payments. " +
			"Respond with JSON: judgments ([{category, documentation: documented|undocumented, evidence}]).",
		Input: input,
	}
}
