package validation

import (
	"context"
	"encoding/json"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
	"github.com/claimready/claimready/internal/platform/reasoning"
)

// GuidanceCheck produces plain-language recovery guidance from the
// discharge documents: what the medications are for, what to expect
// during recovery, and warning signs that need a doctor. Purely
// informational, never affects the score.
type GuidanceCheck struct {
	assessor reasoning.Assessor
}

func NewGuidanceCheck(assessor reasoning.Assessor) GuidanceCheck {
	return GuidanceCheck{assessor: assessor}
}

func (GuidanceCheck) Name() string { return CheckGuidance }

type guidanceAssessment struct {
	RecoveryNotes   []string `json:"recovery_notes"`
	MedicationNotes []string `json:"medication_notes"`
	WarningSigns    []string `json:"warning_signs"`
}

func (g GuidanceCheck) Run(ctx context.Context, snap *claim.Snapshot, bundle *rules.Bundle) CheckResult {
	if snap.Discharge == nil {
		return CheckResult{CheckName: CheckGuidance, Verdict: VerdictPass}
	}

	raw, err := g.assessor.Assess(ctx, reasoning.Request{
		Task: "medical_guidance",
		Instructions: "Write short plain-language guidance for the patient from the discharge documents. " +
			"Respond with JSON: recovery_notes ([]string), medication_notes ([]string), warning_signs ([]string).",
		Input: map[string]interface{}{
			"procedure":           bundle.Procedure.DisplayName,
			"discharge_summary":   snap.Discharge.DischargeSummary,
			"medications":         snap.Discharge.Medications,
			"follow_up_plan":      snap.Discharge.FollowUpPlan,
			"discharge_condition": snap.Discharge.DischargeCondition,
		},
	})
	if err != nil {
		return Unavailable(CheckGuidance, err.Error())
	}
	var out guidanceAssessment
	if err := json.Unmarshal(raw, &out); err != nil {
		return Unavailable(CheckGuidance, "assessment response did not parse")
	}

	var findings []Finding
	add := func(code string, msgs []string) {
		for _, m := range msgs {
			findings = append(findings, Finding{
				Severity: SeverityInfo,
				Category: CheckGuidance,
				Code:     code,
				Message:  m,
			})
		}
	}
	add("recovery_note", out.RecoveryNotes)
	add("medication_note", out.MedicationNotes)
	add("warning_sign", out.WarningSigns)

	return CheckResult{
		CheckName: CheckGuidance,
		Verdict:   VerdictPass,
		Findings:  findings,
		RawDetail: raw,
	}
}
