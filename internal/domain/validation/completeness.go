package validation

import (
	"context"
	"fmt"
	"math"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
)

// totalTolerancePct is how far the line-item sum may drift from the
// stated total before the mismatch becomes a finding.
const totalTolerancePct = 1.0

const missingFieldDelta = -5

// CompletenessCheck verifies presence and well-formedness of every
// mandatory field for the snapshot's stage. A missing or malformed
// field is itself the finding; the check never rejects input.
type CompletenessCheck struct{}

func (CompletenessCheck) Name() string { return CheckCompleteness }

func (CompletenessCheck) Run(_ context.Context, snap *claim.Snapshot, _ *rules.Bundle) CheckResult {
	var findings []Finding

	missing := func(field, fix string) {
		findings = append(findings, Finding{
			Severity:     SeverityCritical,
			Category:     CheckCompleteness,
			Code:         "missing_field",
			Message:      field + " is missing",
			Detail:       map[string]string{"field": field},
			SuggestedFix: fix,
		})
	}
	recommended := func(field, fix string) {
		findings = append(findings, Finding{
			Severity:     SeverityInfo,
			Category:     CheckCompleteness,
			Code:         "missing_recommended_field",
			Message:      field + " is recommended but absent",
			Detail:       map[string]string{"field": field},
			SuggestedFix: fix,
		})
	}
	malformed := func(field, msg string) {
		findings = append(findings, Finding{
			Severity: SeverityCritical,
			Category: CheckCompleteness,
			Code:     "invalid_value",
			Message:  msg,
			Detail:   map[string]string{"field": field},
		})
	}

	if snap.Policy.InsurerID == "" {
		missing("policy_reference.insurer_id", "identify the insurer on the policy document")
	}
	if snap.Policy.PolicyID == "" {
		missing("policy_reference.policy_id", "identify the plan on the policy document")
	}
	if snap.Policy.PolicyNumber == "" {
		missing("policy_reference.policy_number", "copy the policy number from the policy schedule")
	}
	if snap.Policy.StartDate.IsZero() {
		missing("policy_reference.start_date", "copy the policy start date from the policy schedule")
	}
	if snap.Policy.SumInsured <= 0 {
		missing("policy_reference.sum_insured", "state the sum insured from the policy schedule")
	}
	if snap.ProcedureID == "" {
		missing("procedure_reference", "name the planned procedure")
	}

	if len(snap.Costs) == 0 {
		missing("cost_breakdown", "attach the itemized hospital estimate")
	}
	for cat, amt := range snap.Costs {
		if amt < 0 || math.IsNaN(amt) || math.IsInf(amt, 0) {
			malformed("cost_breakdown."+string(cat), fmt.Sprintf("cost for %s is not a valid amount", cat))
		}
	}
	if snap.StatedTotal > 0 && len(snap.Costs) > 0 {
		sum := snap.Costs.Sum()
		if diff := math.Abs(sum - snap.StatedTotal); diff > snap.StatedTotal*totalTolerancePct/100 {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Category: CheckCompleteness,
				Code:     "total_mismatch",
				Message:  "line items do not sum to the stated total",
				Detail: map[string]string{
					"stated_total":  fmt.Sprintf("%.2f", snap.StatedTotal),
					"line_item_sum": fmt.Sprintf("%.2f", sum),
				},
				SuggestedFix: "reconcile the itemized estimate with the stated total",
			})
		}
	}

	switch snap.Stage {
	case claim.StageDischarge:
		d := snap.Discharge
		if d == nil {
			missing("discharge_documents", "attach the final bill and discharge summary")
			break
		}
		if d.DischargeSummary == "" {
			missing("discharge_documents.discharge_summary", "attach the discharge summary")
		}
		if d.AdmissionDate.IsZero() {
			missing("discharge_documents.admission_date", "record the admission date from the bill")
		}
		if d.DischargeDate.IsZero() {
			missing("discharge_documents.discharge_date", "record the discharge date from the bill")
		}
		if !d.AdmissionDate.IsZero() && !d.DischargeDate.IsZero() && d.DischargeDate.Before(d.AdmissionDate.Time) {
			malformed("discharge_documents.discharge_date", "discharge date precedes admission date")
		}
		if len(d.Medications) == 0 {
			recommended("discharge_documents.medications", "list discharge medications")
		}
		if d.FollowUpPlan == "" {
			recommended("discharge_documents.follow_up_plan", "record the follow-up plan")
		}
		if d.DischargeCondition == "" {
			recommended("discharge_documents.discharge_condition", "record the condition at discharge")
		}
	default:
		n := snap.Note
		if n == nil {
			missing("medical_note", "attach the treating doctor's note")
			break
		}
		if n.Diagnosis == "" {
			missing("medical_note.diagnosis", "record the diagnosis from the doctor's note")
		}
		if n.ClinicalHistory == "" {
			missing("medical_note.clinical_history", "record the clinical history")
		}
		if n.Justification == "" {
			missing("medical_note.justification", "record why hospitalization is needed")
		}
		if n.ProposedTreatment == "" {
			missing("medical_note.proposed_treatment", "record the proposed treatment")
		}
		if n.ICDCode == "" {
			recommended("medical_note.icd_code", "add the ICD-10 code for faster processing")
		}
		if len(n.DiagnosticTests) == 0 {
			recommended("medical_note.diagnostic_tests", "attach supporting investigation reports")
		}
		if n.PlannedStayDays <= 0 {
			recommended("medical_note.planned_stay_days", "state the expected length of stay")
		}
	}

	delta := 0
	verdict := VerdictPass
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			delta += missingFieldDelta
			verdict = VerdictFail
		case SeverityWarning:
			delta += missingFieldDelta
		}
	}

	return CheckResult{
		CheckName:  CheckCompleteness,
		Verdict:    verdict,
		Findings:   findings,
		ScoreDelta: delta,
	}
}
