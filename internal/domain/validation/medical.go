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

// strengthDelta maps the qualitative justification rating to its base
// deduction.
var strengthDelta = map[string]int{
	"strong":     0,
	"acceptable": -5,
	"weak":       -10,
	"concerning": -15,
}

const extraConcernDelta = -5

// costWords guard the check's boundary: medical necessity never
// comments on money. Any concern mentioning cost is discarded so the
// same fact is not flagged twice across checks.
var costWords = []string{"cost", "price", "charge", "amount", "expensive", "₹", "rupee", "inr"}

// MedicalCheck assesses whether the documented justification supports
// the proposed procedure. Reasoning-based; degrades to unavailable
// when the assessor cannot complete.
type MedicalCheck struct {
	assessor reasoning.Assessor
}

func NewMedicalCheck(assessor reasoning.Assessor) MedicalCheck {
	return MedicalCheck{assessor: assessor}
}

func (MedicalCheck) Name() string { return CheckMedical }

type medicalAssessment struct {
	Strength            string   `json:"strength"`
	DiagnosisAligned    bool     `json:"diagnosis_aligned"`
	HasObjectiveMetric  bool     `json:"has_objective_metric"`
	HasFunctionalImpact bool     `json:"has_functional_impact"`
	GenericLanguage     bool     `json:"generic_language"`
	Concerns            []string `json:"concerns"`
}

func (m MedicalCheck) Run(ctx context.Context, snap *claim.Snapshot, bundle *rules.Bundle) CheckResult {
	if snap.Note == nil {
		// Nothing to review; completeness reports the missing note.
		return CheckResult{
			CheckName: CheckMedical,
			Verdict:   VerdictPass,
			Findings: []Finding{{
				Severity: SeverityInfo,
				Category: CheckMedical,
				Code:     "no_medical_note",
				Message:  "no medical note supplied for review",
			}},
		}
	}

	raw, err := m.assessor.Assess(ctx, m.buildRequest(snap, bundle.Procedure))
	if err != nil {
		return Unavailable(CheckMedical, err.Error())
	}
	var out medicalAssessment
	if err := json.Unmarshal(raw, &out); err != nil {
		return Unavailable(CheckMedical, "assessment response did not parse")
	}
	base, ok := strengthDelta[strings.ToLower(out.Strength)]
	if !ok {
		return Unavailable(CheckMedical, fmt.Sprintf("unknown strength rating %q", out.Strength))
	}

	concerns := filterCostConcerns(out.Concerns)
	if !out.HasObjectiveMetric || !out.HasFunctionalImpact {
		concerns = append(concerns, "justification lacks an objective measurement or a functional-impact statement; both are required")
	}
	if out.GenericLanguage {
		concerns = append(concerns, "justification reads as generic or templated rather than patient-specific")
	}
	if !out.DiagnosisAligned {
		concerns = append(concerns, "stated diagnosis does not clearly support the proposed procedure")
	}
	if msg := missingMandatoryDiagnostic(snap.Note, bundle.Procedure); msg != "" {
		concerns = append(concerns, msg)
	}

	strength := strings.ToLower(out.Strength)
	delta := base
	if len(concerns) > 1 {
		delta += extraConcernDelta * (len(concerns) - 1)
	}

	var findings []Finding
	strengthSeverity := SeverityInfo
	switch strength {
	case "concerning":
		strengthSeverity = SeverityCritical
	case "weak", "acceptable":
		strengthSeverity = SeverityWarning
	}
	findings = append(findings, Finding{
		Severity: strengthSeverity,
		Category: CheckMedical,
		Code:     "justification_" + strength,
		Message:  fmt.Sprintf("medical justification rated %s", strength),
		Detail:   map[string]string{"strength": strength},
	})
	for _, c := range concerns {
		findings = append(findings, Finding{
			Severity:     SeverityWarning,
			Category:     CheckMedical,
			Code:         "necessity_concern",
			Message:      c,
			SuggestedFix: "ask the treating doctor to document the specific clinical findings",
		})
	}

	var verdict Verdict
	switch {
	case strength == "concerning":
		verdict = VerdictFail
	case strength == "strong" && len(concerns) == 0:
		verdict = VerdictPass
	default:
		verdict = VerdictWarning
	}

	return CheckResult{
		CheckName:  CheckMedical,
		Verdict:    verdict,
		Findings:   findings,
		ScoreDelta: delta,
		RawDetail:  raw,
	}
}

func (m MedicalCheck) buildRequest(snap *claim.Snapshot, proc *rules.ProcedureReference) reasoning.Request {
	n := snap.Note
	tests := make([]map[string]string, 0, len(n.DiagnosticTests))
	for _, t := range n.DiagnosticTests {
		tests = append(tests, map[string]string{"name": t.Name, "result": t.Result, "date": t.Date.String()})
	}
	return reasoning.Request{
		Task: "medical_necessity",
		Instructions: "Assess whether the clinical documentation supports the proposed procedure. " +
			"Do not consider monetary cost in any form. " +
			"Respond with JSON: strength (strong|acceptable|weak|concerning), diagnosis_aligned (bool), " +
			"has_objective_metric (bool), has_functional_impact (bool), generic_language (bool), concerns ([]string).",
		Input: map[string]interface{}{
			"diagnosis":          n.Diagnosis,
			"icd_code":           n.ICDCode,
			"clinical_history":   n.ClinicalHistory,
			"justification":      n.Justification,
			"proposed_treatment": n.ProposedTreatment,
			"diagnostic_tests":   tests,
			"procedure":          proc.DisplayName,
			"necessity_criteria": map[string]interface{}{
				"objective_measures": proc.Necessity.ObjectiveMeasures,
				"functional_impact":  proc.Necessity.FunctionalImpact,
			},
		},
	}
}

// missingMandatoryDiagnostic checks that at least one of the
// procedure's required diagnostics is documented. One is sufficient.
func missingMandatoryDiagnostic(n *claim.MedicalNote, proc *rules.ProcedureReference) string {
	if len(proc.RequiredDiagnostics) == 0 {
		return ""
	}
	for _, required := range proc.RequiredDiagnostics {
		lr := strings.ToLower(required)
		for _, t := range n.DiagnosticTests {
			lt := strings.ToLower(t.Name)
			if strings.Contains(lt, lr) || strings.Contains(lr, lt) {
				return ""
			}
		}
	}
	return fmt.Sprintf("none of the required diagnostics (%s) is documented; at least one is needed",
		strings.Join(proc.RequiredDiagnostics, ", "))
}

func filterCostConcerns(concerns []string) []string {
	out := concerns[:0:0]
	for _, c := range concerns {
		lc := strings.ToLower(c)
		mentionsCost := false
		for _, w := range costWords {
			if strings.Contains(lc, w) {
				mentionsCost = true
				break
			}
		}
		if !mentionsCost {
			out = append(out, c)
		}
	}
	return out
}
