package validation

import (
	"strings"
	"testing"
)

func sampleAggregate() *AggregatedResult {
	return &AggregatedResult{
		Stage:        "pre_authorization",
		OverallScore: 55,
		Status:       StatusCriticalIssues,
		Recommendations: []Finding{
			{
				Severity:     SeverityCritical,
				Category:     CheckPolicy,
				Code:         "waiting_period_violation",
				Message:      "knee replacement has a 24-month waiting period, policy is 10 months old",
				SuggestedFix: "claimable after 14 more months of coverage",
			},
			{
				Severity:     SeverityWarning,
				Category:     CheckMedical,
				Code:         "justification_weak",
				Message:      "medical justification rated weak",
				SuggestedFix: "ask the treating doctor to document the specific clinical findings",
			},
			{
				Severity: SeverityInfo,
				Category: CheckCompleteness,
				Code:     "missing_recommended_field",
				Message:  "medical_note.icd_code is recommended but absent",
			},
		},
	}
}

func TestSummaries_PatientView(t *testing.T) {
	s := BuildSummaries(sampleAggregate())
	if !strings.Contains(s.Patient, "serious problems") {
		t.Errorf("patient view must lead with the status headline: %q", s.Patient)
	}
	if !strings.Contains(s.Patient, "55 out of 100") {
		t.Errorf("patient view must state the score: %q", s.Patient)
	}
	if !strings.Contains(s.Patient, "claimable after 14 more months") {
		t.Errorf("patient view surfaces the first critical fix: %q", s.Patient)
	}
	if strings.Contains(s.Patient, "partial") {
		t.Errorf("no unavailable checks, no partial note: %q", s.Patient)
	}
}

func TestSummaries_PatientPartialNote(t *testing.T) {
	agg := sampleAggregate()
	agg.Unavailable = []string{CheckMedical}
	s := BuildSummaries(agg)
	if !strings.Contains(s.Patient, "partial") {
		t.Errorf("unavailable checks must be disclosed to the patient: %q", s.Patient)
	}
}

func TestSummaries_DoctorViewScopesToClinicalFindings(t *testing.T) {
	s := BuildSummaries(sampleAggregate())
	if !strings.Contains(s.Doctor, "medical justification rated weak") {
		t.Errorf("doctor view must include the medical finding: %q", s.Doctor)
	}
	if strings.Contains(s.Doctor, "waiting period") {
		t.Errorf("policy findings are not the doctor's to fix: %q", s.Doctor)
	}
	if strings.Contains(s.Doctor, "icd_code") {
		t.Errorf("info findings stay out of the doctor view: %q", s.Doctor)
	}
}

func TestSummaries_DoctorViewCleanResult(t *testing.T) {
	agg := sampleAggregate()
	agg.Recommendations = nil
	s := BuildSummaries(agg)
	if !strings.Contains(s.Doctor, "No documentation gaps") {
		t.Errorf("clean result needs an explicit all-clear: %q", s.Doctor)
	}
}

func TestSummaries_StaffViewIsComplete(t *testing.T) {
	agg := sampleAggregate()
	agg.Unavailable = []string{CheckFWA}
	s := BuildSummaries(agg)
	if !strings.Contains(s.HospitalStaff, "score 55") {
		t.Errorf("staff view states the score: %q", s.HospitalStaff)
	}
	if !strings.Contains(s.HospitalStaff, "3 finding(s)") {
		t.Errorf("staff view counts all findings: %q", s.HospitalStaff)
	}
	if !strings.Contains(s.HospitalStaff, "unavailable: fwa_detection") {
		t.Errorf("staff view lists unavailable checks: %q", s.HospitalStaff)
	}
	if !strings.Contains(s.HospitalStaff, "waiting_period") && !strings.Contains(s.HospitalStaff, "waiting period") {
		t.Errorf("staff view includes every actionable finding: %q", s.HospitalStaff)
	}
}

func TestSummaries_DocumentedOverageIsFootnoted(t *testing.T) {
	agg := &AggregatedResult{
		Stage:        "discharge",
		OverallScore: 90,
		Status:       StatusReady,
		Recommendations: []Finding{
			{
				Severity:     SeverityWarning,
				Category:     CheckReconciliation,
				Code:         "significant_variance",
				Message:      "surgeon cost exceeds the estimate by 32.0%",
				Detail:       map[string]string{"cost_category": "surgeon", "variance_pct": "32.0"},
				SuggestedFix: "ensure the discharge summary documents the reason for the overage",
			},
			{
				Severity: SeverityInfo,
				Category: CheckEscalation,
				Code:     "escalation_documented",
				Message:  "overage in surgeon is documented in the discharge summary; deduction waived",
				Detail:   map[string]string{"cost_category": "surgeon", "documentation": "documented"},
			},
		},
	}
	s := BuildSummaries(agg)
	if !strings.Contains(s.HospitalStaff, "deduction waived") {
		t.Errorf("staff view must footnote the documented overage: %q", s.HospitalStaff)
	}
	if strings.Contains(s.HospitalStaff, "ensure the discharge summary documents") {
		t.Errorf("waived overage must not be presented as an open fix: %q", s.HospitalStaff)
	}
	if strings.Contains(s.Patient, "may reduce the amount") {
		t.Errorf("waived overage must not count as an open warning for the patient: %q", s.Patient)
	}
}

func TestSummaries_UndocumentedOverageStaysOpen(t *testing.T) {
	agg := &AggregatedResult{
		Stage:        "discharge",
		OverallScore: 75,
		Status:       StatusNeedsRevision,
		Recommendations: []Finding{
			{
				Severity:     SeverityWarning,
				Category:     CheckReconciliation,
				Code:         "significant_variance",
				Message:      "room_rent cost exceeds the estimate by 40.0%",
				Detail:       map[string]string{"cost_category": "room_rent", "variance_pct": "40.0"},
				SuggestedFix: "ensure the discharge summary documents the reason for the overage",
			},
		},
	}
	s := BuildSummaries(agg)
	if !strings.Contains(s.HospitalStaff, "ensure the discharge summary documents") {
		t.Errorf("undocumented overage keeps its fix in the staff view: %q", s.HospitalStaff)
	}
	if !strings.Contains(s.Patient, "1 item(s) may reduce the amount") {
		t.Errorf("undocumented overage counts as an open warning: %q", s.Patient)
	}
}
