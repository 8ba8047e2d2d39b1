package validation

import (
	"fmt"
	"strings"
)

// Summaries are the stakeholder projections of one aggregated result.
// Pure formatting over already-decided facts; no decision logic here.
type Summaries struct {
	Patient       string `json:"patient"`
	Doctor        string `json:"doctor"`
	HospitalStaff string `json:"hospital_staff"`
}

var statusHeadline = map[Status]string{
	StatusReady:          "Your claim documentation looks ready to submit.",
	StatusNeedsRevision:  "Your claim documentation needs some corrections before submission.",
	StatusCriticalIssues: "Your claim documentation has serious problems that must be fixed first.",
}

// BuildSummaries renders the three stakeholder views from an
// aggregated result.
func BuildSummaries(agg *AggregatedResult) Summaries {
	return Summaries{
		Patient:       patientSummary(agg),
		Doctor:        doctorSummary(agg),
		HospitalStaff: staffSummary(agg),
	}
}

// waivedOverageCategories collects the cost categories whose
// reconciliation deduction the escalation check waived as documented.
// Summaries footnote those overages instead of presenting them as open.
func waivedOverageCategories(agg *AggregatedResult) map[string]bool {
	waived := map[string]bool{}
	for _, f := range agg.Recommendations {
		if f.Category == CheckEscalation && f.Code == "escalation_documented" {
			waived[f.Detail["cost_category"]] = true
		}
	}
	return waived
}

func isWaivedOverage(f Finding, waived map[string]bool) bool {
	return f.Category == CheckReconciliation && f.Code == "significant_variance" &&
		waived[f.Detail["cost_category"]]
}

func patientSummary(agg *AggregatedResult) string {
	var b strings.Builder
	b.WriteString(statusHeadline[agg.Status])
	b.WriteString(fmt.Sprintf(" Readiness score: %d out of 100.", agg.OverallScore))

	waived := waivedOverageCategories(agg)
	criticals := countBySeverity(agg.Recommendations, SeverityCritical)
	warnings := 0
	for _, f := range agg.Recommendations {
		if f.Severity == SeverityWarning && !isWaivedOverage(f, waived) {
			warnings++
		}
	}
	if criticals > 0 {
		b.WriteString(fmt.Sprintf(" %d issue(s) must be resolved.", criticals))
	}
	if warnings > 0 {
		b.WriteString(fmt.Sprintf(" %d item(s) may reduce the amount the insurer pays.", warnings))
	}
	for _, f := range agg.Recommendations {
		if f.Severity == SeverityCritical && f.SuggestedFix != "" {
			b.WriteString(" Next step: " + f.SuggestedFix + ".")
			break
		}
	}
	if len(agg.Unavailable) > 0 {
		b.WriteString(" Some automated reviews could not run; the result is partial.")
	}
	return b.String()
}

func doctorSummary(agg *AggregatedResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Validation %s (score %d).", agg.Status, agg.OverallScore))
	wrote := false
	for _, f := range agg.Recommendations {
		if f.Category != CheckMedical && f.Category != CheckCompleteness {
			continue
		}
		if f.Severity == SeverityInfo {
			continue
		}
		b.WriteString(" " + strings.ToUpper(string(f.Severity)) + ": " + f.Message + ".")
		wrote = true
	}
	if !wrote {
		b.WriteString(" No documentation gaps attributed to the treating doctor.")
	}
	return b.String()
}

func staffSummary(agg *AggregatedResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s | score %d | %d finding(s)", agg.Status, agg.OverallScore, len(agg.Recommendations)))
	if len(agg.Unavailable) > 0 {
		b.WriteString(" | unavailable: " + strings.Join(agg.Unavailable, ", "))
	}
	b.WriteString(".")
	waived := waivedOverageCategories(agg)
	for _, f := range agg.Recommendations {
		if f.Severity == SeverityInfo {
			continue
		}
		b.WriteString(fmt.Sprintf(" [%s/%s] %s", f.Severity, f.Category, f.Message))
		if isWaivedOverage(f, waived) {
			b.WriteString(" (documented in the discharge summary; deduction waived)")
		} else if f.SuggestedFix != "" {
			b.WriteString(" -> " + f.SuggestedFix)
		}
		b.WriteString(".")
	}
	return b.String()
}

func countBySeverity(findings []Finding, sev Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
