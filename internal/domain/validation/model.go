package validation

import (
	"encoding/json"
)

// Verdict is a check's terminal state.
type Verdict string

const (
	VerdictPass        Verdict = "pass"
	VerdictWarning     Verdict = "warning"
	VerdictFail        Verdict = "fail"
	VerdictUnavailable Verdict = "unavailable"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// severityRank orders critical before warning before info.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// Check names. Also the finding category values.
const (
	CheckCompleteness   = "completeness"
	CheckPolicy         = "policy_compliance"
	CheckMedical        = "medical_necessity"
	CheckFWA            = "fwa_detection"
	CheckReconciliation = "bill_reconciliation"
	CheckEscalation     = "cost_escalation"
	CheckGuidance       = "medical_guidance"
)

// checkPriority fixes the tie-break order for recommendations when
// severities are equal.
var checkPriority = map[string]int{
	CheckPolicy:         0,
	CheckCompleteness:   1,
	CheckMedical:        2,
	CheckFWA:            3,
	CheckReconciliation: 4,
	CheckEscalation:     5,
	CheckGuidance:       6,
}

// Finding is one issue or observation. Findings are ordinary data:
// a detected problem is an output value, never an error.
type Finding struct {
	Severity Severity `json:"severity"`
	// Category names the check that produced the finding.
	Category string `json:"category"`
	// Code is a stable machine-readable identifier for the kind of
	// issue, e.g. "missing_field" or "waiting_period_violation".
	Code string `json:"code"`
	// Message is a structured description; Detail carries the values
	// it refers to so downstream rendering needs no re-parsing.
	Message string            `json:"message"`
	Detail  map[string]string `json:"detail,omitempty"`
	// SuggestedFix is an optional actionable instruction.
	SuggestedFix string `json:"suggested_fix,omitempty"`
}

// CheckResult is the output of one validation check.
type CheckResult struct {
	CheckName  string    `json:"check_name"`
	Verdict    Verdict   `json:"verdict"`
	Findings   []Finding `json:"findings"`
	ScoreDelta int       `json:"score_delta"`
	// RawDetail is an opaque payload for downstream formatting; the
	// aggregation engine never reads it.
	RawDetail json.RawMessage `json:"raw_detail,omitempty"`
}

// Unavailable builds the degraded result for a reasoning check that
// could not complete: zero score impact and a single info finding.
func Unavailable(checkName, reason string) CheckResult {
	return CheckResult{
		CheckName:  checkName,
		Verdict:    VerdictUnavailable,
		ScoreDelta: 0,
		Findings: []Finding{{
			Severity: SeverityInfo,
			Category: checkName,
			Code:     "check_unavailable",
			Message:  "check could not run: " + reason,
		}},
	}
}

// Status is the claim readiness tier, derived purely from the score.
type Status string

const (
	StatusReady          Status = "ready"
	StatusNeedsRevision  Status = "needs_revision"
	StatusCriticalIssues Status = "critical_issues"
)

// AggregatedResult is the terminal artifact of one validation run.
type AggregatedResult struct {
	Stage        string                 `json:"stage"`
	OverallScore int                    `json:"overall_score"`
	Status       Status                 `json:"status"`
	PerCheck     map[string]CheckResult `json:"per_check_results"`
	// Recommendations are all findings across checks, ordered by
	// severity and then fixed check priority.
	Recommendations []Finding `json:"ranked_recommendations"`
	// Unavailable lists checks that degraded, so callers can render
	// the partial result without implying full validation.
	Unavailable []string `json:"unavailable_checks,omitempty"`
}
