package validation

import (
	"sort"
)

const baseScore = 100

// Aggregate merges the check results of one run into the final score,
// status and ranked recommendation list. It reads only verdicts,
// score deltas and findings; it never special-cases a check by name.
func Aggregate(stage string, results []CheckResult) *AggregatedResult {
	score := baseScore
	perCheck := make(map[string]CheckResult, len(results))
	var recommendations []Finding
	var unavailable []string

	for _, r := range results {
		perCheck[r.CheckName] = r
		score += r.ScoreDelta
		recommendations = append(recommendations, r.Findings...)
		if r.Verdict == VerdictUnavailable {
			unavailable = append(unavailable, r.CheckName)
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] < severityRank[b.Severity]
		}
		return checkPriority[a.Category] < checkPriority[b.Category]
	})
	sort.Strings(unavailable)

	return &AggregatedResult{
		Stage:           stage,
		OverallScore:    score,
		Status:          StatusForScore(score),
		PerCheck:        perCheck,
		Recommendations: recommendations,
		Unavailable:     unavailable,
	}
}

// StatusForScore maps a score to its readiness tier. Status is a pure
// function of the score; no verdict feeds it directly.
func StatusForScore(score int) Status {
	switch {
	case score >= 80:
		return StatusReady
	case score >= 60:
		return StatusNeedsRevision
	default:
		return StatusCriticalIssues
	}
}
