package validation

import (
	"sort"

	"github.com/claimready/claimready/internal/domain/claim"
)

// Variance bands. Thresholds are strictly-greater: a variance of
// exactly 10% is acceptable and exactly 25% is minor.
const (
	varianceMinorPct       = 10.0
	varianceSignificantPct = 25.0
)

type varianceBand string

const (
	bandAcceptable  varianceBand = "acceptable"
	bandMinor       varianceBand = "minor"
	bandSignificant varianceBand = "significant"
)

type categoryVariance struct {
	Category claim.Category
	Estimate float64
	Actual   float64
	Delta    float64
	Pct      float64
	Band     varianceBand
}

func classifyVariance(pct float64) varianceBand {
	switch {
	case pct > varianceSignificantPct:
		return bandSignificant
	case pct > varianceMinorPct:
		return bandMinor
	default:
		return bandAcceptable
	}
}

// compareCosts computes per-category variance between an estimate and
// the actual bill. Cost decreases are always acceptable; a category
// with a zero estimate and a nonzero actual is treated as 100%
// variance. Categories absent from both sides are skipped. Results
// come back in stable category order.
func compareCosts(estimate, actual claim.CostBreakdown) []categoryVariance {
	seen := make(map[claim.Category]bool, len(estimate)+len(actual))
	var cats []claim.Category
	for cat := range estimate {
		if !seen[cat] {
			seen[cat] = true
			cats = append(cats, cat)
		}
	}
	for cat := range actual {
		if !seen[cat] {
			seen[cat] = true
			cats = append(cats, cat)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	out := make([]categoryVariance, 0, len(cats))
	for _, cat := range cats {
		est := estimate[cat]
		act := actual[cat]
		v := categoryVariance{Category: cat, Estimate: est, Actual: act, Delta: act - est}
		switch {
		case act <= est:
			v.Pct = 0
			if est > 0 {
				v.Pct = (act - est) / est * 100
			}
			v.Band = bandAcceptable
		case est <= 0:
			v.Pct = 100
			v.Band = bandSignificant
		default:
			v.Pct = (act - est) / est * 100
			v.Band = classifyVariance(v.Pct)
		}
		out = append(out, v)
	}
	return out
}

// flaggedVariances returns only the minor and significant entries.
func flaggedVariances(vs []categoryVariance) []categoryVariance {
	var out []categoryVariance
	for _, v := range vs {
		if v.Band != bandAcceptable {
			out = append(out, v)
		}
	}
	return out
}

// baselineCosts resolves the estimate a discharge bill is compared
// against: the stored pre-auth snapshot's breakdown when present.
func baselineCosts(snap *claim.Snapshot) (claim.CostBreakdown, bool) {
	if snap.PriorPreauth != nil && len(snap.PriorPreauth.Costs) > 0 {
		return snap.PriorPreauth.Costs, true
	}
	return nil, false
}
