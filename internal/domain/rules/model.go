package rules

import (
	"github.com/claimready/claimready/internal/domain/claim"
)

// Range is an inclusive numeric range, typically an INR cost band.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// IntRange is an inclusive integer range, typically days.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// WaitingPeriods holds the elapsed-time conditions a policy imposes
// before a claim becomes admissible.
type WaitingPeriods struct {
	// InitialDays applies to every hospitalization from policy start.
	InitialDays int `json:"initial_days"`
	// PreExistingMonths applies to declared pre-existing conditions.
	PreExistingMonths int `json:"pre_existing_months"`
	// ProcedureMonths maps procedure id to a procedure-specific
	// waiting period in months.
	ProcedureMonths map[string]int `json:"procedure_months,omitempty"`
}

// RoomRentLimit is a policy sub-limit on the daily room rent.
type RoomRentLimit struct {
	// Type is "percentage" (of sum insured, per day) or "fixed".
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	// AppliesTo lists the line-item categories subject to
	// proportionate deduction when the limit is breached.
	AppliesTo []claim.Category `json:"applies_to"`
}

const (
	RoomRentPercentage = "percentage"
	RoomRentFixed      = "fixed"
)

// PermittedPerDay computes the daily room-rent cap for a policy's sum
// insured. Returns 0 when the limit type is unknown.
func (l RoomRentLimit) PermittedPerDay(sumInsured float64) float64 {
	switch l.Type {
	case RoomRentPercentage:
		return sumInsured * l.Value / 100
	case RoomRentFixed:
		return l.Value
	}
	return 0
}

// CoPay is a policy co-payment rule, optionally gated on patient age.
type CoPay struct {
	Percent float64 `json:"percent"`
	// AgeThreshold applies the co-pay only at or above this age;
	// zero means the co-pay always applies.
	AgeThreshold int `json:"age_threshold,omitempty"`
}

// PolicyRule is one insurer/policy's full rule set, keyed by
// (insurer_id, policy_id). Loaded once at startup, read-only after.
type PolicyRule struct {
	InsurerID string `json:"insurer_id"`
	PolicyID  string `json:"policy_id"`
	Name      string `json:"name"`

	WaitingPeriods WaitingPeriods `json:"waiting_periods"`
	Exclusions     []string       `json:"exclusions,omitempty"`
	RoomRent       *RoomRentLimit `json:"room_rent_limit,omitempty"`
	CoPay          *CoPay         `json:"co_pay,omitempty"`
}

// NecessityCriteria describes what a medical-necessity justification
// must contain for a given procedure.
type NecessityCriteria struct {
	// ObjectiveMeasures names quantified severity metrics expected in
	// the justification, e.g. a grading scale or score.
	ObjectiveMeasures []string `json:"objective_measures,omitempty"`
	// FunctionalImpact requires a statement of specific activities
	// affected by the condition.
	FunctionalImpact bool `json:"functional_impact"`
}

// CostVariation is a legitimate multiplier on typical costs, e.g. a
// bilateral procedure performed in one sitting.
type CostVariation struct {
	Name       string `json:"name"`
	Multiplier Range  `json:"multiplier"`
}

// ProcedureReference is the clinical and cost reference data for one
// procedure, keyed by procedure id.
type ProcedureReference struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Synonyms    []string `json:"synonyms,omitempty"`

	TypicalCosts       map[claim.Category]Range `json:"typical_costs"`
	TypicalStayDays    IntRange                 `json:"typical_stay_days"`
	DayCareAppropriate bool                     `json:"day_care_appropriate"`

	RequiredDiagnostics []string          `json:"required_diagnostics,omitempty"`
	OptionalDiagnostics []string          `json:"optional_diagnostics,omitempty"`
	Necessity           NecessityCriteria `json:"necessity_criteria"`

	FWAPatterns    []string        `json:"fwa_patterns,omitempty"`
	CostVariations []CostVariation `json:"cost_variations,omitempty"`
}

// Bundle carries the resolved rule set for one validation run.
type Bundle struct {
	Policy    *PolicyRule
	Procedure *ProcedureReference
}
