package claim

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Stage identifies which validation pipeline a snapshot is built for.
type Stage string

const (
	StagePreAuth   Stage = "pre_authorization"
	StageDischarge Stage = "discharge"
)

// Category is a cost line-item category as it appears on hospital
// estimates and final bills.
type Category string

const (
	CategoryRoom        Category = "room"
	CategoryNursing     Category = "nursing"
	CategorySurgeon     Category = "surgeon"
	CategoryAnesthesia  Category = "anesthesia"
	CategoryOT          Category = "operation_theatre"
	CategoryMedicines   Category = "medicines"
	CategoryConsumables Category = "consumables"
	CategoryImplants    Category = "implants"
	CategoryDiagnostics Category = "diagnostics"
	CategoryICU         Category = "icu"
	CategoryAdmin       Category = "admin"
)

// Categories lists every known category in bill order.
var Categories = []Category{
	CategoryRoom,
	CategoryNursing,
	CategorySurgeon,
	CategoryAnesthesia,
	CategoryOT,
	CategoryMedicines,
	CategoryConsumables,
	CategoryImplants,
	CategoryDiagnostics,
	CategoryICU,
	CategoryAdmin,
}

// CostBreakdown maps a line-item category to its amount in INR.
type CostBreakdown map[Category]float64

// Sum returns the total of all line items.
func (c CostBreakdown) Sum() float64 {
	var total float64
	for _, amt := range c {
		total += amt
	}
	return total
}

// PolicyReference identifies the insurance policy a claim is raised
// against, together with the coverage figures needed for validation.
type PolicyReference struct {
	InsurerID            string `json:"insurer_id"`
	PolicyID             string `json:"policy_id"`
	PolicyNumber         string `json:"policy_number"`
	StartDate            Date   `json:"start_date"`
	SumInsured           float64 `json:"sum_insured"`
	PreviousClaimsAmount float64 `json:"previous_claims_amount"`
	PatientAge           *int    `json:"patient_age,omitempty"`
	PreExistingDeclared  *Date   `json:"pre_existing_declared,omitempty"`
}

// DiagnosticTest is one investigation documented in the medical note.
type DiagnosticTest struct {
	Name   string `json:"name"`
	Date   Date   `json:"date,omitempty"`
	Result string `json:"result,omitempty"`
}

// MedicalNote holds the structured fields extracted from a pre-auth
// medical note. Fields may be empty when extraction was partial; the
// completeness check reports on them rather than the model rejecting
// them.
type MedicalNote struct {
	Diagnosis         string           `json:"diagnosis"`
	ICDCode           string           `json:"icd_code,omitempty"`
	ClinicalHistory   string           `json:"clinical_history"`
	DiagnosticTests   []DiagnosticTest `json:"diagnostic_tests,omitempty"`
	Justification     string           `json:"justification"`
	ProposedTreatment string           `json:"proposed_treatment"`
	AdmissionDate     Date             `json:"admission_date,omitempty"`
	PlannedStayDays   int              `json:"planned_stay_days,omitempty"`
	Complications     string           `json:"complications,omitempty"`
	DoctorName        string           `json:"doctor_name,omitempty"`
	HospitalName      string           `json:"hospital_name,omitempty"`
}

// DischargeDocuments holds the structured fields extracted from the
// final bill and discharge summary.
type DischargeDocuments struct {
	AdmissionDate       Date     `json:"admission_date,omitempty"`
	DischargeDate       Date     `json:"discharge_date,omitempty"`
	ActualStayDays      int      `json:"actual_stay_days,omitempty"`
	DischargeSummary    string   `json:"discharge_summary"`
	Complications       string   `json:"complications,omitempty"`
	ProceduresPerformed []string `json:"procedures_performed,omitempty"`
	Medications         []string `json:"medications,omitempty"`
	FollowUpPlan        string   `json:"follow_up_plan,omitempty"`
	DischargeCondition  string   `json:"discharge_condition,omitempty"`
}

// Snapshot is the immutable input for one validation run. It is built
// upstream (form entry or document extraction) and never mutated by
// the pipeline; checks receive it by pointer but treat it read-only.
type Snapshot struct {
	Stage       Stage           `json:"stage"`
	Policy      PolicyReference `json:"policy_reference"`
	ProcedureID string          `json:"procedure_reference"`
	Costs       CostBreakdown   `json:"cost_breakdown"`
	StatedTotal float64         `json:"stated_total"`

	Note      *MedicalNote        `json:"medical_note,omitempty"`
	Discharge *DischargeDocuments `json:"discharge_documents,omitempty"`

	// PriorPreauth carries the matching pre-auth snapshot into a
	// discharge run. Optional; reconciliation falls back to a manual
	// estimate when absent.
	PriorPreauth *Snapshot `json:"prior_preauth_snapshot,omitempty"`
}

// StoredClaim is a persisted pre-auth run: the snapshot it validated
// plus the aggregated result, retrievable by reference id at discharge
// time.
type StoredClaim struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ReferenceID  string          `db:"reference_id" json:"reference_id"`
	Stage        Stage           `db:"stage" json:"stage"`
	InsurerID    string          `db:"insurer_id" json:"insurer_id"`
	PolicyID     string          `db:"policy_id" json:"policy_id"`
	ProcedureID  string          `db:"procedure_id" json:"procedure_id"`
	OverallScore int             `db:"overall_score" json:"overall_score"`
	Status       string          `db:"status" json:"status"`
	Snapshot     Snapshot        `db:"snapshot" json:"snapshot"`
	Result       json.RawMessage `db:"result" json:"result,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
