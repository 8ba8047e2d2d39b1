package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
	"github.com/claimready/claimready/internal/platform/reasoning"
)

// ── Mock Assessor ──

type mockAssessor struct {
	responses map[string]string // task -> JSON output
	err       error
	calls     []reasoning.Request
}

func (m *mockAssessor) Assess(_ context.Context, req reasoning.Request) (json.RawMessage, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	out, ok := m.responses[req.Task]
	if !ok {
		return nil, fmt.Errorf("%w: no canned response for %s", reasoning.ErrUnavailable, req.Task)
	}
	return json.RawMessage(out), nil
}

func failingAssessor() *mockAssessor {
	return &mockAssessor{err: fmt.Errorf("%w: connection refused", reasoning.ErrUnavailable)}
}

// ── Fixtures ──

func testDate(daysAgo int) claim.Date {
	return claim.Date{Time: time.Now().AddDate(0, 0, -daysAgo)}
}

func testBundle() *rules.Bundle {
	return &rules.Bundle{
		Policy: &rules.PolicyRule{
			InsurerID: "star-health",
			PolicyID:  "family-optima",
			Name:      "Family Optima",
			WaitingPeriods: rules.WaitingPeriods{
				InitialDays:       30,
				PreExistingMonths: 36,
				ProcedureMonths:   map[string]int{"knee-replacement": 24, "cataract-surgery": 24},
			},
			Exclusions: []string{"cosmetic surgery", "dental treatment"},
			RoomRent: &rules.RoomRentLimit{
				Type:  rules.RoomRentPercentage,
				Value: 1,
				AppliesTo: []claim.Category{
					claim.CategoryRoom, claim.CategoryNursing,
					claim.CategorySurgeon, claim.CategoryAnesthesia,
				},
			},
		},
		Procedure: &rules.ProcedureReference{
			ID:          "knee-replacement",
			DisplayName: "Total Knee Replacement",
			Synonyms:    []string{"TKR", "knee arthroplasty"},
			TypicalCosts: map[claim.Category]rules.Range{
				claim.CategoryRoom:       {Min: 15000, Max: 40000},
				claim.CategorySurgeon:    {Min: 40000, Max: 90000},
				claim.CategoryAnesthesia: {Min: 3000, Max: 10000},
				claim.CategoryImplants:   {Min: 80000, Max: 150000},
				claim.CategoryOT:         {Min: 20000, Max: 50000},
			},
			TypicalStayDays:     rules.IntRange{Min: 3, Max: 5},
			RequiredDiagnostics: []string{"X-ray", "MRI"},
			Necessity: rules.NecessityCriteria{
				ObjectiveMeasures: []string{"KL grade", "range of motion"},
				FunctionalImpact:  true,
			},
			CostVariations: []rules.CostVariation{
				{Name: "bilateral", Multiplier: rules.Range{Min: 1.6, Max: 2.0}},
			},
		},
	}
}

func completePreauthSnapshot() *claim.Snapshot {
	return &claim.Snapshot{
		Stage: claim.StagePreAuth,
		Policy: claim.PolicyReference{
			InsurerID:    "star-health",
			PolicyID:     "family-optima",
			PolicyNumber: "SH-2021-448812",
			StartDate:    testDate(36 * 30),
			SumInsured:   500000,
		},
		ProcedureID: "knee-replacement",
		Costs: claim.CostBreakdown{
			claim.CategoryRoom:       20000,
			claim.CategorySurgeon:    80000,
			claim.CategoryAnesthesia: 8000,
			claim.CategoryImplants:   120000,
			claim.CategoryOT:         40000,
		},
		StatedTotal: 268000,
		Note: &claim.MedicalNote{
			Diagnosis:         "Severe osteoarthritis of the right knee",
			ICDCode:           "M17.11",
			ClinicalHistory:   "Progressive knee pain over 4 years, conservative treatment failed",
			Justification:     "KL grade 4 on X-ray, unable to climb stairs or walk more than 100 meters",
			ProposedTreatment: "Total knee replacement, right side",
			AdmissionDate:     testDate(-7),
			PlannedStayDays:   4,
			DiagnosticTests: []claim.DiagnosticTest{
				{Name: "X-ray right knee", Result: "KL grade 4"},
			},
		},
	}
}

func completeDischargeSnapshot() *claim.Snapshot {
	prior := completePreauthSnapshot()
	return &claim.Snapshot{
		Stage:       claim.StageDischarge,
		Policy:      prior.Policy,
		ProcedureID: prior.ProcedureID,
		Costs: claim.CostBreakdown{
			claim.CategoryRoom:       22000,
			claim.CategorySurgeon:    80000,
			claim.CategoryAnesthesia: 8000,
			claim.CategoryImplants:   120000,
			claim.CategoryOT:         42000,
		},
		StatedTotal: 272000,
		Discharge: &claim.DischargeDocuments{
			AdmissionDate:      testDate(10),
			DischargeDate:      testDate(6),
			ActualStayDays:     4,
			DischargeSummary:   "Uneventful total knee replacement, mobilized on day 2",
			Medications:        []string{"Paracetamol 650mg"},
			FollowUpPlan:       "Review in 2 weeks",
			DischargeCondition: "Stable, ambulant with walker",
		},
		PriorPreauth: prior,
	}
}

func strongMedicalResponse() string {
	return `{"strength":"strong","diagnosis_aligned":true,"has_objective_metric":true,"has_functional_impact":true,"generic_language":false,"concerns":[]}`
}

func findingCodes(findings []Finding) []string {
	codes := make([]string, 0, len(findings))
	for _, f := range findings {
		codes = append(codes, f.Code)
	}
	return codes
}

func hasFindingCode(findings []Finding, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}
