package rules

import (
	"errors"
	"testing"

	"github.com/claimready/claimready/internal/domain/claim"
)

func storePolicies() []*PolicyRule {
	return []*PolicyRule{
		{
			InsurerID: "star-health",
			PolicyID:  "family-optima",
			Name:      "Family Optima",
			WaitingPeriods: WaitingPeriods{
				InitialDays:       30,
				PreExistingMonths: 36,
			},
		},
		{
			InsurerID: "hdfc-ergo",
			PolicyID:  "optima-secure",
			Name:      "Optima Secure",
		},
	}
}

func storeProcedures() []*ProcedureReference {
	return []*ProcedureReference{
		{
			ID:          "knee-replacement",
			DisplayName: "Total Knee Replacement",
			Synonyms:    []string{"TKR", "knee arthroplasty"},
			TypicalCosts: map[claim.Category]Range{
				claim.CategorySurgeon: {Min: 40000, Max: 90000},
			},
		},
		{
			ID:          "cataract-surgery",
			DisplayName: "Cataract Surgery",
			Synonyms:    []string{"phacoemulsification"},
		},
	}
}

func mustStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(storePolicies(), storeProcedures())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewStore_RejectsDuplicates(t *testing.T) {
	_, err := NewStore(append(storePolicies(), storePolicies()[0]), storeProcedures())
	if err == nil {
		t.Error("duplicate policy must be rejected")
	}
	_, err = NewStore(storePolicies(), append(storeProcedures(), storeProcedures()[0]))
	if err == nil {
		t.Error("duplicate procedure must be rejected")
	}
}

func TestNewStore_RejectsInvalidRoomRentType(t *testing.T) {
	policies := storePolicies()
	policies[0].RoomRent = &RoomRentLimit{Type: "per_bed", Value: 3000}
	if _, err := NewStore(policies, storeProcedures()); err == nil {
		t.Error("unknown room rent type must be rejected")
	}
}

func TestNewStore_RejectsInvertedCostRange(t *testing.T) {
	procedures := storeProcedures()
	procedures[0].TypicalCosts[claim.CategorySurgeon] = Range{Min: 90000, Max: 40000}
	if _, err := NewStore(storePolicies(), procedures); err == nil {
		t.Error("max below min must be rejected")
	}
}

func TestPolicyRule_LookupIsCaseInsensitive(t *testing.T) {
	s := mustStore(t)
	p, err := s.PolicyRule("Star-Health", "FAMILY-OPTIMA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Family Optima" {
		t.Errorf("got %s", p.Name)
	}
}

func TestPolicyRule_Unknown(t *testing.T) {
	s := mustStore(t)
	_, err := s.PolicyRule("acme", "basic")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveProcedure(t *testing.T) {
	s := mustStore(t)
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"exact id", "knee-replacement", "knee-replacement"},
		{"display name", "Total Knee Replacement", "knee-replacement"},
		{"synonym", "tkr", "knee-replacement"},
		{"synonym mixed case", "Knee Arthroplasty", "knee-replacement"},
		{"free text containing name", "bilateral total knee replacement surgery", "knee-replacement"},
		{"partial name", "cataract", "cataract-surgery"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := s.ResolveProcedure(tc.in)
			if err != nil {
				t.Fatalf("ResolveProcedure(%q): %v", tc.in, err)
			}
			if p.ID != tc.want {
				t.Errorf("ResolveProcedure(%q) = %s, want %s", tc.in, p.ID, tc.want)
			}
		})
	}
}

func TestResolveProcedure_Unknown(t *testing.T) {
	s := mustStore(t)
	for _, in := range []string{"", "appendectomy", "   "} {
		if _, err := s.ResolveProcedure(in); !errors.Is(err, ErrNotFound) {
			t.Errorf("ResolveProcedure(%q): expected ErrNotFound, got %v", in, err)
		}
	}
}

func TestBundle(t *testing.T) {
	s := mustStore(t)
	b, err := s.Bundle("star-health", "family-optima", "knee-replacement")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Policy == nil || b.Procedure == nil {
		t.Fatal("bundle must carry both halves")
	}

	if _, err := s.Bundle("star-health", "family-optima", "appendectomy"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown procedure: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Bundle("acme", "basic", "knee-replacement"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown policy: expected ErrNotFound, got %v", err)
	}
}

func TestStore_LoadOrderPreserved(t *testing.T) {
	s := mustStore(t)
	policies := s.Policies()
	if len(policies) != 2 || policies[0].InsurerID != "star-health" || policies[1].InsurerID != "hdfc-ergo" {
		t.Errorf("policy order not preserved: %+v", policies)
	}
	procedures := s.Procedures()
	if len(procedures) != 2 || procedures[0].ID != "knee-replacement" {
		t.Errorf("procedure order not preserved")
	}
}
