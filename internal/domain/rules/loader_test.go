package rules

import (
	"testing"

	"github.com/claimready/claimready/internal/domain/claim"
)

func TestLoadDir(t *testing.T) {
	store, err := LoadDir("testdata")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	p, err := store.PolicyRule("star-health", "family-optima")
	if err != nil {
		t.Fatal(err)
	}
	if p.WaitingPeriods.ProcedureMonths["knee-replacement"] != 24 {
		t.Errorf("procedure waiting period not loaded: %+v", p.WaitingPeriods)
	}
	if p.RoomRent == nil || p.RoomRent.Type != RoomRentPercentage {
		t.Errorf("room rent limit not loaded: %+v", p.RoomRent)
	}
	if got := p.RoomRent.PermittedPerDay(500000); got != 5000 {
		t.Errorf("PermittedPerDay = %.0f, want 5000", got)
	}
	if p.CoPay == nil || p.CoPay.AgeThreshold != 61 {
		t.Errorf("co-pay not loaded: %+v", p.CoPay)
	}

	fixed, err := store.PolicyRule("hdfc-ergo", "optima-secure")
	if err != nil {
		t.Fatal(err)
	}
	if got := fixed.RoomRent.PermittedPerDay(500000); got != 5000 {
		t.Errorf("fixed PermittedPerDay = %.0f, want 5000", got)
	}

	proc, err := store.Procedure("knee-replacement")
	if err != nil {
		t.Fatal(err)
	}
	if rng := proc.TypicalCosts[claim.CategorySurgeon]; rng.Min != 40000 || rng.Max != 90000 {
		t.Errorf("surgeon cost range = %+v", rng)
	}
	if len(proc.CostVariations) != 1 || proc.CostVariations[0].Name != "bilateral" {
		t.Errorf("cost variations not loaded: %+v", proc.CostVariations)
	}

	daycare, err := store.Procedure("cataract-surgery")
	if err != nil {
		t.Fatal(err)
	}
	if !daycare.DayCareAppropriate {
		t.Error("day care flag not loaded")
	}
}

func TestLoadDir_MissingFiles(t *testing.T) {
	if _, err := LoadDir("testdata/nope"); err == nil {
		t.Error("missing directory must error")
	}
}
