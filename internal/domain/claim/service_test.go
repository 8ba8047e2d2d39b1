package claim

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"
)

// ── Mock Repositories ──

type mockClaimRepo struct {
	data    map[string]*StoredClaim
	created []string
}

func newMockClaimRepo() *mockClaimRepo {
	return &mockClaimRepo{data: map[string]*StoredClaim{}}
}

func (m *mockClaimRepo) Create(_ context.Context, c *StoredClaim) error {
	if _, exists := m.data[c.ReferenceID]; exists {
		return ErrDuplicateReference
	}
	m.data[c.ReferenceID] = c
	m.created = append(m.created, c.ReferenceID)
	return nil
}

func (m *mockClaimRepo) GetByReference(_ context.Context, ref string) (*StoredClaim, error) {
	c, ok := m.data[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockClaimRepo) List(_ context.Context, limit, offset int) ([]*StoredClaim, int, error) {
	out := make([]*StoredClaim, 0, len(m.data))
	for _, c := range m.data {
		out = append(out, c)
	}
	return out, len(out), nil
}

func testService(repo Repository) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	s.randRef = func() int { return 12345 }
	return s
}

func preauthSnapshot() *Snapshot {
	return &Snapshot{
		Stage: StagePreAuth,
		Policy: PolicyReference{
			InsurerID:    "star-health",
			PolicyID:     "family-optima",
			PolicyNumber: "SH-2021-448812",
			SumInsured:   500000,
		},
		ProcedureID: "knee-replacement",
		Costs:       CostBreakdown{CategorySurgeon: 80000},
	}
}

func TestNewReferenceID_Format(t *testing.T) {
	svc := testService(newMockClaimRepo())
	ref := svc.NewReferenceID()
	if ref != "CR-20260315-12345" {
		t.Errorf("reference = %s", ref)
	}
	if !regexp.MustCompile(`^CR-\d{8}-\d{5}$`).MatchString(ref) {
		t.Errorf("reference %s does not match CR-YYYYMMDD-NNNNN", ref)
	}
}

func TestSavePreauth_Stores(t *testing.T) {
	repo := newMockClaimRepo()
	svc := testService(repo)

	stored, err := svc.SavePreauth(context.Background(), preauthSnapshot(), 85, "ready", json.RawMessage(`{"overall_score":85}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ReferenceID == "" {
		t.Error("stored claim needs a reference id")
	}
	if stored.OverallScore != 85 || stored.Status != "ready" {
		t.Errorf("score/status not carried: %d %s", stored.OverallScore, stored.Status)
	}
	if stored.InsurerID != "star-health" || stored.ProcedureID != "knee-replacement" {
		t.Errorf("reference columns not denormalized: %s %s", stored.InsurerID, stored.ProcedureID)
	}
}

func TestSavePreauth_RetriesOnCollision(t *testing.T) {
	repo := newMockClaimRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	suffixes := []int{11111, 11111, 22222}
	svc.randRef = func() int {
		n := suffixes[0]
		if len(suffixes) > 1 {
			suffixes = suffixes[1:]
		}
		return n
	}

	if _, err := svc.SavePreauth(context.Background(), preauthSnapshot(), 90, "ready", nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	stored, err := svc.SavePreauth(context.Background(), preauthSnapshot(), 90, "ready", nil)
	if err != nil {
		t.Fatalf("second save should retry past the collision: %v", err)
	}
	if stored.ReferenceID != "CR-20260315-22222" {
		t.Errorf("expected fresh suffix, got %s", stored.ReferenceID)
	}
}

func TestSavePreauth_RejectsDischargeStage(t *testing.T) {
	svc := testService(newMockClaimRepo())
	snap := preauthSnapshot()
	snap.Stage = StageDischarge

	if _, err := svc.SavePreauth(context.Background(), snap, 90, "ready", nil); err == nil {
		t.Error("discharge snapshots are never stored here")
	}
}

func TestGetPriorSnapshot(t *testing.T) {
	repo := newMockClaimRepo()
	svc := testService(repo)

	stored, err := svc.SavePreauth(context.Background(), preauthSnapshot(), 85, "ready", nil)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := svc.GetPriorSnapshot(context.Background(), stored.ReferenceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ProcedureID != "knee-replacement" {
		t.Errorf("snapshot not restored: %+v", snap)
	}

	if _, err := svc.GetPriorSnapshot(context.Background(), "CR-20200101-00000"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
