package claim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Service persists pre-auth runs and resolves prior snapshots for
// discharge reconciliation.
type Service struct {
	repo Repository

	now     func() time.Time
	randRef func() int
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:    repo,
		now:     time.Now,
		randRef: func() int { return 10000 + rand.Intn(90000) },
	}
}

// NewReferenceID generates a claim reference of the form
// CR-YYYYMMDD-NNNNN with a 5-digit random suffix.
func (s *Service) NewReferenceID() string {
	return fmt.Sprintf("CR-%s-%05d", s.now().Format("20060102"), s.randRef())
}

// SavePreauth stores a validated pre-auth snapshot with its result and
// returns the stored record. Reference collisions are retried with a
// fresh suffix.
func (s *Service) SavePreauth(ctx context.Context, snap *Snapshot, score int, status string, result json.RawMessage) (*StoredClaim, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}
	if snap.Stage != StagePreAuth {
		return nil, fmt.Errorf("only pre-authorization snapshots can be stored, got stage %q", snap.Stage)
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		stored := &StoredClaim{
			ReferenceID:  s.NewReferenceID(),
			Stage:        snap.Stage,
			InsurerID:    snap.Policy.InsurerID,
			PolicyID:     snap.Policy.PolicyID,
			ProcedureID:  snap.ProcedureID,
			OverallScore: score,
			Status:       status,
			Snapshot:     *snap,
			Result:       result,
		}
		err := s.repo.Create(ctx, stored)
		if errors.Is(err, ErrDuplicateReference) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store claim: %w", err)
		}
		return stored, nil
	}
	return nil, fmt.Errorf("store claim: exhausted reference id attempts")
}

// Get returns a stored claim by its reference id.
func (s *Service) Get(ctx context.Context, referenceID string) (*StoredClaim, error) {
	if referenceID == "" {
		return nil, fmt.Errorf("reference id is required")
	}
	return s.repo.GetByReference(ctx, referenceID)
}

// GetPriorSnapshot resolves the pre-auth snapshot stored under a
// reference id, for use as a discharge run's comparison baseline.
// Returns ErrNotFound when the reference is unknown; callers may fall
// back to a manually supplied estimate.
func (s *Service) GetPriorSnapshot(ctx context.Context, referenceID string) (*Snapshot, error) {
	stored, err := s.Get(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	snap := stored.Snapshot
	return &snap, nil
}

// List returns stored claims newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*StoredClaim, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
