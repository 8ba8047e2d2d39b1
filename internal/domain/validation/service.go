package validation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/claimready/claimready/internal/domain/claim"
	"github.com/claimready/claimready/internal/domain/rules"
	"github.com/claimready/claimready/internal/platform/reasoning"
)

// PreconditionError marks a run that could not start because the
// policy or procedure reference is unknown. Distinct from any
// check-level failure: no checks have run.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string { return "validation precondition: " + e.Err.Error() }
func (e *PreconditionError) Unwrap() error { return e.Err }

// Service runs the validation pipeline for both stages.
type Service struct {
	store    *rules.Store
	assessor reasoning.Assessor
	runner   *Runner
	claims   *claim.Service
	logger   zerolog.Logger
}

// NewService wires the pipeline. claims may be nil when pre-auth runs
// are not persisted.
func NewService(store *rules.Store, assessor reasoning.Assessor, claims *claim.Service, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		assessor: assessor,
		runner:   NewRunner(logger),
		claims:   claims,
		logger:   logger,
	}
}

// resolveBundle is the fatal-precondition gate: both references must
// resolve before any check executes.
func (s *Service) resolveBundle(snap *claim.Snapshot) (*rules.Bundle, error) {
	bundle, err := s.store.Bundle(snap.Policy.InsurerID, snap.Policy.PolicyID, snap.ProcedureID)
	if err != nil {
		return nil, &PreconditionError{Err: err}
	}
	return bundle, nil
}

// RunPreauth validates a pre-authorization snapshot.
func (s *Service) RunPreauth(ctx context.Context, snap *claim.Snapshot) (*AggregatedResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}
	snap.Stage = claim.StagePreAuth
	bundle, err := s.resolveBundle(snap)
	if err != nil {
		return nil, err
	}

	checks := []Check{
		CompletenessCheck{},
		NewPolicyCheck(),
		NewMedicalCheck(s.assessor),
		NewFWACheck(s.assessor),
	}
	results := s.runner.Run(ctx, checks, snap, bundle)
	agg := Aggregate(string(claim.StagePreAuth), results)
	s.logger.Info().
		Str("stage", agg.Stage).
		Int("score", agg.OverallScore).
		Str("status", string(agg.Status)).
		Strs("unavailable", agg.Unavailable).
		Msg("validation run completed")
	return agg, nil
}

// RunDischarge validates a discharge snapshot. The pre-auth baseline,
// when available, arrives on the snapshot as an explicit field.
func (s *Service) RunDischarge(ctx context.Context, snap *claim.Snapshot) (*AggregatedResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}
	snap.Stage = claim.StageDischarge
	bundle, err := s.resolveBundle(snap)
	if err != nil {
		return nil, err
	}

	checks := []Check{
		CompletenessCheck{},
		ReconciliationCheck{},
		NewEscalationCheck(s.assessor),
		NewGuidanceCheck(s.assessor),
	}
	results := s.runner.Run(ctx, checks, snap, bundle)
	agg := Aggregate(string(claim.StageDischarge), results)
	s.logger.Info().
		Str("stage", agg.Stage).
		Int("score", agg.OverallScore).
		Str("status", string(agg.Status)).
		Strs("unavailable", agg.Unavailable).
		Msg("validation run completed")
	return agg, nil
}

// Persist stores a completed pre-auth run and returns its reference
// id. No-op when claim storage is not configured.
func (s *Service) Persist(ctx context.Context, snap *claim.Snapshot, agg *AggregatedResult) (string, error) {
	if s.claims == nil {
		return "", nil
	}
	result, err := json.Marshal(agg)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	stored, err := s.claims.SavePreauth(ctx, snap, agg.OverallScore, string(agg.Status), result)
	if err != nil {
		return "", err
	}
	return stored.ReferenceID, nil
}

// ResolvePrior loads the stored pre-auth snapshot for a discharge run.
func (s *Service) ResolvePrior(ctx context.Context, referenceID string) (*claim.Snapshot, error) {
	if s.claims == nil {
		return nil, fmt.Errorf("claim storage is not configured")
	}
	return s.claims.GetPriorSnapshot(ctx, referenceID)
}
