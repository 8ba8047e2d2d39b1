package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a policy or procedure reference is
// unknown. Callers treat it as a fatal precondition for a validation
// run, distinct from any check-level failure.
var ErrNotFound = errors.New("rule not found")

func policyKey(insurerID, policyID string) string {
	return strings.ToLower(insurerID) + "/" + strings.ToLower(policyID)
}

// Store holds all policy rules and procedure references in memory.
// Built once at startup from JSON files or Postgres; read-only after,
// so concurrent validation runs need no locking.
type Store struct {
	policies   map[string]*PolicyRule
	procedures map[string]*ProcedureReference

	// nameIndex maps lowercased display names and synonyms to
	// procedure ids for upstream name resolution.
	nameIndex map[string]string

	policyOrder    []string
	procedureOrder []string
}

// NewStore builds and validates a store from loaded rule documents.
func NewStore(policies []*PolicyRule, procedures []*ProcedureReference) (*Store, error) {
	s := &Store{
		policies:   make(map[string]*PolicyRule, len(policies)),
		procedures: make(map[string]*ProcedureReference, len(procedures)),
		nameIndex:  make(map[string]string),
	}
	for _, p := range policies {
		if p.InsurerID == "" || p.PolicyID == "" {
			return nil, fmt.Errorf("policy rule %q: insurer_id and policy_id are required", p.Name)
		}
		key := policyKey(p.InsurerID, p.PolicyID)
		if _, exists := s.policies[key]; exists {
			return nil, fmt.Errorf("duplicate policy rule %s/%s", p.InsurerID, p.PolicyID)
		}
		if p.RoomRent != nil {
			switch p.RoomRent.Type {
			case RoomRentPercentage, RoomRentFixed:
			default:
				return nil, fmt.Errorf("policy rule %s/%s: unknown room rent limit type %q", p.InsurerID, p.PolicyID, p.RoomRent.Type)
			}
		}
		s.policies[key] = p
		s.policyOrder = append(s.policyOrder, key)
	}
	for _, proc := range procedures {
		if proc.ID == "" || proc.DisplayName == "" {
			return nil, fmt.Errorf("procedure reference %q: id and display_name are required", proc.ID)
		}
		id := strings.ToLower(proc.ID)
		if _, exists := s.procedures[id]; exists {
			return nil, fmt.Errorf("duplicate procedure reference %s", proc.ID)
		}
		for cat, r := range proc.TypicalCosts {
			if r.Min < 0 || r.Max < r.Min {
				return nil, fmt.Errorf("procedure %s: invalid cost range for %s", proc.ID, cat)
			}
		}
		s.procedures[id] = proc
		s.procedureOrder = append(s.procedureOrder, id)
		s.nameIndex[strings.ToLower(proc.DisplayName)] = id
		for _, syn := range proc.Synonyms {
			s.nameIndex[strings.ToLower(syn)] = id
		}
	}
	return s, nil
}

// PolicyRule looks up a rule set by insurer and policy id.
func (s *Store) PolicyRule(insurerID, policyID string) (*PolicyRule, error) {
	p, ok := s.policies[policyKey(insurerID, policyID)]
	if !ok {
		return nil, fmt.Errorf("policy %s/%s: %w", insurerID, policyID, ErrNotFound)
	}
	return p, nil
}

// Procedure looks up a procedure reference by id.
func (s *Store) Procedure(id string) (*ProcedureReference, error) {
	p, ok := s.procedures[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("procedure %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// ResolveProcedure maps a free-text procedure name to its reference.
// Matching is case-insensitive: exact id, then display name or
// synonym, then substring in either direction.
func (s *Store) ResolveProcedure(name string) (*ProcedureReference, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, fmt.Errorf("procedure name is empty: %w", ErrNotFound)
	}
	if p, ok := s.procedures[needle]; ok {
		return p, nil
	}
	if id, ok := s.nameIndex[needle]; ok {
		return s.procedures[id], nil
	}
	for _, id := range s.procedureOrder {
		p := s.procedures[id]
		for _, candidate := range append([]string{p.DisplayName}, p.Synonyms...) {
			lc := strings.ToLower(candidate)
			if strings.Contains(needle, lc) || strings.Contains(lc, needle) {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("procedure %q: %w", name, ErrNotFound)
}

// Policies returns all rule sets in load order.
func (s *Store) Policies() []*PolicyRule {
	out := make([]*PolicyRule, 0, len(s.policyOrder))
	for _, key := range s.policyOrder {
		out = append(out, s.policies[key])
	}
	return out
}

// Procedures returns all procedure references in load order.
func (s *Store) Procedures() []*ProcedureReference {
	out := make([]*ProcedureReference, 0, len(s.procedureOrder))
	for _, id := range s.procedureOrder {
		out = append(out, s.procedures[id])
	}
	return out
}

// Bundle resolves the rule pair for one validation run.
func (s *Store) Bundle(insurerID, policyID, procedureID string) (*Bundle, error) {
	policy, err := s.PolicyRule(insurerID, policyID)
	if err != nil {
		return nil, err
	}
	procedure, err := s.Procedure(procedureID)
	if err != nil {
		return nil, err
	}
	return &Bundle{Policy: policy, Procedure: procedure}, nil
}
