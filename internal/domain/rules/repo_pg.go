package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadStorePG builds a Store from the policy_rules and
// procedure_references tables. Rule documents are stored as jsonb
// payloads so the schema does not chase the rule shape.
func LoadStorePG(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	policies, err := loadPolicies(ctx, pool)
	if err != nil {
		return nil, err
	}
	procedures, err := loadProcedures(ctx, pool)
	if err != nil {
		return nil, err
	}
	return NewStore(policies, procedures)
}

func loadPolicies(ctx context.Context, pool *pgxpool.Pool) ([]*PolicyRule, error) {
	rows, err := pool.Query(ctx, `SELECT payload FROM policy_rules ORDER BY insurer_id, policy_id`)
	if err != nil {
		return nil, fmt.Errorf("load policy rules: %w", err)
	}
	defer rows.Close()

	var out []*PolicyRule
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p PolicyRule
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode policy rule: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func loadProcedures(ctx context.Context, pool *pgxpool.Pool) ([]*ProcedureReference, error) {
	rows, err := pool.Query(ctx, `SELECT payload FROM procedure_references ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load procedure references: %w", err)
	}
	defer rows.Close()

	var out []*ProcedureReference
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p ProcedureReference
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode procedure reference: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
