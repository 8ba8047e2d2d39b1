package claim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claimready/claimready/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const claimCols = `id, reference_id, stage, insurer_id, policy_id, procedure_id,
	overall_score, status, snapshot, result, created_at`

func scanStoredClaim(row pgx.Row) (*StoredClaim, error) {
	var (
		c        StoredClaim
		snapshot []byte
		result   []byte
	)
	err := row.Scan(&c.ID, &c.ReferenceID, &c.Stage, &c.InsurerID, &c.PolicyID, &c.ProcedureID,
		&c.OverallScore, &c.Status, &snapshot, &result, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &c.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", c.ReferenceID, err)
	}
	c.Result = json.RawMessage(result)
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *StoredClaim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	snapshot, err := json.Marshal(c.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	result := c.Result
	if result == nil {
		result = json.RawMessage("null")
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO stored_claims (id, reference_id, stage, insurer_id, policy_id, procedure_id,
			overall_score, status, snapshot, result)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.ReferenceID, c.Stage, c.InsurerID, c.PolicyID, c.ProcedureID,
		c.OverallScore, c.Status, snapshot, []byte(result))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateReference
	}
	return err
}

func (r *repoPG) GetByReference(ctx context.Context, referenceID string) (*StoredClaim, error) {
	return scanStoredClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM stored_claims WHERE reference_id = $1`, referenceID))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*StoredClaim, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM stored_claims`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+claimCols+` FROM stored_claims ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*StoredClaim
	for rows.Next() {
		c, err := scanStoredClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
