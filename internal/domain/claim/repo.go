package claim

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no stored claim matches a reference.
	ErrNotFound = errors.New("claim not found")
	// ErrDuplicateReference is returned when a generated reference id
	// collides with an existing row. Callers regenerate and retry.
	ErrDuplicateReference = errors.New("duplicate claim reference")
)

type Repository interface {
	Create(ctx context.Context, c *StoredClaim) error
	GetByReference(ctx context.Context, referenceID string) (*StoredClaim, error)
	List(ctx context.Context, limit, offset int) ([]*StoredClaim, int, error)
}
