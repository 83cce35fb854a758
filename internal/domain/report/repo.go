package report

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for saved report snapshots.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Report, int, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Report, int, error)
}
