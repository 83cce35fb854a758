package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
	List(ctx context.Context, status string, limit, offset int) ([]*Invoice, int, error)

	// NextNumber returns the next invoice number for the given year,
	// e.g. INV-2026-000014.
	NextNumber(ctx context.Context, year int) (string, error)
}
