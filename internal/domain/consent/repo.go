package consent

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for consent forms.
type Repository interface {
	Create(ctx context.Context, f *Form) error
	GetByID(ctx context.Context, id uuid.UUID) (*Form, error)
	GetByToken(ctx context.Context, token string) (*Form, error)
	Update(ctx context.Context, f *Form) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Form, error)
}
