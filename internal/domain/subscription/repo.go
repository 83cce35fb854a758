package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for subscription records. One
// record per counselor.
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByCounselor(ctx context.Context, counselorID uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
}
