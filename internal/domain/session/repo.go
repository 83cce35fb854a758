package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for counseling sessions.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error)
	ListByCounselor(ctx context.Context, counselorID uuid.UUID, from, to time.Time) ([]*Session, error)

	// ListByClientInWindow returns all sessions for a client whose
	// scheduled time falls within [from, to], ordered by scheduled time.
	// Used by the report aggregation pipeline.
	ListByClientInWindow(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*Session, error)
}
