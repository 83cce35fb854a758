package aireport

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the AI report log. The log is
// append-only: there is no update or single-record delete at this surface.
type Repository interface {
	Create(ctx context.Context, r *AIReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*AIReport, error)

	// ListByClientAndTypes returns reports for the client whose type is in
	// types and whose generated_at falls within [from, to], newest first.
	// Nil from/to bounds are open-ended.
	ListByClientAndTypes(ctx context.Context, clientID uuid.UUID, types []string, from, to *time.Time) ([]*AIReport, error)

	// Latest returns the n most recent reports of a type for the client.
	Latest(ctx context.Context, clientID uuid.UUID, reportType string, n int) ([]*AIReport, error)
}
