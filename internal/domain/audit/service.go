package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/platform/middleware"
)

// recordTimeout bounds the background write so a slow database cannot hold
// the request path.
const recordTimeout = 5 * time.Second

// Service writes and queries the audit trail. It satisfies
// middleware.AuditRecorder so the request middleware can persist entries.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RecordAccess persists a middleware audit entry. The middleware calls this
// after the response is written, so there is no request context to inherit.
func (s *Service) RecordAccess(entry middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	e := &Entry{
		Actor:        entry.UserID,
		ActorRoles:   entry.UserRoles,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ClientID:     entry.ClientID,
		IPAddress:    entry.IPAddress,
		Path:         entry.Path,
		Method:       entry.Method,
		StatusCode:   entry.StatusCode,
		RequestID:    entry.RequestID,
		At:           entry.Timestamp,
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("path", entry.Path).Msg("audit write failed")
		return err
	}
	return nil
}

// Search queries the trail with the given filters.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Entry, int, error) {
	return s.repo.Search(ctx, params)
}
