package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/client"
)

// clientUpdater is the slice of the client repository the service needs for
// the risk-level cache refresh.
type clientUpdater interface {
	GetByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
	Update(ctx context.Context, c *client.Client) error
}

// Service runs the aggregators, persists snapshots and serves the stored
// report history.
type Service struct {
	repo    Repository
	agg     *Aggregator
	clients clientUpdater
	logger  zerolog.Logger
}

func NewService(repo Repository, agg *Aggregator, clients clientUpdater, logger zerolog.Logger) *Service {
	return &Service{repo: repo, agg: agg, clients: clients, logger: logger}
}

// Generate runs the aggregator for the given report type. Assessment and
// documentation runs additionally refresh the client's cached risk level;
// that refresh is best-effort and never fails the request.
func (s *Service) Generate(ctx context.Context, reportType string, clientID uuid.UUID, from, to *time.Time, requestedBy string) (interface{}, error) {
	switch reportType {
	case aireport.TypeAssessment:
		summary, err := s.agg.GenerateAssessmentReport(ctx, clientID, from, to, requestedBy)
		if err != nil {
			return nil, err
		}
		if summary.CurrentStatus != nil {
			s.refreshRiskLevel(ctx, clientID, highestRiskLevel(summary.CurrentStatus.RiskFactors))
		}
		return summary, nil
	case aireport.TypeDiagnostic:
		return s.agg.GenerateDiagnosticReport(ctx, clientID, from, to, requestedBy)
	case aireport.TypeProgress:
		return s.agg.GenerateProgressReport(ctx, clientID, from, to, requestedBy)
	case aireport.TypeTreatment:
		return s.agg.GenerateTreatmentReport(ctx, clientID, from, to, requestedBy)
	case aireport.TypeDocumentation:
		summary, err := s.agg.GenerateDocumentationReport(ctx, clientID, from, to, requestedBy)
		if err != nil {
			return nil, err
		}
		s.refreshRiskLevel(ctx, clientID, highestEventRiskLevel(summary.CriticalEvents))
		return summary, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, reportType)
	}
}

// GenerateAndSave runs the aggregator and stores its output verbatim as a
// report snapshot.
func (s *Service) GenerateAndSave(ctx context.Context, reportType string, clientID uuid.UUID, from, to *time.Time, requestedBy string) (*Report, interface{}, error) {
	summary, err := s.Generate(ctx, reportType, clientID, from, to, requestedBy)
	if err != nil {
		return nil, nil, err
	}
	content, err := json.Marshal(summary)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s report: %w", reportType, err)
	}
	rep := &Report{
		ClientID:    clientID,
		Type:        reportType,
		PeriodStart: from,
		PeriodEnd:   to,
		Content:     content,
		CreatedBy:   requestedBy,
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, nil, err
	}
	return rep, summary, nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListReportsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

// riskRank orders recognized risk levels. Unrecognized levels rank zero
// and never overwrite the cache.
var riskRank = map[string]int{
	"low":      1,
	"moderate": 2,
	"high":     3,
	"severe":   4,
}

func highestRiskLevel(factors []aireport.RiskFactor) string {
	var best string
	for _, rf := range factors {
		if riskRank[rf.Level] > riskRank[best] {
			best = rf.Level
		}
	}
	return best
}

func highestEventRiskLevel(events []CriticalEvent) string {
	var best string
	for _, ev := range events {
		if ev.Type != EventRisk {
			continue
		}
		if riskRank[ev.Level] > riskRank[best] {
			best = ev.Level
		}
	}
	return best
}

// refreshRiskLevel updates the client's cached risk level. The cache is
// derived data; a failed refresh is logged and the response is unaffected.
func (s *Service) refreshRiskLevel(ctx context.Context, clientID uuid.UUID, level string) {
	if level == "" {
		return
	}
	cl, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("client_id", clientID.String()).Msg("risk level refresh: load client failed")
		return
	}
	if cl.RiskLevel == level {
		return
	}
	cl.RiskLevel = level
	if err := s.clients.Update(ctx, cl); err != nil {
		s.logger.Warn().Err(err).Str("client_id", clientID.String()).Msg("risk level refresh: update failed")
	}
}
