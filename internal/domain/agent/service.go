package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/domain/session"
	"github.com/counsel/counsel/internal/platform/ai"
)

// How much session history goes into the prompt.
const (
	contextWindowDays = 90
	contextMaxEntries = 10
)

type clientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

type sessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error)
	ListByClientInWindow(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*session.Session, error)
	Update(ctx context.Context, s *session.Session) error
}

// Service runs the AI report agents: it builds the prompt from client and
// session context, calls the generator, appends the result to the AI report
// log and mirrors a compact copy onto the session when one is named.
type Service struct {
	generator ai.Generator
	reports   aireport.Repository
	clients   clientSource
	sessions  sessionStore
	logger    zerolog.Logger
}

func NewService(generator ai.Generator, reports aireport.Repository, clients clientSource, sessions sessionStore, logger zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		reports:   reports,
		clients:   clients,
		sessions:  sessions,
		logger:    logger,
	}
}

// GenerateReport invokes the agent for one report type. The stored AIReport
// is append-only; repeated invocations add new log entries.
func (s *Service) GenerateReport(ctx context.Context, reportType string, clientID uuid.UUID, sessionID *uuid.UUID, createdBy string) (*aireport.AIReport, error) {
	if !aireport.ValidTypes[reportType] {
		return nil, fmt.Errorf("%w: %s", aireport.ErrInvalidType, reportType)
	}

	cl, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recent, err := s.sessions.ListByClientInWindow(ctx, clientID, now.AddDate(0, 0, -contextWindowDays), now)
	if err != nil {
		return nil, err
	}
	if len(recent) > contextMaxEntries {
		recent = recent[len(recent)-contextMaxEntries:]
	}

	tag := schemaTag(reportType)
	content, err := s.generator.Generate(ctx, buildMessages(reportType, cl, recent), tag)
	if err != nil {
		return nil, err
	}
	if err := validateContent(reportType, content); err != nil {
		return nil, &ai.GenerationError{SchemaTag: tag, Err: err}
	}

	rep := &aireport.AIReport{
		ClientID:    clientID,
		SessionID:   sessionID,
		Type:        reportType,
		Content:     content,
		CreatedBy:   createdBy,
		GeneratedAt: now,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}

	if sessionID != nil {
		s.mirrorToSession(ctx, *sessionID, rep)
	}
	return rep, nil
}

// validateContent checks that the model output decodes into the known shape
// for the type. Extra fields are legal; malformed structure is not.
func validateContent(reportType string, content json.RawMessage) error {
	var target interface{}
	switch reportType {
	case aireport.TypeAssessment:
		target = &aireport.AssessmentContent{}
	case aireport.TypeDiagnostic:
		target = &aireport.DiagnosticContent{}
	case aireport.TypeProgress:
		target = &aireport.ProgressContent{}
	case aireport.TypeTreatment:
		target = &aireport.TreatmentContent{}
	case aireport.TypeDocumentation:
		target = &aireport.DocumentationContent{}
	}
	return json.Unmarshal(content, target)
}

type sessionMirror struct {
	ReportID    uuid.UUID `json:"report_id"`
	Type        string    `json:"type"`
	Summary     string    `json:"summary,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// mirrorToSession copies a compact view of the report onto the session. The
// log entry is the source of truth; a failed mirror is logged, not fatal.
func (s *Service) mirrorToSession(ctx context.Context, sessionID uuid.UUID, rep *aireport.AIReport) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("ai content mirror: load session failed")
		return
	}

	var head struct {
		Summary string `json:"summary"`
	}
	// Best effort; content already validated against the known shape.
	_ = json.Unmarshal(rep.Content, &head)

	compact, err := json.Marshal(sessionMirror{
		ReportID:    rep.ID,
		Type:        rep.Type,
		Summary:     head.Summary,
		GeneratedAt: rep.GeneratedAt,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("ai content mirror: encode failed")
		return
	}

	sess.AIContent = compact
	if err := s.sessions.Update(ctx, sess); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("ai content mirror: update failed")
	}
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*aireport.AIReport, error) {
	return s.reports.GetByID(ctx, id)
}

// ListReports returns a client's AI report log, optionally filtered by type
// and generation window, newest first.
func (s *Service) ListReports(ctx context.Context, clientID uuid.UUID, reportType string, from, to *time.Time) ([]*aireport.AIReport, error) {
	types := []string{reportType}
	if reportType == "" {
		types = []string{
			aireport.TypeAssessment, aireport.TypeDiagnostic, aireport.TypeProgress,
			aireport.TypeTreatment, aireport.TypeDocumentation,
		}
	} else if !aireport.ValidTypes[reportType] {
		return nil, fmt.Errorf("%w: %s", aireport.ErrInvalidType, reportType)
	}
	return s.reports.ListByClientAndTypes(ctx, clientID, types, from, to)
}
