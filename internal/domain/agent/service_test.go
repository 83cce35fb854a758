package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/domain/session"
	"github.com/counsel/counsel/internal/platform/ai"
)

type mockGenerator struct {
	response json.RawMessage
	err      error
	lastTag  string
	lastMsgs []ai.Message
}

func (m *mockGenerator) Generate(_ context.Context, messages []ai.Message, schemaTag string) (json.RawMessage, error) {
	m.lastTag = schemaTag
	m.lastMsgs = messages
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

type mockAIReportRepo struct {
	items []*aireport.AIReport
}

func (m *mockAIReportRepo) Create(_ context.Context, r *aireport.AIReport) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	m.items = append(m.items, r)
	return nil
}

func (m *mockAIReportRepo) GetByID(_ context.Context, id uuid.UUID) (*aireport.AIReport, error) {
	for _, r := range m.items {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, aireport.ErrReportNotFound
}

func (m *mockAIReportRepo) ListByClientAndTypes(_ context.Context, clientID uuid.UUID, types []string, _, _ *time.Time) ([]*aireport.AIReport, error) {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var out []*aireport.AIReport
	for _, r := range m.items {
		if r.ClientID == clientID && wanted[r.Type] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAIReportRepo) Latest(_ context.Context, clientID uuid.UUID, reportType string, n int) ([]*aireport.AIReport, error) {
	out, _ := m.ListByClientAndTypes(context.Background(), clientID, []string{reportType}, nil, nil)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type mockClientSource struct {
	clients map[uuid.UUID]*client.Client
}

func (m *mockClientSource) GetByID(_ context.Context, id uuid.UUID) (*client.Client, error) {
	if c, ok := m.clients[id]; ok {
		return c, nil
	}
	return nil, client.ErrClientNotFound
}

type mockSessionStore struct {
	sessions map[uuid.UUID]*session.Session
}

func (m *mockSessionStore) GetByID(_ context.Context, id uuid.UUID) (*session.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, session.ErrSessionNotFound
}

func (m *mockSessionStore) ListByClientInWindow(_ context.Context, clientID uuid.UUID, _, _ time.Time) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSessionStore) Update(_ context.Context, s *session.Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return session.ErrSessionNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

func newTestAgent(gen *mockGenerator) (*Service, *mockAIReportRepo, *mockClientSource, *mockSessionStore) {
	reports := &mockAIReportRepo{}
	clients := &mockClientSource{clients: map[uuid.UUID]*client.Client{}}
	sessions := &mockSessionStore{sessions: map[uuid.UUID]*session.Session{}}
	svc := NewService(gen, reports, clients, sessions, zerolog.Nop())
	return svc, reports, clients, sessions
}

func TestGenerateReport_PersistsAndMirrors(t *testing.T) {
	gen := &mockGenerator{response: json.RawMessage(`{"summary":"client is engaged","presentingConcerns":["anxiety"]}`)}
	svc, reports, clients, sessions := newTestAgent(gen)

	cl := &client.Client{ID: uuid.New(), FirstName: "Sam", LastName: "Ortiz", Status: "active"}
	clients.clients[cl.ID] = cl
	sess := &session.Session{ID: uuid.New(), ClientID: cl.ID, ScheduledAt: time.Now().UTC(), Status: session.StatusCompleted}
	sessions.sessions[sess.ID] = sess

	rep, err := svc.GenerateReport(context.Background(), aireport.TypeAssessment, cl.ID, &sess.ID, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gen.lastTag != "assessment_report" {
		t.Errorf("schema tag = %q", gen.lastTag)
	}
	if len(gen.lastMsgs) != 2 || gen.lastMsgs[0].Role != "system" {
		t.Fatalf("expected system+user prompt pair, got %+v", gen.lastMsgs)
	}
	if !strings.Contains(gen.lastMsgs[1].Content, "Sam Ortiz") {
		t.Errorf("user prompt must carry the client name: %q", gen.lastMsgs[1].Content)
	}

	if len(reports.items) != 1 || reports.items[0].Type != aireport.TypeAssessment {
		t.Fatalf("report not persisted: %+v", reports.items)
	}
	if rep.CreatedBy != "user-1" {
		t.Errorf("createdBy = %q", rep.CreatedBy)
	}

	mirrored := sessions.sessions[sess.ID].AIContent
	if len(mirrored) == 0 {
		t.Fatal("expected compact copy mirrored onto the session")
	}
	var compact sessionMirror
	if err := json.Unmarshal(mirrored, &compact); err != nil {
		t.Fatalf("decode mirror: %v", err)
	}
	if compact.ReportID != rep.ID || compact.Summary != "client is engaged" {
		t.Errorf("unexpected mirror: %+v", compact)
	}
}

func TestGenerateReport_InvalidType(t *testing.T) {
	svc, _, _, _ := newTestAgent(&mockGenerator{})
	_, err := svc.GenerateReport(context.Background(), "horoscope", uuid.New(), nil, "u")
	if !errors.Is(err, aireport.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestGenerateReport_ClientNotFound(t *testing.T) {
	svc, _, _, _ := newTestAgent(&mockGenerator{response: json.RawMessage(`{}`)})
	_, err := svc.GenerateReport(context.Background(), aireport.TypeProgress, uuid.New(), nil, "u")
	if !errors.Is(err, client.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestGenerateReport_UpstreamFailure(t *testing.T) {
	upstream := &ai.GenerationError{SchemaTag: "progress_report", Err: errors.New("rate limited")}
	gen := &mockGenerator{err: upstream}
	svc, reports, clients, _ := newTestAgent(gen)

	cl := &client.Client{ID: uuid.New(), FirstName: "A", LastName: "B", Status: "active"}
	clients.clients[cl.ID] = cl

	_, err := svc.GenerateReport(context.Background(), aireport.TypeProgress, cl.ID, nil, "u")
	var genErr *ai.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if len(reports.items) != 0 {
		t.Error("nothing must be persisted on upstream failure")
	}
}

func TestGenerateReport_MalformedModelOutput(t *testing.T) {
	gen := &mockGenerator{response: json.RawMessage(`{"summary": 42}`)}
	svc, reports, clients, _ := newTestAgent(gen)

	cl := &client.Client{ID: uuid.New(), FirstName: "A", LastName: "B", Status: "active"}
	clients.clients[cl.ID] = cl

	_, err := svc.GenerateReport(context.Background(), aireport.TypeDocumentation, cl.ID, nil, "u")
	var genErr *ai.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("shape violation must surface as GenerationError, got %v", err)
	}
	if len(reports.items) != 0 {
		t.Error("nothing must be persisted on shape violation")
	}
}

func TestGenerateReport_NoSessionMirrorWithoutSessionID(t *testing.T) {
	gen := &mockGenerator{response: json.RawMessage(`{"summary":"ok"}`)}
	svc, reports, clients, sessions := newTestAgent(gen)

	cl := &client.Client{ID: uuid.New(), FirstName: "A", LastName: "B", Status: "active"}
	clients.clients[cl.ID] = cl

	if _, err := svc.GenerateReport(context.Background(), aireport.TypeTreatment, cl.ID, nil, "u"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(reports.items) != 1 {
		t.Fatal("report must persist")
	}
	if len(sessions.sessions) != 0 {
		t.Error("no session writes expected")
	}
}
