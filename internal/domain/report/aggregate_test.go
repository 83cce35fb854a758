package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/domain/session"
)

type mockClients struct {
	clients   map[uuid.UUID]*client.Client
	updates   int
	updateErr error
}

func (m *mockClients) GetByID(_ context.Context, id uuid.UUID) (*client.Client, error) {
	if c, ok := m.clients[id]; ok {
		return c, nil
	}
	return nil, client.ErrClientNotFound
}

func (m *mockClients) Update(_ context.Context, c *client.Client) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.clients[c.ID]; !ok {
		return client.ErrClientNotFound
	}
	m.clients[c.ID] = c
	m.updates++
	return nil
}

type mockSessions struct {
	items []*session.Session
}

func (m *mockSessions) ListByClientInWindow(_ context.Context, clientID uuid.UUID, from, to time.Time) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range m.items {
		if s.ClientID != clientID {
			continue
		}
		if s.ScheduledAt.Before(from) || s.ScheduledAt.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// mockAIReports returns matching reports in stored order; tests store them
// newest first to mirror the repository's sort.
type mockAIReports struct {
	items []*aireport.AIReport
}

func (m *mockAIReports) ListByClientAndTypes(_ context.Context, clientID uuid.UUID, types []string, from, to *time.Time) ([]*aireport.AIReport, error) {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var out []*aireport.AIReport
	for _, r := range m.items {
		if r.ClientID != clientID || !wanted[r.Type] {
			continue
		}
		if from != nil && r.GeneratedAt.Before(*from) {
			continue
		}
		if to != nil && r.GeneratedAt.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func timePtr(t time.Time) *time.Time { return &t }

func mustRaw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return raw
}

func testClient() *client.Client {
	return &client.Client{
		ID:        uuid.New(),
		FirstName: "Jordan",
		LastName:  "Lee",
		Status:    "active",
	}
}

func TestGenerateAssessmentReport(t *testing.T) {
	cl := testClient()
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 10, 0, 0, 0, time.UTC) }

	sessions := &mockSessions{items: []*session.Session{
		{ID: uuid.New(), ClientID: cl.ID, ScheduledAt: day(3), MoodRating: intPtr(4)},
		{ID: uuid.New(), ClientID: cl.ID, ScheduledAt: day(10), MoodRating: intPtr(6), Notes: "A breakthrough around avoidance"},
		{ID: uuid.New(), ClientID: cl.ID, ScheduledAt: day(17), MoodRating: intPtr(8)},
	}}
	reports := &mockAIReports{items: []*aireport.AIReport{
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeAssessment, GeneratedAt: day(18),
			Content: mustRaw(t, aireport.AssessmentContent{
				Summary:              "improving engagement",
				MentalStatus:         "alert, oriented",
				RiskFactors:          []aireport.RiskFactor{{Factor: "isolation", Level: "moderate"}},
				PresentingConcerns:   []string{"social anxiety"},
				ClinicalObservations: []string{"reduced avoidance"},
				Recommendations:      []string{"continue weekly sessions"},
			}),
		},
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeAssessment, GeneratedAt: day(4),
			Content: mustRaw(t, aireport.AssessmentContent{
				Summary:            "initial intake",
				PresentingConcerns: []string{"panic attacks"},
				Recommendations:    []string{"screen for GAD"},
			}),
		},
	}}

	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, sessions, reports)
	from, to := timePtr(day(1)), timePtr(day(31))

	out, err := agg.GenerateAssessmentReport(context.Background(), cl.ID, from, to, "Dr. Rivera")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if out.Metadata.GeneratedBy != "Dr. Rivera" {
		t.Errorf("generatedBy = %q", out.Metadata.GeneratedBy)
	}
	if out.Metadata.ClientID != cl.ID.String() {
		t.Errorf("clientId = %q", out.Metadata.ClientID)
	}
	if out.Metadata.StartDate != "2024-03-01" || out.Metadata.EndDate != "2024-03-31" {
		t.Errorf("period = %q..%q", out.Metadata.StartDate, out.Metadata.EndDate)
	}
	if out.ClientInfo.Name != "Jordan Lee" || out.ClientInfo.Status != "active" {
		t.Errorf("unexpected clientInfo: %+v", out.ClientInfo)
	}
	if out.Timeframe.TotalSessions != 3 || out.Timeframe.TotalReports != 2 {
		t.Errorf("unexpected timeframe: %+v", out.Timeframe)
	}
	if out.CurrentStatus == nil || out.CurrentStatus.Summary != "improving engagement" {
		t.Fatalf("currentStatus must come from the most recent report: %+v", out.CurrentStatus)
	}
	if len(out.PresentingConcerns) != 2 || len(out.Recommendations) != 2 {
		t.Errorf("list fields must flatten across all reports: %+v", out)
	}
	if out.AverageMoodRating == nil || *out.AverageMoodRating != 6 {
		t.Errorf("averageMoodRating = %v, want 6", out.AverageMoodRating)
	}
	if len(out.SignificantSessions) != 1 || !strings.Contains(out.SignificantSessions[0].Note, "breakthrough") {
		t.Errorf("unexpected significant sessions: %+v", out.SignificantSessions)
	}
}

func TestGenerateAssessmentReport_ClientNotFound(t *testing.T) {
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{}}, &mockSessions{}, &mockAIReports{})
	_, err := agg.GenerateAssessmentReport(context.Background(), uuid.New(), nil, nil, "x")
	if !errors.Is(err, client.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestGenerateDiagnosticReport_EmptyWindowExactMessage(t *testing.T) {
	cl := testClient()
	// A diagnostic report exists, but outside the requested window.
	reports := &mockAIReports{items: []*aireport.AIReport{{
		ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeDiagnostic,
		GeneratedAt: time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC),
		Content:     mustRaw(t, aireport.DiagnosticContent{Summary: "old"}),
	}}}
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, &mockSessions{}, reports)

	from := timePtr(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	to := timePtr(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))

	_, err := agg.GenerateDiagnosticReport(context.Background(), cl.ID, from, to, "x")
	if err == nil {
		t.Fatal("expected error for empty window")
	}
	if err.Error() != "No diagnostic reports found for the specified period" {
		t.Fatalf("wrong message: %q", err.Error())
	}
	if !errors.Is(err, ErrNoDiagnosticReports) {
		t.Error("error must match ErrNoDiagnosticReports")
	}
}

func TestGenerateDiagnosticReport_TotalReports(t *testing.T) {
	cl := testClient()
	day := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }
	reports := &mockAIReports{items: []*aireport.AIReport{
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeDiagnostic, GeneratedAt: day(20),
			Content: mustRaw(t, aireport.DiagnosticContent{
				Diagnoses:        []aireport.Diagnosis{{Code: "F41.1", Name: "GAD"}},
				ClinicalFindings: []string{"persistent worry"},
			}),
		},
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeDiagnostic, GeneratedAt: day(5),
			Content: mustRaw(t, aireport.DiagnosticContent{
				Diagnoses:             []aireport.Diagnosis{{Name: "adjustment disorder"}},
				DifferentialDiagnoses: []string{"MDD"},
			}),
		},
	}}
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, &mockSessions{}, reports)

	out, err := agg.GenerateDiagnosticReport(context.Background(), cl.ID, timePtr(day(1)), timePtr(day(31)), "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Metadata.TotalReports == nil || *out.Metadata.TotalReports != 2 {
		t.Errorf("metadata.totalReports = %v, want 2", out.Metadata.TotalReports)
	}
	if len(out.CurrentDiagnoses) != 1 || out.CurrentDiagnoses[0].Name != "GAD" {
		t.Errorf("currentDiagnoses must come from the most recent report: %+v", out.CurrentDiagnoses)
	}
	if len(out.DifferentialDiagnoses) != 1 || len(out.ClinicalFindings) != 1 {
		t.Errorf("list fields must flatten: %+v", out)
	}
}

func TestGenerateProgressReport(t *testing.T) {
	cl := testClient()
	day := func(d int) time.Time { return time.Date(2024, time.February, d, 9, 0, 0, 0, time.UTC) }

	sessions := &mockSessions{items: []*session.Session{
		{ID: uuid.New(), ClientID: cl.ID, ScheduledAt: day(2), MoodRating: intPtr(5),
			Notes: "We made real progress but faced a difficulty with homework"},
	}}
	reports := &mockAIReports{items: []*aireport.AIReport{
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeProgress, GeneratedAt: day(14),
			Content: mustRaw(t, aireport.ProgressContent{
				TreatmentProgress: &aireport.TreatmentProgress{
					OverallStatus: "on track",
					InterventionEffectiveness: []aireport.InterventionEffectiveness{
						{Intervention: "CBT", Effectiveness: 0.8},
						{Intervention: "mindfulness", Effectiveness: 0.5},
					},
				},
				Goals:      []aireport.GoalProgress{{Goal: "reduce avoidance", Status: "in progress"}},
				Challenges: []string{"medication adherence"},
			}),
		},
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeProgress, GeneratedAt: day(7),
			Content: mustRaw(t, aireport.ProgressContent{
				TreatmentProgress: &aireport.TreatmentProgress{
					InterventionEffectiveness: []aireport.InterventionEffectiveness{
						{Intervention: "CBT", Effectiveness: 0.6},
					},
				},
			}),
		},
	}}
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, sessions, reports)

	out, err := agg.GenerateProgressReport(context.Background(), cl.ID, timePtr(day(1)), timePtr(day(28)), "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.CurrentStatus != "on track" {
		t.Errorf("currentStatus = %q", out.CurrentStatus)
	}
	if got := out.InterventionEffectiveness["CBT"]; got != 0.7 {
		t.Errorf("CBT mean = %v, want 0.7", got)
	}
	// Mean of 0.8 and 0.6 sits exactly on the inclusive threshold.
	if len(out.KeyInterventions) != 1 || out.KeyInterventions[0] != "CBT" {
		t.Errorf("keyInterventions = %v, want [CBT]", out.KeyInterventions)
	}
	if len(out.Goals) != 1 || out.Goals[0].Goal != "reduce avoidance" {
		t.Errorf("goals must come from the most recent report: %+v", out.Goals)
	}
	if len(out.ReportedChallenges) != 1 {
		t.Errorf("reportedChallenges = %v", out.ReportedChallenges)
	}
	// The session note matches both buckets.
	if len(out.ProgressUpdates) != 1 || len(out.Challenges) != 1 {
		t.Fatalf("note must land in both buckets: progress=%v challenges=%v",
			out.ProgressUpdates, out.Challenges)
	}
	if out.ProgressUpdates[0].SessionID != out.Challenges[0].SessionID {
		t.Error("both buckets must reference the same session")
	}
}

func TestGenerateTreatmentReport(t *testing.T) {
	cl := testClient()
	day := func(d int) time.Time { return time.Date(2024, time.April, d, 0, 0, 0, 0, time.UTC) }
	reports := &mockAIReports{items: []*aireport.AIReport{
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeTreatment, GeneratedAt: day(10),
			Content: mustRaw(t, aireport.TreatmentContent{
				Summary:   "revised plan",
				Modality:  "CBT",
				Frequency: "weekly",
				Goals:     []aireport.TreatmentGoal{{Goal: "graded exposure"}},
			}),
		},
		{
			ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeTreatment, GeneratedAt: day(1),
			Content: mustRaw(t, aireport.TreatmentContent{
				Summary:         "initial plan",
				Goals:           []aireport.TreatmentGoal{{Goal: "psychoeducation"}},
				Recommendations: []string{"sleep hygiene"},
			}),
		},
	}}
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, &mockSessions{}, reports)

	out, err := agg.GenerateTreatmentReport(context.Background(), cl.ID, timePtr(day(1)), timePtr(day(30)), "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.CurrentPlan == nil || out.CurrentPlan.Summary != "revised plan" || out.CurrentPlan.Modality != "CBT" {
		t.Errorf("currentPlan must come from the most recent report: %+v", out.CurrentPlan)
	}
	if len(out.Goals) != 2 {
		t.Errorf("goals must flatten across reports: %+v", out.Goals)
	}
	if out.Metadata.TotalReports == nil || *out.Metadata.TotalReports != 2 {
		t.Errorf("metadata.totalReports = %v", out.Metadata.TotalReports)
	}
}

func TestGenerateTreatmentReport_EmptyWindowExactMessage(t *testing.T) {
	cl := testClient()
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, &mockSessions{}, &mockAIReports{})

	_, err := agg.GenerateTreatmentReport(context.Background(), cl.ID, nil, nil, "x")
	if err == nil || err.Error() != "No treatment reports found for the specified period" {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestGenerateDocumentationReport_LowEffectivenessCriticalEvent(t *testing.T) {
	cl := testClient()
	when := time.Date(2024, time.May, 5, 0, 0, 0, 0, time.UTC)
	reports := &mockAIReports{items: []*aireport.AIReport{{
		ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeProgress, GeneratedAt: when,
		Content: mustRaw(t, aireport.ProgressContent{
			TreatmentProgress: &aireport.TreatmentProgress{
				InterventionEffectiveness: []aireport.InterventionEffectiveness{
					{Intervention: "CBT", Effectiveness: 0.25},
				},
			},
		}),
	}}}
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, &mockSessions{}, reports)

	out, err := agg.GenerateDocumentationReport(context.Background(), cl.ID, nil, nil, "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(out.CriticalEvents) != 1 {
		t.Fatalf("expected exactly one critical event, got %d: %+v", len(out.CriticalEvents), out.CriticalEvents)
	}
	ev := out.CriticalEvents[0]
	if ev.Type != EventLowEffectiveness {
		t.Errorf("event type = %q", ev.Type)
	}
	if !strings.Contains(ev.Description, "Low effectiveness intervention: CBT") {
		t.Errorf("description = %q", ev.Description)
	}
}

func TestGenerateDocumentationReport_LowEffectivenessBoundary(t *testing.T) {
	cl := testClient()
	reports := &mockAIReports{items: []*aireport.AIReport{{
		ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeProgress,
		GeneratedAt: time.Now().UTC(),
		Content: mustRaw(t, aireport.ProgressContent{
			TreatmentProgress: &aireport.TreatmentProgress{
				InterventionEffectiveness: []aireport.InterventionEffectiveness{
					{Intervention: "exactly at bound", Effectiveness: 0.30},
					{Intervention: "just under", Effectiveness: 0.299},
				},
			},
		}),
	}}}
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, &mockSessions{}, reports)

	out, err := agg.GenerateDocumentationReport(context.Background(), cl.ID, nil, nil, "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// The bound is strict: 0.30 itself is not a critical event.
	if len(out.CriticalEvents) != 1 || !strings.Contains(out.CriticalEvents[0].Description, "just under") {
		t.Fatalf("unexpected critical events: %+v", out.CriticalEvents)
	}
}

func TestGenerateDocumentationReport_RiskCriticalEvents(t *testing.T) {
	cl := testClient()
	when := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	sessions := &mockSessions{items: []*session.Session{
		{ID: uuid.New(), ClientID: cl.ID, ScheduledAt: when, Status: session.StatusCompleted,
			MoodRating: intPtr(3), Notes: "critical incident, significant distress"},
	}}
	reports := &mockAIReports{items: []*aireport.AIReport{{
		ID: uuid.New(), ClientID: cl.ID, Type: aireport.TypeDocumentation, GeneratedAt: when,
		Content: mustRaw(t, aireport.DocumentationContent{
			Summary: "weekly documentation",
			RiskAssessment: []aireport.RiskFactor{
				{Factor: "self-harm ideation", Level: "severe"},
				{Factor: "social isolation", Level: "moderate"},
			},
			FollowUpItems: []string{"safety plan review"},
		}),
	}}}
	agg := NewAggregator(&mockClients{clients: map[uuid.UUID]*client.Client{cl.ID: cl}}, sessions, reports)

	out, err := agg.GenerateDocumentationReport(context.Background(), cl.ID, nil, nil, "x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(out.CriticalEvents) != 1 {
		t.Fatalf("only high/severe entries are critical, got %+v", out.CriticalEvents)
	}
	ev := out.CriticalEvents[0]
	if ev.Type != EventRisk || ev.Level != "severe" || !strings.Contains(ev.Description, "self-harm ideation") {
		t.Errorf("unexpected risk event: %+v", ev)
	}
	if len(out.SessionSummaries) != 1 || out.SessionSummaries[0].Status != session.StatusCompleted {
		t.Errorf("unexpected session summaries: %+v", out.SessionSummaries)
	}
	if len(out.SignificantSessions) != 1 {
		t.Errorf("note with trigger words must be significant: %+v", out.SignificantSessions)
	}
	if len(out.FollowUpItems) != 1 {
		t.Errorf("followUpItems = %v", out.FollowUpItems)
	}
}
