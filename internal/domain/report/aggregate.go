package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/domain/session"
)

const dateLayout = "2006-01-02"

// Narrow read contracts satisfied by the domain repositories. The
// aggregators never write; the only state they touch is what these three
// sources return.
type clientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

type sessionSource interface {
	ListByClientInWindow(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*session.Session, error)
}

type aiReportSource interface {
	ListByClientAndTypes(ctx context.Context, clientID uuid.UUID, types []string, from, to *time.Time) ([]*aireport.AIReport, error)
}

// Aggregator joins client, session and AI report data into on-demand
// summary documents. It is safe for concurrent use.
type Aggregator struct {
	clients   clientSource
	sessions  sessionSource
	aiReports aiReportSource
}

func NewAggregator(clients clientSource, sessions sessionSource, aiReports aiReportSource) *Aggregator {
	return &Aggregator{clients: clients, sessions: sessions, aiReports: aiReports}
}

// farFuture bounds open-ended session windows. Report queries take nil
// pointers directly; the session repository takes concrete bounds.
var farFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

func windowBounds(from, to *time.Time) (time.Time, time.Time) {
	start := time.Time{}
	end := farFuture
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	return start, end
}

// fetch issues the three independent reads concurrently and joins them. A
// missing client surfaces as client.ErrClientNotFound from the client read.
func (a *Aggregator) fetch(ctx context.Context, clientID uuid.UUID, types []string, from, to *time.Time) (*client.Client, []*session.Session, []*aireport.AIReport, error) {
	var (
		cl      *client.Client
		sess    []*session.Session
		reports []*aireport.AIReport
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cl, err = a.clients.GetByID(ctx, clientID)
		return err
	})
	g.Go(func() error {
		start, end := windowBounds(from, to)
		var err error
		sess, err = a.sessions.ListByClientInWindow(ctx, clientID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		reports, err = a.aiReports.ListByClientAndTypes(ctx, clientID, types, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return cl, sess, reports, nil
}

func buildMetadata(cl *client.Client, from, to *time.Time, requestedBy string) Metadata {
	m := Metadata{
		GeneratedAt: time.Now().UTC(),
		GeneratedBy: requestedBy,
		ClientID:    cl.ID.String(),
	}
	if from != nil {
		m.StartDate = from.Format(dateLayout)
	}
	if to != nil {
		m.EndDate = to.Format(dateLayout)
	}
	return m
}

func buildClientInfo(cl *client.Client) ClientInfo {
	return ClientInfo{Name: cl.FullName(), Status: cl.Status, RiskLevel: cl.RiskLevel}
}

func buildTimeframe(from, to *time.Time, totalSessions, totalReports int) Timeframe {
	t := Timeframe{TotalSessions: totalSessions, TotalReports: totalReports}
	if from != nil {
		t.StartDate = from.Format(dateLayout)
	}
	if to != nil {
		t.EndDate = to.Format(dateLayout)
	}
	return t
}

// classifySessions buckets session notes by trigger word. Buckets overlap:
// one note may appear in several.
func classifySessions(sessions []*session.Session) (significant []SignificantSession, progress, challenges []NoteEntry) {
	significant = make([]SignificantSession, 0)
	progress = make([]NoteEntry, 0)
	challenges = make([]NoteEntry, 0)
	for _, s := range sessions {
		if s.Notes == "" {
			continue
		}
		cats := ClassifyNote(s.Notes)
		if cats.Significant {
			significant = append(significant, SignificantSession{
				SessionID:  s.ID.String(),
				Date:       s.ScheduledAt,
				MoodRating: s.MoodRating,
				Note:       s.Notes,
			})
		}
		entry := NoteEntry{SessionID: s.ID.String(), Date: s.ScheduledAt, Note: s.Notes}
		if cats.Progress {
			progress = append(progress, entry)
		}
		if cats.Challenge {
			challenges = append(challenges, entry)
		}
	}
	return significant, progress, challenges
}

func decodeContent(rep *aireport.AIReport, out interface{}) error {
	if err := json.Unmarshal(rep.Content, out); err != nil {
		return fmt.Errorf("decode %s report %s: %w", rep.Type, rep.ID, err)
	}
	return nil
}

// GenerateAssessmentReport summarizes the client's assessment history over
// the window. Current-status fields come from the most recent report; list
// fields are concatenated across all reports, newest first.
func (a *Aggregator) GenerateAssessmentReport(ctx context.Context, clientID uuid.UUID, from, to *time.Time, requestedBy string) (*AssessmentSummary, error) {
	cl, sess, raw, err := a.fetch(ctx, clientID, []string{aireport.TypeAssessment}, from, to)
	if err != nil {
		return nil, err
	}

	out := &AssessmentSummary{
		Metadata:             buildMetadata(cl, from, to, requestedBy),
		ClientInfo:           buildClientInfo(cl),
		Timeframe:            buildTimeframe(from, to, len(sess), len(raw)),
		PresentingConcerns:   make([]string, 0),
		ClinicalObservations: make([]string, 0),
		Recommendations:      make([]string, 0),
	}

	for i, rep := range raw {
		var c aireport.AssessmentContent
		if err := decodeContent(rep, &c); err != nil {
			return nil, err
		}
		if i == 0 {
			out.CurrentStatus = &AssessmentStatus{
				Summary:      c.Summary,
				MentalStatus: c.MentalStatus,
				RiskFactors:  c.RiskFactors,
			}
		}
		out.PresentingConcerns = append(out.PresentingConcerns, c.PresentingConcerns...)
		out.ClinicalObservations = append(out.ClinicalObservations, c.ClinicalObservations...)
		out.Recommendations = append(out.Recommendations, c.Recommendations...)
	}

	out.AverageMoodRating = AverageMood(sess)
	out.SignificantSessions, _, _ = classifySessions(sess)
	return out, nil
}

// GenerateDiagnosticReport summarizes diagnostic reports in the window. An
// empty window is an error distinct from a missing client.
func (a *Aggregator) GenerateDiagnosticReport(ctx context.Context, clientID uuid.UUID, from, to *time.Time, requestedBy string) (*DiagnosticSummary, error) {
	cl, sess, raw, err := a.fetch(ctx, clientID, []string{aireport.TypeDiagnostic}, from, to)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoDiagnosticReports
	}

	total := len(raw)
	out := &DiagnosticSummary{
		Metadata:              buildMetadata(cl, from, to, requestedBy),
		ClientInfo:            buildClientInfo(cl),
		Timeframe:             buildTimeframe(from, to, len(sess), total),
		CurrentDiagnoses:      make([]aireport.Diagnosis, 0),
		ClinicalFindings:      make([]string, 0),
		DifferentialDiagnoses: make([]string, 0),
		Recommendations:       make([]string, 0),
	}
	out.Metadata.TotalReports = &total

	for i, rep := range raw {
		var c aireport.DiagnosticContent
		if err := decodeContent(rep, &c); err != nil {
			return nil, err
		}
		if i == 0 && c.Diagnoses != nil {
			out.CurrentDiagnoses = c.Diagnoses
		}
		out.ClinicalFindings = append(out.ClinicalFindings, c.ClinicalFindings...)
		out.DifferentialDiagnoses = append(out.DifferentialDiagnoses, c.DifferentialDiagnoses...)
		out.Recommendations = append(out.Recommendations, c.Recommendations...)
	}
	return out, nil
}

// GenerateProgressReport summarizes progress reports plus derived
// intervention metrics and classified session notes.
func (a *Aggregator) GenerateProgressReport(ctx context.Context, clientID uuid.UUID, from, to *time.Time, requestedBy string) (*ProgressSummary, error) {
	cl, sess, raw, err := a.fetch(ctx, clientID, []string{aireport.TypeProgress}, from, to)
	if err != nil {
		return nil, err
	}

	contents := make([]*aireport.ProgressContent, 0, len(raw))
	for _, rep := range raw {
		var c aireport.ProgressContent
		if err := decodeContent(rep, &c); err != nil {
			return nil, err
		}
		contents = append(contents, &c)
	}

	means := InterventionEffectiveness(contents)
	out := &ProgressSummary{
		Metadata:                  buildMetadata(cl, from, to, requestedBy),
		ClientInfo:                buildClientInfo(cl),
		Timeframe:                 buildTimeframe(from, to, len(sess), len(raw)),
		InterventionEffectiveness: means,
		KeyInterventions:          KeyInterventions(means),
		Goals:                     make([]aireport.GoalProgress, 0),
		ReportedChallenges:        make([]string, 0),
	}

	if len(contents) > 0 {
		if tp := contents[0].TreatmentProgress; tp != nil {
			out.CurrentStatus = tp.OverallStatus
		}
		if contents[0].Goals != nil {
			out.Goals = contents[0].Goals
		}
	}
	for _, c := range contents {
		out.ReportedChallenges = append(out.ReportedChallenges, c.Challenges...)
	}

	out.AverageMoodRating = AverageMood(sess)
	out.SignificantSessions, out.ProgressUpdates, out.Challenges = classifySessions(sess)
	return out, nil
}

// GenerateTreatmentReport summarizes treatment plan reports in the window.
// An empty window is an error distinct from a missing client.
func (a *Aggregator) GenerateTreatmentReport(ctx context.Context, clientID uuid.UUID, from, to *time.Time, requestedBy string) (*TreatmentSummary, error) {
	cl, sess, raw, err := a.fetch(ctx, clientID, []string{aireport.TypeTreatment}, from, to)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoTreatmentReports
	}

	total := len(raw)
	out := &TreatmentSummary{
		Metadata:        buildMetadata(cl, from, to, requestedBy),
		ClientInfo:      buildClientInfo(cl),
		Timeframe:       buildTimeframe(from, to, len(sess), total),
		Goals:           make([]aireport.TreatmentGoal, 0),
		Recommendations: make([]string, 0),
	}
	out.Metadata.TotalReports = &total

	for i, rep := range raw {
		var c aireport.TreatmentContent
		if err := decodeContent(rep, &c); err != nil {
			return nil, err
		}
		if i == 0 {
			out.CurrentPlan = &TreatmentPlan{
				Summary:   c.Summary,
				Modality:  c.Modality,
				Frequency: c.Frequency,
			}
		}
		out.Goals = append(out.Goals, c.Goals...)
		out.Recommendations = append(out.Recommendations, c.Recommendations...)
	}
	return out, nil
}

// GenerateDocumentationReport builds the session-by-session documentation
// summary. It reads both documentation and progress reports: risk entries
// come from the former, low-effectiveness interventions from the latter.
func (a *Aggregator) GenerateDocumentationReport(ctx context.Context, clientID uuid.UUID, from, to *time.Time, requestedBy string) (*DocumentationSummary, error) {
	types := []string{aireport.TypeDocumentation, aireport.TypeProgress}
	cl, sess, raw, err := a.fetch(ctx, clientID, types, from, to)
	if err != nil {
		return nil, err
	}

	out := &DocumentationSummary{
		Metadata:         buildMetadata(cl, from, to, requestedBy),
		ClientInfo:       buildClientInfo(cl),
		Timeframe:        buildTimeframe(from, to, len(sess), len(raw)),
		SessionSummaries: make([]SessionSummary, 0, len(sess)),
		CriticalEvents:   make([]CriticalEvent, 0),
		FollowUpItems:    make([]string, 0),
	}

	for _, s := range sess {
		out.SessionSummaries = append(out.SessionSummaries, SessionSummary{
			SessionID:  s.ID.String(),
			Date:       s.ScheduledAt,
			Status:     s.Status,
			MoodRating: s.MoodRating,
			Notes:      s.Notes,
		})
	}

	for _, rep := range raw {
		switch rep.Type {
		case aireport.TypeDocumentation:
			var c aireport.DocumentationContent
			if err := decodeContent(rep, &c); err != nil {
				return nil, err
			}
			out.FollowUpItems = append(out.FollowUpItems, c.FollowUpItems...)
			for _, rf := range c.RiskAssessment {
				if !criticalRiskLevel(rf.Level) {
					continue
				}
				out.CriticalEvents = append(out.CriticalEvents, CriticalEvent{
					Type:        EventRisk,
					Description: fmt.Sprintf("%s risk: %s", rf.Level, rf.Factor),
					Level:       rf.Level,
					Date:        rep.GeneratedAt,
					Source:      rep.Type,
				})
			}
		case aireport.TypeProgress:
			var c aireport.ProgressContent
			if err := decodeContent(rep, &c); err != nil {
				return nil, err
			}
			if c.TreatmentProgress == nil {
				continue
			}
			for _, ie := range c.TreatmentProgress.InterventionEffectiveness {
				if ie.Effectiveness >= lowEffectivenessThreshold {
					continue
				}
				out.CriticalEvents = append(out.CriticalEvents, CriticalEvent{
					Type:        EventLowEffectiveness,
					Description: "Low effectiveness intervention: " + ie.Intervention,
					Date:        rep.GeneratedAt,
					Source:      rep.Type,
				})
			}
		}
	}

	out.AverageMoodRating = AverageMood(sess)
	out.SignificantSessions, out.ProgressUpdates, out.Challenges = classifySessions(sess)
	return out, nil
}
