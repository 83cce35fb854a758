package report

import (
	"time"

	"github.com/counsel/counsel/internal/domain/aireport"
)

// Aggregator output shapes. Every summary serializes to
// {metadata, clientInfo, timeframe, <sections>} and the field set is a
// stable contract consumed by the print/export views, so changes here are
// breaking changes for API clients.

// Metadata describes who requested the summary and over what period.
type Metadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	GeneratedBy string    `json:"generatedBy"`
	ClientID    string    `json:"clientId"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`

	// TotalReports is set for diagnostic and treatment summaries only.
	TotalReports *int `json:"totalReports,omitempty"`
}

// ClientInfo is the small client header embedded in every summary.
type ClientInfo struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	RiskLevel string `json:"riskLevel,omitempty"`
}

// Timeframe reports what the aggregator actually found in the window.
type Timeframe struct {
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	TotalSessions int    `json:"totalSessions"`
	TotalReports  int    `json:"totalReports"`
}

// SignificantSession is a session whose notes matched a significance
// trigger word.
type SignificantSession struct {
	SessionID  string    `json:"sessionId"`
	Date       time.Time `json:"date"`
	MoodRating *int      `json:"moodRating,omitempty"`
	Note       string    `json:"note"`
}

// NoteEntry is one classified session note in a progress or challenges
// bucket.
type NoteEntry struct {
	SessionID string    `json:"sessionId"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note"`
}

// CriticalEvent types.
const (
	EventRisk             = "risk"
	EventLowEffectiveness = "low_effectiveness"
)

// CriticalEvent surfaces a high-severity risk entry or a low-effectiveness
// intervention found in the report log. Level is set for risk events only.
type CriticalEvent struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Level       string    `json:"level,omitempty"`
	Date        time.Time `json:"date"`
	Source      string    `json:"source"`
}

// SessionSummary is one row of the documentation summary's session table.
type SessionSummary struct {
	SessionID  string    `json:"sessionId"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	MoodRating *int      `json:"moodRating,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// AssessmentStatus is the most recent assessment's snapshot fields.
type AssessmentStatus struct {
	Summary      string                `json:"summary,omitempty"`
	MentalStatus string                `json:"mentalStatus,omitempty"`
	RiskFactors  []aireport.RiskFactor `json:"riskFactors,omitempty"`
}

// AssessmentSummary rolls up assessment reports and session history.
type AssessmentSummary struct {
	Metadata   Metadata   `json:"metadata"`
	ClientInfo ClientInfo `json:"clientInfo"`
	Timeframe  Timeframe  `json:"timeframe"`

	CurrentStatus        *AssessmentStatus    `json:"currentStatus,omitempty"`
	PresentingConcerns   []string             `json:"presentingConcerns"`
	ClinicalObservations []string             `json:"clinicalObservations"`
	Recommendations      []string             `json:"recommendations"`
	AverageMoodRating    *float64             `json:"averageMoodRating"`
	SignificantSessions  []SignificantSession `json:"significantSessions"`
}

// DiagnosticSummary rolls up diagnostic reports in the window.
type DiagnosticSummary struct {
	Metadata   Metadata   `json:"metadata"`
	ClientInfo ClientInfo `json:"clientInfo"`
	Timeframe  Timeframe  `json:"timeframe"`

	CurrentDiagnoses      []aireport.Diagnosis `json:"currentDiagnoses"`
	ClinicalFindings      []string             `json:"clinicalFindings"`
	DifferentialDiagnoses []string             `json:"differentialDiagnoses"`
	Recommendations       []string             `json:"recommendations"`
}

// ProgressSummary rolls up progress reports, derived intervention metrics
// and classified session notes.
type ProgressSummary struct {
	Metadata   Metadata   `json:"metadata"`
	ClientInfo ClientInfo `json:"clientInfo"`
	Timeframe  Timeframe  `json:"timeframe"`

	CurrentStatus             string                  `json:"currentStatus,omitempty"`
	InterventionEffectiveness map[string]float64      `json:"interventionEffectiveness"`
	KeyInterventions          []string                `json:"keyInterventions"`
	Goals                     []aireport.GoalProgress `json:"goals"`
	ReportedChallenges        []string                `json:"reportedChallenges"`
	ProgressUpdates           []NoteEntry             `json:"progressUpdates"`
	Challenges                []NoteEntry             `json:"challenges"`
	AverageMoodRating         *float64                `json:"averageMoodRating"`
	SignificantSessions       []SignificantSession    `json:"significantSessions"`
}

// TreatmentPlan is the most recent treatment report's snapshot fields.
type TreatmentPlan struct {
	Summary   string `json:"summary,omitempty"`
	Modality  string `json:"modality,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// TreatmentSummary rolls up treatment plan reports in the window.
type TreatmentSummary struct {
	Metadata   Metadata   `json:"metadata"`
	ClientInfo ClientInfo `json:"clientInfo"`
	Timeframe  Timeframe  `json:"timeframe"`

	CurrentPlan     *TreatmentPlan           `json:"currentPlan,omitempty"`
	Goals           []aireport.TreatmentGoal `json:"goals"`
	Recommendations []string                 `json:"recommendations"`
}

// DocumentationSummary rolls up documentation and progress reports plus the
// full session table, surfacing critical events.
type DocumentationSummary struct {
	Metadata   Metadata   `json:"metadata"`
	ClientInfo ClientInfo `json:"clientInfo"`
	Timeframe  Timeframe  `json:"timeframe"`

	SessionSummaries    []SessionSummary     `json:"sessionSummaries"`
	ProgressUpdates     []NoteEntry          `json:"progressUpdates"`
	Challenges          []NoteEntry          `json:"challenges"`
	SignificantSessions []SignificantSession `json:"significantSessions"`
	CriticalEvents      []CriticalEvent      `json:"criticalEvents"`
	FollowUpItems       []string             `json:"followUpItems"`
	AverageMoodRating   *float64             `json:"averageMoodRating"`
}
