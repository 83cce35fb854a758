package aireport

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrReportNotFound = errors.New("ai report not found")
	ErrInvalidType    = errors.New("invalid ai report type")
)

// Report types.
const (
	TypeAssessment    = "assessment"
	TypeDiagnostic    = "diagnostic"
	TypeProgress      = "progress"
	TypeTreatment     = "treatment"
	TypeDocumentation = "documentation"
)

// ValidTypes lists the recognized AI report types.
var ValidTypes = map[string]bool{
	TypeAssessment:    true,
	TypeDiagnostic:    true,
	TypeProgress:      true,
	TypeTreatment:     true,
	TypeDocumentation: true,
}

// AIReport is an immutable, append-only record of one AI agent invocation.
// The aggregators treat the collection as a time-ordered event log and
// always select the latest-N or a date-bounded window.
type AIReport struct {
	ID        uuid.UUID  `json:"id"`
	ClientID  uuid.UUID  `json:"client_id"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`

	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`

	CreatedBy   string    `json:"created_by"`
	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
}
