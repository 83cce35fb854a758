package report

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidType    = errors.New("invalid report type")

	// The two messages below are returned verbatim to API clients and must
	// not be reworded. They distinguish "no data in the requested window"
	// from "client does not exist".
	ErrNoDiagnosticReports = errors.New("No diagnostic reports found for the specified period")
	ErrNoTreatmentReports  = errors.New("No treatment reports found for the specified period")
)

// Report is a persisted, user-triggered rollup snapshot produced by one of
// the aggregators. Distinct from the AI report log: a Report is derived on
// demand from that log plus the session history, and its content is stored
// exactly as the aggregator emitted it.
type Report struct {
	ID       uuid.UUID `json:"id"`
	ClientID uuid.UUID `json:"client_id"`
	Type     string    `json:"type"`

	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`

	Content   json.RawMessage `json:"content"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}
