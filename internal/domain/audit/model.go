package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is an append-only record of who touched what. Entries are written
// by the request audit middleware and by the consent signature path; they
// are never updated or deleted.
type Entry struct {
	ID           uuid.UUID       `json:"id"`
	Actor        string          `json:"actor"`
	ActorRoles   []string        `json:"actor_roles,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ClientID     string          `json:"client_id,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	Path         string          `json:"path"`
	Method       string          `json:"method"`
	StatusCode   int             `json:"status_code,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	At           time.Time       `json:"at"`
	Detail       json.RawMessage `json:"detail,omitempty"`
}

// SearchParams filters the audit trail.
type SearchParams struct {
	Actor        string
	ClientID     string
	ResourceType string
	Action       string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}
