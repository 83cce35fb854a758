package consent

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConsentNotFound = errors.New("consent form not found")
	ErrTokenExpired    = errors.New("signature link has expired")
	ErrAlreadyResolved = errors.New("consent form has already been signed or declined")
)

// Consent form lifecycle states.
const (
	StatusPending  = "pending"
	StatusSigned   = "signed"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// Form is a consent document sent to a client for electronic signature.
// The signature token is a bearer capability: anyone holding an unexpired
// token can view and sign the form without authenticating.
type Form struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	TemplateName string    `json:"template_name"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Status       string    `json:"status"`

	SignatureToken string    `json:"-"`
	TokenExpiresAt time.Time `json:"token_expires_at"`

	SignedAt   *time.Time `json:"signed_at,omitempty"`
	SignerName string     `json:"signer_name,omitempty"`
	SignerIP   string     `json:"signer_ip,omitempty"`

	// SnapshotBlobID points at the stored copy of the document as it was
	// at signing time.
	SnapshotBlobID string `json:"snapshot_blob_id,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
