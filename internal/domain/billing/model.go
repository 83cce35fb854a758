package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrInvalidStatus    = errors.New("invalid invoice status")
	ErrInvoiceNotDraft  = errors.New("invoice has already been issued")
	ErrInvoiceFinalized = errors.New("paid invoices cannot be voided")
)

// Invoice statuses.
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
	StatusPaid  = "paid"
	StatusVoid  = "void"
)

// ValidStatuses lists recognized invoice statuses.
var ValidStatuses = map[string]bool{
	StatusDraft: true,
	StatusSent:  true,
	StatusPaid:  true,
	StatusVoid:  true,
}

// Invoice bills a client for services rendered. Amounts are integer cents
// to avoid float rounding on money.
type Invoice struct {
	ID       uuid.UUID `json:"id"`
	ClientID uuid.UUID `json:"client_id"`

	Number      string `json:"number"`
	Description string `json:"description,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`

	// PDFBlobID references the rendered invoice document in the blob
	// store. Empty when no document has been attached.
	PDFBlobID string `json:"pdf_blob_id,omitempty"`

	PaymentLinkID  string `json:"payment_link_id,omitempty"`
	PaymentLinkURL string `json:"payment_link_url,omitempty"`

	IssuedAt *time.Time `json:"issued_at,omitempty"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeleteInvoiceResult reports each phase of an invoice delete separately.
// Removing the database record succeeds even when the stored PDF cannot be
// removed; the caller sees the partial failure instead of a silent swallow.
type DeleteInvoiceResult struct {
	RecordRemoved bool   `json:"record_removed"`
	FileRemoved   bool   `json:"file_removed"`
	FileError     string `json:"file_error,omitempty"`
}
