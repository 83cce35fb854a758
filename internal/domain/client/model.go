package client

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrClientNotFound is returned when no client record matches the given ID.
var ErrClientNotFound = errors.New("client not found")

// Client is a person receiving counseling services at a practice.
type Client struct {
	ID          uuid.UUID  `json:"id"`
	CounselorID uuid.UUID  `json:"counselor_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Status      string     `json:"status"`
	Pronouns    string     `json:"pronouns,omitempty"`

	// RiskLevel is a derived, cached value refreshed by the report
	// pipeline after report generation. It is not authoritative.
	RiskLevel string `json:"risk_level,omitempty"`

	EmergencyContactName  string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string `json:"emergency_contact_phone,omitempty"`

	ReferralSource string `json:"referral_source,omitempty"`
	IntakeNotes    string `json:"intake_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the client's display name.
func (c *Client) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Valid client statuses.
var ValidStatuses = map[string]bool{
	"active":   true,
	"inactive": true,
	"archived": true,
}
