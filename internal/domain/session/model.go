package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidTransition  = errors.New("invalid session status transition")
	ErrInvalidMoodRating  = errors.New("mood rating must be between 1 and 10")
	ErrSchedulingConflict = errors.New("counselor already has a session in this time slot")
)

// Session statuses.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

// Session is a single counseling appointment, scheduled or held.
type Session struct {
	ID          uuid.UUID `json:"id"`
	ClientID    uuid.UUID `json:"client_id"`
	CounselorID uuid.UUID `json:"counselor_id"`

	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	SessionType     string    `json:"session_type"` // individual, couples, family, group
	Location        string    `json:"location,omitempty"`

	Status string `json:"status"`

	// MoodRating is the client's self-reported mood on a 1-10 scale,
	// recorded when the session completes. Nil when not recorded.
	MoodRating *int   `json:"mood_rating,omitempty"`
	Notes      string `json:"notes,omitempty"`

	// AIContent is a compact copy of the most recent AI-generated report
	// content for this session, populated asynchronously by the agents.
	AIContent json.RawMessage `json:"ai_content,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// validTransitions describes the session status state machine. A session
// only moves forward; terminal states accept no changes. Completing
// directly from scheduled is allowed for counselors who never mark the
// session as started.
var validTransitions = map[string][]string{
	StatusScheduled:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidStatuses lists all recognized session statuses.
var ValidStatuses = map[string]bool{
	StatusScheduled:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusNoShow:     true,
}

// End returns when the session's scheduled slot finishes.
func (s *Session) End() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two sessions occupy intersecting time slots.
func (s *Session) Overlaps(other *Session) bool {
	return s.ScheduledAt.Before(other.End()) && other.ScheduledAt.Before(s.End())
}
