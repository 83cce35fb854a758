package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var validSessionTypes = map[string]bool{
	"individual": true, "couples": true, "family": true, "group": true,
}

type Service struct {
	sessions Repository
}

func NewService(sessions Repository) *Service {
	return &Service{sessions: sessions}
}

func (s *Service) ScheduleSession(ctx context.Context, sess *Session) error {
	if sess.ClientID == uuid.Nil {
		return fmt.Errorf("client_id is required")
	}
	if sess.CounselorID == uuid.Nil {
		return fmt.Errorf("counselor_id is required")
	}
	if sess.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if sess.DurationMinutes <= 0 {
		sess.DurationMinutes = 50
	}
	if sess.SessionType == "" {
		sess.SessionType = "individual"
	}
	if !validSessionTypes[sess.SessionType] {
		return fmt.Errorf("invalid session_type: %s", sess.SessionType)
	}
	sess.Status = StatusScheduled

	if err := s.checkConflict(ctx, sess); err != nil {
		return err
	}
	return s.sessions.Create(ctx, sess)
}

// checkConflict rejects scheduling when the counselor already has an
// overlapping scheduled session.
func (s *Service) checkConflict(ctx context.Context, sess *Session) error {
	windowStart := sess.ScheduledAt.Add(-12 * time.Hour)
	windowEnd := sess.End().Add(12 * time.Hour)
	existing, err := s.sessions.ListByCounselor(ctx, sess.CounselorID, windowStart, windowEnd)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == sess.ID || other.Status != StatusScheduled {
			continue
		}
		if sess.Overlaps(other) {
			return ErrSchedulingConflict
		}
	}
	return nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.sessions.GetByID(ctx, id)
}

// StartSession transitions a scheduled session to in_progress.
func (s *Service) StartSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sess.Status, StatusInProgress) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Status, StatusInProgress)
	}
	sess.Status = StatusInProgress
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// AttachAIContent stores a compact copy of AI-generated report content on
// the session. Called by the report agents after a successful generation.
func (s *Service) AttachAIContent(ctx context.Context, id uuid.UUID, content json.RawMessage) error {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	sess.AIContent = content
	return s.sessions.Update(ctx, sess)
}

// RescheduleSession moves a scheduled session to a new time slot.
func (s *Service) RescheduleSession(ctx context.Context, id uuid.UUID, newTime time.Time) (*Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: cannot reschedule a %s session", ErrInvalidTransition, sess.Status)
	}
	sess.ScheduledAt = newTime
	if err := s.checkConflict(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CompleteSession transitions a scheduled session to completed, recording
// the optional client mood rating and session notes.
func (s *Service) CompleteSession(ctx context.Context, id uuid.UUID, moodRating *int, notes string) (*Session, error) {
	if moodRating != nil && (*moodRating < 1 || *moodRating > 10) {
		return nil, ErrInvalidMoodRating
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sess.Status, StatusCompleted) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Status, StatusCompleted)
	}

	sess.Status = StatusCompleted
	sess.MoodRating = moodRating
	if notes != "" {
		sess.Notes = notes
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CancelSession transitions a scheduled session to cancelled or no_show.
func (s *Service) CancelSession(ctx context.Context, id uuid.UUID, noShow bool) (*Session, error) {
	target := StatusCancelled
	if noShow {
		target = StatusNoShow
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sess.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Status, target)
	}

	sess.Status = target
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return s.sessions.Delete(ctx, id)
}

func (s *Service) ListSessionsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	return s.sessions.ListByClient(ctx, clientID, limit, offset)
}

func (s *Service) ListCounselorSchedule(ctx context.Context, counselorID uuid.UUID, from, to time.Time) ([]*Session, error) {
	return s.sessions.ListByCounselor(ctx, counselorID, from, to)
}

// SessionsInWindow returns a client's sessions in [from, to], used by the
// report aggregation pipeline for mood and attendance metrics.
func (s *Service) SessionsInWindow(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*Session, error) {
	return s.sessions.ListByClientInWindow(ctx, clientID, from, to)
}
