package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	sessions map[uuid.UUID]*Session
}

func newMockRepo() *mockRepo {
	return &mockRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (m *mockRepo) Create(_ context.Context, s *Session) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	m.sessions[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *mockRepo) Update(_ context.Context, s *Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockRepo) ListByClient(_ context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	var items []*Session
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			items = append(items, s)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByCounselor(_ context.Context, counselorID uuid.UUID, from, to time.Time) ([]*Session, error) {
	var items []*Session
	for _, s := range m.sessions {
		if s.CounselorID != counselorID {
			continue
		}
		if s.ScheduledAt.Before(from) || s.ScheduledAt.After(to) {
			continue
		}
		items = append(items, s)
	}
	return items, nil
}

func (m *mockRepo) ListByClientInWindow(_ context.Context, clientID uuid.UUID, from, to time.Time) ([]*Session, error) {
	var items []*Session
	for _, s := range m.sessions {
		if s.ClientID != clientID {
			continue
		}
		if s.ScheduledAt.Before(from) || s.ScheduledAt.After(to) {
			continue
		}
		items = append(items, s)
	}
	return items, nil
}

func scheduleTestSession(t *testing.T, svc *Service, at time.Time) *Session {
	t.Helper()
	s := &Session{
		ClientID:    uuid.New(),
		CounselorID: uuid.New(),
		ScheduledAt: at,
	}
	if err := svc.ScheduleSession(context.Background(), s); err != nil {
		t.Fatalf("ScheduleSession: %v", err)
	}
	return s
}

func TestScheduleSession_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())
	s := scheduleTestSession(t, svc, time.Now().Add(24*time.Hour))

	if s.Status != StatusScheduled {
		t.Errorf("expected status scheduled, got %s", s.Status)
	}
	if s.DurationMinutes != 50 {
		t.Errorf("expected default duration 50, got %d", s.DurationMinutes)
	}
	if s.SessionType != "individual" {
		t.Errorf("expected default type individual, got %s", s.SessionType)
	}
}

func TestScheduleSession_Conflict(t *testing.T) {
	svc := NewService(newMockRepo())
	at := time.Now().Add(24 * time.Hour)
	first := scheduleTestSession(t, svc, at)

	// Same counselor, overlapping slot
	overlapping := &Session{
		ClientID:    uuid.New(),
		CounselorID: first.CounselorID,
		ScheduledAt: at.Add(20 * time.Minute),
	}
	err := svc.ScheduleSession(context.Background(), overlapping)
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Errorf("expected ErrSchedulingConflict, got %v", err)
	}

	// Same counselor, non-overlapping slot is fine
	later := &Session{
		ClientID:    uuid.New(),
		CounselorID: first.CounselorID,
		ScheduledAt: at.Add(2 * time.Hour),
	}
	if err := svc.ScheduleSession(context.Background(), later); err != nil {
		t.Errorf("expected no conflict for disjoint slot, got %v", err)
	}
}

func TestCompleteSession(t *testing.T) {
	svc := NewService(newMockRepo())
	s := scheduleTestSession(t, svc, time.Now())

	mood := 7
	completed, err := svc.CompleteSession(context.Background(), s.ID, &mood, "good progress")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if completed.MoodRating == nil || *completed.MoodRating != 7 {
		t.Errorf("expected mood rating 7, got %v", completed.MoodRating)
	}

	// Completed is terminal
	if _, err := svc.CancelSession(context.Background(), s.ID, false); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition cancelling a completed session, got %v", err)
	}
}

func TestCompleteSession_MoodRatingBounds(t *testing.T) {
	svc := NewService(newMockRepo())
	s := scheduleTestSession(t, svc, time.Now())

	for _, bad := range []int{0, 11, -3} {
		rating := bad
		if _, err := svc.CompleteSession(context.Background(), s.ID, &rating, ""); !errors.Is(err, ErrInvalidMoodRating) {
			t.Errorf("expected ErrInvalidMoodRating for %d, got %v", bad, err)
		}
	}

	// Nil rating is allowed
	if _, err := svc.CompleteSession(context.Background(), s.ID, nil, ""); err != nil {
		t.Errorf("expected nil mood rating to be accepted, got %v", err)
	}
}

func TestCancelSession_NoShow(t *testing.T) {
	svc := NewService(newMockRepo())
	s := scheduleTestSession(t, svc, time.Now())

	cancelled, err := svc.CancelSession(context.Background(), s.ID, true)
	if err != nil {
		t.Fatalf("CancelSession: %v", err)
	}
	if cancelled.Status != StatusNoShow {
		t.Errorf("expected no_show, got %s", cancelled.Status)
	}
}

func TestRescheduleSession_OnlyScheduled(t *testing.T) {
	svc := NewService(newMockRepo())
	s := scheduleTestSession(t, svc, time.Now())

	if _, err := svc.CancelSession(context.Background(), s.ID, false); err != nil {
		t.Fatalf("CancelSession: %v", err)
	}
	if _, err := svc.RescheduleSession(context.Background(), s.ID, time.Now().Add(48*time.Hour)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition rescheduling a cancelled session, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusNoShow, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusNoShow, StatusScheduled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStartSession(t *testing.T) {
	svc := NewService(newMockRepo())
	s := scheduleTestSession(t, svc, time.Now())

	started, err := svc.StartSession(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if started.Status != StatusInProgress {
		t.Errorf("expected in_progress, got %s", started.Status)
	}

	// No-show is not reachable from in_progress
	if _, err := svc.CancelSession(context.Background(), s.ID, true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for in_progress -> no_show, got %v", err)
	}

	// Completing an in-progress session works
	if _, err := svc.CompleteSession(context.Background(), s.ID, nil, ""); err != nil {
		t.Errorf("CompleteSession from in_progress: %v", err)
	}
}
