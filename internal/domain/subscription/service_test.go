package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/platform/payments"
)

type mockRepo struct {
	items map[uuid.UUID]*Subscription
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: map[uuid.UUID]*Subscription{}}
}

func (m *mockRepo) Create(_ context.Context, s *Subscription) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	m.items[s.CounselorID] = s
	return nil
}

func (m *mockRepo) GetByCounselor(_ context.Context, counselorID uuid.UUID) (*Subscription, error) {
	if s, ok := m.items[counselorID]; ok {
		return s, nil
	}
	return nil, ErrSubscriptionNotFound
}

func (m *mockRepo) Update(_ context.Context, s *Subscription) error {
	if _, ok := m.items[s.CounselorID]; !ok {
		return ErrSubscriptionNotFound
	}
	m.items[s.CounselorID] = s
	return nil
}

type mockProcessor struct {
	session   *payments.CheckoutSession
	remote    *payments.Subscription
	remoteErr error
}

func (m *mockProcessor) CreateCheckoutSession(context.Context, payments.CheckoutParams) (*payments.CheckoutSession, error) {
	return m.session, nil
}

func (m *mockProcessor) GetSubscription(context.Context, string) (*payments.Subscription, error) {
	if m.remoteErr != nil {
		return nil, m.remoteErr
	}
	return m.remote, nil
}

func (m *mockProcessor) CancelSubscription(context.Context, string) (*payments.Subscription, error) {
	if m.remoteErr != nil {
		return nil, m.remoteErr
	}
	out := *m.remote
	out.CancelAtPeriodEnd = true
	return &out, nil
}

func (m *mockProcessor) CreateInvoicePaymentLink(context.Context, payments.InvoiceLinkParams) (*payments.PaymentLink, error) {
	return nil, errors.New("not used")
}

func newTestSubscription(proc *mockProcessor) (*Service, *mockRepo) {
	repo := newMockRepo()
	prices := PlanPrices{
		PlanStarter:      "price_starter",
		PlanProfessional: "price_pro",
		PlanPractice:     "price_practice",
	}
	return NewService(repo, proc, prices, "tenant_default", zerolog.Nop()), repo
}

func TestStartCheckout(t *testing.T) {
	proc := &mockProcessor{session: &payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"}}
	svc, repo := newTestSubscription(proc)
	counselorID := uuid.New()

	sess, err := svc.StartCheckout(context.Background(), counselorID, "c@example.com", PlanProfessional, "https://app/ok", "https://app/no")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if sess.URL != "https://checkout.example/cs_1" {
		t.Errorf("url = %q", sess.URL)
	}

	stored, err := repo.GetByCounselor(context.Background(), counselorID)
	if err != nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if stored.Plan != PlanProfessional || stored.Status != StatusIncomplete {
		t.Errorf("unexpected stored subscription: %+v", stored)
	}
}

func TestStartCheckout_InvalidPlan(t *testing.T) {
	svc, _ := newTestSubscription(&mockProcessor{})
	_, err := svc.StartCheckout(context.Background(), uuid.New(), "c@example.com", "enterprise", "", "")
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestGetStatus_RefreshesFromProvider(t *testing.T) {
	periodEnd := time.Now().UTC().AddDate(0, 1, 0).Truncate(time.Second)
	proc := &mockProcessor{remote: &payments.Subscription{
		ID: "sub_1", Status: "past_due", CurrentPeriodEnd: periodEnd,
	}}
	svc, repo := newTestSubscription(proc)
	counselorID := uuid.New()

	seed := &Subscription{CounselorID: counselorID, Plan: PlanStarter, Status: StatusActive, StripeSubscriptionID: "sub_1"}
	if err := repo.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sub, err := svc.GetStatus(context.Background(), counselorID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if sub.Status != StatusPastDue {
		t.Errorf("status = %q, want past_due", sub.Status)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(periodEnd) {
		t.Errorf("period end = %v", sub.CurrentPeriodEnd)
	}
}

func TestGetStatus_ProviderFailureServesStoredState(t *testing.T) {
	proc := &mockProcessor{remoteErr: &payments.ProviderError{Op: "get subscription", Err: errors.New("timeout")}}
	svc, repo := newTestSubscription(proc)
	counselorID := uuid.New()

	seed := &Subscription{CounselorID: counselorID, Plan: PlanStarter, Status: StatusActive, StripeSubscriptionID: "sub_1"}
	if err := repo.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sub, err := svc.GetStatus(context.Background(), counselorID)
	if err != nil {
		t.Fatalf("stored state must be served on provider failure: %v", err)
	}
	if sub.Status != StatusActive {
		t.Errorf("status = %q, want stored active", sub.Status)
	}
}

func TestCancel(t *testing.T) {
	periodEnd := time.Now().UTC().AddDate(0, 1, 0)
	proc := &mockProcessor{remote: &payments.Subscription{ID: "sub_1", Status: "active", CurrentPeriodEnd: periodEnd}}
	svc, repo := newTestSubscription(proc)
	counselorID := uuid.New()

	seed := &Subscription{CounselorID: counselorID, Plan: PlanPractice, Status: StatusActive, StripeSubscriptionID: "sub_1"}
	if err := repo.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sub, err := svc.Cancel(context.Background(), counselorID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !sub.CancelAtPeriodEnd {
		t.Error("expected cancel_at_period_end set")
	}
	if sub.Status != StatusActive {
		t.Errorf("status = %q, access keeps running until period end", sub.Status)
	}
}

func TestCancel_NotSubscribed(t *testing.T) {
	svc, repo := newTestSubscription(&mockProcessor{})
	counselorID := uuid.New()
	seed := &Subscription{CounselorID: counselorID, Plan: PlanStarter, Status: StatusIncomplete}
	if err := repo.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), counselorID); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("expected ErrNotSubscribed, got %v", err)
	}
}
