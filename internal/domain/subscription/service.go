package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/platform/payments"
)

// PlanPrices maps a plan to the provider price identifier. Populated from
// configuration at startup.
type PlanPrices map[string]string

// Service manages practice subscriptions through the payment provider.
type Service struct {
	repo      Repository
	processor payments.Processor
	prices    PlanPrices
	tenantID  string
	logger    zerolog.Logger
}

func NewService(repo Repository, processor payments.Processor, prices PlanPrices, tenantID string, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		processor: processor,
		prices:    prices,
		tenantID:  tenantID,
		logger:    logger,
	}
}

// StartCheckout creates a hosted checkout session for the plan and records
// the pending subscription. The caller redirects to the returned URL.
func (s *Service) StartCheckout(ctx context.Context, counselorID uuid.UUID, email, plan, successURL, cancelURL string) (*payments.CheckoutSession, error) {
	if !ValidPlans[plan] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, plan)
	}
	priceID, ok := s.prices[plan]
	if !ok {
		return nil, fmt.Errorf("no price configured for plan %s", plan)
	}

	sess, err := s.processor.CreateCheckoutSession(ctx, payments.CheckoutParams{
		CustomerEmail: email,
		PriceID:       priceID,
		TenantID:      s.tenantID,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.GetByCounselor(ctx, counselorID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		err = s.repo.Create(ctx, &Subscription{
			CounselorID: counselorID,
			Plan:        plan,
			Status:      StatusIncomplete,
		})
	case err == nil:
		sub.Plan = plan
		sub.Status = StatusIncomplete
		err = s.repo.Update(ctx, sub)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// AttachProviderSubscription records the provider identifiers once checkout
// completes (called from the success callback).
func (s *Service) AttachProviderSubscription(ctx context.Context, counselorID uuid.UUID, customerID, subscriptionID string) (*Subscription, error) {
	sub, err := s.repo.GetByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	sub.StripeCustomerID = customerID
	sub.StripeSubscriptionID = subscriptionID
	sub.Status = StatusActive
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetStatus returns the stored subscription, refreshed from the provider
// when one is attached. A failed refresh returns the stored state.
func (s *Service) GetStatus(ctx context.Context, counselorID uuid.UUID) (*Subscription, error) {
	sub, err := s.repo.GetByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	if sub.StripeSubscriptionID == "" {
		return sub, nil
	}

	remote, err := s.processor.GetSubscription(ctx, sub.StripeSubscriptionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("counselor_id", counselorID.String()).Msg("subscription refresh failed, serving stored state")
		return sub, nil
	}

	sub.Status = mapProviderStatus(remote.Status)
	sub.CurrentPeriodEnd = &remote.CurrentPeriodEnd
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	if err := s.repo.Update(ctx, sub); err != nil {
		s.logger.Warn().Err(err).Msg("subscription state store failed")
	}
	return sub, nil
}

// Cancel sets the provider subscription to end at period close.
func (s *Service) Cancel(ctx context.Context, counselorID uuid.UUID) (*Subscription, error) {
	sub, err := s.repo.GetByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	if sub.StripeSubscriptionID == "" {
		return nil, ErrNotSubscribed
	}

	remote, err := s.processor.CancelSubscription(ctx, sub.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}

	sub.Status = mapProviderStatus(remote.Status)
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	sub.CurrentPeriodEnd = &remote.CurrentPeriodEnd
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func mapProviderStatus(status string) string {
	switch status {
	case "active", "trialing":
		return StatusActive
	case "past_due", "unpaid":
		return StatusPastDue
	case "canceled", "incomplete_expired":
		return StatusCancelled
	default:
		return StatusIncomplete
	}
}
