// Package payments abstracts the subscription billing provider. The
// subscription service talks to the Processor interface; the Stripe
// implementation lives in stripe.go and tests substitute a mock.
package payments

import (
	"context"
	"fmt"
	"time"
)

// CheckoutParams describes a hosted checkout session to create.
type CheckoutParams struct {
	CustomerEmail string
	PriceID       string
	TenantID      string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider-hosted payment page the caller is
// redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// Subscription is the provider-side view of a practice subscription.
type Subscription struct {
	ID                string
	Status            string
	CurrentPeriodEnd  time.Time
	PriceID           string
	CancelAtPeriodEnd bool
}

// InvoiceLinkParams describes a one-off payment link for an invoice.
type InvoiceLinkParams struct {
	InvoiceNumber string
	Description   string
	AmountCents   int64
	Currency      string
	TenantID      string
}

// PaymentLink is a provider-hosted page where a client can pay an invoice.
type PaymentLink struct {
	ID  string
	URL string
}

// Processor is the payment provider interface.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreateInvoicePaymentLink(ctx context.Context, params InvoiceLinkParams) (*PaymentLink, error)
}

// ProviderError wraps a payment provider failure so that handlers can map
// it to a 502 response distinct from local validation errors.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
