package payments

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProcessor implements Processor against the Stripe API.
type StripeProcessor struct {
	api    *client.API
	logger zerolog.Logger
}

// NewStripeProcessor constructs a Stripe-backed payment processor.
func NewStripeProcessor(apiKey string, logger zerolog.Logger) *StripeProcessor {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProcessor{api: api, logger: logger}
}

// CreateCheckoutSession creates a hosted checkout session in subscription
// mode for the given price.
func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessParams := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(params.CustomerEmail),
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	sessParams.Context = ctx
	sessParams.AddMetadata("tenant_id", params.TenantID)

	sess, err := p.api.CheckoutSessions.New(sessParams)
	if err != nil {
		p.logger.Error().Err(err).Str("price_id", params.PriceID).Msg("checkout session creation failed")
		return nil, &ProviderError{Op: "create checkout session", Err: err}
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetSubscription fetches the current provider-side subscription state.
func (p *StripeProcessor) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, &ProviderError{Op: "get subscription", Err: err}
	}
	return fromStripeSubscription(sub), nil
}

// CancelSubscription cancels at period end so the practice keeps access
// through the time it has already paid for.
func (p *StripeProcessor) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, &ProviderError{Op: "cancel subscription", Err: err}
	}

	p.logger.Info().Str("subscription_id", subscriptionID).Msg("subscription set to cancel at period end")
	return fromStripeSubscription(sub), nil
}

// CreateInvoicePaymentLink creates an ad-hoc price for the invoice amount
// and wraps it in a hosted payment link.
func (p *StripeProcessor) CreateInvoicePaymentLink(ctx context.Context, params InvoiceLinkParams) (*PaymentLink, error) {
	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(params.Currency),
		UnitAmount: stripe.Int64(params.AmountCents),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(params.Description),
		},
	}
	priceParams.Context = ctx

	price, err := p.api.Prices.New(priceParams)
	if err != nil {
		return nil, &ProviderError{Op: "create invoice price", Err: err}
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(price.ID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	linkParams.Context = ctx
	linkParams.AddMetadata("invoice_number", params.InvoiceNumber)
	linkParams.AddMetadata("tenant_id", params.TenantID)

	link, err := p.api.PaymentLinks.New(linkParams)
	if err != nil {
		p.logger.Error().Err(err).Str("invoice_number", params.InvoiceNumber).Msg("payment link creation failed")
		return nil, &ProviderError{Op: "create payment link", Err: err}
	}

	return &PaymentLink{ID: link.ID, URL: link.URL}, nil
}

func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}
