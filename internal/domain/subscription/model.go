package subscription

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidPlan          = errors.New("invalid subscription plan")
	ErrNotSubscribed        = errors.New("no provider subscription on record")
)

// Plans.
const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanPractice     = "practice"
)

// ValidPlans lists the plans a practice can subscribe to.
var ValidPlans = map[string]bool{
	PlanStarter:      true,
	PlanProfessional: true,
	PlanPractice:     true,
}

// Subscription statuses. Provider statuses map onto these on sync.
const (
	StatusIncomplete = "incomplete"
	StatusActive     = "active"
	StatusPastDue    = "past_due"
	StatusCancelled  = "cancelled"
)

// Subscription is a counselor's billing plan. The provider holds the
// authoritative state; this record is the locally stored view refreshed on
// read.
type Subscription struct {
	ID          uuid.UUID `json:"id"`
	CounselorID uuid.UUID `json:"counselor_id"`

	Plan   string `json:"plan"`
	Status string `json:"status"`

	StripeCustomerID     string `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`

	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
