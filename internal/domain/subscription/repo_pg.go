package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/counsel/counsel/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const subscriptionCols = `id, counselor_id, plan, status, stripe_customer_id, stripe_subscription_id,
	current_period_end, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.CounselorID, &s.Plan, &s.Status, &s.StripeCustomerID,
		&s.StripeSubscriptionID, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
		&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Subscription) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO subscription (id, counselor_id, plan, status, stripe_customer_id,
			stripe_subscription_id, current_period_end, cancel_at_period_end)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.CounselorID, s.Plan, s.Status, s.StripeCustomerID,
		s.StripeSubscriptionID, s.CurrentPeriodEnd, s.CancelAtPeriodEnd)
	return err
}

func (r *repoPG) GetByCounselor(ctx context.Context, counselorID uuid.UUID) (*Subscription, error) {
	return scanSubscription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscription WHERE counselor_id = $1`, counselorID))
}

func (r *repoPG) Update(ctx context.Context, s *Subscription) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE subscription SET plan=$2, status=$3, stripe_customer_id=$4,
			stripe_subscription_id=$5, current_period_end=$6, cancel_at_period_end=$7,
			updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Plan, s.Status, s.StripeCustomerID, s.StripeSubscriptionID,
		s.CurrentPeriodEnd, s.CancelAtPeriodEnd)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
