package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resumatic/backend/internal/domain"
)

// SubscriptionRepository handles database operations for the local
// subscription mirror and its append-only history.
type SubscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *SubscriptionRepository) WithTx(tx pgx.Tx) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

const subscriptionColumns = `id, account_id, customer_id, subscription_id, plan_type, status,
	current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

// Upsert writes the subscription mirror keyed by account: one row per
// account, a second checkout overwrites rather than duplicating. Returns
// the stored row (existing id preserved on conflict).
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) (*domain.Subscription, error) {
	query := `
		INSERT INTO subscriptions (id, account_id, customer_id, subscription_id, plan_type, status,
			current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (account_id) DO UPDATE SET
			customer_id          = EXCLUDED.customer_id,
			subscription_id      = EXCLUDED.subscription_id,
			plan_type            = EXCLUDED.plan_type,
			status               = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end   = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at           = NOW()
		RETURNING ` + subscriptionColumns
	row := r.db.QueryRow(ctx, query,
		uuid.New().String(), s.AccountID, s.CustomerID, s.SubscriptionID, s.PlanType, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd,
	)
	stored, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return stored, nil
}

// FindByAccount returns the subscription mirror for an account, or nil.
func (r *SubscriptionRepository) FindByAccount(ctx context.Context, accountID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE account_id = $1`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return s, nil
}

// FindByCustomerID resolves the processor customer id to the local mirror.
func (r *SubscriptionRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE customer_id = $1`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, customerID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription by customer: %w", err)
	}
	return s, nil
}

// UpdateStatus sets status and cancel-at-period-end, optionally moving the
// period end, on the row matching the processor subscription id.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, subscriptionID, status string, cancelAtPeriodEnd bool, periodEnd *time.Time) error {
	var err error
	if periodEnd != nil {
		_, err = r.db.Exec(ctx, `
			UPDATE subscriptions
			SET status = $1, cancel_at_period_end = $2, current_period_end = $3, updated_at = NOW()
			WHERE subscription_id = $4
		`, status, cancelAtPeriodEnd, *periodEnd, subscriptionID)
	} else {
		_, err = r.db.Exec(ctx, `
			UPDATE subscriptions
			SET status = $1, cancel_at_period_end = $2, updated_at = NOW()
			WHERE subscription_id = $3
		`, status, cancelAtPeriodEnd, subscriptionID)
	}
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return nil
}

// UpdatePlan sets the plan type on the row matching the processor
// subscription id.
func (r *SubscriptionRepository) UpdatePlan(ctx context.Context, subscriptionID, planType string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET plan_type = $1, updated_at = NOW() WHERE subscription_id = $2
	`, planType, subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to update subscription plan: %w", err)
	}
	return nil
}

// InsertHistory appends one audit entry. History is append-only.
func (r *SubscriptionRepository) InsertHistory(ctx context.Context, h *domain.SubscriptionHistory) error {
	query := `
		INSERT INTO subscription_history (id, account_id, subscription_id, event_type, old_status, new_status, old_plan, new_plan)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
	`
	_, err := r.db.Exec(ctx, query,
		uuid.New().String(), h.AccountID, h.SubscriptionID, h.EventType,
		h.OldStatus, h.NewStatus, h.OldPlan, h.NewPlan,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription history: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID, &s.AccountID, &s.CustomerID, &s.SubscriptionID, &s.PlanType, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
