package service

import (
	"context"
	"time"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/pkg/billing"
	"go.uber.org/zap"
)

// SubscriptionStore is the subscription-mirror persistence surface.
type SubscriptionStore interface {
	Upsert(ctx context.Context, s *domain.Subscription) (*domain.Subscription, error)
	FindByAccount(ctx context.Context, accountID string) (*domain.Subscription, error)
	FindByCustomerID(ctx context.Context, customerID string) (*domain.Subscription, error)
	UpdateStatus(ctx context.Context, subscriptionID, status string, cancelAtPeriodEnd bool, periodEnd *time.Time) error
	UpdatePlan(ctx context.Context, subscriptionID, planType string) error
	InsertHistory(ctx context.Context, h *domain.SubscriptionHistory) error
}

// TierStore is the slice of account persistence the reconciler mutates.
type TierStore interface {
	UpdateTier(ctx context.Context, id string, tier domain.Tier) error
}

// UnitOfWork runs fn with transaction-scoped stores: either every write in
// fn commits or none does. Each webhook event is applied through exactly
// one unit of work so the subscription row, the account tier, and the
// history entry land atomically.
type UnitOfWork func(ctx context.Context, fn func(subs SubscriptionStore, tiers TierStore) error) error

// Reconciler consumes billing events from the payment processor and makes
// local subscription and tier state match the processor's. Every handler is
// safe to apply more than once: the processor delivers at least once.
type Reconciler struct {
	uow      UnitOfWork
	subs     SubscriptionStore
	provider billing.Provider
	logger   *zap.Logger
}

// NewReconciler creates a new Reconciler. subs is a non-transactional store
// used for read-only resolution before a unit of work starts.
func NewReconciler(uow UnitOfWork, subs SubscriptionStore, provider billing.Provider, logger *zap.Logger) *Reconciler {
	return &Reconciler{uow: uow, subs: subs, provider: provider, logger: logger}
}

// HandleCheckoutCompleted applies a completed checkout: upsert the local
// subscription keyed by account (a second checkout overwrites, never
// duplicates), promote the account to member, and append a created history
// entry. Missing metadata marks the event malformed or foreign; it is
// dropped with a log, not retried, since redelivery would reproduce it.
func (r *Reconciler) HandleCheckoutCompleted(ctx context.Context, accountID, subscriptionID string) error {
	if accountID == "" || subscriptionID == "" {
		r.logger.Error("checkout event missing accountId or subscription id, dropping",
			zap.String("account_id", accountID),
			zap.String("subscription_id", subscriptionID))
		return nil
	}

	// Fetch full detail from the processor: webhook payloads can be stale
	// or partial.
	detail, err := r.provider.GetSubscription(subscriptionID)
	if err != nil {
		return domain.ErrUnavailable("failed to retrieve subscription from processor", err)
	}
	planType := r.provider.PlanFromPrice(detail.PriceID)

	err = r.uow(ctx, func(subs SubscriptionStore, tiers TierStore) error {
		stored, err := subs.Upsert(ctx, &domain.Subscription{
			AccountID:          accountID,
			CustomerID:         detail.CustomerID,
			SubscriptionID:     detail.ID,
			PlanType:           planType,
			Status:             domain.SubscriptionActive,
			CurrentPeriodStart: detail.PeriodStart,
			CurrentPeriodEnd:   detail.PeriodEnd,
		})
		if err != nil {
			return err
		}

		if err := tiers.UpdateTier(ctx, accountID, domain.TierMember); err != nil {
			return err
		}

		return subs.InsertHistory(ctx, &domain.SubscriptionHistory{
			AccountID:      accountID,
			SubscriptionID: stored.ID,
			EventType:      domain.HistoryCreated,
			NewStatus:      domain.SubscriptionActive,
			NewPlan:        planType,
		})
	})
	if err != nil {
		return domain.ErrUnavailable("failed to apply checkout completion", err)
	}

	r.logger.Info("subscription created",
		zap.String("account_id", accountID),
		zap.String("plan", planType))
	return nil
}

// HandleSubscriptionUpdated mirrors a processor-side subscription change.
// cancel-at-period-end forces the local status to cancelled even while the
// processor still reports active: the account keeps member privileges until
// period end but is flagged as cancelling.
func (r *Reconciler) HandleSubscriptionUpdated(ctx context.Context, detail *billing.SubscriptionDetail) error {
	current, err := r.subs.FindByCustomerID(ctx, detail.CustomerID)
	if err != nil {
		return domain.ErrUnavailable("failed to resolve subscription", err)
	}
	if current == nil {
		r.logger.Error("no account for processor customer, dropping event",
			zap.String("customer_id", detail.CustomerID))
		return nil
	}

	status := domain.SubscriptionActive
	switch {
	case detail.Status == "canceled":
		status = domain.SubscriptionCancelled
	case detail.Status != "active":
		status = domain.SubscriptionExpired
	}
	if detail.CancelAtPeriodEnd {
		status = domain.SubscriptionCancelled
	}

	newPlan := r.provider.PlanFromPrice(detail.PriceID)
	periodEnd := detail.PeriodEnd

	err = r.uow(ctx, func(subs SubscriptionStore, tiers TierStore) error {
		if err := subs.UpdateStatus(ctx, detail.ID, status, detail.CancelAtPeriodEnd, &periodEnd); err != nil {
			return err
		}

		if current.PlanType != newPlan {
			if err := subs.UpdatePlan(ctx, detail.ID, newPlan); err != nil {
				return err
			}
			if err := subs.InsertHistory(ctx, &domain.SubscriptionHistory{
				AccountID:      current.AccountID,
				SubscriptionID: current.ID,
				EventType:      domain.HistoryUpdated,
				OldStatus:      current.Status,
				NewStatus:      status,
				OldPlan:        current.PlanType,
				NewPlan:        newPlan,
			}); err != nil {
				return err
			}
		}

		// Genuinely active (not cancelling): make sure the account is a
		// member. Covers plan changes and reactivations.
		if status == domain.SubscriptionActive && !detail.CancelAtPeriodEnd {
			return tiers.UpdateTier(ctx, current.AccountID, domain.TierMember)
		}
		return nil
	})
	if err != nil {
		return domain.ErrUnavailable("failed to apply subscription update", err)
	}

	r.logger.Info("subscription updated",
		zap.String("account_id", current.AccountID),
		zap.String("status", status),
		zap.Bool("cancel_at_period_end", detail.CancelAtPeriodEnd))
	return nil
}

// HandleSubscriptionDeleted expires the local mirror and demotes the
// account to free. Tier never regresses past free.
func (r *Reconciler) HandleSubscriptionDeleted(ctx context.Context, subscriptionID, customerID string) error {
	current, err := r.subs.FindByCustomerID(ctx, customerID)
	if err != nil {
		return domain.ErrUnavailable("failed to resolve subscription", err)
	}
	if current == nil {
		r.logger.Error("no account for processor customer, dropping event",
			zap.String("customer_id", customerID))
		return nil
	}

	err = r.uow(ctx, func(subs SubscriptionStore, tiers TierStore) error {
		if err := subs.UpdateStatus(ctx, subscriptionID, domain.SubscriptionExpired, false, nil); err != nil {
			return err
		}
		if err := tiers.UpdateTier(ctx, current.AccountID, domain.TierFree); err != nil {
			return err
		}
		return subs.InsertHistory(ctx, &domain.SubscriptionHistory{
			AccountID:      current.AccountID,
			SubscriptionID: current.ID,
			EventType:      domain.HistoryExpired,
			OldStatus:      current.Status,
			NewStatus:      domain.SubscriptionExpired,
		})
	})
	if err != nil {
		return domain.ErrUnavailable("failed to apply subscription deletion", err)
	}

	r.logger.Info("subscription deleted, account reverted to free",
		zap.String("account_id", current.AccountID))
	return nil
}

// HandlePaymentFailed resolves the account for logging only. The processor
// retries on its own schedule; if retries exhaust, a deleted event follows
// and that is what demotes the account.
func (r *Reconciler) HandlePaymentFailed(ctx context.Context, customerID, subscriptionID string) error {
	if subscriptionID == "" {
		return nil
	}
	current, err := r.subs.FindByCustomerID(ctx, customerID)
	if err != nil {
		return domain.ErrUnavailable("failed to resolve subscription", err)
	}
	if current == nil {
		r.logger.Error("no account for processor customer, dropping event",
			zap.String("customer_id", customerID))
		return nil
	}

	r.logger.Error("invoice payment failed",
		zap.String("account_id", current.AccountID),
		zap.String("subscription_id", subscriptionID))
	return nil
}
