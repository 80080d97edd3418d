package service

import (
	"context"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/pkg/billing"
	"go.uber.org/zap"
)

// SubscriptionService handles the user-facing billing surface: checkout,
// billing portal, and the subscription read model. All state changes flow
// through the Reconciler; this service only starts processor sessions.
type SubscriptionService struct {
	subs     SubscriptionStore
	provider billing.Provider
	logger   *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(subs SubscriptionStore, provider billing.Provider, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{subs: subs, provider: provider, logger: logger}
}

// CreateCheckout starts a processor checkout session for the account. The
// processor customer is created on first checkout and reused afterwards.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, account *domain.Account, planType string) (*domain.CheckoutResponse, error) {
	customerID, err := s.ensureCustomer(ctx, account)
	if err != nil {
		return nil, err
	}

	priceID := s.provider.PriceForPlan(planType)

	plan := domain.PlanPremiumMonthly
	if planType == "yearly" {
		plan = domain.PlanPremiumYearly
	}

	url, err := s.provider.CreateCheckoutSession(customerID, priceID, account.ID, plan)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to create checkout session", err)
	}
	return &domain.CheckoutResponse{URL: url}, nil
}

// CreatePortal opens the processor-hosted billing portal. Accounts without
// a processor customer have nothing to manage.
func (s *SubscriptionService) CreatePortal(ctx context.Context, accountID string) (string, error) {
	sub, err := s.subs.FindByAccount(ctx, accountID)
	if err != nil {
		return "", domain.ErrUnavailable("failed to look up subscription", err)
	}
	if sub == nil || sub.CustomerID == "" {
		return "", domain.ErrNotFound("no subscription on file")
	}

	url, err := s.provider.CreatePortalSession(sub.CustomerID)
	if err != nil {
		return "", domain.ErrUnavailable("failed to create portal session", err)
	}
	return url, nil
}

// GetSubscription returns the local mirror for an account, or nil if the
// account never subscribed.
func (s *SubscriptionService) GetSubscription(ctx context.Context, accountID string) (*domain.Subscription, error) {
	sub, err := s.subs.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to look up subscription", err)
	}
	return sub, nil
}

func (s *SubscriptionService) ensureCustomer(ctx context.Context, account *domain.Account) (string, error) {
	sub, err := s.subs.FindByAccount(ctx, account.ID)
	if err != nil {
		return "", domain.ErrUnavailable("failed to look up subscription", err)
	}
	if sub != nil && sub.CustomerID != "" {
		return sub.CustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(account.Email, account.Name, account.ID)
	if err != nil {
		return "", domain.ErrUnavailable("failed to create processor customer", err)
	}

	s.logger.Info("processor customer created",
		zap.String("account_id", account.ID))
	return customerID, nil
}
