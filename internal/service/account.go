package service

import (
	"context"
	"fmt"
	"time"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/repository"
	"go.uber.org/zap"
)

// AccountStore is the account persistence surface.
type AccountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	FindByAuthID(ctx context.Context, authUserID string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	UpdateTier(ctx context.Context, id string, tier domain.Tier) error
	UpdateBasicInfo(ctx context.Context, a *domain.Account) error
}

// AccountService owns account creation and tier transitions. Accounts are
// seeded from the auth provider's user-created event, but creation is
// idempotent so a client request racing ahead of the webhook also works.
type AccountService struct {
	store      AccountStore
	onboarding *OnboardingService
	logger     *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(store AccountStore, onboarding *OnboardingService, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, onboarding: onboarding, logger: logger}
}

// GetOrCreate returns the account for an external auth id, creating it (as
// guest, with the baseline onboarding ledger) if absent. Concurrent callers
// converge on the same row: the insert's unique constraint detects the race
// and the loser re-reads.
func (s *AccountService) GetOrCreate(ctx context.Context, authUserID, email, name string) (*domain.Account, error) {
	account, err := s.store.FindByAuthID(ctx, authUserID)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to look up account", err)
	}

	if account == nil {
		now := time.Now()
		account = &domain.Account{
			ID:         domain.NewAccountID(),
			AuthUserID: authUserID,
			Email:      email,
			Name:       name,
			Tier:       domain.TierGuest,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.Create(ctx, account); err != nil {
			if !repository.IsUniqueViolation(err) {
				return nil, domain.ErrUnavailable("failed to create account", err)
			}
			account, err = s.store.FindByAuthID(ctx, authUserID)
			if err != nil {
				return nil, domain.ErrUnavailable("failed to re-read account", err)
			}
			if account == nil {
				return nil, domain.ErrInternal("account vanished after conflict",
					fmt.Errorf("auth user %s", authUserID))
			}
		} else {
			s.logger.Info("account created",
				zap.String("account_id", account.ID),
				zap.String("auth_user_id", authUserID))
		}
	}

	if err := s.onboarding.InitializeProgress(ctx, account.ID); err != nil {
		return nil, err
	}
	return account, nil
}

// GetByAuthID resolves the account for an authenticated request.
func (s *AccountService) GetByAuthID(ctx context.Context, authUserID string) (*domain.Account, error) {
	account, err := s.store.FindByAuthID(ctx, authUserID)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to look up account", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound("account not found")
	}
	return account, nil
}

// PromoteTier applies a user-initiated tier transition. Tiers only advance
// guest→free→member; the guest→free transition appends the dashboard-tour
// onboarding step exactly once.
func (s *AccountService) PromoteTier(ctx context.Context, authUserID string, target domain.Tier) (*domain.Account, error) {
	account, err := s.GetByAuthID(ctx, authUserID)
	if err != nil {
		return nil, err
	}

	if account.Tier == domain.TierMember {
		return nil, domain.ErrBadRequest("member is the highest tier")
	}
	if !account.Tier.CanPromoteTo(target) {
		return nil, domain.ErrBadRequest(
			fmt.Sprintf("%s accounts cannot transition to %s", account.Tier, target))
	}

	if err := s.store.UpdateTier(ctx, account.ID, target); err != nil {
		return nil, domain.ErrUnavailable("failed to update tier", err)
	}

	if account.Tier == domain.TierGuest && target == domain.TierFree {
		// Non-fatal: the account is usable without the tour step.
		if err := s.onboarding.AppendDashboardTour(ctx, account.ID); err != nil {
			s.logger.Warn("failed to append dashboard tour step",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	s.logger.Info("tier updated",
		zap.String("account_id", account.ID),
		zap.String("from", string(account.Tier)),
		zap.String("to", string(target)))

	account.Tier = target
	return account, nil
}

// UpdateBasicInfo applies a profile edit, recomputes the completion
// percentage, and completes the basic-information onboarding step.
func (s *AccountService) UpdateBasicInfo(ctx context.Context, authUserID string, req *domain.UpdateBasicInfoRequest) (*domain.Account, error) {
	account, err := s.GetByAuthID(ctx, authUserID)
	if err != nil {
		return nil, err
	}

	account.Name = req.Name
	account.CurrentRole = req.CurrentRole
	account.TargetPosition = req.TargetPosition
	account.City = req.City
	account.ProfileCompletion = account.CompletionPercent()

	if err := s.store.UpdateBasicInfo(ctx, account); err != nil {
		return nil, domain.ErrUnavailable("failed to update profile", err)
	}

	if err := s.onboarding.CompleteStep(ctx, account.ID, domain.StepBasicInfo); err != nil {
		s.logger.Warn("failed to complete basic-information step",
			zap.String("account_id", account.ID), zap.Error(err))
	}
	return account, nil
}
