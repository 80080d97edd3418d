package service

import (
	"context"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/repository"
	"go.uber.org/zap"
)

// OnboardingStore is the ledger persistence surface.
type OnboardingStore interface {
	ListByAccount(ctx context.Context, accountID string) ([]domain.OnboardingStep, error)
	InsertStep(ctx context.Context, accountID string, step domain.OnboardingStep) error
	InsertSteps(ctx context.Context, accountID string, steps []domain.OnboardingStep) error
	CompleteStep(ctx context.Context, accountID, stepName string) (bool, error)
	HasSteps(ctx context.Context, accountID string) (bool, error)
}

// OnboardingService tracks which milestones an account has completed and
// computes the current-step pointer the UI renders from.
type OnboardingService struct {
	store  OnboardingStore
	logger *zap.Logger
}

// NewOnboardingService creates a new OnboardingService.
func NewOnboardingService(store OnboardingStore, logger *zap.Logger) *OnboardingService {
	return &OnboardingService{store: store, logger: logger}
}

// GetProgress returns the account's steps ordered by step number.
func (s *OnboardingService) GetProgress(ctx context.Context, accountID string) ([]domain.OnboardingStep, error) {
	steps, err := s.store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to fetch onboarding progress", err)
	}
	return steps, nil
}

// InitializeProgress seeds the baseline step set for a new account with
// sign-up pre-completed. Idempotent: if any steps already exist it is a
// no-op, and a duplicate-key conflict from a concurrent initializer counts
// as success.
func (s *OnboardingService) InitializeProgress(ctx context.Context, accountID string) error {
	exists, err := s.store.HasSteps(ctx, accountID)
	if err != nil {
		return domain.ErrUnavailable("failed to check onboarding progress", err)
	}
	if exists {
		return nil
	}

	if err := s.store.InsertSteps(ctx, accountID, domain.BaselineSteps()); err != nil {
		if repository.IsUniqueViolation(err) {
			// Another request initialized the ledger first.
			return nil
		}
		return domain.ErrUnavailable("failed to initialize onboarding progress", err)
	}

	s.logger.Info("onboarding progress initialized", zap.String("account_id", accountID))
	return nil
}

// CompleteStep marks the named step completed. Completing an
// already-completed step is a harmless no-op; completing a step that does
// not exist in the ledger is NotFound.
func (s *OnboardingService) CompleteStep(ctx context.Context, accountID, stepName string) error {
	found, err := s.store.CompleteStep(ctx, accountID, stepName)
	if err != nil {
		return domain.ErrUnavailable("failed to complete step", err)
	}
	if !found {
		return domain.ErrNotFound("onboarding step not found")
	}
	return nil
}

// CurrentStep returns the step number of the first incomplete step, or the
// sentinel (count + 1) once everything is completed.
func (s *OnboardingService) CurrentStep(ctx context.Context, accountID string) (int, error) {
	steps, err := s.store.ListByAccount(ctx, accountID)
	if err != nil {
		return 0, domain.ErrUnavailable("failed to fetch onboarding progress", err)
	}
	return domain.CurrentStep(steps), nil
}

// AppendDashboardTour adds the dashboard-tour step, invoked exactly once at
// the guest→free transition. A duplicate-key conflict means the step is
// already there and counts as success.
func (s *OnboardingService) AppendDashboardTour(ctx context.Context, accountID string) error {
	step := domain.OnboardingStep{
		StepNumber: domain.StepNumberDashboardTour,
		StepName:   domain.StepDashboardTour,
	}
	if err := s.store.InsertStep(ctx, accountID, step); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil
		}
		return domain.ErrUnavailable("failed to append dashboard tour step", err)
	}
	return nil
}
