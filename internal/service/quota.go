package service

import (
	"context"
	"fmt"
	"time"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/repository"
	"go.uber.org/zap"
)

// QuotaStore is the monthly-counter persistence surface.
type QuotaStore interface {
	FindPeriod(ctx context.Context, accountID string, year, month int) (*domain.UploadQuota, error)
	Insert(ctx context.Context, accountID string, year, month int) (*domain.UploadQuota, error)
	Increment(ctx context.Context, id string) (int, error)
}

// QuotaService enforces the free-tier monthly upload cap. Periods are
// anchored to UTC calendar months and never inherit a prior balance.
type QuotaService struct {
	store  QuotaStore
	logger *zap.Logger
	now    func() time.Time
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(store QuotaStore, logger *zap.Logger) *QuotaService {
	return &QuotaService{store: store, logger: logger, now: time.Now}
}

// Check returns the quota status for an account. Members are unlimited,
// guests cannot upload at all, and free accounts get the monthly counter.
// If the counter cannot be fetched or created, the check fails open and
// allows the upload rather than blocking users on a storage fault.
func (s *QuotaService) Check(ctx context.Context, accountID string, tier domain.Tier) *domain.QuotaStatus {
	now := s.now()
	reset := domain.QuotaResetDate(now)

	switch tier {
	case domain.TierMember:
		return &domain.QuotaStatus{
			Unlimited: true,
			CanUpload: true,
			ResetDate: reset,
		}
	case domain.TierGuest:
		return &domain.QuotaStatus{
			Remaining: 0,
			Used:      0,
			Limit:     0,
			CanUpload: false,
			ResetDate: reset,
		}
	}

	quota, err := s.getOrCreate(ctx, accountID, now)
	if err != nil {
		s.logger.Warn("could not retrieve quota, allowing upload by default",
			zap.String("account_id", accountID), zap.Error(err))
		return &domain.QuotaStatus{
			Remaining: domain.FreeMonthlyUploadLimit,
			Used:      0,
			Limit:     domain.FreeMonthlyUploadLimit,
			CanUpload: true,
			ResetDate: reset,
		}
	}

	used := quota.UploadCount
	remaining := domain.FreeMonthlyUploadLimit - used
	if remaining < 0 {
		remaining = 0
	}

	return &domain.QuotaStatus{
		Remaining: remaining,
		Used:      used,
		Limit:     domain.FreeMonthlyUploadLimit,
		CanUpload: remaining > 0,
		ResetDate: reset,
	}
}

// Increment charges one upload against the current month's counter and
// returns the new count. The counter is created lazily; the increment
// itself is a single-row update.
func (s *QuotaService) Increment(ctx context.Context, accountID string) (int, error) {
	quota, err := s.getOrCreate(ctx, accountID, s.now())
	if err != nil {
		return 0, domain.ErrUnavailable("failed to get quota record", err)
	}

	count, err := s.store.Increment(ctx, quota.ID)
	if err != nil {
		return 0, domain.ErrUnavailable("failed to increment quota", err)
	}

	s.logger.Info("quota incremented",
		zap.String("account_id", accountID),
		zap.Int("count", count),
		zap.Int("limit", domain.FreeMonthlyUploadLimit))
	return count, nil
}

// getOrCreate fetches the current month's counter, creating it at zero on
// first use. A duplicate-key conflict means a concurrent request created it
// first, so re-fetch that one.
func (s *QuotaService) getOrCreate(ctx context.Context, accountID string, now time.Time) (*domain.UploadQuota, error) {
	year, month := domain.QuotaPeriod(now)

	quota, err := s.store.FindPeriod(ctx, accountID, year, month)
	if err != nil {
		return nil, err
	}
	if quota != nil {
		return quota, nil
	}

	quota, err = s.store.Insert(ctx, accountID, year, month)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost the creation race; the winner's record is the counter.
			quota, err = s.store.FindPeriod(ctx, accountID, year, month)
			if err != nil {
				return nil, err
			}
			if quota == nil {
				return nil, fmt.Errorf("quota record vanished after conflict for account %s", accountID)
			}
			return quota, nil
		}
		return nil, err
	}
	return quota, nil
}
