package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/resumatic/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeQuotaStore struct {
	records   map[string]*domain.UploadQuota
	findErr   error
	insertErr error
	// insertRaces simulates a concurrent creator winning between the find
	// and the insert.
	insertRaces bool
}

func newFakeQuotaStore() *fakeQuotaStore {
	return &fakeQuotaStore{records: make(map[string]*domain.UploadQuota)}
}

func quotaKey(accountID string, year, month int) string {
	return fmt.Sprintf("%s/%d-%d", accountID, year, month)
}

func (f *fakeQuotaStore) FindPeriod(_ context.Context, accountID string, year, month int) (*domain.UploadQuota, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.records[quotaKey(accountID, year, month)], nil
}

func (f *fakeQuotaStore) Insert(_ context.Context, accountID string, year, month int) (*domain.UploadQuota, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	key := quotaKey(accountID, year, month)
	if f.insertRaces {
		f.records[key] = &domain.UploadQuota{ID: key, AccountID: accountID, Year: year, Month: month, UploadCount: 2}
		return nil, errUniqueViolation
	}
	if _, exists := f.records[key]; exists {
		return nil, errUniqueViolation
	}
	q := &domain.UploadQuota{ID: key, AccountID: accountID, Year: year, Month: month}
	f.records[key] = q
	return q, nil
}

func (f *fakeQuotaStore) Increment(_ context.Context, id string) (int, error) {
	for _, q := range f.records {
		if q.ID == id {
			q.UploadCount++
			return q.UploadCount, nil
		}
	}
	return 0, errors.New("no such quota record")
}

func newQuotaServiceAt(store QuotaStore, at time.Time) *QuotaService {
	svc := NewQuotaService(store, zap.NewNop())
	svc.now = func() time.Time { return at }
	return svc
}

func TestQuotaCheckMemberIsUnlimited(t *testing.T) {
	svc := newQuotaServiceAt(newFakeQuotaStore(), time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	status := svc.Check(context.Background(), "acct-1", domain.TierMember)
	assert.True(t, status.Unlimited)
	assert.True(t, status.CanUpload)
}

func TestQuotaCheckGuestCannotUpload(t *testing.T) {
	svc := newQuotaServiceAt(newFakeQuotaStore(), time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	status := svc.Check(context.Background(), "acct-1", domain.TierGuest)
	assert.False(t, status.CanUpload)
	assert.Equal(t, 0, status.Limit)
}

func TestQuotaFreeTierCountsDown(t *testing.T) {
	store := newFakeQuotaStore()
	svc := newQuotaServiceAt(store, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	status := svc.Check(ctx, "acct-1", domain.TierFree)
	assert.Equal(t, domain.FreeMonthlyUploadLimit, status.Remaining)
	assert.True(t, status.CanUpload)

	for i := 0; i < domain.FreeMonthlyUploadLimit; i++ {
		_, err := svc.Increment(ctx, "acct-1")
		require.NoError(t, err)
	}

	status = svc.Check(ctx, "acct-1", domain.TierFree)
	assert.Equal(t, 0, status.Remaining)
	assert.Equal(t, domain.FreeMonthlyUploadLimit, status.Used)
	assert.False(t, status.CanUpload)
}

func TestQuotaRemainingNeverNegative(t *testing.T) {
	store := newFakeQuotaStore()
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	year, month := domain.QuotaPeriod(now)
	key := quotaKey("acct-1", year, month)
	store.records[key] = &domain.UploadQuota{ID: key, AccountID: "acct-1", Year: year, Month: month, UploadCount: 9}

	svc := newQuotaServiceAt(store, now)
	status := svc.Check(context.Background(), "acct-1", domain.TierFree)
	assert.Equal(t, 0, status.Remaining)
	assert.False(t, status.CanUpload)
}

func TestQuotaNewMonthStartsFresh(t *testing.T) {
	store := newFakeQuotaStore()
	june := time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)
	ctx := context.Background()

	svc := newQuotaServiceAt(store, june)
	for i := 0; i < domain.FreeMonthlyUploadLimit; i++ {
		_, err := svc.Increment(ctx, "acct-1")
		require.NoError(t, err)
	}
	assert.False(t, svc.Check(ctx, "acct-1", domain.TierFree).CanUpload)

	// Same account, next month: a fresh counter at zero.
	svc.now = func() time.Time { return june.AddDate(0, 0, 1) }
	status := svc.Check(ctx, "acct-1", domain.TierFree)
	assert.Equal(t, 0, status.Used)
	assert.True(t, status.CanUpload)
}

func TestQuotaCheckFailsOpen(t *testing.T) {
	store := newFakeQuotaStore()
	store.findErr = errors.New("db down")
	svc := newQuotaServiceAt(store, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	status := svc.Check(context.Background(), "acct-1", domain.TierFree)
	assert.True(t, status.CanUpload, "storage faults must not block uploads")
	assert.Equal(t, domain.FreeMonthlyUploadLimit, status.Remaining)
}

func TestQuotaIncrementSurvivesCreationRace(t *testing.T) {
	store := newFakeQuotaStore()
	store.insertRaces = true
	svc := newQuotaServiceAt(store, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	count, err := svc.Increment(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "increment applies to the winner's record")
}
