package service

import (
	"context"
	"testing"

	"github.com/resumatic/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccountStore struct {
	byAuthID map[string]*domain.Account
	// raceOnCreate simulates the webhook and a client request creating the
	// same account concurrently.
	raceOnCreate bool
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{byAuthID: make(map[string]*domain.Account)}
}

func (f *fakeAccountStore) Create(_ context.Context, a *domain.Account) error {
	if f.raceOnCreate {
		cp := *a
		cp.ID = "winner-row"
		f.byAuthID[a.AuthUserID] = &cp
		return errUniqueViolation
	}
	if _, exists := f.byAuthID[a.AuthUserID]; exists {
		return errUniqueViolation
	}
	cp := *a
	f.byAuthID[a.AuthUserID] = &cp
	return nil
}

func (f *fakeAccountStore) FindByAuthID(_ context.Context, authUserID string) (*domain.Account, error) {
	return f.byAuthID[authUserID], nil
}

func (f *fakeAccountStore) FindByID(_ context.Context, id string) (*domain.Account, error) {
	for _, a := range f.byAuthID {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountStore) UpdateTier(_ context.Context, id string, tier domain.Tier) error {
	for _, a := range f.byAuthID {
		if a.ID == id {
			a.Tier = tier
		}
	}
	return nil
}

func (f *fakeAccountStore) UpdateBasicInfo(_ context.Context, a *domain.Account) error {
	stored := f.byAuthID[a.AuthUserID]
	if stored != nil {
		*stored = *a
	}
	return nil
}

func newTestAccountService() (*AccountService, *fakeAccountStore, *fakeOnboardingStore) {
	accounts := newFakeAccountStore()
	onboarding := newFakeOnboardingStore()
	svc := NewAccountService(accounts, NewOnboardingService(onboarding, zap.NewNop()), zap.NewNop())
	return svc, accounts, onboarding
}

func TestGetOrCreateSeedsGuestWithLedger(t *testing.T) {
	svc, _, onboarding := newTestAccountService()

	account, err := svc.GetOrCreate(context.Background(), "auth-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, domain.TierGuest, account.Tier)
	assert.NotEmpty(t, account.ID)

	steps := onboarding.steps[account.ID]
	require.Len(t, steps, 4)
	assert.True(t, steps[0].Completed, "sign-up pre-completed")
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	svc, _, _ := newTestAccountService()
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "auth-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	second, err := svc.GetOrCreate(ctx, "auth-1", "ada@example.com", "Ada")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateLosingTheRaceReReads(t *testing.T) {
	svc, accounts, _ := newTestAccountService()
	accounts.raceOnCreate = true

	account, err := svc.GetOrCreate(context.Background(), "auth-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "winner-row", account.ID, "loser must converge on the winner's row")
}

func TestPromoteTierGuestToFreeAppendsDashboardTour(t *testing.T) {
	svc, _, onboarding := newTestAccountService()
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, "auth-1", "ada@example.com", "Ada")
	require.NoError(t, err)

	promoted, err := svc.PromoteTier(ctx, "auth-1", domain.TierFree)
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, promoted.Tier)

	assert.Len(t, onboarding.steps[created.ID], 5, "dashboard-tour appended")
}

func TestPromoteTierRejectsSkippingLevels(t *testing.T) {
	svc, _, _ := newTestAccountService()
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, "auth-1", "ada@example.com", "Ada")
	require.NoError(t, err)

	_, err = svc.PromoteTier(ctx, "auth-1", domain.TierMember)
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}

func TestPromoteTierMemberIsTerminal(t *testing.T) {
	svc, accounts, _ := newTestAccountService()
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, "auth-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	require.NoError(t, accounts.UpdateTier(ctx, created.ID, domain.TierMember))

	_, err = svc.PromoteTier(ctx, "auth-1", domain.TierMember)
	require.Error(t, err)
}

func TestUpdateBasicInfoRecomputesCompletion(t *testing.T) {
	svc, _, onboarding := newTestAccountService()
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, "auth-1", "ada@example.com", "")
	require.NoError(t, err)

	updated, err := svc.UpdateBasicInfo(ctx, "auth-1", &domain.UpdateBasicInfoRequest{
		Name:        "Ada Lovelace",
		CurrentRole: "Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.ProfileCompletion)

	for _, s := range onboarding.steps[created.ID] {
		if s.StepName == domain.StepBasicInfo {
			assert.True(t, s.Completed)
		}
	}
}
