package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/resumatic/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUniqueViolation = &pgconn.PgError{Code: "23505"}

type fakeOnboardingStore struct {
	steps       map[string][]domain.OnboardingStep
	insertErr   error
	insertCalls int
}

func newFakeOnboardingStore() *fakeOnboardingStore {
	return &fakeOnboardingStore{steps: make(map[string][]domain.OnboardingStep)}
}

func (f *fakeOnboardingStore) ListByAccount(_ context.Context, accountID string) ([]domain.OnboardingStep, error) {
	return f.steps[accountID], nil
}

func (f *fakeOnboardingStore) InsertStep(_ context.Context, accountID string, step domain.OnboardingStep) error {
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, s := range f.steps[accountID] {
		if s.StepName == step.StepName {
			return errUniqueViolation
		}
	}
	f.steps[accountID] = append(f.steps[accountID], step)
	return nil
}

func (f *fakeOnboardingStore) InsertSteps(ctx context.Context, accountID string, steps []domain.OnboardingStep) error {
	for _, s := range steps {
		if err := f.InsertStep(ctx, accountID, s); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeOnboardingStore) CompleteStep(_ context.Context, accountID, stepName string) (bool, error) {
	for i, s := range f.steps[accountID] {
		if s.StepName == stepName {
			f.steps[accountID][i].Completed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOnboardingStore) HasSteps(_ context.Context, accountID string) (bool, error) {
	return len(f.steps[accountID]) > 0, nil
}

func TestInitializeProgressSeedsBaseline(t *testing.T) {
	store := newFakeOnboardingStore()
	svc := NewOnboardingService(store, zap.NewNop())

	require.NoError(t, svc.InitializeProgress(context.Background(), "acct-1"))

	steps, err := svc.GetProgress(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, domain.StepSignUp, steps[0].StepName)
	assert.True(t, steps[0].Completed)
}

func TestInitializeProgressIsIdempotent(t *testing.T) {
	store := newFakeOnboardingStore()
	svc := NewOnboardingService(store, zap.NewNop())

	require.NoError(t, svc.InitializeProgress(context.Background(), "acct-1"))
	calls := store.insertCalls

	require.NoError(t, svc.InitializeProgress(context.Background(), "acct-1"))
	assert.Equal(t, calls, store.insertCalls, "second initialization should not insert")
}

func TestInitializeProgressTreatsConflictAsSuccess(t *testing.T) {
	store := newFakeOnboardingStore()
	store.insertErr = errUniqueViolation
	svc := NewOnboardingService(store, zap.NewNop())

	assert.NoError(t, svc.InitializeProgress(context.Background(), "acct-1"))
}

func TestInitializeProgressOtherInsertErrorsFail(t *testing.T) {
	store := newFakeOnboardingStore()
	store.insertErr = errors.New("connection reset")
	svc := NewOnboardingService(store, zap.NewNop())

	err := svc.InitializeProgress(context.Background(), "acct-1")
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 503, appErr.Code)
}

func TestCompleteStepIsIdempotent(t *testing.T) {
	store := newFakeOnboardingStore()
	svc := NewOnboardingService(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.InitializeProgress(ctx, "acct-1"))
	require.NoError(t, svc.CompleteStep(ctx, "acct-1", domain.StepBasicInfo))
	require.NoError(t, svc.CompleteStep(ctx, "acct-1", domain.StepBasicInfo))

	steps, err := svc.GetProgress(ctx, "acct-1")
	require.NoError(t, err)
	completed := 0
	for _, s := range steps {
		if s.Completed {
			completed++
		}
	}
	assert.Equal(t, 2, completed) // sign-up plus basic-information
}

func TestCompleteStepUnknownStepIsNotFound(t *testing.T) {
	store := newFakeOnboardingStore()
	svc := NewOnboardingService(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.InitializeProgress(ctx, "acct-1"))

	err := svc.CompleteStep(ctx, "acct-1", "no-such-step")
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestCurrentStepAdvancesMonotonically(t *testing.T) {
	store := newFakeOnboardingStore()
	svc := NewOnboardingService(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.InitializeProgress(ctx, "acct-1"))

	current, err := svc.CurrentStep(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepNumberBasicInfo, current)

	require.NoError(t, svc.CompleteStep(ctx, "acct-1", domain.StepBasicInfo))
	require.NoError(t, svc.CompleteStep(ctx, "acct-1", domain.StepResumeUpload))
	require.NoError(t, svc.CompleteStep(ctx, "acct-1", domain.StepAnalysisResults))

	current, err = svc.CurrentStep(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 5, current, "all four baseline steps done -> sentinel")
}

func TestAppendDashboardTourOnlyOnce(t *testing.T) {
	store := newFakeOnboardingStore()
	svc := NewOnboardingService(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.InitializeProgress(ctx, "acct-1"))
	require.NoError(t, svc.AppendDashboardTour(ctx, "acct-1"))
	// Redundant append hits the unique key and still succeeds.
	require.NoError(t, svc.AppendDashboardTour(ctx, "acct-1"))

	steps, err := svc.GetProgress(ctx, "acct-1")
	require.NoError(t, err)
	assert.Len(t, steps, 5)
}
