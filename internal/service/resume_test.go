package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/pkg/pdftext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResumeStore struct {
	resumes   []*domain.Resume
	createErr error
}

func (f *fakeResumeStore) Create(_ context.Context, res *domain.Resume) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *res
	f.resumes = append(f.resumes, &cp)
	return nil
}

func (f *fakeResumeStore) DemoteCurrent(_ context.Context, accountID string) error {
	for _, r := range f.resumes {
		if r.AccountID == accountID {
			r.IsCurrent = false
		}
	}
	return nil
}

func (f *fakeResumeStore) FindByID(_ context.Context, accountID, id string) (*domain.Resume, error) {
	for _, r := range f.resumes {
		if r.AccountID == accountID && r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeResumeStore) FindCurrent(_ context.Context, accountID string) (*domain.Resume, error) {
	for _, r := range f.resumes {
		if r.AccountID == accountID && r.IsCurrent {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeResumeStore) ListByAccount(_ context.Context, accountID string) ([]*domain.Resume, error) {
	var out []*domain.Resume
	for _, r := range f.resumes {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResumeStore) SaveAnalysis(_ context.Context, id string, analysis []byte) error {
	for _, r := range f.resumes {
		if r.ID == id {
			r.Analysis = analysis
		}
	}
	return nil
}

type fakeBlobStore struct {
	blobs   map[string][]byte
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte) error {
	f.blobs[key] = data
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	delete(f.blobs, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	return f.response, f.err
}

type resumeFixture struct {
	svc        *ResumeService
	store      *fakeResumeStore
	blobs      *fakeBlobStore
	quotaStore *fakeQuotaStore
	onboarding *fakeOnboardingStore
	completer  *fakeCompleter
}

func newResumeFixture() *resumeFixture {
	store := &fakeResumeStore{}
	blobs := newFakeBlobStore()
	quotaStore := newFakeQuotaStore()
	onboarding := newFakeOnboardingStore()
	completer := &fakeCompleter{}

	quota := newQuotaServiceAt(quotaStore, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	svc := NewResumeService(store, blobs, quota,
		NewOnboardingService(onboarding, zap.NewNop()), completer, zap.NewNop())
	svc.extract = func(data []byte) (*pdftext.Result, error) {
		return &pdftext.Result{Text: string(data), PageCount: 1}, nil
	}

	return &resumeFixture{
		svc:        svc,
		store:      store,
		blobs:      blobs,
		quotaStore: quotaStore,
		onboarding: onboarding,
		completer:  completer,
	}
}

func freeAccount() *domain.Account {
	return &domain.Account{ID: "acct-1", AuthUserID: "auth-1", Tier: domain.TierFree}
}

func validPDFBytes() []byte {
	return bytes.Repeat([]byte("resume text "), 200)
}

func TestUploadGuestIsForbidden(t *testing.T) {
	fx := newResumeFixture()
	account := freeAccount()
	account.Tier = domain.TierGuest

	_, err := fx.svc.Upload(context.Background(), account, "cv.pdf", validPDFBytes())
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}

func TestUploadRejectsTinyFiles(t *testing.T) {
	fx := newResumeFixture()

	_, err := fx.svc.Upload(context.Background(), freeAccount(), "cv.pdf", []byte("tiny"))
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}

func TestUploadRejectsOversizedFiles(t *testing.T) {
	fx := newResumeFixture()

	_, err := fx.svc.Upload(context.Background(), freeAccount(), "cv.pdf",
		make([]byte, domain.MaxResumeSize+1))
	require.Error(t, err)
}

func TestUploadChargesQuotaAndCompletesStep(t *testing.T) {
	fx := newResumeFixture()
	account := freeAccount()
	ctx := context.Background()
	require.NoError(t, NewOnboardingService(fx.onboarding, zap.NewNop()).InitializeProgress(ctx, account.ID))

	resume, err := fx.svc.Upload(ctx, account, "cv.pdf", validPDFBytes())
	require.NoError(t, err)
	assert.True(t, resume.IsCurrent)
	assert.Empty(t, resume.VersionLabel, "free uploads carry no version label")

	year, month := domain.QuotaPeriod(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	quota := fx.quotaStore.records[quotaKey(account.ID, year, month)]
	require.NotNil(t, quota)
	assert.Equal(t, 1, quota.UploadCount)

	for _, s := range fx.onboarding.steps[account.ID] {
		if s.StepName == domain.StepResumeUpload {
			assert.True(t, s.Completed)
		}
	}
}

func TestUploadBlockedWhenQuotaExhausted(t *testing.T) {
	fx := newResumeFixture()
	account := freeAccount()
	ctx := context.Background()

	year, month := domain.QuotaPeriod(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	key := quotaKey(account.ID, year, month)
	fx.quotaStore.records[key] = &domain.UploadQuota{
		ID: key, AccountID: account.ID, Year: year, Month: month,
		UploadCount: domain.FreeMonthlyUploadLimit,
	}

	_, err := fx.svc.Upload(ctx, account, "cv.pdf", validPDFBytes())
	require.Error(t, err)

	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 0, quotaErr.Status.Remaining)
	assert.Empty(t, fx.blobs.blobs, "no blob written when the gate blocks")
}

func TestUploadDemotesPreviousCurrent(t *testing.T) {
	fx := newResumeFixture()
	account := freeAccount()
	ctx := context.Background()

	first, err := fx.svc.Upload(ctx, account, "v1.pdf", validPDFBytes())
	require.NoError(t, err)
	second, err := fx.svc.Upload(ctx, account, "v2.pdf", validPDFBytes())
	require.NoError(t, err)

	current, err := fx.svc.Current(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.NotEqual(t, first.ID, current.ID)
}

func TestUploadCleansUpBlobWhenRowFails(t *testing.T) {
	fx := newResumeFixture()
	fx.store.createErr = errors.New("insert failed")

	_, err := fx.svc.Upload(context.Background(), freeAccount(), "cv.pdf", validPDFBytes())
	require.Error(t, err)
	assert.Len(t, fx.blobs.deleted, 1, "orphaned blob must be deleted")
	assert.Empty(t, fx.blobs.blobs)
}

func TestUploadMemberGetsVersionLabel(t *testing.T) {
	fx := newResumeFixture()
	account := freeAccount()
	account.Tier = domain.TierMember

	resume, err := fx.svc.Upload(context.Background(), account, "cv.pdf", validPDFBytes())
	require.NoError(t, err)
	assert.NotEmpty(t, resume.VersionLabel)
}

func TestListNonMembersSeeOnlyCurrent(t *testing.T) {
	fx := newResumeFixture()
	account := freeAccount()
	ctx := context.Background()

	_, err := fx.svc.Upload(ctx, account, "v1.pdf", validPDFBytes())
	require.NoError(t, err)
	_, err = fx.svc.Upload(ctx, account, "v2.pdf", validPDFBytes())
	require.NoError(t, err)

	resumes, err := fx.svc.List(ctx, account)
	require.NoError(t, err)
	assert.Len(t, resumes, 1)

	account.Tier = domain.TierMember
	resumes, err = fx.svc.List(ctx, account)
	require.NoError(t, err)
	assert.Len(t, resumes, 2, "members see version history")
}

func TestAnalyzePersistsResultAndCompletesStep(t *testing.T) {
	fx := newResumeFixture()
	account := freeAccount()
	ctx := context.Background()
	require.NoError(t, NewOnboardingService(fx.onboarding, zap.NewNop()).InitializeProgress(ctx, account.ID))

	resume, err := fx.svc.Upload(ctx, account, "cv.pdf", validPDFBytes())
	require.NoError(t, err)

	fx.completer.response = "```json\n" + `{"basicInfo":{"name":"Ada"},"skills":["Go"],"careerAdvice":["ship more"]}` + "\n```"

	result, err := fx.svc.Analyze(ctx, account, resume.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", result.BasicInfo.Name)
	assert.Equal(t, []string{"Go"}, result.Skills)

	stored, err := fx.store.FindByID(ctx, account.ID, resume.ID)
	require.NoError(t, err)
	var saved domain.AnalysisResult
	require.NoError(t, json.Unmarshal(stored.Analysis, &saved))
	assert.Equal(t, "Ada", saved.BasicInfo.Name)

	for _, s := range fx.onboarding.steps[account.ID] {
		if s.StepName == domain.StepAnalysisResults {
			assert.True(t, s.Completed)
		}
	}
}

func TestAnalyzeUnknownResumeIsNotFound(t *testing.T) {
	fx := newResumeFixture()

	_, err := fx.svc.Analyze(context.Background(), freeAccount(), "missing")
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestParseAnalysisToleratesCodeFence(t *testing.T) {
	raw := "```json\n{\"skills\":[\"Go\",\"SQL\"]}\n```"
	result, err := parseAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, result.Skills)

	result, err = parseAnalysis(`{"skills":["Go"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, result.Skills)

	_, err = parseAnalysis("not json at all")
	assert.Error(t, err)
}
