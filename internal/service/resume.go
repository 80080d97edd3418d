package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/pkg/pdftext"
	"github.com/resumatic/backend/pkg/storage"
	"go.uber.org/zap"
)

// ResumeStore is the resume persistence surface.
type ResumeStore interface {
	Create(ctx context.Context, res *domain.Resume) error
	DemoteCurrent(ctx context.Context, accountID string) error
	FindByID(ctx context.Context, accountID, id string) (*domain.Resume, error)
	FindCurrent(ctx context.Context, accountID string) (*domain.Resume, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Resume, error)
	SaveAnalysis(ctx context.Context, id string, analysis []byte) error
}

// ObjectStore is the blob storage surface holding the PDF bytes.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Completer is the AI completion surface.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// QuotaExceededError carries the quota status so the caller can render an
// actionable upgrade prompt.
type QuotaExceededError struct {
	Status *domain.QuotaStatus
}

func (e *QuotaExceededError) Error() string {
	return "upload quota exceeded"
}

// ResumeService orchestrates uploads (validation, quota gating, blob
// storage, bookkeeping) and AI analysis of stored resumes.
type ResumeService struct {
	store      ResumeStore
	blobs      ObjectStore
	quota      *QuotaService
	onboarding *OnboardingService
	ai         Completer
	extract    func(data []byte) (*pdftext.Result, error)
	logger     *zap.Logger
}

// NewResumeService creates a new ResumeService.
func NewResumeService(store ResumeStore, blobs ObjectStore, quota *QuotaService, onboarding *OnboardingService, ai Completer, logger *zap.Logger) *ResumeService {
	return &ResumeService{
		store:      store,
		blobs:      blobs,
		quota:      quota,
		onboarding: onboarding,
		ai:         ai,
		extract:    pdftext.Extract,
		logger:     logger,
	}
}

// Upload validates and stores one resume PDF. Guests cannot upload; free
// accounts are quota-gated before the blob is written and charged after the
// row commits. The new upload becomes the account's current resume.
func (s *ResumeService) Upload(ctx context.Context, account *domain.Account, fileName string, data []byte) (*domain.Resume, error) {
	if account.Tier == domain.TierGuest {
		return nil, domain.ErrForbidden("guests cannot upload resumes")
	}
	if int64(len(data)) > domain.MaxResumeSize {
		return nil, domain.ErrBadRequest("file size exceeds 10 MB limit")
	}
	if int64(len(data)) < domain.MinResumeSize {
		return nil, domain.ErrBadRequest("file appears to be empty or corrupted")
	}

	if account.Tier == domain.TierFree {
		status := s.quota.Check(ctx, account.ID, account.Tier)
		if !status.CanUpload {
			return nil, &QuotaExceededError{Status: status}
		}
	}

	// The new upload becomes current for everyone; only one resume is
	// current at a time.
	if err := s.store.DemoteCurrent(ctx, account.ID); err != nil {
		return nil, domain.ErrUnavailable("failed to update previous resumes", err)
	}

	now := time.Now()
	key := storage.BuildKey(account.AuthUserID, fileName, now)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return nil, domain.ErrUnavailable("failed to upload file to storage", err)
	}

	resume := &domain.Resume{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		FileName:  fileName,
		FilePath:  key,
		FileSize:  int64(len(data)),
		IsCurrent: true,
		CreatedAt: now,
	}
	if account.Tier == domain.TierMember {
		resume.VersionLabel = fmt.Sprintf("Version %d", now.UnixMilli())
	}

	if err := s.store.Create(ctx, resume); err != nil {
		// The blob is orphaned without its row; best effort cleanup.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to clean up orphaned blob",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, domain.ErrUnavailable("failed to save resume record", err)
	}

	if account.Tier == domain.TierFree {
		// Quota is charged once the upload persists, even if analysis later
		// fails. Increment failure is not worth failing the upload over.
		if _, err := s.quota.Increment(ctx, account.ID); err != nil {
			s.logger.Warn("failed to increment quota after upload",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	if err := s.onboarding.CompleteStep(ctx, account.ID, domain.StepResumeUpload); err != nil {
		s.logger.Warn("failed to complete resume-upload step",
			zap.String("account_id", account.ID), zap.Error(err))
	}

	s.logger.Info("resume uploaded",
		zap.String("account_id", account.ID),
		zap.String("resume_id", resume.ID),
		zap.Int64("size", resume.FileSize))
	return resume, nil
}

// Analyze runs the AI analysis over a stored resume and persists the result
// on the resume row.
func (s *ResumeService) Analyze(ctx context.Context, account *domain.Account, resumeID string) (*domain.AnalysisResult, error) {
	resume, err := s.store.FindByID(ctx, account.ID, resumeID)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to look up resume", err)
	}
	if resume == nil {
		return nil, domain.ErrNotFound("resume not found")
	}

	data, err := s.blobs.Get(ctx, resume.FilePath)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to download resume file", err)
	}

	extracted, err := s.extract(data)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	prompt := buildAnalysisPrompt(extracted.Text, account.Tier)
	raw, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		return nil, domain.ErrUnavailable("analysis failed, please try again", err)
	}

	result, err := parseAnalysis(raw)
	if err != nil {
		return nil, domain.ErrInternal("failed to parse analysis response", err)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, domain.ErrInternal("failed to encode analysis", err)
	}
	if err := s.store.SaveAnalysis(ctx, resume.ID, encoded); err != nil {
		return nil, domain.ErrUnavailable("failed to save analysis", err)
	}

	if err := s.onboarding.CompleteStep(ctx, account.ID, domain.StepAnalysisResults); err != nil {
		s.logger.Warn("failed to complete analysis-results step",
			zap.String("account_id", account.ID), zap.Error(err))
	}

	s.logger.Info("resume analyzed",
		zap.String("account_id", account.ID),
		zap.String("resume_id", resume.ID),
		zap.Int("pages", extracted.PageCount))
	return result, nil
}

// Current returns the account's current resume, or NotFound.
func (s *ResumeService) Current(ctx context.Context, accountID string) (*domain.Resume, error) {
	resume, err := s.store.FindCurrent(ctx, accountID)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to look up current resume", err)
	}
	if resume == nil {
		return nil, domain.ErrNotFound("no resume uploaded yet")
	}
	return resume, nil
}

// List returns the account's resume versions, newest first. Version history
// is a member feature; free accounts only see the current upload.
func (s *ResumeService) List(ctx context.Context, account *domain.Account) ([]*domain.Resume, error) {
	if account.Tier != domain.TierMember {
		current, err := s.store.FindCurrent(ctx, account.ID)
		if err != nil {
			return nil, domain.ErrUnavailable("failed to look up resumes", err)
		}
		if current == nil {
			return nil, nil
		}
		return []*domain.Resume{current}, nil
	}

	resumes, err := s.store.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, domain.ErrUnavailable("failed to list resumes", err)
	}
	return resumes, nil
}

func buildAnalysisPrompt(resumeText string, tier domain.Tier) string {
	adviceCount := "3-5 concise"
	if tier == domain.TierMember {
		adviceCount = "at least 10 detailed"
	}

	return fmt.Sprintf(`You are an expert resume analyst and career advisor. Analyze the following resume text and provide a comprehensive analysis.

RESUME TEXT:
---
%s
---

Respond with a single JSON object in exactly this shape, and nothing else:
{
  "basicInfo": {"name": "", "email": "", "phone": "", "address": ""},
  "skills": ["skill1", "skill2"],
  "experiences": [{"companyName": "", "jobTitle": "", "startDate": "MM/YYYY", "endDate": "MM/YYYY or Present", "isCurrent": false, "description": "", "location": ""}],
  "grammarCorrections": "",
  "careerAdvice": [%s career advice points],
  "improvementSuggestions": ""
}`, resumeText, adviceCount)
}

// parseAnalysis decodes the completion output, tolerating a markdown code
// fence around the JSON.
func parseAnalysis(raw string) (*domain.AnalysisResult, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("invalid analysis JSON: %w", err)
	}
	return &result, nil
}
