package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/service"
)

// ExperienceStore is the work-experience persistence surface the handler needs.
type ExperienceStore interface {
	Create(ctx context.Context, e *domain.WorkExperience) error
	Update(ctx context.Context, e *domain.WorkExperience) (bool, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.WorkExperience, error)
}

// AccountHandler serves the profile and tier endpoints.
type AccountHandler struct {
	accounts    *service.AccountService
	experiences ExperienceStore
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService, experiences ExperienceStore) *AccountHandler {
	return &AccountHandler{accounts: accounts, experiences: experiences}
}

// UpdateTier handles POST /api/account/tier.
func (h *AccountHandler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	authUserID, _, err := authIdentity(r.Context())
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.UpdateTierRequest
	if err := DecodeValid(r, &req); err != nil {
		Error(w, err)
		return
	}

	account, err := h.accounts.PromoteTier(r.Context(), authUserID, req.UserType)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, account)
}

// UpdateBasicInfo handles PUT /api/profile/basic-info.
func (h *AccountHandler) UpdateBasicInfo(w http.ResponseWriter, r *http.Request) {
	authUserID, _, err := authIdentity(r.Context())
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.UpdateBasicInfoRequest
	if err := DecodeValid(r, &req); err != nil {
		Error(w, err)
		return
	}

	account, err := h.accounts.UpdateBasicInfo(r.Context(), authUserID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, account)
}

// ListExperience handles GET /api/profile/experience.
func (h *AccountHandler) ListExperience(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	entries, err := h.experiences.ListByAccount(r.Context(), account.ID)
	if err != nil {
		Error(w, domain.ErrUnavailable("failed to list work experience", err))
		return
	}
	if entries == nil {
		entries = []*domain.WorkExperience{}
	}

	JSON(w, http.StatusOK, entries)
}

// CreateExperience handles POST /api/profile/experience.
func (h *AccountHandler) CreateExperience(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.WorkExperienceRequest
	if err := DecodeValid(r, &req); err != nil {
		Error(w, err)
		return
	}

	entry, err := experienceFromRequest(&req)
	if err != nil {
		Error(w, err)
		return
	}
	entry.ID = uuid.New().String()
	entry.AccountID = account.ID

	if err := h.experiences.Create(r.Context(), entry); err != nil {
		Error(w, domain.ErrUnavailable("failed to save work experience", err))
		return
	}

	JSON(w, http.StatusCreated, entry)
}

// UpdateExperience handles PUT /api/profile/experience/{id}.
func (h *AccountHandler) UpdateExperience(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.WorkExperienceRequest
	if err := DecodeValid(r, &req); err != nil {
		Error(w, err)
		return
	}

	entry, err := experienceFromRequest(&req)
	if err != nil {
		Error(w, err)
		return
	}
	entry.ID = chi.URLParam(r, "id")
	entry.AccountID = account.ID

	found, err := h.experiences.Update(r.Context(), entry)
	if err != nil {
		Error(w, domain.ErrUnavailable("failed to update work experience", err))
		return
	}
	if !found {
		Error(w, domain.ErrNotFound("work experience entry not found"))
		return
	}

	JSON(w, http.StatusOK, entry)
}

func experienceFromRequest(req *domain.WorkExperienceRequest) (*domain.WorkExperience, error) {
	entry := &domain.WorkExperience{
		CompanyName: req.CompanyName,
		JobTitle:    req.JobTitle,
		IsCurrent:   req.IsCurrent,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, domain.ErrValidation("startDate must be YYYY-MM-DD")
		}
		entry.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, domain.ErrValidation("endDate must be YYYY-MM-DD")
		}
		entry.EndDate = &t
	}
	return entry, nil
}
