package handler

import (
	"net/http"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/service"
)

// OnboardingHandler serves the onboarding progress endpoints.
type OnboardingHandler struct {
	accounts   *service.AccountService
	onboarding *service.OnboardingService
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(accounts *service.AccountService, onboarding *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{accounts: accounts, onboarding: onboarding}
}

// GetProgress handles GET /api/onboarding/progress.
func (h *OnboardingHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	steps, err := h.onboarding.GetProgress(r.Context(), account.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, domain.ProgressResponse{
		Steps:       steps,
		CurrentStep: domain.CurrentStep(steps),
		UserType:    account.Tier,
	})
}

// CompleteStep handles POST /api/onboarding/progress.
func (h *OnboardingHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.CompleteStepRequest
	if err := DecodeValid(r, &req); err != nil {
		Error(w, err)
		return
	}

	if req.Completed {
		if err := h.onboarding.CompleteStep(r.Context(), account.ID, req.StepName); err != nil {
			Error(w, err)
			return
		}
	}

	current, err := h.onboarding.CurrentStep(r.Context(), account.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"current_step": current,
	})
}
