package handler

import (
	"net/http"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/service"
)

// QuotaHandler serves the upload-quota endpoints.
type QuotaHandler struct {
	accounts *service.AccountService
	quota    *service.QuotaService
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(accounts *service.AccountService, quota *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{accounts: accounts, quota: quota}
}

// GetStatus handles GET /api/quota.
func (h *QuotaHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, h.quota.Check(r.Context(), account.ID, account.Tier))
}

// Increment handles POST /api/quota/increment. Members are unlimited so the
// call is a no-op for them; guests have no quota to charge.
func (h *QuotaHandler) Increment(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	switch account.Tier {
	case domain.TierGuest:
		Error(w, domain.ErrForbidden("guests do not have an upload quota"))
		return
	case domain.TierMember:
		JSON(w, http.StatusOK, h.quota.Check(r.Context(), account.ID, account.Tier))
		return
	}

	if _, err := h.quota.Increment(r.Context(), account.ID); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, h.quota.Check(r.Context(), account.ID, account.Tier))
}
