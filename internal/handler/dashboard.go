package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/resumatic/backend/internal/service"
)

// DashboardHandler aggregates the account's state into one response so the
// UI can render the dashboard with a single round trip.
type DashboardHandler struct {
	accounts      *service.AccountService
	resumes       *service.ResumeService
	quota         *service.QuotaService
	subscriptions *service.SubscriptionService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(accounts *service.AccountService, resumes *service.ResumeService, quota *service.QuotaService, subscriptions *service.SubscriptionService) *DashboardHandler {
	return &DashboardHandler{
		accounts:      accounts,
		resumes:       resumes,
		quota:         quota,
		subscriptions: subscriptions,
	}
}

// Get handles GET /api/dashboard. Missing pieces (no resume yet, never
// subscribed) come back as nulls rather than failing the whole view.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}
	ctx := r.Context()

	resp := map[string]interface{}{
		"account":      account,
		"quota":        h.quota.Check(ctx, account.ID, account.Tier),
		"resume":       nil,
		"analysis":     nil,
		"subscription": nil,
		"isValid":      false,
	}

	resume, err := h.resumes.Current(ctx, account.ID)
	if err == nil && resume != nil {
		resp["resume"] = resume
		if len(resume.Analysis) > 0 {
			resp["analysis"] = json.RawMessage(resume.Analysis)
		}
	}

	sub, err := h.subscriptions.GetSubscription(ctx, account.ID)
	if err == nil && sub != nil {
		resp["subscription"] = sub
		resp["isValid"] = sub.IsValid(time.Now())
	}

	JSON(w, http.StatusOK, resp)
}
