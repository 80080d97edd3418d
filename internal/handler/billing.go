package handler

import (
	"net/http"
	"time"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/service"
)

// BillingHandler serves checkout, billing portal, and the subscription read
// model.
type BillingHandler struct {
	accounts      *service.AccountService
	subscriptions *service.SubscriptionService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(accounts *service.AccountService, subscriptions *service.SubscriptionService) *BillingHandler {
	return &BillingHandler{accounts: accounts, subscriptions: subscriptions}
}

// CreateCheckout handles POST /api/billing/checkout.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.CheckoutRequest
	if err := DecodeValid(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.subscriptions.CreateCheckout(r.Context(), account, req.PlanType)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}

// CreatePortal handles GET /api/billing/portal.
func (h *BillingHandler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	url, err := h.subscriptions.CreatePortal(r.Context(), account.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetSubscription handles GET /api/billing/subscription.
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	sub, err := h.subscriptions.GetSubscription(r.Context(), account.ID)
	if err != nil {
		Error(w, err)
		return
	}
	if sub == nil {
		JSON(w, http.StatusOK, map[string]interface{}{
			"subscription": nil,
			"isValid":      false,
		})
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"subscription": sub,
		"isValid":      sub.IsValid(time.Now()),
	})
}

// ListPlans handles GET /api/plans. The catalog is static and public.
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, domain.AvailablePlans())
}
