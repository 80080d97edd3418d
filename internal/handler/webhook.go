package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/service"
	"github.com/resumatic/backend/pkg/billing"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20 // 1 MB

// WebhookHandler receives events from the auth provider and the payment
// processor. Both endpoints verify signatures before touching any state.
type WebhookHandler struct {
	accounts     *service.AccountService
	reconciler   *service.Reconciler
	authSecret   string
	stripeSecret string
	logger       *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(accounts *service.AccountService, reconciler *service.Reconciler, authSecret, stripeSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		accounts:     accounts,
		reconciler:   reconciler,
		authSecret:   authSecret,
		stripeSecret: stripeSecret,
		logger:       logger,
	}
}

// HandleStripe handles POST /api/webhooks/stripe. Handler failures return
// 500 so the processor redelivers; every reconciler path tolerates replays.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		Error(w, domain.ErrBadRequest("failed to read request body"))
		return
	}

	event, err := billing.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.stripeSecret)
	if err != nil {
		h.logger.Warn("stripe webhook signature verification failed", zap.Error(err))
		Error(w, domain.ErrBadRequest("invalid signature"))
		return
	}

	if err := h.dispatchStripeEvent(r, event); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) dispatchStripeEvent(r *http.Request, event stripe.Event) error {
	ctx := r.Context()

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return domain.ErrBadRequest("malformed checkout session payload")
		}
		subscriptionID := ""
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}
		return h.reconciler.HandleCheckoutCompleted(ctx, sess.Metadata["accountId"], subscriptionID)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return domain.ErrBadRequest("malformed subscription payload")
		}
		return h.reconciler.HandleSubscriptionUpdated(ctx, billing.NormalizeSubscription(&sub))

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return domain.ErrBadRequest("malformed subscription payload")
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		return h.reconciler.HandleSubscriptionDeleted(ctx, sub.ID, customerID)

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return domain.ErrBadRequest("malformed invoice payload")
		}
		customerID := ""
		if inv.Customer != nil {
			customerID = inv.Customer.ID
		}
		subscriptionID := ""
		if inv.Subscription != nil {
			subscriptionID = inv.Subscription.ID
		}
		return h.reconciler.HandlePaymentFailed(ctx, customerID, subscriptionID)

	default:
		h.logger.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

// authWebhookEvent is the auth provider's user event envelope.
type authWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// HandleAuth handles POST /api/webhooks/auth. user.created events seed the
// account and its onboarding ledger; everything else is acknowledged.
func (h *WebhookHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		Error(w, domain.ErrBadRequest("failed to read request body"))
		return
	}

	if !verifyAuthSignature(h.authSecret, payload,
		r.Header.Get("svix-id"),
		r.Header.Get("svix-timestamp"),
		r.Header.Get("svix-signature")) {
		h.logger.Warn("auth webhook signature verification failed")
		Error(w, domain.ErrBadRequest("invalid signature"))
		return
	}

	var event authWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		Error(w, domain.ErrBadRequest("malformed event payload"))
		return
	}

	if event.Type == "user.created" {
		email := ""
		if len(event.Data.EmailAddresses) > 0 {
			email = event.Data.EmailAddresses[0].EmailAddress
		}
		name := strings.TrimSpace(event.Data.FirstName + " " + event.Data.LastName)

		if _, err := h.accounts.GetOrCreate(r.Context(), event.Data.ID, email, name); err != nil {
			Error(w, err)
			return
		}
	}

	JSON(w, http.StatusOK, map[string]bool{"received": true})
}

// verifyAuthSignature checks the svix-style HMAC over "{id}.{timestamp}.{body}".
// The signature header carries a space-separated list of "v1,<base64>"
// entries; any match passes.
func verifyAuthSignature(secret string, payload []byte, id, timestamp, sigHeader string) bool {
	if id == "" || timestamp == "" || sigHeader == "" {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, entry := range strings.Split(sigHeader, " ") {
		parts := strings.SplitN(entry, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		if hmac.Equal([]byte(parts[1]), []byte(expected)) {
			return true
		}
	}
	return false
}
