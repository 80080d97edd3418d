// Package billing wraps the payment processor (Stripe). The processor is
// the billing state of record; this package only creates sessions and reads
// subscription detail, it never decides subscription state itself.
package billing

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
)

// SubscriptionDetail is the normalized view of a processor subscription.
type SubscriptionDetail struct {
	ID                string
	CustomerID        string
	Status            string
	CancelAtPeriodEnd bool
	PriceID           string
	PeriodStart       time.Time
	PeriodEnd         time.Time
}

// Provider is the processor surface the services depend on.
type Provider interface {
	CreateCustomer(email, name, accountID string) (string, error)
	CreateCheckoutSession(customerID, priceID, accountID, planType string) (string, error)
	CreatePortalSession(customerID string) (string, error)
	GetSubscription(subscriptionID string) (*SubscriptionDetail, error)
	PlanFromPrice(priceID string) string
	PriceForPlan(planType string) string
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	priceMonthly string
	priceYearly  string
	appURL       string
}

// NewStripeProvider wires the Stripe API key and price configuration.
func NewStripeProvider(secretKey, priceMonthly, priceYearly, appURL string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{
		priceMonthly: priceMonthly,
		priceYearly:  priceYearly,
		appURL:       appURL,
	}
}

// PriceForPlan maps a requested plan interval to the configured price id.
func (p *StripeProvider) PriceForPlan(planType string) string {
	if planType == "yearly" {
		return p.priceYearly
	}
	return p.priceMonthly
}

// PlanFromPrice maps a Stripe price id back to the local plan identifier.
// Unknown prices default to the monthly plan.
func (p *StripeProvider) PlanFromPrice(priceID string) string {
	if priceID == p.priceYearly {
		return "premium_yearly"
	}
	return "premium_monthly"
}

// CreateCustomer creates a Stripe customer tagged with the account id.
func (p *StripeProvider) CreateCustomer(email, name, accountID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"accountId": accountID,
		},
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession starts a subscription checkout. The account id and
// plan ride along as metadata so the completed-checkout webhook can resolve
// them without a customer lookup.
func (p *StripeProvider) CreateCheckoutSession(customerID, priceID, accountID, planType string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.appURL + "/subscription/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(p.appURL + "/subscription/cancelled"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"accountId": accountID,
			},
		},
		AllowPromotionCodes:      stripe.Bool(true),
		BillingAddressCollection: stripe.String("auto"),
	}
	params.AddMetadata("accountId", accountID)
	params.AddMetadata("planType", planType)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession opens the processor-hosted billing portal.
func (p *StripeProvider) CreatePortalSession(customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(p.appURL + "/dashboard"),
	}
	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess.URL, nil
}

// GetSubscription fetches full subscription detail by id. Webhook handlers
// use this as a defense against stale or partial event payloads.
func (p *StripeProvider) GetSubscription(subscriptionID string) (*SubscriptionDetail, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subscription: %w", err)
	}
	return normalizeSubscription(sub), nil
}

// ConstructEvent verifies the webhook signature and parses the event. An
// invalid signature is rejected before any state is touched.
func ConstructEvent(payload []byte, sigHeader, webhookSecret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, webhookSecret)
}

// NormalizeSubscription converts a raw processor subscription (from an API
// fetch or a webhook payload) into the normalized detail view.
func NormalizeSubscription(sub *stripe.Subscription) *SubscriptionDetail {
	return normalizeSubscription(sub)
}

func normalizeSubscription(sub *stripe.Subscription) *SubscriptionDetail {
	d := &SubscriptionDetail{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		PeriodStart:       time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:         time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if sub.Customer != nil {
		d.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		d.PriceID = sub.Items.Data[0].Price.ID
	}
	return d
}
