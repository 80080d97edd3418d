package domain

import "time"

// Subscription statuses. Transitions are driven exclusively by payment
// processor webhook events, never guessed locally.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Plan identifiers mirroring the processor's price configuration.
const (
	PlanPremiumMonthly = "premium_monthly"
	PlanPremiumYearly  = "premium_yearly"
)

// Subscription is the local mirror of the payment processor's subscription
// object, at most one per account. It is kept as history of last known
// state and never deleted.
type Subscription struct {
	ID                 string    `json:"id"`
	AccountID          string    `json:"-"`
	CustomerID         string    `json:"-"` // processor customer id
	SubscriptionID     string    `json:"-"` // processor subscription id
	PlanType           string    `json:"planType"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd  bool      `json:"cancelAtPeriodEnd"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// IsValid reports whether the subscription still grants member privileges.
// A cancelled subscription keeps its privileges until the paid period ends.
func (s *Subscription) IsValid(now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case SubscriptionActive:
		return true
	case SubscriptionCancelled:
		return s.CurrentPeriodEnd.After(now)
	default:
		return false
	}
}

// Subscription history event types.
const (
	HistoryCreated   = "created"
	HistoryUpdated   = "updated"
	HistoryCancelled = "cancelled"
	HistoryExpired   = "expired"
)

// SubscriptionHistory is one entry in the append-only billing audit trail.
// Entries are never mutated or deleted; a redelivered webhook event appends
// a duplicate entry, which is acceptable for an audit log.
type SubscriptionHistory struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"-"`
	SubscriptionID string    `json:"subscriptionId"`
	EventType      string    `json:"eventType"`
	OldStatus      string    `json:"oldStatus,omitempty"`
	NewStatus      string    `json:"newStatus,omitempty"`
	OldPlan        string    `json:"oldPlan,omitempty"`
	NewPlan        string    `json:"newPlan,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CheckoutRequest is the input for starting a checkout session.
type CheckoutRequest struct {
	PlanType string `json:"planType" validate:"required,oneof=monthly yearly"`
}

// CheckoutResponse carries the processor-hosted payment page URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}
