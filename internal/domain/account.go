package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier is an account's service level.
type Tier string

const (
	TierGuest  Tier = "guest"  // no uploads
	TierFree   Tier = "free"   // limited monthly uploads
	TierMember Tier = "member" // unlimited, paid
)

// CanPromoteTo reports whether a user-initiated transition from t to next is
// allowed. Tiers only advance one level at a time: guest→free, free→member.
// Demotion to free happens exclusively through billing events.
func (t Tier) CanPromoteTo(next Tier) bool {
	switch t {
	case TierGuest:
		return next == TierFree
	case TierFree:
		return next == TierMember
	default:
		return false
	}
}

// Account represents one end user, created from the auth provider's
// user-created event (or lazily on first authenticated request).
type Account struct {
	ID                string    `json:"id"`
	AuthUserID        string    `json:"authUserId"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Tier              Tier      `json:"userType"`
	CurrentRole       string    `json:"currentRole,omitempty"`
	TargetPosition    string    `json:"targetPosition,omitempty"`
	City              string    `json:"city,omitempty"`
	ProfileCompletion int       `json:"profileCompletion"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CompletionPercent derives the profile completion percentage from the
// free-text profile fields. Derived, not authoritative.
func (a *Account) CompletionPercent() int {
	fields := []string{a.Name, a.CurrentRole, a.TargetPosition, a.City}
	filled := 0
	for _, f := range fields {
		if f != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

// NewAccountID generates a new account row identifier.
func NewAccountID() string {
	return uuid.New().String()
}

// UpdateBasicInfoRequest is the input for profile basic-info edits.
type UpdateBasicInfoRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	CurrentRole    string `json:"currentRole" validate:"max=200"`
	TargetPosition string `json:"targetPosition" validate:"max=200"`
	City           string `json:"city" validate:"max=200"`
}

// UpdateTierRequest is the input for a user-initiated tier promotion.
type UpdateTierRequest struct {
	UserType Tier `json:"user_type" validate:"required,oneof=free member"`
}
