package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsValid(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"nil subscription", nil, false},
		{"active", &Subscription{Status: SubscriptionActive}, true},
		{
			"cancelled inside paid period",
			&Subscription{Status: SubscriptionCancelled, CurrentPeriodEnd: now.AddDate(0, 0, 10)},
			true,
		},
		{
			"cancelled past period end",
			&Subscription{Status: SubscriptionCancelled, CurrentPeriodEnd: now.AddDate(0, 0, -1)},
			false,
		},
		{"expired", &Subscription{Status: SubscriptionExpired, CurrentPeriodEnd: now.AddDate(0, 1, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsValid(now))
		})
	}
}
