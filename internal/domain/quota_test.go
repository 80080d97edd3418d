package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuotaPeriod(t *testing.T) {
	year, month := QuotaPeriod(time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, year)
	assert.Equal(t, 3, month)
}

func TestQuotaPeriodUsesUTC(t *testing.T) {
	// 2025-03-31 23:00 in UTC-5 is already April in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	year, month := QuotaPeriod(time.Date(2025, time.March, 31, 23, 0, 0, 0, loc))
	assert.Equal(t, 2025, year)
	assert.Equal(t, 4, month)
}

func TestQuotaResetDate(t *testing.T) {
	reset := QuotaResetDate(time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), reset)
}

func TestQuotaResetDateYearRollover(t *testing.T) {
	reset := QuotaResetDate(time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), reset)
}
