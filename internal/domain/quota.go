package domain

import "time"

// FreeMonthlyUploadLimit is the number of resume uploads a free-tier
// account gets per UTC calendar month. Not configurable: the limit is
// tier-gated, members are unlimited and guests get nothing.
const FreeMonthlyUploadLimit = 5

// UploadQuota is one counter per account per UTC calendar month. The count
// only increases within a period; a new month starts a fresh record at zero.
type UploadQuota struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"-"`
	Year        int       `json:"year"`
	Month       int       `json:"month"` // 1-indexed, January = 1
	UploadCount int       `json:"upload_count"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// QuotaStatus is the quota read-model returned to callers and the UI.
type QuotaStatus struct {
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Unlimited bool      `json:"unlimited"`
	CanUpload bool      `json:"canUpload"`
	ResetDate time.Time `json:"resetDate"`
}

// QuotaPeriod returns the UTC year and 1-indexed month that now falls in.
func QuotaPeriod(now time.Time) (year, month int) {
	now = now.UTC()
	return now.Year(), int(now.Month())
}

// QuotaResetDate returns the first instant of the next UTC calendar month.
func QuotaResetDate(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
