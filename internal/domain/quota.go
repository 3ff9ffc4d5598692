package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserQuota is the per-user daily usage counter. LastReset is the UTC
// calendar date (ISO form, "2006-01-02") of the current quota window.
type UserQuota struct {
	UserID     uuid.UUID
	DailyUsage int
	LastReset  string
	UpdatedAt  time.Time
}

// QuotaStatus is the caller-visible view of a quota window.
type QuotaStatus struct {
	Usage int `json:"usage"`
	Limit int `json:"limit"`
}

// DayKey formats t as the UTC calendar date used for quota windows.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
