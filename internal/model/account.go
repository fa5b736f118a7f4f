package model

import "time"

// UserQuota is the per-user quota row of the durable store.
type UserQuota struct {
	UserID       int64
	Username     string
	ChecksLeft   int
	IsPremium    bool
	PremiumUntil time.Time // zero when premium has no horizon
}

// PremiumActive reports whether the premium override applies at t.
func (u *UserQuota) PremiumActive(t time.Time) bool {
	if !u.IsPremium {
		return false
	}
	return u.PremiumUntil.IsZero() || t.Before(u.PremiumUntil)
}

// ServiceUsage is the usage counter of one metered external service.
type ServiceUsage struct {
	Service        string
	TotalLimit     int
	UsedCount      int
	AlertThreshold int
	LastAlertDate  string // YYYY-MM-DD of the last low-budget alert, "" if never
}

// Remaining returns the calls left in the budget; can go negative on overage.
func (s *ServiceUsage) Remaining() int {
	return s.TotalLimit - s.UsedCount
}

// CheckRecord is one finished evaluation, kept for history and the
// daily digest.
type CheckRecord struct {
	ID        string
	UserID    int64
	INN       string
	Verdict   Verdict
	SourcesOK int
	Elapsed   time.Duration
	CreatedAt time.Time
}
