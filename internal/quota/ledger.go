// Package quota enforces per-user free-check limits and meters the
// shared external API budgets.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
)

// Ledger decides whether a user may run another evaluation. Premium
// users and allow-listed usernames are granted without decrement.
type Ledger struct {
	store store.Store
	allow map[string]struct{}
}

// NewLedger creates a ledger; allowUsernames are granted unlimited checks.
func NewLedger(s store.Store, allowUsernames []string) *Ledger {
	allow := make(map[string]struct{}, len(allowUsernames))
	for _, name := range allowUsernames {
		name = strings.ToLower(strings.TrimPrefix(name, "@"))
		if name != "" {
			allow[name] = struct{}{}
		}
	}
	return &Ledger{store: s, allow: allow}
}

// Unlimited reports whether username bypasses the quota entirely.
func (l *Ledger) Unlimited(username string) bool {
	if username == "" {
		return false
	}
	_, ok := l.allow[strings.ToLower(strings.TrimPrefix(username, "@"))]
	return ok
}

// TryConsume grants permission for one evaluation. For ordinary users
// the remaining-check decrement happens atomically with the grant;
// premium and allow-listed users are never decremented.
func (l *Ledger) TryConsume(ctx context.Context, userID int64, username string) (bool, error) {
	u, err := l.store.GetOrCreateUser(ctx, userID, username)
	if err != nil {
		return false, fmt.Errorf("load user %d: %w", userID, err)
	}
	if l.Unlimited(username) || u.PremiumActive(time.Now()) {
		return true, nil
	}
	return l.store.ConsumeCheck(ctx, userID)
}

// Remaining returns the user's quota row and whether it is unlimited.
func (l *Ledger) Remaining(ctx context.Context, userID int64, username string) (*model.UserQuota, bool, error) {
	u, err := l.store.GetOrCreateUser(ctx, userID, username)
	if err != nil {
		return nil, false, fmt.Errorf("load user %d: %w", userID, err)
	}
	unlimited := l.Unlimited(username) || u.PremiumActive(time.Now())
	return u, unlimited, nil
}

// GrantPremium marks a user premium for the given number of days;
// days <= 0 grants premium without a horizon.
func (l *Ledger) GrantPremium(ctx context.Context, userID int64, days int) error {
	var until time.Time
	if days > 0 {
		until = time.Now().AddDate(0, 0, days)
	}
	return l.store.SetPremium(ctx, userID, until)
}
