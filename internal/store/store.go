// Package store persists quota state, usage counters and the
// evaluation history.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Config selects and tunes the backing store.
type Config struct {
	Driver      string // sqlite, postgres or memory
	SQLitePath  string
	PostgresDSN string
	FreeChecks  int // checks_left granted to a new user
}

// Store is the durable state behind the quota ledger, the usage meter
// and the evaluation history. Implementations must make ConsumeCheck
// and AddUsage atomic under concurrent access.
type Store interface {
	// GetOrCreateUser returns the quota row for userID, creating it
	// with the configured number of free checks on first observation.
	// A non-empty username refreshes the stored one.
	GetOrCreateUser(ctx context.Context, userID int64, username string) (*model.UserQuota, error)

	// ConsumeCheck decrements checks_left by one iff it is positive.
	// The check and the decrement are a single indivisible step.
	ConsumeCheck(ctx context.Context, userID int64) (bool, error)

	// SetPremium marks the user premium until the given time
	// (zero time means no horizon). Creates the row when missing.
	SetPremium(ctx context.Context, userID int64, until time.Time) error

	// EnsureService creates or updates the usage counter row of a
	// metered service with the configured budget. Usage and alert
	// state of an existing row are preserved.
	EnsureService(ctx context.Context, service string, limit, threshold int) error

	// AddUsage increments used_count by n and decides the low-budget
	// alert: fired iff remaining <= threshold and no alert went out on
	// `today` yet, in which case last_alert_date is set to today within
	// the same transaction. Returns the post-increment counter.
	AddUsage(ctx context.Context, service string, n int, today string) (model.ServiceUsage, bool, error)

	// ResetUsage zeroes used_count and the alert date, optionally
	// replacing the limit.
	ResetUsage(ctx context.Context, service string, newLimit *int) error

	// ListUsage returns all usage counters ordered by service name.
	ListUsage(ctx context.Context) ([]model.ServiceUsage, error)

	// RecordCheck appends one finished evaluation to the history.
	RecordCheck(ctx context.Context, rec *model.CheckRecord) error

	// CountChecksSince counts evaluations recorded at or after t.
	CountChecksSince(ctx context.Context, t time.Time) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// New creates a store based on configuration.
func New(cfg Config) (Store, error) {
	if cfg.FreeChecks <= 0 {
		cfg.FreeChecks = 3
	}
	switch cfg.Driver {
	case "sqlite", "postgres":
		return newSQLStore(cfg)
	case "memory":
		return NewMemory(cfg.FreeChecks), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

// Today formats t as the calendar-date key used for alert idempotence.
func Today(t time.Time) string {
	return t.Format("2006-01-02")
}
