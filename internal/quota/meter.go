package quota

import (
	"context"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
)

// Names of the metered external services.
const (
	ServiceDaData    = "dadata"
	ServiceAPIAssist = "api-assist"
)

// Meter tracks consumption of the shared external API budgets. Every
// attempted upstream call is counted, failed ones included, since they
// consumed budget upstream all the same.
type Meter struct {
	store store.Store
}

// NewMeter creates a meter over the given store.
func NewMeter(s store.Store) *Meter {
	return &Meter{store: s}
}

// Record adds n calls to the service counter and reports whether a
// low-budget alert should go out. The alert fires at most once per
// calendar day per service.
func (m *Meter) Record(ctx context.Context, service string, n int) (model.ServiceUsage, bool, error) {
	return m.store.AddUsage(ctx, service, n, store.Today(time.Now()))
}

// Reset zeroes the counter and the alert date of a service, optionally
// replacing the budget limit.
func (m *Meter) Reset(ctx context.Context, service string, newLimit *int) error {
	return m.store.ResetUsage(ctx, service, newLimit)
}

// Snapshot returns all usage counters.
func (m *Meter) Snapshot(ctx context.Context) ([]model.ServiceUsage, error) {
	return m.store.ListUsage(ctx)
}
