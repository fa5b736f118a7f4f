package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// MemoryStore is an in-memory Store for development and tests.
// State is lost on restart.
type MemoryStore struct {
	mu         sync.Mutex
	freeChecks int
	users      map[int64]*model.UserQuota
	usage      map[string]*model.ServiceUsage
	history    []model.CheckRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory(freeChecks int) *MemoryStore {
	return &MemoryStore{
		freeChecks: freeChecks,
		users:      make(map[int64]*model.UserQuota),
		usage:      make(map[string]*model.ServiceUsage),
	}
}

func (m *MemoryStore) GetOrCreateUser(_ context.Context, userID int64, username string) (*model.UserQuota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		u = &model.UserQuota{UserID: userID, Username: username, ChecksLeft: m.freeChecks}
		m.users[userID] = u
	}
	if username != "" {
		u.Username = username
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) ConsumeCheck(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok || u.ChecksLeft <= 0 {
		return false, nil
	}
	u.ChecksLeft--
	return true, nil
}

func (m *MemoryStore) SetPremium(_ context.Context, userID int64, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		u = &model.UserQuota{UserID: userID, ChecksLeft: m.freeChecks}
		m.users[userID] = u
	}
	u.IsPremium = true
	u.PremiumUntil = until
	return nil
}

func (m *MemoryStore) EnsureService(_ context.Context, service string, limit, threshold int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.usage[service]; ok {
		u.TotalLimit = limit
		u.AlertThreshold = threshold
		return nil
	}
	m.usage[service] = &model.ServiceUsage{Service: service, TotalLimit: limit, AlertThreshold: threshold}
	return nil
}

func (m *MemoryStore) AddUsage(_ context.Context, service string, n int, today string) (model.ServiceUsage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.usage[service]
	if !ok {
		return model.ServiceUsage{}, false, ErrNotFound
	}
	u.UsedCount += n
	alerted := u.Remaining() <= u.AlertThreshold && u.LastAlertDate != today
	if alerted {
		u.LastAlertDate = today
	}
	return *u, alerted, nil
}

func (m *MemoryStore) ResetUsage(_ context.Context, service string, newLimit *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.usage[service]
	if !ok {
		return ErrNotFound
	}
	u.UsedCount = 0
	u.LastAlertDate = ""
	if newLimit != nil {
		u.TotalLimit = *newLimit
	}
	return nil
}

func (m *MemoryStore) ListUsage(_ context.Context) ([]model.ServiceUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.ServiceUsage, 0, len(m.usage))
	for _, u := range m.usage {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out, nil
}

func (m *MemoryStore) RecordCheck(_ context.Context, rec *model.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := *rec
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.history = append(m.history, r)
	return nil
}

func (m *MemoryStore) CountChecksSince(_ context.Context, t time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range m.history {
		if !r.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error               { return nil }
