package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

func TestSQLiteStore(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "contragent-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	s, err := New(Config{Driver: "sqlite", SQLitePath: tmpPath, FreeChecks: 3})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	runStoreTests(t, s)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory(3)
	defer s.Close()

	runStoreTests(t, s)
}

func runStoreTests(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("NewUserGetsFreeChecks", func(t *testing.T) {
		u, err := s.GetOrCreateUser(ctx, 100, "ivan")
		if err != nil {
			t.Fatalf("GetOrCreateUser failed: %v", err)
		}
		if u.ChecksLeft != 3 {
			t.Errorf("expected 3 checks for a new user, got %d", u.ChecksLeft)
		}
		if u.IsPremium {
			t.Error("new user must not be premium")
		}
	})

	t.Run("UsernameRefreshed", func(t *testing.T) {
		if _, err := s.GetOrCreateUser(ctx, 101, "old_name"); err != nil {
			t.Fatalf("GetOrCreateUser failed: %v", err)
		}
		u, err := s.GetOrCreateUser(ctx, 101, "new_name")
		if err != nil {
			t.Fatalf("GetOrCreateUser failed: %v", err)
		}
		if u.Username != "new_name" {
			t.Errorf("expected refreshed username, got %q", u.Username)
		}
	})

	t.Run("ConsumeExactlyThreeChecks", func(t *testing.T) {
		if _, err := s.GetOrCreateUser(ctx, 102, ""); err != nil {
			t.Fatalf("GetOrCreateUser failed: %v", err)
		}
		for i := 0; i < 3; i++ {
			ok, err := s.ConsumeCheck(ctx, 102)
			if err != nil {
				t.Fatalf("ConsumeCheck %d failed: %v", i+1, err)
			}
			if !ok {
				t.Fatalf("ConsumeCheck %d: expected grant", i+1)
			}
		}
		ok, err := s.ConsumeCheck(ctx, 102)
		if err != nil {
			t.Fatalf("ConsumeCheck failed: %v", err)
		}
		if ok {
			t.Error("4th ConsumeCheck must be rejected")
		}
	})

	t.Run("ConsumeCheckConcurrent", func(t *testing.T) {
		if _, err := s.GetOrCreateUser(ctx, 103, ""); err != nil {
			t.Fatalf("GetOrCreateUser failed: %v", err)
		}

		const workers = 10
		var wg sync.WaitGroup
		granted := make(chan bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.ConsumeCheck(ctx, 103)
				if err != nil {
					t.Errorf("ConsumeCheck failed: %v", err)
					return
				}
				granted <- ok
			}()
		}
		wg.Wait()
		close(granted)

		n := 0
		for ok := range granted {
			if ok {
				n++
			}
		}
		if n != 3 {
			t.Errorf("expected exactly 3 concurrent grants, got %d", n)
		}
	})

	t.Run("SetPremium", func(t *testing.T) {
		if err := s.SetPremium(ctx, 104, time.Time{}); err != nil {
			t.Fatalf("SetPremium failed: %v", err)
		}
		u, err := s.GetOrCreateUser(ctx, 104, "")
		if err != nil {
			t.Fatalf("GetOrCreateUser failed: %v", err)
		}
		if !u.IsPremium {
			t.Error("expected premium flag set")
		}
		if !u.PremiumActive(time.Now()) {
			t.Error("premium without horizon must be active")
		}
	})

	t.Run("PremiumExpiry", func(t *testing.T) {
		until := time.Now().Add(-time.Hour)
		if err := s.SetPremium(ctx, 105, until); err != nil {
			t.Fatalf("SetPremium failed: %v", err)
		}
		u, err := s.GetOrCreateUser(ctx, 105, "")
		if err != nil {
			t.Fatalf("GetOrCreateUser failed: %v", err)
		}
		if u.PremiumActive(time.Now()) {
			t.Error("expired premium must not be active")
		}
	})

	t.Run("UsageUnknownService", func(t *testing.T) {
		_, _, err := s.AddUsage(ctx, "nosuch", 1, "2026-01-15")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound for unseeded service, got %v", err)
		}
	})

	t.Run("UsageAlertOncePerDay", func(t *testing.T) {
		if err := s.EnsureService(ctx, "svc", 10, 5); err != nil {
			t.Fatalf("EnsureService failed: %v", err)
		}

		// First increments stay above the threshold.
		u, alerted, err := s.AddUsage(ctx, "svc", 3, "2026-01-15")
		if err != nil {
			t.Fatalf("AddUsage failed: %v", err)
		}
		if alerted {
			t.Error("no alert expected while remaining > threshold")
		}
		if u.Remaining() != 7 {
			t.Errorf("expected 7 remaining, got %d", u.Remaining())
		}

		// Crossing the threshold fires exactly one alert per day.
		_, alerted, err = s.AddUsage(ctx, "svc", 3, "2026-01-15")
		if err != nil {
			t.Fatalf("AddUsage failed: %v", err)
		}
		if !alerted {
			t.Error("expected alert on crossing the threshold")
		}
		_, alerted, err = s.AddUsage(ctx, "svc", 1, "2026-01-15")
		if err != nil {
			t.Fatalf("AddUsage failed: %v", err)
		}
		if alerted {
			t.Error("second alert on the same day must be suppressed")
		}

		// A new day alerts again while the budget stays low.
		_, alerted, err = s.AddUsage(ctx, "svc", 1, "2026-01-16")
		if err != nil {
			t.Fatalf("AddUsage failed: %v", err)
		}
		if !alerted {
			t.Error("expected alert on the next day")
		}
	})

	t.Run("ResetUsage", func(t *testing.T) {
		if err := s.EnsureService(ctx, "svc2", 10, 2); err != nil {
			t.Fatalf("EnsureService failed: %v", err)
		}
		if _, _, err := s.AddUsage(ctx, "svc2", 9, "2026-01-15"); err != nil {
			t.Fatalf("AddUsage failed: %v", err)
		}

		newLimit := 20
		if err := s.ResetUsage(ctx, "svc2", &newLimit); err != nil {
			t.Fatalf("ResetUsage failed: %v", err)
		}

		u, alerted, err := s.AddUsage(ctx, "svc2", 1, "2026-01-15")
		if err != nil {
			t.Fatalf("AddUsage failed: %v", err)
		}
		if alerted {
			t.Error("no alert expected after reset")
		}
		if u.TotalLimit != 20 || u.UsedCount != 1 {
			t.Errorf("expected limit=20 used=1 after reset, got limit=%d used=%d", u.TotalLimit, u.UsedCount)
		}

		if err := s.ResetUsage(ctx, "nosuch", nil); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListUsage", func(t *testing.T) {
		us, err := s.ListUsage(ctx)
		if err != nil {
			t.Fatalf("ListUsage failed: %v", err)
		}
		if len(us) < 2 {
			t.Fatalf("expected at least 2 services, got %d", len(us))
		}
		for i := 1; i < len(us); i++ {
			if us[i-1].Service > us[i].Service {
				t.Errorf("usage list not sorted: %q before %q", us[i-1].Service, us[i].Service)
			}
		}
	})

	t.Run("CheckHistory", func(t *testing.T) {
		rec := &model.CheckRecord{
			ID:        "chk-001",
			UserID:    100,
			INN:       "7707083893",
			Verdict:   model.VerdictLow,
			SourcesOK: 4,
			Elapsed:   1200 * time.Millisecond,
			CreatedAt: time.Now(),
		}
		if err := s.RecordCheck(ctx, rec); err != nil {
			t.Fatalf("RecordCheck failed: %v", err)
		}

		n, err := s.CountChecksSince(ctx, time.Now().Add(-time.Minute))
		if err != nil {
			t.Fatalf("CountChecksSince failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 recent check, got %d", n)
		}

		n, err = s.CountChecksSince(ctx, time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("CountChecksSince failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 future checks, got %d", n)
		}
	})
}
