package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/cache"
	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/quota"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
)

type fakeNotifier struct {
	chatID int64
	texts  []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, chatID int64, text string, _ int) error {
	f.chatID = chatID
	f.texts = append(f.texts, text)
	return nil
}

func TestRegisterAll(t *testing.T) {
	st := store.NewMemory(3)
	s := NewScheduler(context.Background(), quota.NewMeter(st), st,
		cache.NewReportCache(4, time.Minute), &fakeNotifier{}, 99)

	if err := s.RegisterAll("0 0 9 * * *"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if err := s.RegisterAll("not a cron expression"); err == nil {
		t.Error("expected an error for a malformed cron expression")
	}
}

func TestDigestTask(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(3)
	if err := st.EnsureService(ctx, "dadata", 1000, 100); err != nil {
		t.Fatal(err)
	}
	if _, _, err := st.AddUsage(ctx, "dadata", 5, store.Today(time.Now())); err != nil {
		t.Fatal(err)
	}
	recent := &model.CheckRecord{ID: "a", UserID: 1, INN: "7707083893", Verdict: model.VerdictLow,
		CreatedAt: time.Now().Add(-time.Hour)}
	old := &model.CheckRecord{ID: "b", UserID: 2, INN: "7707083893", Verdict: model.VerdictHigh,
		CreatedAt: time.Now().Add(-48 * time.Hour)}
	if err := st.RecordCheck(ctx, recent); err != nil {
		t.Fatal(err)
	}
	if err := st.RecordCheck(ctx, old); err != nil {
		t.Fatal(err)
	}

	fn := &fakeNotifier{}
	s := NewScheduler(ctx, quota.NewMeter(st), st, cache.NewReportCache(4, time.Minute), fn, 99)

	s.RunDigestNow()

	if len(fn.texts) != 1 {
		t.Fatalf("expected one digest message, got %d", len(fn.texts))
	}
	if fn.chatID != 99 {
		t.Errorf("digest chat = %d, want 99", fn.chatID)
	}
	got := fn.texts[0]
	if !strings.Contains(got, "• dadata: 5 из 1000 (осталось 995)") {
		t.Errorf("digest lacks the usage line:\n%s", got)
	}
	if !strings.Contains(got, "Проверок за сутки: 1") {
		t.Errorf("digest lacks the daily check count:\n%s", got)
	}
}

func TestDigestTaskWithoutChat(t *testing.T) {
	st := store.NewMemory(3)
	fn := &fakeNotifier{}
	s := NewScheduler(context.Background(), quota.NewMeter(st), st,
		cache.NewReportCache(4, time.Minute), fn, 0)

	s.RunDigestNow()

	if len(fn.texts) != 0 {
		t.Errorf("digest sent without a configured chat: %v", fn.texts)
	}
}

func TestSweepTask(t *testing.T) {
	st := store.NewMemory(3)
	reports := cache.NewReportCache(4, 20*time.Millisecond)
	reports.Put(1, "7707083893", &model.Report{ID: "x"})
	s := NewScheduler(context.Background(), quota.NewMeter(st), st, reports, &fakeNotifier{}, 0)

	time.Sleep(40 * time.Millisecond)
	s.sweepTask()

	if reports.Len() != 0 {
		t.Errorf("cache still holds %d entries after the sweep", reports.Len())
	}
}
