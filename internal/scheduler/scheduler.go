// Package scheduler runs the periodic housekeeping tasks: the daily
// API usage digest for the admin chat and the report-cache sweep.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nik997414-ui/Contragent-bot/internal/bot"
	"github.com/nik997414-ui/Contragent-bot/internal/cache"
	"github.com/nik997414-ui/Contragent-bot/internal/quota"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
)

// Notifier delivers digest messages to the admin chat.
type Notifier interface {
	SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Meter   *quota.Meter
	Store   store.Store
	Reports *cache.ReportCache
	Notify  Notifier
	ChatID  int64
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler. chatID receives the daily
// digest; 0 disables delivery.
func NewScheduler(ctx context.Context, meter *quota.Meter, st store.Store, reports *cache.ReportCache, notify Notifier, chatID int64) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Meter:   meter,
		Store:   st,
		Reports: reports,
		Notify:  notify,
		ChatID:  chatID,
		Ctx:     ctx,
	}
}

// RegisterAll registers the digest and cache-sweep tasks.
func (s *Scheduler) RegisterAll(digestCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register usage digest: %w", err)
	}
	// Cache sweep: hourly on the hour
	if _, err := s.Cron.AddFunc("0 0 * * * *", s.sweepTask); err != nil {
		return fmt.Errorf("register cache sweep: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunDigestNow executes the digest task immediately (manual trigger).
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) digestTask() {
	log.Println("[INFO] running usage digest")
	usages, err := s.Meter.Snapshot(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] digest snapshot: %v", err)
		return
	}
	checks, err := s.Store.CountChecksSince(s.Ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("[ERROR] digest history count: %v", err)
		return
	}
	s.trySend(fmt.Sprintf("%s\n\nПроверок за сутки: %d", bot.FormatUsage(usages), checks))
}

func (s *Scheduler) sweepTask() {
	if n := s.Reports.Sweep(); n > 0 {
		log.Printf("[INFO] report cache sweep: %d expired", n)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.ChatID == 0 {
		log.Println("[WARN] digest skipped: no admin chat configured")
		return
	}
	if err := s.Notify.SendWithRetry(s.Ctx, s.ChatID, text, 3); err != nil {
		log.Printf("[ERROR] send digest: %v", err)
	}
}
