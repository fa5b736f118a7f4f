package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/affiliates"
	"github.com/nik997414-ui/Contragent-bot/internal/bot"
	"github.com/nik997414-ui/Contragent-bot/internal/cache"
	"github.com/nik997414-ui/Contragent-bot/internal/config"
	"github.com/nik997414-ui/Contragent-bot/internal/dadata"
	"github.com/nik997414-ui/Contragent-bot/internal/fusion"
	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/ops"
	"github.com/nik997414-ui/Contragent-bot/internal/quota"
	"github.com/nik997414-ui/Contragent-bot/internal/report"
	"github.com/nik997414-ui/Contragent-bot/internal/scheduler"
	"github.com/nik997414-ui/Contragent-bot/internal/sources"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
	"github.com/nik997414-ui/Contragent-bot/internal/telegram"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] Contragent bot starting...")

	cfgPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init store
	st, err := store.New(store.Config{
		Driver:      cfg.Database.Driver,
		SQLitePath:  cfg.Database.SQLitePath,
		PostgresDSN: cfg.Database.PostgresDSN,
		FreeChecks:  cfg.Quota.FreeChecks,
	})
	if err != nil {
		log.Fatalf("[FATAL] init store: %v", err)
	}
	defer st.Close()
	log.Printf("[INFO] store: %s", cfg.Database.Driver)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the metered service budgets
	for name, budget := range cfg.Usage.Services {
		if err := st.EnsureService(ctx, name, budget.Limit, budget.AlertThreshold); err != nil {
			log.Fatalf("[FATAL] seed usage counter %s: %v", name, err)
		}
	}

	ledger := quota.NewLedger(st, cfg.Telegram.AdminUsernames)
	meter := quota.NewMeter(st)

	// Init external clients
	registry := dadata.New(cfg.DaData.BaseURL, cfg.DaData.APIKey, cfg.DaData.SecretKey)
	srcs := sources.New(cfg.APIAssist.BaseURL, cfg.APIAssist.Key, cfg.Proxy)
	if !srcs.Enabled() {
		log.Println("[WARN] api-assist key not set, auxiliary sources disabled")
	}
	matcher := affiliates.NewMatcher(registry)

	tg := telegram.NewClient(cfg.Telegram.BotToken, cfg.Proxy)
	reports := cache.NewReportCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.ReportTTLMinutes)*time.Minute)
	pdf := report.NewPDF(cfg.PDF.FontDir)

	// The engine alerts through the bot; the bot evaluates through the
	// engine. The closure breaks the construction cycle.
	var b *bot.Bot
	engine := fusion.New(registry, srcs, matcher, ledger, meter, func(u model.ServiceUsage) {
		b.UsageAlert(u)
	})
	b = bot.New(cfg, tg, engine, ledger, meter, st, reports, pdf)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, meter, st, reports, tg, b.AdminChatID())
	if err := sched.RegisterAll(cfg.Usage.DigestCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Ops server
	if cfg.Ops.ListenAddr != "" {
		opsSrv := ops.NewServer(cfg.Ops.ListenAddr, st, meter, version)
		go func() {
			log.Printf("[INFO] ops server listening on %s", cfg.Ops.ListenAddr)
			if err := opsSrv.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("[ERROR] ops server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := opsSrv.Shutdown(shutdownCtx); err != nil {
				log.Printf("[WARN] ops server shutdown: %v", err)
			}
		}()
	}

	// Start Telegram polling
	go tg.StartPolling(ctx, b.HandleUpdate)
	log.Println("[INFO] Telegram polling started")

	// Optional: send the usage digest immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, sending usage digest now")
		go sched.RunDigestNow()
	}

	log.Println("[INFO] Contragent bot is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] Contragent bot stopped")
}
