// Package fusion orchestrates a full company evaluation: quota check,
// registry resolve, risk scoring and the concurrent fan-out to the
// auxiliary sources and the affiliate search.
package fusion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nik997414-ui/Contragent-bot/internal/affiliates"
	"github.com/nik997414-ui/Contragent-bot/internal/dadata"
	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/quota"
	"github.com/nik997414-ui/Contragent-bot/internal/risk"
)

// ErrQuotaExceeded is returned when the user has no checks left and is
// neither premium nor allow-listed. No external calls are made.
var ErrQuotaExceeded = errors.New("check quota exceeded")

// ErrCompanyNotFound is returned when the registry has no record for
// the tax ID. Fatal to the evaluation; no partial report is produced.
var ErrCompanyNotFound = errors.New("company not found")

// Registry resolves the primary company record.
type Registry interface {
	FindByINN(ctx context.Context, inn string) (*model.Company, error)
}

// SourceSet bundles the auxiliary registry checks.
type SourceSet interface {
	Enabled() bool
	CheckEnforcement(ctx context.Context, inn string) model.SourceResult
	CheckCourts(ctx context.Context, inn string) model.SourceResult
	CheckLimits(ctx context.Context, inn string) model.SourceResult
	CheckDisqualified(ctx context.Context, fio string) model.SourceResult
}

// AffiliateFinder searches companies linked to the manager.
type AffiliateFinder interface {
	Find(ctx context.Context, personName, excludeINN string, limit int) ([]model.Affiliate, error)
}

// QuotaKeeper grants or refuses one evaluation per call.
type QuotaKeeper interface {
	TryConsume(ctx context.Context, userID int64, username string) (bool, error)
}

// UsageMeter counts calls against the shared API budgets.
type UsageMeter interface {
	Record(ctx context.Context, service string, n int) (model.ServiceUsage, bool, error)
}

// AlertFunc receives low-budget notifications raised during metering.
type AlertFunc func(usage model.ServiceUsage)

// Engine runs evaluations. Safe for concurrent use.
type Engine struct {
	registry Registry
	sources  SourceSet
	matcher  AffiliateFinder
	ledger   QuotaKeeper
	meter    UsageMeter
	onAlert  AlertFunc
}

// New assembles an engine. onAlert may be nil.
func New(registry Registry, sources SourceSet, matcher AffiliateFinder, ledger QuotaKeeper, meter UsageMeter, onAlert AlertFunc) *Engine {
	return &Engine{
		registry: registry,
		sources:  sources,
		matcher:  matcher,
		ledger:   ledger,
		meter:    meter,
		onAlert:  onAlert,
	}
}

// Assess evaluates the company behind the tax ID on behalf of a user.
// The quota is consulted first; on rejection no external call is made
// and no budget is consumed. Auxiliary sources run concurrently and
// every attempted call is metered, failed ones included. A report with
// any subset of the sources, even none, is still a valid report.
func (e *Engine) Assess(ctx context.Context, inn string, userID int64, username string) (*model.Report, error) {
	granted, err := e.ledger.TryConsume(ctx, userID, username)
	if err != nil {
		return nil, fmt.Errorf("check quota for %d: %w", userID, err)
	}
	if !granted {
		return nil, ErrQuotaExceeded
	}

	start := time.Now()

	company, err := e.registry.FindByINN(ctx, inn)
	e.recordUsage(ctx, quota.ServiceDaData, 1)
	if err != nil {
		if errors.Is(err, dadata.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("resolve %s: %w", inn, err)
	}

	verdict, factors := risk.Evaluate(company)

	var (
		enforcement model.SourceResult
		courts      model.SourceResult
		limits      model.SourceResult
		disq        model.SourceResult
		linked      []model.Affiliate
	)
	checkDisq := company.ManagerName != ""
	metered := e.sources.Enabled()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		enforcement = e.sources.CheckEnforcement(gctx, inn)
		if metered {
			e.recordUsage(ctx, quota.ServiceAPIAssist, 1)
		}
		return nil
	})
	g.Go(func() error {
		courts = e.sources.CheckCourts(gctx, inn)
		if metered {
			e.recordUsage(ctx, quota.ServiceAPIAssist, 1)
		}
		return nil
	})
	g.Go(func() error {
		limits = e.sources.CheckLimits(gctx, inn)
		if metered {
			e.recordUsage(ctx, quota.ServiceAPIAssist, 1)
		}
		return nil
	})
	if checkDisq {
		g.Go(func() error {
			disq = e.sources.CheckDisqualified(gctx, company.ManagerName)
			if metered {
				e.recordUsage(ctx, quota.ServiceAPIAssist, 1)
			}
			return nil
		})
	}
	if company.ManagerName != "" {
		g.Go(func() error {
			found, err := e.matcher.Find(gctx, company.ManagerName, inn, affiliates.DefaultLimit)
			e.recordUsage(ctx, quota.ServiceDaData, 1)
			if err != nil {
				log.Printf("[WARN] Affiliate search for %s failed: %v", inn, err)
				return nil
			}
			linked = found
			return nil
		})
	}
	_ = g.Wait() // closures never return errors; failures live in the results

	report := &model.Report{
		ID:          uuid.NewString(),
		Company:     company,
		Verdict:     verdict,
		Factors:     factors,
		Sources:     make(map[string]*model.SourceResult, 4),
		Affiliates:  linked,
		GeneratedAt: time.Now(),
		Elapsed:     time.Since(start),
	}
	report.Sources[model.SourceEnforcement] = &enforcement
	report.Sources[model.SourceCourts] = &courts
	report.Sources[model.SourceLimits] = &limits
	if checkDisq {
		report.Sources[model.SourceDisqualification] = &disq
	}
	return report, nil
}

// recordUsage meters n calls and forwards a low-budget alert when the
// meter raises one. Metering failures are logged, never fatal.
func (e *Engine) recordUsage(ctx context.Context, service string, n int) {
	usage, alert, err := e.meter.Record(ctx, service, n)
	if err != nil {
		log.Printf("[WARN] Usage metering for %s failed: %v", service, err)
		return
	}
	if alert && e.onAlert != nil {
		e.onAlert(usage)
	}
}
