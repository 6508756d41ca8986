package autopay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/seatledger/internal/app/service/autopay_run"
	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/metrics"
	"github.com/fatflowers/seatledger/pkg/tool"
	"github.com/fatflowers/seatledger/pkg/types"
)

type SweepResult struct {
	SubscriptionID string    `json:"subscriptionId"`
	NewExpiry      time.Time `json:"newExpiry"`
	RenewalID      string    `json:"renewalId"`
}

type SweepFailure struct {
	SubscriptionID string `json:"subscriptionId"`
	Reason         string `json:"reason"`
}

type SweepReport struct {
	RunID     string         `json:"runId,omitempty"`
	Today     time.Time      `json:"today"`
	Processed int            `json:"processed"`
	Results   []SweepResult  `json:"results"`
	Failures  []SweepFailure `json:"failures"`
	// Skipped counts subscriptions that stopped being due between the scan
	// and their renewal, typically renewed by a concurrent sweep.
	Skipped int `json:"skipped"`
}

// Runner runs one autopay sweep.
type Runner interface {
	Sweep(ctx context.Context, trigger types.AutopayTrigger) (*SweepReport, error)
}

type Sweeper struct {
	cfg     *config.Config
	db      *gorm.DB
	engine  renewal.Engine
	runs    *autopay_run.Service
	log     *zap.SugaredLogger
	metrics *metrics.Business
	tracer  trace.Tracer
	now     func() time.Time
}

func NewSweeper(cfg *config.Config, db *gorm.DB, engine renewal.Engine, runs *autopay_run.Service, log *zap.SugaredLogger, m *metrics.Business) *Sweeper {
	return &Sweeper{
		cfg:     cfg,
		db:      db,
		engine:  engine,
		runs:    runs,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("github.com/fatflowers/seatledger/autopay"),
		now:     time.Now,
	}
}

// Sweep renews every subscription that is autopayable, active and due on
// today. Eligibility comes from persisted state only, so concurrent or
// repeated sweeps renew each subscription at most once per due date.
// Item failures are reported, never returned.
func (s *Sweeper) Sweep(ctx context.Context, trigger types.AutopayTrigger) (*SweepReport, error) {
	start := time.Now()
	if s.cfg.Autopay.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Autopay.Timeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "autopay.Sweep", trace.WithAttributes(attribute.String("trigger", string(trigger))))
	defer span.End()
	defer s.metrics.ObserveProcess("autopay", "sweep", start)

	l := logctx.FromCtx(ctx, s.log)
	today := tool.Today(s.now(), s.cfg.Autopay.Location())
	report := &SweepReport{Today: today, Results: []SweepResult{}, Failures: []SweepFailure{}}

	run := &models.AutopayRun{
		TraceID:   logctx.TraceID(ctx),
		Trigger:   trigger,
		RunDate:   today,
		Status:    types.AutopayRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.runs.Start(ctx, run); err != nil {
		// the sweep itself does not depend on the run log
		l.Warnw("autopay_run_start_failed", "err", err)
	}
	report.RunID = run.ID

	ids, err := s.dueSubscriptions(ctx, today)
	if err != nil {
		s.finish(ctx, run, report, types.AutopayRunStatusFailed)
		l.Errorw("autopay_scan_failed", "err", err)
		return nil, err
	}
	l.Infow("autopay_sweep_started", "run_id", run.ID, "trigger", trigger, "today", today.Format(time.DateOnly), "due", len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			report.Failures = append(report.Failures, SweepFailure{SubscriptionID: id, Reason: "sweep timed out"})
			continue
		}
		res, err := s.engine.AutopaySubscription(ctx, id, today)
		switch {
		case err == nil:
			report.Results = append(report.Results, SweepResult{
				SubscriptionID: id,
				NewExpiry:      res.Subscription.ActiveUntil,
				RenewalID:      res.Renewal.ID,
			})
		case errors.Is(err, renewal.ErrNotEligible):
			report.Skipped++
			l.Infow("autopay_item_skipped", "subscription_id", id, "err", err)
		default:
			report.Failures = append(report.Failures, SweepFailure{SubscriptionID: id, Reason: failureReason(err)})
			l.Errorw("autopay_item_failed", "subscription_id", id, "err", err)
		}
	}
	report.Processed = len(report.Results)

	status := types.AutopayRunStatusCompleted
	if len(report.Failures) > 0 {
		status = types.AutopayRunStatusCompletedWithFailures
	}
	s.finish(ctx, run, report, status)
	s.metrics.SetAutopayRun(report.Processed, len(report.Failures), report.Skipped)

	l.Infow("autopay_sweep_finished",
		"run_id", run.ID,
		"processed", report.Processed,
		"failed", len(report.Failures),
		"skipped", report.Skipped,
		"status", status,
	)
	return report, nil
}

func (s *Sweeper) dueSubscriptions(ctx context.Context, today time.Time) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("is_autopayable = ? AND status = ? AND active_until <= ?", true, types.SubscriptionStatusActive, today).
		Order("active_until, id").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}
	return ids, nil
}

func (s *Sweeper) finish(ctx context.Context, run *models.AutopayRun, report *SweepReport, status types.AutopayRunStatus) {
	if run.ID == "" {
		return
	}
	finished := time.Now().UTC()
	run.Status = status
	run.Processed = report.Processed
	run.Failed = len(report.Failures)
	run.Skipped = report.Skipped
	run.FinishedAt = &finished
	if b, err := json.Marshal(report); err == nil {
		result := datatypes.JSON(b)
		run.Result = &result
	}
	s.runs.Save(ctx, run, nil)
}

// failureReason keeps storage detail out of the report; it is logged instead.
func failureReason(err error) string {
	switch {
	case errors.Is(err, renewal.ErrNotFound):
		return "subscription not found"
	case errors.Is(err, renewal.ErrConcurrencyConflict):
		return "concurrency conflict, retries exhausted"
	case errors.Is(err, renewal.ErrStorage):
		return "storage failure"
	case errors.Is(err, context.DeadlineExceeded):
		return "sweep timed out"
	default:
		return err.Error()
	}
}
