package autopay

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/tool"
	"github.com/fatflowers/seatledger/pkg/types"
)

// Scheduler triggers a sweep on the configured cron schedule. Runs never
// overlap within a process; overlap across processes is harmless because the
// sweep is idempotent.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	log     *zap.SugaredLogger
	enabled bool
}

func NewScheduler(cfg *config.Config, runner Runner, log *zap.SugaredLogger) (*Scheduler, error) {
	cl := cronLogger{log: log.With("component", "autopay_scheduler")}
	s := &Scheduler{
		runner:  runner,
		log:     log,
		enabled: cfg.Autopay.Enabled,
		cron: cron.New(
			cron.WithLocation(cfg.Autopay.Location()),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if !s.enabled {
		return s, nil
	}
	if _, err := s.cron.AddFunc(cfg.Autopay.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid autopay.schedule %q: %w", cfg.Autopay.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx := logctx.WithTraceID(context.Background(), tool.GenerateUUIDV7())
	if _, err := s.runner.Sweep(ctx, types.AutopayTriggerSchedule); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("autopay_scheduled_sweep_failed", "err", err)
	}
}

func (s *Scheduler) Start() {
	if !s.enabled {
		s.log.Infow("autopay_scheduler_disabled")
		return
	}
	s.cron.Start()
	s.log.Infow("autopay_scheduler_started", "next", s.cron.Entries()[0].Next)
}

// Stop stops scheduling and waits for a running sweep, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registerScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Errorw(msg, append(keysAndValues, "err", err)...)
}

var Module = fx.Options(
	fx.Provide(NewSweeper),
	fx.Provide(func(s *Sweeper) Runner { return s }),
	fx.Provide(NewScheduler),
	fx.Invoke(registerScheduler),
)
