package autopay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/types"
)

type recordingRunner struct {
	mu       sync.Mutex
	triggers []types.AutopayTrigger
	traceIDs []string
}

func (r *recordingRunner) Sweep(ctx context.Context, trigger types.AutopayTrigger) (*SweepReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	r.traceIDs = append(r.traceIDs, logctx.TraceID(ctx))
	return &SweepReport{}, nil
}

func TestScheduler_RunSweepsWithScheduleTrigger(t *testing.T) {
	runner := &recordingRunner{}
	s, err := NewScheduler(config.Default(), runner, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 1)

	s.run()
	require.Equal(t, []types.AutopayTrigger{types.AutopayTriggerSchedule}, runner.triggers)
	require.NotEmpty(t, runner.traceIDs[0])
}

func TestScheduler_InvalidScheduleRejected(t *testing.T) {
	cfg := config.Default()
	cfg.Autopay.Schedule = "every day at five"
	_, err := NewScheduler(cfg, &recordingRunner{}, zap.NewNop().Sugar())
	require.Error(t, err)

	cfg.Autopay.Enabled = false
	s, err := NewScheduler(cfg, &recordingRunner{}, zap.NewNop().Sugar())
	require.NoError(t, err, "a disabled scheduler ignores its schedule")
	require.Empty(t, s.cron.Entries())
}

func TestScheduler_StartStop(t *testing.T) {
	cfg := config.Default()
	cfg.Autopay.Timezone = "Europe/Berlin"
	s, err := NewScheduler(cfg, &recordingRunner{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	s.Start()
	next := s.cron.Entries()[0].Next
	require.Equal(t, 5, next.Hour())
	require.Equal(t, "Europe/Berlin", next.Location().String())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
