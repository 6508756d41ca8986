package autopay_run

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/internal/platform/db/dbtest"
	"github.com/fatflowers/seatledger/pkg/types"
)

func TestStartThenSave(t *testing.T) {
	svc := New(dbtest.Open(t), zap.NewNop().Sugar())

	run := &models.AutopayRun{
		Trigger:   types.AutopayTriggerHTTP,
		RunDate:   dbtest.Date(2026, 3, 10),
		Status:    types.AutopayRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, svc.Start(context.Background(), run))
	require.NotEmpty(t, run.ID)

	ctx, cancel := context.WithCancel(context.Background())
	finished := time.Now().UTC()
	result := datatypes.JSON(`{"processed":1}`)
	run.Status = types.AutopayRunStatusCompleted
	run.Processed = 1
	run.FinishedAt = &finished
	run.Result = &result

	done := make(chan struct{})
	svc.Save(ctx, run, done)
	cancel()
	<-done

	got, err := svc.Get(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, types.AutopayRunStatusCompleted, got.Status)
	require.Equal(t, 1, got.Processed)
	require.NotNil(t, got.FinishedAt)
	require.JSONEq(t, `{"processed":1}`, string(*got.Result))
}

func TestSave_NilIsIgnored(t *testing.T) {
	svc := New(dbtest.Open(t), zap.NewNop().Sugar())
	done := make(chan struct{})
	svc.Save(context.Background(), nil, done)
	<-done
}

func TestStart_FailureLeavesNoID(t *testing.T) {
	gdb := dbtest.Open(t)
	require.NoError(t, gdb.Migrator().DropTable(&models.AutopayRun{}))
	svc := New(gdb, zap.NewNop().Sugar())

	run := &models.AutopayRun{
		Trigger:   types.AutopayTriggerSchedule,
		RunDate:   dbtest.Date(2026, 3, 10),
		Status:    types.AutopayRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	require.Error(t, svc.Start(context.Background(), run))
	require.Empty(t, run.ID)
}
