package gormlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestShortCaller(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/home/ci/seatledger/internal/platform/db/postgres.go:38", "internal/platform/db/postgres.go:38"},
		{"/Users/alex/repo/cmd/api/main.go:12", "cmd/api/main.go:12"},
		{"/a/b/c/d.go:1", "b/c/d.go:1"},
		{"d.go:1", "d.go:1"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, shortCaller(tt.in), tt.in)
	}
}

func TestTrace_LevelsByOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core).Sugar(), 10*time.Millisecond, gormlogger.Info)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, nil)
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	l.Trace(ctx, time.Now(), sql, errors.New("boom"))
	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	require.Equal(t, "gorm", entries[0].Message)
	require.Equal(t, "gorm_slow", entries[1].Message)
	require.Equal(t, "gorm_trace", entries[2].Message)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Equal(t, "gorm", entries[3].Message)
}

func TestTrace_Silent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core).Sugar(), 0, gormlogger.Info).LogMode(gormlogger.Silent)
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("x"))
	require.Zero(t, logs.Len())
}
