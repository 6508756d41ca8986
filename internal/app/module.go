package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/seatledger/internal/app/api/server"
	"github.com/fatflowers/seatledger/internal/app/service/analytics"
	"github.com/fatflowers/seatledger/internal/app/service/autopay"
	"github.com/fatflowers/seatledger/internal/app/service/autopay_run"
	"github.com/fatflowers/seatledger/internal/app/service/ledger"
	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/internal/platform/db"
	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logger"
	"github.com/fatflowers/seatledger/pkg/metrics"
	"github.com/fatflowers/seatledger/pkg/tracing"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	tracing.Module,
	metrics.Module,
	db.Module,
	renewal.Module,
	analytics.Module,
	ledger.Module,
	autopay_run.Module,
	autopay.Module,
	server.Module,
)
