// Package dbtest opens migrated SQLite ledgers and seeds fixtures for
// package tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/internal/platform/db"
	"github.com/fatflowers/seatledger/pkg/tool"
	"github.com/fatflowers/seatledger/pkg/types"
)

// Open returns a migrated SQLite database in t's temp dir. The pool holds a
// single connection, so code under test must only use the transaction handle
// inside a transaction.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "ledger.db"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(db.Models()...))
	return gdb
}

// Date is a UTC midnight calendar date.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixture seeds ledger rows with sensible defaults.
type Fixture struct {
	t  testing.TB
	db *gorm.DB
}

func NewFixture(t testing.TB, gdb *gorm.DB) *Fixture {
	return &Fixture{t: t, db: gdb}
}

func (f *Fixture) create(v any) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(v).Error)
}

func (f *Fixture) Platform(ownerID, name string) *models.Platform {
	p := &models.Platform{ID: tool.GenerateUUIDV7(), OwnerID: ownerID, Name: name}
	f.create(p)
	return p
}

func (f *Fixture) Plan(platformID, name, cost string, maxSeats *int) *models.Plan {
	p := &models.Plan{
		ID:         tool.GenerateUUIDV7(),
		PlatformID: platformID,
		Name:       name,
		Cost:       decimal.RequireFromString(cost),
		MaxSeats:   maxSeats,
		IsActive:   true,
	}
	f.create(p)
	return p
}

type SubscriptionOption func(*models.Subscription)

func Autopay() SubscriptionOption {
	return func(s *models.Subscription) { s.IsAutopayable = true }
}

func WithSubscriptionStatus(st types.SubscriptionStatus) SubscriptionOption {
	return func(s *models.Subscription) { s.Status = st }
}

func (f *Fixture) Subscription(planID, label string, activeUntil time.Time, opts ...SubscriptionOption) *models.Subscription {
	s := &models.Subscription{
		ID:          tool.GenerateUUIDV7(),
		PlanID:      planID,
		Label:       label,
		StartDate:   tool.AddMonths(activeUntil, -1),
		ActiveUntil: activeUntil,
		Status:      types.SubscriptionStatusActive,
	}
	for _, o := range opts {
		o(s)
	}
	f.create(s)
	return s
}

func (f *Fixture) Client(ownerID, name string) *models.Client {
	c := &models.Client{ID: tool.GenerateUUIDV7(), OwnerID: ownerID, Name: name}
	f.create(c)
	return c
}

func (f *Fixture) Seat(subscriptionID, clientID, price string, activeUntil time.Time, status types.SeatStatus) *models.ClientSubscription {
	s := &models.ClientSubscription{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: subscriptionID,
		ClientID:       clientID,
		CustomPrice:    decimal.RequireFromString(price),
		JoinedAt:       tool.AddMonths(activeUntil, -1),
		ActiveUntil:    activeUntil,
		Status:         status,
	}
	f.create(s)
	return s
}

func (f *Fixture) RenewalLog(seatID, amount string, paidOn time.Time) *models.RenewalLog {
	l := &models.RenewalLog{
		ID:                   tool.GenerateUUIDV7(),
		ClientSubscriptionID: seatID,
		AmountPaid:           decimal.RequireFromString(amount),
		PeriodStart:          paidOn,
		PeriodEnd:            tool.AddMonths(paidOn, 1),
		PaidOn:               paidOn,
	}
	f.create(l)
	return l
}

func (f *Fixture) PlatformRenewal(subscriptionID, amount string, paidOn time.Time) *models.PlatformRenewal {
	r := &models.PlatformRenewal{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: subscriptionID,
		AmountPaid:     decimal.RequireFromString(amount),
		PeriodStart:    paidOn,
		PeriodEnd:      tool.AddMonths(paidOn, 1),
		PaidOn:         paidOn,
		Source:         types.RenewalSourceManual,
	}
	f.create(r)
	return r
}
