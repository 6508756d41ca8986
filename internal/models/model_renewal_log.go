package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RenewalLog is an append-only record of a client payment covering
// [PeriodStart, PeriodEnd) of a seat.
type RenewalLog struct {
	ID                   string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ClientSubscriptionID string          `gorm:"column:client_subscription_id;type:uuid;not null;index" json:"clientSubscriptionId"`
	AmountPaid           decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null" json:"amountPaid"`
	PeriodStart          time.Time       `gorm:"column:period_start;type:date;not null" json:"periodStart"`
	PeriodEnd            time.Time       `gorm:"column:period_end;type:date;not null" json:"periodEnd"`
	PaidOn               time.Time       `gorm:"column:paid_on;type:date;not null;index" json:"paidOn"`
	Notes                *string         `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt            time.Time       `json:"createdAt"`
}

func (RenewalLog) TableName() string { return "renewal_log" }
