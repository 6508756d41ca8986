package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/seatledger/pkg/types"
)

// PlatformRenewal is an append-only record of what the reseller paid the
// platform for [PeriodStart, PeriodEnd) of a subscription.
type PlatformRenewal struct {
	ID             string              `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string              `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscriptionId"`
	AmountPaid     decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null" json:"amountPaid"`
	PeriodStart    time.Time           `gorm:"column:period_start;type:date;not null" json:"periodStart"`
	PeriodEnd      time.Time           `gorm:"column:period_end;type:date;not null" json:"periodEnd"`
	PaidOn         time.Time           `gorm:"column:paid_on;type:date;not null;index" json:"paidOn"`
	Notes          *string             `gorm:"column:notes;type:text" json:"notes"`
	Source         types.RenewalSource `gorm:"column:source;type:varchar(32);not null" json:"source"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func (PlatformRenewal) TableName() string { return "platform_renewal" }
