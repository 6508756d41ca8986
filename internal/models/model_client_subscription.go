package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/seatledger/pkg/types"
)

// ClientSubscription is a seat: a client's share of a Subscription, resold at
// CustomPrice per month.
type ClientSubscription struct {
	ID             string           `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string           `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscriptionId"`
	ClientID       string           `gorm:"column:client_id;type:uuid;not null;index" json:"clientId"`
	CustomPrice    decimal.Decimal  `gorm:"column:custom_price;type:numeric(12,2);not null" json:"customPrice"`
	JoinedAt       time.Time        `gorm:"column:joined_at;type:date;not null" json:"joinedAt"`
	ActiveUntil    time.Time        `gorm:"column:active_until;type:date;not null" json:"activeUntil"`
	Status         types.SeatStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Version        int64            `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (ClientSubscription) TableName() string { return "client_subscription" }
