package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a purchasable tier of a platform. Cost is the monthly price the
// reseller pays; MaxSeats caps the active seats across every subscription of
// the plan, nil meaning unlimited.
type Plan struct {
	ID         string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	PlatformID string          `gorm:"column:platform_id;type:uuid;not null;index" json:"platformId"`
	Name       string          `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Cost       decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null" json:"cost"`
	MaxSeats   *int            `gorm:"column:max_seats" json:"maxSeats"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (Plan) TableName() string { return "plan" }
