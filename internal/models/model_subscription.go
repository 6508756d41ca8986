package models

import (
	"time"

	"github.com/fatflowers/seatledger/pkg/types"
)

// Subscription is a platform subscription bought by the reseller.
// ActiveUntil only moves forward, and only together with a PlatformRenewal
// inserted in the same transaction. Version is bumped on every update.
type Subscription struct {
	ID            string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	PlanID        string                   `gorm:"column:plan_id;type:uuid;not null;index" json:"planId"`
	Label         string                   `gorm:"column:label;type:varchar(128);not null" json:"label"`
	StartDate     time.Time                `gorm:"column:start_date;type:date;not null" json:"startDate"`
	ActiveUntil   time.Time                `gorm:"column:active_until;type:date;not null;index:idx_subscription_autopay,priority:3" json:"activeUntil"`
	Status        types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null;index:idx_subscription_autopay,priority:2" json:"status"`
	IsAutopayable bool                     `gorm:"column:is_autopayable;not null;default:false;index:idx_subscription_autopay,priority:1" json:"isAutopayable"`
	OwnerSeatID   *string                  `gorm:"column:owner_seat_id;type:uuid" json:"ownerSeatId"`
	Version       int64                    `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// AutopayDue reports whether the subscription should be renewed by the
// autopay sweep on today.
func (s *Subscription) AutopayDue(today time.Time) bool {
	return s != nil &&
		s.IsAutopayable &&
		s.Status == types.SubscriptionStatusActive &&
		!s.ActiveUntil.After(today)
}
