package models

import "time"

// Platform is a vendor the reseller buys seats from (e.g. a streaming service).
type Platform struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;type:varchar(64);not null;index" json:"ownerId"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Platform) TableName() string { return "platform" }
