package models

import "time"

// Client is a customer of the reseller.
type Client struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;type:varchar(64);not null;index" json:"ownerId"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Phone     *string   `gorm:"column:phone;type:varchar(32)" json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Client) TableName() string { return "client" }
