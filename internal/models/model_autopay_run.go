package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/seatledger/pkg/types"
)

// AutopayRun is the persisted report of one autopay sweep.
type AutopayRun struct {
	ID         string                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TraceID    string                 `gorm:"column:trace_id;type:varchar(128)" json:"traceId"`
	Trigger    types.AutopayTrigger   `gorm:"column:trigger_source;type:varchar(32);not null" json:"trigger"`
	RunDate    time.Time              `gorm:"column:run_date;type:date;not null;index" json:"runDate"`
	Status     types.AutopayRunStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	Processed  int                    `gorm:"column:processed;not null;default:0" json:"processed"`
	Failed     int                    `gorm:"column:failed;not null;default:0" json:"failed"`
	Skipped    int                    `gorm:"column:skipped;not null;default:0" json:"skipped"`
	Result     *datatypes.JSON        `gorm:"column:result;type:jsonb" json:"result"`
	StartedAt  time.Time              `gorm:"column:started_at;not null" json:"startedAt"`
	FinishedAt *time.Time             `gorm:"column:finished_at" json:"finishedAt"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

func (AutopayRun) TableName() string { return "autopay_run" }
