package types

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type SeatStatus string

const (
	SeatStatusActive    SeatStatus = "active"
	SeatStatusCancelled SeatStatus = "cancelled"
)

// RenewalSource tells who recorded a platform renewal.
type RenewalSource string

const (
	RenewalSourceManual  RenewalSource = "manual"
	RenewalSourceAutopay RenewalSource = "autopay"
)

type AutopayTrigger string

const (
	AutopayTriggerSchedule AutopayTrigger = "schedule"
	AutopayTriggerHTTP     AutopayTrigger = "http"
)

type AutopayRunStatus string

const (
	AutopayRunStatusRunning               AutopayRunStatus = "running"
	AutopayRunStatusCompleted             AutopayRunStatus = "completed"
	AutopayRunStatusCompletedWithFailures AutopayRunStatus = "completed_with_failures"
	AutopayRunStatusFailed                AutopayRunStatus = "failed"
)
