package handlers

import (
	"github.com/fatflowers/seatledger/internal/app/service/analytics"
	"github.com/fatflowers/seatledger/internal/app/service/autopay"
	"github.com/fatflowers/seatledger/internal/app/service/ledger"
	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/pkg/response"
)

// Concrete envelopes for swagger; swag cannot document generic types.

type RespError struct {
	OK    bool               `json:"ok" example:"false"`
	Error *response.APIError `json:"error"`
}

type RespHealth struct {
	OK   bool         `json:"ok"`
	Data HealthStatus `json:"data"`
}

type RespRenewSeat struct {
	OK   bool                    `json:"ok" example:"true"`
	Data renewal.RenewSeatResult `json:"data"`
}

type RespBulkRenew struct {
	OK   bool                    `json:"ok" example:"true"`
	Data renewal.BulkRenewResult `json:"data"`
}

type RespRenewSubscription struct {
	OK   bool                            `json:"ok" example:"true"`
	Data renewal.RenewSubscriptionResult `json:"data"`
}

type RespSweepReport struct {
	OK   bool                `json:"ok" example:"true"`
	Data autopay.SweepReport `json:"data"`
}

type RespBreakEven struct {
	OK   bool                      `json:"ok" example:"true"`
	Data []*analytics.BreakEvenRow `json:"data"`
}

type RespClientRanking struct {
	OK   bool                    `json:"ok" example:"true"`
	Data analytics.ClientRanking `json:"data"`
}

type RespReceivables struct {
	OK   bool                  `json:"ok" example:"true"`
	Data analytics.Receivables `json:"data"`
}

type RespCashflow struct {
	OK   bool               `json:"ok" example:"true"`
	Data analytics.Cashflow `json:"data"`
}

type RespRenewalLogs struct {
	OK   bool                           `json:"ok" example:"true"`
	Data ledger.ScanRenewalLogsResponse `json:"data"`
}

type RespPlatformRenewals struct {
	OK   bool                                `json:"ok" example:"true"`
	Data ledger.ScanPlatformRenewalsResponse `json:"data"`
}
