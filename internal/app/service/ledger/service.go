package ledger

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/types"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Scan request/response. Filters and SortBy use API field names.
type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sortBy"`
	SortOrder string                `json:"sortOrder"`
}

type ScanRenewalLogsResponse struct {
	Items []*models.RenewalLog `json:"items"`
	Total int64                `json:"total"`
}

type ScanPlatformRenewalsResponse struct {
	Items []*models.PlatformRenewal `json:"items"`
	Total int64                     `json:"total"`
}

// History lists the append-only ledger rows of an owner.
type History interface {
	ScanRenewalLogs(ctx context.Context, ownerID string, req *ScanRequest) (*ScanRenewalLogsResponse, error)
	ScanPlatformRenewals(ctx context.Context, ownerID string, req *ScanRequest) (*ScanPlatformRenewalsResponse, error)
}

var renewalLogColumns = map[string]string{
	"id":             "renewal_log.id",
	"seatId":         "renewal_log.client_subscription_id",
	"clientId":       "client_subscription.client_id",
	"subscriptionId": "client_subscription.subscription_id",
	"amountPaid":     "renewal_log.amount_paid",
	"periodStart":    "renewal_log.period_start",
	"periodEnd":      "renewal_log.period_end",
	"paidOn":         "renewal_log.paid_on",
	"createdAt":      "renewal_log.created_at",
}

var platformRenewalColumns = map[string]string{
	"id":             "platform_renewal.id",
	"subscriptionId": "platform_renewal.subscription_id",
	"planId":         "subscription.plan_id",
	"amountPaid":     "platform_renewal.amount_paid",
	"periodStart":    "platform_renewal.period_start",
	"periodEnd":      "platform_renewal.period_end",
	"paidOn":         "platform_renewal.paid_on",
	"source":         "platform_renewal.source",
	"createdAt":      "platform_renewal.created_at",
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(func(s *Service) History { return s }),
)

// ScanRenewalLogs lists client payments on seats of the owner's clients.
func (s *Service) ScanRenewalLogs(ctx context.Context, ownerID string, req *ScanRequest) (*ScanRenewalLogsResponse, error) {
	base := s.db.WithContext(ctx).
		Model(&models.RenewalLog{}).
		Joins("JOIN client_subscription ON client_subscription.id = renewal_log.client_subscription_id").
		Joins("JOIN client ON client.id = client_subscription.client_id").
		Where("client.owner_id = ?", ownerID)

	q, err := prepare(base, req, renewalLogColumns)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, s.storageError(ctx, "failed to count renewal logs", err)
	}
	rows := []*models.RenewalLog{}
	if err := page(q, req, renewalLogColumns, "renewal_log").Select("renewal_log.*").Find(&rows).Error; err != nil {
		return nil, s.storageError(ctx, "failed to list renewal logs", err)
	}
	return &ScanRenewalLogsResponse{Items: rows, Total: total}, nil
}

// ScanPlatformRenewals lists the owner's payments to platforms.
func (s *Service) ScanPlatformRenewals(ctx context.Context, ownerID string, req *ScanRequest) (*ScanPlatformRenewalsResponse, error) {
	base := s.db.WithContext(ctx).
		Model(&models.PlatformRenewal{}).
		Joins("JOIN subscription ON subscription.id = platform_renewal.subscription_id").
		Joins("JOIN plan ON plan.id = subscription.plan_id").
		Joins("JOIN platform ON platform.id = plan.platform_id").
		Where("platform.owner_id = ?", ownerID)

	q, err := prepare(base, req, platformRenewalColumns)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, s.storageError(ctx, "failed to count platform renewals", err)
	}
	rows := []*models.PlatformRenewal{}
	if err := page(q, req, platformRenewalColumns, "platform_renewal").Select("platform_renewal.*").Find(&rows).Error; err != nil {
		return nil, s.storageError(ctx, "failed to list platform renewals", err)
	}
	return &ScanPlatformRenewalsResponse{Items: rows, Total: total}, nil
}

// prepare validates req against the column whitelist and applies its filters.
// The returned query is a session and can be reused for count and find.
func prepare(base *gorm.DB, req *ScanRequest, columns map[string]string) (*gorm.DB, error) {
	if req == nil {
		return nil, renewal.InvalidField("request", "must not be empty")
	}
	if req.Size <= 0 {
		req.Size = DefaultPageSize
	}
	if req.Size > MaxPageSize {
		return nil, renewal.InvalidField("size", fmt.Sprintf("must be at most %d", MaxPageSize))
	}
	if req.From < 0 {
		req.From = 0
	}
	if req.SortBy != "" {
		if _, ok := columns[req.SortBy]; !ok {
			return nil, renewal.InvalidField("sortBy", "unsupported sort field: "+req.SortBy)
		}
	}
	switch req.SortOrder {
	case "", "asc", "desc":
	default:
		return nil, renewal.InvalidField("sortOrder", "must be asc or desc")
	}
	for _, f := range req.Filters {
		if f == nil {
			return nil, renewal.InvalidField("filters", "must not contain null")
		}
		if err := f.Resolve(columns); err != nil {
			return nil, renewal.InvalidField("filters", err.Error())
		}
	}

	q := base
	if len(req.Filters) > 0 {
		q = q.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}
	return q.Session(&gorm.Session{}), nil
}

func page(q *gorm.DB, req *ScanRequest, columns map[string]string, table string) *gorm.DB {
	q = q.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: columns[req.SortBy]}, Desc: req.SortOrder != "asc"}}})
	} else {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: table + ".paid_on"}, Desc: true},
			{Column: clause.Column{Name: table + ".id"}, Desc: true},
		}})
	}
	return q
}

func (s *Service) storageError(ctx context.Context, msg string, err error) error {
	logctx.FromCtx(ctx, s.log).Errorw("ledger_scan_failed", "msg", msg, "err", err)
	return fmt.Errorf("%s: %w: %w", msg, renewal.ErrStorage, err)
}
