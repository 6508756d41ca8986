package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/metrics"
	"github.com/fatflowers/seatledger/pkg/tool"
	"github.com/fatflowers/seatledger/pkg/types"
)

const (
	MaxLookaheadDays = 365
	DefaultMonths    = 12
	MaxMonths        = 60
)

// Reporter serves the derived ledger views. Nothing is stored: every view is
// computed from the ledger at read time.
type Reporter interface {
	BreakEven(ctx context.Context, ownerID string) ([]*BreakEvenRow, error)
	ClientRanking(ctx context.Context, ownerID string) (*ClientRanking, error)
	Receivables(ctx context.Context, ownerID string, lookaheadDays int) (*Receivables, error)
	Cashflow(ctx context.Context, ownerID string, months int) (*Cashflow, error)
}

type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	log     *zap.SugaredLogger
	metrics *metrics.Business
	now     func() time.Time
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, m *metrics.Business) *Service {
	return &Service{cfg: cfg, db: db, log: log, metrics: m, now: time.Now}
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(func(s *Service) Reporter { return s }),
)

// snapshot runs fn in a read-only repeatable-read transaction so that all
// queries of one view observe the same ledger state.
func (s *Service) snapshot(ctx context.Context, view string, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	defer s.metrics.ObserveProcess("analytics", view, start)
	err := s.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("analytics_query_failed", "view", view, "err", err)
		return fmt.Errorf("%w: %w", renewal.ErrStorage, err)
	}
	return nil
}

func (s *Service) today() time.Time {
	return tool.Today(s.now(), s.cfg.Autopay.Location())
}

type BreakEvenRow struct {
	SubscriptionID string                   `json:"subscriptionId"`
	Label          string                   `json:"label"`
	PlanName       string                   `json:"planName"`
	PlatformName   string                   `json:"platformName"`
	Status         types.SubscriptionStatus `json:"status"`
	ActiveUntil    time.Time                `json:"activeUntil"`
	MonthlyCost    decimal.Decimal          `json:"monthlyCost"`
	Revenue        decimal.Decimal          `json:"revenue"`
	Cost           decimal.Decimal          `json:"cost"`
	Net            decimal.Decimal          `json:"net"`
	Profitable     bool                     `json:"profitable"`
	ActiveSeats    int64                    `json:"activeSeats"`
}

type subscriptionRow struct {
	SubscriptionID string
	Label          string
	Status         types.SubscriptionStatus
	ActiveUntil    time.Time
	PlanName       string
	MonthlyCost    decimal.Decimal
	PlatformName   string
}

type sumRow struct {
	SubscriptionID string
	Total          decimal.Decimal
}

type countRow struct {
	SubscriptionID string
	N              int64
}

// BreakEven lists every subscription of the owner with its revenue, cost and
// net, least profitable first.
func (s *Service) BreakEven(ctx context.Context, ownerID string) ([]*BreakEvenRow, error) {
	var (
		subs    []subscriptionRow
		revenue []sumRow
		cost    []sumRow
		seats   []countRow
	)
	err := s.snapshot(ctx, "break_even", func(tx *gorm.DB) error {
		if err := ownedSubscriptions(tx, ownerID).
			Select("subscription.id AS subscription_id, subscription.label, subscription.status, subscription.active_until, " +
				"plan.name AS plan_name, plan.cost AS monthly_cost, platform.name AS platform_name").
			Scan(&subs).Error; err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}
		if err := ownedSubscriptions(tx, ownerID).
			Select("subscription.id AS subscription_id, COALESCE(SUM(renewal_log.amount_paid), 0) AS total").
			Joins("JOIN client_subscription ON client_subscription.subscription_id = subscription.id").
			Joins("JOIN renewal_log ON renewal_log.client_subscription_id = client_subscription.id").
			Group("subscription.id").
			Scan(&revenue).Error; err != nil {
			return fmt.Errorf("failed to sum revenue: %w", err)
		}
		if err := ownedSubscriptions(tx, ownerID).
			Select("subscription.id AS subscription_id, COALESCE(SUM(platform_renewal.amount_paid), 0) AS total").
			Joins("JOIN platform_renewal ON platform_renewal.subscription_id = subscription.id").
			Group("subscription.id").
			Scan(&cost).Error; err != nil {
			return fmt.Errorf("failed to sum cost: %w", err)
		}
		if err := ownedSubscriptions(tx, ownerID).
			Select("subscription.id AS subscription_id, COUNT(client_subscription.id) AS n").
			Joins("JOIN client_subscription ON client_subscription.subscription_id = subscription.id").
			Where("client_subscription.status = ?", types.SeatStatusActive).
			Group("subscription.id").
			Scan(&seats).Error; err != nil {
			return fmt.Errorf("failed to count seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	revenueBySub := lo.Associate(revenue, func(r sumRow) (string, decimal.Decimal) { return r.SubscriptionID, r.Total })
	costBySub := lo.Associate(cost, func(r sumRow) (string, decimal.Decimal) { return r.SubscriptionID, r.Total })
	seatsBySub := lo.Associate(seats, func(r countRow) (string, int64) { return r.SubscriptionID, r.N })

	rows := lo.Map(subs, func(sub subscriptionRow, _ int) *BreakEvenRow {
		rev := revenueBySub[sub.SubscriptionID]
		c := costBySub[sub.SubscriptionID]
		net := rev.Sub(c)
		return &BreakEvenRow{
			SubscriptionID: sub.SubscriptionID,
			Label:          sub.Label,
			PlanName:       sub.PlanName,
			PlatformName:   sub.PlatformName,
			Status:         sub.Status,
			ActiveUntil:    sub.ActiveUntil,
			MonthlyCost:    sub.MonthlyCost,
			Revenue:        rev,
			Cost:           c,
			Net:            net,
			Profitable:     !net.IsNegative(),
			ActiveSeats:    seatsBySub[sub.SubscriptionID],
		}
	})
	SortBreakEven(rows)
	return rows, nil
}

// SortBreakEven orders rows unprofitable first, then by net ascending. Label
// and id break ties so the order is stable across calls.
func SortBreakEven(rows []*BreakEvenRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Profitable != b.Profitable {
			return !a.Profitable
		}
		if c := a.Net.Cmp(b.Net); c != 0 {
			return c < 0
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.SubscriptionID < b.SubscriptionID
	})
}

func ownedSubscriptions(tx *gorm.DB, ownerID string) *gorm.DB {
	return tx.Table("subscription").
		Joins("JOIN plan ON plan.id = subscription.plan_id").
		Joins("JOIN platform ON platform.id = plan.platform_id").
		Where("platform.owner_id = ?", ownerID)
}

type ClientRank struct {
	ClientID     string          `json:"clientId"`
	Name         string          `json:"name"`
	Phone        *string         `json:"phone"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	RenewalCount int64           `json:"renewalCount"`
	SeatCount    int64           `json:"seatCount"`
	// Weight is the client's share of TotalRevenue in percent, 2 decimals.
	Weight decimal.Decimal `json:"weight"`
}

type ClientRanking struct {
	Clients      []*ClientRank   `json:"clients"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// ClientRanking groups all renewal logs of the owner's clients by client,
// highest lifetime value first.
func (s *Service) ClientRanking(ctx context.Context, ownerID string) (*ClientRanking, error) {
	var clients []*ClientRank
	err := s.snapshot(ctx, "client_ranking", func(tx *gorm.DB) error {
		return tx.Table("client").
			Select("client.id AS client_id, client.name, client.phone, "+
				"COALESCE(SUM(renewal_log.amount_paid), 0) AS total_paid, "+
				"COUNT(renewal_log.id) AS renewal_count, "+
				"COUNT(DISTINCT client_subscription.id) AS seat_count").
			Joins("JOIN client_subscription ON client_subscription.client_id = client.id").
			Joins("JOIN renewal_log ON renewal_log.client_subscription_id = client_subscription.id").
			Where("client.owner_id = ?", ownerID).
			Group("client.id, client.name, client.phone").
			Scan(&clients).Error
	})
	if err != nil {
		return nil, err
	}

	out := &ClientRanking{Clients: clients, TotalRevenue: decimal.Zero}
	if out.Clients == nil {
		out.Clients = []*ClientRank{}
	}
	for _, c := range out.Clients {
		out.TotalRevenue = out.TotalRevenue.Add(c.TotalPaid)
	}
	hundred := decimal.NewFromInt(100)
	for _, c := range out.Clients {
		c.Weight = decimal.Zero
		if out.TotalRevenue.IsPositive() {
			c.Weight = c.TotalPaid.Mul(hundred).Div(out.TotalRevenue).Round(2)
		}
	}
	sort.SliceStable(out.Clients, func(i, j int) bool {
		a, b := out.Clients[i], out.Clients[j]
		if c := a.TotalPaid.Cmp(b.TotalPaid); c != 0 {
			return c > 0
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ClientID < b.ClientID
	})
	return out, nil
}

type ReceivableItem struct {
	SeatID            string          `json:"seatId"`
	ActiveUntil       time.Time       `json:"activeUntil"`
	CustomPrice       decimal.Decimal `json:"customPrice"`
	ClientID          string          `json:"clientId"`
	ClientName        string          `json:"clientName"`
	ClientPhone       *string         `json:"clientPhone"`
	SubscriptionID    string          `json:"subscriptionId"`
	SubscriptionLabel string          `json:"subscriptionLabel"`
	PlanName          string          `json:"planName"`
	PlatformName      string          `json:"platformName"`
	DaysOverdue       int             `json:"daysOverdue,omitempty"`
	DaysLeft          *int            `json:"daysLeft,omitempty"`
}

type Receivables struct {
	Today         time.Time         `json:"today"`
	LookaheadDays int               `json:"lookaheadDays"`
	Overdue       []*ReceivableItem `json:"overdue"`
	ExpiringSoon  []*ReceivableItem `json:"expiringSoon"`
}

// Receivables buckets the owner's active seats into overdue (active_until
// before today) and expiring within lookaheadDays. A negative lookahead uses
// the configured default.
func (s *Service) Receivables(ctx context.Context, ownerID string, lookaheadDays int) (*Receivables, error) {
	if lookaheadDays < 0 {
		lookaheadDays = s.cfg.Analytics.ReceivablesLookaheadDays
	}
	if lookaheadDays > MaxLookaheadDays {
		return nil, renewal.InvalidField("days", fmt.Sprintf("must be at most %d", MaxLookaheadDays))
	}
	today := s.today()
	horizon := today.AddDate(0, 0, lookaheadDays)

	var rows []*ReceivableItem
	err := s.snapshot(ctx, "receivables", func(tx *gorm.DB) error {
		return tx.Table("client_subscription").
			Select("client_subscription.id AS seat_id, client_subscription.active_until, client_subscription.custom_price, "+
				"client.id AS client_id, client.name AS client_name, client.phone AS client_phone, "+
				"subscription.id AS subscription_id, subscription.label AS subscription_label, "+
				"plan.name AS plan_name, platform.name AS platform_name").
			Joins("JOIN client ON client.id = client_subscription.client_id").
			Joins("JOIN subscription ON subscription.id = client_subscription.subscription_id").
			Joins("JOIN plan ON plan.id = subscription.plan_id").
			Joins("JOIN platform ON platform.id = plan.platform_id").
			Where("client.owner_id = ? AND client_subscription.status = ?", ownerID, types.SeatStatusActive).
			Where("client_subscription.active_until <= ?", horizon).
			Order("client_subscription.active_until, client_subscription.id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := &Receivables{
		Today:         today,
		LookaheadDays: lookaheadDays,
		Overdue:       []*ReceivableItem{},
		ExpiringSoon:  []*ReceivableItem{},
	}
	for _, r := range rows {
		if overdue := tool.DaysBetween(r.ActiveUntil, today); overdue > 0 {
			r.DaysOverdue = overdue
			out.Overdue = append(out.Overdue, r)
			continue
		}
		if left := tool.DaysBetween(today, r.ActiveUntil); left <= lookaheadDays {
			r.DaysLeft = &left
			out.ExpiringSoon = append(out.ExpiringSoon, r)
		}
	}
	return out, nil
}

type CashflowMonth struct {
	// Month is formatted YYYY-MM.
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Net     decimal.Decimal `json:"net"`
}

type Cashflow struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	Months       []*CashflowMonth `json:"months"`
	TotalRevenue decimal.Decimal  `json:"totalRevenue"`
	TotalCost    decimal.Decimal  `json:"totalCost"`
	TotalNet     decimal.Decimal  `json:"totalNet"`
}

type payment struct {
	PaidOn time.Time
	Amount decimal.Decimal
}

// Cashflow reports money in (renewal logs) and out (platform renewals) per
// calendar month of payment over the last months months, current included.
// Zero falls back to DefaultMonths.
func (s *Service) Cashflow(ctx context.Context, ownerID string, months int) (*Cashflow, error) {
	if months == 0 {
		months = DefaultMonths
	}
	if months < 1 || months > MaxMonths {
		return nil, renewal.InvalidField("months", fmt.Sprintf("must be between 1 and %d", MaxMonths))
	}
	today := s.today()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	var in, out []payment
	err := s.snapshot(ctx, "cashflow", func(tx *gorm.DB) error {
		if err := tx.Table("renewal_log").
			Select("renewal_log.paid_on, renewal_log.amount_paid AS amount").
			Joins("JOIN client_subscription ON client_subscription.id = renewal_log.client_subscription_id").
			Joins("JOIN client ON client.id = client_subscription.client_id").
			Where("client.owner_id = ? AND renewal_log.paid_on >= ? AND renewal_log.paid_on <= ?", ownerID, from, today).
			Scan(&in).Error; err != nil {
			return fmt.Errorf("failed to list renewal logs: %w", err)
		}
		if err := ownedSubscriptions(tx, ownerID).
			Select("platform_renewal.paid_on, platform_renewal.amount_paid AS amount").
			Joins("JOIN platform_renewal ON platform_renewal.subscription_id = subscription.id").
			Where("platform_renewal.paid_on >= ? AND platform_renewal.paid_on <= ?", from, today).
			Scan(&out).Error; err != nil {
			return fmt.Errorf("failed to list platform renewals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	buckets := make([]*CashflowMonth, months)
	index := make(map[string]*CashflowMonth, months)
	for i := range buckets {
		key := from.AddDate(0, i, 0).Format("2006-01")
		buckets[i] = &CashflowMonth{Month: key, Revenue: decimal.Zero, Cost: decimal.Zero}
		index[key] = buckets[i]
	}
	for _, p := range in {
		if b, ok := index[p.PaidOn.Format("2006-01")]; ok {
			b.Revenue = b.Revenue.Add(p.Amount)
		}
	}
	for _, p := range out {
		if b, ok := index[p.PaidOn.Format("2006-01")]; ok {
			b.Cost = b.Cost.Add(p.Amount)
		}
	}

	res := &Cashflow{From: from, To: today, Months: buckets, TotalRevenue: decimal.Zero, TotalCost: decimal.Zero}
	for _, b := range buckets {
		b.Net = b.Revenue.Sub(b.Cost)
		res.TotalRevenue = res.TotalRevenue.Add(b.Revenue)
		res.TotalCost = res.TotalCost.Add(b.Cost)
	}
	res.TotalNet = res.TotalRevenue.Sub(res.TotalCost)
	return res, nil
}
