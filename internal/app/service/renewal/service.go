package renewal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/metrics"
	"github.com/fatflowers/seatledger/pkg/tool"
	"github.com/fatflowers/seatledger/pkg/types"
)

const (
	kindSeat         = "seat"
	kindSubscription = "subscription"
	kindAutopay      = "autopay"
)

// maxAmount is the largest value a numeric(12,2) money column holds.
var maxAmount = decimal.RequireFromString("9999999999.99")

type RenewSeatRequest struct {
	// OwnerID scopes the lookup to seats whose client belongs to the owner.
	// Empty means system scope.
	OwnerID    string
	SeatID     string
	AmountPaid decimal.Decimal
	Months     int
	Notes      *string
}

type RenewSeatResult struct {
	Seat *models.ClientSubscription `json:"seat"`
	Log  *models.RenewalLog         `json:"log"`
}

type RenewSubscriptionRequest struct {
	OwnerID        string
	SubscriptionID string
	AmountPaid     decimal.Decimal
	Notes          *string
}

type RenewSubscriptionResult struct {
	Subscription *models.Subscription    `json:"subscription"`
	Renewal      *models.PlatformRenewal `json:"renewal"`
}

// Engine is the transactional renewal API used by the HTTP boundary and the
// autopay sweeper.
type Engine interface {
	RenewSeat(ctx context.Context, req *RenewSeatRequest) (*RenewSeatResult, error)
	RenewSeats(ctx context.Context, req *BulkRenewRequest) (*BulkRenewResult, error)
	RenewSubscription(ctx context.Context, req *RenewSubscriptionRequest) (*RenewSubscriptionResult, error)
	AutopaySubscription(ctx context.Context, subscriptionID string, today time.Time) (*RenewSubscriptionResult, error)
}

type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	log     *zap.SugaredLogger
	metrics *metrics.Business
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, m *metrics.Business) *Service {
	return &Service{
		cfg:     cfg,
		db:      db,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("github.com/fatflowers/seatledger/renewal"),
		now:     time.Now,
	}
}

// Today returns the current business date.
func (s *Service) Today() time.Time {
	return tool.Today(s.now(), s.cfg.Autopay.Location())
}

// RenewSeat extends a seat by req.Months calendar months from its current
// active_until and records the payment, atomically.
func (s *Service) RenewSeat(ctx context.Context, req *RenewSeatRequest) (*RenewSeatResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "renewal.RenewSeat", trace.WithAttributes(
		attribute.String("seat.id", req.SeatID),
		attribute.Int("months", req.Months),
	))
	defer span.End()

	if err := s.validateSeat(req, "seatId"); err != nil {
		s.observe(span, kindSeat, start, err)
		return nil, err
	}

	today := s.Today()
	var res *RenewSeatResult
	err := s.withRetry(ctx, kindSeat, func(tx *gorm.DB) error {
		r, err := s.renewSeatTx(tx, req, today)
		res = r
		return err
	})
	s.observe(span, kindSeat, start, err)
	if err != nil {
		s.logFailure(ctx, "seat_renew_failed", err, "seat_id", req.SeatID)
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("seat_renewed",
		"seat_id", res.Seat.ID,
		"months", req.Months,
		"amount_paid", res.Log.AmountPaid.String(),
		"period_start", res.Log.PeriodStart.Format(time.DateOnly),
		"period_end", res.Log.PeriodEnd.Format(time.DateOnly),
	)
	return res, nil
}

func (s *Service) renewSeatTx(tx *gorm.DB, req *RenewSeatRequest, today time.Time) (*RenewSeatResult, error) {
	var seat models.ClientSubscription
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", req.SeatID).
		First(&seat).Error; err != nil {
		return nil, fmt.Errorf("failed to load seat %s: %w", req.SeatID, err)
	}

	if req.OwnerID != "" {
		var client models.Client
		if err := tx.Select("id", "owner_id").Where("id = ?", seat.ClientID).First(&client).Error; err != nil {
			return nil, fmt.Errorf("failed to load client of seat %s: %w", seat.ID, err)
		}
		if client.OwnerID != req.OwnerID {
			return nil, fmt.Errorf("seat %s: %w", seat.ID, ErrNotFound)
		}
	}

	var sub models.Subscription
	if err := tx.Where("id = ?", seat.SubscriptionID).First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription of seat %s: %w", seat.ID, err)
	}
	if sub.Status == types.SubscriptionStatusCancelled {
		return nil, fmt.Errorf("seat %s belongs to subscription %s: %w", seat.ID, sub.ID, ErrSubscriptionCancelled)
	}

	if seat.Status == types.SeatStatusCancelled {
		if err := checkSeatLimit(tx, sub.PlanID); err != nil {
			return nil, err
		}
		seat.Status = types.SeatStatusActive
	}

	newEnd := tool.AddMonths(seat.ActiveUntil, req.Months)
	entry := &models.RenewalLog{
		ID:                   tool.GenerateUUIDV7(),
		ClientSubscriptionID: seat.ID,
		AmountPaid:           req.AmountPaid,
		PeriodStart:          seat.ActiveUntil,
		PeriodEnd:            newEnd,
		PaidOn:               today,
		Notes:                req.Notes,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to insert renewal log: %w", err)
	}

	upd := tx.Model(&models.ClientSubscription{}).
		Where("id = ? AND version = ?", seat.ID, seat.Version).
		Updates(map[string]any{
			"active_until": newEnd,
			"status":       seat.Status,
			"version":      seat.Version + 1,
		})
	if upd.Error != nil {
		return nil, fmt.Errorf("failed to update seat %s: %w", seat.ID, upd.Error)
	}
	if upd.RowsAffected == 0 {
		return nil, fmt.Errorf("seat %s changed during renewal: %w", seat.ID, ErrConcurrencyConflict)
	}

	var updated models.ClientSubscription
	if err := tx.Where("id = ?", seat.ID).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload seat %s: %w", seat.ID, err)
	}
	return &RenewSeatResult{Seat: &updated, Log: entry}, nil
}

// checkSeatLimit fails when the plan already has max_seats active seats.
// The plan row is locked so concurrent reactivations are serialized.
func checkSeatLimit(tx *gorm.DB, planID string) error {
	var plan models.Plan
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", planID).First(&plan).Error; err != nil {
		return fmt.Errorf("failed to load plan %s: %w", planID, err)
	}
	if plan.MaxSeats == nil {
		return nil
	}
	var active int64
	if err := tx.Model(&models.ClientSubscription{}).
		Joins("JOIN subscription ON subscription.id = client_subscription.subscription_id").
		Where("subscription.plan_id = ? AND client_subscription.status = ?", planID, types.SeatStatusActive).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to count active seats of plan %s: %w", planID, err)
	}
	if active >= int64(*plan.MaxSeats) {
		return fmt.Errorf("plan %s has %d of %d seats active: %w", planID, active, *plan.MaxSeats, ErrSeatLimitReached)
	}
	return nil
}

// RenewSubscription extends a platform subscription by exactly one month and
// records what the owner paid the platform.
func (s *Service) RenewSubscription(ctx context.Context, req *RenewSubscriptionRequest) (*RenewSubscriptionResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "renewal.RenewSubscription", trace.WithAttributes(
		attribute.String("subscription.id", req.SubscriptionID),
	))
	defer span.End()

	var fe fieldErrors
	if _, err := uuid.Parse(req.SubscriptionID); err != nil {
		fe.add("subscriptionId", "must be a valid id")
	}
	validateAmount(&fe, req.AmountPaid)
	if err := fe.err(); err != nil {
		s.observe(span, kindSubscription, start, err)
		return nil, err
	}

	today := s.Today()
	var res *RenewSubscriptionResult
	err := s.withRetry(ctx, kindSubscription, func(tx *gorm.DB) error {
		r, err := s.renewSubscriptionTx(tx, req, today)
		res = r
		return err
	})
	s.observe(span, kindSubscription, start, err)
	if err != nil {
		s.logFailure(ctx, "subscription_renew_failed", err, "subscription_id", req.SubscriptionID)
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_renewed",
		"subscription_id", res.Subscription.ID,
		"amount_paid", res.Renewal.AmountPaid.String(),
		"period_end", res.Renewal.PeriodEnd.Format(time.DateOnly),
	)
	return res, nil
}

func (s *Service) renewSubscriptionTx(tx *gorm.DB, req *RenewSubscriptionRequest, today time.Time) (*RenewSubscriptionResult, error) {
	var sub models.Subscription
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", req.SubscriptionID).
		First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription %s: %w", req.SubscriptionID, err)
	}

	if req.OwnerID != "" {
		var owner struct{ OwnerID string }
		if err := tx.Table("plan").
			Select("platform.owner_id AS owner_id").
			Joins("JOIN platform ON platform.id = plan.platform_id").
			Where("plan.id = ?", sub.PlanID).
			Take(&owner).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve owner of subscription %s: %w", sub.ID, err)
		}
		if owner.OwnerID != req.OwnerID {
			return nil, fmt.Errorf("subscription %s: %w", sub.ID, ErrNotFound)
		}
	}

	if sub.Status == types.SubscriptionStatusCancelled {
		return nil, fmt.Errorf("subscription %s: %w", sub.ID, ErrSubscriptionCancelled)
	}

	newEnd := tool.AddMonths(sub.ActiveUntil, 1)
	renewal := &models.PlatformRenewal{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		AmountPaid:     req.AmountPaid,
		PeriodStart:    sub.ActiveUntil,
		PeriodEnd:      newEnd,
		PaidOn:         today,
		Notes:          req.Notes,
		Source:         types.RenewalSourceManual,
	}
	if err := tx.Create(renewal).Error; err != nil {
		return nil, fmt.Errorf("failed to insert platform renewal: %w", err)
	}

	// An expired subscription becomes active again once paid for.
	upd := tx.Model(&models.Subscription{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Updates(map[string]any{
			"active_until": newEnd,
			"status":       types.SubscriptionStatusActive,
			"version":      sub.Version + 1,
		})
	if upd.Error != nil {
		return nil, fmt.Errorf("failed to update subscription %s: %w", sub.ID, upd.Error)
	}
	if upd.RowsAffected == 0 {
		return nil, fmt.Errorf("subscription %s changed during renewal: %w", sub.ID, ErrConcurrencyConflict)
	}

	var updated models.Subscription
	if err := tx.Where("id = ?", sub.ID).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload subscription %s: %w", sub.ID, err)
	}
	return &RenewSubscriptionResult{Subscription: &updated, Renewal: renewal}, nil
}

// AutopaySubscription renews one autopayable subscription by one month at the
// plan cost. The eligibility predicate is re-checked under the row lock and
// again by the conditional update, so a subscription already advanced past
// today by another sweep yields ErrNotEligible instead of a second renewal.
func (s *Service) AutopaySubscription(ctx context.Context, subscriptionID string, today time.Time) (*RenewSubscriptionResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "renewal.AutopaySubscription", trace.WithAttributes(
		attribute.String("subscription.id", subscriptionID),
	))
	defer span.End()

	today = tool.TruncateDay(today)
	var res *RenewSubscriptionResult
	err := s.withRetry(ctx, kindAutopay, func(tx *gorm.DB) error {
		r, err := s.autopayTx(tx, subscriptionID, today)
		res = r
		return err
	})
	s.observe(span, kindAutopay, start, err)
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_autopaid",
		"subscription_id", subscriptionID,
		"amount_paid", res.Renewal.AmountPaid.String(),
		"period_end", res.Renewal.PeriodEnd.Format(time.DateOnly),
	)
	return res, nil
}

func (s *Service) autopayTx(tx *gorm.DB, subscriptionID string, today time.Time) (*RenewSubscriptionResult, error) {
	var sub models.Subscription
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", subscriptionID).
		First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription %s: %w", subscriptionID, err)
	}
	if !sub.AutopayDue(today) {
		return nil, fmt.Errorf("subscription %s active until %s: %w", sub.ID, sub.ActiveUntil.Format(time.DateOnly), ErrNotEligible)
	}

	var plan models.Plan
	if err := tx.Where("id = ?", sub.PlanID).First(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", sub.PlanID, err)
	}

	newEnd := tool.AddMonths(sub.ActiveUntil, 1)
	renewal := &models.PlatformRenewal{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		AmountPaid:     plan.Cost,
		PeriodStart:    sub.ActiveUntil,
		PeriodEnd:      newEnd,
		PaidOn:         today,
		Source:         types.RenewalSourceAutopay,
	}
	if err := tx.Create(renewal).Error; err != nil {
		return nil, fmt.Errorf("failed to insert platform renewal: %w", err)
	}

	upd := tx.Model(&models.Subscription{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Where("active_until <= ? AND status = ? AND is_autopayable = ?", today, types.SubscriptionStatusActive, true).
		Updates(map[string]any{
			"active_until": newEnd,
			"version":      sub.Version + 1,
		})
	if upd.Error != nil {
		return nil, fmt.Errorf("failed to update subscription %s: %w", sub.ID, upd.Error)
	}
	if upd.RowsAffected == 0 {
		// renewed elsewhere since the lock: skip rather than retry
		var current models.Subscription
		if err := tx.Where("id = ?", sub.ID).First(&current).Error; err != nil {
			return nil, fmt.Errorf("failed to reload subscription %s: %w", sub.ID, err)
		}
		if !current.AutopayDue(today) {
			return nil, fmt.Errorf("subscription %s advanced to %s during autopay: %w", sub.ID, current.ActiveUntil.Format(time.DateOnly), ErrNotEligible)
		}
		return nil, fmt.Errorf("subscription %s changed during autopay: %w", sub.ID, ErrConcurrencyConflict)
	}

	sub.ActiveUntil = newEnd
	sub.Version++
	return &RenewSubscriptionResult{Subscription: &sub, Renewal: renewal}, nil
}

// withRetry runs fn in a transaction, retrying on ErrConcurrencyConflict with
// linear backoff. Every other error is returned after the first attempt.
func (s *Service) withRetry(ctx context.Context, kind string, fn func(tx *gorm.DB) error) error {
	attempts := s.cfg.Renewal.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = classify(s.db.WithContext(ctx).Transaction(fn))
		if !errors.Is(err, ErrConcurrencyConflict) || attempt == attempts {
			break
		}
		s.metrics.CountRetry(kind)
		logctx.FromCtx(ctx, s.log).Infow("renewal_retry", "kind", kind, "attempt", attempt, "err", err)

		timer := time.NewTimer(time.Duration(attempt) * s.cfg.Renewal.RetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func (s *Service) validateSeat(req *RenewSeatRequest, idField string) error {
	var fe fieldErrors
	if _, err := uuid.Parse(req.SeatID); err != nil {
		fe.add(idField, "must be a valid id")
	}
	validateAmount(&fe, req.AmountPaid)
	validateMonths(&fe, "months", req.Months, s.cfg.Renewal.MaxMonths)
	return fe.err()
}

func validateMonths(fe *fieldErrors, field string, months, limit int) {
	switch {
	case months < 1:
		fe.add(field, "must be at least 1")
	case limit > 0 && months > limit:
		fe.add(field, fmt.Sprintf("must be at most %d", limit))
	}
}

func validateAmount(fe *fieldErrors, amount decimal.Decimal) {
	switch {
	case !amount.IsPositive():
		fe.add("amountPaid", "must be greater than 0")
	case !amount.Equal(amount.Round(2)):
		fe.add("amountPaid", "must have at most 2 decimal places")
	case amount.GreaterThan(maxAmount):
		fe.add("amountPaid", "must be at most "+maxAmount.StringFixed(2))
	}
}

func (s *Service) observe(span trace.Span, kind string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = resultLabel(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	s.metrics.CountRenewal(kind, result)
	s.metrics.ObserveProcess("renewal", kind, start)
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	default:
		return "error"
	}
}

// logFailure logs storage failures at error level with full context; caller
// mistakes only at info.
func (s *Service) logFailure(ctx context.Context, event string, err error, kv ...any) {
	l := logctx.FromCtx(ctx, s.log)
	kv = append(kv, "err", err)
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrConcurrencyConflict) {
		l.Errorw(event, kv...)
		return
	}
	l.Infow(event, kv...)
}
