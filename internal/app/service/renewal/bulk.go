package renewal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/pkg/logctx"
)

type BulkRenewItem struct {
	SeatID     string
	AmountPaid decimal.Decimal
	// Months overrides BulkRenewRequest.Months when set.
	Months *int
	Notes  *string
}

type BulkRenewRequest struct {
	OwnerID string
	Months  int
	Items   []BulkRenewItem
}

// ItemError is the per-item failure of a bulk renewal.
type ItemError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type BulkRenewItemResult struct {
	Index  int                        `json:"index"`
	SeatID string                     `json:"seatId"`
	OK     bool                       `json:"ok"`
	Seat   *models.ClientSubscription `json:"seat,omitempty"`
	Log    *models.RenewalLog         `json:"log,omitempty"`
	Error  *ItemError                 `json:"error,omitempty"`
}

type BulkRenewResult struct {
	Items     []BulkRenewItemResult `json:"items"`
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// RenewSeats renews every item independently with bounded parallelism. An
// item failure is reported in its result and never affects other items.
// Only a malformed request as a whole returns an error.
func (s *Service) RenewSeats(ctx context.Context, req *BulkRenewRequest) (*BulkRenewResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "renewal.RenewSeats", trace.WithAttributes(
		attribute.Int("items", len(req.Items)),
	))
	defer span.End()
	defer s.metrics.ObserveProcess("renewal", "bulk", start)

	if err := s.validateBulk(req); err != nil {
		return nil, err
	}

	results := make([]BulkRenewItemResult, len(req.Items))
	var g errgroup.Group
	limit := s.cfg.Renewal.BulkConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, item := range req.Items {
		months := req.Months
		if item.Months != nil {
			months = *item.Months
		}
		g.Go(func() error {
			results[i] = BulkRenewItemResult{Index: i, SeatID: item.SeatID}
			res, err := s.RenewSeat(ctx, &RenewSeatRequest{
				OwnerID:    req.OwnerID,
				SeatID:     item.SeatID,
				AmountPaid: item.AmountPaid,
				Months:     months,
				Notes:      item.Notes,
			})
			if err != nil {
				results[i].Error = itemError(err)
				return nil
			}
			results[i].OK = true
			results[i].Seat = res.Seat
			results[i].Log = res.Log
			return nil
		})
	}
	_ = g.Wait()

	out := &BulkRenewResult{Items: results, Total: len(results)}
	for _, r := range results {
		if r.OK {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	logctx.FromCtx(ctx, s.log).Infow("bulk_renew_completed",
		"total", out.Total,
		"succeeded", out.Succeeded,
		"failed", out.Failed,
	)
	return out, nil
}

func (s *Service) validateBulk(req *BulkRenewRequest) error {
	var fe fieldErrors
	switch limit := s.cfg.Renewal.MaxBulkItems; {
	case len(req.Items) == 0:
		fe.add("items", "must contain at least 1 item")
	case limit > 0 && len(req.Items) > limit:
		fe.add("items", fmt.Sprintf("must contain at most %d items", limit))
	}
	needDefault := false
	for _, item := range req.Items {
		if item.Months == nil {
			needDefault = true
			break
		}
	}
	if needDefault {
		validateMonths(&fe, "months", req.Months, s.cfg.Renewal.MaxMonths)
	}
	return fe.err()
}

// itemError renders err for a bulk item result. Storage detail never leaves
// the engine.
func itemError(err error) *ItemError {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return &ItemError{Code: "invalid_input", Message: "invalid input", Fields: ve.FieldMap()}
	case errors.Is(err, ErrSubscriptionCancelled):
		return &ItemError{Code: "invalid_input", Message: "subscription is cancelled"}
	case errors.Is(err, ErrSeatLimitReached):
		return &ItemError{Code: "invalid_input", Message: "plan seat limit reached"}
	case errors.Is(err, ErrInvalidInput):
		return &ItemError{Code: "invalid_input", Message: "invalid input"}
	case errors.Is(err, ErrNotFound):
		return &ItemError{Code: "not_found", Message: "seat not found"}
	case errors.Is(err, ErrConcurrencyConflict):
		return &ItemError{Code: "conflict", Message: "the seat was modified concurrently, please retry"}
	default:
		return &ItemError{Code: "internal_error", Message: "internal server error"}
	}
}
