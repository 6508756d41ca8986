package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/internal/app/service/analytics"
	"github.com/fatflowers/seatledger/internal/app/service/autopay"
	"github.com/fatflowers/seatledger/internal/app/service/ledger"
	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/types"
)

type stubEngine struct {
	seatReq *renewal.RenewSeatRequest
	bulkReq *renewal.BulkRenewRequest
	subReq  *renewal.RenewSubscriptionRequest
	err     error
}

func (e *stubEngine) RenewSeat(_ context.Context, req *renewal.RenewSeatRequest) (*renewal.RenewSeatResult, error) {
	e.seatReq = req
	if e.err != nil {
		return nil, e.err
	}
	return &renewal.RenewSeatResult{
		Seat: &models.ClientSubscription{ID: req.SeatID},
		Log:  &models.RenewalLog{ID: "log-1", ClientSubscriptionID: req.SeatID, AmountPaid: req.AmountPaid},
	}, nil
}

func (e *stubEngine) RenewSeats(_ context.Context, req *renewal.BulkRenewRequest) (*renewal.BulkRenewResult, error) {
	e.bulkReq = req
	if e.err != nil {
		return nil, e.err
	}
	return &renewal.BulkRenewResult{Items: []renewal.BulkRenewItemResult{}, Total: len(req.Items)}, nil
}

func (e *stubEngine) RenewSubscription(_ context.Context, req *renewal.RenewSubscriptionRequest) (*renewal.RenewSubscriptionResult, error) {
	e.subReq = req
	if e.err != nil {
		return nil, e.err
	}
	return &renewal.RenewSubscriptionResult{Subscription: &models.Subscription{ID: req.SubscriptionID}}, nil
}

func (e *stubEngine) AutopaySubscription(context.Context, string, time.Time) (*renewal.RenewSubscriptionResult, error) {
	return nil, errors.New("not used")
}

type stubReporter struct {
	days, months int
	err          error
}

func (r *stubReporter) BreakEven(context.Context, string) ([]*analytics.BreakEvenRow, error) {
	return []*analytics.BreakEvenRow{}, r.err
}

func (r *stubReporter) ClientRanking(context.Context, string) (*analytics.ClientRanking, error) {
	return &analytics.ClientRanking{Clients: []*analytics.ClientRank{}}, r.err
}

func (r *stubReporter) Receivables(_ context.Context, _ string, days int) (*analytics.Receivables, error) {
	r.days = days
	return &analytics.Receivables{}, r.err
}

func (r *stubReporter) Cashflow(_ context.Context, _ string, months int) (*analytics.Cashflow, error) {
	r.months = months
	return &analytics.Cashflow{}, r.err
}

type stubHistory struct {
	req *ledger.ScanRequest
	err error
}

func (h *stubHistory) ScanRenewalLogs(_ context.Context, _ string, req *ledger.ScanRequest) (*ledger.ScanRenewalLogsResponse, error) {
	h.req = req
	if h.err != nil {
		return nil, h.err
	}
	return &ledger.ScanRenewalLogsResponse{Items: []*models.RenewalLog{}}, nil
}

func (h *stubHistory) ScanPlatformRenewals(_ context.Context, _ string, req *ledger.ScanRequest) (*ledger.ScanPlatformRenewalsResponse, error) {
	h.req = req
	return &ledger.ScanPlatformRenewalsResponse{Items: []*models.PlatformRenewal{}}, h.err
}

type stubRunner struct{ trigger types.AutopayTrigger }

func (r *stubRunner) Sweep(_ context.Context, trigger types.AutopayTrigger) (*autopay.SweepReport, error) {
	r.trigger = trigger
	return &autopay.SweepReport{RunID: "run-1", Processed: 2}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

// newTestRouter mounts the API as the server does, with a fixed owner in
// place of JWT authentication.
func newTestRouter(engine renewal.Engine, reporter analytics.Reporter, history ledger.History, runner autopay.Runner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	r := gin.New()
	api := r.Group("/api")
	RegisterCronRoutes(api.Group("/cron"), runner, log)
	authed := api.Group("")
	authed.Use(func(c *gin.Context) {
		c.Set(string(logctx.OwnerIDKey), "owner-1")
		c.Next()
	})
	RegisterRenewalRoutes(authed, engine, log)
	RegisterAnalyticsRoutes(authed, reporter, log)
	RegisterLedgerRoutes(authed, history, log)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiRenewSeat_Created(t *testing.T) {
	engine := &stubEngine{}
	r := newTestRouter(engine, nil, nil, nil)

	w := do(r, http.MethodPost, "/api/client-subscriptions/seat-1/renew", `{"amountPaid":"12.50","months":2,"notes":"cash"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"ok":true`)
	require.Contains(t, w.Body.String(), `"amountPaid":"12.5"`)

	require.Equal(t, "owner-1", engine.seatReq.OwnerID)
	require.Equal(t, "seat-1", engine.seatReq.SeatID)
	require.True(t, engine.seatReq.AmountPaid.Equal(decimal.RequireFromString("12.50")))
	require.Equal(t, 2, engine.seatReq.Months)
	require.Equal(t, "cash", *engine.seatReq.Notes)
}

func TestApiRenewSeat_BindingErrors(t *testing.T) {
	r := newTestRouter(&stubEngine{}, nil, nil, nil)

	w := do(r, http.MethodPost, "/api/client-subscriptions/seat-1/renew", `{"months":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.JSONEq(t, `{"ok":false,"error":{"code":"invalid_input","message":"invalid input","fields":{"amountPaid":"is required"}}}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/client-subscriptions/seat-1/renew", `{"amountPaid":`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), `"malformed request"`)
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", renewal.InvalidField("months", "must be at least 1"), http.StatusUnprocessableEntity,
			`{"ok":false,"error":{"code":"invalid_input","message":"invalid input","fields":{"months":"must be at least 1"}}}`},
		{"cancelled", renewal.ErrSubscriptionCancelled, http.StatusUnprocessableEntity,
			`{"ok":false,"error":{"code":"invalid_input","message":"subscription is cancelled"}}`},
		{"not found", errors.Join(renewal.ErrNotFound, errors.New("seat seat-1")), http.StatusNotFound,
			`{"ok":false,"error":{"code":"not_found","message":"resource not found"}}`},
		{"conflict", renewal.ErrConcurrencyConflict, http.StatusConflict,
			`{"ok":false,"error":{"code":"conflict","message":"the resource was modified concurrently, please retry"}}`},
		{"storage", errors.Join(renewal.ErrStorage, errors.New("pq: password authentication failed")), http.StatusInternalServerError,
			`{"ok":false,"error":{"code":"internal_error","message":"internal server error"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&stubEngine{err: tc.err}, nil, nil, nil)
			w := do(r, http.MethodPost, "/api/subscriptions/sub-1/renew", `{"amountPaid":"19.99"}`)
			require.Equal(t, tc.status, w.Code)
			require.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestApiBulkRenewSeats(t *testing.T) {
	engine := &stubEngine{}
	r := newTestRouter(engine, nil, nil, nil)

	w := do(r, http.MethodPost, "/api/client-subscriptions/bulk-renew",
		`{"months":1,"items":[{"seatId":"a","amountPaid":"10"},{"seatId":"b","amountPaid":20,"months":3}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, engine.bulkReq.Items, 2)
	require.Equal(t, "owner-1", engine.bulkReq.OwnerID)
	require.Nil(t, engine.bulkReq.Items[0].Months)
	require.Equal(t, 3, *engine.bulkReq.Items[1].Months)
	require.Equal(t, "20", engine.bulkReq.Items[1].AmountPaid.String())

	w = do(r, http.MethodPost, "/api/client-subscriptions/bulk-renew", `{"months":1,"items":[{"seatId":"a"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), `"items[0].amountPaid":"is required"`)
}

func TestApiRenewSubscriptionsCron(t *testing.T) {
	runner := &stubRunner{}
	r := newTestRouter(nil, nil, nil, runner)

	w := do(r, http.MethodGet, "/api/cron/renew-subscriptions", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, types.AutopayTriggerHTTP, runner.trigger)
	require.Contains(t, w.Body.String(), `"runId":"run-1"`)
	require.Contains(t, w.Body.String(), `"processed":2`)
}

func TestAnalyticsQueryBinding(t *testing.T) {
	reporter := &stubReporter{}
	r := newTestRouter(nil, reporter, nil, nil)

	w := do(r, http.MethodGet, "/api/analytics/receivables", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, -1, reporter.days, "missing days uses the configured default")

	w = do(r, http.MethodGet, "/api/analytics/receivables?days=30", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 30, reporter.days)

	w = do(r, http.MethodGet, "/api/analytics/receivables?days=400", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), `"days":"must be at most 365"`)

	w = do(r, http.MethodGet, "/api/analytics/cashflow?months=abc", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodGet, "/api/analytics/cashflow?months=6", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 6, reporter.months)

	for _, path := range []string{"/api/analytics/break-even", "/api/analytics/clients"} {
		w = do(r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestApiListRenewalLogs(t *testing.T) {
	history := &stubHistory{}
	r := newTestRouter(nil, nil, history, nil)

	w := do(r, http.MethodPost, "/api/ledger/renewal-logs/list",
		`{"filters":[{"field":"seatId","operator":"eq","values":["seat-1"]}],"size":10,"sortBy":"paidOn","sortOrder":"asc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 10, history.req.Size)
	require.Equal(t, "seatId", history.req.Filters[0].Field)

	history.err = renewal.InvalidField("sortBy", "unsupported sort field: owner")
	w = do(r, http.MethodPost, "/api/ledger/platform-renewals/list", `{"sortBy":"owner"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), `"sortBy"`)
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHealthRoutes(r, stubPinger{}, zap.NewNop().Sugar())
	w := do(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)

	r = gin.New()
	RegisterHealthRoutes(r, stubPinger{err: errors.New("connection refused")}, zap.NewNop().Sugar())
	w = do(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), `"database":"unreachable"`)
	require.NotContains(t, w.Body.String(), "connection refused")
}
