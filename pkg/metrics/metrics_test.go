package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestBusiness_CountsAndReusesRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := NewBusiness(reg)
	b.CountRenewal("seat", "ok")
	b.CountRenewal("seat", "ok")
	b.CountRetry("seat")
	b.ObserveProcess("renewal", "seat", time.Now())
	b.SetAutopayRun(3, 1, 0)

	again := NewBusiness(reg)
	again.CountRenewal("seat", "ok")

	require.Equal(t, 3.0, testutil.ToFloat64(b.renewals.WithLabelValues("seat", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(b.retries.WithLabelValues("seat")))
	require.Equal(t, 1.0, testutil.ToFloat64(b.autopayItems.WithLabelValues("failed")))
}

func TestBusiness_NilIsNoop(t *testing.T) {
	var b *Business
	require.NotPanics(t, func() {
		b.CountRenewal("seat", "ok")
		b.ObserveProcess("renewal", "seat", time.Now())
	})
}

func TestPrometheus_MiddlewareServesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := gin.New()
	p := NewPrometheus(NewPrometheusOptions{
		Registry:                reg,
		ReqCntURLLabelMappingFn: func(c *gin.Context) string { return c.FullPath() },
	})
	p.Use(r)
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, 1.0, testutil.ToFloat64(p.reqCnt.WithLabelValues("200", "GET", "/ping/:id", "")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "req_total")
}
