package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = testSecret
	cfg.Cron.Secret = "cron-secret"
	return cfg
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newRouter(cfg *config.Config) *gin.Engine {
	log := zap.NewNop().Sugar()
	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(log), AccessLogMiddleware(log))
	r.GET("/me", AuthMiddleware(cfg, log), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"owner":    OwnerID(c),
			"ctxOwner": logctx.OwnerID(c.Request.Context()),
			"trace":    logctx.TraceID(c.Request.Context()),
		})
	})
	r.GET("/cron", CronAuthMiddleware(cfg, log), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestTraceMiddleware_EchoesOrGeneratesRequestID(t *testing.T) {
	r := newRouter(testConfig())
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "owner-1", Issuer: "seatledger"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	require.JSONEq(t, `{"owner":"owner-1","ctxOwner":"owner-1","trace":"req-42"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/cron", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	cfg := testConfig()
	r := newRouter(cfg)
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong secret": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "owner-1", Issuer: "seatledger"}),
		"wrong alg":    "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.RegisteredClaims{Subject: "owner-1", Issuer: "seatledger"}),
		"expired":      "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "owner-1", Issuer: "seatledger", ExpiresAt: past}),
		"wrong issuer": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "owner-1", Issuer: "someone-else"}),
		"no subject":   "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Issuer: "seatledger"}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.JSONEq(t, `{"ok":false,"error":{"code":"unauthorized","message":"unauthorized"}}`, w.Body.String())
		})
	}
}

func TestCronAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	r := newRouter(cfg)

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/cron", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusNoContent, do("Bearer cron-secret"))
	require.Equal(t, http.StatusUnauthorized, do("Bearer nope"))
	require.Equal(t, http.StatusUnauthorized, do(""))

	cfg.Cron.Secret = ""
	r = newRouter(cfg)
	require.Equal(t, http.StatusUnauthorized, do("Bearer "))
}
