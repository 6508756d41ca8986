package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/response"
)

// CronAuthMiddleware guards scheduler triggers with the shared cron secret.
// An empty secret rejects every request.
func CronAuthMiddleware(cfg *config.Config, base *zap.SugaredLogger) gin.HandlerFunc {
	secret := []byte(cfg.Cron.Secret)
	return func(c *gin.Context) {
		token, ok := bearer(c.Request)
		if !ok || len(secret) == 0 || subtle.ConstantTimeCompare([]byte(token), secret) != 1 {
			logctx.FromGin(c, base).Warnw("cron_auth_rejected", "client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT(response.APIErrorCodeUnauthorized, "", nil))
			return
		}
		c.Next()
	}
}
