package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/response"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthStatus struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	LatencyMs int64  `json:"latencyMs"`
}

// @Summary      Health check
// @Description  Returns service status and database reachability
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespHealth
// @Failure      503  {object}  handlers.RespHealth
// @Router       /healthz [get]
func Healthz(db Pinger, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		start := time.Now()
		err := db.PingContext(ctx)
		status := HealthStatus{Status: "ok", Database: "ok", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			logctx.FromGin(c, log).Warnw("health_db_unreachable", "err", err)
			status.Status = "unhealthy"
			status.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, &response.APIResponse[HealthStatus]{Data: status})
			return
		}
		c.JSON(http.StatusOK, response.OKT(status))
	}
}

func RegisterHealthRoutes(r gin.IRouter, db Pinger, log *zap.SugaredLogger) {
	r.GET("/healthz", Healthz(db, log))
}
