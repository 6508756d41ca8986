package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/internal/app/service/autopay"
	"github.com/fatflowers/seatledger/pkg/response"
	"github.com/fatflowers/seatledger/pkg/types"
)

// @Summary      Run the autopay sweep
// @Description  Renews every autopayable subscription due today. Safe to call repeatedly.
// @Tags         Cron
// @Produce      json
// @Security     CronSecret
// @Success      200  {object}  handlers.RespSweepReport
// @Failure      401  {object}  handlers.RespError
// @Router       /api/cron/renew-subscriptions [get]
func ApiRenewSubscriptionsCron(runner autopay.Runner, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := runner.Sweep(c.Request.Context(), types.AutopayTriggerHTTP)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(report))
	}
}

// RegisterCronRoutes mounts scheduler triggers on a cron-secret guarded group.
func RegisterCronRoutes(r gin.IRouter, runner autopay.Runner, log *zap.SugaredLogger) {
	r.GET("/renew-subscriptions", ApiRenewSubscriptionsCron(runner, log))
}
