package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/fatflowers/seatledger/internal/app/api/middleware"
	"github.com/fatflowers/seatledger/internal/app/service/ledger"
	"github.com/fatflowers/seatledger/pkg/response"
)

// @Summary      List renewal logs
// @Description  Paginated and filterable client payments. Filter fields: id, seatId, clientId, subscriptionId, amountPaid, periodStart, periodEnd, paidOn, createdAt.
// @Tags         Ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  ledger.ScanRequest  true  "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespRenewalLogs
// @Failure      422  {object}  handlers.RespError
// @Router       /api/ledger/renewal-logs/list [post]
func ApiListRenewalLogs(history ledger.History, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, log, err)
			return
		}
		res, err := history.ScanRenewalLogs(c.Request.Context(), mw.OwnerID(c), &req)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List platform renewals
// @Description  Paginated and filterable payments to platforms. Filter fields: id, subscriptionId, planId, amountPaid, periodStart, periodEnd, paidOn, source, createdAt.
// @Tags         Ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  ledger.ScanRequest  true  "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespPlatformRenewals
// @Failure      422  {object}  handlers.RespError
// @Router       /api/ledger/platform-renewals/list [post]
func ApiListPlatformRenewals(history ledger.History, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, log, err)
			return
		}
		res, err := history.ScanPlatformRenewals(c.Request.Context(), mw.OwnerID(c), &req)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterLedgerRoutes(r gin.IRouter, history ledger.History, log *zap.SugaredLogger) {
	g := r.Group("/ledger")
	g.POST("/renewal-logs/list", ApiListRenewalLogs(history, log))
	g.POST("/platform-renewals/list", ApiListPlatformRenewals(history, log))
}
