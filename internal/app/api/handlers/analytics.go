package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/fatflowers/seatledger/internal/app/api/middleware"
	"github.com/fatflowers/seatledger/internal/app/service/analytics"
	"github.com/fatflowers/seatledger/pkg/response"
)

type ReceivablesQuery struct {
	Days *int `form:"days" binding:"omitempty,min=0,max=365"`
}

type CashflowQuery struct {
	Months *int `form:"months" binding:"omitempty,min=1,max=60"`
}

// @Summary      Break-even per subscription
// @Description  Revenue, cost and net for every subscription of the owner, least profitable first.
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespBreakEven
// @Router       /api/analytics/break-even [get]
func ApiBreakEven(reporter analytics.Reporter, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := reporter.BreakEven(c.Request.Context(), mw.OwnerID(c))
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

// @Summary      Client ranking
// @Description  Clients ordered by total paid, with their share of total revenue.
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespClientRanking
// @Router       /api/analytics/clients [get]
func ApiClientRanking(reporter analytics.Reporter, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ranking, err := reporter.ClientRanking(c.Request.Context(), mw.OwnerID(c))
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(ranking))
	}
}

// @Summary      Receivables
// @Description  Active seats that are overdue or expire within the lookahead window.
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        days  query  int  false  "Lookahead in days (0-365)"
// @Success      200  {object}  handlers.RespReceivables
// @Failure      422  {object}  handlers.RespError
// @Router       /api/analytics/receivables [get]
func ApiReceivables(reporter analytics.Reporter, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q ReceivablesQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			writeBindError(c, log, err)
			return
		}
		days := -1
		if q.Days != nil {
			days = *q.Days
		}
		res, err := reporter.Receivables(c.Request.Context(), mw.OwnerID(c), days)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Monthly cashflow
// @Description  Client revenue and platform cost per calendar month, oldest first.
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        months  query  int  false  "Number of months including the current one (1-60)"
// @Success      200  {object}  handlers.RespCashflow
// @Failure      422  {object}  handlers.RespError
// @Router       /api/analytics/cashflow [get]
func ApiCashflow(reporter analytics.Reporter, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q CashflowQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			writeBindError(c, log, err)
			return
		}
		months := 0
		if q.Months != nil {
			months = *q.Months
		}
		res, err := reporter.Cashflow(c.Request.Context(), mw.OwnerID(c), months)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAnalyticsRoutes(r gin.IRouter, reporter analytics.Reporter, log *zap.SugaredLogger) {
	g := r.Group("/analytics")
	g.GET("/break-even", ApiBreakEven(reporter, log))
	g.GET("/clients", ApiClientRanking(reporter, log))
	g.GET("/receivables", ApiReceivables(reporter, log))
	g.GET("/cashflow", ApiCashflow(reporter, log))
}
