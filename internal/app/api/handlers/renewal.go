package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	mw "github.com/fatflowers/seatledger/internal/app/api/middleware"
	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/pkg/response"
)

type RenewSeatBody struct {
	AmountPaid *decimal.Decimal `json:"amountPaid" binding:"required" swaggertype:"string" example:"12.50"`
	Months     int              `json:"months" example:"1"`
	Notes      *string          `json:"notes"`
}

type BulkRenewItemBody struct {
	SeatID     string           `json:"seatId" binding:"required"`
	AmountPaid *decimal.Decimal `json:"amountPaid" binding:"required" swaggertype:"string" example:"12.50"`
	Months     *int             `json:"months"`
	Notes      *string          `json:"notes"`
}

type BulkRenewBody struct {
	Months int                 `json:"months" example:"1"`
	Items  []BulkRenewItemBody `json:"items" binding:"required,dive"`
}

type RenewSubscriptionBody struct {
	AmountPaid *decimal.Decimal `json:"amountPaid" binding:"required" swaggertype:"string" example:"19.99"`
	Notes      *string          `json:"notes"`
}

// @Summary      Renew a seat
// @Description  Records a client payment and extends the seat by the given number of calendar months.
// @Tags         Renewal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string         true  "Seat (client subscription) ID"
// @Param        request  body  RenewSeatBody  true  "Payment"
// @Success      201  {object}  handlers.RespRenewSeat
// @Failure      404  {object}  handlers.RespError
// @Failure      409  {object}  handlers.RespError
// @Failure      422  {object}  handlers.RespError
// @Router       /api/client-subscriptions/{id}/renew [post]
func ApiRenewSeat(engine renewal.Engine, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body RenewSeatBody
		if err := c.ShouldBindJSON(&body); err != nil {
			writeBindError(c, log, err)
			return
		}
		res, err := engine.RenewSeat(c.Request.Context(), &renewal.RenewSeatRequest{
			OwnerID:    mw.OwnerID(c),
			SeatID:     c.Param("id"),
			AmountPaid: *body.AmountPaid,
			Months:     body.Months,
			Notes:      body.Notes,
		})
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(res))
	}
}

// @Summary      Renew seats in bulk
// @Description  Renews each item independently. One failing item never rolls back the others.
// @Tags         Renewal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  BulkRenewBody  true  "Items"
// @Success      201  {object}  handlers.RespBulkRenew
// @Failure      422  {object}  handlers.RespError
// @Router       /api/client-subscriptions/bulk-renew [post]
func ApiBulkRenewSeats(engine renewal.Engine, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body BulkRenewBody
		if err := c.ShouldBindJSON(&body); err != nil {
			writeBindError(c, log, err)
			return
		}
		res, err := engine.RenewSeats(c.Request.Context(), &renewal.BulkRenewRequest{
			OwnerID: mw.OwnerID(c),
			Months:  body.Months,
			Items: lo.Map(body.Items, func(it BulkRenewItemBody, _ int) renewal.BulkRenewItem {
				return renewal.BulkRenewItem{SeatID: it.SeatID, AmountPaid: *it.AmountPaid, Months: it.Months, Notes: it.Notes}
			}),
		})
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(res))
	}
}

// @Summary      Renew a platform subscription
// @Description  Records a payment to the platform and extends the subscription by one month.
// @Tags         Renewal
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                 true  "Subscription ID"
// @Param        request  body  RenewSubscriptionBody  true  "Payment"
// @Success      201  {object}  handlers.RespRenewSubscription
// @Failure      404  {object}  handlers.RespError
// @Failure      409  {object}  handlers.RespError
// @Failure      422  {object}  handlers.RespError
// @Router       /api/subscriptions/{id}/renew [post]
func ApiRenewSubscription(engine renewal.Engine, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body RenewSubscriptionBody
		if err := c.ShouldBindJSON(&body); err != nil {
			writeBindError(c, log, err)
			return
		}
		res, err := engine.RenewSubscription(c.Request.Context(), &renewal.RenewSubscriptionRequest{
			OwnerID:        mw.OwnerID(c),
			SubscriptionID: c.Param("id"),
			AmountPaid:     *body.AmountPaid,
			Notes:          body.Notes,
		})
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(res))
	}
}

// RegisterRenewalRoutes mounts the renewal endpoints on an authenticated group.
func RegisterRenewalRoutes(r gin.IRouter, engine renewal.Engine, log *zap.SugaredLogger) {
	seats := r.Group("/client-subscriptions")
	seats.POST("/bulk-renew", ApiBulkRenewSeats(engine, log))
	seats.POST("/:id/renew", ApiRenewSeat(engine, log))
	r.POST("/subscriptions/:id/renew", ApiRenewSubscription(engine, log))
}
