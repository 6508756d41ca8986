package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/internal/app/service/renewal"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/response"
)

func init() {
	// report binding failures under their JSON or query names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	}
}

// writeError maps an error to the response envelope. Storage detail is only
// logged.
func writeError(c *gin.Context, base *zap.SugaredLogger, err error) {
	var (
		verr  *renewal.ValidationError
		vErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &vErrs):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorT(response.APIErrorCodeInvalidInput, "", bindingFields(vErrs)))
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorT(response.APIErrorCodeInvalidInput, "", verr.FieldMap()))
	case errors.Is(err, renewal.ErrSubscriptionCancelled):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorT(response.APIErrorCodeInvalidInput, "subscription is cancelled", nil))
	case errors.Is(err, renewal.ErrSeatLimitReached):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorT(response.APIErrorCodeInvalidInput, "plan seat limit reached", nil))
	case errors.Is(err, renewal.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorT(response.APIErrorCodeInvalidInput, "", nil))
	case errors.Is(err, renewal.ErrNotFound):
		c.JSON(http.StatusNotFound, response.ErrorT(response.APIErrorCodeNotFound, "", nil))
	case errors.Is(err, renewal.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, response.ErrorT(response.APIErrorCodeConflict, "", nil))
	default:
		logctx.FromGin(c, base).Errorw("request_failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, response.ErrorT(response.APIErrorCodeInternal, "", nil))
	}
}

// writeBindError answers a request whose body or query could not be bound.
func writeBindError(c *gin.Context, base *zap.SugaredLogger, err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		writeError(c, base, err)
		return
	}
	logctx.FromGin(c, base).Infow("request_malformed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusUnprocessableEntity, response.ErrorT(response.APIErrorCodeInvalidInput, "malformed request", nil))
}

func bindingFields(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		// nested fields keep their position, e.g. items[2].seatId
		if ns := fe.Namespace(); strings.Contains(ns, ".") {
			name = ns[strings.Index(ns, ".")+1:]
		}
		fields[name] = validationMessage(fe)
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "dive":
		return "is invalid"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
