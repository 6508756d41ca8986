package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/fatflowers/seatledger/pkg/config"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/response"
)

var errMissingBearer = errors.New("missing bearer token")

// AuthMiddleware validates the HS256 bearer token and stores its subject as
// the owner ID of the request. Every ledger query is scoped to that owner.
func AuthMiddleware(cfg *config.Config, base *zap.SugaredLogger) gin.HandlerFunc {
	secret := []byte(cfg.Auth.JWTSecret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Auth.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		ownerID, err := authenticate(c.Request, parser, secret)
		if err != nil {
			logctx.FromGin(c, base).Infow("auth_rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT(response.APIErrorCodeUnauthorized, "", nil))
			return
		}

		c.Set(string(logctx.OwnerIDKey), ownerID)
		c.Request = c.Request.WithContext(logctx.WithOwnerID(c.Request.Context(), ownerID))
		setLogger(c, logctx.FromGin(c, base).With("owner_id", ownerID))
		c.Next()
	}
}

func authenticate(r *http.Request, parser *jwt.Parser, secret []byte) (string, error) {
	tokenStr, ok := bearer(r)
	if !ok {
		return "", errMissingBearer
	}
	if len(secret) == 0 {
		return "", errors.New("auth.jwt_secret is not configured")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

func bearer(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// OwnerID returns the owner authenticated by AuthMiddleware.
func OwnerID(c *gin.Context) string {
	return c.GetString(string(logctx.OwnerIDKey))
}
