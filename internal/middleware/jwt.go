package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/utils"
)

// Auth returns an Echo middleware that validates a Bearer identity
// token and injects the verified account ID into the request context
// under "account_id". Every route except signup, login and the health
// check is wrapped by it, so no handler runs on an unverified subject.
// All rejection paths answer 401 with a generic message; the body never
// reveals whether the token was missing, tampered with, or expired.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			id, err := utils.VerifyIdentityToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("account_id", id)
			return next(c)
		}
	}
}
