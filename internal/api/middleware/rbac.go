package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dogdaycare/daycare-api/internal/api/handler"
	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// RequireAuthKind limits a route to accounts created with one of the given
// auth kinds. Anonymous requests get 401, other kinds 403.
func RequireAuthKind(kinds ...domain.AuthKind) echo.MiddlewareFunc {
	allowed := make(map[domain.AuthKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, ok := handler.CurrentAccount(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			if _, ok := allowed[account.AuthKind]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
