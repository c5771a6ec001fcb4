package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/api/handler"
	"github.com/dogdaycare/daycare-api/internal/api/metrics"
	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

// Session resolves the session cookie to an account and attaches it to the
// context. Requests without a usable session continue anonymously; a stale
// cookie is cleared on the way. With a rolling session manager the cookie is
// reissued so its expiry tracks the stored session. skipper may be nil.
func Session(sessions ports.SessionManager, cookie handler.SessionCookie, log zerolog.Logger, skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			token := cookie.Read(c)
			if token == "" {
				return next(c)
			}

			account, err := sessions.Load(c.Request().Context(), token)
			switch {
			case err == nil:
				handler.SetAccount(c, account)
				if sessions.Rolling() {
					cookie.Issue(c, token)
				}
			case errors.Is(err, domain.ErrSessionNotFound):
				metrics.SessionsTotal.WithLabelValues("expired").Inc()
				cookie.Clear(c)
			default:
				log.Error().Err(err).Str("path", c.Path()).Msg("session lookup failed")
				return err
			}
			return next(c)
		}
	}
}

// RequireAccount rejects anonymous requests with 401.
func RequireAccount() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := handler.CurrentAccount(c); !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			return next(c)
		}
	}
}
