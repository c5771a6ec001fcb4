package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

const accountContextKey = "account"

// SetAccount attaches the resolved account to the request context.
func SetAccount(c echo.Context, account *domain.Account) {
	c.Set(accountContextKey, account)
}

// CurrentAccount returns the account attached by the session middleware, or
// false for anonymous requests.
func CurrentAccount(c echo.Context) (*domain.Account, bool) {
	account, ok := c.Get(accountContextKey).(*domain.Account)
	return account, ok && account != nil
}
