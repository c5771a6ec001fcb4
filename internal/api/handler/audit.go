package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

// AuditDispatcher is the interface the handlers use to enqueue audit events.
type AuditDispatcher interface {
	Enqueue(event ports.AuthEventInput)
}

type nopDispatcher struct{}

func (nopDispatcher) Enqueue(ports.AuthEventInput) {}

// recordEvent builds an audit event from the request. account may be nil for
// attempts that never resolved one.
func recordEvent(d AuditDispatcher, c echo.Context, typ domain.AuthEventType, account *domain.Account, username string, method domain.AuthKind, reason string) {
	in := ports.AuthEventInput{
		Type:      typ,
		Username:  username,
		Method:    string(method),
		Reason:    reason,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
	if account != nil {
		in.AccountID = account.ID
		in.Username = account.Username
	}
	d.Enqueue(in)
}
