package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCookie writes and reads the HttpOnly cookie carrying the session token.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Read returns the session token presented by the client, if any.
func (s SessionCookie) Read(c echo.Context) string {
	cookie, err := c.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Issue hands token to the client.
func (s SessionCookie) Issue(c echo.Context, token string) {
	c.SetCookie(s.cookie(token, int(s.TTL.Seconds()), time.Now().Add(s.TTL)))
}

// Clear expires the cookie on the client.
func (s SessionCookie) Clear(c echo.Context) {
	c.SetCookie(s.cookie("", -1, time.Unix(0, 0)))
}

func (s SessionCookie) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
