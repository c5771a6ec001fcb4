package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/api/metrics"
	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

// AuthHandler serves local registration, login, logout and the account routes.
type AuthHandler struct {
	auth      ports.Authenticator
	registrar ports.Registrar
	sessions  ports.SessionManager
	cookie    SessionCookie
	audit     AuditDispatcher
	log       zerolog.Logger
}

func NewAuthHandler(
	auth ports.Authenticator,
	registrar ports.Registrar,
	sessions ports.SessionManager,
	cookie SessionCookie,
	audit AuditDispatcher,
	log zerolog.Logger,
) *AuthHandler {
	if audit == nil {
		audit = nopDispatcher{}
	}
	return &AuthHandler{
		auth:      auth,
		registrar: registrar,
		sessions:  sessions,
		cookie:    cookie,
		audit:     audit,
		log:       log,
	}
}

// Register creates a local account and signs it in.
//
// @Summary      Register a local account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Username and password"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.registrar.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(domain.AuthKindLocal)).Inc()
	recordEvent(h.audit, c, domain.EventRegistered, account, "", domain.AuthKindLocal, "")

	return h.startSession(c, account, http.StatusCreated)
}

// Login verifies a username and password and opens a session.
//
// @Summary      Log in with username and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.auth.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAuthenticationFailed) {
			metrics.AuthAttemptsTotal.WithLabelValues(string(domain.AuthKindLocal), "failure").Inc()
			recordEvent(h.audit, c, domain.EventLoginFailed, nil, domain.FoldUsername(req.Username), domain.AuthKindLocal, "bad_credentials")
		} else {
			metrics.AuthAttemptsTotal.WithLabelValues(string(domain.AuthKindLocal), "error").Inc()
		}
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues(string(domain.AuthKindLocal), "success").Inc()
	recordEvent(h.audit, c, domain.EventLoginSucceeded, account, "", domain.AuthKindLocal, "")

	return h.startSession(c, account, http.StatusOK)
}

// Logout ends the current session. It succeeds for anonymous callers too.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      503  {object}  errorResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.End(c.Request().Context(), h.cookie.Read(c)); err != nil {
		return err
	}
	h.cookie.Clear(c)

	if account, ok := CurrentAccount(c); ok {
		metrics.SessionsTotal.WithLabelValues("ended").Inc()
		recordEvent(h.audit, c, domain.EventLogout, account, "", account.AuthKind, "")
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Home returns the signed-in account.
//
// @Summary      Current account
// @Tags         account
// @Produce      json
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  errorResponse
// @Router       /home [get]
func (h *AuthHandler) Home(c echo.Context) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// ChangePassword rotates the password of the signed-in local account.
//
// @Summary      Change password
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /account/password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.registrar.ChangePassword(c.Request().Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	recordEvent(h.audit, c, domain.EventPasswordChanged, account, "", domain.AuthKindLocal, "")
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// startSession replaces any session the client already holds with a fresh one
// for account and renders the account.
func (h *AuthHandler) startSession(c echo.Context, account *domain.Account, status int) error {
	return openSession(c, h.sessions, h.cookie, h.log, account, func() error {
		return c.JSON(status, toAccountResponse(account))
	})
}

func openSession(c echo.Context, sessions ports.SessionManager, cookie SessionCookie, log zerolog.Logger, account *domain.Account, render func() error) error {
	ctx := c.Request().Context()
	if previous := cookie.Read(c); previous != "" {
		if err := sessions.End(ctx, previous); err != nil {
			log.Warn().Err(err).Msg("failed to end previous session")
		}
	}

	token, err := sessions.Start(ctx, account)
	if err != nil {
		return err
	}
	cookie.Issue(c, token)
	metrics.SessionsTotal.WithLabelValues("started").Inc()

	return render()
}
