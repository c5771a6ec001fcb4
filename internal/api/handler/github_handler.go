package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/api/metrics"
	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

const (
	oauthStateCookie = "daycare_oauth_state"
	oauthStateMaxAge = 10 * time.Minute
	homePath         = "/home"
)

// StateSigner issues and checks the OAuth state parameter.
type StateSigner interface {
	Issue() (string, error)
	Verify(state string) error
}

// GitHubHandler serves the GitHub OAuth login flow.
type GitHubHandler struct {
	provider ports.OAuthProvider
	states   StateSigner
	linker   ports.IdentityLinker
	sessions ports.SessionManager
	cookie   SessionCookie
	audit    AuditDispatcher
	log      zerolog.Logger
}

func NewGitHubHandler(
	provider ports.OAuthProvider,
	states StateSigner,
	linker ports.IdentityLinker,
	sessions ports.SessionManager,
	cookie SessionCookie,
	audit AuditDispatcher,
	log zerolog.Logger,
) *GitHubHandler {
	if audit == nil {
		audit = nopDispatcher{}
	}
	return &GitHubHandler{
		provider: provider,
		states:   states,
		linker:   linker,
		sessions: sessions,
		cookie:   cookie,
		audit:    audit,
		log:      log,
	}
}

// Login redirects the browser to GitHub.
//
// @Summary      Start GitHub login
// @Tags         auth
// @Success      302
// @Failure      500  {object}  errorResponse
// @Router       /auth/github [get]
func (h *GitHubHandler) Login(c echo.Context) error {
	state, err := h.states.Issue()
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   int(oauthStateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback completes the GitHub login, linking or creating the account.
//
// @Summary      GitHub login callback
// @Tags         auth
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "Signed state"
// @Success      302
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /auth/github/callback [get]
func (h *GitHubHandler) Callback(c echo.Context) error {
	method := string(domain.AuthKindGitHub)

	if err := h.checkState(c); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(method, "failure").Inc()
		return err
	}

	if denied := c.QueryParam("error"); denied != "" {
		metrics.AuthAttemptsTotal.WithLabelValues(method, "failure").Inc()
		recordEvent(h.audit, c, domain.EventLoginFailed, nil, "", domain.AuthKindGitHub, denied)
		return echo.NewHTTPError(http.StatusUnauthorized, "GitHub login was not approved")
	}

	ctx := c.Request().Context()
	profile, err := h.provider.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(method, "error").Inc()
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "missing authorization code")
		}
		h.log.Error().Err(err).Msg("github code exchange failed")
		return echo.NewHTTPError(http.StatusBadGateway, "GitHub login failed")
	}

	account, created, err := h.linker.Link(ctx, *profile)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameCollision) {
			metrics.AuthAttemptsTotal.WithLabelValues(method, "failure").Inc()
			recordEvent(h.audit, c, domain.EventLoginFailed, nil, domain.FoldUsername(profile.SuggestedUsername), domain.AuthKindGitHub, "username_collision")
		} else {
			metrics.AuthAttemptsTotal.WithLabelValues(method, "error").Inc()
		}
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues(method, "success").Inc()
	if created {
		metrics.AccountsCreatedTotal.WithLabelValues(method).Inc()
		recordEvent(h.audit, c, domain.EventExternalLinked, account, "", domain.AuthKindGitHub, "")
	}
	recordEvent(h.audit, c, domain.EventLoginSucceeded, account, "", domain.AuthKindGitHub, "")

	return openSession(c, h.sessions, h.cookie, h.log, account, func() error {
		return c.Redirect(http.StatusFound, homePath)
	})
}

// checkState requires the state query parameter to match the cookie set by
// Login and to carry a valid signature. The cookie is single use.
func (h *GitHubHandler) checkState(c echo.Context) error {
	state := c.QueryParam("state")
	cookie, err := c.Cookie(oauthStateCookie)
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/auth/github",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
	})

	if err != nil || state == "" || cookie.Value != state {
		return domain.ErrOAuthState
	}
	return h.states.Verify(state)
}
