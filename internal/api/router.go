package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/dogdaycare/daycare-api/internal/api/handler"
	"github.com/dogdaycare/daycare-api/internal/api/middleware"
	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Log       zerolog.Logger
	Auth      ports.Authenticator
	Registrar ports.Registrar
	Linker    ports.IdentityLinker
	Sessions  ports.SessionManager
	Cookie    handler.SessionCookie
	Audit     handler.AuditDispatcher
	Checks    map[string]handler.DependencyCheck

	// OAuth and States are nil when GitHub login is not configured.
	OAuth  ports.OAuthProvider
	States handler.StateSigner

	// Registry defaults to the global Prometheus registry.
	Registry *prometheus.Registry

	// AuthRate limits login and registration attempts per client IP.
	// Zero disables the limiter.
	AuthRate  rate.Limit
	AuthBurst int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))
	e.Use(middleware.Session(deps.Sessions, deps.Cookie, deps.Log, isOpsPath))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Registrar, deps.Sessions, deps.Cookie, deps.Audit, deps.Log)
	limit := authRateLimiter(deps.AuthRate, deps.AuthBurst)
	e.POST("/register", authHandler.Register, limit)
	e.POST("/login", authHandler.Login, limit)
	e.POST("/logout", authHandler.Logout)

	if deps.OAuth != nil && deps.States != nil {
		github := handler.NewGitHubHandler(deps.OAuth, deps.States, deps.Linker, deps.Sessions, deps.Cookie, deps.Audit, deps.Log)
		e.GET("/auth/github", github.Login)
		e.GET("/auth/github/callback", github.Callback)
	}

	// --- Account routes (session required) ---
	e.GET("/home", authHandler.Home, middleware.RequireAccount())
	account := e.Group("/account", middleware.RequireAccount())
	account.POST("/password", authHandler.ChangePassword, middleware.RequireAuthKind(domain.AuthKindLocal))

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Checks).Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer(deps.Registry)}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func authRateLimiter(limit rate.Limit, burst int) echo.MiddlewareFunc {
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:  limit,
			Burst: burst,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many attempts, slow down"})
		},
	})
}

// isOpsPath matches endpoints that must answer without the session store.
func isOpsPath(c echo.Context) bool {
	switch c.Path() {
	case "/health", "/health/ready", "/metrics", "/swagger/*":
		return true
	}
	return false
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "http",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func gatherer(reg *prometheus.Registry) prometheus.Gatherer {
	if reg != nil {
		return reg
	}
	return prometheus.DefaultGatherer
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
