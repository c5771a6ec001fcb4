// Command server runs the daycare identity API.
//
// @title        Dog Daycare API
// @version      1.0
// @description  Account registration, login and session identity for the daycare app.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	_ "github.com/dogdaycare/daycare-api/docs"
	"github.com/dogdaycare/daycare-api/internal/api"
	"github.com/dogdaycare/daycare-api/internal/api/handler"
	"github.com/dogdaycare/daycare-api/internal/core/service"
	mongostore "github.com/dogdaycare/daycare-api/internal/infrastructure/db/mongo"
	redisstore "github.com/dogdaycare/daycare-api/internal/infrastructure/db/redis"
	"github.com/dogdaycare/daycare-api/internal/infrastructure/oauth"
	"github.com/dogdaycare/daycare-api/internal/infrastructure/queue"
	"github.com/dogdaycare/daycare-api/internal/pkg/config"
	"github.com/dogdaycare/daycare-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "daycare-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "daycare-api",
	})

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongostore.Disconnect(mongoClient, shutdownTimeout) }()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	accounts := mongostore.NewAccountRepository(db, cfg.StoreTimeout)
	events := mongostore.NewEventRepository(db, cfg.StoreTimeout)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := events.EnsureIndexes(ctx); err != nil {
		return err
	}

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	authService := service.NewAuthService(accounts, hasher, logger.Component("auth"))
	linker := service.NewIdentityLinker(accounts, logger.Component("linker"))
	sessions := service.NewSessionService(
		redisstore.NewSessionStore(rdb, cfg.StoreTimeout),
		accounts,
		service.SessionConfig{TTL: cfg.Session.TTL, Rolling: cfg.Session.Rolling},
		logger.Component("session"),
	)

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(0, service.NewAuditService(events, logger.Component("audit")), logger.Component("dispatcher"))
	dispatcher.Start(dispatcherCtx)

	deps := api.Dependencies{
		Log:       log,
		Auth:      authService,
		Registrar: authService,
		Linker:    linker,
		Sessions:  sessions,
		Cookie: handler.SessionCookie{
			Name:   cfg.Session.CookieName,
			TTL:    sessions.TTL(),
			Secure: !cfg.IsDevelopment(),
		},
		Audit:  dispatcher,
		Checks: map[string]handler.DependencyCheck{
			"mongodb": mongostore.Pinger(db),
			"redis":   redisstore.Pinger(rdb),
		},
		AuthRate:  rate.Limit(cfg.AuthRateLimit),
		AuthBurst: cfg.AuthRateBurst,
	}
	if cfg.GitHub.Enabled() {
		deps.OAuth = oauth.NewGitHubProvider(oauth.GitHubConfig{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			CallbackURL:  cfg.GitHub.CallbackURL,
		})
		deps.States = oauth.NewStateSigner(cfg.Session.Secret, 0)
	} else {
		log.Warn().Msg("GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set, GitHub login disabled")
	}

	e := api.NewRouter(deps)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("daycare api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		stopDispatcher()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopDispatcher()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
	return nil
}
