package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/handlers"
	"github.com/anonto42/bazaar/backend/internal/metrics"
	"github.com/anonto42/bazaar/backend/internal/notify"
	"github.com/anonto42/bazaar/backend/internal/router"
	"github.com/anonto42/bazaar/backend/internal/session"
	"github.com/anonto42/bazaar/backend/pkg/config"
	"github.com/anonto42/bazaar/backend/pkg/firebase"
	"github.com/anonto42/bazaar/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := router.Migrate(ctx, db.Postgres, db.MongoDB); err != nil {
		return err
	}

	health := map[string]handlers.HealthCheck{
		"postgres": db.PingPostgres,
		"mongo":    db.PingMongo,
	}

	// Without Redis, tokens cannot be revoked before they expire.
	var sessions auth.SessionStore
	if cfg.RedisURL != "" {
		store, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer store.Close()
		sessions = store
		health["redis"] = store.Ping
	} else {
		log.Warn("REDIS_URL not set, logout will not revoke tokens")
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, sessions)

	var verifier handlers.IDTokenVerifier
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		return err
	}
	if firebaseApp != nil {
		verifier = firebaseApp.AuthClient
	}

	repos := router.NewRepositories(db.Postgres, db.MongoDB)

	emitter := notify.NewEmitter(repos.Notifications, log, notify.Options{
		Buffer:  cfg.NotifyBuffer,
		Workers: cfg.NotifyWorkers,
		Timeout: cfg.NotifyTimeout,
	})
	emitter.Start()
	defer emitter.Stop()

	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e, log, cfg.RequestTimeout)
	router.SetupRoutes(e, repos, router.Options{
		Tokens:   tokens,
		Firebase: verifier,
		Notifier: emitter,
		Logger:   log,
		Health:   health,
	})

	metricsServer := metrics.NewServer(":" + cfg.MetricsPort)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server starting", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics shutdown", "error", err)
	}
	return nil
}
