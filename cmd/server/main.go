package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soaringjerry/npsdesk/internal/api"
	"github.com/soaringjerry/npsdesk/internal/config"
	"github.com/soaringjerry/npsdesk/internal/db"
	"github.com/soaringjerry/npsdesk/internal/logging"
	"github.com/soaringjerry/npsdesk/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("nps-api", "production", "info")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init("nps-api", cfg.Env, cfg.LogLevel)
	logger := logging.Logger()

	if cfg.JWTSecret == "" {
		logger.Warn().Msg("NPS_JWT_SECRET is not set, using the development secret")
	}

	ctx := context.Background()
	if cfg.Storage.Driver == "sqlite" || cfg.Storage.Driver == "sqlite3" {
		if err := MigrateIfNeeded(ctx, cfg.LegacyDir, cfg.Storage.SQLitePath, cfg.Storage.MigrationsDir); err != nil {
			logger.Fatal().Err(err).Msg("legacy migration failed")
		}
	}

	backend, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage")
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("close storage")
		}
	}()

	store := api.NewCollectionStore(backend, logger)
	if err := store.Load(ctx, api.DefaultSeed()); err != nil {
		logger.Fatal().Err(err).Msg("load collections")
	}
	creds, err := api.DefaultCredentials(0)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash credentials")
	}
	store.SetCredentials(creds)

	router := api.NewRouter(store, middleware.NewTokens(cfg.JWTSecret), api.Options{
		TokenTTL:       cfg.TokenTTL,
		ExportInterval: cfg.ExportInterval,
		SecureCookies:  cfg.SecureCookies,
		Location:       cfg.Location,
		Commit:         cfg.Commit,
		BuildTime:      cfg.BuildTime,
	}, logger)

	handler := middleware.Chain(router.Handler(),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigin),
		middleware.SecureHeaders,
		middleware.NoStore,
		middleware.LocaleMiddleware,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("storage", cfg.Storage.Driver).Str("commit", cfg.Commit).Msg("NPS server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
