package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"articleforge/internal/adapter/repo"
	"articleforge/internal/audit"
	"articleforge/internal/http/handlers"
	"articleforge/internal/http/httpapi"
	"articleforge/internal/infra"
	"articleforge/internal/infra/credentials"
	"articleforge/internal/infra/geoip"
	"articleforge/internal/middleware"
	"articleforge/internal/pipeline"
	"articleforge/internal/providers/textgen"
	"articleforge/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("api: configuration incomplete")
	}

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	store := repo.NewJobStore(runner)
	registry := textgen.BuildRegistry(ctx, cfg, credentials.NewStore(runner), logger)
	engine := audit.New(audit.WithLogger(logger))

	artifacts, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}
	defer geo.Close()
	var lookup middleware.CountryLookup
	if geo != nil {
		lookup = geo.CountryCode
	}

	app := &handlers.App{
		Store:           store,
		Orchestrator:    pipeline.NewOrchestrator(store, registry, engine, logger, pipeline.ConfigFrom(cfg)),
		Engine:          engine,
		Artifacts:       artifacts,
		DB:              dbpool,
		Logger:          logger,
		DefaultLanguage: cfg.DefaultLanguage,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowOrigin,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Language: middleware.LanguageOptions{
			Default:    cfg.DefaultLanguage,
			Supported:  audit.SupportedLanguages(),
			Lookup:     lookup,
			ForCountry: geoip.LanguageForCountry,
		},
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msgf("API listening on :%s", cfg.Port)
	if err := infra.NewHTTPServer(cfg, router).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
