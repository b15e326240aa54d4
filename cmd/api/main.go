package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/bootstrap"
	httpapi "github.com/scandicwellnesseu-sys/ultragenerationpro/internal/http"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/http/handlers"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build engine")
	}

	app := handlers.NewApp(&logger)
	app.Generator = components.Scheduler
	app.Images = components.Images
	app.Pricing = components.PricingService
	app.Credits = components.Ledger
	app.AutoApprove = components.AutoApprove

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		InternalSecret:  cfg.InternalAPISecret,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   components.CountryLookup(),
		Static:          components.Artifacts.Handler(),
	})
	server := infra.NewHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Strs("content_providers", components.Content.Providers()).
			Strs("image_providers", components.ImageDriver.Providers()).
			Msg("api listening")
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := components.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to release resources")
	}
	logger.Info().Msg("server stopped")
}
