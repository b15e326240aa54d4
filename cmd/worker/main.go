package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/bootstrap"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	once := flag.Bool("once", false, "run auto-approve once and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to build engine")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := components.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("worker: failed to release resources")
		}
	}()

	scheduler, err := worker.NewCron(cfg.AutoApproveSchedule, components.AutoApprove, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to schedule auto-approve")
	}

	if *once {
		if _, err := scheduler.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("worker: auto-approve failed")
			os.Exit(1)
		}
		return
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	metricsServer := infra.NewMetricsServer(cfg, r)
	go func() {
		logger.Info().Str("addr", metricsServer.Addr()).Msg("worker: metrics listening")
		if err := metricsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("worker: metrics server failed")
		}
	}()

	scheduler.Start()
	logger.Info().Str("schedule", cfg.AutoApproveSchedule).Bool("refresh", cfg.AutoApproveRefresh).Msg("worker: started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("worker: auto-approve did not stop in time")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("worker: failed to shutdown metrics server")
	}
	logger.Info().Msg("worker: stopped")
}
