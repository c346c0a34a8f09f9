package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"interviewapi/internal/app"
	"interviewapi/internal/config"
	"interviewapi/internal/logging"
	"interviewapi/internal/otel"
)

const shutdownTimeout = 15 * time.Second

// @title Visa AI Interviewer API
// @version 1.0.0
// @description CPU server for AI visa interview practice.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Server.LogLevel, location(cfg.Server.TimeZone))

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Str("event", "server_failed").Msg("server stopped with error")
	}
}

func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logging.Component(log, "otel"))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- a.Runner.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	go func() {
		log.Info().Str("event", "server_started").Str("addr", addr).Msg("listening")
		serverErr <- a.HTTP.Listen(addr)
	}()

	select {
	case err := <-serverErr:
		return err
	case err := <-workerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("event", "worker_failed").Msg("background loops stopped")
		}
		<-ctx.Done()
	case <-ctx.Done():
	}

	log.Info().Str("event", "server_stopping").Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.HTTP.ShutdownWithContext(sctx); err != nil {
		return err
	}
	a.StopServers(sctx)
	log.Info().Str("event", "server_stopped").Msg("server stopped gracefully")
	return nil
}

func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
