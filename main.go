package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/rs/zerolog/log"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogPretty)
	log.Logger = logger

	ctx := context.Background()

	// --- Events (optional) ---
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, domain events disabled")
		} else {
			defer mqClient.Close()
			events = mqClient
			if err := mqClient.ConsumeEvents(rabbitmq.LogEvent); err != nil {
				log.Warn().Err(err).Msg("failed to start event consumer")
			}
		}
	}

	// --- Application ---
	app, err := NewApp(ctx, cfg, logger, events)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise application")
	}
	if err := app.Auth.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("driver", cfg.DatabaseDriver).Msg("starting server")
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")
	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}
