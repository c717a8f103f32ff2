package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/order-portal/internal/api"
	"github.com/vasiliy-maslov/order-portal/internal/config"
	"github.com/vasiliy-maslov/order-portal/internal/events"
	portalHandler "github.com/vasiliy-maslov/order-portal/internal/handler/http"
	"github.com/vasiliy-maslov/order-portal/internal/portal"
	"github.com/vasiliy-maslov/order-portal/internal/session"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"), ".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.With().Str("service", cfg.App.Name).Logger()

	log.Info().Msg("Order portal starting...")
	log.Debug().Str("api_base_url", cfg.API.BaseURL).Str("tax_rate", cfg.TaxRate.String()).Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create order backend client")
	}

	var store session.Store
	if cfg.Session.RedisAddr != "" {
		rdb, err := session.NewRedisClient(ctx, cfg.Session.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.Session.TTL)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
		store = session.NewMemoryStore(cfg.Session.TTL)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.App.Name, 256)
		kp.Start(ctx)
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Publishing activity events to kafka")
	}

	svc := portal.NewService(backend, store, publisher, cfg.TaxRate)
	handler := portalHandler.NewPortalHandler(svc, cfg.App.SecureCookie)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      portalHandler.NewRouter(handler, cfg.App.RequestTimeout),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.App.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close event publisher")
	}
	log.Info().Msg("Server stopped")
}
