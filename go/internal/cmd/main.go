package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/poolnhl/go/internal/dbconfig"
	"github.com/mcdev12/poolnhl/go/internal/gateway"
	"github.com/mcdev12/poolnhl/go/internal/outbox"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read database config")
	}
	database, err := setupDatabase(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer database.Close()

	services, err := setupServices(ctx, config, database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}
	defer services.Publisher.Close()

	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listenerCfg.FallbackInterval = config.Outbox.FallbackInterval
	listener, err := outbox.NewListener(services.Relay, listenerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create outbox listener")
	}

	consumerCfg := gateway.DefaultJetStreamConsumerConfig()
	consumerCfg.URL = config.NATS.URL
	consumerCfg.StreamName = config.NATS.StreamName
	consumerCfg.ConsumerName = config.NATS.ConsumerName
	consumerCfg.SubjectFilter = config.NATS.SubjectPrefix + ".>"
	consumer, err := gateway.NewEventConsumer(ctx, services.Gateway, services.App, consumerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event consumer")
	}
	defer consumer.Stop()

	server := setupServer(config, services)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return services.Gateway.Start(gctx) })
	g.Go(func() error { return services.Tracker.Run(gctx) })
	g.Go(func() error { return listener.Start(gctx) })
	g.Go(func() error { return consumer.Start(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}

func setupLogging(config *Config) {
	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if config.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
